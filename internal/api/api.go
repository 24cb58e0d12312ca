package api

import (
	"context"
	"net"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"google.golang.org/grpc"

	"github.com/abrahamboza/Blockchain-Marketplace-for-Ai-Applications/internal/node"
	"github.com/abrahamboza/Blockchain-Marketplace-for-Ai-Applications/internal/utils/logging"
)

// APIHandler is one gRPC service exposed by the daemon.
type APIHandler interface {
	Setup(*Api) error
	Desc() *grpc.ServiceDesc
}

var (
	reg = []func() APIHandler{}
)

type BaseHandler struct {
	a *Api
}

func (b *BaseHandler) Setup(a *Api) error {
	b.a = a
	return nil
}

// Api serves the market, chain and storage services of a single node.
type Api struct {
	n      *node.Node
	g      *grpc.Server
	logger *logrus.Entry
}

func NewAPI(n *node.Node) (*Api, error) {
	if n == nil {
		return nil, errors.New("api requires a node")
	}

	l := logging.Component("api")

	a := &Api{
		n:      n,
		g:      newGRPCServer(l),
		logger: l,
	}

	for _, newHandler := range reg {
		s := newHandler()
		if err := s.Setup(a); err != nil {
			return nil, errors.Wrapf(err, "setting up %s", s.Desc().ServiceName)
		}
		a.g.RegisterService(s.Desc(), s)
	}

	return a, nil
}

func (a *Api) ListenAndServe(l net.Addr) error {
	lis, err := net.Listen("tcp", l.String())
	if err != nil {
		return errors.Wrap(err, "listening")
	}

	return a.Serve(lis)
}

func (a *Api) Serve(lis net.Listener) error {
	a.logger.WithField("addr", lis.Addr().String()).Info("serving api")

	return a.g.Serve(lis)
}

// Shutdown waits for in-flight calls to finish. A long running mine call
// would hold it open, so once ctx is done the remaining calls are cut.
func (a *Api) Shutdown(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		a.g.GracefulStop()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		a.g.Stop()
		<-done
		return ctx.Err()
	}
}
