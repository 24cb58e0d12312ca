package api

import (
	"context"

	"github.com/ipfs/go-cid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	apipb "github.com/abrahamboza/Blockchain-Marketplace-for-Ai-Applications/api"
	"github.com/abrahamboza/Blockchain-Marketplace-for-Ai-Applications/pkg/storage"
)

func init() {
	reg = append(reg, func() APIHandler { return &storageApi{} })
}

type storageApi struct {
	BaseHandler
}

func (s *storageApi) Desc() *grpc.ServiceDesc {
	return &apipb.StorageService_ServiceDesc
}

func parseCID(s string) (cid.Cid, error) {
	id, err := storage.ParseCID(s)
	if err != nil {
		return cid.Undef, status.Errorf(codes.InvalidArgument, "%s", err)
	}
	return id, nil
}

func (s *storageApi) Pin(ctx context.Context, req *apipb.PinRequest) (*apipb.PinResponse, error) {
	id, err := parseCID(req.CID)
	if err != nil {
		return nil, err
	}

	ok, err := s.a.n.Storage().Pin(ctx, id)
	if err != nil {
		return nil, err
	}

	return &apipb.PinResponse{Ok: ok}, nil
}

func (s *storageApi) Unpin(ctx context.Context, req *apipb.PinRequest) (*apipb.PinResponse, error) {
	id, err := parseCID(req.CID)
	if err != nil {
		return nil, err
	}

	ok, err := s.a.n.Storage().Unpin(ctx, id)
	if err != nil {
		return nil, err
	}

	return &apipb.PinResponse{Ok: ok}, nil
}

func (s *storageApi) Pins(ctx context.Context, req *apipb.PinsRequest) (*apipb.PinsResponse, error) {
	pins, err := s.a.n.Storage().Pins(ctx)
	if err != nil {
		return nil, err
	}

	res := &apipb.PinsResponse{CIDs: make([]string, 0, len(pins))}
	for _, p := range pins {
		res.CIDs = append(res.CIDs, p.String())
	}

	return res, nil
}

func (s *storageApi) Cleanup(ctx context.Context, req *apipb.CleanupRequest) (*apipb.CleanupResponse, error) {
	n, err := s.a.n.Storage().Cleanup(ctx)
	if err != nil {
		return nil, err
	}

	return &apipb.CleanupResponse{Removed: n}, nil
}
