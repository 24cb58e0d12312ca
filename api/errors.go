package api

import (
	"context"
	"strings"

	"github.com/pkg/errors"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/abrahamboza/Blockchain-Marketplace-for-Ai-Applications/pkg/cryptography"
	"github.com/abrahamboza/Blockchain-Marketplace-for-Ai-Applications/pkg/ledger"
	"github.com/abrahamboza/Blockchain-Marketplace-for-Ai-Applications/pkg/market"
	"github.com/abrahamboza/Blockchain-Marketplace-for-Ai-Applications/pkg/storage"
	"github.com/abrahamboza/Blockchain-Marketplace-for-Ai-Applications/pkg/tx"
)

// errorKinds maps each error kind to its status code. Kinds sharing a
// code are told apart by their text in the status message.
var errorKinds = []struct {
	kind error
	code codes.Code
}{
	{ledger.ErrChainIntegrity, codes.FailedPrecondition},
	{ledger.ErrDuplicateTransaction, codes.AlreadyExists},
	{tx.ErrInvalidTransaction, codes.InvalidArgument},
	{storage.ErrStorageIO, codes.DataLoss},
	{market.ErrItemNotFound, codes.NotFound},
	{storage.ErrNotFound, codes.NotFound},
	{market.ErrAccessDenied, codes.PermissionDenied},
	{cryptography.ErrDecryption, codes.Unauthenticated},
	{market.ErrNoKey, codes.FailedPrecondition},
	{ledger.ErrMiningAborted, codes.Aborted},
}

// ToStatus converts err to a gRPC status error carrying its kind.
func ToStatus(err error) error {
	if err == nil {
		return nil
	}

	if _, ok := status.FromError(err); ok {
		return err
	}

	for _, k := range errorKinds {
		if errors.Is(err, k.kind) {
			return status.Error(k.code, err.Error())
		}
	}

	if errors.Is(err, context.Canceled) {
		return status.Error(codes.Canceled, err.Error())
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return status.Error(codes.DeadlineExceeded, err.Error())
	}

	return status.Error(codes.Internal, err.Error())
}

type remoteError struct {
	msg  string
	kind error
}

func (e *remoteError) Error() string { return e.msg }

func (e *remoteError) Unwrap() error { return e.kind }

// FromStatus restores the error kind of a status error returned by the
// daemon so callers can test it with errors.Is.
func FromStatus(err error) error {
	st, ok := status.FromError(err)
	if !ok || st.Code() == codes.OK {
		return err
	}

	var fallback error
	for _, k := range errorKinds {
		if st.Code() != k.code {
			continue
		}
		if strings.Contains(st.Message(), k.kind.Error()) {
			return &remoteError{msg: st.Message(), kind: k.kind}
		}
		if fallback == nil {
			fallback = k.kind
		}
	}

	if fallback != nil {
		return &remoteError{msg: st.Message(), kind: fallback}
	}

	return err
}

// UnaryServerErrorInterceptor converts handler errors with ToStatus.
func UnaryServerErrorInterceptor() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		resp, err := handler(ctx, req)
		return resp, ToStatus(err)
	}
}

// UnaryClientErrorInterceptor converts call errors with FromStatus.
func UnaryClientErrorInterceptor() grpc.UnaryClientInterceptor {
	return func(ctx context.Context, method string, req, reply interface{}, cc *grpc.ClientConn, invoker grpc.UnaryInvoker, opts ...grpc.CallOption) error {
		return FromStatus(invoker(ctx, method, req, reply, cc, opts...))
	}
}
