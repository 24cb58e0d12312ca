package api

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	apipb "github.com/abrahamboza/Blockchain-Marketplace-for-Ai-Applications/api"
)

func init() {
	reg = append(reg, func() APIHandler { return &chainApi{} })
}

type chainApi struct {
	BaseHandler
}

func (c *chainApi) Desc() *grpc.ServiceDesc {
	return &apipb.ChainService_ServiceDesc
}

func (c *chainApi) Mine(ctx context.Context, req *apipb.MineRequest) (*apipb.MineResponse, error) {
	b, err := c.a.n.Mine(ctx, req.Difficulty)
	if err != nil {
		return nil, err
	}

	return &apipb.MineResponse{Block: b}, nil
}

func (c *chainApi) Validate(ctx context.Context, req *apipb.ValidateRequest) (*apipb.ValidateResponse, error) {
	res := &apipb.ValidateResponse{Valid: true, IndexValid: true}

	if err := c.a.n.Ledger().ValidateChain(); err != nil {
		res.Valid = false
		res.Error = err.Error()
	}

	if err := c.a.n.Ledger().VerifyIndex(); err != nil {
		res.IndexValid = false
		res.IndexError = err.Error()
	}

	return res, nil
}

func (c *chainApi) Info(ctx context.Context, req *apipb.InfoRequest) (*apipb.InfoResponse, error) {
	return &apipb.InfoResponse{Info: c.a.n.Ledger().Info()}, nil
}

func (c *chainApi) Block(ctx context.Context, req *apipb.BlockRequest) (*apipb.BlockResponse, error) {
	b, ok := c.a.n.Ledger().Block(req.Index)
	if !ok {
		return nil, status.Errorf(codes.NotFound, "no block at index %d", req.Index)
	}

	return &apipb.BlockResponse{Block: b}, nil
}

func (c *chainApi) Pending(ctx context.Context, req *apipb.PendingRequest) (*apipb.PendingResponse, error) {
	return &apipb.PendingResponse{Txs: c.a.n.Ledger().Pending()}, nil
}
