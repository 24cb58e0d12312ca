package api

import (
	"context"

	"google.golang.org/grpc"

	"github.com/abrahamboza/Blockchain-Marketplace-for-Ai-Applications/pkg/ledger"
	"github.com/abrahamboza/Blockchain-Marketplace-for-Ai-Applications/pkg/tx"
)

const chainService = "ChainService"

type MineRequest struct {
	// Difficulty overrides the daemon's configured difficulty when set.
	Difficulty *uint8 `msgpack:"difficulty"`
}

type MineResponse struct {
	Block *ledger.Block `msgpack:"block"`
}

type ValidateRequest struct{}

type ValidateResponse struct {
	Valid      bool   `msgpack:"valid"`
	Error      string `msgpack:"error"`
	IndexValid bool   `msgpack:"index_valid"`
	IndexError string `msgpack:"index_error"`
}

type InfoRequest struct{}

type InfoResponse struct {
	Info ledger.Info `msgpack:"info"`
}

type BlockRequest struct {
	Index uint64 `msgpack:"index"`
}

type BlockResponse struct {
	Block *ledger.Block `msgpack:"block"`
}

type PendingRequest struct{}

type PendingResponse struct {
	Txs []*tx.Tx `msgpack:"txs"`
}

type ChainServiceServer interface {
	Mine(context.Context, *MineRequest) (*MineResponse, error)
	Validate(context.Context, *ValidateRequest) (*ValidateResponse, error)
	Info(context.Context, *InfoRequest) (*InfoResponse, error)
	Block(context.Context, *BlockRequest) (*BlockResponse, error)
	Pending(context.Context, *PendingRequest) (*PendingResponse, error)
}

var ChainService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: servicePrefix + chainService,
	HandlerType: (*ChainServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		unary(chainService, "Mine", ChainServiceServer.Mine),
		unary(chainService, "Validate", ChainServiceServer.Validate),
		unary(chainService, "Info", ChainServiceServer.Info),
		unary(chainService, "Block", ChainServiceServer.Block),
		unary(chainService, "Pending", ChainServiceServer.Pending),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "api/chain.go",
}

type ChainServiceClient interface {
	Mine(ctx context.Context, in *MineRequest, opts ...grpc.CallOption) (*MineResponse, error)
	Validate(ctx context.Context, in *ValidateRequest, opts ...grpc.CallOption) (*ValidateResponse, error)
	Info(ctx context.Context, in *InfoRequest, opts ...grpc.CallOption) (*InfoResponse, error)
	Block(ctx context.Context, in *BlockRequest, opts ...grpc.CallOption) (*BlockResponse, error)
	Pending(ctx context.Context, in *PendingRequest, opts ...grpc.CallOption) (*PendingResponse, error)
}

type chainServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewChainServiceClient(cc grpc.ClientConnInterface) ChainServiceClient {
	return &chainServiceClient{cc}
}

func (c *chainServiceClient) Mine(ctx context.Context, in *MineRequest, opts ...grpc.CallOption) (*MineResponse, error) {
	return invoke[MineResponse](ctx, c.cc, chainService, "Mine", in, opts)
}

func (c *chainServiceClient) Validate(ctx context.Context, in *ValidateRequest, opts ...grpc.CallOption) (*ValidateResponse, error) {
	return invoke[ValidateResponse](ctx, c.cc, chainService, "Validate", in, opts)
}

func (c *chainServiceClient) Info(ctx context.Context, in *InfoRequest, opts ...grpc.CallOption) (*InfoResponse, error) {
	return invoke[InfoResponse](ctx, c.cc, chainService, "Info", in, opts)
}

func (c *chainServiceClient) Block(ctx context.Context, in *BlockRequest, opts ...grpc.CallOption) (*BlockResponse, error) {
	return invoke[BlockResponse](ctx, c.cc, chainService, "Block", in, opts)
}

func (c *chainServiceClient) Pending(ctx context.Context, in *PendingRequest, opts ...grpc.CallOption) (*PendingResponse, error) {
	return invoke[PendingResponse](ctx, c.cc, chainService, "Pending", in, opts)
}
