package api

import (
	"context"

	"google.golang.org/grpc"

	"github.com/abrahamboza/Blockchain-Marketplace-for-Ai-Applications/pkg/ledger"
	"github.com/abrahamboza/Blockchain-Marketplace-for-Ai-Applications/pkg/market"
)

const marketService = "MarketService"

// Item kinds accepted by the market service.
const (
	KindData  = "data"
	KindModel = "model"
)

type UploadRequest struct {
	Kind     string            `msgpack:"kind"`
	Owner    string            `msgpack:"owner"`
	Payload  []byte            `msgpack:"payload"`
	Metadata map[string]string `msgpack:"metadata"`
	Price    float64           `msgpack:"price"`
}

type UploadResponse struct {
	ItemID string `msgpack:"item_id"`

	// Key is the multibase text form of the payload key.
	Key string `msgpack:"key"`
}

type PurchaseRequest struct {
	Buyer  string  `msgpack:"buyer"`
	ItemID string  `msgpack:"item_id"`
	Amount float64 `msgpack:"amount"`
}

type PurchaseResponse struct {
	Receipt market.Receipt `msgpack:"receipt"`
}

type ReadRequest struct {
	Holder string `msgpack:"holder"`
	ItemID string `msgpack:"item_id"`

	// Key is optional; without it the key held in custody is used.
	Key string `msgpack:"key"`
}

type ReadResponse struct {
	Payload []byte `msgpack:"payload"`
}

type ListRequest struct {
	Kind string `msgpack:"kind"`
}

type ListResponse struct {
	Items []*ledger.Item `msgpack:"items"`
}

type AccessRequest struct {
	Holder string `msgpack:"holder"`
	ItemID string `msgpack:"item_id"`
}

type AccessResponse struct {
	Allowed bool `msgpack:"allowed"`
}

type TransferRequest struct {
	Sender    string  `msgpack:"sender"`
	Recipient string  `msgpack:"recipient"`
	Amount    float64 `msgpack:"amount"`
}

type TransferResponse struct {
	TxID       string `msgpack:"tx_id"`
	BlockIndex uint64 `msgpack:"block_index"`
}

type MarketServiceServer interface {
	Upload(context.Context, *UploadRequest) (*UploadResponse, error)
	Purchase(context.Context, *PurchaseRequest) (*PurchaseResponse, error)
	Read(context.Context, *ReadRequest) (*ReadResponse, error)
	List(context.Context, *ListRequest) (*ListResponse, error)
	Access(context.Context, *AccessRequest) (*AccessResponse, error)
	Transfer(context.Context, *TransferRequest) (*TransferResponse, error)
}

var MarketService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: servicePrefix + marketService,
	HandlerType: (*MarketServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		unary(marketService, "Upload", MarketServiceServer.Upload),
		unary(marketService, "Purchase", MarketServiceServer.Purchase),
		unary(marketService, "Read", MarketServiceServer.Read),
		unary(marketService, "List", MarketServiceServer.List),
		unary(marketService, "Access", MarketServiceServer.Access),
		unary(marketService, "Transfer", MarketServiceServer.Transfer),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "api/market.go",
}

type MarketServiceClient interface {
	Upload(ctx context.Context, in *UploadRequest, opts ...grpc.CallOption) (*UploadResponse, error)
	Purchase(ctx context.Context, in *PurchaseRequest, opts ...grpc.CallOption) (*PurchaseResponse, error)
	Read(ctx context.Context, in *ReadRequest, opts ...grpc.CallOption) (*ReadResponse, error)
	List(ctx context.Context, in *ListRequest, opts ...grpc.CallOption) (*ListResponse, error)
	Access(ctx context.Context, in *AccessRequest, opts ...grpc.CallOption) (*AccessResponse, error)
	Transfer(ctx context.Context, in *TransferRequest, opts ...grpc.CallOption) (*TransferResponse, error)
}

type marketServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewMarketServiceClient(cc grpc.ClientConnInterface) MarketServiceClient {
	return &marketServiceClient{cc}
}

func (c *marketServiceClient) Upload(ctx context.Context, in *UploadRequest, opts ...grpc.CallOption) (*UploadResponse, error) {
	return invoke[UploadResponse](ctx, c.cc, marketService, "Upload", in, opts)
}

func (c *marketServiceClient) Purchase(ctx context.Context, in *PurchaseRequest, opts ...grpc.CallOption) (*PurchaseResponse, error) {
	return invoke[PurchaseResponse](ctx, c.cc, marketService, "Purchase", in, opts)
}

func (c *marketServiceClient) Read(ctx context.Context, in *ReadRequest, opts ...grpc.CallOption) (*ReadResponse, error) {
	return invoke[ReadResponse](ctx, c.cc, marketService, "Read", in, opts)
}

func (c *marketServiceClient) List(ctx context.Context, in *ListRequest, opts ...grpc.CallOption) (*ListResponse, error) {
	return invoke[ListResponse](ctx, c.cc, marketService, "List", in, opts)
}

func (c *marketServiceClient) Access(ctx context.Context, in *AccessRequest, opts ...grpc.CallOption) (*AccessResponse, error) {
	return invoke[AccessResponse](ctx, c.cc, marketService, "Access", in, opts)
}

func (c *marketServiceClient) Transfer(ctx context.Context, in *TransferRequest, opts ...grpc.CallOption) (*TransferResponse, error) {
	return invoke[TransferResponse](ctx, c.cc, marketService, "Transfer", in, opts)
}
