package api

import (
	"context"

	"google.golang.org/grpc"
)

const storageService = "StorageService"

type PinRequest struct {
	CID string `msgpack:"cid"`
}

type PinResponse struct {
	Ok bool `msgpack:"ok"`
}

type PinsRequest struct{}

type PinsResponse struct {
	CIDs []string `msgpack:"cids"`
}

type CleanupRequest struct{}

type CleanupResponse struct {
	Removed int `msgpack:"removed"`
}

type StorageServiceServer interface {
	Pin(context.Context, *PinRequest) (*PinResponse, error)
	Unpin(context.Context, *PinRequest) (*PinResponse, error)
	Pins(context.Context, *PinsRequest) (*PinsResponse, error)
	Cleanup(context.Context, *CleanupRequest) (*CleanupResponse, error)
}

var StorageService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: servicePrefix + storageService,
	HandlerType: (*StorageServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		unary(storageService, "Pin", StorageServiceServer.Pin),
		unary(storageService, "Unpin", StorageServiceServer.Unpin),
		unary(storageService, "Pins", StorageServiceServer.Pins),
		unary(storageService, "Cleanup", StorageServiceServer.Cleanup),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "api/storage.go",
}

type StorageServiceClient interface {
	Pin(ctx context.Context, in *PinRequest, opts ...grpc.CallOption) (*PinResponse, error)
	Unpin(ctx context.Context, in *PinRequest, opts ...grpc.CallOption) (*PinResponse, error)
	Pins(ctx context.Context, in *PinsRequest, opts ...grpc.CallOption) (*PinsResponse, error)
	Cleanup(ctx context.Context, in *CleanupRequest, opts ...grpc.CallOption) (*CleanupResponse, error)
}

type storageServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewStorageServiceClient(cc grpc.ClientConnInterface) StorageServiceClient {
	return &storageServiceClient{cc}
}

func (c *storageServiceClient) Pin(ctx context.Context, in *PinRequest, opts ...grpc.CallOption) (*PinResponse, error) {
	return invoke[PinResponse](ctx, c.cc, storageService, "Pin", in, opts)
}

func (c *storageServiceClient) Unpin(ctx context.Context, in *PinRequest, opts ...grpc.CallOption) (*PinResponse, error) {
	return invoke[PinResponse](ctx, c.cc, storageService, "Unpin", in, opts)
}

func (c *storageServiceClient) Pins(ctx context.Context, in *PinsRequest, opts ...grpc.CallOption) (*PinsResponse, error) {
	return invoke[PinsResponse](ctx, c.cc, storageService, "Pins", in, opts)
}

func (c *storageServiceClient) Cleanup(ctx context.Context, in *CleanupRequest, opts ...grpc.CallOption) (*CleanupResponse, error) {
	return invoke[CleanupResponse](ctx, c.cc, storageService, "Cleanup", in, opts)
}
