package api

import (
	"github.com/pkg/errors"
	"github.com/spf13/viper"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	apipb "github.com/abrahamboza/Blockchain-Marketplace-for-Ai-Applications/api"
)

type Client struct {
	cc *grpc.ClientConn
}

func (a *Client) Close() error {
	return a.cc.Close()
}

func (a *Client) Market() apipb.MarketServiceClient {
	return apipb.NewMarketServiceClient(a.cc)
}

func (a *Client) Chain() apipb.ChainServiceClient {
	return apipb.NewChainServiceClient(a.cc)
}

func (a *Client) Storage() apipb.StorageServiceClient {
	return apipb.NewStorageServiceClient(a.cc)
}

// DialOptions are the options every daemon connection uses.
func DialOptions() []grpc.DialOption {
	return []grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithDefaultCallOptions(grpc.CallContentSubtype(apipb.CodecName)),
		grpc.WithChainUnaryInterceptor(apipb.UnaryClientErrorInterceptor()),
	}
}

func NewClient() (*Client, error) {
	return Dial(viper.GetString("daemon_addr"))
}

func Dial(addr string, opts ...grpc.DialOption) (*Client, error) {
	cc, err := grpc.Dial(addr, append(DialOptions(), opts...)...)
	if err != nil {
		return nil, errors.Wrap(err, "connecting to daemon")
	}

	return &Client{cc: cc}, nil
}
