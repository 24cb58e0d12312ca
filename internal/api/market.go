package api

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	apipb "github.com/abrahamboza/Blockchain-Marketplace-for-Ai-Applications/api"
	"github.com/abrahamboza/Blockchain-Marketplace-for-Ai-Applications/pkg/cryptography"
	"github.com/abrahamboza/Blockchain-Marketplace-for-Ai-Applications/pkg/tx"
)

func init() {
	reg = append(reg, func() APIHandler { return &marketApi{} })
}

type marketApi struct {
	BaseHandler
}

func (m *marketApi) Desc() *grpc.ServiceDesc {
	return &apipb.MarketService_ServiceDesc
}

func uploadKind(kind string) (tx.TxType, error) {
	switch kind {
	case apipb.KindData, "":
		return tx.TxType_DataUpload, nil
	case apipb.KindModel:
		return tx.TxType_ModelUpload, nil
	default:
		return "", status.Errorf(codes.InvalidArgument, "unknown item kind %q", kind)
	}
}

func (m *marketApi) Upload(ctx context.Context, req *apipb.UploadRequest) (*apipb.UploadResponse, error) {
	kind, err := uploadKind(req.Kind)
	if err != nil {
		return nil, err
	}

	upload := m.a.n.Market().Upload
	if kind == tx.TxType_ModelUpload {
		upload = m.a.n.Market().UploadModel
	}

	id, key, err := upload(ctx, req.Owner, req.Payload, req.Metadata, req.Price)
	if err != nil {
		return nil, err
	}

	return &apipb.UploadResponse{ItemID: id, Key: key.String()}, nil
}

func (m *marketApi) Purchase(ctx context.Context, req *apipb.PurchaseRequest) (*apipb.PurchaseResponse, error) {
	r, err := m.a.n.Market().Purchase(ctx, req.Buyer, req.ItemID, req.Amount)
	if err != nil {
		return nil, err
	}

	return &apipb.PurchaseResponse{Receipt: *r}, nil
}

func (m *marketApi) Read(ctx context.Context, req *apipb.ReadRequest) (*apipb.ReadResponse, error) {
	var (
		d   []byte
		err error
	)

	if req.Key == "" {
		d, err = m.a.n.Market().ReadWithCustody(ctx, req.Holder, req.ItemID)
	} else {
		k, perr := cryptography.ParseKey(req.Key)
		if perr != nil {
			return nil, status.Errorf(codes.InvalidArgument, "parsing key: %s", perr)
		}
		d, err = m.a.n.Market().Read(ctx, req.Holder, req.ItemID, k)
	}
	if err != nil {
		return nil, err
	}

	return &apipb.ReadResponse{Payload: d}, nil
}

func (m *marketApi) List(ctx context.Context, req *apipb.ListRequest) (*apipb.ListResponse, error) {
	var kind tx.TxType
	if req.Kind != "" {
		k, err := uploadKind(req.Kind)
		if err != nil {
			return nil, err
		}
		kind = k
	}

	return &apipb.ListResponse{Items: m.a.n.Market().Items(kind)}, nil
}

func (m *marketApi) Access(ctx context.Context, req *apipb.AccessRequest) (*apipb.AccessResponse, error) {
	return &apipb.AccessResponse{Allowed: m.a.n.Market().AuthorizeAccess(req.Holder, req.ItemID)}, nil
}

func (m *marketApi) Transfer(ctx context.Context, req *apipb.TransferRequest) (*apipb.TransferResponse, error) {
	id, idx, err := m.a.n.Market().Transfer(req.Sender, req.Recipient, req.Amount)
	if err != nil {
		return nil, err
	}

	return &apipb.TransferResponse{TxID: id, BlockIndex: idx}, nil
}
