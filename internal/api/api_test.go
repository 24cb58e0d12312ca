package api

import (
	"context"
	"net"
	"testing"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/test/bufconn"

	apipb "github.com/abrahamboza/Blockchain-Marketplace-for-Ai-Applications/api"
	"github.com/abrahamboza/Blockchain-Marketplace-for-Ai-Applications/internal/config"
	"github.com/abrahamboza/Blockchain-Marketplace-for-Ai-Applications/internal/node"
	"github.com/abrahamboza/Blockchain-Marketplace-for-Ai-Applications/pkg/cryptography"
	"github.com/abrahamboza/Blockchain-Marketplace-for-Ai-Applications/pkg/market"
	"github.com/abrahamboza/Blockchain-Marketplace-for-Ai-Applications/pkg/tx"
)

func newTestClient(t *testing.T) *Client {
	viper.Set(config.Cfg_chain_difficulty, 1)
	t.Cleanup(func() { viper.Set(config.Cfg_chain_difficulty, nil) })

	cfg, err := config.GetConfig()
	require.NoError(t, err)

	n, err := node.NewNode(context.Background(), node.WithConfig(cfg), node.WithRepo(t.TempDir()))
	require.NoError(t, err)

	a, err := NewAPI(n)
	require.NoError(t, err)

	lis := bufconn.Listen(1 << 20)
	go a.Serve(lis)

	c, err := Dial("bufnet", grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
		return lis.DialContext(ctx)
	}))
	require.NoError(t, err)

	t.Cleanup(func() {
		c.Close()
		a.Shutdown(context.Background())
		n.Stop()
	})

	return c
}

func TestMarketRoundTrip(t *testing.T) {
	ctx := context.Background()
	c := newTestClient(t)

	up, err := c.Market().Upload(ctx, &apipb.UploadRequest{
		Owner:    "alice",
		Payload:  []byte("hello"),
		Metadata: map[string]string{"name": "greeting"},
		Price:    10,
	})
	require.NoError(t, err)
	require.NotEmpty(t, up.ItemID)

	_, err = cryptography.ParseKey(up.Key)
	require.NoError(t, err)

	rd, err := c.Market().Read(ctx, &apipb.ReadRequest{Holder: "alice", ItemID: up.ItemID, Key: up.Key})
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), rd.Payload)

	_, err = c.Market().Read(ctx, &apipb.ReadRequest{Holder: "bob", ItemID: up.ItemID, Key: up.Key})
	assert.True(t, errors.Is(err, market.ErrAccessDenied))

	acc, err := c.Market().Access(ctx, &apipb.AccessRequest{Holder: "bob", ItemID: up.ItemID})
	require.NoError(t, err)
	assert.False(t, acc.Allowed)

	pr, err := c.Market().Purchase(ctx, &apipb.PurchaseRequest{Buyer: "bob", ItemID: up.ItemID, Amount: 10})
	require.NoError(t, err)
	assert.Equal(t, tx.TxType_DataPurchase, pr.Receipt.Type)
	assert.Equal(t, "alice", pr.Receipt.Seller)

	rd, err = c.Market().Read(ctx, &apipb.ReadRequest{Holder: "bob", ItemID: up.ItemID})
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), rd.Payload)

	wrong, _ := cryptography.GenerateKey()
	_, err = c.Market().Read(ctx, &apipb.ReadRequest{Holder: "bob", ItemID: up.ItemID, Key: wrong.String()})
	assert.True(t, errors.Is(err, cryptography.ErrDecryption))

	_, err = c.Market().Purchase(ctx, &apipb.PurchaseRequest{Buyer: "bob", ItemID: "missing", Amount: 1})
	assert.True(t, errors.Is(err, market.ErrItemNotFound))

	ls, err := c.Market().List(ctx, &apipb.ListRequest{Kind: apipb.KindData})
	require.NoError(t, err)
	require.Len(t, ls.Items, 1)
	assert.Equal(t, []string{"bob"}, ls.Items[0].PurchasedBy)
	assert.Equal(t, "greeting", ls.Items[0].Metadata["name"])

	_, err = c.Market().List(ctx, &apipb.ListRequest{Kind: "nope"})
	assert.Error(t, err)
}

func TestChainRoundTrip(t *testing.T) {
	ctx := context.Background()
	c := newTestClient(t)

	tr, err := c.Market().Transfer(ctx, &apipb.TransferRequest{Sender: "a", Recipient: "b", Amount: 1})
	require.NoError(t, err)
	assert.Equal(t, uint64(1), tr.BlockIndex)

	_, err = c.Market().Transfer(ctx, &apipb.TransferRequest{Recipient: "b", Amount: 1})
	assert.True(t, errors.Is(err, tx.ErrInvalidTransaction))

	pend, err := c.Chain().Pending(ctx, &apipb.PendingRequest{})
	require.NoError(t, err)
	require.Len(t, pend.Txs, 1)
	assert.Equal(t, tr.TxID, pend.Txs[0].ID)

	d := uint8(2)
	mr, err := c.Chain().Mine(ctx, &apipb.MineRequest{Difficulty: &d})
	require.NoError(t, err)
	assert.Equal(t, uint64(1), mr.Block.Index)
	assert.Equal(t, uint8(2), mr.Block.Difficulty)
	assert.Equal(t, []string{tr.TxID}, mr.Block.TxIDs())

	mr, err = c.Chain().Mine(ctx, &apipb.MineRequest{})
	require.NoError(t, err)
	assert.Equal(t, uint8(1), mr.Block.Difficulty)

	info, err := c.Chain().Info(ctx, &apipb.InfoRequest{})
	require.NoError(t, err)
	assert.Equal(t, 3, info.Info.TotalBlocks)
	assert.Equal(t, mr.Block.Hash, info.Info.LatestHash)

	br, err := c.Chain().Block(ctx, &apipb.BlockRequest{Index: 1})
	require.NoError(t, err)
	h, err := br.Block.ComputeHash()
	require.NoError(t, err)
	assert.Equal(t, br.Block.Hash, h)

	_, err = c.Chain().Block(ctx, &apipb.BlockRequest{Index: 99})
	assert.Error(t, err)

	v, err := c.Chain().Validate(ctx, &apipb.ValidateRequest{})
	require.NoError(t, err)
	assert.True(t, v.Valid)
	assert.True(t, v.IndexValid)
}

func TestStorageRoundTrip(t *testing.T) {
	ctx := context.Background()
	c := newTestClient(t)

	up, err := c.Market().Upload(ctx, &apipb.UploadRequest{Kind: apipb.KindModel, Owner: "carol", Payload: []byte("m"), Price: 1})
	require.NoError(t, err)

	ls, err := c.Market().List(ctx, &apipb.ListRequest{Kind: apipb.KindModel})
	require.NoError(t, err)
	require.Len(t, ls.Items, 1)
	id := ls.Items[0].Metadata[market.MetadataCID]

	pins, err := c.Storage().Pins(ctx, &apipb.PinsRequest{})
	require.NoError(t, err)
	assert.Equal(t, []string{id}, pins.CIDs)

	cl, err := c.Storage().Cleanup(ctx, &apipb.CleanupRequest{})
	require.NoError(t, err)
	assert.Equal(t, 0, cl.Removed)

	_, err = c.Storage().Unpin(ctx, &apipb.PinRequest{CID: id})
	require.NoError(t, err)

	cl, err = c.Storage().Cleanup(ctx, &apipb.CleanupRequest{})
	require.NoError(t, err)
	assert.Equal(t, 1, cl.Removed)

	pin, err := c.Storage().Pin(ctx, &apipb.PinRequest{CID: id})
	require.NoError(t, err)
	assert.False(t, pin.Ok)

	_, err = c.Storage().Pin(ctx, &apipb.PinRequest{CID: "garbage"})
	assert.Error(t, err)

	_, err = c.Market().Read(ctx, &apipb.ReadRequest{Holder: "carol", ItemID: up.ItemID, Key: up.Key})
	assert.Error(t, err)
}
