package market

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abrahamboza/Blockchain-Marketplace-for-Ai-Applications/pkg/cryptography"
	"github.com/abrahamboza/Blockchain-Marketplace-for-Ai-Applications/pkg/ledger"
	"github.com/abrahamboza/Blockchain-Marketplace-for-Ai-Applications/pkg/storage"
	"github.com/abrahamboza/Blockchain-Marketplace-for-Ai-Applications/pkg/tx"
)

type memCustody struct {
	mu   sync.Mutex
	keys map[string]cryptography.Key
}

func (c *memCustody) PutKey(item, holder string, k cryptography.Key) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.keys == nil {
		c.keys = map[string]cryptography.Key{}
	}
	c.keys[item+"/"+holder] = k
	return nil
}

func (c *memCustody) GetKey(item, holder string) (cryptography.Key, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	k, ok := c.keys[item+"/"+holder]
	return k, ok, nil
}

type failingCustody struct{}

func (failingCustody) PutKey(string, string, cryptography.Key) error {
	return errors.New("disk full")
}

func (failingCustody) GetKey(string, string) (cryptography.Key, bool, error) {
	return cryptography.Key{}, false, nil
}

func newTestMarket(t *testing.T, opts ...Option) (*Market, *storage.MemStore) {
	l, err := ledger.New()
	if err != nil {
		t.Fatal(err)
	}
	cas := storage.NewMemStore()
	return New(l, cas, opts...), cas
}

func TestAliceBobScenario(t *testing.T) {
	m, _ := newTestMarket(t)
	ctx := context.Background()

	x, k, err := m.Upload(ctx, "alice", []byte("hello"), map[string]string{"name": "greeting"}, 10)
	if err != nil {
		t.Fatal(err)
	}

	d, err := m.Read(ctx, "alice", x, k)
	assert.NoError(t, err)
	assert.Equal(t, []byte("hello"), d)

	_, err = m.Read(ctx, "bob", x, k)
	assert.True(t, errors.Is(err, ErrAccessDenied))

	r, err := m.Purchase(ctx, "bob", x, 10)
	require.NoError(t, err)
	assert.Equal(t, tx.TxType_DataPurchase, r.Type)
	assert.Equal(t, "alice", r.Seller)
	assert.False(t, r.Committed)

	d, err = m.Read(ctx, "bob", x, k)
	assert.NoError(t, err)
	assert.Equal(t, []byte("hello"), d)

	wrong, err := cryptography.GenerateKey()
	if err != nil {
		t.Fatal(err)
	}
	d, err = m.Read(ctx, "bob", x, wrong)
	assert.True(t, errors.Is(err, cryptography.ErrDecryption))
	assert.Nil(t, d)
}

func TestUploadStoresPinnedCiphertext(t *testing.T) {
	m, cas := newTestMarket(t)
	ctx := context.Background()

	x, _, err := m.Upload(ctx, "alice", []byte("payload"), map[string]string{"k": "v"}, 3)
	if err != nil {
		t.Fatal(err)
	}

	it, err := m.Item(x)
	require.NoError(t, err)
	assert.Equal(t, "alice", it.Owner)
	assert.Equal(t, float64(3), it.Price)
	assert.Equal(t, "v", it.Metadata["k"])
	assert.NotEmpty(t, it.Metadata[MetadataFileHash])
	assert.False(t, it.Committed)

	id, err := storage.ParseCID(it.Metadata[MetadataCID])
	require.NoError(t, err)

	pinned, err := cas.IsPinned(ctx, id)
	assert.NoError(t, err)
	assert.True(t, pinned)

	ct, ok, err := cas.Get(ctx, id)
	require.NoError(t, err)
	require.True(t, ok)
	assert.NotContains(t, string(ct), "payload")

	md, err := cas.Metadata(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "alice", md["owner"])
	assert.Equal(t, true, md["encrypted"])
	assert.Equal(t, it.Metadata[MetadataFileHash], md["file_hash"])

	n, err := cas.Cleanup(ctx)
	assert.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestOwnerAccessBeforeMining(t *testing.T) {
	m, _ := newTestMarket(t)

	x, _, err := m.Upload(context.Background(), "alice", []byte("a"), nil, 1)
	if err != nil {
		t.Fatal(err)
	}

	assert.Equal(t, 1, m.Ledger().Len())
	assert.True(t, m.AuthorizeAccess("alice", x))
	assert.False(t, m.AuthorizeAccess("bob", x))
}

func TestPurchaseMined(t *testing.T) {
	m, _ := newTestMarket(t)
	ctx := context.Background()

	x, k, err := m.Upload(ctx, "alice", []byte("weights"), nil, 1)
	if err != nil {
		t.Fatal(err)
	}

	if _, _, err := m.Ledger().MineBlock(ctx, 1); err != nil {
		t.Fatal(err)
	}

	assert.False(t, m.AuthorizeAccess("bob", x))

	r, err := m.Purchase(ctx, "bob", x, 1)
	require.NoError(t, err)
	assert.True(t, r.Committed)
	assert.Equal(t, uint64(2), r.BlockIndex)

	if _, _, err := m.Ledger().MineBlock(ctx, 1); err != nil {
		t.Fatal(err)
	}

	assert.True(t, m.AuthorizeAccess("bob", x))
	assert.True(t, m.Ledger().ScanAccess("bob", x))

	d, err := m.Read(ctx, "bob", x, k)
	assert.NoError(t, err)
	assert.Equal(t, []byte("weights"), d)

	it, err := m.Item(x)
	require.NoError(t, err)
	assert.Equal(t, []string{"bob"}, it.PurchasedBy)
	assert.True(t, it.Committed)
}

func TestModelFlow(t *testing.T) {
	m, _ := newTestMarket(t)
	ctx := context.Background()

	x, k, err := m.UploadModel(ctx, "carol", []byte("model"), map[string]string{"arch": "mlp"}, 5)
	if err != nil {
		t.Fatal(err)
	}

	r, err := m.Purchase(ctx, "dave", x, 5)
	require.NoError(t, err)
	assert.Equal(t, tx.TxType_ModelPurchase, r.Type)

	d, err := m.Read(ctx, "dave", x, k)
	assert.NoError(t, err)
	assert.Equal(t, []byte("model"), d)

	assert.Len(t, m.Items(tx.TxType_ModelUpload), 1)
	assert.Empty(t, m.Items(tx.TxType_DataUpload))
	assert.Len(t, m.Items(""), 1)
}

func TestPurchaseUnknownItem(t *testing.T) {
	m, _ := newTestMarket(t)

	_, err := m.Purchase(context.Background(), "bob", "nope", 1)
	assert.True(t, errors.Is(err, ErrItemNotFound))
	assert.Empty(t, m.Ledger().Pending())

	_, err = m.Item("nope")
	assert.True(t, errors.Is(err, ErrItemNotFound))
}

func TestReadUnknownItem(t *testing.T) {
	m, _ := newTestMarket(t)
	ctx := context.Background()

	_, err := m.Read(ctx, "bob", "nope", cryptography.Key{})
	assert.True(t, errors.Is(err, ErrAccessDenied))

	// an orphan purchase grants access to an item that does not exist
	orphan, err := tx.NewDataPurchase("bob", "alice", "nope", 1)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := m.Ledger().SubmitTransaction(orphan); err != nil {
		t.Fatal(err)
	}

	_, err = m.Read(ctx, "bob", "nope", cryptography.Key{})
	assert.True(t, errors.Is(err, ErrItemNotFound))
}

func TestReadMissingObject(t *testing.T) {
	m, cas := newTestMarket(t)
	ctx := context.Background()

	x, k, err := m.Upload(ctx, "alice", []byte("gone"), nil, 1)
	if err != nil {
		t.Fatal(err)
	}

	it, _ := m.Item(x)
	id, _ := storage.ParseCID(it.Metadata[MetadataCID])
	cas.Unpin(ctx, id)
	n, err := cas.Cleanup(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, n)

	_, err = m.Read(ctx, "alice", x, k)
	assert.True(t, errors.Is(err, storage.ErrStorageIO))
}

func TestCustody(t *testing.T) {
	c := &memCustody{}
	m, _ := newTestMarket(t, WithCustody(c))
	ctx := context.Background()

	x, k, err := m.Upload(ctx, "alice", []byte("secret"), nil, 1)
	if err != nil {
		t.Fatal(err)
	}

	owner, ok, _ := c.GetKey(x, "alice")
	assert.True(t, ok)
	assert.Equal(t, k, owner)

	_, err = m.ReadWithCustody(ctx, "bob", x)
	assert.True(t, errors.Is(err, ErrAccessDenied))

	if _, err := m.Purchase(ctx, "bob", x, 1); err != nil {
		t.Fatal(err)
	}

	d, err := m.ReadWithCustody(ctx, "bob", x)
	assert.NoError(t, err)
	assert.Equal(t, []byte("secret"), d)

	d, err = m.ReadWithCustody(ctx, "alice", x)
	assert.NoError(t, err)
	assert.Equal(t, []byte("secret"), d)
}

func TestUploadCustodyFailureLeavesNoItem(t *testing.T) {
	m, _ := newTestMarket(t, WithCustody(failingCustody{}))
	ctx := context.Background()

	x, _, err := m.Upload(ctx, "alice", []byte("secret"), nil, 1)
	assert.Error(t, err)
	assert.Empty(t, x)

	assert.Empty(t, m.Ledger().Pending())
	assert.Empty(t, m.Items(tx.TxType_DataUpload))
}

func TestReadWithoutCustody(t *testing.T) {
	m, _ := newTestMarket(t)
	ctx := context.Background()

	x, _, err := m.Upload(ctx, "alice", []byte("secret"), nil, 1)
	if err != nil {
		t.Fatal(err)
	}

	_, err = m.ReadWithCustody(ctx, "alice", x)
	assert.True(t, errors.Is(err, ErrNoKey))
}

func TestTransfer(t *testing.T) {
	m, _ := newTestMarket(t)

	id, idx, err := m.Transfer("a", "b", 2)
	assert.NoError(t, err)
	assert.NotEmpty(t, id)
	assert.Equal(t, uint64(1), idx)

	_, _, err = m.Transfer("", "b", 2)
	assert.True(t, errors.Is(err, tx.ErrInvalidTransaction))
}

// Authorization through the market must always equal a raw scan of the
// chain and pending pool.
func TestAuthorizationMatchesChainScan(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	m, _ := newTestMarket(t)
	ctx := context.Background()

	users := []string{"alice", "bob", "carol"}
	var items []string

	for step := 0; step < 120; step++ {
		u := users[r.Intn(len(users))]

		switch op := r.Intn(6); {
		case op == 0 || len(items) == 0:
			x, _, err := m.Upload(ctx, u, []byte(fmt.Sprintf("p%d", step)), nil, 1)
			require.NoError(t, err)
			items = append(items, x)
		case op < 4:
			x := items[r.Intn(len(items))]
			_, err := m.Purchase(ctx, u, x, 1)
			require.NoError(t, err)
		default:
			_, _, err := m.Ledger().MineBlock(ctx, 0)
			require.NoError(t, err)
		}

		for _, x := range items {
			for _, h := range users {
				require.Equal(t, m.Ledger().ScanAccess(h, x), m.AuthorizeAccess(h, x), "holder %s item %s step %d", h, x, step)
			}
		}
	}

	assert.NoError(t, m.Ledger().VerifyIndex())
}
