// Package market implements the upload, purchase and read workflows of
// the data and model marketplace. Access is derived from the ledger: a
// holder may read an item if they own its upload or a purchase by them
// references it, committed or pending.
package market

import (
	"context"
	"encoding/hex"
	"strconv"

	"github.com/ipfs/go-cid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/zeebo/blake3"

	"github.com/abrahamboza/Blockchain-Marketplace-for-Ai-Applications/pkg/cryptography"
	"github.com/abrahamboza/Blockchain-Marketplace-for-Ai-Applications/pkg/ledger"
	"github.com/abrahamboza/Blockchain-Marketplace-for-Ai-Applications/pkg/storage"
	"github.com/abrahamboza/Blockchain-Marketplace-for-Ai-Applications/pkg/tx"
)

const (
	// MetadataCID is the upload metadata key holding the ciphertext CID.
	MetadataCID = "ipfs_cid"

	// MetadataFileHash is the upload metadata key holding the upload
	// fingerprint.
	MetadataFileHash = "file_hash"
)

var (
	ErrItemNotFound = errors.New("item not found")
	ErrAccessDenied = errors.New("access denied")
	ErrNoKey        = errors.New("no key in custody")
)

// KeyCustody holds readable copies of payload keys per (item, holder).
type KeyCustody interface {
	PutKey(itemID, holder string, k cryptography.Key) error
	GetKey(itemID, holder string) (cryptography.Key, bool, error)
}

type Market struct {
	ledger  *ledger.Ledger
	cas     storage.Store
	custody KeyCustody
	logger  *logrus.Entry
}

type Option func(*Market)

func WithCustody(c KeyCustody) Option {
	return func(m *Market) {
		m.custody = c
	}
}

func WithLogger(l *logrus.Logger) Option {
	return func(m *Market) {
		m.logger = l.WithField("component", "market")
	}
}

func New(l *ledger.Ledger, cas storage.Store, opts ...Option) *Market {
	m := &Market{
		ledger: l,
		cas:    cas,
		logger: logrus.StandardLogger().WithField("component", "market"),
	}

	for _, opt := range opts {
		opt(m)
	}

	return m
}

// Receipt describes a recorded purchase.
type Receipt struct {
	TxID   string    `msgpack:"tx" json:"transaction_id"`
	ItemID string    `msgpack:"item" json:"item_id"`
	Type   tx.TxType `msgpack:"type" json:"type"`
	Seller string    `msgpack:"seller" json:"seller"`
	Amount float64   `msgpack:"amount" json:"amount"`

	// BlockIndex is where the purchase is expected to be mined.
	BlockIndex uint64 `msgpack:"block" json:"block_index"`

	// Committed reports whether the referenced upload is already mined.
	Committed bool `msgpack:"committed" json:"committed"`
}

// Upload encrypts payload under a fresh key, stores and pins the
// ciphertext and submits a data upload transaction. The returned item id
// is the upload transaction's id.
func (m *Market) Upload(ctx context.Context, owner string, payload []byte, metadata map[string]string, price float64) (string, cryptography.Key, error) {
	return m.upload(ctx, tx.TxType_DataUpload, owner, payload, metadata, price)
}

// UploadModel is Upload for model payloads.
func (m *Market) UploadModel(ctx context.Context, owner string, payload []byte, metadata map[string]string, price float64) (string, cryptography.Key, error) {
	return m.upload(ctx, tx.TxType_ModelUpload, owner, payload, metadata, price)
}

func (m *Market) upload(ctx context.Context, typ tx.TxType, owner string, payload []byte, metadata map[string]string, price float64) (string, cryptography.Key, error) {
	if metadata == nil {
		metadata = map[string]string{}
	}

	key, err := cryptography.GenerateKey()
	if err != nil {
		return "", cryptography.Key{}, err
	}

	ct, err := cryptography.Encrypt(payload, key)
	if err != nil {
		return "", cryptography.Key{}, errors.Wrap(err, "encrypting payload")
	}

	fh := fileHash(payload, owner, tx.Now())

	userMd := make(map[string]interface{}, len(metadata))
	for k, v := range metadata {
		userMd[k] = v
	}

	id, err := m.cas.Add(ctx, ct, storage.Metadata{
		"owner":     owner,
		"file_hash": fh,
		"metadata":  userMd,
		"encrypted": true,
		"type":      typ.String(),
	}, storage.WithPin())
	if err != nil {
		return "", cryptography.Key{}, errors.Wrap(err, "storing ciphertext")
	}

	md := make(map[string]string, len(metadata)+2)
	for k, v := range metadata {
		md[k] = v
	}
	md[MetadataFileHash] = fh
	md[MetadataCID] = id.String()

	var t *tx.Tx
	if typ == tx.TxType_ModelUpload {
		t, err = tx.NewModelUpload(owner, md, price)
	} else {
		t, err = tx.NewDataUpload(owner, md, price)
	}
	if err != nil {
		return "", cryptography.Key{}, err
	}

	// the key is stored before the item becomes visible on the ledger
	if m.custody != nil {
		if err := m.custody.PutKey(t.ID, owner, key); err != nil {
			return "", cryptography.Key{}, errors.Wrap(err, "storing owner key")
		}
	}

	if _, err := m.ledger.SubmitTransaction(t); err != nil {
		return "", cryptography.Key{}, errors.Wrap(err, "submitting upload")
	}

	m.logger.WithFields(logrus.Fields{
		"item":  t.ID,
		"type":  typ,
		"owner": owner,
		"cid":   id.String(),
	}).Info("uploaded item")

	return t.ID, key, nil
}

func fileHash(payload []byte, owner string, ts float64) string {
	h := blake3.New()
	h.Write(payload)
	h.Write([]byte(owner))
	h.Write([]byte(strconv.FormatFloat(ts, 'f', -1, 64)))
	return hex.EncodeToString(h.Sum(nil))
}

// Purchase records a purchase of itemID by buyer. The purchase kind
// follows the kind of the referenced upload. With key custody configured
// the owner's key is copied to the buyer.
func (m *Market) Purchase(ctx context.Context, buyer, itemID string, amount float64) (*Receipt, error) {
	up, committed, ok := m.ledger.FindUpload(itemID)
	if !ok {
		return nil, errors.Wrapf(ErrItemNotFound, "item %s", itemID)
	}
	u, _ := up.Upload()

	var (
		t   *tx.Tx
		err error
	)
	if up.Type == tx.TxType_ModelUpload {
		t, err = tx.NewModelPurchase(buyer, u.Owner, itemID, amount)
	} else {
		t, err = tx.NewDataPurchase(buyer, u.Owner, itemID, amount)
	}
	if err != nil {
		return nil, err
	}

	idx, err := m.ledger.SubmitTransaction(t)
	if err != nil {
		return nil, errors.Wrap(err, "submitting purchase")
	}

	if m.custody != nil {
		k, ok, err := m.custody.GetKey(itemID, u.Owner)
		if err != nil {
			return nil, errors.Wrap(err, "reading owner key")
		}
		if ok {
			if err := m.custody.PutKey(itemID, buyer, k); err != nil {
				return nil, errors.Wrap(err, "storing buyer key")
			}
		} else {
			m.logger.WithField("item", itemID).Warn("owner key not in custody, buyer must obtain it out of band")
		}
	}

	m.logger.WithFields(logrus.Fields{
		"item":  itemID,
		"buyer": buyer,
		"tx":    t.ID,
	}).Info("recorded purchase")

	return &Receipt{
		TxID:       t.ID,
		ItemID:     itemID,
		Type:       t.Type,
		Seller:     u.Owner,
		Amount:     amount,
		BlockIndex: idx,
		Committed:  committed,
	}, nil
}

// AuthorizeAccess reports whether holder owns itemID or has a committed
// or pending purchase of it.
func (m *Market) AuthorizeAccess(holder, itemID string) bool {
	return m.ledger.Registry().HasAccess(holder, itemID)
}

// Read returns the decrypted payload of itemID. Authorization is checked
// before anything about the item is resolved.
func (m *Market) Read(ctx context.Context, holder, itemID string, key cryptography.Key) ([]byte, error) {
	if !m.AuthorizeAccess(holder, itemID) {
		return nil, errors.Wrapf(ErrAccessDenied, "%s on item %s", holder, itemID)
	}

	id, err := m.resolveCID(itemID)
	if err != nil {
		return nil, err
	}

	ct, ok, err := m.cas.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, storage.IOError(storage.ErrNotFound, "item "+itemID+" references missing object "+id.String())
	}

	pt, err := cryptography.Decrypt(ct, key)
	if err != nil {
		return nil, err
	}

	return pt, nil
}

// ReadWithCustody reads itemID using the key held in custody for holder.
func (m *Market) ReadWithCustody(ctx context.Context, holder, itemID string) ([]byte, error) {
	if !m.AuthorizeAccess(holder, itemID) {
		return nil, errors.Wrapf(ErrAccessDenied, "%s on item %s", holder, itemID)
	}

	if m.custody == nil {
		return nil, errors.Wrap(ErrNoKey, "no key custody configured")
	}

	k, ok, err := m.custody.GetKey(itemID, holder)
	if err != nil {
		return nil, errors.Wrap(err, "reading key")
	}
	if !ok {
		return nil, errors.Wrapf(ErrNoKey, "%s on item %s", holder, itemID)
	}

	return m.Read(ctx, holder, itemID, k)
}

func (m *Market) resolveCID(itemID string) (cid.Cid, error) {
	up, _, ok := m.ledger.FindUpload(itemID)
	if !ok {
		return cid.Undef, errors.Wrapf(ErrItemNotFound, "item %s", itemID)
	}
	u, _ := up.Upload()

	s, ok := u.Metadata[MetadataCID]
	if !ok {
		return cid.Undef, errors.Wrapf(ErrItemNotFound, "item %s has no content reference", itemID)
	}

	id, err := storage.ParseCID(s)
	if err != nil {
		return cid.Undef, errors.Wrapf(ErrItemNotFound, "item %s content reference: %s", itemID, err)
	}

	return id, nil
}

// Items lists data or model items, oldest first. An empty kind lists
// both.
func (m *Market) Items(kind tx.TxType) []*ledger.Item {
	return m.ledger.Registry().Items(kind)
}

// Item returns a single listing.
func (m *Market) Item(itemID string) (*ledger.Item, error) {
	it, ok := m.ledger.Registry().Item(itemID)
	if !ok {
		return nil, errors.Wrapf(ErrItemNotFound, "item %s", itemID)
	}
	return it, nil
}

// Transfer submits a plain value transfer.
func (m *Market) Transfer(sender, recipient string, amount float64) (string, uint64, error) {
	t, err := tx.NewTransfer(sender, recipient, amount)
	if err != nil {
		return "", 0, err
	}

	idx, err := m.ledger.SubmitTransaction(t)
	if err != nil {
		return "", 0, err
	}

	return t.ID, idx, nil
}

func (m *Market) Ledger() *ledger.Ledger {
	return m.ledger
}
