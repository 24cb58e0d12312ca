package tx

import (
	"encoding/hex"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/vmihailenco/msgpack/v5"
)

const (
	// PlaceholderSignature is carried by every user transaction. Signatures
	// are not verified.
	PlaceholderSignature = "placeholder_signature"
)

type TxType string

const (
	TxType_Transfer      TxType = ""
	TxType_DataUpload    TxType = "data_upload"
	TxType_ModelUpload   TxType = "model_upload"
	TxType_DataPurchase  TxType = "data_purchase"
	TxType_ModelPurchase TxType = "model_purchase"
)

func (t TxType) String() string {
	if t == TxType_Transfer {
		return "transfer"
	}
	return string(t)
}

func (t TxType) IsUpload() bool {
	return t == TxType_DataUpload || t == TxType_ModelUpload
}

func (t TxType) IsPurchase() bool {
	return t == TxType_DataPurchase || t == TxType_ModelPurchase
}

func (t TxType) known() bool {
	switch t {
	case TxType_Transfer, TxType_DataUpload, TxType_ModelUpload, TxType_DataPurchase, TxType_ModelPurchase:
		return true
	}
	return false
}

// ParseTxType accepts the wire names plus "transfer" for the untagged variant.
func ParseTxType(s string) (TxType, error) {
	if s == "transfer" {
		return TxType_Transfer, nil
	}
	t := TxType(s)
	if !t.known() {
		return "", errors.Wrapf(ErrInvalidTransaction, "unknown tx type %q", s)
	}
	return t, nil
}

// Tx is a ledger transaction. Data holds the variant payload selected
// by Type: *Transfer, *Upload or *Purchase.
type Tx struct {
	ID        string
	Ts        float64
	Signature string
	Type      TxType
	Data      interface{}
}

type wireTx struct {
	ID        string             `msgpack:"id"`
	Ts        float64            `msgpack:"t"`
	Signature string             `msgpack:"s"`
	Type      TxType             `msgpack:"T"`
	Data      msgpack.RawMessage `msgpack:"d"`
}

var (
	_ msgpack.CustomEncoder = (*Tx)(nil)
	_ msgpack.CustomDecoder = (*Tx)(nil)
)

func (t *Tx) EncodeMsgpack(enc *msgpack.Encoder) error {
	d, err := msgpack.Marshal(t.Data)
	if err != nil {
		return errors.Wrap(err, "marshaling tx data")
	}

	return enc.Encode(&wireTx{
		ID:        t.ID,
		Ts:        t.Ts,
		Signature: t.Signature,
		Type:      t.Type,
		Data:      d,
	})
}

func (t *Tx) DecodeMsgpack(dec *msgpack.Decoder) error {
	w := &wireTx{}
	if err := dec.Decode(w); err != nil {
		return err
	}

	data, err := newPayload(w.Type)
	if err != nil {
		return err
	}

	if len(w.Data) != 0 {
		if err := msgpack.Unmarshal(w.Data, data); err != nil {
			return errors.Wrapf(err, "unmarshaling %s data", w.Type)
		}
	}

	t.ID = w.ID
	t.Ts = w.Ts
	t.Signature = w.Signature
	t.Type = w.Type
	t.Data = data

	return nil
}

func (t *Tx) Marshal() ([]byte, error) {
	b, err := msgpack.Marshal(t)
	if err != nil {
		return nil, errors.Wrap(err, "mashaling tx")
	}

	return b, nil
}

func (t *Tx) Unmarshal(b []byte) error {
	return msgpack.Unmarshal(b, t)
}

func newPayload(t TxType) (interface{}, error) {
	switch t {
	case TxType_Transfer:
		return &Transfer{}, nil
	case TxType_DataUpload, TxType_ModelUpload:
		return &Upload{}, nil
	case TxType_DataPurchase, TxType_ModelPurchase:
		return &Purchase{}, nil
	default:
		return nil, errors.Wrapf(ErrInvalidTransaction, "unknown tx type %q", string(t))
	}
}

func (t *Tx) Transfer() (*Transfer, bool) {
	d, ok := t.Data.(*Transfer)
	return d, ok && t.Type == TxType_Transfer
}

func (t *Tx) Upload() (*Upload, bool) {
	d, ok := t.Data.(*Upload)
	return d, ok && t.Type.IsUpload()
}

func (t *Tx) Purchase() (*Purchase, bool) {
	d, ok := t.Data.(*Purchase)
	return d, ok && t.Type.IsPurchase()
}

// Canonical returns the flat map form used for hashing. The tag is
// omitted for transfers.
func (t *Tx) Canonical() map[string]interface{} {
	m := map[string]interface{}{
		"transaction_id": t.ID,
		"timestamp":      t.Ts,
		"signature":      t.Signature,
	}

	if t.Type != TxType_Transfer {
		m["type"] = string(t.Type)
	}

	switch d := t.Data.(type) {
	case *Transfer:
		m["sender"] = d.Sender
		m["recipient"] = d.Recipient
		m["amount"] = d.Amount
	case *Upload:
		m["owner"] = d.Owner
		m["metadata"] = d.Metadata
		m["price"] = d.Price
	case *Purchase:
		m["buyer"] = d.Buyer
		m["seller"] = d.Seller
		m[itemKey(t.Type)] = d.ItemID
		m["amount"] = d.Amount
	}

	return m
}

func itemKey(t TxType) string {
	if t == TxType_ModelPurchase {
		return "model_id"
	}
	return "data_id"
}

// NewID returns a random uuid in hex without dashes.
func NewID() string {
	u := uuid.New()
	return hex.EncodeToString(u[:])
}

// Now returns the current time as fractional unix seconds.
func Now() float64 {
	return float64(time.Now().UnixNano()) / float64(time.Second)
}

func newTx(t TxType, data interface{}) (*Tx, error) {
	n := &Tx{
		ID:        NewID(),
		Ts:        Now(),
		Signature: PlaceholderSignature,
		Type:      t,
		Data:      data,
	}

	if err := Validate(n); err != nil {
		return nil, err
	}

	return n, nil
}
