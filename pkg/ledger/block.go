package ledger

import (
	"bytes"
	"encoding/hex"

	"github.com/minio/sha256-simd"
	"github.com/pkg/errors"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/abrahamboza/Blockchain-Marketplace-for-Ai-Applications/pkg/tx"
)

const (
	// MaxDifficulty is the number of hex characters in a sha256 digest.
	MaxDifficulty = sha256.Size * 2
)

type Block struct {
	Index        uint64   `msgpack:"index"`
	PreviousHash string   `msgpack:"previous_hash"`
	Timestamp    float64  `msgpack:"timestamp"`
	Transactions []*tx.Tx `msgpack:"transactions"`
	Proof        uint64   `msgpack:"proof"`
	Difficulty   uint8    `msgpack:"difficulty"`
	Hash         string   `msgpack:"hash"`
}

// canonical is the map form hashed into Block.Hash. Keys are sorted on
// encode so the digest does not depend on field order.
func (b *Block) canonical() map[string]interface{} {
	txs := make([]interface{}, len(b.Transactions))
	for i, t := range b.Transactions {
		if t != nil {
			txs[i] = t.Canonical()
		}
	}

	return map[string]interface{}{
		"index":         b.Index,
		"previous_hash": b.PreviousHash,
		"timestamp":     b.Timestamp,
		"transactions":  txs,
		"proof":         b.Proof,
		"difficulty":    b.Difficulty,
	}
}

// ComputeHash returns the hex sha256 of the block's canonical encoding.
// Hash itself is not part of the input.
func (b *Block) ComputeHash() (string, error) {
	var buf bytes.Buffer

	enc := msgpack.NewEncoder(&buf)
	enc.SetSortMapKeys(true)
	if err := enc.Encode(b.canonical()); err != nil {
		return "", errors.Wrap(err, "encoding block")
	}

	sum := sha256.Sum256(buf.Bytes())
	return hex.EncodeToString(sum[:]), nil
}

func (b *Block) seal() error {
	h, err := b.ComputeHash()
	if err != nil {
		return err
	}
	b.Hash = h
	return nil
}

func (b *Block) Marshal() ([]byte, error) {
	d, err := msgpack.Marshal(b)
	if err != nil {
		return nil, errors.Wrap(err, "marshaling block")
	}
	return d, nil
}

func (b *Block) Unmarshal(d []byte) error {
	if err := msgpack.Unmarshal(d, b); err != nil {
		return errors.Wrap(err, "unmarshaling block")
	}
	return nil
}

// TxIDs returns the ids of the block's transactions in order.
func (b *Block) TxIDs() []string {
	ids := make([]string, 0, len(b.Transactions))
	for _, t := range b.Transactions {
		if t != nil {
			ids = append(ids, t.ID)
		}
	}
	return ids
}
