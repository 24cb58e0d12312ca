package ledger

import (
	"github.com/abrahamboza/Blockchain-Marketplace-for-Ai-Applications/pkg/tx"
)

type Validator interface {
	IsBlockValid(b, prev *Block) error
	IsTxValid(*tx.Tx) error
}

var (
	_ Validator = ChainValidator{}
)

// ChainValidator checks linkage, proof of work, block hashes and the
// shape of every transaction. Each block is checked at its own stored
// difficulty.
type ChainValidator struct{}

func (v ChainValidator) IsBlockValid(b, prev *Block) error {
	if b == nil || prev == nil {
		return integrityError(nil, "missing block")
	}

	if b.PreviousHash != prev.Hash {
		return integrityError(nil, "block %d previous hash mismatch", b.Index)
	}

	if b.Index != prev.Index+1 {
		return integrityError(nil, "block index %d does not follow %d", b.Index, prev.Index)
	}

	if !ValidProof(prev.Proof, b.Proof, b.Difficulty) {
		return integrityError(nil, "block %d proof of work invalid at difficulty %d", b.Index, b.Difficulty)
	}

	if err := v.isHashValid(b); err != nil {
		return err
	}

	for i, t := range b.Transactions {
		if err := v.IsTxValid(t); err != nil {
			return integrityError(err, "tx %d in block %d", i, b.Index)
		}
	}

	return nil
}

func (v ChainValidator) IsTxValid(t *tx.Tx) error {
	return tx.Validate(t)
}

func (v ChainValidator) isHashValid(b *Block) error {
	h, err := b.ComputeHash()
	if err != nil {
		return integrityError(err, "hashing block %d", b.Index)
	}

	if h != b.Hash {
		return integrityError(nil, "block %d hash mismatch", b.Index)
	}

	return nil
}

// IsChainValid validates the genesis block's hash, every consecutive
// pair of blocks and that no transaction is included twice. An empty
// chain is invalid.
func (v ChainValidator) IsChainValid(chain []*Block) error {
	if len(chain) == 0 {
		return integrityError(nil, "empty chain")
	}

	if chain[0] == nil || chain[0].Index != 0 {
		return integrityError(nil, "chain does not start at index 0")
	}

	if err := v.isHashValid(chain[0]); err != nil {
		return err
	}

	for i := 1; i < len(chain); i++ {
		if err := v.IsBlockValid(chain[i], chain[i-1]); err != nil {
			return err
		}
	}

	return v.isEachTxOnce(chain)
}

// isEachTxOnce rejects a transaction id appearing more than once anywhere
// in the chain.
func (v ChainValidator) isEachTxOnce(chain []*Block) error {
	seen := make(map[string]uint64)

	for _, b := range chain {
		for _, t := range b.Transactions {
			if t == nil {
				continue
			}
			if first, ok := seen[t.ID]; ok {
				return integrityError(ErrDuplicateTransaction, "tx %s in block %d first seen in block %d", t.ID, b.Index, first)
			}
			seen[t.ID] = b.Index
		}
	}

	return nil
}

// ValidateBlock is ChainValidator.IsBlockValid reported as a bool.
func ValidateBlock(b, prev *Block) bool {
	return ChainValidator{}.IsBlockValid(b, prev) == nil
}

// ValidateChain is ChainValidator.IsChainValid reported as a bool.
func ValidateChain(chain []*Block) bool {
	return ChainValidator{}.IsChainValid(chain) == nil
}
