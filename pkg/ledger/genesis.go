package ledger

import (
	"github.com/abrahamboza/Blockchain-Marketplace-for-Ai-Applications/pkg/tx"
)

const (
	GenesisProof        uint64 = 100
	GenesisPreviousHash        = "0"
	GenesisRecipient           = "genesis"
	genesisSender              = "0"
	genesisSignature           = "0"
)

// NewGenesisBlock builds block 0 holding the single synthetic genesis
// transfer.
func NewGenesisBlock() (*Block, error) {
	gtx := &tx.Tx{
		ID:        tx.NewID(),
		Ts:        tx.Now(),
		Signature: genesisSignature,
		Type:      tx.TxType_Transfer,
		Data: &tx.Transfer{
			Sender:    genesisSender,
			Recipient: GenesisRecipient,
			Amount:    1,
		},
	}

	b := &Block{
		Index:        0,
		PreviousHash: GenesisPreviousHash,
		Timestamp:    tx.Now(),
		Transactions: []*tx.Tx{gtx},
		Proof:        GenesisProof,
		Difficulty:   DefaultDifficulty,
	}

	if err := b.seal(); err != nil {
		return nil, err
	}

	return b, nil
}

// IsGenesis reports whether b has the shape of a genesis block.
func IsGenesis(b *Block) bool {
	return b != nil && b.Index == 0 && b.PreviousHash == GenesisPreviousHash
}
