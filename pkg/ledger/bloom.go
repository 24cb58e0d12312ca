package ledger

import (
	"github.com/bits-and-blooms/bloom/v3"
)

const (
	falsePositive = 0.01

	minFilterEntries = 16
)

// newBlockFilter indexes a block's transaction ids and (buyer, item)
// purchase pairs so replay scans can skip blocks that cannot match.
func newBlockFilter(b *Block) *bloom.BloomFilter {
	n := 2 * len(b.Transactions)
	if n < minFilterEntries {
		n = minFilterEntries
	}

	f := bloom.NewWithEstimates(uint(n), falsePositive)

	for _, t := range b.Transactions {
		if t == nil {
			continue
		}

		f.Add(txKey(t.ID))

		if p, ok := t.Purchase(); ok {
			f.Add(purchaseKey(p.Buyer, p.ItemID))
		}
	}

	return f
}

func txKey(id string) []byte {
	return append([]byte{'t', ':'}, id...)
}

func purchaseKey(buyer, item string) []byte {
	k := make([]byte, 0, 3+len(buyer)+len(item))
	k = append(k, 'p', ':')
	k = append(k, buyer...)
	k = append(k, 0)
	return append(k, item...)
}
