package ledger

import (
	"sync"

	"github.com/pkg/errors"

	"github.com/abrahamboza/Blockchain-Marketplace-for-Ai-Applications/pkg/tx"
)

type MemPool interface {
	AddTx(*tx.Tx) error
	Drain() []*tx.Tx
	Txs() []*tx.Tx
	Len() int
}

var (
	_ MemPool = (*TxMemPool)(nil)
)

type TxList []*tx.Tx

// TxMemPool holds pending transactions in submission order. There is no
// priority: Drain always returns everything, oldest first. A transaction
// id may only be pending once.
type TxMemPool struct {
	plist TxList
	ids   map[string]struct{}
	mu    sync.Mutex
}

func NewTxMemPool() *TxMemPool {
	return &TxMemPool{
		plist: make(TxList, 0),
		ids:   make(map[string]struct{}),
	}
}

func (m *TxMemPool) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return len(m.plist)
}

func (m *TxMemPool) AddTx(t *tx.Tx) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.ids[t.ID]; ok {
		return errors.Wrapf(ErrDuplicateTransaction, "tx %s already pending", t.ID)
	}

	m.ids[t.ID] = struct{}{}
	m.plist = append(m.plist, t)
	return nil
}

// Has reports whether the transaction id is pending.
func (m *TxMemPool) Has(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	_, ok := m.ids[id]
	return ok
}

// Drain empties the pool and returns its contents.
func (m *TxMemPool) Drain() []*tx.Tx {
	m.mu.Lock()
	defer m.mu.Unlock()

	l := m.plist
	m.plist = make(TxList, 0)
	m.ids = make(map[string]struct{})
	return l
}

// Txs returns a snapshot of the pool.
func (m *TxMemPool) Txs() []*tx.Tx {
	m.mu.Lock()
	defer m.mu.Unlock()

	return append([]*tx.Tx(nil), m.plist...)
}

// restore puts txs back at the head of the pool after a failed mine.
func (m *TxMemPool) restore(txs []*tx.Tx) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.plist = append(append(make(TxList, 0, len(txs)+len(m.plist)), txs...), m.plist...)
	for _, t := range txs {
		m.ids[t.ID] = struct{}{}
	}
}
