// Package ledger implements a single node proof of work chain. Submitted
// transactions wait in a pending pool until a block is mined, at which
// point the whole pool is drained into the new block.
package ledger

import (
	"context"
	"sync"
	"time"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/abrahamboza/Blockchain-Marketplace-for-Ai-Applications/pkg/tx"
)

// Mirror receives every block appended to the chain for durable storage.
type Mirror interface {
	PutBlock(ctx context.Context, b *Block) error
}

type Info struct {
	TotalBlocks       int     `msgpack:"blocks" json:"total_blocks"`
	LatestIndex       uint64  `msgpack:"idx" json:"latest_index"`
	LatestHash        string  `msgpack:"hash" json:"latest_hash"`
	LatestTimestamp   float64 `msgpack:"ts" json:"latest_timestamp"`
	Pending           int     `msgpack:"pending" json:"pending"`
	TotalTransactions int     `msgpack:"txs" json:"total_transactions"`
}

type powCheckpoint struct {
	lastHash   string
	difficulty uint8
	next       uint64
}

type Ledger struct {
	// mu guards chain, filters and the drain of pool into a new block
	mu      sync.RWMutex
	chain   []*Block
	filters []*bloom.BloomFilter
	pool    *TxMemPool

	// committed holds the id of every transaction in chain
	committed map[string]struct{}

	registry  *Registry
	validator ChainValidator

	// mineMu serializes miners so the tail cannot move during a search
	mineMu sync.Mutex
	resume *powCheckpoint

	mirror   Mirror
	// mirrored counts the leading blocks the mirror has accepted
	mirrored int

	maxAttempts uint64
	logger      *logrus.Entry
}

// New builds a ledger. Without WithBlocks a genesis block is created.
func New(opts ...Option) (*Ledger, error) {
	l := &Ledger{
		pool:      NewTxMemPool(),
		committed: make(map[string]struct{}),
		registry:  NewRegistry(),
		logger:    logrus.StandardLogger().WithField("component", "ledger"),
	}

	for _, opt := range opts {
		if err := opt(l); err != nil {
			return nil, err
		}
	}

	if len(l.chain) == 0 {
		if _, err := l.CreateGenesis(context.Background()); err != nil {
			return nil, errors.Wrap(err, "creating genesis")
		}
	}

	l.registry = Replay(l.chain, nil)

	return l, nil
}

// CreateGenesis appends block 0. It fails with ErrGenesisExists once the
// chain is non-empty.
func (l *Ledger) CreateGenesis(ctx context.Context) (*Block, error) {
	l.mineMu.Lock()
	defer l.mineMu.Unlock()

	l.mu.Lock()
	if len(l.chain) != 0 {
		l.mu.Unlock()
		return nil, ErrGenesisExists
	}

	g, err := NewGenesisBlock()
	if err != nil {
		l.mu.Unlock()
		return nil, err
	}

	l.appendLocked(g)
	l.mu.Unlock()

	l.emit(ctx)

	return g, nil
}

func (l *Ledger) appendLocked(b *Block) {
	l.chain = append(l.chain, b)
	l.filters = append(l.filters, newBlockFilter(b))
	l.indexTxs(b)
	l.registry.applyBlock(b)
}

func (l *Ledger) indexTxs(b *Block) {
	for _, t := range b.Transactions {
		if t != nil {
			l.committed[t.ID] = struct{}{}
		}
	}
}

// emit mirrors every block from the first unmirrored one up to the tail,
// so a block whose write failed is written again before its successors.
// Callers hold mineMu.
func (l *Ledger) emit(ctx context.Context) error {
	if l.mirror == nil {
		return nil
	}

	l.mu.RLock()
	unmirrored := append([]*Block(nil), l.chain[l.mirrored:]...)
	l.mu.RUnlock()

	for _, b := range unmirrored {
		if err := l.mirror.PutBlock(ctx, b); err != nil {
			l.logger.WithError(err).WithFields(logrus.Fields{
				"index":  b.Index,
				"behind": len(unmirrored),
			}).Error("mirroring block")
			return errors.Wrapf(err, "mirroring block %d", b.Index)
		}
		l.mirrored++
	}

	return nil
}

// SyncMirror writes any blocks the mirror has not yet accepted.
func (l *Ledger) SyncMirror(ctx context.Context) error {
	l.mineMu.Lock()
	defer l.mineMu.Unlock()

	return l.emit(ctx)
}

// SubmitTransaction checks the transaction's shape and appends it to the
// pending pool. The returned index is where the transaction is expected
// to land; mining by anyone else may change that.
func (l *Ledger) SubmitTransaction(t *tx.Tx) (uint64, error) {
	if err := tx.Validate(t); err != nil {
		return 0, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.committed[t.ID]; ok {
		return 0, errors.Wrapf(ErrDuplicateTransaction, "tx %s already committed", t.ID)
	}

	if err := l.pool.AddTx(t); err != nil {
		return 0, errors.Wrap(err, "adding tx to mempool")
	}
	l.registry.apply(t, false)

	return l.chain[len(l.chain)-1].Index + 1, nil
}

// MineBlock searches for a proof at the given difficulty and then drains
// the entire pending pool into a new block. The search runs without
// holding the state lock; reads and submissions continue meanwhile and
// transactions submitted during the search are included.
//
// An aborted search (ctx or max attempts) is resumed by the next call for
// the same tail and difficulty.
func (l *Ledger) MineBlock(ctx context.Context, difficulty uint8) (*Block, time.Duration, error) {
	if int(difficulty) > MaxDifficulty {
		return nil, 0, errors.Errorf("difficulty %d exceeds %d", difficulty, MaxDifficulty)
	}

	l.mineMu.Lock()
	defer l.mineMu.Unlock()

	last := l.LastBlock()

	var from uint64
	if r := l.resume; r != nil && r.lastHash == last.Hash && r.difficulty == difficulty {
		from = r.next
	}

	proof, elapsed, err := ProofOfWork(ctx, last.Proof, difficulty, from, l.maxAttempts)
	if err != nil {
		l.resume = &powCheckpoint{lastHash: last.Hash, difficulty: difficulty, next: proof}
		return nil, elapsed, err
	}
	l.resume = nil

	l.mu.Lock()
	b := &Block{
		Index:        uint64(len(l.chain)),
		PreviousHash: last.Hash,
		Timestamp:    tx.Now(),
		Transactions: l.pool.Drain(),
		Proof:        proof,
		Difficulty:   difficulty,
	}

	if err := b.seal(); err != nil {
		l.pool.restore(b.Transactions)
		l.mu.Unlock()
		return nil, elapsed, errors.Wrap(err, "sealing block")
	}

	l.appendLocked(b)
	l.mu.Unlock()

	l.logger.WithFields(logrus.Fields{
		"index":      b.Index,
		"txs":        len(b.Transactions),
		"difficulty": difficulty,
		"elapsed":    elapsed,
	}).Info("mined block")

	l.emit(ctx)

	return b, elapsed, nil
}

// LastBlock returns the tail of the chain.
func (l *Ledger) LastBlock() *Block {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return l.chain[len(l.chain)-1]
}

// Chain returns copies of every block. Mutating them does not affect
// the ledger.
func (l *Ledger) Chain() []*Block {
	l.mu.RLock()
	defer l.mu.RUnlock()

	c := make([]*Block, len(l.chain))
	for i, b := range l.chain {
		c[i] = cloneBlock(b)
	}
	return c
}

func cloneBlock(b *Block) *Block {
	cp := *b
	cp.Transactions = append([]*tx.Tx(nil), b.Transactions...)
	return &cp
}

func (l *Ledger) Block(index uint64) (*Block, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if index >= uint64(len(l.chain)) {
		return nil, false
	}
	return cloneBlock(l.chain[index]), true
}

func (l *Ledger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return len(l.chain)
}

// Pending returns a snapshot of the pending pool in submission order.
func (l *Ledger) Pending() []*tx.Tx {
	return l.pool.Txs()
}

func (l *Ledger) Info() Info {
	l.mu.RLock()
	defer l.mu.RUnlock()

	last := l.chain[len(l.chain)-1]
	i := Info{
		TotalBlocks:     len(l.chain),
		LatestIndex:     last.Index,
		LatestHash:      last.Hash,
		LatestTimestamp: last.Timestamp,
		Pending:         l.pool.Len(),
	}

	for _, b := range l.chain {
		i.TotalTransactions += len(b.Transactions)
	}

	return i
}

// ValidateChain validates the ledger's own chain.
func (l *Ledger) ValidateChain() error {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return l.validator.IsChainValid(l.chain)
}

func (l *Ledger) IsValid() bool {
	return l.ValidateChain() == nil
}

// Registry is the incrementally maintained item index.
func (l *Ledger) Registry() *Registry {
	return l.registry
}

// Replay rebuilds the item index from the chain and pending pool.
func (l *Ledger) Replay() *Registry {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return Replay(l.chain, l.pool.Txs())
}

// VerifyIndex compares the incremental index with a full replay.
func (l *Ledger) VerifyIndex() error {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if err := l.registry.Diff(Replay(l.chain, l.pool.Txs())); err != nil {
		return errors.Wrap(err, "item index diverged from chain")
	}
	return nil
}

// FindUpload looks for the upload transaction id among committed blocks
// first and then the pending pool.
func (l *Ledger) FindUpload(id string) (t *tx.Tx, committed bool, found bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	key := txKey(id)
	for i, b := range l.chain {
		if !l.filters[i].Test(key) {
			continue
		}
		for _, t := range b.Transactions {
			if t != nil && t.ID == id && t.Type.IsUpload() {
				return t, true, true
			}
		}
	}

	for _, t := range l.pool.Txs() {
		if t.ID == id && t.Type.IsUpload() {
			return t, false, true
		}
	}

	return nil, false, false
}

// ScanAccess derives access purely from chain contents: holder owns the
// upload or a purchase by holder references it, committed or pending.
func (l *Ledger) ScanAccess(holder, id string) bool {
	if up, _, ok := l.FindUpload(id); ok {
		if u, ok := up.Upload(); ok && u.Owner == holder {
			return true
		}
	}

	l.mu.RLock()
	defer l.mu.RUnlock()

	key := purchaseKey(holder, id)
	for i, b := range l.chain {
		if !l.filters[i].Test(key) {
			continue
		}
		if containsPurchase(b.Transactions, holder, id) {
			return true
		}
	}

	return containsPurchase(l.pool.Txs(), holder, id)
}

func containsPurchase(txs []*tx.Tx, holder, id string) bool {
	for _, t := range txs {
		if t == nil {
			continue
		}
		if p, ok := t.Purchase(); ok && p.Buyer == holder && p.ItemID == id {
			return true
		}
	}
	return false
}

// ResolveConflicts would adopt the longest valid peer chain. There are
// no peers, so the local chain is never replaced.
func (l *Ledger) ResolveConflicts() bool {
	return false
}
