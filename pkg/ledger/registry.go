package ledger

import (
	"sort"
	"sync"

	"github.com/pkg/errors"

	"github.com/abrahamboza/Blockchain-Marketplace-for-Ai-Applications/pkg/tx"
)

// Item is a marketplace listing derived from an upload transaction.
type Item struct {
	ID          string
	Type        tx.TxType
	Owner       string
	Price       float64
	Metadata    map[string]string
	Timestamp   float64
	Committed   bool
	PurchasedBy []string
}

// Registry is the read-side projection of uploads and purchases. It is
// maintained incrementally by the Ledger and must always equal Replay
// over the chain followed by the pending pool.
type Registry struct {
	mu sync.RWMutex

	items map[string]*Item

	// item id -> buyers, kept apart from items so purchases of unknown
	// items replay the same way they were applied
	purchases map[string]map[string]struct{}
}

func NewRegistry() *Registry {
	return &Registry{
		items:     make(map[string]*Item),
		purchases: make(map[string]map[string]struct{}),
	}
}

// Replay rebuilds a registry from committed blocks then pending txs.
func Replay(chain []*Block, pending []*tx.Tx) *Registry {
	r := NewRegistry()

	for _, b := range chain {
		r.applyBlock(b)
	}

	for _, t := range pending {
		r.apply(t, false)
	}

	return r
}

func (r *Registry) applyBlock(b *Block) {
	for _, t := range b.Transactions {
		r.apply(t, true)
	}
}

func (r *Registry) apply(t *tx.Tx, committed bool) {
	if t == nil {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if u, ok := t.Upload(); ok {
		it, exists := r.items[t.ID]
		if !exists {
			md := make(map[string]string, len(u.Metadata))
			for k, v := range u.Metadata {
				md[k] = v
			}

			it = &Item{
				ID:        t.ID,
				Type:      t.Type,
				Owner:     u.Owner,
				Price:     u.Price,
				Metadata:  md,
				Timestamp: t.Ts,
			}
			r.items[t.ID] = it
		}
		it.Committed = it.Committed || committed
		return
	}

	if p, ok := t.Purchase(); ok {
		buyers, ok := r.purchases[p.ItemID]
		if !ok {
			buyers = make(map[string]struct{})
			r.purchases[p.ItemID] = buyers
		}
		buyers[p.Buyer] = struct{}{}
	}
}

// Item returns a copy of the item with its purchasers.
func (r *Registry) Item(id string) (*Item, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	it, ok := r.items[id]
	if !ok {
		return nil, false
	}

	return r.copyItem(it), true
}

func (r *Registry) copyItem(it *Item) *Item {
	cp := *it

	cp.Metadata = make(map[string]string, len(it.Metadata))
	for k, v := range it.Metadata {
		cp.Metadata[k] = v
	}

	buyers := r.purchases[it.ID]
	cp.PurchasedBy = make([]string, 0, len(buyers))
	for b := range buyers {
		cp.PurchasedBy = append(cp.PurchasedBy, b)
	}
	sort.Strings(cp.PurchasedBy)

	return &cp
}

// Items lists items of the given upload type, oldest first. An empty
// type lists everything.
func (r *Registry) Items(t tx.TxType) []*Item {
	r.mu.RLock()
	defer r.mu.RUnlock()

	list := make([]*Item, 0, len(r.items))
	for _, it := range r.items {
		if t != "" && it.Type != t {
			continue
		}
		list = append(list, r.copyItem(it))
	}

	sort.Slice(list, func(i, j int) bool {
		if list[i].Timestamp == list[j].Timestamp {
			return list[i].ID < list[j].ID
		}
		return list[i].Timestamp < list[j].Timestamp
	})

	return list
}

// HasAccess reports whether holder owns or has purchased the item.
func (r *Registry) HasAccess(holder, id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if it, ok := r.items[id]; ok && it.Owner == holder {
		return true
	}

	_, ok := r.purchases[id][holder]
	return ok
}

// Diff returns an error describing the first difference between r and o.
func (r *Registry) Diff(o *Registry) error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	o.mu.RLock()
	defer o.mu.RUnlock()

	if len(r.items) != len(o.items) {
		return errors.Errorf("item count %d != %d", len(r.items), len(o.items))
	}

	for id, a := range r.items {
		b, ok := o.items[id]
		if !ok {
			return errors.Errorf("item %s missing", id)
		}
		if a.Owner != b.Owner || a.Type != b.Type || a.Price != b.Price || a.Committed != b.Committed {
			return errors.Errorf("item %s differs", id)
		}
		if a.Timestamp != b.Timestamp {
			return errors.Errorf("item %s timestamp %v != %v", id, a.Timestamp, b.Timestamp)
		}
		if !sameMetadata(a.Metadata, b.Metadata) {
			return errors.Errorf("item %s metadata differs", id)
		}
	}

	if len(r.purchases) != len(o.purchases) {
		return errors.Errorf("purchased item count %d != %d", len(r.purchases), len(o.purchases))
	}

	for id, a := range r.purchases {
		b := o.purchases[id]
		if len(a) != len(b) {
			return errors.Errorf("item %s purchasers differ", id)
		}
		for buyer := range a {
			if _, ok := b[buyer]; !ok {
				return errors.Errorf("item %s purchaser %s missing", id, buyer)
			}
		}
	}

	return nil
}

func sameMetadata(a, b map[string]string) bool {
	if len(a) != len(b) {
		return false
	}

	for k, v := range a {
		if w, ok := b[k]; !ok || w != v {
			return false
		}
	}

	return true
}
