package storage

import (
	"context"
	"sync"

	"github.com/ipfs/go-cid"
)

var (
	_ Store = (*MemStore)(nil)
)

// MemStore is an in-process Store. Nothing is persisted.
type MemStore struct {
	mu sync.RWMutex

	objects map[cid.Cid][]byte
	meta    map[cid.Cid]Metadata
	pins    map[cid.Cid]struct{}
}

func NewMemStore() *MemStore {
	return &MemStore{
		objects: make(map[cid.Cid][]byte),
		meta:    make(map[cid.Cid]Metadata),
		pins:    make(map[cid.Cid]struct{}),
	}
}

func (m *MemStore) Add(_ context.Context, d []byte, md Metadata, opts ...AddOption) (cid.Cid, error) {
	o := NewAddOptions(opts...)

	id, err := ContentID(d)
	if err != nil {
		return cid.Undef, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.objects[id]; !ok {
		m.objects[id] = append([]byte(nil), d...)
	}

	if md != nil {
		cp := make(Metadata, len(md))
		for k, v := range md {
			cp[k] = v
		}
		m.meta[id] = cp
	}

	if o.Pin {
		m.pins[id] = struct{}{}
	}

	return id, nil
}

func (m *MemStore) Get(_ context.Context, id cid.Cid) ([]byte, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	d, ok := m.objects[id]
	if !ok {
		return nil, false, nil
	}

	return append([]byte(nil), d...), true, nil
}

func (m *MemStore) Has(_ context.Context, id cid.Cid) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	_, ok := m.objects[id]
	return ok, nil
}

func (m *MemStore) Metadata(_ context.Context, id cid.Cid) (Metadata, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	md, ok := m.meta[id]
	if !ok {
		return nil, ErrNotFound
	}

	return md, nil
}

func (m *MemStore) Pin(_ context.Context, id cid.Cid) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.objects[id]; !ok {
		return false, nil
	}

	m.pins[id] = struct{}{}
	return true, nil
}

func (m *MemStore) Unpin(_ context.Context, id cid.Cid) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.pins, id)
	return true, nil
}

func (m *MemStore) IsPinned(_ context.Context, id cid.Cid) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	_, ok := m.pins[id]
	return ok, nil
}

func (m *MemStore) Cleanup(_ context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := 0
	for id := range m.objects {
		if _, pinned := m.pins[id]; pinned {
			continue
		}
		delete(m.objects, id)
		delete(m.meta, id)
		n++
	}

	return n, nil
}
