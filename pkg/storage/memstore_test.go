package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMemStore(t *testing.T) {
	ctx := context.Background()
	m := NewMemStore()

	id, err := m.Add(ctx, []byte("hello"), Metadata{"owner": "alice"})
	if err != nil {
		t.Fatal(err)
	}

	d, ok, err := m.Get(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	assert.True(t, ok)
	assert.Equal(t, []byte("hello"), d)

	md, err := m.Metadata(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	assert.Equal(t, "alice", md["owner"])
}

func TestMemStoreDedup(t *testing.T) {
	ctx := context.Background()
	m := NewMemStore()

	id1, _ := m.Add(ctx, []byte("same"), nil)
	id2, _ := m.Add(ctx, []byte("same"), nil)

	assert.Equal(t, id1, id2)
	assert.Len(t, m.objects, 1)

	expected, err := ContentID([]byte("same"))
	if err != nil {
		t.Fatal(err)
	}
	assert.Equal(t, expected, id1)
}

func TestMemStoreGetMissing(t *testing.T) {
	id, _ := ContentID([]byte("missing"))

	d, ok, err := NewMemStore().Get(context.Background(), id)
	assert.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, d)
}

func TestMemStorePinCleanup(t *testing.T) {
	ctx := context.Background()
	m := NewMemStore()

	keep, _ := m.Add(ctx, []byte("keep"), nil)
	drop, _ := m.Add(ctx, []byte("drop"), Metadata{"a": 1})
	missing, _ := ContentID([]byte("never added"))

	ok, err := m.Pin(ctx, keep)
	assert.NoError(t, err)
	assert.True(t, ok)

	ok, err = m.Pin(ctx, missing)
	assert.NoError(t, err)
	assert.False(t, ok)

	ok, err = m.Unpin(ctx, drop)
	assert.NoError(t, err)
	assert.True(t, ok)

	n, err := m.Cleanup(ctx)
	assert.NoError(t, err)
	assert.Equal(t, 1, n)

	has, _ := m.Has(ctx, keep)
	assert.True(t, has)
	has, _ = m.Has(ctx, drop)
	assert.False(t, has)

	_, err = m.Metadata(ctx, drop)
	assert.ErrorIs(t, err, ErrNotFound)

	ok, _ = m.Unpin(ctx, keep)
	assert.True(t, ok)
	n, _ = m.Cleanup(ctx)
	assert.Equal(t, 1, n)
}

func TestParseCID(t *testing.T) {
	id, _ := ContentID([]byte("x"))

	p, err := ParseCID(id.String())
	assert.NoError(t, err)
	assert.Equal(t, id, p)

	_, err = ParseCID("not a cid")
	assert.Error(t, err)
}

func TestIOError(t *testing.T) {
	err := IOError(assert.AnError, "writing object")
	assert.ErrorIs(t, err, ErrStorageIO)
	assert.ErrorIs(t, err, assert.AnError)
	assert.Nil(t, IOError(nil, "noop"))
}

func TestMemStoreAddWithPin(t *testing.T) {
	ctx := context.Background()
	m := NewMemStore()

	id, err := m.Add(ctx, []byte("pinned"), nil, WithPin())
	if err != nil {
		t.Fatal(err)
	}

	pinned, err := m.IsPinned(ctx, id)
	assert.NoError(t, err)
	assert.True(t, pinned)

	n, err := m.Cleanup(ctx)
	assert.NoError(t, err)
	assert.Equal(t, 0, n)

	has, _ := m.Has(ctx, id)
	assert.True(t, has)
}
