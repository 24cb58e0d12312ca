package storage

import (
	"bytes"
	"context"
	"encoding/binary"
	"io/ioutil"
	"os"
	"path/filepath"
	"sync"

	"github.com/cockroachdb/pebble"
	"github.com/ipfs/go-cid"
	"github.com/pkg/errors"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/abrahamboza/Blockchain-Marketplace-for-Ai-Applications/internal/utils/logging"
	"github.com/abrahamboza/Blockchain-Marketplace-for-Ai-Applications/pkg/ledger"
	"github.com/abrahamboza/Blockchain-Marketplace-for-Ai-Applications/pkg/storage"
)

var (
	_ storage.Store = (*DiskStorage)(nil)
	_ ledger.Mirror = (*DiskStorage)(nil)
)

const (
	cacheSize = 1 << 20 * 16

	tableSep byte = ':'

	objectsDir  = "objects"
	metadataDir = "metadata"
	tmpSuffix   = ".tmp"
)

type metadataKeyType byte

const (
	casMetadataTPrefix metadataKeyType = iota + 1
	casPinTPrefix
	blockTPrefix
	latestBlockTPrefix
)

var syncWrite = &pebble.WriteOptions{Sync: true}

// DiskStorage keeps CAS objects as files named by CID under
// <repo>/objects and everything else (object metadata, the pin set and
// mirrored blocks) in a pebble database under <repo>/metadata.
type DiskStorage struct {
	repo     string
	metadata *pebble.DB

	// mu serializes Cleanup against Add, Pin and Unpin
	mu sync.RWMutex
}

func NewDiskStorage(ctx context.Context, repo string) (*DiskStorage, error) {
	if err := os.MkdirAll(filepath.Join(repo, objectsDir), 0700); err != nil {
		return nil, storage.IOError(err, "creating repo dir")
	}

	md, err := metadataStore(ctx, filepath.Join(repo, metadataDir))
	if err != nil {
		return nil, storage.IOError(err, "opening metadata store")
	}

	return &DiskStorage{repo: repo, metadata: md}, nil
}

func metadataStore(ctx context.Context, path string) (*pebble.DB, error) {
	c := pebble.NewCache(cacheSize)
	defer c.Unref()

	tc := pebble.NewTableCache(c, 16, 100)
	defer tc.Unref()

	return pebble.Open(path, &pebble.Options{Cache: c, TableCache: tc})
}

func (s *DiskStorage) Stop() error {
	return s.metadata.Close()
}

func (s *DiskStorage) objectPath(id cid.Cid) string {
	return filepath.Join(s.repo, objectsDir, id.String())
}

func (s *DiskStorage) metadataGet(key []byte) ([]byte, bool, error) {
	d, closer, err := s.metadata.Get(key)
	if err == pebble.ErrNotFound {
		return nil, false, nil
	} else if err != nil {
		return nil, false, storage.IOError(err, "reading metadata")
	}
	defer closer.Close()

	return append([]byte(nil), d...), true, nil
}

func (s *DiskStorage) Add(ctx context.Context, d []byte, md storage.Metadata, opts ...storage.AddOption) (cid.Cid, error) {
	o := storage.NewAddOptions(opts...)

	id, err := storage.ContentID(d)
	if err != nil {
		return cid.Undef, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	p := s.objectPath(id)
	if _, err := os.Stat(p); os.IsNotExist(err) {
		if err := writeFileSync(p, d); err != nil {
			return cid.Undef, storage.IOError(err, "writing object")
		}
	} else if err != nil {
		return cid.Undef, storage.IOError(err, "checking object")
	}

	if md != nil {
		b, err := msgpack.Marshal(md)
		if err != nil {
			return cid.Undef, errors.Wrap(err, "encoding object metadata")
		}

		if err := s.metadata.Set(typedKey(casMetadataTPrefix, id.String()), b, syncWrite); err != nil {
			return cid.Undef, storage.IOError(err, "writing object metadata")
		}
	}

	if o.Pin {
		if err := s.metadata.Set(typedKey(casPinTPrefix, id.String()), nil, syncWrite); err != nil {
			return cid.Undef, storage.IOError(err, "writing pin")
		}
	}

	return id, nil
}

// writeFileSync writes d next to p, syncs it and renames it into place so
// a crash never leaves a partial object under its CID.
func writeFileSync(p string, d []byte) error {
	f, err := ioutil.TempFile(filepath.Dir(p), filepath.Base(p)+"-*"+tmpSuffix)
	if err != nil {
		return err
	}
	tmp := f.Name()

	if _, err := f.Write(d); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}

	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}

	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}

	return os.Rename(tmp, p)
}

func (s *DiskStorage) Get(ctx context.Context, id cid.Cid) ([]byte, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	d, err := ioutil.ReadFile(s.objectPath(id))
	if os.IsNotExist(err) {
		return nil, false, nil
	} else if err != nil {
		return nil, false, storage.IOError(err, "reading object")
	}

	return d, true, nil
}

func (s *DiskStorage) Has(ctx context.Context, id cid.Cid) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.hasLocked(id)
}

func (s *DiskStorage) hasLocked(id cid.Cid) (bool, error) {
	_, err := os.Stat(s.objectPath(id))
	if os.IsNotExist(err) {
		return false, nil
	} else if err != nil {
		return false, storage.IOError(err, "checking object")
	}

	return true, nil
}

func (s *DiskStorage) Metadata(ctx context.Context, id cid.Cid) (storage.Metadata, error) {
	d, ok, err := s.metadataGet(typedKey(casMetadataTPrefix, id.String()))
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, storage.ErrNotFound
	}

	md := storage.Metadata{}
	if err := msgpack.Unmarshal(d, &md); err != nil {
		return nil, errors.Wrap(err, "decoding object metadata")
	}

	return md, nil
}

func (s *DiskStorage) Pin(ctx context.Context, id cid.Cid) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ok, err := s.hasLocked(id)
	if err != nil || !ok {
		return false, err
	}

	if err := s.metadata.Set(typedKey(casPinTPrefix, id.String()), nil, syncWrite); err != nil {
		return false, storage.IOError(err, "writing pin")
	}

	return true, nil
}

func (s *DiskStorage) Unpin(ctx context.Context, id cid.Cid) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.metadata.Delete(typedKey(casPinTPrefix, id.String()), syncWrite); err != nil {
		return false, storage.IOError(err, "removing pin")
	}

	return true, nil
}

func (s *DiskStorage) IsPinned(ctx context.Context, id cid.Cid) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok, err := s.metadataGet(typedKey(casPinTPrefix, id.String()))
	return ok, err
}

// Pins lists every pinned CID.
func (s *DiskStorage) Pins(ctx context.Context) ([]cid.Cid, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	iter := s.metadata.NewIter(&pebble.IterOptions{
		LowerBound: []byte{byte(casPinTPrefix)},
		UpperBound: []byte{byte(casPinTPrefix) + 1},
	})
	defer iter.Close()

	list := []cid.Cid{}
	for iter.First(); iter.Valid(); iter.Next() {
		c, err := cid.Decode(string(iter.Key()[1:]))
		if err != nil {
			logging.Component("storage").WithError(err).Warn("skipping malformed pin")
			continue
		}
		list = append(list, c)
	}

	return list, nil
}

func (s *DiskStorage) Cleanup(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := os.ReadDir(filepath.Join(s.repo, objectsDir))
	if err != nil {
		return 0, storage.IOError(err, "listing objects")
	}

	n := 0
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return n, err
		}

		name := e.Name()
		p := filepath.Join(s.repo, objectsDir, name)

		if filepath.Ext(name) == tmpSuffix {
			os.Remove(p)
			continue
		}

		id, err := cid.Decode(name)
		if err != nil {
			logging.Component("storage").WithField("file", name).Warn("ignoring unknown file in object store")
			continue
		}

		_, pinned, err := s.metadataGet(typedKey(casPinTPrefix, id.String()))
		if err != nil {
			return n, err
		}
		if pinned {
			continue
		}

		if err := os.Remove(p); err != nil {
			return n, storage.IOError(err, "removing object")
		}
		if err := s.metadata.Delete(typedKey(casMetadataTPrefix, id.String()), syncWrite); err != nil {
			return n, storage.IOError(err, "removing object metadata")
		}
		n++
	}

	return n, nil
}

// PutBlock mirrors b under its index and advances the latest block
// pointer in one synced batch.
func (s *DiskStorage) PutBlock(ctx context.Context, b *ledger.Block) error {
	d, err := b.Marshal()
	if err != nil {
		return err
	}

	batch := s.metadata.NewBatch()
	defer batch.Close()

	if err := batch.Set(blockKey(b.Index), d, nil); err != nil {
		return storage.IOError(err, "staging block")
	}

	latest := make([]byte, 8)
	binary.BigEndian.PutUint64(latest, b.Index)
	if err := batch.Set(typedKey(latestBlockTPrefix), latest, nil); err != nil {
		return storage.IOError(err, "staging latest block")
	}

	if err := batch.Commit(syncWrite); err != nil {
		return storage.IOError(err, "writing block")
	}

	return nil
}

// TruncateBlocks deletes every mirrored block from index on and moves
// the latest block pointer back to the block before it.
func (s *DiskStorage) TruncateBlocks(ctx context.Context, from uint64) error {
	batch := s.metadata.NewBatch()
	defer batch.Close()

	if err := batch.DeleteRange(blockKey(from), []byte{byte(blockTPrefix) + 1}, nil); err != nil {
		return storage.IOError(err, "staging block removal")
	}

	if from == 0 {
		if err := batch.Delete(typedKey(latestBlockTPrefix), nil); err != nil {
			return storage.IOError(err, "staging latest block")
		}
	} else {
		latest := make([]byte, 8)
		binary.BigEndian.PutUint64(latest, from-1)
		if err := batch.Set(typedKey(latestBlockTPrefix), latest, nil); err != nil {
			return storage.IOError(err, "staging latest block")
		}
	}

	if err := batch.Commit(syncWrite); err != nil {
		return storage.IOError(err, "removing blocks")
	}

	return nil
}

// GetBlock returns the mirrored block at index.
func (s *DiskStorage) GetBlock(ctx context.Context, index uint64) (*ledger.Block, error) {
	d, ok, err := s.metadataGet(blockKey(index))
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, storage.ErrNotFound
	}

	b := &ledger.Block{}
	if err := b.Unmarshal(d); err != nil {
		return nil, err
	}

	return b, nil
}

// LatestIndex returns the index of the last mirrored block.
func (s *DiskStorage) LatestIndex(ctx context.Context) (uint64, bool, error) {
	d, ok, err := s.metadataGet(typedKey(latestBlockTPrefix))
	if err != nil || !ok {
		return 0, false, err
	}
	if len(d) != 8 {
		return 0, false, errors.New("malformed latest block pointer")
	}

	return binary.BigEndian.Uint64(d), true, nil
}

// Blocks loads every mirrored block in index order.
func (s *DiskStorage) Blocks(ctx context.Context) ([]*ledger.Block, error) {
	iter := s.metadata.NewIter(&pebble.IterOptions{
		LowerBound: []byte{byte(blockTPrefix)},
		UpperBound: []byte{byte(blockTPrefix) + 1},
	})
	defer iter.Close()

	blocks := []*ledger.Block{}
	for iter.First(); iter.Valid(); iter.Next() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		b := &ledger.Block{}
		if err := b.Unmarshal(bytes.Clone(iter.Value())); err != nil {
			return nil, errors.Wrapf(err, "decoding block key %x", iter.Key())
		}
		blocks = append(blocks, b)
	}

	return blocks, nil
}

func blockKey(index uint64) []byte {
	k := make([]byte, 9)
	k[0] = byte(blockTPrefix)
	binary.BigEndian.PutUint64(k[1:], index)
	return k
}

func typedKey(kType metadataKeyType, parts ...string) []byte {
	n := 1
	for _, p := range parts {
		n += len(p) + 1 //add sep as well
	}

	k := make([]byte, 0, n)
	k = append(k, byte(kType))
	for _, p := range parts {
		k = append(k, []byte(p)...)
		k = append(k, tableSep)
	}

	if len(parts) == 0 {
		return k
	}

	return k[:len(k)-1]
}
