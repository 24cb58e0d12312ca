package storage

import (
	"context"

	"github.com/ipfs/go-cid"
	"github.com/multiformats/go-multihash"
	"github.com/pkg/errors"
)

// Metadata is opaque per-object information kept in the metadata index.
type Metadata map[string]interface{}

// Store is a content-addressed blob store. Objects are keyed by the CID
// of their bytes, so identical content is stored once.
//
// Implementations must serialize Cleanup against Add and Pin.
type Store interface {
	// Add stores data if absent and upserts metadata when it is non-nil.
	Add(ctx context.Context, data []byte, md Metadata, opts ...AddOption) (cid.Cid, error)

	// Get returns the object bytes. ok is false when the object is not
	// stored; err is reserved for I/O failures.
	Get(ctx context.Context, id cid.Cid) (data []byte, ok bool, err error)

	Has(ctx context.Context, id cid.Cid) (bool, error)
	Metadata(ctx context.Context, id cid.Cid) (Metadata, error)

	// Pin protects id from Cleanup. It returns false if the object does
	// not exist.
	Pin(ctx context.Context, id cid.Cid) (bool, error)

	// Unpin removes protection. Unpinning an unpinned id succeeds.
	Unpin(ctx context.Context, id cid.Cid) (bool, error)

	IsPinned(ctx context.Context, id cid.Cid) (bool, error)

	// Cleanup deletes every object that is not pinned and returns the
	// number of objects removed.
	Cleanup(ctx context.Context) (int, error)
}

type AddOptions struct {
	Pin bool
}

type AddOption func(*AddOptions)

// WithPin pins the object under the same lock that adds it, so a
// concurrent Cleanup cannot remove it first.
func WithPin() AddOption {
	return func(o *AddOptions) {
		o.Pin = true
	}
}

func NewAddOptions(opts ...AddOption) AddOptions {
	o := AddOptions{}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// ContentID returns the CIDv1 (raw codec, sha2-256) of d.
func ContentID(d []byte) (cid.Cid, error) {
	h, err := multihash.Sum(d, multihash.SHA2_256, -1)
	if err != nil {
		return cid.Undef, errors.Wrap(err, "hashing content")
	}

	return cid.NewCidV1(cid.Raw, h), nil
}

// ParseCID parses a CID and requires it to be a raw sha2-256 content id.
func ParseCID(s string) (cid.Cid, error) {
	c, err := cid.Decode(s)
	if err != nil {
		return cid.Undef, errors.Wrap(err, "decoding cid")
	}

	if c.Prefix().MhType != multihash.SHA2_256 {
		return cid.Undef, errors.New("unsupported cid hash")
	}

	return c, nil
}
