package cryptography

import (
	"github.com/pkg/errors"

	"github.com/multiformats/go-multibase"
)

func decodeMultibase(mb string) ([]byte, error) {
	_, d, err := multibase.Decode(mb)
	return d, err
}

// String encodes the key as base58btc multibase text.
func (k Key) String() string {
	s, _ := multibase.Encode(multibase.Base58BTC, k[:])
	return s
}

// ParseKey decodes a key produced by Key.String. Any multibase
// encoding is accepted.
func ParseKey(s string) (Key, error) {
	var k Key

	d, err := decodeMultibase(s)
	if err != nil {
		return k, errors.Wrap(err, "decoding key")
	}

	if len(d) != KeySize {
		return k, errors.Errorf("key is %d bytes, expected %d", len(d), KeySize)
	}

	copy(k[:], d)
	return k, nil
}
