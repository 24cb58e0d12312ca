package cryptography

import (
	"crypto/rand"
	"io"

	"github.com/pkg/errors"
	"golang.org/x/crypto/chacha20poly1305"
)

const (
	// KeySize is the size of a payload key in bytes.
	KeySize = chacha20poly1305.KeySize

	// BlobVersion prefixes every ciphertext and is authenticated as AAD.
	BlobVersion byte = 0x01

	// BlobOverhead is version + nonce + poly1305 tag.
	BlobOverhead = 1 + chacha20poly1305.NonceSizeX + chacha20poly1305.Overhead
)

var (
	ErrDecryption = errors.New("decryption failed")
)

// Key is a symmetric payload key. It is never written to the ledger.
type Key [KeySize]byte

// GenerateKey returns a fresh uniformly random key.
func GenerateKey() (Key, error) {
	var k Key
	if _, err := io.ReadFull(rand.Reader, k[:]); err != nil {
		return Key{}, errors.Wrap(err, "reading random key")
	}
	return k, nil
}

// Encrypt seals plaintext under k with XChaCha20-Poly1305. The result is
//
//	[version: 1 byte] [nonce: 24 bytes] [ciphertext+tag]
func Encrypt(plaintext []byte, k Key) ([]byte, error) {
	aead, err := chacha20poly1305.NewX(k[:])
	if err != nil {
		return nil, errors.Wrap(err, "creating cipher")
	}

	var nonce [chacha20poly1305.NonceSizeX]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return nil, errors.Wrap(err, "generating nonce")
	}

	out := make([]byte, 1+len(nonce), BlobOverhead+len(plaintext))
	out[0] = BlobVersion
	copy(out[1:], nonce[:])

	return aead.Seal(out, nonce[:], plaintext, []byte{BlobVersion}), nil
}

// Decrypt opens a blob produced by Encrypt. Any failure, including a
// wrong key or a tampered blob, returns ErrDecryption and no bytes.
func Decrypt(blob []byte, k Key) ([]byte, error) {
	if len(blob) < BlobOverhead {
		return nil, errors.Wrapf(ErrDecryption, "blob is %d bytes, minimum is %d", len(blob), BlobOverhead)
	}

	if blob[0] != BlobVersion {
		return nil, errors.Wrapf(ErrDecryption, "unsupported blob version %d", blob[0])
	}

	aead, err := chacha20poly1305.NewX(k[:])
	if err != nil {
		return nil, errors.Wrap(err, "creating cipher")
	}

	nonce := blob[1 : 1+chacha20poly1305.NonceSizeX]
	ct := blob[1+chacha20poly1305.NonceSizeX:]

	pt, err := aead.Open(nil, nonce, ct, blob[:1])
	if err != nil {
		return nil, errors.Wrap(ErrDecryption, "authenticating blob")
	}

	return pt, nil
}
