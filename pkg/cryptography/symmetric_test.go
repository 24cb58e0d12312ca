package cryptography

import (
	"bytes"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestEncryptDecrypt(t *testing.T) {
	k, err := GenerateKey()
	if err != nil {
		t.Fatal(err)
	}

	for _, m := range [][]byte{[]byte("hello"), bytes.Repeat([]byte{0xaa}, 1<<16), {0}} {
		ct, err := Encrypt(m, k)
		if err != nil {
			t.Fatal(err)
		}

		assert.Len(t, ct, len(m)+BlobOverhead)

		pt, err := Decrypt(ct, k)
		if err != nil {
			t.Fatal(err)
		}
		assert.Equal(t, m, pt)
	}
}

func TestDecryptWrongKey(t *testing.T) {
	k1, _ := GenerateKey()
	k2, _ := GenerateKey()

	ct, err := Encrypt([]byte("hello"), k1)
	if err != nil {
		t.Fatal(err)
	}

	pt, err := Decrypt(ct, k2)
	assert.Nil(t, pt)
	assert.True(t, errors.Is(err, ErrDecryption))
}

func TestDecryptTampered(t *testing.T) {
	k, _ := GenerateKey()

	ct, err := Encrypt([]byte("hello world"), k)
	if err != nil {
		t.Fatal(err)
	}

	tests := map[string]func([]byte) []byte{
		"flipped body":  func(b []byte) []byte { b[len(b)-1] ^= 0x01; return b },
		"flipped nonce": func(b []byte) []byte { b[3] ^= 0x01; return b },
		"version":       func(b []byte) []byte { b[0] = 0x02; return b },
		"truncated":     func(b []byte) []byte { return b[:BlobOverhead-1] },
		"empty":         func(b []byte) []byte { return nil },
	}

	for name, mutate := range tests {
		t.Run(name, func(t *testing.T) {
			c := mutate(append([]byte(nil), ct...))
			pt, err := Decrypt(c, k)
			assert.Nil(t, pt)
			assert.True(t, errors.Is(err, ErrDecryption))
		})
	}
}

func TestGenerateKeyDistinct(t *testing.T) {
	seen := make(map[Key]struct{}, 1000)
	for i := 0; i < 1000; i++ {
		k, err := GenerateKey()
		if err != nil {
			t.Fatal(err)
		}
		_, dup := seen[k]
		assert.False(t, dup)
		seen[k] = struct{}{}
	}
}

func TestKeyString(t *testing.T) {
	k, _ := GenerateKey()

	rk, err := ParseKey(k.String())
	if err != nil {
		t.Fatal(err)
	}
	assert.Equal(t, k, rk)

	_, err = ParseKey("zabc")
	assert.Error(t, err)

	_, err = ParseKey("!nope")
	assert.Error(t, err)
}
