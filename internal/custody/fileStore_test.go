package custody

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abrahamboza/Blockchain-Marketplace-for-Ai-Applications/pkg/cryptography"
)

func TestFileStore(t *testing.T) {
	dir := t.TempDir()
	keys := filepath.Join(dir, "keys.yaml")
	idf := filepath.Join(dir, "custody.key")

	fs, err := NewFileStore(keys, idf)
	if err != nil {
		t.Fatal(err)
	}
	assert.True(t, strings.HasPrefix(fs.Recipient(), "age1"))

	k, err := cryptography.GenerateKey()
	require.NoError(t, err)

	require.NoError(t, fs.PutKey("item", "alice", k))
	require.NoError(t, fs.PutKey("item", "bob", k))

	got, ok, err := fs.GetKey("item", "alice")
	assert.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, k, got)

	_, ok, err = fs.GetKey("item", "carol")
	assert.NoError(t, err)
	assert.False(t, ok)

	assert.ElementsMatch(t, []string{"alice", "bob"}, fs.Holders("item"))

	// sealed at rest
	assert.NotContains(t, fs.keys.Keys[0].Key, k.String())

	reopened, err := NewFileStore(keys, idf)
	require.NoError(t, err)
	assert.Equal(t, fs.Recipient(), reopened.Recipient())

	got, ok, err = reopened.GetKey("item", "bob")
	assert.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, k, got)
}

func TestFileStoreReplace(t *testing.T) {
	dir := t.TempDir()
	fs, err := NewFileStore(filepath.Join(dir, "keys.yaml"), filepath.Join(dir, "custody.key"))
	require.NoError(t, err)

	k1, _ := cryptography.GenerateKey()
	k2, _ := cryptography.GenerateKey()

	require.NoError(t, fs.PutKey("item", "alice", k1))
	require.NoError(t, fs.PutKey("item", "alice", k2))

	assert.Len(t, fs.keys.Keys, 1)
	got, _, err := fs.GetKey("item", "alice")
	assert.NoError(t, err)
	assert.Equal(t, k2, got)
}

func TestFileStoreWrongIdentity(t *testing.T) {
	dir := t.TempDir()
	keys := filepath.Join(dir, "keys.yaml")

	fs, err := NewFileStore(keys, filepath.Join(dir, "a.key"))
	require.NoError(t, err)

	k, _ := cryptography.GenerateKey()
	require.NoError(t, fs.PutKey("item", "alice", k))

	other, err := NewFileStore(keys, filepath.Join(dir, "b.key"))
	require.NoError(t, err)

	_, _, err = other.GetKey("item", "alice")
	assert.Error(t, err)
}
