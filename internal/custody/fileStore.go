// Package custody keeps payload keys for (item, holder) pairs in a yaml
// file. Keys are sealed at rest to the node's age X25519 identity.
package custody

import (
	"bytes"
	"encoding/base64"
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"filippo.io/age"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/abrahamboza/Blockchain-Marketplace-for-Ai-Applications/pkg/cryptography"
	"github.com/abrahamboza/Blockchain-Marketplace-for-Ai-Applications/pkg/market"
)

var _ market.KeyCustody = (*FileStore)(nil)

type KeyFile struct {
	Keys []KeyFileEntry `yaml:"keys"`
}

type KeyFileEntry struct {
	ItemID string    `yaml:"item_id"`
	Holder string    `yaml:"holder"`
	Key    string    `yaml:"key"`
	Added  time.Time `yaml:"added"`
}

type FileStore struct {
	path     string
	keys     KeyFile
	idx      map[string]int
	identity *age.X25519Identity

	mu sync.Mutex
}

// NewFileStore opens the key file at path, sealing entries to the
// identity read from identityFile. A missing identity file is created
// with a fresh identity.
func NewFileStore(path, identityFile string) (*FileStore, error) {
	id, err := loadIdentity(identityFile)
	if err != nil {
		return nil, err
	}

	fs := &FileStore{path: path, identity: id}
	if err := fs.read(); err != nil {
		return nil, err
	}

	return fs, nil
}

func loadIdentity(path string) (*age.X25519Identity, error) {
	d, err := ioutil.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return generateIdentity(path)
	} else if err != nil {
		return nil, errors.Wrap(err, "reading custody identity")
	}

	id, err := age.ParseX25519Identity(strings.TrimSpace(string(d)))
	if err != nil {
		return nil, errors.Wrap(err, "parsing custody identity")
	}

	return id, nil
}

func generateIdentity(path string) (*age.X25519Identity, error) {
	id, err := age.GenerateX25519Identity()
	if err != nil {
		return nil, errors.Wrap(err, "generating custody identity")
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, errors.Wrap(err, "creating identity dir")
	}

	if err := ioutil.WriteFile(path, []byte(id.String()+"\n"), 0600); err != nil {
		return nil, errors.Wrap(err, "writing custody identity")
	}

	return id, nil
}

// Recipient is the public half of the sealing identity.
func (fs *FileStore) Recipient() string {
	return fs.identity.Recipient().String()
}

func (fs *FileStore) read() error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(fs.path), 0700); err != nil {
		return errors.Wrap(err, "creating key file dir")
	}

	f, err := os.OpenFile(fs.path, os.O_CREATE|os.O_RDWR, 0600)
	if err != nil {
		return errors.Wrap(err, "opening key file for read")
	}
	defer f.Close()

	d, err := ioutil.ReadAll(f)
	if err != nil {
		return errors.Wrap(err, "reading key file")
	}

	if err := yaml.Unmarshal(d, &fs.keys); err != nil {
		return errors.Wrap(err, "unmarshalling key file")
	}

	fs.buildIdx()

	return nil
}

func (fs *FileStore) buildIdx() {
	//assumes locked fs.mu

	fs.idx = make(map[string]int, len(fs.keys.Keys))
	for i, e := range fs.keys.Keys {
		fs.idx[idxKey(e.ItemID, e.Holder)] = i
	}
}

func idxKey(itemID, holder string) string {
	return itemID + "\x00" + holder
}

// PutKey stores k for holder on itemID, replacing any previous key.
func (fs *FileStore) PutKey(itemID, holder string, k cryptography.Key) error {
	sealed, err := fs.seal(k)
	if err != nil {
		return err
	}

	fs.mu.Lock()
	defer fs.mu.Unlock()

	e := KeyFileEntry{ItemID: itemID, Holder: holder, Key: sealed, Added: time.Now().UTC()}

	if i, ok := fs.idx[idxKey(itemID, holder)]; ok {
		fs.keys.Keys[i] = e
	} else {
		fs.keys.Keys = append(fs.keys.Keys, e)
		fs.idx[idxKey(itemID, holder)] = len(fs.keys.Keys) - 1
	}

	return fs.write()
}

func (fs *FileStore) GetKey(itemID, holder string) (cryptography.Key, bool, error) {
	fs.mu.Lock()
	i, ok := fs.idx[idxKey(itemID, holder)]
	var sealed string
	if ok {
		sealed = fs.keys.Keys[i].Key
	}
	fs.mu.Unlock()

	if !ok {
		return cryptography.Key{}, false, nil
	}

	k, err := fs.open(sealed)
	if err != nil {
		return cryptography.Key{}, false, err
	}

	return k, true, nil
}

// Holders lists who holds a key for itemID.
func (fs *FileStore) Holders(itemID string) []string {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	list := []string{}
	for _, e := range fs.keys.Keys {
		if e.ItemID == itemID {
			list = append(list, e.Holder)
		}
	}

	return list
}

func (fs *FileStore) seal(k cryptography.Key) (string, error) {
	var buf bytes.Buffer

	w, err := age.Encrypt(&buf, fs.identity.Recipient())
	if err != nil {
		return "", errors.Wrap(err, "creating age encryptor")
	}
	if _, err := w.Write(k[:]); err != nil {
		return "", errors.Wrap(err, "sealing key")
	}
	if err := w.Close(); err != nil {
		return "", errors.Wrap(err, "finalizing sealed key")
	}

	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

func (fs *FileStore) open(sealed string) (cryptography.Key, error) {
	raw, err := base64.StdEncoding.DecodeString(sealed)
	if err != nil {
		return cryptography.Key{}, errors.Wrap(err, "decoding b64 sealed key")
	}

	r, err := age.Decrypt(bytes.NewReader(raw), fs.identity)
	if err != nil {
		return cryptography.Key{}, errors.Wrap(err, "unsealing key")
	}

	d, err := ioutil.ReadAll(r)
	if err != nil {
		return cryptography.Key{}, errors.Wrap(err, "reading unsealed key")
	}

	var k cryptography.Key
	if len(d) != len(k) {
		return cryptography.Key{}, errors.Errorf("unsealed key has %d bytes", len(d))
	}
	copy(k[:], d)

	return k, nil
}

func (fs *FileStore) write() error {
	d, err := yaml.Marshal(&fs.keys)
	if err != nil {
		return errors.Wrap(err, "marshalling key file")
	}

	tmp := fs.path + ".tmp"
	if err := ioutil.WriteFile(tmp, d, 0600); err != nil {
		return errors.Wrap(err, "writing key file")
	}

	return errors.Wrap(os.Rename(tmp, fs.path), "replacing key file")
}
