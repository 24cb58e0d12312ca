package ledger

import (
	"context"
	"encoding/hex"
	"math/rand"
	"strconv"
	"strings"
	"testing"

	"github.com/minio/sha256-simd"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func hexPredicate(last, proof uint64, d uint8) bool {
	sum := sha256.Sum256([]byte(strconv.FormatUint(last, 10) + strconv.FormatUint(proof, 10)))
	return strings.HasPrefix(hex.EncodeToString(sum[:]), strings.Repeat("0", int(d)))
}

func TestValidProofMatchesHexPrefix(t *testing.T) {
	r := rand.New(rand.NewSource(1))

	for i := 0; i < 5000; i++ {
		last := uint64(r.Int63n(1 << 20))
		proof := uint64(r.Int63n(1 << 20))
		d := uint8(r.Intn(4))

		assert.Equal(t, hexPredicate(last, proof, d), ValidProof(last, proof, d), "last=%d proof=%d d=%d", last, proof, d)
	}
}

func TestValidProofBounds(t *testing.T) {
	assert.True(t, ValidProof(100, 0, 0))
	assert.False(t, ValidProof(100, 0, MaxDifficulty+1))
}

func TestProofOfWork(t *testing.T) {
	for d := uint8(0); d <= 3; d++ {
		proof, _, err := ProofOfWork(context.Background(), GenesisProof, d, 0, 0)
		if err != nil {
			t.Fatal(err)
		}

		assert.True(t, ValidProof(GenesisProof, proof, d))

		// first satisfying integer
		for p := uint64(0); p < proof; p++ {
			if ValidProof(GenesisProof, p, d) {
				t.Fatalf("proof %d at difficulty %d precedes %d", p, d, proof)
			}
		}
	}
}

func TestProofOfWorkMonotonicInDifficulty(t *testing.T) {
	ctx := context.Background()

	prev := uint64(0)
	for d := uint8(0); d <= 3; d++ {
		proof, _, err := ProofOfWork(ctx, 7, d, 0, 0)
		if err != nil {
			t.Fatal(err)
		}
		assert.GreaterOrEqual(t, proof, prev)
		prev = proof
	}
}

func TestProofOfWorkCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	next, _, err := ProofOfWork(ctx, GenesisProof, MaxDifficulty, 5, 0)
	assert.True(t, errors.Is(err, ErrMiningAborted))
	assert.Equal(t, uint64(5), next)
}

func TestProofOfWorkMaxAttemptsResume(t *testing.T) {
	ctx := context.Background()

	want, _, err := ProofOfWork(ctx, GenesisProof, 3, 0, 0)
	if err != nil {
		t.Fatal(err)
	}

	var (
		next  uint64
		found bool
	)
	for i := 0; i < 1<<20 && !found; i++ {
		p, _, err := ProofOfWork(ctx, GenesisProof, 3, next, 50)
		if err == nil {
			assert.Equal(t, want, p)
			found = true
			break
		}
		assert.True(t, errors.Is(err, ErrMiningAborted))
		assert.Equal(t, next+50, p)
		next = p
	}

	assert.True(t, found)
}

func TestProofOfWorkRejectsDifficulty(t *testing.T) {
	_, _, err := ProofOfWork(context.Background(), 1, MaxDifficulty+1, 0, 0)
	assert.Error(t, err)
}
