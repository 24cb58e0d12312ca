package ledger

import (
	"context"
	"strconv"
	"time"

	"github.com/minio/sha256-simd"
	"github.com/pkg/errors"
)

const (
	DefaultDifficulty uint8 = 4

	// cancellation is polled every ctxCheckInterval attempts
	ctxCheckInterval = 1 << 12
)

// ValidProof reports whether sha256(decimal(lastProof) || decimal(proof))
// has at least difficulty leading zero hex characters.
func ValidProof(lastProof, proof uint64, difficulty uint8) bool {
	if int(difficulty) > MaxDifficulty {
		return false
	}

	var buf [40]byte
	guess := strconv.AppendUint(buf[:0], lastProof, 10)
	guess = strconv.AppendUint(guess, proof, 10)

	return leadingZeroNibbles(sha256.Sum256(guess), difficulty)
}

func leadingZeroNibbles(sum [sha256.Size]byte, n uint8) bool {
	for i := 0; i < int(n); i++ {
		b := sum[i/2]
		if i%2 == 0 {
			b >>= 4
		} else {
			b &= 0x0f
		}
		if b != 0 {
			return false
		}
	}
	return true
}

// ProofOfWork searches proofs from, from+1, from+2, ... for the first one
// satisfying ValidProof. A maxAttempts of 0 leaves the search unbounded.
//
// When the search is aborted by ctx or maxAttempts it returns
// ErrMiningAborted together with the next untried proof, which can be
// passed back as from to resume the search.
func ProofOfWork(ctx context.Context, lastProof uint64, difficulty uint8, from, maxAttempts uint64) (uint64, time.Duration, error) {
	start := time.Now()

	if int(difficulty) > MaxDifficulty {
		return from, 0, errors.Errorf("difficulty %d exceeds %d", difficulty, MaxDifficulty)
	}

	var attempts uint64
	for p := from; ; p++ {
		if maxAttempts != 0 && attempts >= maxAttempts {
			return p, time.Since(start), errors.Wrapf(ErrMiningAborted, "no proof after %d attempts", attempts)
		}

		if attempts%ctxCheckInterval == 0 {
			select {
			case <-ctx.Done():
				return p, time.Since(start), errors.Wrap(ErrMiningAborted, ctx.Err().Error())
			default:
			}
		}

		if ValidProof(lastProof, p, difficulty) {
			return p, time.Since(start), nil
		}

		attempts++
	}
}
