package ledger

import "github.com/pkg/errors"

var (
	ErrChainIntegrity = errors.New("chain integrity error")
	ErrMiningAborted  = errors.New("mining aborted")
	ErrGenesisExists  = errors.New("genesis block already exists")

	ErrDuplicateTransaction = errors.New("duplicate transaction")
)

// integrityErr reports as ErrChainIntegrity while keeping its cause
// (for example tx.ErrInvalidTransaction) reachable via errors.Is.
type integrityErr struct {
	cause error
}

func integrityError(cause error, format string, args ...interface{}) error {
	if cause == nil {
		return errors.Wrapf(ErrChainIntegrity, format, args...)
	}
	return &integrityErr{cause: errors.Wrapf(cause, format, args...)}
}

func (e *integrityErr) Error() string { return e.cause.Error() }

func (e *integrityErr) Unwrap() error { return e.cause }

func (e *integrityErr) Is(target error) bool { return target == ErrChainIntegrity }
