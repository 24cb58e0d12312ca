package storage

import "github.com/pkg/errors"

var (
	ErrNotFound = errors.New("not found")

	// ErrStorageIO wraps failures reading or writing durable storage.
	ErrStorageIO = errors.New("storage io error")
)

// IOError marks err as a storage I/O failure.
func IOError(err error, msg string) error {
	if err == nil {
		return nil
	}
	return &ioErr{cause: errors.Wrap(err, msg)}
}

type ioErr struct {
	cause error
}

func (e *ioErr) Error() string { return e.cause.Error() }

func (e *ioErr) Unwrap() error { return e.cause }

func (e *ioErr) Is(target error) bool { return target == ErrStorageIO }
