package ledger

import (
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

type Option func(*Ledger) error

// WithMirror emits every appended block, genesis included, to m.
func WithMirror(m Mirror) Option {
	return func(l *Ledger) error {
		l.mirror = m
		return nil
	}
}

func WithLogger(lg *logrus.Logger) Option {
	return func(l *Ledger) error {
		l.logger = lg.WithField("component", "ledger")
		return nil
	}
}

// WithMaxAttempts bounds each proof of work search. 0 is unbounded.
func WithMaxAttempts(n uint64) Option {
	return func(l *Ledger) error {
		l.maxAttempts = n
		return nil
	}
}

// WithBlocks rehydrates the chain from previously mirrored blocks
// instead of creating a genesis block. The blocks must be in index
// order and are not written back to the mirror. With validate set, an
// invalid chain is rejected.
func WithBlocks(blocks []*Block, validate bool) Option {
	return func(l *Ledger) error {
		if len(blocks) == 0 {
			return nil
		}

		for i, b := range blocks {
			if b == nil || b.Index != uint64(i) {
				return integrityError(nil, "mirrored block %d out of order", i)
			}
		}

		if validate {
			if err := l.validator.IsChainValid(blocks); err != nil {
				return errors.Wrap(err, "validating mirrored chain")
			}
		}

		l.chain = append(l.chain[:0], blocks...)
		l.filters = l.filters[:0]
		for _, b := range blocks {
			l.filters = append(l.filters, newBlockFilter(b))
			l.indexTxs(b)
		}

		// the blocks came from the mirror
		l.mirrored = len(blocks)

		return nil
	}
}
