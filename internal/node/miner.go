package node

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/jpillora/backoff"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/abrahamboza/Blockchain-Marketplace-for-Ai-Applications/pkg/ledger"
)

// miner periodically mines the pending pool. Failed attempts are retried
// with exponential backoff; a tick with nothing pending is skipped.
type miner struct {
	n       *Node
	backoff *backoff.Backoff

	ctx     context.Context
	cancel  context.CancelFunc
	started atomic.Bool
	exited  chan struct{}

	logger *logrus.Entry
}

func newMiner(n *Node) *miner {
	ctx, cancel := context.WithCancel(context.Background())

	return &miner{
		n: n,
		backoff: &backoff.Backoff{
			Min:    n.cfg.Mining().BackoffMin,
			Max:    n.cfg.Mining().BackoffMax,
			Factor: 2,
			Jitter: true,
		},
		ctx:    ctx,
		cancel: cancel,
		exited: make(chan struct{}),
		logger: n.logger.WithField("component", "miner"),
	}
}

func (m *miner) start() {
	if m.started.CompareAndSwap(false, true) {
		go m.run()
	}
}

func (m *miner) run() {
	defer close(m.exited)

	interval := m.n.cfg.Mining().Interval
	m.logger.WithField("interval", interval).Info("auto mining enabled")

	wait := interval
	for {
		t := time.NewTimer(wait)

		select {
		case <-m.ctx.Done():
			t.Stop()
			return
		case <-t.C:
		}

		wait = interval

		if len(m.n.ledger.Pending()) == 0 {
			continue
		}

		b, err := m.n.Mine(m.ctx, nil)
		if err != nil {
			if m.ctx.Err() != nil {
				return
			}

			wait = m.backoff.Duration()
			l := m.logger.WithError(err).WithField("retry", wait)
			if errors.Is(err, ledger.ErrMiningAborted) {
				l.Warn("mining aborted")
			} else {
				l.Error("mining failed")
			}
			continue
		}

		m.backoff.Reset()
		m.logger.WithField("index", b.Index).Debug("auto mined block")
	}
}

// stop cancels any search in progress and waits for the loop to exit.
func (m *miner) stop() {
	m.cancel()
	if m.started.Load() {
		<-m.exited
	}
}
