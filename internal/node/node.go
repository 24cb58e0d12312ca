package node

import (
	"context"
	"path/filepath"
	"sync"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/abrahamboza/Blockchain-Marketplace-for-Ai-Applications/internal/config"
	"github.com/abrahamboza/Blockchain-Marketplace-for-Ai-Applications/internal/custody"
	"github.com/abrahamboza/Blockchain-Marketplace-for-Ai-Applications/internal/storage"
	"github.com/abrahamboza/Blockchain-Marketplace-for-Ai-Applications/pkg/ledger"
	"github.com/abrahamboza/Blockchain-Marketplace-for-Ai-Applications/pkg/market"
)

// Node owns the ledger, the durable store that mirrors it, key custody
// and the marketplace built on them.
type Node struct {
	cfg  *config.Config
	repo string

	storage *storage.DiskStorage
	ledger  *ledger.Ledger
	custody *custody.FileStore
	market  *market.Market

	miner *miner

	stopOnce sync.Once
	done     chan struct{}

	logger *logrus.Logger
}

func (n *Node) Config() *config.Config {
	return n.cfg
}

func (n *Node) Storage() *storage.DiskStorage {
	return n.storage
}

func (n *Node) Ledger() *ledger.Ledger {
	return n.ledger
}

func (n *Node) Custody() *custody.FileStore {
	return n.custody
}

func (n *Node) Market() *market.Market {
	return n.market
}

func NewNode(ctx context.Context, opts ...NodeOption) (*Node, error) {
	n := &Node{
		logger: logrus.StandardLogger(),
		done:   make(chan struct{}),
	}

	for _, opt := range opts {
		if err := opt(n); err != nil {
			return nil, err
		}
	}

	if n.cfg == nil {
		cfg, err := config.GetConfig()
		if err != nil {
			return nil, err
		}
		n.cfg = cfg
	}

	keyFile := n.cfg.Storage().CustodyFile
	idFile := n.cfg.Storage().CustodyIdentityFile
	if n.repo == "" {
		n.repo = n.cfg.Storage().Repo
	} else {
		keyFile = filepath.Join(n.repo, "keys.yaml")
		idFile = filepath.Join(n.repo, "custody.key")
	}

	var err error

	n.storage, err = storage.NewDiskStorage(ctx, n.repo)
	if err != nil {
		return nil, errors.Wrap(err, "initing storage")
	}

	n.ledger, err = n.loadLedger(ctx)
	if err != nil {
		n.storage.Stop()
		return nil, err
	}

	n.custody, err = custody.NewFileStore(keyFile, idFile)
	if err != nil {
		n.storage.Stop()
		return nil, errors.Wrap(err, "opening key custody")
	}

	n.market = market.New(n.ledger, n.storage,
		market.WithCustody(n.custody),
		market.WithLogger(n.logger),
	)

	if n.cfg.Mining().Auto {
		n.miner = newMiner(n)
	}

	return n, nil
}

// loadLedger rehydrates the chain from mirrored blocks. An empty repo
// starts a fresh chain with its genesis block mirrored.
func (n *Node) loadLedger(ctx context.Context) (*ledger.Ledger, error) {
	blocks, err := n.storage.Blocks(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "loading mirrored blocks")
	}

	if gap := firstGap(blocks); gap < len(blocks) {
		n.logger.WithFields(logrus.Fields{
			"missing": gap,
			"dropped": len(blocks) - gap,
		}).Warn("mirrored chain has a gap, loading up to it")

		if err := n.storage.TruncateBlocks(ctx, uint64(gap)); err != nil {
			return nil, errors.Wrap(err, "dropping blocks past gap")
		}
		blocks = blocks[:gap]
	}

	if latest, ok, err := n.storage.LatestIndex(ctx); err != nil {
		return nil, err
	} else if ok && latest != uint64(len(blocks))-1 {
		n.logger.WithFields(logrus.Fields{
			"latest": latest,
			"blocks": len(blocks),
		}).Warn("latest block pointer does not match mirrored blocks")
	}

	chainCfg := n.cfg.Chain()

	l, err := ledger.New(
		ledger.WithLogger(n.logger),
		ledger.WithMirror(n.storage),
		ledger.WithMaxAttempts(chainCfg.MaxAttempts),
		ledger.WithBlocks(blocks, chainCfg.ValidateOnLoad),
	)
	if err != nil {
		return nil, errors.Wrap(err, "loading ledger")
	}

	if err := l.VerifyIndex(); err != nil {
		return nil, err
	}

	n.logger.WithFields(logrus.Fields{
		"blocks":    l.Len(),
		"validated": chainCfg.ValidateOnLoad,
	}).Info("ledger loaded")

	return l, nil
}

// firstGap returns the position of the first block whose index does not
// match its position, or len(blocks).
func firstGap(blocks []*ledger.Block) int {
	for i, b := range blocks {
		if b.Index != uint64(i) {
			return i
		}
	}
	return len(blocks)
}

// Mine mines one block at difficulty, or at the configured difficulty
// when difficulty is nil.
func (n *Node) Mine(ctx context.Context, difficulty *uint8) (*ledger.Block, error) {
	d := n.cfg.Chain().Difficulty
	if difficulty != nil {
		d = *difficulty
	}

	b, _, err := n.ledger.MineBlock(ctx, d)
	return b, err
}

// ListenAndServe runs background work until Stop is called.
func (n *Node) ListenAndServe() error {
	n.logger.WithField("repo", n.repo).WithField("blocks", n.ledger.Len()).Info("node started")

	if n.miner != nil {
		n.miner.start()
	}

	<-n.done

	return nil
}

func (n *Node) Stop() error {
	var err error

	n.stopOnce.Do(func() {
		n.logger.Warn("Shutting down")

		if n.miner != nil {
			n.miner.stop()
		}

		close(n.done)

		if serr := n.ledger.SyncMirror(context.Background()); serr != nil {
			n.logger.WithError(serr).Error("blocks not mirrored before shutdown")
		}

		err = n.storage.Stop()
	})

	return err
}
