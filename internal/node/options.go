package node

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/abrahamboza/Blockchain-Marketplace-for-Ai-Applications/internal/config"
	"github.com/abrahamboza/Blockchain-Marketplace-for-Ai-Applications/internal/utils/logging"
)

type NodeOption func(*Node) error

func WithConfig(c *config.Config) NodeOption {
	return func(n *Node) error {
		n.cfg = c
		return nil
	}
}

// WithRepo keeps all node state, custody files included, under repo.
func WithRepo(repo string) NodeOption {
	return func(n *Node) error {
		n.repo = repo
		return nil
	}
}

func WithLogger(l *logrus.Logger) NodeOption {
	return func(n *Node) error {
		n.logger = l
		return nil
	}
}

func WithDefaultOptions(ctx context.Context) NodeOption {
	return func(n *Node) error {
		n.logger = logging.Logger()
		return nil
	}
}
