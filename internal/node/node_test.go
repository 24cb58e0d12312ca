package node

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abrahamboza/Blockchain-Marketplace-for-Ai-Applications/internal/config"
	"github.com/abrahamboza/Blockchain-Marketplace-for-Ai-Applications/pkg/ledger"
)

func testConfig(t *testing.T, kv map[string]interface{}) *config.Config {
	base := map[string]interface{}{
		config.Cfg_chain_difficulty:  1,
		config.Cfg_mining_auto:       false,
		config.Cfg_mining_interval:   "20ms",
		config.Cfg_mining_backoffMin: "10ms",
		config.Cfg_mining_backoffMax: "50ms",
	}
	for k, v := range kv {
		base[k] = v
	}

	for k, v := range base {
		viper.Set(k, v)
	}
	t.Cleanup(func() {
		for k := range base {
			viper.Set(k, nil)
		}
	})

	c, err := config.GetConfig()
	require.NoError(t, err)
	return c
}

func newTestNode(t *testing.T, repo string, cfg *config.Config) *Node {
	n, err := NewNode(context.Background(), WithConfig(cfg), WithRepo(repo))
	require.NoError(t, err)
	return n
}

func TestNodeRestart(t *testing.T) {
	ctx := context.Background()
	repo := t.TempDir()
	cfg := testConfig(t, nil)

	n := newTestNode(t, repo, cfg)

	item, _, err := n.Market().Upload(ctx, "alice", []byte("hello"), nil, 10)
	require.NoError(t, err)

	_, err = n.Market().Purchase(ctx, "bob", item, 10)
	require.NoError(t, err)

	b, err := n.Mine(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, uint8(1), b.Difficulty)

	require.NoError(t, n.Stop())

	n = newTestNode(t, repo, cfg)
	defer n.Stop()

	assert.Equal(t, 2, n.Ledger().Len())
	assert.Equal(t, b.Hash, n.Ledger().LastBlock().Hash)

	d, err := n.Market().ReadWithCustody(ctx, "bob", item)
	assert.NoError(t, err)
	assert.Equal(t, []byte("hello"), d)
}

func TestNodeRefusesCorruptChain(t *testing.T) {
	ctx := context.Background()
	repo := t.TempDir()
	cfg := testConfig(t, nil)

	n := newTestNode(t, repo, cfg)
	_, err := n.Mine(ctx, nil)
	require.NoError(t, err)

	bad := n.Ledger().LastBlock()
	forged := *bad
	forged.Proof++
	require.NoError(t, n.Storage().PutBlock(ctx, &forged))
	require.NoError(t, n.Stop())

	_, err = NewNode(ctx, WithConfig(cfg), WithRepo(repo))
	assert.True(t, errors.Is(err, ledger.ErrChainIntegrity))

	noValidate := testConfig(t, map[string]interface{}{config.Cfg_chain_validateOnLoad: false})
	n, err = NewNode(ctx, WithConfig(noValidate), WithRepo(repo))
	require.NoError(t, err)
	defer n.Stop()

	assert.Error(t, n.Ledger().ValidateChain())
}

func TestAutoMiner(t *testing.T) {
	cfg := testConfig(t, map[string]interface{}{config.Cfg_mining_auto: true})
	n := newTestNode(t, t.TempDir(), cfg)

	go n.ListenAndServe()
	defer n.Stop()

	_, _, err := n.Market().Transfer("a", "b", 1)
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		return n.Ledger().Len() == 2 && len(n.Ledger().Pending()) == 0
	}, 5*time.Second, 10*time.Millisecond)
}

func TestStopWithoutServe(t *testing.T) {
	cfg := testConfig(t, map[string]interface{}{config.Cfg_mining_auto: true})
	n := newTestNode(t, t.TempDir(), cfg)

	assert.NoError(t, n.Stop())
	assert.NoError(t, n.Stop())
}

func TestNodeLoadsUpToMirrorGap(t *testing.T) {
	ctx := context.Background()
	repo := t.TempDir()
	cfg := testConfig(t, nil)

	n := newTestNode(t, repo, cfg)
	for i := 0; i < 3; i++ {
		_, err := n.Mine(ctx, nil)
		require.NoError(t, err)
	}

	blocks := n.Ledger().Chain()
	genesis := blocks[0].Hash

	// lose block 1 while keeping its successors
	require.NoError(t, n.Storage().TruncateBlocks(ctx, 1))
	require.NoError(t, n.Storage().PutBlock(ctx, blocks[2]))
	require.NoError(t, n.Storage().PutBlock(ctx, blocks[3]))
	require.NoError(t, n.Stop())

	n = newTestNode(t, repo, cfg)
	assert.Equal(t, 1, n.Ledger().Len())
	assert.Equal(t, genesis, n.Ledger().LastBlock().Hash)

	stored, err := n.Storage().Blocks(ctx)
	require.NoError(t, err)
	assert.Len(t, stored, 1)

	b, err := n.Mine(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), b.Index)
	require.NoError(t, n.Stop())

	n = newTestNode(t, repo, cfg)
	defer n.Stop()

	assert.Equal(t, 2, n.Ledger().Len())
	assert.NoError(t, n.Ledger().ValidateChain())
}
