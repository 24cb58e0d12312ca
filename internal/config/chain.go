package config

import (
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/viper"

	"github.com/abrahamboza/Blockchain-Marketplace-for-Ai-Applications/pkg/ledger"
)

type Chain struct {
	Difficulty     uint8
	MaxAttempts    uint64
	ValidateOnLoad bool
}

type Mining struct {
	Auto       bool
	Interval   time.Duration
	BackoffMin time.Duration
	BackoffMax time.Duration
}

const (
	Cfg_chain_difficulty     = "chain.difficulty"
	Cfg_chain_maxAttempts    = "chain.maxAttempts"
	Cfg_chain_validateOnLoad = "chain.validateOnLoad"

	Cfg_mining_auto       = "mining.auto"
	Cfg_mining_interval   = "mining.interval"
	Cfg_mining_backoffMin = "mining.backoffMin"
	Cfg_mining_backoffMax = "mining.backoffMax"
)

var (
	chainDefaults = map[string]interface{}{
		Cfg_chain_difficulty:     int(ledger.DefaultDifficulty),
		Cfg_chain_maxAttempts:    0,
		Cfg_chain_validateOnLoad: true,

		Cfg_mining_auto:       false,
		Cfg_mining_interval:   30 * time.Second,
		Cfg_mining_backoffMin: time.Second,
		Cfg_mining_backoffMax: time.Minute,
	}
)

func init() {
	for k, v := range chainDefaults {
		viper.SetDefault(k, v)
	}
}

func buildChainConfig() (*Chain, error) {
	d := viper.GetInt(Cfg_chain_difficulty)
	if d < 0 || d > ledger.MaxDifficulty {
		return nil, errors.Errorf("difficulty %d out of range 0-%d", d, ledger.MaxDifficulty)
	}

	return &Chain{
		Difficulty:     uint8(d),
		MaxAttempts:    viper.GetUint64(Cfg_chain_maxAttempts),
		ValidateOnLoad: viper.GetBool(Cfg_chain_validateOnLoad),
	}, nil
}

func buildMiningConfig() (*Mining, error) {
	c := &Mining{
		Auto:       viper.GetBool(Cfg_mining_auto),
		Interval:   viper.GetDuration(Cfg_mining_interval),
		BackoffMin: viper.GetDuration(Cfg_mining_backoffMin),
		BackoffMax: viper.GetDuration(Cfg_mining_backoffMax),
	}

	if c.Interval <= 0 {
		return nil, errors.New("mining interval must be positive")
	}

	if c.BackoffMin > c.BackoffMax {
		return nil, errors.New("mining backoffMin exceeds backoffMax")
	}

	return c, nil
}
