package config

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

const (
	Cfg_verbose    = "verbose"
	Cfg_apiPort    = "api_port"
	Cfg_daemonAddr = "daemon_addr"
)

var (
	defaults = map[string]interface{}{
		Cfg_verbose:    false,
		Cfg_apiPort:    8712,
		Cfg_daemonAddr: "127.0.0.1:8712",
	}
)

func init() {
	for k, v := range defaults {
		viper.SetDefault(k, v)
	}
}

// homeDir is the per-user state directory, $HOME/.aimarket.
func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return filepath.Join(home, ".aimarket")
}

func GetConfig() (*Config, error) {
	viper.SetConfigType("yaml")
	viper.SetConfigName("aimarket")
	viper.AddConfigPath("/etc/aimarket/")
	viper.AddConfigPath("$HOME/.aimarket")
	viper.AddConfigPath(".")
	viper.SetEnvPrefix("AIMARKET")
	viper.AutomaticEnv()
	err := viper.ReadInConfig()
	if err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// Config file not found; ignore error
			logrus.New().Warnf("no config found")
		} else {
			return nil, errors.Wrap(err, "reading config file")
		}
	}

	return build()
}

func build() (*Config, error) {
	var err error

	c := &Config{
		Verbose:    viper.GetBool(Cfg_verbose),
		APIPort:    viper.GetInt(Cfg_apiPort),
		DaemonAddr: viper.GetString(Cfg_daemonAddr),
	}

	c.chain, err = buildChainConfig()
	if err != nil {
		return nil, errors.Wrap(err, "chain config")
	}

	c.mining, err = buildMiningConfig()
	if err != nil {
		return nil, errors.Wrap(err, "mining config")
	}

	c.storage, err = buildStorageConfig()
	if err != nil {
		return nil, errors.Wrap(err, "storage config")
	}

	if c.Verbose {
		logrus.SetLevel(logrus.DebugLevel)
		logrus.WithField("level", "debug").Debug("setting log level")
	}

	return c, nil
}

type Config struct {
	Verbose    bool
	APIPort    int
	DaemonAddr string

	chain   *Chain
	mining  *Mining
	storage *Storage
}

func (c *Config) Chain() *Chain {
	return c.chain
}

func (c *Config) Mining() *Mining {
	return c.mining
}

func (c *Config) Storage() *Storage {
	return c.storage
}
