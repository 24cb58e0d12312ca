package config

import (
	"path/filepath"

	"github.com/spf13/viper"
)

type Storage struct {
	Repo string

	CustodyFile         string
	CustodyIdentityFile string
}

const (
	Cfg_storage_repo = "storage.repo"

	Cfg_custody_file         = "custody.file"
	Cfg_custody_identityFile = "custody.identityFile"
)

func init() {
	h := homeDir()

	viper.SetDefault(Cfg_storage_repo, filepath.Join(h, "repo"))
	viper.SetDefault(Cfg_custody_file, filepath.Join(h, "keys.yaml"))
	viper.SetDefault(Cfg_custody_identityFile, filepath.Join(h, "custody.key"))
}

func buildStorageConfig() (*Storage, error) {
	return &Storage{
		Repo:                viper.GetString(Cfg_storage_repo),
		CustodyFile:         viper.GetString(Cfg_custody_file),
		CustodyIdentityFile: viper.GetString(Cfg_custody_identityFile),
	}, nil
}
