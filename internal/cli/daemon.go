package cli

import (
	"context"
	"net"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/abrahamboza/Blockchain-Marketplace-for-Ai-Applications/internal/api"
	"github.com/abrahamboza/Blockchain-Marketplace-for-Ai-Applications/internal/config"
	"github.com/abrahamboza/Blockchain-Marketplace-for-Ai-Applications/internal/node"
	"github.com/abrahamboza/Blockchain-Marketplace-for-Ai-Applications/internal/utils/logging"
)

const shutdownGrace = 5 * time.Second

var (
	daemonCmd = &cobra.Command{
		Use:   "daemon",
		RunE:  runDaemon,
		Short: "run the marketplace node and its api",
	}
)

func init() {
	daemonCmd.Flags().IntP("api-port", "p", 8712, "api port")
	viper.BindPFlag(config.Cfg_apiPort, daemonCmd.Flags().Lookup("api-port"))

	daemonCmd.Flags().Bool("mine", false, "mine pending transactions periodically")
	viper.BindPFlag(config.Cfg_mining_auto, daemonCmd.Flags().Lookup("mine"))

	daemonCmd.Flags().String("repo", "", "repo directory, defaults to storage.repo")
	viper.BindPFlag(config.Cfg_storage_repo, daemonCmd.Flags().Lookup("repo"))
}

func runDaemon(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	n, err := node.NewNode(ctx, node.WithDefaultOptions(ctx))
	if err != nil {
		return errors.Wrap(err, "initing node")
	}

	info := n.Ledger().Info()
	logging.Entry().WithFields(logrus.Fields{
		"blocks":  info.TotalBlocks,
		"latest":  info.LatestHash,
		"pending": info.Pending,
		"repo":    n.Config().Storage().Repo,
	}).Info("chain loaded")

	a, err := api.NewAPI(n)
	if err != nil {
		n.Stop()
		return err
	}

	errCh := make(chan error, 2)

	go func() {
		if err := n.ListenAndServe(); err != nil {
			errCh <- errors.Wrap(err, "node")
		}
	}()

	go func() {
		addr := &net.TCPAddr{IP: net.IPv4(127, 0, 0, 1), Port: n.Config().APIPort}
		if err := a.ListenAndServe(addr); err != nil {
			errCh <- errors.Wrap(err, "api")
		}
	}()

	select {
	case err = <-errCh:
	case sig := <-waitExit(ctx):
		logging.Entry().WithField("signal", sig.String()).Info("shutting down")
	}

	sctx, scancel := context.WithTimeout(ctx, shutdownGrace)
	defer scancel()

	if serr := a.Shutdown(sctx); serr != nil {
		logging.WithError(serr).Warn("api did not drain in time")
	}

	if serr := n.Stop(); serr != nil && err == nil {
		err = serr
	}

	return err
}
