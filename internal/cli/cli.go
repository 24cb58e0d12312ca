package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/abrahamboza/Blockchain-Marketplace-for-Ai-Applications/internal/config"
	"github.com/abrahamboza/Blockchain-Marketplace-for-Ai-Applications/internal/utils/logging"
)

var (
	rootCmd = &cobra.Command{
		Use:   "aimarket",
		Short: "data and model marketplace on a local proof of work ledger",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if viper.GetBool(config.Cfg_verbose) {
				logging.SetLevel(logrus.DebugLevel)
			}
		},
	}
)

func Execute() error {
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "increase verbosity")
	viper.BindPFlag(config.Cfg_verbose, rootCmd.PersistentFlags().Lookup("verbose"))

	rootCmd.PersistentFlags().String("daemon", "", "daemon api address, defaults to daemon_addr")
	viper.BindPFlag(config.Cfg_daemonAddr, rootCmd.PersistentFlags().Lookup("daemon"))

	regCommands()

	return rootCmd.Execute()
}

func waitExit(ctx context.Context) <-chan os.Signal {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	return sigs
}
