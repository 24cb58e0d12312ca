package main

import (
	"os"

	"github.com/abrahamboza/Blockchain-Marketplace-for-Ai-Applications/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
