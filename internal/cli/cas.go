package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	apipb "github.com/abrahamboza/Blockchain-Marketplace-for-Ai-Applications/api"
	"github.com/abrahamboza/Blockchain-Marketplace-for-Ai-Applications/internal/api"
)

var (
	casCmd = &cobra.Command{
		Use:   "cas",
		Short: "Content store commands",
	}

	cas_pinCmd = &cobra.Command{
		Use:   "pin CID",
		Short: "protect an object from cleanup",
		Args:  cobra.ExactArgs(1),
		Run:   runCasPin,
	}

	cas_unpinCmd = &cobra.Command{
		Use:   "unpin CID",
		Short: "remove cleanup protection",
		Args:  cobra.ExactArgs(1),
		Run:   runCasUnpin,
	}

	cas_pinsCmd = &cobra.Command{
		Use:   "pins",
		Short: "list pinned objects",
		Run:   runCasPins,
	}

	cas_cleanupCmd = &cobra.Command{
		Use:   "cleanup",
		Short: "delete every unpinned object",
		Run:   runCasCleanup,
	}
)

func runCasPin(cmd *cobra.Command, args []string) {
	withClient(callTimeout, "pinning", func(ctx context.Context, c *api.Client) error {
		res, err := c.Storage().Pin(ctx, &apipb.PinRequest{CID: args[0]})
		if err != nil {
			return err
		}

		fmt.Println(res.Ok)
		return nil
	})
}

func runCasUnpin(cmd *cobra.Command, args []string) {
	withClient(callTimeout, "unpinning", func(ctx context.Context, c *api.Client) error {
		res, err := c.Storage().Unpin(ctx, &apipb.PinRequest{CID: args[0]})
		if err != nil {
			return err
		}

		fmt.Println(res.Ok)
		return nil
	})
}

func runCasPins(cmd *cobra.Command, args []string) {
	withClient(callTimeout, "listing pins", func(ctx context.Context, c *api.Client) error {
		res, err := c.Storage().Pins(ctx, &apipb.PinsRequest{})
		if err != nil {
			return err
		}

		return printJSON(res.CIDs)
	})
}

func runCasCleanup(cmd *cobra.Command, args []string) {
	withClient(callTimeout, "cleaning up", func(ctx context.Context, c *api.Client) error {
		res, err := c.Storage().Cleanup(ctx, &apipb.CleanupRequest{})
		if err != nil {
			return err
		}

		fmt.Printf("removed %d objects\n", res.Removed)
		return nil
	})
}
