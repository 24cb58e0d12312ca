package cli

import (
	"context"
	"strconv"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	apipb "github.com/abrahamboza/Blockchain-Marketplace-for-Ai-Applications/api"
	"github.com/abrahamboza/Blockchain-Marketplace-for-Ai-Applications/internal/api"
	"github.com/abrahamboza/Blockchain-Marketplace-for-Ai-Applications/pkg/ledger"
)

var (
	chainCmd = &cobra.Command{
		Use:   "chain",
		Short: "Ledger commands",
	}

	chain_mineCmd = &cobra.Command{
		Use:   "mine",
		Short: "mine the pending pool into a new block",
		Run:   runChainMine,
	}

	chain_validateCmd = &cobra.Command{
		Use:   "validate",
		Short: "validate the chain and the item index",
		Run:   runChainValidate,
	}

	chain_infoCmd = &cobra.Command{
		Use:   "info",
		Short: "chain statistics",
		Run:   runChainInfo,
	}

	chain_blockCmd = &cobra.Command{
		Use:   "block INDEX",
		Short: "show a block",
		Args:  cobra.ExactArgs(1),
		Run:   runChainBlock,
	}

	chain_pendingCmd = &cobra.Command{
		Use:   "pending",
		Short: "list pending transactions",
		Run:   runChainPending,
	}

	chain_transferCmd = &cobra.Command{
		Use:   "transfer",
		Short: "submit a transfer",
		Run:   runChainTransfer,
	}
)

func init() {
	chain_mineCmd.Flags().IntP("difficulty", "d", -1, "leading zero hex digits. -1 uses chain.difficulty")

	chain_transferCmd.Flags().String("from", "", "sender address")
	chain_transferCmd.Flags().String("to", "", "recipient address")
	chain_transferCmd.Flags().Float64("amount", 0, "amount")
}

func runChainMine(cmd *cobra.Command, args []string) {
	d, _ := cmd.Flags().GetInt("difficulty")

	withClient(mineTimeout, "mining", func(ctx context.Context, c *api.Client) error {
		req := &apipb.MineRequest{}
		if d >= 0 {
			if d > ledger.MaxDifficulty {
				return errors.Errorf("difficulty must be at most %d", ledger.MaxDifficulty)
			}
			u := uint8(d)
			req.Difficulty = &u
		}

		res, err := c.Chain().Mine(ctx, req)
		if err != nil {
			return err
		}

		return printJSON(res.Block)
	})
}

func runChainValidate(cmd *cobra.Command, args []string) {
	withClient(callTimeout, "validating", func(ctx context.Context, c *api.Client) error {
		res, err := c.Chain().Validate(ctx, &apipb.ValidateRequest{})
		if err != nil {
			return err
		}

		if err := printJSON(res); err != nil {
			return err
		}

		if !res.Valid {
			return errors.Wrap(ledger.ErrChainIntegrity, res.Error)
		}
		if !res.IndexValid {
			return errors.New(res.IndexError)
		}

		return nil
	})
}

func runChainInfo(cmd *cobra.Command, args []string) {
	withClient(callTimeout, "fetching info", func(ctx context.Context, c *api.Client) error {
		res, err := c.Chain().Info(ctx, &apipb.InfoRequest{})
		if err != nil {
			return err
		}

		return printJSON(res.Info)
	})
}

func runChainBlock(cmd *cobra.Command, args []string) {
	withClient(callTimeout, "fetching block", func(ctx context.Context, c *api.Client) error {
		i, err := strconv.ParseUint(args[0], 10, 64)
		if err != nil {
			return errors.Wrap(err, "parsing index")
		}

		res, err := c.Chain().Block(ctx, &apipb.BlockRequest{Index: i})
		if err != nil {
			return err
		}

		return printJSON(res.Block)
	})
}

func runChainPending(cmd *cobra.Command, args []string) {
	withClient(callTimeout, "fetching pending", func(ctx context.Context, c *api.Client) error {
		res, err := c.Chain().Pending(ctx, &apipb.PendingRequest{})
		if err != nil {
			return err
		}

		list := make([]map[string]interface{}, 0, len(res.Txs))
		for _, t := range res.Txs {
			list = append(list, t.Canonical())
		}

		return printJSON(list)
	})
}

func runChainTransfer(cmd *cobra.Command, args []string) {
	from, _ := cmd.Flags().GetString("from")
	to, _ := cmd.Flags().GetString("to")
	amount, _ := cmd.Flags().GetFloat64("amount")

	withClient(callTimeout, "submitting transfer", func(ctx context.Context, c *api.Client) error {
		res, err := c.Market().Transfer(ctx, &apipb.TransferRequest{Sender: from, Recipient: to, Amount: amount})
		if err != nil {
			return err
		}

		return printJSON(map[string]interface{}{"transaction_id": res.TxID, "block_index": res.BlockIndex})
	})
}
