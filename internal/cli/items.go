package cli

import (
	"context"
	"fmt"
	"io/ioutil"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	apipb "github.com/abrahamboza/Blockchain-Marketplace-for-Ai-Applications/api"
	"github.com/abrahamboza/Blockchain-Marketplace-for-Ai-Applications/internal/api"
)

const (
	kindData  = apipb.KindData
	kindModel = apipb.KindModel
)

var (
	dataCmd = &cobra.Command{
		Use:   "data",
		Short: "Data marketplace commands",
	}

	modelCmd = &cobra.Command{
		Use:   "model",
		Short: "Model marketplace commands",
	}

	accessCmd = &cobra.Command{
		Use:   "access ITEM",
		Short: "check whether a holder may read an item",
		Args:  cobra.ExactArgs(1),
		Run:   runAccess,
	}
)

func init() {
	accessCmd.Flags().String("holder", "", "address to check")
	accessCmd.MarkFlagRequired("holder")
}

// itemCommands builds upload, purchase, read and list for one item kind.
func itemCommands(kind string) []*cobra.Command {
	uploadCmd := &cobra.Command{
		Use:   "upload",
		Short: "encrypt and upload a " + kind + " payload",
		Run:   func(cmd *cobra.Command, args []string) { runUpload(cmd, kind) },
	}
	uploadCmd.Flags().String("owner", "", "owner address")
	uploadCmd.Flags().StringP("file", "f", "-", "payload file. Use '-' for stdin")
	uploadCmd.Flags().Float64("price", 0, "price")
	uploadCmd.Flags().StringArrayP("meta", "m", []string{}, "metadata in the format KEY=value. Can be used multiple times")
	uploadCmd.MarkFlagRequired("owner")

	purchaseCmd := &cobra.Command{
		Use:   "purchase ITEM",
		Short: "purchase a " + kind + " item",
		Args:  cobra.ExactArgs(1),
		Run:   runPurchase,
	}
	purchaseCmd.Flags().String("buyer", "", "buyer address")
	purchaseCmd.Flags().Float64("amount", 0, "amount paid. Defaults to the listed price")
	purchaseCmd.MarkFlagRequired("buyer")

	readCmd := &cobra.Command{
		Use:   "read ITEM",
		Short: "decrypt a " + kind + " item",
		Args:  cobra.ExactArgs(1),
		Run:   runRead,
	}
	readCmd.Flags().String("holder", "", "reader address")
	readCmd.Flags().StringP("key", "k", "", "payload key. Blank uses the key held in custody")
	readCmd.Flags().StringP("out", "o", "-", "output file. Use '-' for stdout")
	readCmd.MarkFlagRequired("holder")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list " + kind + " items",
		Run:   func(cmd *cobra.Command, args []string) { runList(kind) },
	}

	return []*cobra.Command{uploadCmd, purchaseCmd, readCmd, listCmd}
}

func runUpload(cmd *cobra.Command, kind string) {
	owner, _ := cmd.Flags().GetString("owner")
	file, _ := cmd.Flags().GetString("file")
	price, _ := cmd.Flags().GetFloat64("price")
	meta, _ := cmd.Flags().GetStringArray("meta")

	withClient(callTimeout, "uploading", func(ctx context.Context, c *api.Client) error {
		md, err := parsePairs(meta)
		if err != nil {
			return err
		}

		d, err := readInput(file)
		if err != nil {
			return err
		}

		res, err := c.Market().Upload(ctx, &apipb.UploadRequest{
			Kind:     kind,
			Owner:    owner,
			Payload:  d,
			Metadata: md,
			Price:    price,
		})
		if err != nil {
			return err
		}

		return printJSON(map[string]string{"item_id": res.ItemID, "key": res.Key})
	})
}

func runPurchase(cmd *cobra.Command, args []string) {
	buyer, _ := cmd.Flags().GetString("buyer")
	amount, _ := cmd.Flags().GetFloat64("amount")

	withClient(callTimeout, "purchasing", func(ctx context.Context, c *api.Client) error {
		if !cmd.Flags().Changed("amount") {
			ls, err := c.Market().List(ctx, &apipb.ListRequest{})
			if err != nil {
				return err
			}
			for _, it := range ls.Items {
				if it.ID == args[0] {
					amount = it.Price
				}
			}
		}

		res, err := c.Market().Purchase(ctx, &apipb.PurchaseRequest{Buyer: buyer, ItemID: args[0], Amount: amount})
		if err != nil {
			return err
		}

		return printJSON(res.Receipt)
	})
}

func runRead(cmd *cobra.Command, args []string) {
	holder, _ := cmd.Flags().GetString("holder")
	key, _ := cmd.Flags().GetString("key")
	out, _ := cmd.Flags().GetString("out")

	withClient(callTimeout, "reading", func(ctx context.Context, c *api.Client) error {
		res, err := c.Market().Read(ctx, &apipb.ReadRequest{Holder: holder, ItemID: args[0], Key: key})
		if err != nil {
			return err
		}

		if out == "-" {
			_, err := os.Stdout.Write(res.Payload)
			return err
		}

		return errors.Wrap(ioutil.WriteFile(out, res.Payload, 0600), "writing output")
	})
}

func runList(kind string) {
	withClient(callTimeout, "listing", func(ctx context.Context, c *api.Client) error {
		res, err := c.Market().List(ctx, &apipb.ListRequest{Kind: kind})
		if err != nil {
			return err
		}

		return printJSON(res.Items)
	})
}

func runAccess(cmd *cobra.Command, args []string) {
	holder, _ := cmd.Flags().GetString("holder")

	withClient(callTimeout, "checking access", func(ctx context.Context, c *api.Client) error {
		res, err := c.Market().Access(ctx, &apipb.AccessRequest{Holder: holder, ItemID: args[0]})
		if err != nil {
			return err
		}

		fmt.Println(res.Allowed)
		return nil
	})
}
