package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io/ioutil"
	"os"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/abrahamboza/Blockchain-Marketplace-for-Ai-Applications/internal/api"
	"github.com/abrahamboza/Blockchain-Marketplace-for-Ai-Applications/internal/utils/logging"
)

const (
	callTimeout = 10 * time.Second

	// mining may run long at high difficulty
	mineTimeout = 10 * time.Minute
)

// withClient dials the daemon and runs fn with a timeout. Errors are
// logged and the process exits non-zero.
func withClient(timeout time.Duration, what string, fn func(ctx context.Context, c *api.Client) error) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	c, err := api.NewClient()
	if err != nil {
		logging.WithError(err).Error("constructing client")
		os.Exit(1)
	}
	defer c.Close()

	if err := fn(ctx, c); err != nil {
		logging.WithError(err).Error(what)
		os.Exit(1)
	}
}

func printJSON(v interface{}) error {
	s, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}

	fmt.Printf("%s\n", s)
	return nil
}

func readInput(f string) ([]byte, error) {
	if f == "-" {
		d, err := ioutil.ReadAll(os.Stdin)
		return d, errors.Wrap(err, "reading stdin")
	}

	d, err := ioutil.ReadFile(f)
	return d, errors.Wrap(err, "reading file")
}

func parsePairs(pairs []string) (map[string]string, error) {
	m := make(map[string]string, len(pairs))

	for _, p := range pairs {
		kv := strings.SplitN(p, "=", 2)
		if len(kv) != 2 {
			return nil, errors.Errorf("metadata %q should be in the format KEY=value", p)
		}
		m[kv[0]] = kv[1]
	}

	return m, nil
}
