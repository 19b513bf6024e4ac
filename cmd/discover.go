package main

import (
	"context"
	"encoding/json"
	"io"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/aeolive/competitor-cli/internal/model"
)

var (
	discoverRecord bool
	discoverPretty bool
)

var discoverCmd = &cobra.Command{
	Use:   "discover <domain>",
	Short: "Suggest competitors for a single domain",
	Long: `Fetches the domain's homepage, classifies it, and prints the tagged
discovery result as JSON. A failed fetch still produces suggestions from
the domain name alone; the result's status says so.

Examples:
  competitor-cli discover acmehvac.com --pretty
  competitor-cli discover https://joesplumbing.com --record`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initDiscovery(ctx, "discover", discoverRecord)
		if err != nil {
			return err
		}
		defer env.Close()

		return discoverOne(ctx, env, args[0], discoverRecord, os.Stdout)
	},
}

// discoverOne runs a single discovery and prints it. A journal failure is
// logged and never suppresses the result.
func discoverOne(ctx context.Context, env *discoveryEnv, domain string, record bool, w io.Writer) error {
	res := env.Service.Discover(ctx, domain)

	if record && env.Store != nil {
		run, err := env.Store.RecordRun(ctx, res)
		if err != nil {
			zap.L().Warn("discover: record run failed",
				zap.String("domain", res.Domain),
				zap.Error(err),
			)
		} else {
			zap.L().Info("recorded run", zap.String("run_id", run.ID))
		}
	}

	return writeResultJSON(w, res, discoverPretty)
}

func writeResultJSON(w io.Writer, res *model.DiscoveryResult, pretty bool) error {
	enc := json.NewEncoder(w)
	if pretty {
		enc.SetIndent("", "  ")
	}
	return eris.Wrap(enc.Encode(res), "write result")
}

func init() {
	discoverCmd.Flags().BoolVar(&discoverRecord, "record", false, "journal the result in the configured store")
	discoverCmd.Flags().BoolVar(&discoverPretty, "pretty", false, "indent JSON output")
	rootCmd.AddCommand(discoverCmd)
}
