package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/aeolive/competitor-cli/internal/catalog"
)

var industriesCmd = &cobra.Command{
	Use:   "industries",
	Short: "List the industry table",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cat, err := loadCatalog(cfg.Catalog)
		if err != nil {
			return err
		}
		formatIndustries(os.Stdout, cat)
		return nil
	},
}

// formatIndustries writes one row per industry in table order.
func formatIndustries(out io.Writer, cat *catalog.Catalog) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "INDUSTRY\tWEIGHT\tKEYWORDS\tCOMPETITORS")
	_, _ = fmt.Fprintln(w, "--------\t------\t--------\t-----------")

	for _, ind := range cat.Industries() {
		n := cat.CompetitorCount(ind.Name)
		if ind.Name == catalog.HVACIndustry {
			n = len(cat.HVACNational())
		}
		_, _ = fmt.Fprintf(w, "%s\t%g\t%d\t%d\n", ind.Name, ind.Weight, len(ind.Keywords), n)
	}

	_ = w.Flush()
	_, _ = fmt.Fprintf(out, "\n%d industries; default %q\n", len(cat.Industries()), cat.DefaultIndustry())
}

func init() {
	rootCmd.AddCommand(industriesCmd)
}
