package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/aeolive/competitor-cli/internal/classify"
)

var (
	classifyTitle       string
	classifyDescription string
	classifyText        string
	classifyDomain      string
)

var classifyCmd = &cobra.Command{
	Use:   "classify",
	Short: "Classify text into an industry without fetching anything",
	Long: `Scores the given title, description, body text, and domain against the
industry table and prints the winning industry with its score and matched
keywords.

Example:
  competitor-cli classify --title "Green Thumb" --text "lawn care and mowing"`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if classifyTitle == "" && classifyDescription == "" && classifyText == "" && classifyDomain == "" {
			return eris.New("classify: at least one of --title, --description, --text, --domain is required")
		}

		cat, err := loadCatalog(cfg.Catalog)
		if err != nil {
			return err
		}

		result := classify.New(cat).Score(classifyTitle, classifyDescription, classifyText, classifyDomain)

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return eris.Wrap(enc.Encode(result), "classify: write result")
	},
}

func init() {
	classifyCmd.Flags().StringVar(&classifyTitle, "title", "", "page title")
	classifyCmd.Flags().StringVar(&classifyDescription, "description", "", "meta description")
	classifyCmd.Flags().StringVar(&classifyText, "text", "", "body text")
	classifyCmd.Flags().StringVar(&classifyDomain, "domain", "", "domain name")
	rootCmd.AddCommand(classifyCmd)
}
