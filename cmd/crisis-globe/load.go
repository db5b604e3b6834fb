package main

import (
	"context"
	"encoding/json"
	"os"

	"github.com/jonboulle/clockwork"
	"github.com/spf13/cobra"

	"github.com/mr1hm/crisis-globe/internal/ingestion"
)

var loadCmd = &cobra.Command{
	Use:   "load",
	Short: "Run the fallback chain once and print the result as JSON",
	RunE: func(cmd *cobra.Command, args []string) error {
		chain := ingestion.NewChainFromConfig(cfg.Sources, clockwork.NewRealClock(), nil)
		res := chain.Load(context.Background())

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	},
}

func init() {
	rootCmd.AddCommand(loadCmd)
}
