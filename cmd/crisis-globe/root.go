package main

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/mr1hm/crisis-globe/internal/config"
	"github.com/mr1hm/crisis-globe/internal/logging"
)

var (
	envFile string
	cfg     *config.Config
)

var rootCmd = &cobra.Command{
	Use:           "crisis-globe",
	Short:         "Serve crisis records for an interactive 3D globe",
	SilenceUsage:  true,
	SilenceErrors: false,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		_ = godotenv.Load(envFile)

		var err error
		cfg, err = config.Load()
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		logging.Setup(cfg.Logging.Level, cfg.Logging.Format)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "Path to a .env file loaded before reading the environment")
}
