package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/inmind-gr/office-radar/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "office-radar",
	Short: "Tracks office relocation and development news in Greece",
	Long:  "Searches bilingual news sources for companies opening, relocating or expanding offices in Greece, extracts the companies and locations involved, stores what is new and emails a digest.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
