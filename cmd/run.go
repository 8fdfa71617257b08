package main

import (
	"encoding/json"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/inmind-gr/office-radar/internal/notify"
	"github.com/inmind-gr/office-radar/internal/pipeline"
	"github.com/inmind-gr/office-radar/internal/search"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Execute one full tracking pass",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		if err := cfg.Validate(); err != nil {
			return err
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		searchClient := search.NewClient(cfg.Search.APIKey, cfg.Search.CSEID,
			search.WithDateRestrict(cfg.Search.DateRestrict),
			search.WithTimeout(time.Duration(cfg.Search.TimeoutSecs)*time.Second),
		)
		mailer := notify.NewMailer(cfg.Notify)

		summary := pipeline.New(cfg, st, searchClient, mailer).Run(ctx)

		zap.L().Info("run finished",
			zap.String("run_id", summary.RunID),
			zap.Int("new_projects", summary.NewProjects),
		)

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(summary)
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
}
