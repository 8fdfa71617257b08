package main

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"

	"github.com/inmind-gr/office-radar/internal/notify"
	"github.com/inmind-gr/office-radar/internal/report"
)

var reportEmail bool

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Generate the analytics report",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		r, err := report.NewGenerator(st).Generate(ctx)
		if err != nil {
			return err
		}

		if reportEmail || cfg.Notify.SendAnalytics {
			if err := notify.NewMailer(cfg.Notify).SendAnalytics(ctx, r); err != nil {
				return err
			}
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(r)
	},
}

func init() {
	reportCmd.Flags().BoolVar(&reportEmail, "email", false, "also email the report to the configured recipient")
	rootCmd.AddCommand(reportCmd)
}
