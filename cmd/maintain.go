package main

import (
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// queryLogRetention is how long search log rows are kept.
const queryLogRetention = 30 * 24 * time.Hour

var maintainCmd = &cobra.Command{
	Use:   "maintain",
	Short: "Purge old query logs and refresh company scores",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		deleted, err := st.PurgeQueryLog(ctx, queryLogRetention)
		if err != nil {
			return err
		}

		if err := st.RecomputeCompanyScores(ctx); err != nil {
			return err
		}

		zap.L().Info("maintenance complete", zap.Int64("purged_log_rows", deleted))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(maintainCmd)
}
