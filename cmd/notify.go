package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/inmind-gr/office-radar/internal/notify"
)

var notifyCmd = &cobra.Command{
	Use:   "notify",
	Short: "Email the digest of projects not yet sent",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		mailer := notify.NewMailer(cfg.Notify)
		if !mailer.Configured() {
			return eris.New("email credentials not configured")
		}

		unsent, err := st.UnsentProjects(ctx)
		if err != nil {
			return eris.Wrap(err, "load unsent projects")
		}
		if len(unsent) == 0 {
			zap.L().Info("no pending projects to notify about")
			return nil
		}

		if err := mailer.SendDigest(ctx, unsent); err != nil {
			return err
		}

		ids := make([]int64, len(unsent))
		for i, p := range unsent {
			ids[i] = p.ID
		}
		return st.MarkProjectsSent(ctx, ids)
	},
}

func init() {
	rootCmd.AddCommand(notifyCmd)
}
