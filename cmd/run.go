package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonesrussell/north-cloud/link-health/internal/bootstrap"
)

func newRunCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run one aggregation over every active feed",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := buildApp(cmd.Context(), bootstrap.Options{Database: true}, "stderr")
			if err != nil {
				return err
			}
			defer closeApp(app)
			app.StartQueue(cmd.Context())

			summary, err := app.Scheduler.RunOnce(cmd.Context())
			if err != nil {
				return fmt.Errorf("aggregation run: %w", err)
			}

			renderRunSummary(cmd.OutOrStdout(), summary)
			if failed := summary.Failed(); failed > 0 {
				return fmt.Errorf("%d of %d feeds failed", failed, summary.Processed)
			}
			return nil
		},
	}
}
