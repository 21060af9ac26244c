package cmd

import (
	"github.com/spf13/cobra"

	"github.com/jonesrussell/north-cloud/link-health/internal/bootstrap"
)

func newValidateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <url>...",
		Short: "Validate one or more links",
		Long: `Probes each link through the rate-limited queue, falls back to the
archive for dead links and prints the results.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := buildApp(cmd.Context(), bootstrap.Options{}, "stderr")
			if err != nil {
				return err
			}
			defer closeApp(app)
			app.StartQueue(cmd.Context())

			results, err := app.Validator.ValidateBatch(cmd.Context(), args)
			renderValidation(cmd.OutOrStdout(), args, results)
			return err
		},
	}
}
