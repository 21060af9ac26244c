package cmd

import (
	"github.com/spf13/cobra"

	"github.com/jonesrussell/north-cloud/link-health/internal/bootstrap"
)

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the aggregation scheduler",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := buildApp(cmd.Context(), bootstrap.Options{Database: true})
			if err != nil {
				return err
			}
			defer closeApp(app)

			return bootstrap.Serve(cmd.Context(), app, version)
		},
	}
}
