package cmd

import (
	"fmt"
	"net/url"

	"github.com/spf13/cobra"

	"github.com/jonesrussell/north-cloud/link-health/internal/bootstrap"
	"github.com/jonesrussell/north-cloud/link-health/internal/domain"
)

func newCheckFeedCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "check-feed <feed-id|feed-url>",
		Short: "Check the health of a single feed",
		Long: `Given a registered feed ID, checks the feed and stores its health and
content. Given a feed URL, checks it without touching the database.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ref := args[0]
			adHoc := isFeedURL(ref)

			app, err := buildApp(cmd.Context(), bootstrap.Options{Database: !adHoc}, "stderr")
			if err != nil {
				return err
			}
			defer closeApp(app)
			app.StartQueue(cmd.Context())

			if adHoc {
				health := app.Monitor.CheckFeed(cmd.Context(), domain.Feed{ID: ref, URL: ref, Active: true})
				renderFeedHealth(cmd.OutOrStdout(), health)
				return nil
			}

			feed, err := app.Feeds.GetByID(cmd.Context(), ref)
			if err != nil {
				return fmt.Errorf("load feed %s: %w", ref, err)
			}

			health, err := app.Monitor.CheckAndStore(cmd.Context(), feed)
			renderFeedHealth(cmd.OutOrStdout(), health)
			return err
		},
	}
}

// isFeedURL reports whether ref is an absolute http(s) URL rather than a feed ID.
func isFeedURL(ref string) bool {
	u, err := url.Parse(ref)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
