package cmd

import (
	"fmt"
	"io"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/jonesrussell/north-cloud/link-health/internal/domain"
)

const maxCellWidth = 60

func newTable(out io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(out)
	t.SetStyle(table.StyleLight)
	return t
}

// renderValidation prints one row per distinct input, in input order.
func renderValidation(out io.Writer, urls []string, results map[string]domain.ValidationResult) {
	t := newTable(out)
	t.AppendHeader(table.Row{"URL", "Valid", "Status", "Authority", "Time (ms)", "Link", "Error"})

	seen := make(map[string]struct{}, len(urls))
	for _, u := range urls {
		if _, dup := seen[u]; dup {
			continue
		}
		seen[u] = struct{}{}

		r, ok := results[u]
		if !ok {
			continue
		}
		link := ""
		if r.Archived() {
			link = r.ArchiveURL
		} else if r.RedirectTarget != "" {
			link = r.RedirectTarget
		}
		t.AppendRow(table.Row{
			truncate(u),
			yesNo(r.IsValid),
			statusText(r.StatusCode),
			r.DomainAuthority,
			r.ResponseTimeMs,
			truncate(link),
			r.Error,
		})
	}

	t.Render()
}

func renderRunSummary(out io.Writer, s domain.RunSummary) {
	fmt.Fprintf(out, "Run %s: %d feeds processed, %d failed\n", s.RunID, s.Processed, s.Failed())
	if len(s.Results) == 0 {
		return
	}

	t := newTable(out)
	t.AppendHeader(table.Row{"Feed", "Run", "Health", "Items", "Time (ms)", "Error"})
	for _, r := range s.Results {
		t.AppendRow(table.Row{r.FeedID, r.Status, r.Health, r.ItemsProcessed, r.ResponseTimeMs, r.Error})
	}
	t.Render()
}

func renderFeedHealth(out io.Writer, h domain.FeedHealth) {
	t := newTable(out)
	t.AppendHeader(table.Row{"Feed", "Status", "Valid", "Total", "Uptime", "Avg (ms)"})
	t.AppendRow(table.Row{
		truncate(h.FeedID),
		h.Status,
		h.ValidItems,
		h.TotalItems,
		fmt.Sprintf("%.1f%%", h.UptimePercentage),
		h.AverageResponseTimeMs,
	})
	t.Render()

	for _, e := range h.Errors {
		fmt.Fprintf(out, "  - %s\n", e)
	}
}

func truncate(s string) string {
	if len(s) <= maxCellWidth {
		return s
	}
	return s[:maxCellWidth-3] + "..."
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func statusText(code int) string {
	if code == 0 {
		return "-"
	}
	return strconv.Itoa(code)
}
