package domain

// RunStatus is the per-feed outcome of an aggregation run.
type RunStatus string

const (
	RunSuccess RunStatus = "success"
	RunError   RunStatus = "error"
)

// FeedRunResult reports one feed within a run.
type FeedRunResult struct {
	FeedID         string       `json:"feedId"`
	Status         RunStatus    `json:"status"`
	ItemsProcessed int          `json:"itemsProcessed"`
	ResponseTimeMs int64        `json:"responseTimeMs"`
	Health         HealthStatus `json:"health,omitempty"`
	Error          string       `json:"error,omitempty"`
}

// RunSummary is returned by every aggregation trigger.
type RunSummary struct {
	RunID     string          `json:"runId"`
	Processed int             `json:"processed"`
	Results   []FeedRunResult `json:"results"`
}

// Failed counts results with status error.
func (s RunSummary) Failed() int {
	n := 0
	for _, r := range s.Results {
		if r.Status == RunError {
			n++
		}
	}
	return n
}
