// Package domain holds the data types shared by the validation pipeline.
package domain

import "time"

// ValidationResult is the outcome of checking one URL. A result is never
// mutated after creation; a later check produces a new one.
type ValidationResult struct {
	URL     string `json:"url"`
	IsValid bool   `json:"isValid"`
	// StatusCode is 0 when no HTTP response was received.
	StatusCode      int       `json:"statusCode"`
	RedirectTarget  string    `json:"redirectTarget,omitempty"`
	ArchiveURL      string    `json:"archiveUrl,omitempty"`
	DomainAuthority int       `json:"domainAuthority"`
	ResponseTimeMs  int64     `json:"responseTimeMs"`
	CheckedAt       time.Time `json:"checkedAt"`
	Error           string    `json:"error,omitempty"`
}

// Archived reports whether validity came from an archive snapshot.
func (r ValidationResult) Archived() bool {
	return r.ArchiveURL != ""
}

// PreferredLink is the archive snapshot when one was used, else the original URL.
func (r ValidationResult) PreferredLink() string {
	if r.ArchiveURL != "" {
		return r.ArchiveURL
	}
	return r.URL
}
