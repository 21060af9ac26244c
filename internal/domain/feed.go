package domain

import "time"

// Feed is a registry row. The engine only reads feeds.
type Feed struct {
	ID       string `db:"id"       json:"id"`
	URL      string `db:"url"      json:"url"`
	Category string `db:"category" json:"category"`
	Name     string `db:"name"     json:"name"`
	Active   bool   `db:"active"   json:"active"`
}

// FeedItem is an RSS item or Atom entry after normalization. Only Title is
// guaranteed to be non-empty.
type FeedItem struct {
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Link        string     `json:"link,omitempty"`
	PubDate     *time.Time `json:"pubDate,omitempty"`
	Category    string     `json:"category,omitempty"`
}

// HealthStatus classifies a feed by the share of its item links that validate.
type HealthStatus string

const (
	StatusHealthy  HealthStatus = "healthy"
	StatusWarning  HealthStatus = "warning"
	StatusCritical HealthStatus = "critical"
	StatusOffline  HealthStatus = "offline"
)

// Classification thresholds on ValidItems/TotalItems.
const (
	HealthyRatio  = 0.9
	WarningRatio  = 0.7
	CriticalRatio = 0.3
)

// ClassifyHealth maps valid/total onto a status. total == 0 is always offline.
func ClassifyHealth(valid, total int) HealthStatus {
	if total <= 0 {
		return StatusOffline
	}
	ratio := float64(valid) / float64(total)
	switch {
	case ratio >= HealthyRatio:
		return StatusHealthy
	case ratio >= WarningRatio:
		return StatusWarning
	case ratio >= CriticalRatio:
		return StatusCritical
	default:
		return StatusOffline
	}
}

// UptimePercentage is valid/total*100, or 0 when total is 0.
func UptimePercentage(valid, total int) float64 {
	if total <= 0 {
		return 0
	}
	return float64(valid) / float64(total) * 100
}

// FeedHealth is the latest health record for a feed, upserted by FeedID.
type FeedHealth struct {
	FeedID                string       `json:"feedId"`
	Status                HealthStatus `json:"status"`
	TotalItems            int          `json:"totalItems"`
	ValidItems            int          `json:"validItems"`
	AverageResponseTimeMs int64        `json:"averageResponseTimeMs"`
	UptimePercentage      float64      `json:"uptimePercentage"`
	LastCheckedAt         time.Time    `json:"lastCheckedAt"`
	Errors                []string     `json:"errors"`
}

// ContentCacheEntry is a validated item kept for renderers, keyed by (FeedID, Title).
type ContentCacheEntry struct {
	FeedID      string     `db:"feed_id"     json:"feedId"`
	Title       string     `db:"title"       json:"title"`
	Description string     `db:"description" json:"description"`
	Link        string     `db:"link"        json:"link"`
	Category    string     `db:"category"    json:"category"`
	PubDate     *time.Time `db:"pub_date"    json:"pubDate,omitempty"`
	ExpiresAt   time.Time  `db:"expires_at"  json:"expiresAt"`
}
