// Package archive looks up the nearest web archive snapshot for a dead URL.
package archive

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/jonesrussell/north-cloud/link-health/infrastructure/circuitbreaker"
	"github.com/jonesrussell/north-cloud/link-health/infrastructure/logger"
)

const (
	// DefaultEndpoint is the Wayback Machine availability API.
	DefaultEndpoint = "https://archive.org/wayback/available"
	DefaultTimeout  = 5 * time.Second

	maxResponseBytes = 1 << 20
)

// availability mirrors the parts of the Wayback availability response we read.
type availability struct {
	ArchivedSnapshots struct {
		Closest *struct {
			Available bool   `json:"available"`
			URL       string `json:"url"`
			Status    string `json:"status"`
			Timestamp string `json:"timestamp"`
		} `json:"closest"`
	} `json:"archived_snapshots"`
}

// Config configures a Resolver.
type Config struct {
	Endpoint string
	Timeout  time.Duration
}

// Resolver queries the availability endpoint. Calls pass through a circuit
// breaker so an archive outage costs one fast rejection per lookup.
type Resolver struct {
	client   *http.Client
	endpoint string
	timeout  time.Duration
	breaker  *circuitbreaker.Breaker
	log      logger.Logger
}

// NewResolver builds a Resolver. breaker may be nil.
func NewResolver(client *http.Client, cfg Config, breaker *circuitbreaker.Breaker, log logger.Logger) *Resolver {
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultEndpoint
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &Resolver{
		client:   client,
		endpoint: cfg.Endpoint,
		timeout:  cfg.Timeout,
		breaker:  breaker,
		log:      log.With(logger.String("component", "archive")),
	}
}

// FindSnapshot returns the closest snapshot URL for target. Every failure,
// including an open circuit, is reported as "no snapshot".
func (r *Resolver) FindSnapshot(ctx context.Context, target string) (string, bool) {
	var snapshot string

	lookup := func() error {
		var err error
		snapshot, err = r.lookup(ctx, target)
		return err
	}

	var err error
	if r.breaker != nil {
		err = r.breaker.Execute(lookup)
	} else {
		err = lookup()
	}

	if err != nil {
		if errors.Is(err, circuitbreaker.ErrCircuitOpen) {
			r.log.Debug("Archive lookup skipped, circuit open", logger.String("url", target))
		} else {
			r.log.Warn("Archive lookup failed", logger.String("url", target), logger.Error(err))
		}
		return "", false
	}
	return snapshot, snapshot != ""
}

// lookup returns ("", nil) when the archive answered but has no snapshot.
func (r *Resolver) lookup(ctx context.Context, target string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	reqURL := r.endpoint + "?url=" + url.QueryEscape(target)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, http.NoBody)
	if err != nil {
		return "", fmt.Errorf("archive new request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("archive request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("archive responded HTTP %d", resp.StatusCode)
	}

	var body availability
	if decodeErr := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&body); decodeErr != nil {
		return "", fmt.Errorf("archive decode: %w", decodeErr)
	}

	closest := body.ArchivedSnapshots.Closest
	if closest == nil || !closest.Available || closest.URL == "" {
		return "", nil
	}
	return upgradeScheme(closest.URL), nil
}

func upgradeScheme(u string) string {
	if rest, ok := strings.CutPrefix(u, "http://"); ok {
		return "https://" + rest
	}
	return u
}
