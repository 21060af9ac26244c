// Package profiling serves net/http/pprof endpoints on a private listener.
package profiling

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/http/pprof"
	"time"

	"github.com/jonesrussell/north-cloud/link-health/infrastructure/logger"
)

// DefaultAddress binds to loopback only.
const DefaultAddress = "localhost:6060"

const (
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 5 * time.Second
)

// Config controls the pprof server.
type Config struct {
	Enabled bool   `env:"ENABLE_PROFILING" yaml:"enabled"`
	Address string `env:"PPROF_ADDRESS"    yaml:"address"`
}

// Start listens on cfg.Address and serves the pprof handlers until ctx is
// cancelled. It returns the bound address, or nil when profiling is disabled.
func Start(ctx context.Context, cfg Config, log logger.Logger) (net.Addr, error) {
	if !cfg.Enabled {
		return nil, nil
	}
	if cfg.Address == "" {
		cfg.Address = DefaultAddress
	}

	ln, err := net.Listen("tcp", cfg.Address)
	if err != nil {
		return nil, fmt.Errorf("pprof listen %s: %w", cfg.Address, err)
	}

	srv := &http.Server{
		Handler:           newMux(),
		ReadHeaderTimeout: readHeaderTimeout,
	}

	go func() {
		log.Info("Starting pprof server", logger.String("address", ln.Addr().String()))
		if serveErr := srv.Serve(ln); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			log.Error("pprof server error", logger.Error(serveErr))
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	return ln.Addr(), nil
}

func newMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/debug/pprof/", pprof.Index)
	mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
	mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	mux.HandleFunc("/debug/pprof/trace", pprof.Trace)
	return mux
}
