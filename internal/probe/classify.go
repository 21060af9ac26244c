package probe

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"syscall"
	"time"
)

// Outcome is how the validator should treat a probe status.
type Outcome int

const (
	// Reachable covers 2xx, 301 and 302.
	Reachable Outcome = iota
	// DeadWithFallback covers 404, 5xx and failed probes (status 0); an
	// archive snapshot may stand in for the link.
	DeadWithFallback
	// DeadNoFallback covers every other code, mostly access or policy failures.
	DeadNoFallback
)

func (o Outcome) String() string {
	switch o {
	case Reachable:
		return "reachable"
	case DeadWithFallback:
		return "dead_with_fallback"
	case DeadNoFallback:
		return "dead"
	default:
		return "unknown"
	}
}

// Classify maps an HTTP status code (0 for no response) to an Outcome.
func Classify(status int) Outcome {
	switch {
	case status >= 200 && status < 300,
		status == http.StatusMovedPermanently,
		status == http.StatusFound:
		return Reachable
	case status == 0,
		status == http.StatusNotFound,
		status >= 500:
		return DeadWithFallback
	default:
		return DeadNoFallback
	}
}

// ErrorKind labels network failures for logs and metrics.
type ErrorKind string

const (
	KindTimeout ErrorKind = "timeout"
	KindDNS     ErrorKind = "dns"
	KindTLS     ErrorKind = "tls"
	KindRefused ErrorKind = "connection_refused"
	KindReset   ErrorKind = "connection_reset"
	KindRequest ErrorKind = "invalid_request"
	KindOther   ErrorKind = "network"
)

// NetworkError is the Result.Err type for failed probes.
type NetworkError struct {
	Kind  ErrorKind
	Cause error
	msg   string
}

func (e *NetworkError) Error() string { return e.msg }
func (e *NetworkError) Unwrap() error { return e.Cause }

// Kind returns the ErrorKind of err, or "" if err is not a *NetworkError.
func Kind(err error) ErrorKind {
	var ne *NetworkError
	if errors.As(err, &ne) {
		return ne.Kind
	}
	return ""
}

func describe(err error, timeout time.Duration) error {
	var (
		dnsErr  *net.DNSError
		certErr *tls.CertificateVerificationError
		unknown x509.UnknownAuthorityError
		host    x509.HostnameError
		recErr  tls.RecordHeaderError
	)

	var already *NetworkError
	if errors.As(err, &already) {
		return already
	}

	switch {
	case errors.Is(err, context.DeadlineExceeded), os.IsTimeout(err):
		return &NetworkError{Kind: KindTimeout, Cause: err, msg: fmt.Sprintf("timeout after %s", timeout)}
	case errors.Is(err, context.Canceled):
		return &NetworkError{Kind: KindOther, Cause: err, msg: "probe cancelled"}
	case errors.As(err, &dnsErr):
		return &NetworkError{Kind: KindDNS, Cause: err, msg: "dns lookup failed: " + dnsErr.Err}
	case errors.As(err, &certErr), errors.As(err, &unknown), errors.As(err, &host), errors.As(err, &recErr):
		return &NetworkError{Kind: KindTLS, Cause: err, msg: "tls handshake failed: " + err.Error()}
	case errors.Is(err, syscall.ECONNREFUSED):
		return &NetworkError{Kind: KindRefused, Cause: err, msg: "connection refused"}
	case errors.Is(err, syscall.ECONNRESET):
		return &NetworkError{Kind: KindReset, Cause: err, msg: "connection reset"}
	}

	var urlErr interface{ Timeout() bool }
	if errors.As(err, &urlErr) && urlErr.Timeout() {
		return &NetworkError{Kind: KindTimeout, Cause: err, msg: fmt.Sprintf("timeout after %s", timeout)}
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return &NetworkError{Kind: KindOther, Cause: err, msg: "network error: " + opErr.Error()}
	}
	return &NetworkError{Kind: KindOther, Cause: err, msg: err.Error()}
}
