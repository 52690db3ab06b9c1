// Package resilience classifies fetch failures and computes retry
// backoff. The classification drives the fetcher's state transitions:
// permanent statuses are never retried, transient ones are.
package resilience

import (
	"errors"
	"net"
	"net/http"
	"strings"
	"syscall"
)

// Outcome classifies an HTTP response status for the retry state machine.
type Outcome int

const (
	// OutcomeSuccess means the response can be consumed.
	OutcomeSuccess Outcome = iota
	// OutcomePermanent means retrying wastes quota and risks appearing
	// abusive (403, 404, 410).
	OutcomePermanent
	// OutcomeTransient means the request may be retried with backoff.
	OutcomeTransient
)

// ClassifyStatus maps an HTTP status code onto a retry outcome.
func ClassifyStatus(code int) Outcome {
	switch code {
	case http.StatusOK:
		return OutcomeSuccess
	case http.StatusForbidden, http.StatusNotFound, http.StatusGone:
		return OutcomePermanent
	default:
		return OutcomeTransient
	}
}

// IsTransient returns true if the error matches common transient
// transport failures (timeouts, connection resets, DNS hiccups). The
// fetcher retries these with backoff; anything else at the transport
// level is treated as permanent.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	if errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNABORTED) {
		return true
	}

	msg := strings.ToLower(err.Error())
	transientPatterns := []string{
		"connection reset by peer",
		"broken pipe",
		"temporary failure in name resolution",
		"no such host",
		"tls handshake timeout",
		"i/o timeout",
		"server closed idle connection",
		"transport connection broken",
	}
	for _, p := range transientPatterns {
		if strings.Contains(msg, p) {
			return true
		}
	}

	return false
}
