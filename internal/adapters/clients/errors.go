// Package clients provides the resilient HTTP client used to reach the
// quote upstream.
package clients

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrCircuitOpen is returned without contacting the upstream while the
	// breaker is open or its half-open trial slots are taken.
	ErrCircuitOpen = errors.New("circuit breaker open")

	// ErrUpstreamFailed wraps the last error once every attempt has failed.
	ErrUpstreamFailed = errors.New("upstream request failed")
)

// StatusError is an attempt that got a 5xx answer. Its body was discarded.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("upstream answered %d %s", e.Code, http.StatusText(e.Code))
}
