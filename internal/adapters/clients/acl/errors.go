package acl

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/jsamuelsen/quotebook/internal/adapters/clients"
	"github.com/jsamuelsen/quotebook/internal/domain"
)

// maxErrorBody caps how much of an error body is quoted in the message.
const maxErrorBody = 512

// MapHTTPError turns the outcome of one call to service into a domain
// error, or nil for a 2xx response. resp is ignored when clientErr is set.
// Cancellation passes through unchanged so an abandoned fetch stays
// distinguishable from a failed one.
func MapHTTPError(resp *http.Response, clientErr error, service, operation string) error {
	switch {
	case errors.Is(clientErr, context.Canceled):
		return clientErr
	case errors.Is(clientErr, clients.ErrCircuitOpen):
		return domain.NewUnavailableError(service, "circuit breaker open during "+operation)
	case errors.Is(clientErr, clients.ErrUpstreamFailed):
		return domain.NewUnavailableError(service, fmt.Sprintf("%s: %v", operation, clientErr))
	case clientErr != nil:
		return domain.NewUnavailableError(service, fmt.Sprintf("%s failed: %v", operation, clientErr))
	case resp == nil:
		return domain.NewUnavailableError(service, "no response received")
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	}

	status := resp.StatusCode
	detail := fmt.Sprintf("%s returned HTTP %d %s", operation, status, http.StatusText(status))
	if body := errorBody(resp.Body); body != "" {
		detail += ": " + body
	}

	switch {
	case status == http.StatusNotFound:
		return domain.NewNotFoundError(service, "")
	case status == http.StatusTooManyRequests:
		return domain.NewUnavailableError(service, "rate limit exceeded")
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return domain.NewForbiddenError(operation, detail)
	case status >= http.StatusInternalServerError:
		return domain.NewUnavailableError(service, detail)
	default:
		return domain.NewValidationError("", detail)
	}
}

// errorBody returns the trimmed start of an error body, or "".
func errorBody(body io.Reader) string {
	if body == nil {
		return ""
	}

	data, err := io.ReadAll(io.LimitReader(body, maxErrorBody))
	if err != nil {
		return ""
	}

	return strings.TrimSpace(string(data))
}
