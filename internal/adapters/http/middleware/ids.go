// Package middleware holds the gin middleware installed by quotebook's router.
package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jsamuelsen/quotebook/internal/platform/logging"
)

const (
	// HeaderRequestID identifies a single request to quotebook.
	HeaderRequestID = "X-Request-ID"

	// HeaderCorrelationID follows a transaction across services. The quote
	// client forwards it to the quote service unchanged.
	HeaderCorrelationID = "X-Correlation-ID"
)

// maxIDLen bounds client-supplied ids. Longer or non-printable values are
// replaced, since the quote client copies them into upstream headers.
const maxIDLen = 128

type idKey int

const (
	requestIDKey idKey = iota
	correlationIDKey
)

// RequestID takes the X-Request-ID header or generates a UUID v4, echoes it
// in the response and tags the request context and its logger with it.
func RequestID() gin.HandlerFunc {
	return tagRequest(HeaderRequestID, requestIDKey, logging.WithRequestID)
}

// CorrelationID is RequestID for X-Correlation-ID.
func CorrelationID() gin.HandlerFunc {
	return tagRequest(HeaderCorrelationID, correlationIDKey, logging.WithCorrelationID)
}

func tagRequest(header string, key idKey, tagLogger func(context.Context, string) context.Context) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(header)
		if !validID(id) {
			id = uuid.NewString()
		}

		c.Header(header, id)

		ctx := context.WithValue(c.Request.Context(), key, id)
		c.Request = c.Request.WithContext(tagLogger(ctx, id))

		c.Next()
	}
}

func validID(id string) bool {
	if id == "" || len(id) > maxIDLen {
		return false
	}

	return strings.IndexFunc(id, func(r rune) bool { return r <= ' ' || r > '~' }) < 0
}

// RequestIDFromContext returns the request id stored by RequestID, or "".
func RequestIDFromContext(ctx context.Context) string {
	return idFromContext(ctx, requestIDKey)
}

// CorrelationIDFromContext returns the correlation id stored by
// CorrelationID, or "".
func CorrelationIDFromContext(ctx context.Context) string {
	return idFromContext(ctx, correlationIDKey)
}

// ContextWithRequestID stores a request id the way RequestID does.
func ContextWithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// ContextWithCorrelationID stores a correlation id the way CorrelationID does.
func ContextWithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, correlationIDKey, id)
}

func idFromContext(ctx context.Context, key idKey) string {
	if ctx == nil {
		return ""
	}

	id, _ := ctx.Value(key).(string)

	return id
}
