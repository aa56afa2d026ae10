package telemetry

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const scope = "github.com/jsamuelsen/quotebook/telemetry"

// HeaderTraceID echoes the request's trace ID back to the caller.
const HeaderTraceID = "X-Trace-ID"

// unmatchedRoute labels requests that hit no registered route, keeping
// arbitrary paths out of metric attributes.
const unmatchedRoute = "unmatched"

// StartSpan starts an internal span for a session operation such as
// "session.fetch". Callers must end the span.
func StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return otel.Tracer(scope).Start(ctx, name, trace.WithAttributes(attrs...))
}

// RecordError marks span as failed. A nil err leaves the span untouched.
func RecordError(span trace.Span, err error) {
	if err == nil {
		return
	}

	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

type serverInstruments struct {
	duration metric.Float64Histogram
	requests metric.Int64Counter
	inFlight metric.Int64UpDownCounter
}

func newServerInstruments(meter metric.Meter) (*serverInstruments, error) {
	var (
		in  serverInstruments
		err error
	)

	if in.duration, err = meter.Float64Histogram("quotebook.http.server.duration",
		metric.WithDescription("Time to serve an API request"),
		metric.WithUnit("s"),
	); err != nil {
		return nil, err
	}

	if in.requests, err = meter.Int64Counter("quotebook.http.server.requests",
		metric.WithDescription("API requests served"),
	); err != nil {
		return nil, err
	}

	if in.inFlight, err = meter.Int64UpDownCounter("quotebook.http.server.in_flight",
		metric.WithDescription("API requests being served"),
	); err != nil {
		return nil, err
	}

	return &in, nil
}

// Middleware records request instruments and sets HeaderTraceID. It must
// run after TracingMiddleware so the server span is on the request context.
// Instrument errors go to the global otel error handler and disable the
// instruments only.
func Middleware() gin.HandlerFunc {
	in, err := newServerInstruments(otel.Meter(scope))
	if err != nil {
		otel.Handle(err)
	}

	return func(c *gin.Context) {
		ctx := c.Request.Context()

		if sc := trace.SpanContextFromContext(ctx); sc.HasTraceID() {
			c.Header(HeaderTraceID, sc.TraceID().String())
		}

		if in == nil {
			c.Next()
			return
		}

		route := c.FullPath()
		if route == "" {
			route = unmatchedRoute
		}

		base := metric.WithAttributes(
			attribute.String("http.request.method", c.Request.Method),
			attribute.String("http.route", route),
		)

		in.inFlight.Add(ctx, 1, base)
		defer in.inFlight.Add(ctx, -1, base)

		start := time.Now()

		c.Next()

		done := metric.WithAttributes(
			attribute.String("http.request.method", c.Request.Method),
			attribute.String("http.route", route),
			attribute.Int("http.response.status_code", c.Writer.Status()),
		)
		in.duration.Record(ctx, time.Since(start).Seconds(), done)
		in.requests.Add(ctx, 1, done)
	}
}

// TracingMiddleware starts a server span per request.
func TracingMiddleware(serviceName string) gin.HandlerFunc {
	return otelgin.Middleware(serviceName)
}
