package clients

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/jsamuelsen/quotebook/internal/adapters/http/middleware"
	"github.com/jsamuelsen/quotebook/internal/platform/config"
	"github.com/jsamuelsen/quotebook/internal/platform/logging"
)

const (
	instrumentationName = "github.com/jsamuelsen/quotebook/internal/adapters/clients"

	defaultTimeout = 30 * time.Second
)

// Config configures a Client.
type Config struct {
	// BaseURL is prepended to every request path.
	BaseURL string

	// ServiceName names the upstream in logs, spans and metrics.
	ServiceName string

	// Timeout bounds a single attempt. Retries and their backoff come on top.
	Timeout time.Duration

	Retry     config.RetryConfig
	Circuit   config.CircuitBreakerConfig
	Transport config.TransportConfig

	// Headers are copied onto every request, for example Accept.
	Headers http.Header

	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// Client sends bodiless requests to one upstream. Each call passes through
// the breaker, is retried with exponential backoff on transport errors and
// 5xx answers, and is traced and measured.
type Client struct {
	http    *http.Client
	cfg     Config
	baseURL string
	logger  *slog.Logger
	breaker *Breaker
	tracer  trace.Tracer

	duration metric.Float64Histogram
	requests metric.Int64Counter
}

// New builds a Client. MaxAttempts below 1 means a single attempt.
func New(cfg *Config) (*Client, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}

	if cfg.ServiceName == "" {
		return nil, errors.New("service name is required")
	}

	c := &Client{
		cfg:     *cfg,
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
		tracer:  otel.Tracer(instrumentationName),
	}

	if c.cfg.Timeout <= 0 {
		c.cfg.Timeout = defaultTimeout
	}
	c.cfg.Retry.MaxAttempts = max(c.cfg.Retry.MaxAttempts, 1)

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	c.logger = logger.With(slog.String("downstream", cfg.ServiceName))

	c.breaker = NewBreaker(BreakerConfig{
		MaxFailures: cfg.Circuit.MaxFailures,
		CoolDown:    cfg.Circuit.Timeout,
		Trials:      cfg.Circuit.HalfOpenLimit,
	})
	c.breaker.OnStateChange(func(from, to State) {
		c.logger.Warn("circuit breaker state changed",
			slog.String("from", from.String()),
			slog.String("to", to.String()))
	})

	meter := otel.Meter(instrumentationName)

	var err error

	c.duration, err = meter.Float64Histogram("http.client.request.duration",
		metric.WithDescription("Duration of upstream calls including retries"),
		metric.WithUnit("s"))
	if err != nil {
		return nil, fmt.Errorf("creating duration metric: %w", err)
	}

	c.requests, err = meter.Int64Counter("http.client.request.total",
		metric.WithDescription("Upstream calls by result"))
	if err != nil {
		return nil, fmt.Errorf("creating request counter: %w", err)
	}

	c.http = &http.Client{Timeout: c.cfg.Timeout, Transport: newTransport(cfg.Transport)}

	return c, nil
}

func newTransport(cfg config.TransportConfig) *http.Transport {
	t := http.DefaultTransport.(*http.Transport).Clone()

	if cfg.MaxIdleConns > 0 {
		t.MaxIdleConns = cfg.MaxIdleConns
	}
	if cfg.MaxIdleConnsPerHost > 0 {
		t.MaxIdleConnsPerHost = cfg.MaxIdleConnsPerHost
	}
	if cfg.IdleConnTimeout > 0 {
		t.IdleConnTimeout = cfg.IdleConnTimeout
	}

	return t
}

// CircuitState reports the breaker's state.
func (c *Client) CircuitState() State {
	return c.breaker.State()
}

// Get sends a GET for path, relative to the base URL.
func (c *Client) Get(ctx context.Context, path string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url(path), http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	return c.Do(ctx, req)
}

// Do sends req. A non-nil response has a status below 500 and its body
// belongs to the caller. Context cancellation is returned unwrapped.
func (c *Client) Do(ctx context.Context, req *http.Request) (*http.Response, error) {
	start := time.Now()
	logger := logging.FromContext(ctx).With(
		slog.String("downstream", c.cfg.ServiceName),
		slog.String("method", req.Method),
		slog.String("path", req.URL.Path))

	done, err := c.breaker.Admit()
	if err != nil {
		c.record(ctx, req.Method, "circuit_open", 0, time.Since(start))
		logger.WarnContext(ctx, "request blocked by circuit breaker")

		return nil, err
	}

	ctx, span := c.tracer.Start(ctx, "HTTP "+req.Method+" "+c.cfg.ServiceName,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.method", req.Method),
			attribute.String("http.url", req.URL.String()),
			attribute.String("peer.service", c.cfg.ServiceName)))
	defer span.End()

	c.setHeaders(ctx, req)
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	attempt := 0
	resp, err := backoff.Retry(ctx,
		func() (*http.Response, error) {
			attempt++
			logger.Log(ctx, logging.LevelTrace, "sending request", slog.Int("attempt", attempt))

			return c.send(ctx, req)
		},
		backoff.WithBackOff(c.backOff()),
		backoff.WithMaxTries(uint(c.cfg.Retry.MaxAttempts)),
		backoff.WithMaxElapsedTime(0),
		backoff.WithNotify(func(err error, wait time.Duration) {
			logger.DebugContext(ctx, "retrying request",
				slog.Int("attempt", attempt),
				slog.Duration("backoff", wait),
				slog.Any("error", err))
		}),
	)
	elapsed := time.Since(start)

	var permanent *backoff.PermanentError
	if errors.As(err, &permanent) {
		err = permanent.Err
	}

	switch {
	case err == nil:
		done(OutcomeSuccess)
		span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))
		if resp.StatusCode >= http.StatusBadRequest {
			span.SetStatus(codes.Error, "HTTP "+strconv.Itoa(resp.StatusCode))
		}
		c.record(ctx, req.Method, strconv.Itoa(resp.StatusCode/100)+"xx", resp.StatusCode, elapsed)
		logger.DebugContext(ctx, "request completed",
			slog.Int("status", resp.StatusCode),
			slog.Int("attempts", attempt),
			slog.Duration("duration", elapsed))

		return resp, nil

	case errors.Is(err, context.Canceled):
		done(OutcomeAbandoned)
		span.SetStatus(codes.Error, "canceled")
		c.record(ctx, req.Method, "context_canceled", 0, elapsed)
		logger.DebugContext(ctx, "request canceled", slog.Duration("duration", elapsed))

		return nil, err

	default:
		done(OutcomeFailure)
		span.SetStatus(codes.Error, err.Error())
		c.record(ctx, req.Method, "error", 0, elapsed)
		logger.ErrorContext(ctx, "request failed",
			slog.Int("attempts", attempt),
			slog.Duration("duration", elapsed),
			slog.Any("error", err))

		return nil, fmt.Errorf("%w: %w", ErrUpstreamFailed, err)
	}
}

// send makes one attempt. Errors not worth retrying are marked permanent.
func (c *Client) send(ctx context.Context, req *http.Request) (*http.Response, error) {
	resp, err := c.http.Do(req.WithContext(ctx))
	if err != nil {
		if retryable(err) {
			return nil, err
		}

		return nil, backoff.Permanent(err)
	}

	if resp.StatusCode >= http.StatusInternalServerError {
		_ = resp.Body.Close()
		return nil, &StatusError{Code: resp.StatusCode}
	}

	return resp, nil
}

func (c *Client) backOff() backoff.BackOff {
	return &backoff.ExponentialBackOff{
		InitialInterval:     c.cfg.Retry.InitialInterval,
		RandomizationFactor: c.cfg.Retry.JitterFactor,
		Multiplier:          c.cfg.Retry.Multiplier,
		MaxInterval:         c.cfg.Retry.MaxInterval,
	}
}

// setHeaders applies the configured headers and the request and
// correlation ids carried by ctx.
func (c *Client) setHeaders(ctx context.Context, req *http.Request) {
	for name, values := range c.cfg.Headers {
		req.Header[http.CanonicalHeaderKey(name)] = append([]string(nil), values...)
	}

	if id := middleware.RequestIDFromContext(ctx); id != "" {
		req.Header.Set(middleware.HeaderRequestID, id)
	}

	if id := middleware.CorrelationIDFromContext(ctx); id != "" {
		req.Header.Set(middleware.HeaderCorrelationID, id)
	}
}

func (c *Client) url(path string) string {
	return c.baseURL + "/" + strings.TrimPrefix(path, "/")
}

func (c *Client) record(ctx context.Context, method, result string, status int, elapsed time.Duration) {
	attrs := []attribute.KeyValue{
		attribute.String("http.method", method),
		attribute.String("peer.service", c.cfg.ServiceName),
		attribute.String("result", result),
	}
	if status > 0 {
		attrs = append(attrs, attribute.Int("http.status_code", status))
	}

	opt := metric.WithAttributes(attrs...)
	c.duration.Record(ctx, elapsed.Seconds(), opt)
	c.requests.Add(ctx, 1, opt)
}

// retryable reports whether a transport error may succeed on another
// attempt. Caller cancellation and deadlines never do.
func retryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	var opErr *net.OpError

	return errors.As(err, &opErr)
}
