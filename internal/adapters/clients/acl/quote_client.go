package acl

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/jsamuelsen/quotebook/internal/adapters/clients"
	"github.com/jsamuelsen/quotebook/internal/domain"
	"github.com/jsamuelsen/quotebook/internal/platform/logging"
)

// QuotePath is the fixed path of the random quote resource.
const QuotePath = "/en/22b6b234e5/"

// QuoteClientConfig contains configuration for the quote client.
type QuoteClientConfig struct {
	// Client is the HTTP client to use for requests.
	// Its BaseURL should point at the quote host, e.g. http://forismatic.com.
	Client *clients.Client

	// ServiceName names the endpoint in errors and health checks.
	// Defaults to "quote-service".
	ServiceName string

	// Logger is the structured logger.
	Logger *slog.Logger
}

// QuoteClient implements ports.QuoteClient against the forismatic endpoint.
type QuoteClient struct {
	client  *clients.Client
	service string
	logger  *slog.Logger
}

// NewQuoteClient creates a new quote client adapter.
// Panics if Client is nil. Defaults logger to slog.Default() if nil.
func NewQuoteClient(cfg QuoteClientConfig) *QuoteClient {
	if cfg.Client == nil {
		panic("QuoteClient: Client is required")
	}

	name := cfg.ServiceName
	if name == "" {
		name = "quote-service"
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &QuoteClient{client: cfg.Client, service: name, logger: logger}
}

// FetchQuote retrieves one random quote. Every failure, including
// transport errors, non-2xx responses, malformed bodies and missing
// keys, is returned as a *domain.FetchError.
// Implements ports.QuoteClient.
func (c *QuoteClient) FetchQuote(ctx context.Context) (domain.Quote, error) {
	logger := logging.FromContext(ctx)
	logger.DebugContext(ctx, "fetching quote", slog.String("path", QuotePath))

	body, err := c.get(ctx, QuotePath, "fetch quote")
	if err != nil {
		return domain.Quote{}, domain.NewFetchError(err)
	}

	external, err := DecodeResponse[quoteResponse](body)
	if err != nil {
		return domain.Quote{}, domain.NewFetchError(err)
	}

	quote, err := translateQuote(external)
	if err != nil {
		logger.WarnContext(ctx, "quote response rejected", slog.Any("error", err))
		return domain.Quote{}, domain.NewFetchError(err)
	}

	logger.Log(ctx, logging.LevelTrace, "translated external DTO to domain",
		slog.String("quote_author", quote.Author),
		slog.String("quote_link", quote.Link))

	return quote, nil
}

// get returns the body of a 2xx response to path. Anything else is
// mapped to a domain error and the body is closed.
func (c *QuoteClient) get(ctx context.Context, path, operation string) (io.ReadCloser, error) {
	resp, err := c.client.Get(ctx, path)
	if err != nil {
		return nil, MapHTTPError(nil, err, c.service, operation)
	}

	if err := MapHTTPError(resp, nil, c.service, operation); err != nil {
		_ = resp.Body.Close()
		return nil, err
	}

	return resp.Body, nil
}

// Name returns the health check name for this client.
// Implements ports.HealthChecker.
func (c *QuoteClient) Name() string {
	return c.service
}

// Check reports the endpoint unhealthy while the circuit breaker is open.
// It never calls the endpoint, so readiness checks do not consume quotes.
// Implements ports.HealthChecker.
func (c *QuoteClient) Check(_ context.Context) error {
	if state := c.client.CircuitState(); state == clients.StateOpen {
		return domain.NewUnavailableError(c.service, fmt.Sprintf("circuit breaker %s", state))
	}

	return nil
}
