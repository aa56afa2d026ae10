//go:build integration

package integration

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/jsamuelsen/quotebook/internal/adapters/clients"
	"github.com/jsamuelsen/quotebook/internal/adapters/clients/acl"
	httpadapter "github.com/jsamuelsen/quotebook/internal/adapters/http"
	"github.com/jsamuelsen/quotebook/internal/adapters/http/handlers"
	"github.com/jsamuelsen/quotebook/internal/adapters/storage/filestore"
	"github.com/jsamuelsen/quotebook/internal/app"
	"github.com/jsamuelsen/quotebook/internal/domain"
	"github.com/jsamuelsen/quotebook/internal/platform/config"
	"github.com/jsamuelsen/quotebook/internal/ports"
)

// feedMode controls how quoteFeed answers.
type feedMode int

const (
	feedServing feedMode = iota
	feedFailing
	feedMalformed
)

// quoteFeed is a fake quote endpoint serving a fixed list of quotes in
// order, wrapping around at the end.
type quoteFeed struct {
	mu     sync.Mutex
	quotes []domain.Quote
	next   int
	mode   feedMode
	calls  int
	delay  time.Duration
	header http.Header
}

func newQuoteFeed(quotes ...domain.Quote) *quoteFeed {
	return &quoteFeed{quotes: quotes}
}

func (f *quoteFeed) setMode(mode feedMode) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.mode = mode
}

func (f *quoteFeed) setDelay(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.delay = d
}

func (f *quoteFeed) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.calls
}

// lastHeader returns the headers of the most recent upstream request.
func (f *quoteFeed) lastHeader() http.Header {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.header.Clone()
}

func (f *quoteFeed) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	f.calls++
	f.header = r.Header.Clone()
	mode, delay := f.mode, f.delay

	var quote domain.Quote
	if len(f.quotes) > 0 {
		quote = f.quotes[f.next%len(f.quotes)]
		f.next++
	}
	f.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-r.Context().Done():
			return
		}
	}

	w.Header().Set("Content-Type", "application/json")

	switch mode {
	case feedFailing:
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	case feedMalformed:
		_, _ = w.Write([]byte(`{"quoteText": "half a quote"}`))
		return
	}

	_ = json.NewEncoder(w).Encode(map[string]string{
		"quoteText":   quote.Text,
		"quoteAuthor": quote.Author,
		"senderName":  quote.SenderName,
		"senderLink":  quote.SenderLink,
		"quoteLink":   quote.Link,
	})
}

// stack is the whole service wired in-process: a fake upstream, the real
// quote client, file store, session and router.
type stack struct {
	upstream *httptest.Server
	api      *httptest.Server
	session  *app.Session
	store    *filestore.FavoritesStore
	registry *prometheus.Registry
}

// stackOptions configures newStack.
type stackOptions struct {
	// Dir holds the favorites file.
	Dir string

	// Policy defaults to last_completed.
	Policy app.FetchPolicy

	// MaxFailures opens the circuit breaker. Defaults to 5.
	MaxFailures int
}

func newStack(ctx context.Context, feed *quoteFeed, opts stackOptions) (*stack, error) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	if opts.MaxFailures == 0 {
		opts.MaxFailures = 5
	}

	upstream := httptest.NewServer(feed)

	httpClient, err := clients.New(&clients.Config{
		ServiceName: "quote-service",
		BaseURL:     upstream.URL,
		Timeout:     2 * time.Second,
		Retry: config.RetryConfig{
			MaxAttempts:     1,
			InitialInterval: 10 * time.Millisecond,
			MaxInterval:     100 * time.Millisecond,
			Multiplier:      2.0,
		},
		Circuit: config.CircuitBreakerConfig{
			MaxFailures:   opts.MaxFailures,
			Timeout:       time.Minute,
			HalfOpenLimit: 1,
		},
		Headers: http.Header{"Accept": []string{"application/json"}},
		Logger:  logger,
	})
	if err != nil {
		upstream.Close()
		return nil, fmt.Errorf("creating HTTP client: %w", err)
	}

	quoteClient := acl.NewQuoteClient(acl.QuoteClientConfig{Client: httpClient, Logger: logger})

	store, err := filestore.New(filestore.Config{Dir: opts.Dir, Pretty: true, Logger: logger})
	if err != nil {
		upstream.Close()
		return nil, fmt.Errorf("creating favorites store: %w", err)
	}

	registry := prometheus.NewRegistry()

	session := app.NewSession(app.SessionConfig{
		QuoteClient: quoteClient,
		Favorites:   store,
		Policy:      opts.Policy,
		Metrics:     app.NewMetrics(registry),
		Logger:      logger,
	})
	session.Start(ctx)

	healthRegistry := ports.NewHealthRegistry()
	if err := errors.Join(healthRegistry.Register(quoteClient), healthRegistry.Register(store)); err != nil {
		upstream.Close()
		return nil, fmt.Errorf("registering health checks: %w", err)
	}

	gin.SetMode(gin.TestMode)
	engine := gin.New()
	httpadapter.SetupRouter(engine, httpadapter.RouterConfig{
		Logger:    logger,
		AppConfig: &config.AppConfig{Name: "quotebook", Environment: "test", Version: "test"},
		HealthHandler: handlers.NewHealthHandler(healthRegistry, handlers.NewBuildInfo("test", "test", "test")).
			WithGatherer(registry),
		QuoteHandler:     handlers.NewQuoteHandler(session),
		FavoritesHandler: handlers.NewFavoritesHandler(session),
		LifecycleHandler: handlers.NewLifecycleHandler(session),
		Timeout:          5 * time.Second,
	})

	return &stack{
		upstream: upstream,
		api:      httptest.NewServer(engine),
		session:  session,
		store:    store,
		registry: registry,
	}, nil
}

// close moves the session to the background, as a real shutdown does,
// and stops both servers.
func (s *stack) close(ctx context.Context) error {
	s.api.Close()

	err := errors.Join(
		s.session.HandleLifecycle(ctx, domain.PhaseBackground),
		s.session.Close(ctx),
	)

	s.upstream.Close()

	return err
}
