package benchmark

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jsamuelsen/quotebook/internal/adapters/http/handlers"
	"github.com/jsamuelsen/quotebook/internal/adapters/http/middleware"
	"github.com/jsamuelsen/quotebook/internal/app"
	"github.com/jsamuelsen/quotebook/internal/domain"
	"github.com/jsamuelsen/quotebook/internal/ports"
)

func init() {
	gin.SetMode(gin.ReleaseMode)
}

func createGinContext(w http.ResponseWriter, r *http.Request) *gin.Context {
	c, _ := gin.CreateTestContext(w)
	c.Request = r
	return c
}

func serve(b *testing.B, router http.Handler, method, path string) {
	b.Helper()

	req := httptest.NewRequest(method, path, http.NoBody)

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		router.ServeHTTP(httptest.NewRecorder(), req)
	}
}

// BenchmarkHealthRoutes measures the /-/ endpoints with both checkers
// quotebook registers at startup.
func BenchmarkHealthRoutes(b *testing.B) {
	registry := ports.NewHealthRegistry()
	_ = registry.Register(&simpleHealthChecker{name: "quote-service"})
	_ = registry.Register(&simpleHealthChecker{name: "favorites-store"})

	router := gin.New()
	handlers.NewHealthHandler(registry, handlers.NewBuildInfo("1.0.0", "abc123", "2026-01-01T00:00:00Z")).
		RegisterHealthRoutesOnEngine(router)

	for _, path := range []string{"/-/live", "/-/ready", "/-/build"} {
		b.Run(path, func(b *testing.B) {
			serve(b, router, http.MethodGet, path)
		})
	}
}

// BenchmarkMiddleware measures the request chain in front of the current
// quote, with and without logging and the timeout.
func BenchmarkMiddleware(b *testing.B) {
	quotes := handlers.NewQuoteHandler(newBenchSession(b, 0))

	chains := map[string][]gin.HandlerFunc{
		"ids": {
			middleware.Recovery(),
			middleware.ContextLogger(discardLogger()),
			middleware.RequestID(),
			middleware.CorrelationID(),
		},
		"full": {
			middleware.Recovery(),
			middleware.ContextLogger(discardLogger()),
			middleware.RequestID(),
			middleware.CorrelationID(),
			middleware.Logging(),
			middleware.Timeout(time.Second),
		},
	}

	for name, chain := range chains {
		b.Run(name, func(b *testing.B) {
			router := gin.New()
			router.Use(chain...)
			router.GET("/api/v1/quote", quotes.GetCurrent)

			serve(b, router, http.MethodGet, "/api/v1/quote")
		})
	}
}

// BenchmarkGetCurrentQuote measures reading the displayed quote.
func BenchmarkGetCurrentQuote(b *testing.B) {
	handler := handlers.NewQuoteHandler(newBenchSession(b, 0))
	req := httptest.NewRequest(http.MethodGet, "/api/v1/quote", http.NoBody)

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		w := httptest.NewRecorder()
		c := createGinContext(w, req)
		handler.GetCurrent(c)
	}
}

// BenchmarkListFavorites measures rendering a large collection.
func BenchmarkListFavorites(b *testing.B) {
	handler := handlers.NewFavoritesHandler(newBenchSession(b, 1000))
	req := httptest.NewRequest(http.MethodGet, "/api/v1/favorites", http.NoBody)

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		w := httptest.NewRecorder()
		c := createGinContext(w, req)
		handler.List(c)
	}
}

// BenchmarkRefresh measures a full fetch round trip through the session.
func BenchmarkRefresh(b *testing.B) {
	session := newBenchSession(b, 0)
	ctx := context.Background()

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		if _, err := session.Refresh(ctx); err != nil {
			b.Fatal(err)
		}
	}
}

// newBenchSession creates a session holding n favorites.
func newBenchSession(b *testing.B, n int) *app.Session {
	b.Helper()

	session := app.NewSession(app.SessionConfig{
		QuoteClient: staticQuoteClient{},
		Favorites:   memoryFavorites{},
		Logger:      discardLogger(),
	})
	b.Cleanup(func() { _ = session.Close(context.Background()) })

	for range n {
		session.Add(benchQuote)
	}

	return session
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

var benchQuote = domain.Quote{
	Text:   "Simplicity is prerequisite for reliability.",
	Author: "Edsger Dijkstra",
	Link:   "http://forismatic.com/en/bench/",
}

// staticQuoteClient always returns benchQuote.
type staticQuoteClient struct{}

func (staticQuoteClient) FetchQuote(context.Context) (domain.Quote, error) {
	return benchQuote, nil
}

// memoryFavorites discards saves and loads an empty collection.
type memoryFavorites struct{}

func (memoryFavorites) Load(context.Context) (domain.Favorites, error) {
	return domain.Favorites{}, nil
}

func (memoryFavorites) Save(context.Context, domain.Favorites) error {
	return nil
}

var (
	_ ports.QuoteClient         = staticQuoteClient{}
	_ ports.FavoritesRepository = memoryFavorites{}
)

// simpleHealthChecker always passes.
type simpleHealthChecker struct {
	name string
}

func (s *simpleHealthChecker) Name() string { return s.name }

func (*simpleHealthChecker) Check(context.Context) error { return nil }
