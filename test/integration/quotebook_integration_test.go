//go:build integration

package integration

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jsamuelsen/quotebook/internal/adapters/http/dto"
	"github.com/jsamuelsen/quotebook/internal/adapters/http/middleware"
	"github.com/jsamuelsen/quotebook/internal/app"
	"github.com/jsamuelsen/quotebook/internal/domain"
)

var (
	firstQuote = domain.Quote{
		Text:       "Well begun is half done.",
		Author:     "Aristotle",
		SenderName: "Lee",
		SenderLink: "http://example.com/lee",
		Link:       "http://forismatic.com/en/1a2b3c/",
	}
	secondQuote = domain.Quote{
		Text:   "The journey of a thousand miles begins with one step.",
		Author: "Lao Tzu",
		Link:   "http://forismatic.com/en/4d5e6f/",
	}
	thirdQuote = domain.Quote{
		Text:   "Nothing is more active than thought.",
		Author: "Thales",
		Link:   "http://forismatic.com/en/7a8b9c/",
	}
)

// startStack starts a stack and stops it when the test ends.
func startStack(t *testing.T, feed *quoteFeed, opts stackOptions) *stack {
	t.Helper()

	if opts.Dir == "" {
		opts.Dir = t.TempDir()
	}

	s, err := newStack(context.Background(), feed, opts)
	require.NoError(t, err)

	t.Cleanup(func() { _ = s.close(context.Background()) })

	return s
}

func do(t *testing.T, s *stack, method, path string) (int, []byte) {
	t.Helper()

	return doJSON(t, s, method, path, "")
}

func doJSON(t *testing.T, s *stack, method, path, body string) (int, []byte) {
	t.Helper()

	req, err := http.NewRequestWithContext(context.Background(), method, s.api.URL+path, strings.NewReader(body))
	require.NoError(t, err)

	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.api.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	return resp.StatusCode, respBody
}

func decodeBody[T any](t *testing.T, body []byte) T {
	t.Helper()

	var v T
	require.NoError(t, json.Unmarshal(body, &v), "body: %s", body)

	return v
}

// TestQuotebook_StartupDisplaysFetchedQuote verifies that the first fetched
// quote replaces the seed quote at startup.
func TestQuotebook_StartupDisplaysFetchedQuote(t *testing.T) {
	s := startStack(t, newQuoteFeed(firstQuote, secondQuote), stackOptions{})

	status, body := do(t, s, http.MethodGet, "/api/v1/quote")
	require.Equal(t, http.StatusOK, status)

	current := decodeBody[dto.CurrentQuoteResponse](t, body)
	assert.Equal(t, dto.NewQuoteResponse(firstQuote), current.Quote)
	assert.False(t, current.Favorited)
}

// TestQuotebook_StartupWithUnreachableEndpoint verifies that the seed quote
// stays displayed when the first fetch fails.
func TestQuotebook_StartupWithUnreachableEndpoint(t *testing.T) {
	feed := newQuoteFeed(firstQuote)
	feed.setMode(feedFailing)

	s := startStack(t, feed, stackOptions{})

	status, body := do(t, s, http.MethodGet, "/api/v1/quote")
	require.Equal(t, http.StatusOK, status)

	current := decodeBody[dto.CurrentQuoteResponse](t, body)
	assert.Equal(t, dto.NewQuoteResponse(domain.SeedQuote), current.Quote)
}

// TestQuotebook_FetchFailureKeepsCurrentQuote verifies that failed and
// malformed responses leave the displayed quote alone.
func TestQuotebook_FetchFailureKeepsCurrentQuote(t *testing.T) {
	feed := newQuoteFeed(firstQuote, secondQuote)
	s := startStack(t, feed, stackOptions{MaxFailures: 10})

	for _, mode := range []feedMode{feedFailing, feedMalformed} {
		feed.setMode(mode)

		status, body := do(t, s, http.MethodPost, "/api/v1/quote/next")
		assert.Equal(t, http.StatusServiceUnavailable, status)

		resp := decodeBody[dto.ErrorResponse](t, body)
		assert.Equal(t, dto.ErrorCodeFetchFailed, resp.Error.Code)
	}

	assert.Equal(t, firstQuote, s.session.Snapshot().Current)

	feed.setMode(feedServing)

	status, body := do(t, s, http.MethodPost, "/api/v1/quote/next")
	require.Equal(t, http.StatusOK, status)
	assert.NotEqual(t, dto.NewQuoteResponse(firstQuote), decodeBody[dto.CurrentQuoteResponse](t, body).Quote)
}

// TestQuotebook_PropagatesRequestHeaders verifies that the ids of an
// incoming intent reach the quote endpoint with the JSON Accept header.
func TestQuotebook_PropagatesRequestHeaders(t *testing.T) {
	feed := newQuoteFeed(firstQuote, secondQuote)
	s := startStack(t, feed, stackOptions{})

	req, err := http.NewRequestWithContext(context.Background(), http.MethodPost, s.api.URL+"/api/v1/quote/next", http.NoBody)
	require.NoError(t, err)
	req.Header.Set(middleware.HeaderRequestID, "req-next-1")
	req.Header.Set(middleware.HeaderCorrelationID, "corr-next-1")

	resp, err := s.api.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "req-next-1", resp.Header.Get(middleware.HeaderRequestID))

	got := feed.lastHeader()
	assert.Equal(t, "req-next-1", got.Get(middleware.HeaderRequestID))
	assert.Equal(t, "corr-next-1", got.Get(middleware.HeaderCorrelationID))
	assert.Equal(t, "application/json", got.Get("Accept"))
}

// TestQuotebook_CircuitOpensAfterRepeatedFailures verifies that readiness
// reports the quote endpoint once the breaker opens, and fetches stop
// reaching it.
func TestQuotebook_CircuitOpensAfterRepeatedFailures(t *testing.T) {
	feed := newQuoteFeed(firstQuote)
	s := startStack(t, feed, stackOptions{MaxFailures: 2})

	feed.setMode(feedFailing)

	for range 2 {
		status, _ := do(t, s, http.MethodPost, "/api/v1/quote/next")
		require.Equal(t, http.StatusServiceUnavailable, status)
	}

	calls := feed.callCount()

	status, body := do(t, s, http.MethodPost, "/api/v1/quote/next")
	assert.Equal(t, http.StatusServiceUnavailable, status)
	assert.Contains(t, string(body), "circuit breaker open")
	assert.Equal(t, calls, feed.callCount(), "open circuit should not reach the endpoint")

	status, body = do(t, s, http.MethodGet, "/-/ready")
	assert.Equal(t, http.StatusServiceUnavailable, status)
	assert.Contains(t, string(body), "quote-service")
}

// TestQuotebook_FavoritesSurviveRestart verifies the whole persistence
// cycle: favorite, background, restart, load.
func TestQuotebook_FavoritesSurviveRestart(t *testing.T) {
	dir := t.TempDir()
	feed := newQuoteFeed(firstQuote, secondQuote, thirdQuote)

	s, err := newStack(context.Background(), feed, stackOptions{Dir: dir})
	require.NoError(t, err)

	status, body := do(t, s, http.MethodPost, "/api/v1/favorites")
	require.Equal(t, http.StatusOK, status)
	assert.True(t, decodeBody[dto.FavoriteAddedResponse](t, body).Added)

	status, body = do(t, s, http.MethodPost, "/api/v1/favorites")
	require.Equal(t, http.StatusOK, status)
	assert.False(t, decodeBody[dto.FavoriteAddedResponse](t, body).Added, "same display favorites once")

	status, _ = do(t, s, http.MethodPost, "/api/v1/quote/next")
	require.Equal(t, http.StatusOK, status)

	status, _ = do(t, s, http.MethodPost, "/api/v1/favorites")
	require.Equal(t, http.StatusOK, status)

	status, body = doJSON(t, s, http.MethodPost, "/api/v1/lifecycle", `{"phase":"background"}`)
	require.Equal(t, http.StatusOK, status)
	assert.True(t, decodeBody[dto.LifecycleResponse](t, body).Persisted)

	require.NoError(t, s.close(context.Background()))

	data, err := os.ReadFile(s.store.Path())
	require.NoError(t, err)
	assert.Contains(t, string(data), `"quoteText": "Well begun is half done."`)

	restarted := startStack(t, feed, stackOptions{Dir: dir})

	status, body = do(t, restarted, http.MethodGet, "/api/v1/favorites")
	require.Equal(t, http.StatusOK, status)

	page := decodeBody[dto.FavoritesResponse](t, body)
	assert.Equal(t, 2, page.Total)
	assert.Equal(t, []dto.QuoteResponse{
		dto.NewQuoteResponse(firstQuote),
		dto.NewQuoteResponse(secondQuote),
	}, page.Items)
}

// TestQuotebook_CorruptFavoritesFile verifies that an unreadable file
// starts an empty collection and is replaced on the next save.
func TestQuotebook_CorruptFavoritesFile(t *testing.T) {
	dir := t.TempDir()
	s := startStack(t, newQuoteFeed(firstQuote), stackOptions{Dir: dir})

	require.NoError(t, os.WriteFile(s.store.Path(), []byte("{not json"), 0o600))
	require.Error(t, s.session.Load(context.Background()))
	assert.Equal(t, 0, s.session.Snapshot().Favorites.Len())

	s.session.FavoriteCurrent(context.Background())
	require.NoError(t, s.session.HandleLifecycle(context.Background(), domain.PhaseBackground))

	favorites, err := s.store.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []domain.Quote{firstQuote}, favorites.All())
}

func TestQuotebook_NullFavoritesFileKeepsMemory(t *testing.T) {
	s := startStack(t, newQuoteFeed(firstQuote), stackOptions{Dir: t.TempDir()})

	s.session.Add(secondQuote)
	require.NoError(t, os.WriteFile(s.store.Path(), []byte("null"), 0o600))

	err := s.session.Load(context.Background())
	require.Error(t, err)
	assert.True(t, domain.IsPersistence(err))
	assert.Equal(t, []domain.Quote{secondQuote}, s.session.Snapshot().Favorites.All())
}

// TestQuotebook_ConcurrentRefreshCancelPrevious verifies that with
// cancel_previous only the newest of overlapping fetches is applied.
func TestQuotebook_ConcurrentRefreshCancelPrevious(t *testing.T) {
	feed := newQuoteFeed(firstQuote, secondQuote, thirdQuote)
	s := startStack(t, feed, stackOptions{Policy: app.FetchPolicyCancelPrevious, MaxFailures: 100})

	feed.setDelay(50 * time.Millisecond)

	const n = 5

	handles := make([]*app.FetchHandle, n)
	for i := range n {
		handles[i] = s.session.FetchAnother(context.Background())
	}

	for _, h := range handles[:n-1] {
		<-h.Done()
		_, err := h.Wait(context.Background())
		require.Error(t, err)
		assert.False(t, h.Applied())
	}

	quote, err := handles[n-1].Wait(context.Background())
	require.NoError(t, err)
	assert.Equal(t, quote, s.session.Snapshot().Current)
}

// TestQuotebook_ConcurrentFavorites verifies that concurrent favorite
// requests for one display add exactly one quote.
func TestQuotebook_ConcurrentFavorites(t *testing.T) {
	s := startStack(t, newQuoteFeed(firstQuote), stackOptions{})

	var wg sync.WaitGroup
	for range 20 {
		wg.Go(func() {
			status, _ := do(t, s, http.MethodPost, "/api/v1/favorites")
			assert.Equal(t, http.StatusOK, status)
		})
	}
	wg.Wait()

	assert.Equal(t, 1, s.session.Snapshot().Favorites.Len())
}

// TestQuotebook_Metrics verifies that session metrics are exposed.
func TestQuotebook_Metrics(t *testing.T) {
	s := startStack(t, newQuoteFeed(firstQuote), stackOptions{})

	status, _ := do(t, s, http.MethodPost, "/api/v1/favorites")
	require.Equal(t, http.StatusOK, status)

	status, body := do(t, s, http.MethodGet, "/-/metrics")
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(body), "quotebook_quote_fetches_total")
	assert.Contains(t, string(body), "quotebook_favorites_count 1")

	count, err := testutil.GatherAndCount(s.registry, "quotebook_favorites_persist_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count, "startup load is recorded")
}
