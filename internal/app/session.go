// Package app contains the application session that coordinates the quote
// client, the favorites repository and the user-visible state.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"go.opentelemetry.io/otel/attribute"

	"github.com/jsamuelsen/quotebook/internal/domain"
	"github.com/jsamuelsen/quotebook/internal/platform/logging"
	"github.com/jsamuelsen/quotebook/internal/platform/telemetry"
	"github.com/jsamuelsen/quotebook/internal/ports"
)

// ErrSessionClosed is the cause of fetches started after Close.
var ErrSessionClosed = errors.New("session closed")

// SessionConfig contains the session's dependencies.
type SessionConfig struct {
	QuoteClient ports.QuoteClient
	Favorites   ports.FavoritesRepository

	// Policy decides how overlapping fetches interact.
	// Defaults to FetchPolicyLastCompleted.
	Policy FetchPolicy

	// Metrics defaults to unregistered collectors.
	Metrics *Metrics

	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// Session owns the application state. All methods are safe for
// concurrent use.
type Session struct {
	quotes    ports.QuoteClient
	favorites ports.FavoritesRepository
	policy    FetchPolicy
	metrics   *Metrics
	logger    *slog.Logger

	mu          sync.Mutex
	state       State
	seq         uint64
	inflight    map[uint64]*FetchHandle
	closed      bool
	lastSaveErr error

	// saveMu orders saves so the last Save call is the one left on disk.
	saveMu sync.Mutex

	fetches sync.WaitGroup
}

// NewSession creates a session showing the seed quote.
// Panics if QuoteClient or Favorites is nil.
func NewSession(cfg SessionConfig) *Session {
	if cfg.QuoteClient == nil {
		panic("Session: QuoteClient is required")
	}

	if cfg.Favorites == nil {
		panic("Session: Favorites is required")
	}

	policy := cfg.Policy
	if policy == "" {
		policy = FetchPolicyLastCompleted
	}

	metrics := cfg.Metrics
	if metrics == nil {
		metrics = NewMetrics(nil)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Session{
		quotes:    cfg.QuoteClient,
		favorites: cfg.Favorites,
		policy:    policy,
		metrics:   metrics,
		logger:    logger.With(slog.String("component", "app.Session")),
		state:     InitialState(),
		inflight:  make(map[uint64]*FetchHandle),
	}
}

// Policy returns the configured fetch policy.
func (s *Session) Policy() FetchPolicy {
	return s.policy
}

// Start loads the stored favorites and fetches the first quote
// concurrently. Neither failure is returned: without stored favorites the
// collection stays empty, and without a quote the seed quote stays up.
func (s *Session) Start(ctx context.Context) {
	ctx, span := telemetry.StartSpan(ctx, "session.start")
	defer span.End()

	loaded, fetched := ParallelPartial2(ctx,
		s.favorites.Load,
		func(ctx context.Context) (domain.Quote, error) {
			return s.FetchAnother(ctx).Wait(ctx)
		},
	)

	s.applyLoad(ctx, loaded.Value, loaded.Err)

	switch {
	case fetched.Err == nil:
	case errors.Is(fetched.Err, ErrSuperseded):
		s.logger.DebugContext(ctx, "initial quote superseded by a newer fetch")
	default:
		s.logger.WarnContext(ctx, "initial quote unavailable, keeping seed quote",
			slog.Any("error", fetched.Err))
	}
}

// FetchAnother starts a fetch in the background and returns immediately.
// On success the fetched quote replaces the displayed one, subject to the
// fetch policy. On failure the state is left unchanged.
func (s *Session) FetchAnother(ctx context.Context) *FetchHandle {
	fetchCtx, cancel := context.WithCancel(ctx)

	s.mu.Lock()
	s.seq++
	h := newFetchHandle(s.seq, cancel)

	if s.closed {
		s.mu.Unlock()
		cancel()
		h.err = domain.NewFetchError(ErrSessionClosed)
		close(h.done)

		return h
	}

	if s.policy == FetchPolicyCancelPrevious {
		for _, prev := range s.inflight {
			prev.Cancel()
		}
	}

	s.inflight[h.seq] = h
	s.fetches.Add(1)
	s.mu.Unlock()

	fetchCtx = logging.WithAttrs(fetchCtx, slog.Uint64("fetch_seq", h.seq))

	go func() {
		defer s.fetches.Done()
		defer cancel()

		ctx, span := telemetry.StartSpan(fetchCtx, "session.fetch",
			attribute.Int64("quotebook.fetch_seq", int64(h.seq)),
			attribute.String("quotebook.fetch_policy", string(s.policy)))
		defer span.End()

		quote, err := s.quotes.FetchQuote(ctx)
		telemetry.RecordError(span, err)

		s.complete(ctx, h, quote, err)
	}()

	return h
}

// complete applies a finished fetch to the state and releases its handle.
func (s *Session) complete(ctx context.Context, h *FetchHandle, quote domain.Quote, err error) {
	logger := logging.FromContext(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	defer close(h.done)

	delete(s.inflight, h.seq)

	superseded := s.policy == FetchPolicyCancelPrevious && h.seq != s.seq

	switch {
	case superseded:
		h.err = ErrSuperseded
		s.metrics.fetch(FetchResultSuperseded)
		logger.DebugContext(ctx, "discarding superseded fetch", slog.Uint64("latest_seq", s.seq))

	case err != nil && errors.Is(err, context.Canceled):
		h.err = err
		s.metrics.fetch(FetchResultCanceled)
		logger.DebugContext(ctx, "fetch canceled")

	case err != nil:
		h.err = err
		s.metrics.fetch(FetchResultFailure)
		logger.WarnContext(ctx, "quote fetch failed, keeping current quote", slog.Any("error", err))

	default:
		h.quote = quote
		h.applied = true
		s.state = s.state.WithQuote(quote)
		s.metrics.fetch(FetchResultSuccess)
		logger.InfoContext(ctx, "quote updated", slog.String("quote_author", quote.Author))
	}
}

// Refresh fetches a quote and waits for it. It returns the fetch failure,
// ErrSuperseded, or ctx's error.
func (s *Session) Refresh(ctx context.Context) (domain.Quote, error) {
	return s.FetchAnother(ctx).Wait(ctx)
}

// FavoriteCurrent adds the displayed quote to the favorites unless it was
// already added since it was displayed. It reports whether it was added.
func (s *Session) FavoriteCurrent(ctx context.Context) bool {
	s.mu.Lock()
	next, added := s.state.FavoriteCurrent()
	s.state = next
	count := next.Favorites.Len()
	s.mu.Unlock()

	if added {
		s.metrics.setFavorites(count)
		logging.FromContext(ctx).InfoContext(ctx, "quote favorited", slog.Int("favorites", count))
	}

	return added
}

// Add appends q to the favorites without touching the favorited flag.
// Duplicates are kept.
func (s *Session) Add(q domain.Quote) {
	s.mu.Lock()
	s.state = s.state.WithFavorites(s.state.Favorites.Add(q))
	count := s.state.Favorites.Len()
	s.mu.Unlock()

	s.metrics.setFavorites(count)
}

// Snapshot returns a copy of the current state.
func (s *Session) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.state
}

// Save writes the in-memory favorites to the repository. The in-memory
// collection is kept whether or not the write succeeds.
func (s *Session) Save(ctx context.Context) error {
	ctx, span := telemetry.StartSpan(ctx, "session.save")
	defer span.End()

	s.saveMu.Lock()
	defer s.saveMu.Unlock()

	favorites := s.Snapshot().Favorites

	err := s.favorites.Save(ctx, favorites)
	telemetry.RecordError(span, err)
	s.metrics.persist(string(domain.OpSave), err)

	s.mu.Lock()
	s.lastSaveErr = err
	s.mu.Unlock()

	if err != nil {
		return fmt.Errorf("saving favorites: %w", err)
	}

	logging.FromContext(ctx).DebugContext(ctx, "favorites saved", slog.Int("favorites", favorites.Len()))

	return nil
}

// Load replaces the in-memory favorites with the stored collection.
// On failure the in-memory collection is unchanged.
func (s *Session) Load(ctx context.Context) error {
	ctx, span := telemetry.StartSpan(ctx, "session.load")
	defer span.End()

	favorites, err := s.favorites.Load(ctx)
	telemetry.RecordError(span, err)
	s.applyLoad(ctx, favorites, err)

	if err != nil {
		return fmt.Errorf("loading favorites: %w", err)
	}

	return nil
}

func (s *Session) applyLoad(ctx context.Context, favorites domain.Favorites, err error) {
	s.metrics.persist(string(domain.OpLoad), err)

	logger := logging.FromContext(ctx)

	switch {
	case err != nil && domain.IsNotFound(err):
		logger.InfoContext(ctx, "no favorites saved yet", slog.Any("error", err))
		return
	case err != nil:
		logger.WarnContext(ctx, "favorites could not be loaded", slog.Any("error", err))
		return
	}

	s.mu.Lock()
	s.state = s.state.WithFavorites(favorites)
	s.mu.Unlock()

	s.metrics.setFavorites(favorites.Len())
	logger.InfoContext(ctx, "favorites loaded", slog.Int("favorites", favorites.Len()))
}

// LastSaveError returns the outcome of the most recent Save, nil if it
// succeeded or no save was attempted.
func (s *Session) LastSaveError() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.lastSaveErr
}

// HandleLifecycle reacts to a lifecycle phase change. Entering the
// background saves the favorites; a failed save is logged and returned,
// and the session keeps running with its in-memory favorites.
func (s *Session) HandleLifecycle(ctx context.Context, phase domain.Phase) error {
	logger := logging.FromContext(ctx).With(slog.String("phase", phase.String()))

	switch phase {
	case domain.PhaseActive, domain.PhaseInactive:
		logger.DebugContext(ctx, "lifecycle phase changed")
		return nil

	case domain.PhaseBackground:
		if err := s.Save(ctx); err != nil {
			logger.ErrorContext(ctx, "saving favorites on background failed", slog.Any("error", err))
			return err
		}

		logger.InfoContext(ctx, "favorites saved on background")

		return nil

	default:
		return domain.NewValidationErrorWithValue("phase", "unknown lifecycle phase", int(phase))
	}
}

// Close cancels every in-flight fetch and waits for them to finish or
// for ctx to be done. Fetches started after Close fail immediately.
func (s *Session) Close(ctx context.Context) error {
	s.mu.Lock()
	s.closed = true
	for _, h := range s.inflight {
		h.Cancel()
	}
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.fetches.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("waiting for in-flight fetches: %w", ctx.Err())
	}
}
