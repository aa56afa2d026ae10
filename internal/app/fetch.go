package app

import (
	"context"

	"github.com/jsamuelsen/quotebook/internal/domain"
)

// ErrSuperseded is reported by a fetch whose result was discarded because
// a newer fetch started first (cancel_previous policy only).
var ErrSuperseded error = &domain.ConflictError{
	Entity: "quote fetch",
	Reason: "superseded by a newer request",
}

// FetchPolicy decides how overlapping fetches interact.
type FetchPolicy string

const (
	// FetchPolicyLastCompleted lets every fetch run; the last one to finish
	// decides the displayed quote.
	FetchPolicyLastCompleted FetchPolicy = "last_completed"

	// FetchPolicyCancelPrevious cancels the in-flight fetch when a new one
	// starts, and discards any result that arrives from a superseded fetch.
	FetchPolicyCancelPrevious FetchPolicy = "cancel_previous"
)

// ParseFetchPolicy parses a configured policy name. Empty means the default.
func ParseFetchPolicy(s string) (FetchPolicy, error) {
	switch FetchPolicy(s) {
	case "", FetchPolicyLastCompleted:
		return FetchPolicyLastCompleted, nil
	case FetchPolicyCancelPrevious:
		return FetchPolicyCancelPrevious, nil
	default:
		return "", domain.NewValidationErrorWithValue("fetch_policy", "unknown fetch policy", s)
	}
}

// FetchHandle tracks one background fetch started by Session.FetchAnother.
// Quote, Err and Applied are meaningful once Done is closed.
type FetchHandle struct {
	seq    uint64
	done   chan struct{}
	cancel context.CancelFunc

	// Written once before done is closed.
	quote   domain.Quote
	err     error
	applied bool
}

func newFetchHandle(seq uint64, cancel context.CancelFunc) *FetchHandle {
	return &FetchHandle{
		seq:    seq,
		done:   make(chan struct{}),
		cancel: cancel,
	}
}

// Seq is the fetch's position in request order, starting at 1.
func (h *FetchHandle) Seq() uint64 {
	return h.seq
}

// Done is closed when the fetch has finished and its outcome was applied
// to (or discarded from) the session state.
func (h *FetchHandle) Done() <-chan struct{} {
	return h.done
}

// Cancel abandons the fetch. It is safe to call at any time.
func (h *FetchHandle) Cancel() {
	h.cancel()
}

// Wait blocks until the fetch finishes or ctx is done. Giving up on the
// wait does not cancel the fetch.
func (h *FetchHandle) Wait(ctx context.Context) (domain.Quote, error) {
	select {
	case <-h.done:
		return h.quote, h.err
	case <-ctx.Done():
		return domain.Quote{}, ctx.Err()
	}
}

func (h *FetchHandle) finished() bool {
	select {
	case <-h.done:
		return true
	default:
		return false
	}
}

// Quote returns the fetched quote, or the zero Quote while the fetch is
// running or if it failed.
func (h *FetchHandle) Quote() domain.Quote {
	if !h.finished() {
		return domain.Quote{}
	}

	return h.quote
}

// Err returns the fetch failure, ErrSuperseded, or nil. It is nil while
// the fetch is running.
func (h *FetchHandle) Err() error {
	if !h.finished() {
		return nil
	}

	return h.err
}

// Applied reports whether the fetched quote became the displayed quote.
func (h *FetchHandle) Applied() bool {
	if !h.finished() {
		return false
	}

	return h.applied
}
