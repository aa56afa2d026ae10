// Package ports defines interfaces for external dependencies.
// Ports are contracts that adapters implement, allowing the application layer
// to depend on abstractions rather than concrete implementations.
//
// Port Design Principles:
//   - Context as first parameter (always) for cancellation and deadlines
//   - Return domain types, never external DTOs or infrastructure types
//   - Error returns use domain error types (ErrFetch, ErrPersistence, etc.)
package ports

import (
	"context"

	"github.com/jsamuelsen/quotebook/internal/domain"
)

// QuoteClient retrieves quotes from the remote quote endpoint.
type QuoteClient interface {
	// FetchQuote performs a single request for a random quote.
	// Every failure is a *domain.FetchError wrapping the cause.
	FetchQuote(ctx context.Context) (domain.Quote, error)
}

// FavoritesRepository persists the favorites collection as a whole.
// There is no partial or incremental persistence: Save replaces
// whatever was stored before, and Load returns the entire collection.
type FavoritesRepository interface {
	// Load reads the stored collection.
	// Returns a *domain.PersistenceError if nothing is stored yet or the
	// stored data cannot be decoded.
	Load(ctx context.Context) (domain.Favorites, error)

	// Save atomically replaces the stored collection with favorites.
	// Returns a *domain.PersistenceError on I/O failure; a failed Save
	// leaves the previously stored collection intact.
	Save(ctx context.Context, favorites domain.Favorites) error
}
