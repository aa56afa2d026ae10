package dto

import (
	"github.com/jsamuelsen/quotebook/internal/domain"
)

// QuoteResponse is the HTTP representation of a quote. Field names follow
// the quote service's own vocabulary.
type QuoteResponse struct {
	Text       string `json:"quoteText"`
	Author     string `json:"quoteAuthor"`
	SenderName string `json:"senderName"`
	SenderLink string `json:"senderLink"`
	Link       string `json:"quoteLink"`
}

// NewQuoteResponse converts a domain Quote.
func NewQuoteResponse(q domain.Quote) QuoteResponse {
	return QuoteResponse{
		Text:       q.Text,
		Author:     q.Author,
		SenderName: q.SenderName,
		SenderLink: q.SenderLink,
		Link:       q.Link,
	}
}

// NewQuoteResponses converts quotes in order. It never returns nil.
func NewQuoteResponses(quotes []domain.Quote) []QuoteResponse {
	out := make([]QuoteResponse, len(quotes))
	for i, q := range quotes {
		out[i] = NewQuoteResponse(q)
	}

	return out
}

// FavoritesResponse is the whole favorites collection in insertion order.
type FavoritesResponse struct {
	Items []QuoteResponse `json:"items"`
	Total int             `json:"total"`
}

// NewFavoritesResponse converts the favorites collection.
func NewFavoritesResponse(quotes []domain.Quote) FavoritesResponse {
	return FavoritesResponse{
		Items: NewQuoteResponses(quotes),
		Total: len(quotes),
	}
}

// CurrentQuoteResponse is the displayed quote and whether it was already
// added to the favorites since it was displayed.
type CurrentQuoteResponse struct {
	Quote     QuoteResponse `json:"quote"`
	Favorited bool          `json:"favorited"`
}

// FavoriteAddedResponse reports the outcome of favoriting the current quote.
type FavoriteAddedResponse struct {
	// Added is false when the displayed quote was already favorited.
	Added bool `json:"added"`
	Count int  `json:"count"`
}

// LifecycleRequest announces a lifecycle phase change.
type LifecycleRequest struct {
	Phase string `json:"phase" validate:"required,phase"`
}

// ToPhase returns the requested phase. The request must have passed
// validation, which rejects unknown phases.
func (r *LifecycleRequest) ToPhase() domain.Phase {
	phase, _ := domain.ParsePhase(r.Phase)
	return phase
}

// LifecycleResponse reports how a phase change was handled.
type LifecycleResponse struct {
	Phase string `json:"phase"`

	// Persisted is true when the phase saved the favorites successfully.
	Persisted bool `json:"persisted"`

	// Error describes a failed save. The session keeps running with its
	// in-memory favorites.
	Error string `json:"error,omitempty"`
}
