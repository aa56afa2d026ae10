// Package domain contains core business entities and rules.
package domain

// Quote is a quotation together with the metadata of whoever submitted it.
// All fields are strings so the type is comparable: two quotes are equal
// when every field is equal, and a Quote can be used as a map key.
// There is no identifier; identical quotes are indistinguishable.
type Quote struct {
	// Text is the quotation itself.
	Text string

	// Author is who said or wrote the quote.
	Author string

	// SenderName is the name of the person who submitted the quote. May be empty.
	SenderName string

	// SenderLink is a URL for the submitter. May be empty.
	SenderLink string

	// Link is the canonical URL of the quote at its source.
	Link string
}

// IsZero reports whether q has no fields set.
func (q Quote) IsZero() bool {
	return q == Quote{}
}

// SeedQuote is displayed before the first successful fetch.
var SeedQuote = Quote{
	Text: "When you are offended at any man's fault, turn to yourself and study your own failings. " +
		"Then you will forget your anger.",
	Author: "Epictetus",
	Link:   "http://forismatic.com/en/22b6b234e5/",
}

// Favorites is an ordered collection of quotes the user has marked.
// Insertion order is preserved and duplicates are allowed.
// The zero value is an empty collection.
type Favorites struct {
	items []Quote
}

// NewFavorites creates a collection holding a copy of quotes, in order.
func NewFavorites(quotes ...Quote) Favorites {
	if len(quotes) == 0 {
		return Favorites{}
	}

	items := make([]Quote, len(quotes))
	copy(items, quotes)

	return Favorites{items: items}
}

// Add returns a new collection with q appended at the end.
// The receiver is not modified, and no deduplication is performed.
func (f Favorites) Add(q Quote) Favorites {
	items := make([]Quote, len(f.items), len(f.items)+1)
	copy(items, f.items)

	return Favorites{items: append(items, q)}
}

// Len returns the number of quotes in the collection.
func (f Favorites) Len() int {
	return len(f.items)
}

// All returns a copy of the quotes in insertion order.
// It never returns nil.
func (f Favorites) All() []Quote {
	out := make([]Quote, len(f.items))
	copy(out, f.items)

	return out
}

// Contains reports whether q appears at least once.
func (f Favorites) Contains(q Quote) bool {
	for _, item := range f.items {
		if item == q {
			return true
		}
	}

	return false
}

// Equal reports whether both collections hold the same quotes in the same order.
func (f Favorites) Equal(other Favorites) bool {
	if len(f.items) != len(other.items) {
		return false
	}

	for i := range f.items {
		if f.items[i] != other.items[i] {
			return false
		}
	}

	return true
}
