package app

import "github.com/jsamuelsen/quotebook/internal/domain"

// State is what the user sees: the displayed quote, the favorites
// collection and whether the displayed quote was already favorited.
// Transitions are pure and return a new State.
type State struct {
	Current          domain.Quote
	Favorites        domain.Favorites
	CurrentFavorited bool
}

// InitialState shows the seed quote with no favorites.
func InitialState() State {
	return State{Current: domain.SeedQuote}
}

// WithQuote displays q and clears the favorited flag.
func (s State) WithQuote(q domain.Quote) State {
	s.Current = q
	s.CurrentFavorited = false

	return s
}

// WithFavorites replaces the favorites collection.
func (s State) WithFavorites(f domain.Favorites) State {
	s.Favorites = f

	return s
}

// FavoriteCurrent appends the displayed quote to the favorites once per
// display. It reports false and leaves s unchanged if the displayed quote
// was already favorited.
func (s State) FavoriteCurrent() (State, bool) {
	if s.CurrentFavorited {
		return s, false
	}

	s.Favorites = s.Favorites.Add(s.Current)
	s.CurrentFavorited = true

	return s, true
}
