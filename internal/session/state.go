// Package session holds the client's session-scoped state.
//
// State is a plain value owned by the top-level view. Every setter replaces
// a field wholesale; slices handed in or out are copied so that no caller
// can observe or cause a partial edit.
package session

import (
	"slices"

	"github.com/abelbrown/moviefinder/internal/movie"
)

// State is the session store. The zero value is an empty session.
type State struct {
	query          string
	result         *movie.Result
	loading        bool
	history        []string
	historyVisible bool
}

// Query returns the current query text.
func (s *State) Query() string { return s.query }

// SetQuery replaces the current query text.
func (s *State) SetQuery(q string) { s.query = q }

// Result returns the last fetched result, or nil if none.
func (s *State) Result() *movie.Result { return s.result }

// SetResult replaces the last fetched result.
func (s *State) SetResult(r *movie.Result) { s.result = r }

// Loading reports whether a request is in flight.
func (s *State) Loading() bool { return s.loading }

// SetLoading replaces the loading flag.
func (s *State) SetLoading(v bool) { s.loading = v }

// History returns a copy of the query history in insertion order.
func (s *State) History() []string { return slices.Clone(s.history) }

// HistoryLen returns the number of history entries.
func (s *State) HistoryLen() int { return len(s.history) }

// SetHistory replaces the history with a copy of h.
func (s *State) SetHistory(h []string) { s.history = slices.Clone(h) }

// HasHistory reports whether q is already in the history.
func (s *State) HasHistory(q string) bool { return slices.Contains(s.history, q) }

// AppendHistory appends q unless it is already present.
// Reports whether the history changed.
func (s *State) AppendHistory(q string) bool {
	if s.HasHistory(q) {
		return false
	}
	next := make([]string, len(s.history), len(s.history)+1)
	copy(next, s.history)
	s.history = append(next, q)
	return true
}

// HistoryVisible reports whether the history panel is open.
func (s *State) HistoryVisible() bool { return s.historyVisible }

// SetHistoryVisible replaces the history panel visibility.
func (s *State) SetHistoryVisible(v bool) { s.historyVisible = v }

// ToggleHistory flips the history panel visibility.
func (s *State) ToggleHistory() { s.historyVisible = !s.historyVisible }
