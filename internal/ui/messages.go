// Package ui provides the Bubble Tea TUI for moviefinder.
package ui

import "github.com/abelbrown/moviefinder/internal/search"

// HistoryLoaded is sent once when the startup history fetch finishes.
type HistoryLoaded struct {
	Entries []string
	Err     error
}

// SearchDone is sent when a recommendation request settles.
type SearchDone struct {
	Outcome search.Outcome
}
