// Package render turns a recommendation result into terminal output.
//
// The functions in this file are the display rules for candidate movies.
// They are pure: the same result always yields the same cards.
package render

import (
	"strconv"
	"strings"

	"github.com/abelbrown/moviefinder/internal/movie"
)

// OverviewLimit is the number of characters of overview shown on a card.
const OverviewLimit = 100

// Ellipsis marks a truncated overview.
const Ellipsis = "..."

// Card is the display form of one candidate movie.
type Card struct {
	Title     string
	Year      string // empty when the release date is absent
	Overview  string // truncated
	Rating    string // "8.6/10"
	Votes     string // "30000 Votes"
	PosterURL string
}

// VisibleMovies drops candidates whose rating is exactly 0, which the
// backend uses for "no rating data". Order is preserved; the input is not
// modified.
func VisibleMovies(movies []movie.Candidate) []movie.Candidate {
	out := make([]movie.Candidate, 0, len(movies))
	for _, m := range movies {
		if m.VoteAverage == 0 {
			continue
		}
		out = append(out, m)
	}
	return out
}

// TruncateOverview returns s unchanged if it has at most OverviewLimit
// characters, otherwise its first OverviewLimit characters plus Ellipsis.
func TruncateOverview(s string) string {
	runes := []rune(s)
	if len(runes) <= OverviewLimit {
		return s
	}
	return string(runes[:OverviewLimit]) + Ellipsis
}

// ReleaseYear returns the part of an ISO date before the first '-'.
// An empty date yields an empty year.
func ReleaseYear(date string) string {
	year, _, _ := strings.Cut(date, "-")
	return year
}

// PosterURL joins the image host base and a poster path. The path is not
// validated; an empty path yields the bare base.
func PosterURL(base, path string) string {
	return base + path
}

// RatingLabel formats an average rating as "8.6/10".
func RatingLabel(avg float64) string {
	return strconv.FormatFloat(avg, 'f', -1, 64) + "/10"
}

// VotesLabel formats a vote count as "30000 Votes".
func VotesLabel(n int) string {
	return strconv.Itoa(n) + " Votes"
}

// Cards builds the grid contents for a result: filtered, then formatted.
// A nil result yields no cards.
func Cards(res *movie.Result, imageBase string) []Card {
	if res == nil {
		return nil
	}
	visible := VisibleMovies(res.SimilarMovies)
	cards := make([]Card, len(visible))
	for i, m := range visible {
		cards[i] = Card{
			Title:     m.Title,
			Year:      ReleaseYear(m.ReleaseDate),
			Overview:  TruncateOverview(m.Overview),
			Rating:    RatingLabel(m.VoteAverage),
			Votes:     VotesLabel(m.VoteCount),
			PosterURL: PosterURL(imageBase, m.PosterPath),
		}
	}
	return cards
}
