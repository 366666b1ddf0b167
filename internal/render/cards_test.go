package render

import (
	"reflect"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/abelbrown/moviefinder/internal/movie"
)

const imageBase = "https://image.tmdb.org/t/p/w500"

func scenarioA() *movie.Result {
	return &movie.Result{
		Recommendation: "Try Interstellar.",
		SimilarMovies: []movie.Candidate{{
			Title:       "Interstellar",
			Overview:    "A team of explorers...",
			PosterPath:  "/abc.jpg",
			ReleaseDate: "2014-11-07",
			VoteAverage: 8.6,
			VoteCount:   30000,
		}},
	}
}

func TestCardsScenarioA(t *testing.T) {
	cards := Cards(scenarioA(), imageBase)
	if len(cards) != 1 {
		t.Fatalf("got %d cards, want 1", len(cards))
	}
	want := Card{
		Title:     "Interstellar",
		Year:      "2014",
		Overview:  "A team of explorers...",
		Rating:    "8.6/10",
		Votes:     "30000 Votes",
		PosterURL: "https://image.tmdb.org/t/p/w500/abc.jpg",
	}
	if cards[0] != want {
		t.Errorf("card = %+v\nwant   %+v", cards[0], want)
	}
}

func TestZeroRatingExcluded(t *testing.T) {
	res := &movie.Result{SimilarMovies: []movie.Candidate{
		{Title: "Unrated", VoteAverage: 0},
		{Title: "Barely", VoteAverage: 0.1},
		{Title: "Great", VoteAverage: 9},
	}}

	cards := Cards(res, imageBase)
	var titles []string
	for _, c := range cards {
		titles = append(titles, c.Title)
	}
	if !reflect.DeepEqual(titles, []string{"Barely", "Great"}) {
		t.Errorf("titles = %v, want [Barely Great]", titles)
	}
}

func TestVisibleMoviesDoesNotModifyInput(t *testing.T) {
	in := []movie.Candidate{{Title: "a", VoteAverage: 0}, {Title: "b", VoteAverage: 5}}
	VisibleMovies(in)
	if in[0].Title != "a" || len(in) != 2 {
		t.Errorf("input modified: %+v", in)
	}
}

func TestCardsIdempotent(t *testing.T) {
	res := scenarioA()
	res.SimilarMovies = append(res.SimilarMovies,
		movie.Candidate{Title: "Long", Overview: strings.Repeat("x", 300), VoteAverage: 7},
		movie.Candidate{Title: "Zero", VoteAverage: 0},
	)

	first := Cards(res, imageBase)
	second := Cards(res, imageBase)
	if !reflect.DeepEqual(first, second) {
		t.Errorf("rendering twice differs:\n%v\n%v", first, second)
	}
	if len(res.SimilarMovies) != 3 || res.SimilarMovies[1].Overview != strings.Repeat("x", 300) {
		t.Error("Cards must not modify the result")
	}
}

func TestTruncateOverview(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"short", "A team of explorers...", "A team of explorers..."},
		{"exactly limit", strings.Repeat("a", 100), strings.Repeat("a", 100)},
		{"one over", strings.Repeat("a", 101), strings.Repeat("a", 100) + "..."},
		{"multibyte", strings.Repeat("é", 120), strings.Repeat("é", 100) + "..."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := TruncateOverview(tt.in)
			if got != tt.want {
				t.Errorf("TruncateOverview() = %q, want %q", got, tt.want)
			}
			body := strings.TrimSuffix(got, Ellipsis)
			if got != tt.in && utf8.RuneCountInString(body) > OverviewLimit {
				t.Errorf("truncated body has %d chars", utf8.RuneCountInString(body))
			}
		})
	}
}

func TestReleaseYear(t *testing.T) {
	tests := map[string]string{
		"2014-11-07": "2014",
		"1999":       "1999",
		"":           "",
	}
	for in, want := range tests {
		if got := ReleaseYear(in); got != want {
			t.Errorf("ReleaseYear(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestCardWithoutReleaseDate(t *testing.T) {
	res := &movie.Result{SimilarMovies: []movie.Candidate{{Title: "Unknown date", VoteAverage: 6}}}
	cards := Cards(res, imageBase)
	if cards[0].Year != "" {
		t.Errorf("Year = %q, want empty", cards[0].Year)
	}
}

func TestPosterURLNoValidation(t *testing.T) {
	if got := PosterURL(imageBase, ""); got != imageBase {
		t.Errorf("PosterURL with empty path = %q", got)
	}
}

func TestLabels(t *testing.T) {
	if got := RatingLabel(7); got != "7/10" {
		t.Errorf("RatingLabel(7) = %q", got)
	}
	if got := RatingLabel(8.25); got != "8.25/10" {
		t.Errorf("RatingLabel(8.25) = %q", got)
	}
	if got := VotesLabel(0); got != "0 Votes" {
		t.Errorf("VotesLabel(0) = %q", got)
	}
}

func TestCardsNilResult(t *testing.T) {
	if Cards(nil, imageBase) != nil {
		t.Error("nil result should yield no cards")
	}
}
