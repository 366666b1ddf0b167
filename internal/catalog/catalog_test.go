package catalog

import (
	"reflect"
	"testing"

	"github.com/abelbrown/moviefinder/internal/movie"
)

func openTest(t *testing.T) *Catalog {
	t.Helper()
	c, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

func seed(t *testing.T, c *Catalog) {
	t.Helper()
	movies := []Movie{
		{TMDBID: 1, Title: "Interstellar", Overview: "Explorers travel through a wormhole in space.", ReleaseDate: "2014-11-07", VoteAverage: 8.6, VoteCount: 30000, Popularity: 90, Genres: []string{"Adventure", "Science Fiction"}},
		{TMDBID: 2, Title: "Alien", Overview: "A crew meets a deadly alien in space.", ReleaseDate: "1979-05-25", VoteAverage: 8.1, VoteCount: 12000, Popularity: 60, Genres: []string{"Horror", "Science Fiction"}},
		{TMDBID: 3, Title: "Superbad", Overview: "Two friends try to enjoy their last days of school.", ReleaseDate: "2007-08-17", VoteAverage: 7.2, VoteCount: 8000, Popularity: 40, Genres: []string{"Comedy"}},
		{TMDBID: 4, Title: "Barbie", Overview: "Barbie leaves Barbieland.", ReleaseDate: "2023-07-19", VoteAverage: 7.0, VoteCount: 400, Popularity: 95, Genres: []string{"Comedy", "Adventure"}},
	}
	if n, err := c.UpsertMovies(movies); err != nil || n != len(movies) {
		t.Fatalf("UpsertMovies = %d, %v", n, err)
	}
}

func titles(movies []Movie) []string {
	var out []string
	for _, m := range movies {
		out = append(out, m.Title)
	}
	return out
}

func TestOpenCreatesTables(t *testing.T) {
	c := openTest(t)
	for _, table := range []string{"movies", "movies_fts", "search_history"} {
		var name string
		err := c.db.QueryRow("SELECT name FROM sqlite_master WHERE name = ?", table).Scan(&name)
		if err != nil {
			t.Errorf("table %s not created: %v", table, err)
		}
	}
}

func TestMemoryCatalogsAreIsolated(t *testing.T) {
	a := openTest(t)
	b := openTest(t)
	seed(t, a)

	if n, err := b.Count(); err != nil || n != 0 {
		t.Errorf("second catalog Count() = %d, %v, want 0", n, err)
	}
	if n, err := a.Count(); err != nil || n != 4 {
		t.Errorf("first catalog Count() = %d, %v, want 4", n, err)
	}
}

func TestUpsertMoviesReplaces(t *testing.T) {
	c := openTest(t)
	seed(t, c)

	if _, err := c.UpsertMovies([]Movie{{TMDBID: 3, Title: "Superbad (Extended)", VoteAverage: 7.3, Genres: []string{"Comedy"}}}); err != nil {
		t.Fatalf("UpsertMovies failed: %v", err)
	}

	n, err := c.Count()
	if err != nil || n != 4 {
		t.Errorf("Count() = %d, %v; want 4", n, err)
	}

	got, err := c.Search([]string{"extended"}, Filters{}, 5)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if !reflect.DeepEqual(titles(got), []string{"Superbad (Extended)"}) {
		t.Errorf("FTS should see the updated title, got %v", titles(got))
	}
}

func TestByGenreSortsByPopularity(t *testing.T) {
	c := openTest(t)
	seed(t, c)

	got, err := c.ByGenre("comedy", Filters{}, 150)
	if err != nil {
		t.Fatalf("ByGenre failed: %v", err)
	}
	if want := []string{"Barbie", "Superbad"}; !reflect.DeepEqual(titles(got), want) {
		t.Errorf("ByGenre(comedy) = %v, want %v", titles(got), want)
	}
}

func TestByGenrePrefix(t *testing.T) {
	c := openTest(t)
	seed(t, c)

	got, err := c.ByGenre("Science", Filters{}, 10)
	if err != nil {
		t.Fatalf("ByGenre failed: %v", err)
	}
	if want := []string{"Interstellar", "Alien"}; !reflect.DeepEqual(titles(got), want) {
		t.Errorf("ByGenre(Science) = %v, want %v", titles(got), want)
	}
}

func TestFilters(t *testing.T) {
	c := openTest(t)
	seed(t, c)

	tests := []struct {
		name string
		f    Filters
		want []string
	}{
		{"top rated", Filters{MinRating: 8.5}, []string{"Interstellar"}},
		{"popular", Filters{MinVotes: 500}, []string{"Interstellar", "Alien", "Superbad"}},
		{"recent", Filters{ReleasedAfter: "2020-01-01"}, []string{"Barbie"}},
		{"old", Filters{ReleasedBefore: "2000-01-01"}, []string{"Alien"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := c.Search(nil, tt.f, 10)
			if err != nil {
				t.Fatalf("Search failed: %v", err)
			}
			// No terms: ordered by popularity.
			if !reflect.DeepEqual(titles(got), tt.want) {
				t.Errorf("got %v, want %v", titles(got), tt.want)
			}
		})
	}
}

func TestSearchFTS(t *testing.T) {
	c := openTest(t)
	seed(t, c)

	got, err := c.Search([]string{"alien"}, Filters{}, 5)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(got) == 0 || got[0].Title != "Alien" {
		t.Errorf("Search(alien) = %v", titles(got))
	}

	got, err = c.Search([]string{`wormhole"`}, Filters{}, 5)
	if err != nil {
		t.Fatalf("Search with quote failed: %v", err)
	}
	if len(got) != 1 || got[0].Title != "Interstellar" {
		t.Errorf("Search(wormhole\") = %v", titles(got))
	}
}

func TestSearchHonorsLimit(t *testing.T) {
	c := openTest(t)
	seed(t, c)

	got, err := c.Search([]string{"space"}, Filters{}, 1)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(got) != 1 {
		t.Errorf("got %d movies, want 1", len(got))
	}
}

func TestGenresRoundTrip(t *testing.T) {
	c := openTest(t)
	seed(t, c)

	got, err := c.ByGenre("horror", Filters{}, 1)
	if err != nil || len(got) != 1 {
		t.Fatalf("ByGenre = %v, %v", got, err)
	}
	if want := []string{"Horror", "Science Fiction"}; !reflect.DeepEqual(got[0].Genres, want) {
		t.Errorf("Genres = %v, want %v", got[0].Genres, want)
	}
}

func TestResultCache(t *testing.T) {
	c := openTest(t)

	if _, ok, err := c.CachedResult("comedy"); ok || err != nil {
		t.Fatalf("empty cache: ok=%v err=%v", ok, err)
	}

	res := movie.Result{
		Recommendation: "Watch Superbad.",
		SimilarMovies:  []movie.Candidate{{Title: "Superbad", VoteAverage: 7.2}},
	}
	if err := c.SaveResult("comedy", res); err != nil {
		t.Fatalf("SaveResult failed: %v", err)
	}
	// A second save for the same query keeps the first.
	if err := c.SaveResult("comedy", movie.Result{Recommendation: "other"}); err != nil {
		t.Fatalf("SaveResult again failed: %v", err)
	}

	got, ok, err := c.CachedResult("comedy")
	if err != nil || !ok {
		t.Fatalf("CachedResult: ok=%v err=%v", ok, err)
	}
	if !reflect.DeepEqual(got, res) {
		t.Errorf("CachedResult = %+v, want %+v", got, res)
	}
}

func TestQueriesInsertionOrder(t *testing.T) {
	c := openTest(t)

	got, err := c.Queries()
	if err != nil {
		t.Fatalf("Queries failed: %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Errorf("empty history should be an empty, non-nil slice: %#v", got)
	}

	for _, q := range []string{"space movies", "comedy", "space movies", "old horror"} {
		if err := c.SaveResult(q, movie.Result{Recommendation: q}); err != nil {
			t.Fatalf("SaveResult(%q) failed: %v", q, err)
		}
	}

	got, err = c.Queries()
	if err != nil {
		t.Fatalf("Queries failed: %v", err)
	}
	if want := []string{"space movies", "comedy", "old horror"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Queries() = %v, want %v", got, want)
	}
}

func TestFTSQuery(t *testing.T) {
	tests := []struct {
		in   []string
		want string
	}{
		{nil, ""},
		{[]string{" ", ""}, ""},
		{[]string{"space"}, `"space"`},
		{[]string{"space", "alien"}, `"space" OR "alien"`},
		{[]string{`say "hi"`}, `"say ""hi"""`},
	}
	for _, tt := range tests {
		if got := ftsQuery(tt.in); got != tt.want {
			t.Errorf("ftsQuery(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
