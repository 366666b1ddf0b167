package search

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/abelbrown/moviefinder/internal/movie"
	"github.com/abelbrown/moviefinder/internal/otel"
	"github.com/abelbrown/moviefinder/internal/session"
)

// fakeBackend records queries and answers from a function.
type fakeBackend struct {
	queries []string
	answer  func(q string) (movie.Result, error)
}

func (f *fakeBackend) Query(_ context.Context, q string) (movie.Result, error) {
	f.queries = append(f.queries, q)
	return f.answer(q)
}

func okBackend() *fakeBackend {
	return &fakeBackend{answer: func(q string) (movie.Result, error) {
		return movie.Result{
			Recommendation: "Try " + q,
			SimilarMovies:  []movie.Candidate{{Title: "Interstellar", VoteAverage: 8.6}},
		}, nil
	}}
}

func failingBackend(err error) *fakeBackend {
	return &fakeBackend{answer: func(string) (movie.Result, error) { return movie.Result{}, err }}
}

func TestBeginRaisesLoading(t *testing.T) {
	var s session.State
	s.SetQuery("sci-fi movie")
	c := NewController(okBackend(), nil)

	req := c.Begin(&s, Current)

	if !s.Loading() {
		t.Error("Begin should set loading")
	}
	if req.Query != "sci-fi movie" {
		t.Errorf("req.Query = %q, want current query", req.Query)
	}
	if req.ID == "" {
		t.Error("req.ID should be set")
	}
}

func TestBeginPrefersExplicit(t *testing.T) {
	var s session.State
	s.SetQuery("typed text")
	req := NewController(okBackend(), nil).Begin(&s, Explicit("comedy"))
	if req.Query != "comedy" {
		t.Errorf("req.Query = %q, want comedy", req.Query)
	}
}

func TestLoadingClearedOnEveryOutcome(t *testing.T) {
	tests := []struct {
		name    string
		backend *fakeBackend
	}{
		{"success", okBackend()},
		{"network failure", failingBackend(errors.New("dial tcp: connection refused"))},
		{"panic", &fakeBackend{answer: func(string) (movie.Result, error) { panic("boom") }}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var s session.State
			s.SetQuery("q")
			c := NewController(tt.backend, nil)

			req := c.Begin(&s, Current)
			if !s.Loading() {
				t.Fatal("loading should be true while in flight")
			}
			c.Finish(&s, c.Run(context.Background(), req))
			if s.Loading() {
				t.Error("loading should be false after Finish")
			}
		})
	}
}

func TestSearchSuccess(t *testing.T) {
	var s session.State
	s.SetQuery("sci-fi movie")
	backend := okBackend()

	out := NewController(backend, nil).Search(context.Background(), &s, Current)

	if !out.OK() {
		t.Fatalf("unexpected error: %v", out.Err)
	}
	if s.Result() == nil || s.Result().Recommendation != "Try sci-fi movie" {
		t.Errorf("Result() = %+v", s.Result())
	}
	if got := s.History(); len(got) != 1 || got[0] != "sci-fi movie" {
		t.Errorf("History() = %v", got)
	}
	if len(backend.queries) != 1 || backend.queries[0] != "sci-fi movie" {
		t.Errorf("backend saw %v", backend.queries)
	}
}

func TestFailureKeepsPreviousResult(t *testing.T) {
	var s session.State
	prev := &movie.Result{Recommendation: "earlier"}
	s.SetResult(prev)
	s.SetQuery("q")

	out := NewController(failingBackend(errors.New("network down")), nil).Search(context.Background(), &s, Current)

	if out.OK() {
		t.Fatal("expected failure outcome")
	}
	if s.Result() != prev {
		t.Error("failure must not replace the result")
	}
	if s.HistoryLen() != 0 {
		t.Error("failure must not append history")
	}
	if s.Loading() {
		t.Error("loading must be cleared")
	}
}

func TestFailureWithNoPriorResult(t *testing.T) {
	var s session.State
	NewController(failingBackend(errors.New("x")), nil).Search(context.Background(), &s, Current)
	if s.Result() != nil {
		t.Error("result should stay nil")
	}
}

func TestHistoryReplayDoesNotDuplicate(t *testing.T) {
	var s session.State
	s.SetHistory([]string{"space movies", "comedy"})
	c := NewController(okBackend(), nil)

	// Picking a history entry sets the query and searches explicitly.
	s.SetQuery("comedy")
	c.Search(context.Background(), &s, Explicit("comedy"))

	if s.HistoryLen() != 2 {
		t.Errorf("HistoryLen() = %d, want 2: %v", s.HistoryLen(), s.History())
	}
}

func TestHistoryRecordsSentQuery(t *testing.T) {
	var s session.State
	s.SetQuery("stale input")
	NewController(okBackend(), nil).Search(context.Background(), &s, Explicit("comedy"))

	got := s.History()
	if len(got) != 1 || got[0] != "comedy" {
		t.Errorf("History() = %v, want [comedy]", got)
	}
}

func TestRepeatedSubmissionsNeverDuplicate(t *testing.T) {
	var s session.State
	c := NewController(okBackend(), nil)
	for _, q := range []string{"a", "b", "a", "a", "c", "b"} {
		s.SetQuery(q)
		c.Search(context.Background(), &s, Current)
	}

	seen := map[string]bool{}
	for _, h := range s.History() {
		if seen[h] {
			t.Fatalf("duplicate %q in %v", h, s.History())
		}
		seen[h] = true
	}
	if s.HistoryLen() != 3 {
		t.Errorf("HistoryLen() = %d, want 3", s.HistoryLen())
	}
}

func TestEmptyQueryIsSentButNotRecorded(t *testing.T) {
	var s session.State
	backend := okBackend()
	NewController(backend, nil).Search(context.Background(), &s, Current)

	if len(backend.queries) != 1 || backend.queries[0] != "" {
		t.Errorf("backend saw %q, want one empty query", backend.queries)
	}
	if s.HistoryLen() != 0 {
		t.Errorf("blank query should not be recorded: %v", s.History())
	}
	if s.Result() == nil {
		t.Error("result should still be applied")
	}
}

func TestLastFinishWins(t *testing.T) {
	var s session.State
	c := NewController(okBackend(), nil)

	first := c.Begin(&s, Explicit("first"))
	second := c.Begin(&s, Explicit("second"))

	// Responses arrive out of order.
	c.Finish(&s, c.Run(context.Background(), second))
	c.Finish(&s, c.Run(context.Background(), first))

	if s.Result().Recommendation != "Try first" {
		t.Errorf("Result() = %q, want the last arrival", s.Result().Recommendation)
	}
	if s.Loading() {
		t.Error("loading should be false after the last arrival")
	}
}

func TestEventsEmitted(t *testing.T) {
	var buf bytes.Buffer
	events := otel.NewLogger(&buf)

	var s session.State
	s.SetQuery("ok")
	c := NewController(okBackend(), events)
	c.Search(context.Background(), &s, Current)

	c = NewController(failingBackend(errors.New("refused")), events)
	c.Search(context.Background(), &s, Current)
	events.Close()

	out := buf.String()
	for _, kind := range []string{"search.start", "search.complete", "search.error"} {
		if !strings.Contains(out, `"kind":"`+kind+`"`) {
			t.Errorf("event log missing %s:\n%s", kind, out)
		}
	}
}

func TestRecordable(t *testing.T) {
	tests := map[string]bool{"": false, "   ": false, "comedy": true, " sci-fi ": true}
	for q, want := range tests {
		if got := Recordable(q); got != want {
			t.Errorf("Recordable(%q) = %v, want %v", q, got, want)
		}
	}
}
