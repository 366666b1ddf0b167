// Package recommend answers a free-text query with candidate movies from the
// catalog and a narrative written by an LLM.
//
// Queries naming a genre retrieve that genre's most popular titles; other
// queries use full-text retrieval on the query's keywords. Answers that found
// candidates are cached per query, and the cache is the server's history.
package recommend

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/abelbrown/moviefinder/internal/brain"
	"github.com/abelbrown/moviefinder/internal/catalog"
	"github.com/abelbrown/moviefinder/internal/logging"
	"github.com/abelbrown/moviefinder/internal/movie"
	"github.com/abelbrown/moviefinder/internal/otel"
	"github.com/abelbrown/moviefinder/internal/render"
)

const (
	// GenreLimit is how many titles a genre query retrieves.
	GenreLimit = 150
	// SearchLimit is how many titles a keyword query retrieves.
	SearchLimit = 5

	systemPrompt = "You are a movie recommendation assistant."
	temperature  = 0.7
	maxTokens    = 1024
)

// Store is the catalog surface the recommender needs. *catalog.Catalog
// satisfies it.
type Store interface {
	ByGenre(genre string, f catalog.Filters, limit int) ([]catalog.Movie, error)
	Search(terms []string, f catalog.Filters, limit int) ([]catalog.Movie, error)
	CachedResult(q string) (movie.Result, bool, error)
	SaveResult(q string, res movie.Result) error
	Queries() ([]string, error)
}

// Recommender runs the query pipeline.
type Recommender struct {
	store  Store
	llm    *brain.ProviderManager
	events *otel.Logger
}

// New creates a Recommender. llm and events may be nil; without an
// available provider the narrative is a plain list of the candidates.
func New(store Store, llm *brain.ProviderManager, events *otel.Logger) *Recommender {
	return &Recommender{store: store, llm: llm, events: events}
}

// Recommend answers q. A cached answer is returned as-is.
func (r *Recommender) Recommend(ctx context.Context, q string) (movie.Result, error) {
	cached, ok, err := r.store.CachedResult(q)
	if err != nil {
		logging.Warn("result cache read failed", "query", q, "err", err)
	}
	if ok {
		r.events.Emit(otel.Event{Level: otel.LevelInfo, Kind: otel.KindCacheHit, Comp: "recommend", Query: q})
		return cached, nil
	}

	movies, err := r.retrieve(q)
	if err != nil {
		return movie.Result{}, fmt.Errorf("retrieve: %w", err)
	}

	narrative, err := r.narrate(ctx, q, movies)
	if err != nil {
		return movie.Result{}, err
	}

	res := movie.Result{
		Recommendation: narrative,
		SimilarMovies:  make([]movie.Candidate, len(movies)),
	}
	for i, m := range movies {
		res.SimilarMovies[i] = m.Candidate()
	}

	if len(movies) > 0 {
		if err := r.store.SaveResult(q, res); err != nil {
			logging.Warn("result cache write failed", "query", q, "err", err)
		}
	}
	return res, nil
}

// History returns every cached query in the order first asked.
func (r *Recommender) History() ([]string, error) {
	return r.store.Queries()
}

func (r *Recommender) retrieve(q string) ([]catalog.Movie, error) {
	keywords := Keywords(q)
	filters := ParseFilters(q)

	if genre, ok := MatchGenre(keywords); ok {
		logging.Debug("genre retrieval", "query", q, "genre", genre)
		return r.store.ByGenre(CatalogGenre(genre), filters, GenreLimit)
	}
	logging.Debug("keyword retrieval", "query", q, "keywords", keywords)
	return r.store.Search(keywords, filters, SearchLimit)
}

func (r *Recommender) narrate(ctx context.Context, q string, movies []catalog.Movie) (string, error) {
	p := r.llm.GetAvailable()
	if p == nil {
		return FallbackNarrative(movies), nil
	}

	start := time.Now()
	resp, err := p.Generate(ctx, brain.Request{
		SystemPrompt: systemPrompt,
		UserPrompt:   Prompt(q, movies),
		MaxTokens:    maxTokens,
		Temperature:  temperature,
	})
	if err != nil {
		r.events.Emit(otel.Event{
			Level: otel.LevelError,
			Kind:  otel.KindLLMError,
			Comp:  "recommend",
			Query: q,
			Dur:   time.Since(start),
			Err:   err.Error(),
			Extra: map[string]any{"provider": p.Name()},
		})
		return "", fmt.Errorf("%s: %w", p.Name(), err)
	}
	return resp.Content, nil
}

// Prompt is the user prompt sent to the LLM: the candidate titles, one per
// line, then the query.
func Prompt(q string, movies []catalog.Movie) string {
	titles := make([]string, len(movies))
	for i, m := range movies {
		titles[i] = m.Title
	}
	return fmt.Sprintf("Recommend a movie similar to: %s\nbased on user's query :%s\nand explain why",
		strings.Join(titles, "\n"), q)
}

// FallbackNarrative lists the top candidates in markdown when no LLM is
// configured.
func FallbackNarrative(movies []catalog.Movie) string {
	if len(movies) == 0 {
		return "No movies in the catalog matched your query."
	}

	var b strings.Builder
	b.WriteString("Based on your query, you might enjoy:\n\n")
	for i, m := range movies {
		if i == SearchLimit {
			break
		}
		fmt.Fprintf(&b, "- **%s**", m.Title)
		if year := render.ReleaseYear(m.ReleaseDate); year != "" {
			fmt.Fprintf(&b, " (%s)", year)
		}
		if m.VoteAverage > 0 {
			fmt.Fprintf(&b, ", rated %s", render.RatingLabel(m.VoteAverage))
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}
