// Package tmdb imports popular movies from The Movie Database into the
// catalog.
package tmdb

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/goccy/go-json"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/abelbrown/moviefinder/internal/catalog"
	"github.com/abelbrown/moviefinder/internal/logging"
	"github.com/abelbrown/moviefinder/internal/otel"
)

// DefaultBaseURL is the TMDB v3 API root.
const DefaultBaseURL = "https://api.themoviedb.org/3"

const (
	maxConcurrentPages = 4
	requestTimeout     = 30 * time.Second
)

// Client is a minimal TMDB API client.
type Client struct {
	base    string
	apiKey  string
	http    *http.Client
	limiter *rate.Limiter
}

// NewClient creates a client against DefaultBaseURL.
func NewClient(apiKey string) *Client {
	return &Client{
		base:    DefaultBaseURL,
		apiKey:  apiKey,
		http:    &http.Client{Timeout: requestTimeout},
		limiter: rate.NewLimiter(rate.Limit(20), 5), // TMDB allows ~40 rps
	}
}

// WithBaseURL points the client at another host (tests, proxies).
func (c *Client) WithBaseURL(base string) *Client {
	c.base = strings.TrimRight(base, "/")
	return c
}

// Movie is one entry of /movie/popular.
type Movie struct {
	ID          int     `json:"id"`
	Title       string  `json:"title"`
	Overview    string  `json:"overview"`
	ReleaseDate string  `json:"release_date"`
	Popularity  float64 `json:"popularity"`
	PosterPath  string  `json:"poster_path"`
	VoteAverage float64 `json:"vote_average"`
	VoteCount   int     `json:"vote_count"`
	GenreIDs    []int   `json:"genre_ids"`
	Adult       bool    `json:"adult"`
}

// Genres returns the movie genre names by id.
func (c *Client) Genres(ctx context.Context) (map[int]string, error) {
	var resp struct {
		Genres []struct {
			ID   int    `json:"id"`
			Name string `json:"name"`
		} `json:"genres"`
	}
	if err := c.get(ctx, "/genre/movie/list", nil, &resp); err != nil {
		return nil, err
	}

	genres := make(map[int]string, len(resp.Genres))
	for _, g := range resp.Genres {
		genres[g.ID] = g.Name
	}
	return genres, nil
}

// Popular returns one page of popular movies with adult titles removed.
func (c *Client) Popular(ctx context.Context, page int) ([]Movie, error) {
	var resp struct {
		Results []Movie `json:"results"`
	}
	params := url.Values{"page": {strconv.Itoa(page)}}
	if err := c.get(ctx, "/movie/popular", params, &resp); err != nil {
		return nil, err
	}

	movies := resp.Results[:0]
	for _, m := range resp.Results {
		if !m.Adult {
			movies = append(movies, m)
		}
	}
	return movies, nil
}

func (c *Client) get(ctx context.Context, path string, params url.Values, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("tmdb: rate limiter wait failed: %w", err)
	}

	if params == nil {
		params = url.Values{}
	}
	params.Set("api_key", c.apiKey)
	params.Set("language", "en-US")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+path+"?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("tmdb: create request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("tmdb: request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("tmdb: read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("tmdb: %s returned status %d", path, resp.StatusCode)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("tmdb: decode %s: %w", path, err)
	}
	return nil
}

// Sink receives imported movies. *catalog.Catalog satisfies it.
type Sink interface {
	UpsertMovies(movies []catalog.Movie) (int, error)
}

// Stats summarizes an import.
type Stats struct {
	Pages  int // pages fetched successfully
	Movies int // movies written
	Errors int // pages that failed
}

// Importer copies popular pages into a Sink.
type Importer struct {
	client *Client
	sink   Sink
	events *otel.Logger
}

// NewImporter creates an importer. events may be nil.
func NewImporter(client *Client, sink Sink, events *otel.Logger) *Importer {
	return &Importer{client: client, sink: sink, events: events}
}

// Import fetches pages 1..pages concurrently. A failed page is logged and
// skipped; only cancellation aborts the import.
func (im *Importer) Import(ctx context.Context, pages int) (Stats, error) {
	genres, err := im.client.Genres(ctx)
	if err != nil {
		// Movies still import, just without genre names.
		logging.Warn("tmdb genre list failed", "err", err)
		im.events.Error(otel.KindImportError, "import", err)
		genres = map[int]string{}
	}

	var fetched, written, failed atomic.Int64

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentPages)

	for page := 1; page <= pages; page++ {
		g.Go(func() error {
			if gCtx.Err() != nil {
				return gCtx.Err()
			}
			start := time.Now()

			movies, err := im.client.Popular(gCtx, page)
			if err != nil {
				failed.Add(1)
				logging.Warn("tmdb page failed", "page", page, "err", err)
				im.events.Emit(otel.Event{Level: otel.LevelWarn, Kind: otel.KindImportError, Comp: "import", Err: err.Error(), Extra: map[string]any{"page": page}})
				return nil
			}

			n, err := im.sink.UpsertMovies(ToCatalog(movies, genres))
			if err != nil {
				return fmt.Errorf("store page %d: %w", page, err)
			}
			fetched.Add(1)
			written.Add(int64(n))
			im.events.Emit(otel.Event{Level: otel.LevelInfo, Kind: otel.KindImportPage, Comp: "import", Count: n, Dur: time.Since(start), Extra: map[string]any{"page": page}})
			return nil
		})
	}

	err = g.Wait()
	stats := Stats{Pages: int(fetched.Load()), Movies: int(written.Load()), Errors: int(failed.Load())}
	if err == nil {
		err = ctx.Err()
	}
	return stats, err
}

// ToCatalog maps TMDB movies to catalog rows, resolving genre ids to names.
// Unknown ids are dropped.
func ToCatalog(movies []Movie, genres map[int]string) []catalog.Movie {
	out := make([]catalog.Movie, 0, len(movies))
	for _, m := range movies {
		var names []string
		for _, id := range m.GenreIDs {
			if name, ok := genres[id]; ok {
				names = append(names, name)
			}
		}
		out = append(out, catalog.Movie{
			TMDBID:      m.ID,
			Title:       m.Title,
			Overview:    m.Overview,
			PosterPath:  m.PosterPath,
			ReleaseDate: m.ReleaseDate,
			VoteAverage: m.VoteAverage,
			VoteCount:   m.VoteCount,
			Popularity:  m.Popularity,
			Genres:      names,
		})
	}
	return out
}
