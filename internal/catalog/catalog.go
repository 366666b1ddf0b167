// Package catalog provides SQLite persistence for the recommendation backend:
// the movie catalog, its full-text index, and the query result cache that
// doubles as the server's search history.
package catalog

import (
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/abelbrown/moviefinder/internal/movie"
)

// Catalog handles SQLite persistence. NOT an interface - concrete type.
// All methods are safe for concurrent use.
type Catalog struct {
	db *sql.DB
	mu sync.RWMutex
}

// Movie is one catalog entry.
type Movie struct {
	TMDBID      int
	Title       string
	Overview    string
	PosterPath  string
	ReleaseDate string // "YYYY-MM-DD", may be empty
	VoteAverage float64
	VoteCount   int
	Popularity  float64
	Genres      []string
}

// Candidate returns the wire form of m.
func (m Movie) Candidate() movie.Candidate {
	return movie.Candidate{
		Title:       m.Title,
		Overview:    m.Overview,
		PosterPath:  m.PosterPath,
		ReleaseDate: m.ReleaseDate,
		VoteAverage: m.VoteAverage,
		VoteCount:   m.VoteCount,
	}
}

// Filters narrow a retrieval. Zero values mean "no constraint".
type Filters struct {
	MinRating      float64
	MinVotes       int
	ReleasedAfter  string // inclusive, "YYYY-MM-DD"
	ReleasedBefore string // inclusive, "YYYY-MM-DD"
}

// Open creates a Catalog at dbPath, creating tables if needed.
// ":memory:" opens a fresh in-memory database private to this Catalog; file
// databases use WAL.
func Open(dbPath string) (*Catalog, error) {
	connStr := dbPath
	if dbPath == ":memory:" {
		// Named so pooled connections share it and other Opens do not.
		connStr = "file:" + uuid.NewString() + "?mode=memory&cache=shared"
	}

	db, err := sql.Open("sqlite", connStr)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if dbPath == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if dbPath != ":memory:" {
		if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
			db.Close()
			return nil, fmt.Errorf("enable WAL mode: %w", err)
		}
	}

	c := &Catalog{db: db}
	if err := c.createTables(); err != nil {
		db.Close()
		return nil, fmt.Errorf("create tables: %w", err)
	}
	return c, nil
}

func (c *Catalog) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS movies (
		tmdb_id INTEGER PRIMARY KEY,
		title TEXT NOT NULL,
		overview TEXT NOT NULL DEFAULT '',
		poster_path TEXT NOT NULL DEFAULT '',
		release_date TEXT NOT NULL DEFAULT '',
		vote_average REAL NOT NULL DEFAULT 0,
		vote_count INTEGER NOT NULL DEFAULT 0,
		popularity REAL NOT NULL DEFAULT 0,
		genres TEXT NOT NULL DEFAULT ''
	);

	CREATE INDEX IF NOT EXISTS idx_movies_popularity ON movies(popularity DESC);

	CREATE VIRTUAL TABLE IF NOT EXISTS movies_fts USING fts5(
		title, overview, genres,
		content='movies', content_rowid='tmdb_id'
	);

	CREATE TRIGGER IF NOT EXISTS movies_ai AFTER INSERT ON movies BEGIN
		INSERT INTO movies_fts(rowid, title, overview, genres)
		VALUES (new.tmdb_id, new.title, new.overview, new.genres);
	END;

	CREATE TRIGGER IF NOT EXISTS movies_ad AFTER DELETE ON movies BEGIN
		INSERT INTO movies_fts(movies_fts, rowid, title, overview, genres)
		VALUES ('delete', old.tmdb_id, old.title, old.overview, old.genres);
	END;

	CREATE TRIGGER IF NOT EXISTS movies_au AFTER UPDATE ON movies BEGIN
		INSERT INTO movies_fts(movies_fts, rowid, title, overview, genres)
		VALUES ('delete', old.tmdb_id, old.title, old.overview, old.genres);
		INSERT INTO movies_fts(rowid, title, overview, genres)
		VALUES (new.tmdb_id, new.title, new.overview, new.genres);
	END;

	CREATE TABLE IF NOT EXISTS search_history (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		query TEXT NOT NULL UNIQUE,
		result TEXT NOT NULL,
		created_at DATETIME NOT NULL
	);
	`
	if _, err := c.db.Exec(schema); err != nil {
		return fmt.Errorf("execute schema: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (c *Catalog) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.db.Close()
}

// UpsertMovies inserts or replaces movies by TMDB id and returns how many
// rows were written.
func (c *Catalog) UpsertMovies(movies []Movie) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(movies) == 0 {
		return 0, nil
	}

	tx, err := c.db.Begin()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO movies (
			tmdb_id, title, overview, poster_path, release_date,
			vote_average, vote_count, popularity, genres
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(tmdb_id) DO UPDATE SET
			title = excluded.title,
			overview = excluded.overview,
			poster_path = excluded.poster_path,
			release_date = excluded.release_date,
			vote_average = excluded.vote_average,
			vote_count = excluded.vote_count,
			popularity = excluded.popularity,
			genres = excluded.genres
	`)
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	n := 0
	for _, m := range movies {
		if _, err := stmt.Exec(
			m.TMDBID,
			m.Title,
			m.Overview,
			m.PosterPath,
			m.ReleaseDate,
			m.VoteAverage,
			m.VoteCount,
			m.Popularity,
			joinGenres(m.Genres),
		); err != nil {
			return n, fmt.Errorf("upsert %d: %w", m.TMDBID, err)
		}
		n++
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return n, nil
}

// Count returns the number of movies in the catalog.
func (c *Catalog) Count() (int, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var n int
	err := c.db.QueryRow("SELECT COUNT(*) FROM movies").Scan(&n)
	return n, err
}

const movieColumns = `m.tmdb_id, m.title, m.overview, m.poster_path, m.release_date,
	m.vote_average, m.vote_count, m.popularity, m.genres`

// ByGenre returns movies with a genre starting with genre (case-insensitive),
// most popular first.
func (c *Catalog) ByGenre(genre string, f Filters, limit int) ([]Movie, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	where, args := f.clauses()
	where = append(where, `('|' || m.genres) LIKE ? ESCAPE '\'`)
	args = append(args, "%|"+escapeLike(genre)+"%")

	query := `SELECT ` + movieColumns + ` FROM movies m
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY m.popularity DESC
		LIMIT ?`
	args = append(args, limit)

	return c.queryMovies(query, args...)
}

// Search ranks movies against terms with FTS5 bm25. Any term may match.
// With no usable terms the most popular movies are returned.
func (c *Catalog) Search(terms []string, f Filters, limit int) ([]Movie, error) {
	match := ftsQuery(terms)

	c.mu.RLock()
	defer c.mu.RUnlock()

	where, args := f.clauses()
	if match == "" {
		query := `SELECT ` + movieColumns + ` FROM movies m
			WHERE ` + strings.Join(where, " AND ") + `
			ORDER BY m.popularity DESC
			LIMIT ?`
		return c.queryMovies(query, append(args, limit)...)
	}

	where = append(where, "movies_fts MATCH ?")
	args = append(args, match)
	query := `SELECT ` + movieColumns + ` FROM movies_fts
		JOIN movies m ON m.tmdb_id = movies_fts.rowid
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY bm25(movies_fts)
		LIMIT ?`
	return c.queryMovies(query, append(args, limit)...)
}

// CachedResult returns the stored result for q, if any.
func (c *Catalog) CachedResult(q string) (movie.Result, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var raw string
	err := c.db.QueryRow("SELECT result FROM search_history WHERE query = ?", q).Scan(&raw)
	if err == sql.ErrNoRows {
		return movie.Result{}, false, nil
	}
	if err != nil {
		return movie.Result{}, false, err
	}

	var res movie.Result
	if err := json.Unmarshal([]byte(raw), &res); err != nil {
		return movie.Result{}, false, fmt.Errorf("decode cached result: %w", err)
	}
	return res, true, nil
}

// SaveResult records q and its result. An existing entry for q is kept.
func (c *Catalog) SaveResult(q string, res movie.Result) error {
	raw, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("encode result: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	_, err = c.db.Exec(
		"INSERT OR IGNORE INTO search_history (query, result, created_at) VALUES (?, ?, ?)",
		q, string(raw), time.Now().UTC(),
	)
	return err
}

// Queries returns every recorded query in insertion order.
func (c *Catalog) Queries() ([]string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	rows, err := c.db.Query("SELECT query FROM search_history ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	queries := []string{}
	for rows.Next() {
		var q string
		if err := rows.Scan(&q); err != nil {
			return nil, err
		}
		queries = append(queries, q)
	}
	return queries, rows.Err()
}

// queryMovies runs query and scans rows into Movies.
// Caller must hold c.mu.
func (c *Catalog) queryMovies(query string, args ...any) ([]Movie, error) {
	rows, err := c.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var movies []Movie
	for rows.Next() {
		var m Movie
		var genres string
		if err := rows.Scan(
			&m.TMDBID,
			&m.Title,
			&m.Overview,
			&m.PosterPath,
			&m.ReleaseDate,
			&m.VoteAverage,
			&m.VoteCount,
			&m.Popularity,
			&genres,
		); err != nil {
			return nil, err
		}
		m.Genres = splitGenres(genres)
		movies = append(movies, m)
	}
	return movies, rows.Err()
}

// clauses renders f as SQL conditions on the movies alias m. The result is
// never empty so callers can always join with AND.
func (f Filters) clauses() ([]string, []any) {
	where := []string{"1 = 1"}
	var args []any
	if f.MinRating > 0 {
		where = append(where, "m.vote_average >= ?")
		args = append(args, f.MinRating)
	}
	if f.MinVotes > 0 {
		where = append(where, "m.vote_count >= ?")
		args = append(args, f.MinVotes)
	}
	if f.ReleasedAfter != "" {
		where = append(where, "m.release_date >= ?")
		args = append(args, f.ReleasedAfter)
	}
	if f.ReleasedBefore != "" {
		where = append(where, "m.release_date <= ?")
		args = append(args, f.ReleasedBefore)
	}
	return where, args
}

// ftsQuery quotes each term and ORs them. Quotes inside terms are doubled,
// which is FTS5's escape.
func ftsQuery(terms []string) string {
	var parts []string
	for _, t := range terms {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		parts = append(parts, `"`+strings.ReplaceAll(t, `"`, `""`)+`"`)
	}
	return strings.Join(parts, " OR ")
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

func joinGenres(genres []string) string {
	return strings.Join(genres, "|")
}

func splitGenres(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, "|")
}
