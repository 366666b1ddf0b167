// Package api is the HTTP client for the recommendation backend.
//
// The backend exposes two endpoints:
//
//	GET  /api/history  -> ["query", ...]
//	POST /api/query    {"query": "..."} -> {"recommendation": "...", "similar_movies": [...]}
package api

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	json "github.com/goccy/go-json"

	"github.com/abelbrown/moviefinder/internal/movie"
)

// Failure classes. Every error returned by Client wraps exactly one of these.
var (
	// ErrNetwork: the request could not be sent or no response arrived.
	ErrNetwork = errors.New("network failure")
	// ErrStatus: the backend answered with a non-2xx status.
	ErrStatus = errors.New("unexpected status")
	// ErrMalformed: the body is not the expected JSON shape.
	ErrMalformed = errors.New("malformed response")
)

// maxBody caps how much of a response is read.
const maxBody = 8 << 20

// Client talks to one backend.
type Client struct {
	base   string
	client *http.Client
}

// NewClient creates a client for the backend at base (scheme://host[:port]).
// timeout <= 0 means requests never time out on their own.
func NewClient(base string, timeout time.Duration) *Client {
	c := &http.Client{}
	if timeout > 0 {
		c.Timeout = timeout
	}
	return &Client{
		base:   strings.TrimRight(base, "/"),
		client: c,
	}
}

// BaseURL returns the backend base URL.
func (c *Client) BaseURL() string {
	return c.base
}

// History fetches the backend's remembered queries.
func (c *Client) History(ctx context.Context) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+"/api/history", nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	body, err := c.do(req)
	if err != nil {
		return nil, err
	}

	var history []string
	if err := json.Unmarshal(body, &history); err != nil {
		return nil, fmt.Errorf("%w: history: %v", ErrMalformed, err)
	}
	if history == nil {
		history = []string{}
	}
	return history, nil
}

// Query sends q unchanged and returns the backend's recommendation.
func (c *Client) Query(ctx context.Context, q string) (movie.Result, error) {
	payload, err := json.Marshal(movie.QueryRequest{Query: q})
	if err != nil {
		return movie.Result{}, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+"/api/query", bytes.NewReader(payload))
	if err != nil {
		return movie.Result{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	body, err := c.do(req)
	if err != nil {
		return movie.Result{}, err
	}

	return DecodeResult(body)
}

// DecodeResult parses a query response body. The body must be a JSON object;
// a missing similar_movies list decodes as empty.
func DecodeResult(body []byte) (movie.Result, error) {
	var raw struct {
		Recommendation *string           `json:"recommendation"`
		SimilarMovies  []movie.Candidate `json:"similar_movies"`
	}
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return movie.Result{}, fmt.Errorf("%w: expected JSON object", ErrMalformed)
	}
	if err := json.Unmarshal(trimmed, &raw); err != nil {
		return movie.Result{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if raw.Recommendation == nil {
		return movie.Result{}, fmt.Errorf("%w: missing recommendation", ErrMalformed)
	}

	res := movie.Result{
		Recommendation: *raw.Recommendation,
		SimilarMovies:  raw.SimilarMovies,
	}
	if res.SimilarMovies == nil {
		res.SimilarMovies = []movie.Candidate{}
	}
	return res, nil
}

func (c *Client) do(req *http.Request) ([]byte, error) {
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s %s: %v", ErrNetwork, req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", ErrNetwork, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: %s %s: %d %s", ErrStatus, req.Method, req.URL.Path, resp.StatusCode, snippet(body))
	}
	return body, nil
}

const maxSnippet = 200 // runes

// snippet is the start of a response body for error messages, cut on a rune
// boundary.
func snippet(b []byte) string {
	runes := []rune(strings.TrimSpace(string(b)))
	if len(runes) > maxSnippet {
		return string(runes[:maxSnippet]) + "..."
	}
	return string(runes)
}
