// Package search runs one recommendation request against the session.
//
// A search is split in three so a Bubble Tea program can run the network
// call off the Update loop:
//
//	req := c.Begin(&state, search.Current)   // loading = true
//	out := c.Run(ctx, req)                   // network, in a tea.Cmd
//	c.Finish(&state, out)                    // result/history, loading = false
//
// Search does all three in order for callers that can block.
package search

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/abelbrown/moviefinder/internal/logging"
	"github.com/abelbrown/moviefinder/internal/movie"
	"github.com/abelbrown/moviefinder/internal/otel"
	"github.com/abelbrown/moviefinder/internal/session"
)

// Backend performs the query call. *api.Client satisfies it.
type Backend interface {
	Query(ctx context.Context, q string) (movie.Result, error)
}

// Input is an optional explicit query.
type Input struct {
	Query string
	Set   bool
}

// Current searches with the session's current query.
var Current = Input{}

// Explicit searches with q regardless of the session's query.
func Explicit(q string) Input {
	return Input{Query: q, Set: true}
}

// Request is one in-flight search.
type Request struct {
	ID      string
	Query   string // the value sent to the backend
	Started time.Time
}

// Outcome is either a Result or an Err, never both.
type Outcome struct {
	Request Request
	Result  movie.Result
	Err     error
	Dur     time.Duration
}

// OK reports whether the search succeeded.
func (o Outcome) OK() bool { return o.Err == nil }

// Controller runs searches against a Backend.
type Controller struct {
	backend Backend
	events  *otel.Logger
}

// NewController creates a controller. events may be nil.
func NewController(backend Backend, events *otel.Logger) *Controller {
	return &Controller{backend: backend, events: events}
}

// Begin raises the loading flag and fixes the query to send.
func (c *Controller) Begin(s *session.State, in Input) Request {
	s.SetLoading(true)

	q := s.Query()
	if in.Set {
		q = in.Query
	}
	req := Request{ID: uuid.NewString(), Query: q, Started: time.Now()}

	c.events.Emit(otel.Event{
		Level:   otel.LevelInfo,
		Kind:    otel.KindSearchStart,
		Comp:    "search",
		QueryID: req.ID,
		Query:   q,
	})
	return req
}

// Run sends the query. It does not touch session state and never panics;
// a panic in the backend is reported as an error outcome.
func (c *Controller) Run(ctx context.Context, req Request) (out Outcome) {
	out.Request = req
	defer func() {
		if r := recover(); r != nil {
			out.Result = movie.Result{}
			out.Err = panicError{r}
		}
		out.Dur = time.Since(req.Started)
	}()

	out.Result, out.Err = c.backend.Query(ctx, req.Query)
	return out
}

// Finish applies an outcome. On success the result is replaced and the sent
// query is added to history if new; on failure the previous result stays.
// The loading flag is cleared last in both cases.
func (c *Controller) Finish(s *session.State, out Outcome) {
	defer s.SetLoading(false)

	if out.Err != nil {
		logging.Error("recommendation request failed",
			"qid", out.Request.ID, "query", out.Request.Query, "err", out.Err)
		c.events.Emit(otel.Event{
			Level:   otel.LevelError,
			Kind:    otel.KindSearchError,
			Comp:    "search",
			QueryID: out.Request.ID,
			Query:   out.Request.Query,
			Dur:     out.Dur,
			Err:     out.Err.Error(),
		})
		return
	}

	res := out.Result
	s.SetResult(&res)
	if Recordable(out.Request.Query) {
		s.AppendHistory(out.Request.Query)
	}

	c.events.Emit(otel.Event{
		Level:   otel.LevelInfo,
		Kind:    otel.KindSearchComplete,
		Comp:    "search",
		QueryID: out.Request.ID,
		Query:   out.Request.Query,
		Dur:     out.Dur,
		Count:   len(res.SimilarMovies),
	})
}

// Search runs Begin, Run and Finish in order.
func (c *Controller) Search(ctx context.Context, s *session.State, in Input) Outcome {
	req := c.Begin(s, in)
	out := c.Run(ctx, req)
	c.Finish(s, out)
	return out
}

// Recordable reports whether q belongs in history. Blank queries are sent to
// the backend but not remembered.
func Recordable(q string) bool {
	return strings.TrimSpace(q) != ""
}

type panicError struct{ v any }

func (p panicError) Error() string {
	return fmt.Sprintf("backend panic: %v", p.v)
}
