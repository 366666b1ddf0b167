// Package server exposes the recommendation pipeline over HTTP using the
// contract the moviefinder client speaks:
//
//	POST /api/query    {"query": "..."} -> {"recommendation": "...", "similar_movies": [...]}
//	GET  /api/history  -> ["query", ...]
//	GET  /health       -> {"status": "ok", "movies": N}
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/goccy/go-json"

	"github.com/abelbrown/moviefinder/internal/logging"
	"github.com/abelbrown/moviefinder/internal/movie"
	"github.com/abelbrown/moviefinder/internal/otel"
)

const maxRequestBodySize = 64 << 10

// Recommender answers queries. *recommend.Recommender satisfies it.
type Recommender interface {
	Recommend(ctx context.Context, q string) (movie.Result, error)
	History() ([]string, error)
}

// Counter reports the catalog size for /health. *catalog.Catalog satisfies it.
type Counter interface {
	Count() (int, error)
}

// Options configures the handler. The zero value allows any origin and
// disables rate limiting.
type Options struct {
	CORSOrigins        []string
	RateLimitPerMinute int // per client IP, /api/query only; 0 disables
	Catalog            Counter
	Events             *otel.Logger
}

// New builds the router.
func New(rec Recommender, opts Options) http.Handler {
	origins := opts.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.Recoverer)
	r.Use(requestEvents(opts.Events))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type"},
		MaxAge:         86400,
	}))

	r.Get("/health", handleHealth(opts.Catalog))
	r.Get("/api/history", handleHistory(rec))
	r.Group(func(r chi.Router) {
		if opts.RateLimitPerMinute > 0 {
			r.Use(httprate.LimitByIP(opts.RateLimitPerMinute, time.Minute))
		}
		r.Post("/api/query", handleQuery(rec))
	})
	return r
}

func handleHealth(cat Counter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := map[string]any{"status": "ok"}
		if cat != nil {
			n, err := cat.Count()
			if err != nil {
				httpError(w, http.StatusServiceUnavailable, "catalog unavailable: %v", err)
				return
			}
			resp["movies"] = n
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func handleHistory(rec Recommender) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		history, err := rec.History()
		if err != nil {
			logging.Error("history read failed", "err", err)
			httpError(w, http.StatusInternalServerError, "history unavailable")
			return
		}
		if history == nil {
			history = []string{}
		}
		writeJSON(w, http.StatusOK, history)
	}
}

func handleQuery(rec Recommender) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
		defer r.Body.Close()

		body, err := io.ReadAll(r.Body)
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				httpError(w, http.StatusRequestEntityTooLarge, "request body too large")
				return
			}
			httpError(w, http.StatusBadRequest, "read request body: %v", err)
			return
		}

		// A missing query field is an empty query.
		var req movie.QueryRequest
		if err := json.Unmarshal(body, &req); err != nil {
			httpError(w, http.StatusBadRequest, "invalid request body: %v", err)
			return
		}

		res, err := rec.Recommend(r.Context(), req.Query)
		if err != nil {
			logging.Error("recommend failed", "query", req.Query, "err", err)
			httpError(w, http.StatusBadGateway, "recommendation failed: %v", err)
			return
		}
		if res.SimilarMovies == nil {
			res.SimilarMovies = []movie.Candidate{}
		}
		writeJSON(w, http.StatusOK, res)
	}
}

// requestEvents emits one server.request event per request.
func requestEvents(events *otel.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			level := otel.LevelInfo
			if status >= 500 {
				level = otel.LevelError
			} else if status >= 400 {
				level = otel.LevelWarn
			}
			events.Emit(otel.Event{
				Level:   level,
				Kind:    otel.KindServerRequest,
				Comp:    "server",
				QueryID: chimiddleware.GetReqID(r.Context()),
				Status:  status,
				Dur:     time.Since(start),
				Msg:     r.Method + " " + r.URL.Path,
			})
			logging.Debug("request", "method", r.Method, "path", r.URL.Path, "status", status, "dur", time.Since(start))
		})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		logging.Error("encode response failed", "err", err)
		http.Error(w, `{"error":"encode response"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(data)
}

func httpError(w http.ResponseWriter, status int, format string, args ...any) {
	writeJSON(w, status, map[string]string{"error": fmt.Sprintf(format, args...)})
}
