// Package movie defines the wire types shared by the client and the
// recommendation backend.
package movie

// Candidate is one movie returned alongside a recommendation.
// Snapshot of the backend's record; never mutated locally.
type Candidate struct {
	Title       string  `json:"title"`
	Overview    string  `json:"overview"`
	PosterPath  string  `json:"poster_path"`
	ReleaseDate string  `json:"release_date,omitempty"` // ISO date, may be absent
	VoteAverage float64 `json:"vote_average"`           // 0-10, 0 means no rating data
	VoteCount   int     `json:"vote_count"`
}

// Result is the outcome of one query.
type Result struct {
	Recommendation string      `json:"recommendation"` // markdown
	SimilarMovies  []Candidate `json:"similar_movies"`
}

// QueryRequest is the body of POST /api/query.
type QueryRequest struct {
	Query string `json:"query"`
}
