// Package otel records structured events for moviefinder.
//
// Events are typed structs written as JSONL by an asynchronous Logger.
// A RingBuffer can be attached to keep the most recent events in memory
// for the TUI debug overlay.
package otel

import (
	"time"

	json "github.com/goccy/go-json"
)

// Level is an event severity.
type Level string

const (
	LevelDebug Level = "debug"
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

// EventKind names what happened, as "<subsystem>.<action>".
type EventKind string

const (
	// Client events
	KindHistoryLoad    EventKind = "history.load"
	KindHistoryError   EventKind = "history.error"
	KindSearchStart    EventKind = "search.start"
	KindSearchComplete EventKind = "search.complete"
	KindSearchError    EventKind = "search.error"

	// UI events
	KindKeyPress EventKind = "ui.key"

	// Backend events
	KindServerRequest EventKind = "server.request"
	KindCacheHit      EventKind = "server.cache_hit"
	KindLLMError      EventKind = "llm.error"
	KindImportPage    EventKind = "import.page"
	KindImportError   EventKind = "import.error"

	// System events
	KindStartup  EventKind = "sys.startup"
	KindShutdown EventKind = "sys.shutdown"

	// Message tracing, only when MOVIEFINDER_TRACE is set
	KindMsgReceived EventKind = "trace.msg_received"
	KindMsgHandled  EventKind = "trace.msg_handled"
)

// Event is one observability record. Only Kind is required.
type Event struct {
	Time      time.Time      `json:"t"`
	Level     Level          `json:"level,omitempty"`
	Kind      EventKind      `json:"kind"`
	Comp      string         `json:"comp,omitempty"` // "ui", "search", "server", "import"
	SessionID string         `json:"session_id,omitempty"`
	QueryID   string         `json:"qid,omitempty"`
	Dur       time.Duration  `json:"-"`
	DurMs     float64        `json:"dur_ms,omitempty"`
	Count     int            `json:"count,omitempty"`
	Status    int            `json:"status,omitempty"` // HTTP status, server side
	Query     string         `json:"query,omitempty"`
	Err       string         `json:"err,omitempty"`
	Msg       string         `json:"msg,omitempty"`
	Extra     map[string]any `json:"extra,omitempty"`
}

// MarshalJSON fills DurMs from Dur.
func (e Event) MarshalJSON() ([]byte, error) {
	type plain Event
	p := plain(e)
	if e.Dur > 0 {
		p.DurMs = float64(e.Dur) / float64(time.Millisecond)
	}
	return json.Marshal(p)
}
