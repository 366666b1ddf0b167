package otel

// The drain goroutine is the only reader of l.ch and the only writer to l.w.
// l.mu guards the ring pointer alone; Push on the ring takes its own lock
// after l.mu is released.

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"
	"time"

	json "github.com/goccy/go-json"
)

// queueSize bounds the async write queue. Events beyond it are dropped.
const queueSize = 2048

type queued struct {
	line []byte
	ev   Event
}

// Logger writes events as JSONL from a background goroutine.
// Safe for concurrent use. Emit never blocks.
type Logger struct {
	mu      sync.Mutex
	ring    *RingBuffer
	session string
	ch      chan queued
	w       io.Writer
	dropped atomic.Uint64
	closed  atomic.Bool
	done    chan struct{}
	once    sync.Once
}

// NewLogger starts a Logger writing to w. Call Close to flush.
func NewLogger(w io.Writer) *Logger {
	var sid [8]byte
	_, _ = rand.Read(sid[:])

	l := &Logger{
		session: hex.EncodeToString(sid[:]),
		ch:      make(chan queued, queueSize),
		w:       w,
		done:    make(chan struct{}),
	}
	go l.drain()
	return l
}

// NewNullLogger returns a Logger that discards everything it is given.
func NewNullLogger() *Logger {
	return NewLogger(io.Discard)
}

// OpenFile opens (or creates) an append-only JSONL file and starts a Logger
// on it. The returned closer stops the logger and closes the file.
func OpenFile(path string) (*Logger, func(), error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, nil, fmt.Errorf("open event log: %w", err)
	}
	l := NewLogger(f)
	return l, func() {
		l.Close()
		f.Close()
	}, nil
}

func (l *Logger) drain() {
	defer close(l.done)
	for q := range l.ch {
		if _, err := l.w.Write(q.line); err != nil {
			l.dropped.Add(1)
		}

		l.mu.Lock()
		ring := l.ring
		l.mu.Unlock()

		if ring != nil {
			ring.Push(q.ev)
		}
	}
}

// Emit queues e for writing, stamping Time (if unset) and SessionID.
// A full queue or a closed logger drops the event and counts it.
func (l *Logger) Emit(e Event) {
	if l == nil {
		return
	}
	// Close can race between the closed check and the send.
	defer func() {
		if recover() != nil {
			l.dropped.Add(1)
		}
	}()

	if l.closed.Load() {
		l.dropped.Add(1)
		return
	}

	if e.Time.IsZero() {
		e.Time = time.Now()
	}
	e.SessionID = l.session

	line, err := json.Marshal(e)
	if err != nil {
		l.dropped.Add(1)
		return
	}
	line = append(line, '\n')

	select {
	case l.ch <- queued{line: line, ev: e}:
	default:
		l.dropped.Add(1)
	}
}

// Info emits an info-level event.
func (l *Logger) Info(kind EventKind, comp, msg string) {
	l.Emit(Event{Level: LevelInfo, Kind: kind, Comp: comp, Msg: msg})
}

// Warn emits a warn-level event.
func (l *Logger) Warn(kind EventKind, comp, msg string) {
	l.Emit(Event{Level: LevelWarn, Kind: kind, Comp: comp, Msg: msg})
}

// Error emits an error-level event. A nil err is logged with an empty Err.
func (l *Logger) Error(kind EventKind, comp string, err error) {
	var s string
	if err != nil {
		s = err.Error()
	}
	l.Emit(Event{Level: LevelError, Kind: kind, Comp: comp, Err: s})
}

// SetRingBuffer mirrors every written event into ring.
func (l *Logger) SetRingBuffer(ring *RingBuffer) {
	l.mu.Lock()
	l.ring = ring
	l.mu.Unlock()
}

// SessionID returns the random id stamped on every event of this run.
func (l *Logger) SessionID() string {
	return l.session
}

// Dropped returns how many events were lost.
func (l *Logger) Dropped() uint64 {
	return l.dropped.Load()
}

// Close drains pending events and stops the writer. Later Emit calls are
// counted as dropped.
func (l *Logger) Close() {
	if l == nil {
		return
	}
	l.once.Do(func() {
		l.closed.Store(true)
		close(l.ch)
		<-l.done

		if n := l.dropped.Load(); n > 0 {
			fmt.Fprintf(os.Stderr, "moviefinder: %d events dropped in session %s\n", n, l.session)
		}
	})
}
