package otel

import (
	"os"
	"sync/atomic"
)

// traceEnabled is read on every Update; set from the environment at init.
var traceEnabled atomic.Bool

func init() {
	traceEnabled.Store(os.Getenv("MOVIEFINDER_TRACE") != "")
}

// TraceEnabled reports whether per-message tracing is on.
func TraceEnabled() bool {
	return traceEnabled.Load()
}

func setTraceEnabled(v bool) {
	traceEnabled.Store(v)
}
