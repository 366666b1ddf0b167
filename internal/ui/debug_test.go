package ui

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/abelbrown/moviefinder/internal/otel"
	"github.com/abelbrown/moviefinder/internal/search"
)

func TestDebugOverlayNilRing(t *testing.T) {
	if result := debugOverlay(nil, 80, 24); result != "" {
		t.Errorf("debugOverlay(nil) should return empty string, got %q", result)
	}
}

func TestDebugOverlayRendersStats(t *testing.T) {
	ring := otel.NewRingBuffer(64)
	ring.Push(otel.Event{Kind: otel.KindHistoryLoad, Time: time.Now()})
	ring.Push(otel.Event{Kind: otel.KindSearchStart, Time: time.Now()})
	ring.Push(otel.Event{Kind: otel.KindSearchStart, Time: time.Now()})
	ring.Push(otel.Event{Kind: otel.KindSearchComplete, Time: time.Now()})
	ring.Push(otel.Event{Kind: otel.KindSearchError, Time: time.Now()})

	result := debugOverlay(ring, 100, 40)

	if !strings.Contains(result, "Session Stats") {
		t.Error("overlay should contain 'Session Stats' header")
	}
	if !strings.Contains(result, "1 loaded, 0 errors") {
		t.Errorf("overlay should show history stats, got:\n%s", result)
	}
	if !strings.Contains(result, "2 started, 1 complete, 1 errors") {
		t.Errorf("overlay should show search stats, got:\n%s", result)
	}
	if !strings.Contains(result, "5 / 64 events") {
		t.Errorf("overlay should show buffer stats, got:\n%s", result)
	}
}

func TestDebugOverlayRecentEvents(t *testing.T) {
	ring := otel.NewRingBuffer(64)
	ring.Push(otel.Event{Kind: otel.KindHistoryError, Time: time.Now(), Err: "refused"})
	ring.Push(otel.Event{Kind: otel.KindSearchStart, Time: time.Now(), QueryID: "abcdef1234567890", Query: "comedy"})

	result := debugOverlay(ring, 100, 40)

	if !strings.Contains(result, "Recent Events") {
		t.Error("overlay should contain 'Recent Events' header")
	}
	if !strings.Contains(result, "ERR:refused") {
		t.Errorf("overlay should show error, got:\n%s", result)
	}
	if !strings.Contains(result, "qid:abcdef12") {
		t.Errorf("overlay should show truncated query ID, got:\n%s", result)
	}
	if !strings.Contains(result, `"comedy"`) {
		t.Errorf("overlay should show the query, got:\n%s", result)
	}
}

func TestDebugOverlayFitsHeight(t *testing.T) {
	ring := otel.NewRingBuffer(64)
	for i := 0; i < 30; i++ {
		ring.Push(otel.Event{Kind: otel.KindKeyPress, Time: time.Now()})
	}

	result := debugOverlay(ring, 80, 12)
	if lines := strings.Count(result, "\n") + 1; lines > 12 {
		t.Errorf("overlay has %d lines, want at most 12", lines)
	}
}

func TestAppDebugViewUsesRing(t *testing.T) {
	ring := otel.NewRingBuffer(16)
	ring.Push(otel.Event{Kind: otel.KindSearchStart, Time: time.Now()})

	app := NewApp(AppConfig{Search: search.NewController(&mockBackend{}, nil), Ring: ring})
	app = update(app, tea.WindowSizeMsg{Width: 100, Height: 40})
	app = update(app, key(tea.KeyCtrlD))

	view := app.View()
	if !strings.Contains(view, "[DEBUG]") {
		t.Error("debug view should show the debug status bar")
	}
	if !strings.Contains(view, "1 / 16 events") {
		t.Errorf("debug view should render ring stats, got:\n%s", view)
	}
}

func TestFormatAge(t *testing.T) {
	tests := []struct {
		dur  time.Duration
		want string
	}{
		{0, "0ms"},
		{50 * time.Millisecond, "50ms"},
		{1500 * time.Millisecond, "1.5s"},
		{90 * time.Second, "2m"},
		{-5 * time.Second, "0ms"},
	}
	for _, tt := range tests {
		if got := formatAge(tt.dur); got != tt.want {
			t.Errorf("formatAge(%v) = %q, want %q", tt.dur, got, tt.want)
		}
	}
}

func TestTruncateRunes(t *testing.T) {
	if got := truncateRunes("short", 10); got != "short" {
		t.Errorf("truncateRunes short = %q", got)
	}
	if got := truncateRunes("abcdefghij", 6); got != "abc..." {
		t.Errorf("truncateRunes long = %q", got)
	}
}
