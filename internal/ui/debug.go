package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/abelbrown/moviefinder/internal/otel"
)

// debugPanelChrome is the number of lines DebugPanel's border and vertical
// padding take. Keep in sync with the DebugPanel style.
const debugPanelChrome = 4

// debugOverlay renders session stats and recent events from the ring.
// Returns "" if ring is nil.
func debugOverlay(ring *otel.RingBuffer, width, height int) string {
	if ring == nil {
		return ""
	}

	stats := ring.Stats()
	recent := ring.Last(20)

	var lines []string
	lines = append(lines, DebugHeaderStyle.Render("Session Stats"))
	lines = append(lines, fmt.Sprintf("  History:    %d loaded, %d errors",
		stats[otel.KindHistoryLoad], stats[otel.KindHistoryError]))
	lines = append(lines, fmt.Sprintf("  Searches:   %d started, %d complete, %d errors",
		stats[otel.KindSearchStart], stats[otel.KindSearchComplete], stats[otel.KindSearchError]))
	lines = append(lines, fmt.Sprintf("  Keys:       %d", stats[otel.KindKeyPress]))
	lines = append(lines, fmt.Sprintf("  Buffer:     %d / %d events", ring.Len(), ring.Cap()))
	lines = append(lines, "")

	lines = append(lines, DebugHeaderStyle.Render("Recent Events"))
	for _, e := range recent {
		line := fmt.Sprintf("  %6s  %-18s", formatAge(time.Since(e.Time)), string(e.Kind))
		if e.Query != "" {
			line += "  " + truncateRunes(fmt.Sprintf("%q", e.Query), 30)
		}
		if e.Msg != "" {
			line += "  " + truncateRunes(e.Msg, 40)
		}
		if e.Err != "" {
			line += "  ERR:" + truncateRunes(e.Err, 30)
		}
		if e.QueryID != "" {
			qid := e.QueryID
			if len(qid) > 8 {
				qid = qid[:8]
			}
			line += "  qid:" + qid
		}
		lines = append(lines, line)
	}

	maxHeight := height - debugPanelChrome
	if maxHeight < 1 {
		maxHeight = 1
	}
	if len(lines) > maxHeight {
		lines = lines[:maxHeight]
	}

	panelWidth := 84
	if panelWidth > width-4 {
		panelWidth = width - 4
	}
	if panelWidth < 20 {
		panelWidth = 20
	}

	return DebugPanel.Width(panelWidth).Render(strings.Join(lines, "\n"))
}

// formatAge formats a duration compactly. Negative durations (clock skew)
// clamp to "0ms".
func formatAge(d time.Duration) string {
	if d < 0 {
		return "0ms"
	}
	switch {
	case d < time.Second:
		return fmt.Sprintf("%dms", d.Milliseconds())
	case d < time.Minute:
		return fmt.Sprintf("%.1fs", d.Seconds())
	default:
		return fmt.Sprintf("%.0fm", d.Minutes())
	}
}

// debugStatusBar renders the status bar while the overlay is open.
func debugStatusBar(width int) string {
	keys := StatusBarKey.Render("ctrl+d") + StatusBarText.Render(":close")
	return StatusBar.Width(width).Render("  [DEBUG]  " + keys)
}

// truncateRunes cuts s to max runes, adding "..." when it was longer.
func truncateRunes(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	if max <= 3 {
		return string(runes[:max])
	}
	return string(runes[:max-3]) + "..."
}
