package ui

import (
	"context"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
)

// maxHistoryRows caps how many history entries the panel shows at once.
const maxHistoryRows = 8

// HistorySource fetches the server's remembered queries. *api.Client
// satisfies it.
type HistorySource interface {
	History(ctx context.Context) ([]string, error)
}

// LoadHistory returns a command that fetches history once. Failures are
// delivered in the message; there is no retry.
func LoadHistory(ctx context.Context, src HistorySource) tea.Cmd {
	if src == nil {
		return nil
	}
	return func() tea.Msg {
		entries, err := src.History(ctx)
		return HistoryLoaded{Entries: entries, Err: err}
	}
}

// historyWindow returns the first visible index and the number of visible
// rows for a list of n entries with the cursor at cursor.
func historyWindow(n, cursor int) (offset, rows int) {
	rows = n
	if rows > maxHistoryRows {
		rows = maxHistoryRows
	}
	if rows > 0 && cursor >= rows {
		offset = cursor - rows + 1
	}
	return offset, rows
}

// renderHistoryPanel draws the history list. An empty list shows a
// placeholder row. The cursor row is highlighted only when focused.
func renderHistoryPanel(entries []string, cursor int, focused bool, width int) string {
	inner := width - 2
	if inner < 10 {
		inner = 10
	}

	if len(entries) == 0 {
		return HistoryPanel.Render(EmptyItem.Width(inner).Render("No history available"))
	}

	offset, rows := historyWindow(len(entries), cursor)
	lines := make([]string, 0, rows)
	for i := offset; i < offset+rows; i++ {
		text := truncateRunes(entries[i], inner-2)
		style := NormalItem
		if focused && i == cursor {
			style = SelectedItem
		}
		lines = append(lines, style.Width(inner).Render(text))
	}
	return HistoryPanel.Render(strings.Join(lines, "\n"))
}
