package render

import (
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/abelbrown/moviefinder/internal/movie"
)

const (
	defaultCardWidth = 34
	cardGap          = 1
	minWrap          = 20
)

var (
	colorPrimary   = lipgloss.Color("62")
	colorSecondary = lipgloss.Color("241")
	colorHighlight = lipgloss.Color("212")
	colorRating    = lipgloss.Color("221")
)

var (
	sectionHeader = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorHighlight).
			MarginTop(1)

	cardBox = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(colorPrimary).
		Padding(0, 1).
		MarginRight(cardGap)

	cardTitle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("255"))
	cardYear     = lipgloss.NewStyle().Foreground(colorSecondary)
	cardOverview = lipgloss.NewStyle().Foreground(lipgloss.Color("250"))
	cardRating   = lipgloss.NewStyle().Foreground(colorRating)
	cardMuted    = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))

	loadingText = lipgloss.NewStyle().Foreground(colorSecondary).MarginTop(1)
)

// Renderer draws results for the terminal.
type Renderer struct {
	imageBase string
	cardWidth int
	style     string // glamour style name
}

// NewRenderer creates a renderer. cardWidth <= 0 uses the default.
func NewRenderer(imageBase string, cardWidth int) *Renderer {
	if cardWidth <= 0 {
		cardWidth = defaultCardWidth
	}
	return &Renderer{imageBase: imageBase, cardWidth: cardWidth, style: "dark"}
}

// WithStyle sets the glamour style ("dark", "light", "notty", ...).
func (r *Renderer) WithStyle(style string) *Renderer {
	r.style = style
	return r
}

// ImageBase returns the poster host base.
func (r *Renderer) ImageBase() string {
	return r.imageBase
}

// Body is the results area: a loading indicator while loading (any stale
// result is hidden), the result when there is one, otherwise nothing.
func (r *Renderer) Body(res *movie.Result, loading bool, spinner string, width int) string {
	if loading {
		return Loading(spinner)
	}
	if res == nil {
		return ""
	}
	return r.Result(res, width)
}

// Loading renders the in-flight indicator.
func Loading(spinner string) string {
	return loadingText.Render(strings.TrimSpace(spinner + " Fetching recommendations..."))
}

// Result renders the narrative followed by the movie grid.
func (r *Renderer) Result(res *movie.Result, width int) string {
	var b strings.Builder
	b.WriteString(sectionHeader.Render("Movie Recommendation"))
	b.WriteString("\n")
	b.WriteString(r.Markdown(res.Recommendation, width))
	b.WriteString("\n")
	b.WriteString(sectionHeader.Render("Top Movies:"))
	b.WriteString("\n")
	b.WriteString(r.Grid(Cards(res, r.imageBase), width))
	return b.String()
}

// Markdown renders the narrative. If glamour fails the text is shown as-is,
// wrapped to width.
func (r *Renderer) Markdown(md string, width int) string {
	wrap := width
	if wrap < minWrap {
		wrap = minWrap
	}
	tr, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(r.style),
		glamour.WithWordWrap(wrap),
	)
	if err == nil {
		if out, err := tr.Render(md); err == nil {
			return strings.TrimRight(out, "\n")
		}
	}
	return lipgloss.NewStyle().Width(wrap).Render(md)
}

// Grid lays cards out left to right, as many per row as fit in width.
func (r *Renderer) Grid(cards []Card, width int) string {
	if len(cards) == 0 {
		return cardMuted.Render("No rated movies to show.")
	}

	perRow := width / (r.cardWidth + cardGap + 2)
	if perRow < 1 {
		perRow = 1
	}

	var rows []string
	for start := 0; start < len(cards); start += perRow {
		end := start + perRow
		if end > len(cards) {
			end = len(cards)
		}
		boxes := make([]string, 0, end-start)
		for _, c := range cards[start:end] {
			boxes = append(boxes, r.Card(c))
		}
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, boxes...))
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

// Card renders one movie card.
func (r *Renderer) Card(c Card) string {
	inner := r.cardWidth - 2 // horizontal padding
	lines := []string{
		cardTitle.Render(clip(c.Title, inner)),
	}
	if c.Year != "" {
		lines = append(lines, cardYear.Render(c.Year))
	}
	lines = append(lines,
		"",
		cardOverview.Width(inner).Render(c.Overview),
		"",
		cardRating.Render("Rating: "+c.Rating)+"  "+cardMuted.Render(c.Votes),
		cardMuted.Width(inner).Render(c.PosterURL),
	)
	return cardBox.Width(r.cardWidth).Render(strings.Join(lines, "\n"))
}

// clip shortens s to max display columns, marking the cut with "…".
func clip(s string, max int) string {
	if lipgloss.Width(s) <= max || max < 2 {
		return s
	}
	runes := []rune(s)
	for len(runes) > 0 && lipgloss.Width(string(runes))+1 > max {
		runes = runes[:len(runes)-1]
	}
	return string(runes) + "…"
}
