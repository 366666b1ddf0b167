package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/abelbrown/moviefinder/internal/logging"
	"github.com/abelbrown/moviefinder/internal/otel"
	"github.com/abelbrown/moviefinder/internal/render"
	"github.com/abelbrown/moviefinder/internal/search"
	"github.com/abelbrown/moviefinder/internal/session"
)

const (
	title       = "Movie Recommendation Engine"
	placeholder = "Enter your preferences (e.g., Recommend me a sci-fi movie)"
	emptyHint   = "Describe what you feel like watching and press enter."
)

type focus int

const (
	focusInput focus = iota
	focusSubmit
	focusHistory
)

// AppConfig wires the App to its collaborators. Only Search is required.
type AppConfig struct {
	Context  context.Context
	Search   *search.Controller
	History  HistorySource
	Renderer *render.Renderer
	Events   *otel.Logger
	Ring     *otel.RingBuffer
}

// App is the root Bubble Tea model. It owns the session state; network work
// runs in commands and comes back as HistoryLoaded and SearchDone.
type App struct {
	ctx      context.Context
	ctrl     *search.Controller
	history  HistorySource
	renderer *render.Renderer
	events   *otel.Logger
	ring     *otel.RingBuffer

	state session.State

	input   textinput.Model
	spinner spinner.Model
	results viewport.Model

	focus         focus
	historyCursor int
	showDebug     bool

	width  int
	height int
	ready  bool
}

// NewApp creates the App with the input focused and history hidden.
func NewApp(cfg AppConfig) App {
	if cfg.Context == nil {
		cfg.Context = context.Background()
	}
	if cfg.Renderer == nil {
		cfg.Renderer = render.NewRenderer("", 0)
	}

	ti := textinput.New()
	ti.Placeholder = placeholder
	ti.Prompt = "> "
	ti.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(colorHighlight)

	return App{
		ctx:      cfg.Context,
		ctrl:     cfg.Search,
		history:  cfg.History,
		renderer: cfg.Renderer,
		events:   cfg.Events,
		ring:     cfg.Ring,
		input:    ti,
		spinner:  sp,
		results:  viewport.New(0, 0),
		focus:    focusInput,
	}
}

// Init starts the one-time history fetch.
func (a App) Init() tea.Cmd {
	return tea.Batch(LoadHistory(a.ctx, a.history), textinput.Blink)
}

// Update handles messages and returns the updated model and any commands.
func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var start time.Time
	if otel.TraceEnabled() {
		start = time.Now()
		a.events.Emit(otel.Event{Level: otel.LevelDebug, Kind: otel.KindMsgReceived, Comp: "ui", Msg: fmt.Sprintf("%T", msg)})
	}

	a, cmd := a.update(msg)
	a.layout()

	if otel.TraceEnabled() {
		a.events.Emit(otel.Event{Level: otel.LevelDebug, Kind: otel.KindMsgHandled, Comp: "ui", Msg: fmt.Sprintf("%T", msg), Dur: time.Since(start)})
	}
	return a, cmd
}

func (a App) update(msg tea.Msg) (App, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.Type != tea.KeyRunes {
			a.events.Emit(otel.Event{Level: otel.LevelDebug, Kind: otel.KindKeyPress, Comp: "ui", Msg: msg.String()})
		}
		return a.handleKeyMsg(msg)

	case tea.MouseMsg:
		return a.handleMouseMsg(msg)

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.ready = true
		a.input.Width = max(10, a.width-lipgloss.Width(a.historyToggle())-8)
		a.layout()
		a.refreshResults()
		return a, nil

	case HistoryLoaded:
		if msg.Err != nil {
			logging.Warn("history load failed", "err", msg.Err)
			a.events.Error(otel.KindHistoryError, "history", msg.Err)
			return a, nil
		}
		a.state.SetHistory(msg.Entries)
		a.historyCursor = clamp(a.historyCursor, 0, a.state.HistoryLen()-1)
		a.events.Emit(otel.Event{Level: otel.LevelInfo, Kind: otel.KindHistoryLoad, Comp: "history", Count: len(msg.Entries)})
		return a, nil

	case SearchDone:
		a.ctrl.Finish(&a.state, msg.Outcome)
		if msg.Outcome.OK() {
			a.refreshResults()
			a.results.GotoTop()
		}
		return a, nil

	case spinner.TickMsg:
		if !a.state.Loading() {
			return a, nil
		}
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		return a, cmd
	}

	if a.focus == focusInput {
		return a.updateInput(msg)
	}
	return a, nil
}

// updateInput forwards msg to the text input and copies its value into the
// query. Pastes arrive as non-key messages, so every path goes through here.
func (a App) updateInput(msg tea.Msg) (App, tea.Cmd) {
	var cmd tea.Cmd
	a.input, cmd = a.input.Update(msg)
	a.state.SetQuery(a.input.Value())
	return a, cmd
}

// handleKeyMsg processes keyboard input. Global keys come first; the rest
// go to whichever control has focus.
func (a App) handleKeyMsg(msg tea.KeyMsg) (App, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return a, tea.Quit

	case "ctrl+d":
		a.showDebug = !a.showDebug
		return a, nil

	case "ctrl+r":
		return a.toggleHistory(), nil

	case "ctrl+s":
		return a.submit()

	case "esc":
		if a.showDebug {
			a.showDebug = false
			return a, nil
		}
		return a.focusInput()

	case "tab":
		return a.cycleFocus(1)

	case "shift+tab":
		return a.cycleFocus(-1)

	case "pgup":
		a.results.LineUp(a.results.Height)
		return a, nil

	case "pgdown":
		a.results.LineDown(a.results.Height)
		return a, nil
	}

	switch a.focus {
	case focusSubmit:
		switch msg.String() {
		case "enter", " ":
			return a.submit()
		case "/":
			return a.focusInput()
		}
		return a, nil

	case focusHistory:
		switch msg.String() {
		case "up", "k":
			a.historyCursor = clamp(a.historyCursor-1, 0, a.state.HistoryLen()-1)
		case "down", "j":
			a.historyCursor = clamp(a.historyCursor+1, 0, a.state.HistoryLen()-1)
		case "home", "g":
			a.historyCursor = 0
		case "end", "G":
			a.historyCursor = clamp(a.state.HistoryLen()-1, 0, a.state.HistoryLen()-1)
		case "enter":
			return a.pickHistory(a.historyCursor)
		case "/":
			return a.focusInput()
		}
		return a, nil
	}

	if msg.String() == "enter" {
		return a.search(search.Current)
	}

	return a.updateInput(msg)
}

// handleMouseMsg maps clicks onto the same actions as the keyboard. The wheel
// scrolls the results.
func (a App) handleMouseMsg(msg tea.MouseMsg) (App, tea.Cmd) {
	if msg.Button == tea.MouseButtonWheelUp || msg.Button == tea.MouseButtonWheelDown {
		var cmd tea.Cmd
		a.results, cmd = a.results.Update(msg)
		return a, cmd
	}
	if msg.Button != tea.MouseButtonLeft || msg.Action != tea.MouseActionPress {
		return a, nil
	}

	rows := a.rows()
	switch {
	case msg.Y >= rows.inputTop && msg.Y < rows.inputTop+inputHeight:
		if msg.X >= lipgloss.Width(a.inputBox()) {
			return a.toggleHistory(), nil
		}
		return a.focusInput()

	case a.state.HistoryVisible() && msg.Y >= rows.historyTop && msg.Y < rows.historyTop+rows.historyRows:
		if a.state.HistoryLen() == 0 {
			return a, nil
		}
		offset, _ := historyWindow(a.state.HistoryLen(), a.historyCursor)
		return a.pickHistory(offset + msg.Y - rows.historyTop)

	case msg.Y == rows.button:
		return a.submit()
	}
	return a, nil
}

// search starts a request. The network call runs in the returned command.
func (a App) search(in search.Input) (App, tea.Cmd) {
	req := a.ctrl.Begin(&a.state, in)

	ctx, ctrl := a.ctx, a.ctrl
	run := func() tea.Msg {
		return SearchDone{Outcome: ctrl.Run(ctx, req)}
	}
	return a, tea.Batch(run, a.spinner.Tick)
}

// submit is the "Get Recommendations" control, disabled while loading.
func (a App) submit() (App, tea.Cmd) {
	if a.state.Loading() {
		return a, nil
	}
	return a.search(search.Current)
}

// pickHistory sets the query to entry i, searches for it and closes the panel.
func (a App) pickHistory(i int) (App, tea.Cmd) {
	entries := a.state.History()
	if i < 0 || i >= len(entries) {
		return a, nil
	}
	entry := entries[i]

	a.state.SetQuery(entry)
	a.input.SetValue(entry)
	a.input.CursorEnd()

	a, cmd := a.search(search.Explicit(entry))
	a.state.SetHistoryVisible(false)
	a.historyCursor = i
	a.focus = focusInput
	return a, tea.Batch(cmd, a.input.Focus())
}

// focusInput gives the input focus, which also closes the history panel.
func (a App) focusInput() (App, tea.Cmd) {
	a.focus = focusInput
	a.state.SetHistoryVisible(false)
	return a, a.input.Focus()
}

func (a App) toggleHistory() App {
	a.state.ToggleHistory()
	switch {
	case a.state.HistoryVisible() && a.state.HistoryLen() > 0:
		a.focus = focusHistory
		a.historyCursor = clamp(a.historyCursor, 0, a.state.HistoryLen()-1)
		a.input.Blur()
	case !a.state.HistoryVisible() && a.focus == focusHistory:
		a.focus = focusInput
		a.input.Focus()
	}
	return a
}

// cycleFocus moves between input, submit and (when open) the history list.
func (a App) cycleFocus(dir int) (App, tea.Cmd) {
	order := []focus{focusInput, focusSubmit}
	if a.state.HistoryVisible() && a.state.HistoryLen() > 0 {
		order = append(order, focusHistory)
	}
	idx := 0
	for i, f := range order {
		if f == a.focus {
			idx = i
		}
	}
	next := order[(idx+dir+len(order))%len(order)]

	if next == focusInput {
		return a.focusInput()
	}
	a.focus = next
	a.input.Blur()
	return a, nil
}

// refreshResults re-renders the current result into the viewport.
func (a *App) refreshResults() {
	content := a.renderer.Body(a.state.Result(), false, "", a.results.Width)
	if content == "" {
		content = HelpStyle.Render(emptyHint)
	}
	a.results.SetContent(content)
}

const inputHeight = 3 // bordered single-line box

type rowLayout struct {
	inputTop    int
	historyTop  int // first entry row, when the panel is open
	historyRows int
	button      int
	resultsTop  int
}

// rows computes where each control sits on screen. View and mouse handling
// both rely on it.
func (a App) rows() rowLayout {
	r := rowLayout{inputTop: 1}
	next := r.inputTop + inputHeight
	if a.state.HistoryVisible() {
		r.historyRows = 1
		if n := a.state.HistoryLen(); n > 0 {
			_, r.historyRows = historyWindow(n, a.historyCursor)
		}
		r.historyTop = next + 1 // top border
		next += r.historyRows + 2
	}
	r.button = next
	r.resultsTop = r.button + 2
	return r
}

func (a *App) layout() {
	a.results.Width = a.width
	h := a.height - a.rows().resultsTop - 1 // status bar
	if h < 1 {
		h = 1
	}
	a.results.Height = h
}

// View renders the App.
func (a App) View() string {
	if !a.ready {
		return "\n  Initializing..."
	}

	if a.showDebug {
		return debugOverlay(a.ring, a.width, a.height-1) + "\n" + debugStatusBar(a.width)
	}

	var b strings.Builder
	b.WriteString(TitleStyle.Render(title))
	b.WriteString("\n")
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Center, a.inputBox(), a.historyToggle()))
	b.WriteString("\n")
	if a.state.HistoryVisible() {
		b.WriteString(renderHistoryPanel(a.state.History(), a.historyCursor, a.focus == focusHistory, min(48, a.width)))
		b.WriteString("\n")
	}
	b.WriteString(a.button())
	b.WriteString("\n\n")

	body := a.results.View()
	if a.state.Loading() {
		body = lipgloss.NewStyle().Height(a.results.Height).Render(render.Loading(a.spinner.View()))
	}
	b.WriteString(body)
	b.WriteString("\n")
	b.WriteString(a.statusBar())
	return b.String()
}

func (a App) inputBox() string {
	style := InputBox
	if a.focus == focusInput {
		style = InputBoxFocused
	}
	return style.Render(a.input.View())
}

func (a App) historyToggle() string {
	if a.state.HistoryVisible() {
		return HistoryToggleActive.Render("[◷ history]")
	}
	return HistoryToggle.Render("[◷ history]")
}

func (a App) button() string {
	switch {
	case a.state.Loading():
		return ButtonDisabled.Render("Loading...")
	case a.focus == focusSubmit:
		return ButtonFocused.Render("Get Recommendations")
	default:
		return Button.Render("Get Recommendations")
	}
}

func (a App) statusBar() string {
	var left string
	switch {
	case a.state.Loading():
		left = StatusBarText.Render("fetching...")
	case a.state.Result() != nil:
		n := len(render.VisibleMovies(a.state.Result().SimilarMovies))
		left = StatusBarOK.Render(fmt.Sprintf("%d movies", n))
	default:
		left = StatusBarText.Render("ready")
	}
	left += StatusBarText.Render(fmt.Sprintf(" · %d in history", a.state.HistoryLen()))

	keys := []string{
		StatusBarKey.Render("enter") + StatusBarText.Render(":search"),
		StatusBarKey.Render("tab") + StatusBarText.Render(":focus"),
		StatusBarKey.Render("ctrl+r") + StatusBarText.Render(":history"),
		StatusBarKey.Render("pgup/pgdn") + StatusBarText.Render(":scroll"),
		StatusBarKey.Render("ctrl+c") + StatusBarText.Render(":quit"),
	}
	return StatusBar.Width(a.width).Render(left + "  " + strings.Join(keys, " "))
}

// State returns a copy of the session state.
func (a App) State() *session.State {
	s := a.state
	return &s
}

// HistoryCursor returns the highlighted history index.
func (a App) HistoryCursor() int {
	return a.historyCursor
}

func clamp(v, lo, hi int) int {
	if hi < lo {
		return lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
