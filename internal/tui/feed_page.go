package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/fieldsync/skiff/internal/feed"
	"github.com/fieldsync/skiff/internal/gesture"
	"github.com/fieldsync/skiff/internal/model"
)

const feedPageID = "feed"

// feedChromeRows is the number of rows the header, status bar and footer
// occupy around the activity list.
const feedChromeRows = 3

// TickMsg drives the once-a-second re-render that keeps the relative
// last-sync label fresh.
type TickMsg time.Time

// syncDoneMsg reports a completed refresh run back to the UI loop.
type syncDoneMsg struct {
	err error
}

// FeedModel is the activity feed page. A left-button drag downward from the
// top of the list is interpreted as a pull-to-refresh gesture; the wheel and
// the usual movement keys scroll the list.
type FeedModel struct {
	interp *gesture.Interpreter
	cache  *feed.Cache
	keys   KeyMap

	items     []model.Activity
	scrollTop int
	selected  int

	dragging     bool
	filtering    bool
	siteInput    textinput.Model
	site         string
	reverseWheel bool

	showHelp bool
	lastErr  error

	width  int
	height int
}

// NewFeedModel creates the feed page over an interpreter and its cache.
func NewFeedModel(interp *gesture.Interpreter, cache *feed.Cache, reverseWheel bool) *FeedModel {
	ti := textinput.New()
	ti.Placeholder = "site"
	ti.Prompt = "site: "
	ti.CharLimit = 64

	return &FeedModel{
		interp:       interp,
		cache:        cache,
		keys:         DefaultKeyMap(),
		siteInput:    ti,
		reverseWheel: reverseWheel,
	}
}

func (m *FeedModel) ID() string { return feedPageID }

// Init kicks off the initial sync and the render tick.
func (m *FeedModel) Init() tea.Cmd {
	m.reloadItems()
	return tea.Batch(m.startRefresh(), tickCmd())
}

func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

// startRefresh asks the interpreter for a refresh run outside a gesture.
// A nil command means a refresh is already in flight.
func (m *FeedModel) startRefresh() tea.Cmd {
	run, ok := m.interp.TriggerRefresh()
	if !ok {
		return nil
	}
	return runRefreshCmd(run)
}

// runRefreshCmd executes a refresh run off the UI loop and reports back.
func runRefreshCmd(run gesture.RefreshRun) tea.Cmd {
	return tea.Batch(
		func() tea.Msg {
			return syncDoneMsg{err: run(context.Background())}
		},
		spinnerTickCmd(),
	)
}

func spinnerTickCmd() tea.Cmd {
	return tea.Tick(120*time.Millisecond, func(_ time.Time) tea.Msg {
		return SpinnerTickMsg{}
	})
}

func (m *FeedModel) Update(msg tea.Msg) (tea.Cmd, *PageNav) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.clampScroll()
		return nil, nil

	case tea.MouseMsg:
		return m.handleMouse(msg), nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case TickMsg:
		m.reloadItems()
		return tickCmd(), nil

	case SpinnerTickMsg:
		if m.interp.Snapshot().IsRefreshing() {
			return spinnerTickCmd(), nil
		}
		return nil, nil

	case syncDoneMsg:
		m.lastErr = msg.err
		m.reloadItems()
		return nil, nil
	}

	return nil, nil
}

func (m *FeedModel) handleKey(msg tea.KeyMsg) (tea.Cmd, *PageNav) {
	if m.filtering {
		switch msg.String() {
		case "enter":
			m.site = strings.TrimSpace(m.siteInput.Value())
			m.filtering = false
			m.siteInput.Blur()
			m.scrollTop = 0
			m.selected = 0
			m.reloadItems()
			return nil, nil
		case "esc":
			m.filtering = false
			m.siteInput.Blur()
			return nil, nil
		}
		var cmd tea.Cmd
		m.siteInput, cmd = m.siteInput.Update(msg)
		return cmd, nil
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return tea.Quit, nil
	case key.Matches(msg, m.keys.Refresh):
		return m.startRefresh(), nil
	case key.Matches(msg, m.keys.NextPage):
		return nil, NavNext()
	case key.Matches(msg, m.keys.Filter):
		m.filtering = true
		m.siteInput.SetValue(m.site)
		return m.siteInput.Focus(), nil
	case key.Matches(msg, m.keys.Escape):
		if m.site != "" {
			m.site = ""
			m.scrollTop = 0
			m.selected = 0
			m.reloadItems()
		}
		return nil, nil
	case key.Matches(msg, m.keys.Help):
		m.showHelp = !m.showHelp
		return nil, nil
	case key.Matches(msg, m.keys.Up):
		m.moveSelection(-1)
	case key.Matches(msg, m.keys.Down):
		m.moveSelection(1)
	case key.Matches(msg, m.keys.PageUp):
		m.moveSelection(-m.listHeight())
	case key.Matches(msg, m.keys.PageDown):
		m.moveSelection(m.listHeight())
	case key.Matches(msg, m.keys.Home):
		m.selected = 0
		m.scrollTop = 0
	case key.Matches(msg, m.keys.End):
		if len(m.items) > 0 {
			m.selected = len(m.items) - 1
		}
		m.ensureVisible()
	}
	return nil, nil
}

// handleMouse translates terminal mouse events into touch events for the
// gesture interpreter. A consumed event means the interpreter claimed the
// motion as a pull, so the list must not also scroll.
func (m *FeedModel) handleMouse(msg tea.MouseMsg) tea.Cmd {
	wheelStep := 1
	if m.reverseWheel {
		wheelStep = -1
	}
	switch msg.Button {
	case tea.MouseButtonWheelUp:
		if msg.Action == tea.MouseActionPress {
			m.scrollBy(-wheelStep)
		}
		return nil
	case tea.MouseButtonWheelDown:
		if msg.Action == tea.MouseActionPress {
			m.scrollBy(wheelStep)
		}
		return nil
	}

	switch msg.Action {
	case tea.MouseActionPress:
		if msg.Button != tea.MouseButtonLeft {
			return nil
		}
		m.dragging = true
		m.interp.HandleEvent(gesture.Event{
			Kind:      gesture.TouchStart,
			Y:         float64(msg.Y),
			ScrollTop: float64(m.scrollTop),
			InScope:   m.inList(msg.Y),
		})
		return nil

	case tea.MouseActionMotion:
		if !m.dragging {
			return nil
		}
		m.interp.HandleEvent(gesture.Event{
			Kind:      gesture.TouchMove,
			Y:         float64(msg.Y),
			ScrollTop: float64(m.scrollTop),
		})
		return nil

	case tea.MouseActionRelease:
		if !m.dragging {
			return nil
		}
		m.dragging = false
		if _, run := m.interp.HandleEvent(gesture.Event{Kind: gesture.TouchEnd}); run != nil {
			return runRefreshCmd(run)
		}
		return nil
	}

	return nil
}

// inList reports whether a row falls inside the activity list, below the
// header and status bar and above the footer.
func (m *FeedModel) inList(y int) bool {
	top := 2
	if m.filtering {
		top++
	}
	return y >= top && y < m.height-1
}

func (m *FeedModel) reloadItems() {
	items := m.cache.Items()
	if m.site != "" {
		filtered := items[:0]
		for _, a := range items {
			if a.Site == m.site {
				filtered = append(filtered, a)
			}
		}
		items = filtered
	}
	m.items = items
	if m.selected >= len(m.items) {
		m.selected = len(m.items) - 1
	}
	if m.selected < 0 {
		m.selected = 0
	}
	m.clampScroll()
}

func (m *FeedModel) moveSelection(delta int) {
	m.selected += delta
	if m.selected < 0 {
		m.selected = 0
	}
	if m.selected >= len(m.items) {
		m.selected = len(m.items) - 1
	}
	m.ensureVisible()
}

func (m *FeedModel) scrollBy(delta int) {
	m.scrollTop += delta
	m.clampScroll()
}

// listHeight is the number of rows available to activity lines, after chrome
// and the pull-indicator gap.
func (m *FeedModel) listHeight() int {
	h := m.height - feedChromeRows
	if m.filtering {
		h--
	}
	h -= m.gapRows()
	if h < 1 {
		h = 1
	}
	return h
}

// gapRows is how many blank rows the current pull opens above the list.
func (m *FeedModel) gapRows() int {
	snap := m.interp.Snapshot()
	if !snap.IsPulling() {
		return 0
	}
	return int(snap.PullDistance)
}

func (m *FeedModel) clampScroll() {
	max := len(m.items) - m.listHeight()
	if max < 0 {
		max = 0
	}
	if m.scrollTop > max {
		m.scrollTop = max
	}
	if m.scrollTop < 0 {
		m.scrollTop = 0
	}
}

// ensureVisible scrolls just enough to keep the selection on screen.
func (m *FeedModel) ensureVisible() {
	if m.selected < m.scrollTop {
		m.scrollTop = m.selected
	}
	if lh := m.listHeight(); m.selected >= m.scrollTop+lh {
		m.scrollTop = m.selected - lh + 1
	}
	m.clampScroll()
}

func (m *FeedModel) View(width, height int) string {
	m.width = width
	m.height = height

	var b strings.Builder

	b.WriteString(renderHeader("skiff · field activity", width))
	b.WriteByte('\n')
	b.WriteString(m.renderStatusBar(width))
	b.WriteByte('\n')

	if m.filtering {
		b.WriteString(truncate(m.siteInput.View(), width))
		b.WriteByte('\n')
	}

	m.renderPullGap(&b, width)
	m.renderList(&b, width)

	b.WriteString(m.renderFooter(width))
	return b.String()
}

func (m *FeedModel) renderStatusBar(width int) string {
	snap := m.interp.Snapshot()

	var parts []string
	switch {
	case snap.IsRefreshing():
		frame := spinnerFrames[time.Now().UnixMilli()/120%int64(len(spinnerFrames))]
		parts = append(parts, frame+" Refreshing…")
	default:
		parts = append(parts, "Last sync: "+m.interp.FormatLastSync())
	}

	parts = append(parts, fmt.Sprintf("%d activities", len(m.items)))
	if m.site != "" {
		parts = append(parts, "site: "+m.site)
	}
	if m.lastErr != nil {
		parts = append(parts, styleError.Render("sync failed: "+m.lastErr.Error()))
	}

	line := " " + strings.Join(parts, "  ·  ")
	return styleStatusBar.Width(width).Render(truncate(line, width))
}

// renderPullGap opens blank rows proportional to the pull distance, with the
// release hint centered once the threshold is reached.
func (m *FeedModel) renderPullGap(b *strings.Builder, width int) {
	snap := m.interp.Snapshot()
	gap := m.gapRows()
	if gap == 0 {
		return
	}

	hint := "↓ Pull to refresh"
	if snap.PullDistance >= m.interp.ActivationThreshold() {
		hint = "↻ Release to refresh"
	}

	for i := 0; i < gap; i++ {
		if i == gap/2 {
			b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, stylePullHint.Render(hint)))
		}
		b.WriteByte('\n')
	}
}

func (m *FeedModel) renderList(b *strings.Builder, width int) {
	lh := m.listHeight()

	if len(m.items) == 0 {
		empty := styleMuted.Render("No activity yet — pull down or press r to sync.")
		b.WriteString(lipgloss.Place(width, lh, lipgloss.Center, lipgloss.Center, empty))
		b.WriteByte('\n')
		return
	}

	end := m.scrollTop + lh
	if end > len(m.items) {
		end = len(m.items)
	}

	for i := m.scrollTop; i < end; i++ {
		b.WriteString(m.renderActivityLine(m.items[i], i == m.selected, width))
		b.WriteByte('\n')
	}
	for i := end - m.scrollTop; i < lh; i++ {
		b.WriteByte('\n')
	}
}

func (m *FeedModel) renderActivityLine(a model.Activity, selected bool, width int) string {
	ts := a.Timestamp.Local().Format("Jan 02 15:04")
	kind := fmt.Sprintf("%-8s", a.Kind)

	line := fmt.Sprintf(" %s  %s  %s", ts, styleKind.Render(kind), a.Title)
	if a.Site != "" {
		line += styleMuted.Render("  @" + a.Site)
	}
	if a.Status != "" {
		line += "  " + renderStatus(a.Status)
	}

	line = truncate(line, width)
	if selected {
		return styleSelected.Width(width).Render(line)
	}
	return line
}

func renderStatus(status string) string {
	switch status {
	case "done", "completed", "ok":
		return styleSuccess.Render(status)
	case "failed", "blocked":
		return styleError.Render(status)
	default:
		return styleMuted.Render(status)
	}
}

func (m *FeedModel) renderFooter(width int) string {
	if m.showHelp {
		help := " q quit · r refresh · f filter · tab stats · ↑/↓ move · pgup/pgdn page · g/G ends · esc clear filter"
		return styleMuted.Render(truncate(help, width))
	}
	return styleMuted.Render(truncate(" ? help · q quit · tab stats", width))
}

// renderHeader draws the one-line page header shared by all pages.
func renderHeader(title string, width int) string {
	return styleHeader.Width(width).Render(truncate(" "+title, width))
}

// truncate cuts a rendered line to the terminal width, counting cells rather
// than bytes so styled runes survive.
func truncate(s string, width int) string {
	if width <= 0 || lipgloss.Width(s) <= width {
		return s
	}
	return lipgloss.NewStyle().MaxWidth(width).Render(s)
}
