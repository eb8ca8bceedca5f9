package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/NimbleMarkets/ntcharts/barchart"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/fieldsync/skiff/internal/feed"
	"github.com/fieldsync/skiff/internal/journal"
	"github.com/fieldsync/skiff/internal/model"
)

const statsPageID = "stats"

// statsDays is the window the daily chart covers.
const statsDays = 14

// statsLoadedMsg carries a finished stats fetch back to the UI loop.
type statsLoadedMsg struct {
	daily  []model.DailyCount
	recent []model.SyncResult
	err    error
}

// StatsModel is the per-day activity chart page with the recent sync history
// underneath it.
type StatsModel struct {
	client *feed.Client
	jnl    *journal.Journal // optional
	keys   KeyMap

	daily   []model.DailyCount
	recent  []model.SyncResult
	loading bool
	err     error

	width  int
	height int
}

// NewStatsModel creates the stats page. jnl may be nil when the client runs
// without a sync journal.
func NewStatsModel(client *feed.Client, jnl *journal.Journal) *StatsModel {
	return &StatsModel{
		client: client,
		jnl:    jnl,
		keys:   DefaultKeyMap(),
	}
}

func (m *StatsModel) ID() string { return statsPageID }

func (m *StatsModel) Init() tea.Cmd {
	m.loading = true
	return tea.Batch(m.loadCmd(), spinnerTickCmd())
}

// loadCmd fetches daily counts from the hub and the recent sync outcomes
// from the local journal in one shot.
func (m *StatsModel) loadCmd() tea.Cmd {
	client, jnl := m.client, m.jnl
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		daily, err := client.DailyStats(ctx, statsDays, model.QueryOpts{})
		if err != nil {
			return statsLoadedMsg{err: err}
		}

		var recent []model.SyncResult
		if jnl != nil {
			// Journal read failures leave the history blank but keep the chart.
			recent, _ = jnl.Recent(8)
		}
		return statsLoadedMsg{daily: daily, recent: recent}
	}
}

func (m *StatsModel) Update(msg tea.Msg) (tea.Cmd, *PageNav) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return nil, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return tea.Quit, nil
		case key.Matches(msg, m.keys.NextPage):
			return nil, NavNext()
		case key.Matches(msg, m.keys.Refresh):
			if m.loading {
				return nil, nil
			}
			m.loading = true
			return tea.Batch(m.loadCmd(), spinnerTickCmd()), nil
		}
		return nil, nil

	case SpinnerTickMsg:
		if m.loading {
			return spinnerTickCmd(), nil
		}
		return nil, nil

	case statsLoadedMsg:
		m.loading = false
		m.err = msg.err
		if msg.err == nil {
			m.daily = msg.daily
			m.recent = msg.recent
		}
		return nil, nil
	}

	return nil, nil
}

func (m *StatsModel) View(width, height int) string {
	m.width = width
	m.height = height

	var b strings.Builder
	b.WriteString(renderHeader("skiff · daily activity", width))
	b.WriteByte('\n')

	body := height - 2
	if body < 1 {
		body = 1
	}

	switch {
	case m.loading && m.daily == nil:
		b.WriteString(renderLoadingPlaceholder(width, body))
	case m.err != nil:
		msg := styleError.Render("stats unavailable: " + m.err.Error())
		b.WriteString(lipgloss.Place(width, body, lipgloss.Center, lipgloss.Center, msg))
	default:
		b.WriteString(m.renderChart(width))
		b.WriteByte('\n')
		b.WriteString(m.renderHistory(width))
	}

	b.WriteByte('\n')
	b.WriteString(styleMuted.Render(truncate(" r reload · tab feed · q quit", width)))
	return b.String()
}

// renderChart draws one bar per day, newest on the right, padded on the left
// so the window always fills the chart width.
func (m *StatsModel) renderChart(width int) string {
	chartWidth := width - 4
	if chartWidth < 20 {
		chartWidth = 20
	}
	chartHeight := 8
	if m.height < 20 {
		chartHeight = 5
	}

	maxBars := chartWidth / 2
	data := m.daily
	if len(data) > maxBars {
		data = data[len(data)-maxBars:]
	}

	bc := barchart.New(chartWidth, chartHeight,
		barchart.WithBarGap(1),
		barchart.WithBarWidth(1),
		barchart.WithNoAxis(),
	)

	barStyle := styleKind
	for i := len(data); i < maxBars; i++ {
		bc.Push(barchart.BarData{Values: []barchart.BarValue{{Name: "empty", Value: 0, Style: styleMuted}}})
	}
	for _, d := range data {
		bc.Push(barchart.BarData{
			Label: d.Day.Format("02"),
			Values: []barchart.BarValue{
				{Name: "count", Value: float64(d.Count), Style: barStyle},
			},
		})
	}
	bc.Draw()

	var total int64
	for _, d := range m.daily {
		total += d.Count
	}
	caption := styleMuted.Render(fmt.Sprintf(" last %d days · %d activities", statsDays, total))

	return bc.View() + "\n" + caption
}

func (m *StatsModel) renderHistory(width int) string {
	if len(m.recent) == 0 {
		return styleMuted.Render(" no syncs recorded yet")
	}

	var b strings.Builder
	b.WriteString(styleStatusBar.Width(width).Render(" Recent syncs"))
	b.WriteByte('\n')

	// Newest first for reading order.
	for i := len(m.recent) - 1; i >= 0; i-- {
		r := m.recent[i]
		line := " " + r.At.Local().Format("Jan 02 15:04:05")
		if r.OK {
			line += "  " + styleSuccess.Render("ok") + styleMuted.Render(fmt.Sprintf("  %d items", r.Items))
		} else {
			line += "  " + styleError.Render("failed") + styleMuted.Render("  "+r.Error)
		}
		b.WriteString(truncate(line, width))
		if i > 0 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}
