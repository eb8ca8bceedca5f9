package tui

import (
	"context"
	"io"
	"log"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/fieldsync/skiff/internal/feed"
	"github.com/fieldsync/skiff/internal/gesture"
	"github.com/fieldsync/skiff/internal/model"
)

// newTestFeedModel builds a feed page with cell-scale gesture thresholds and
// a refresh action that counts invocations.
func newTestFeedModel(t *testing.T, items []model.Activity) (*FeedModel, *atomic.Int32) {
	t.Helper()

	var refreshes atomic.Int32
	interp, err := gesture.New(gesture.Config{
		Refresh: func(context.Context) error {
			refreshes.Add(1)
			return nil
		},
		ActivationThreshold: 3,
		MaxPullDistance:     5,
		Logger:              log.New(io.Discard, "", 0),
	})
	if err != nil {
		t.Fatalf("gesture.New: %v", err)
	}

	cache := feed.NewCache()
	if items != nil {
		cache.Replace(items, time.Now())
	}

	m := NewFeedModel(interp, cache, false)
	m.Update(tea.WindowSizeMsg{Width: 80, Height: 24})
	m.reloadItems()
	return m, &refreshes
}

func testActivities(n int) []model.Activity {
	items := make([]model.Activity, n)
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	for i := range items {
		items[i] = model.Activity{
			ID:        string(rune('a' + i%26)),
			Timestamp: base.Add(time.Duration(-i) * time.Minute),
			Kind:      "visit",
			Title:     "Site walkthrough",
			Site:      "north",
		}
	}
	return items
}

func press(m *FeedModel, y int) {
	m.Update(tea.MouseMsg{X: 2, Y: y, Action: tea.MouseActionPress, Button: tea.MouseButtonLeft})
}

func drag(m *FeedModel, y int) {
	m.Update(tea.MouseMsg{X: 2, Y: y, Action: tea.MouseActionMotion, Button: tea.MouseButtonLeft})
}

func release(m *FeedModel) tea.Cmd {
	cmd, _ := m.Update(tea.MouseMsg{X: 2, Y: 0, Action: tea.MouseActionRelease, Button: tea.MouseButtonLeft})
	return cmd
}

func TestDragPastThresholdStartsRefresh(t *testing.T) {
	m, _ := newTestFeedModel(t, testActivities(3))

	press(m, 4)
	drag(m, 12) // raw 8, damped 4 >= threshold 3

	if snap := m.interp.Snapshot(); !snap.IsPulling() {
		t.Fatalf("phase = %v after drag, want pulling", snap.Phase)
	}

	cmd := release(m)
	if cmd == nil {
		t.Fatal("release past threshold should produce a refresh command")
	}
	if snap := m.interp.Snapshot(); !snap.IsRefreshing() {
		t.Errorf("phase = %v after release, want refreshing", snap.Phase)
	}
}

func TestShortDragDoesNotRefresh(t *testing.T) {
	m, refreshes := newTestFeedModel(t, testActivities(3))

	press(m, 4)
	drag(m, 8) // raw 4, damped 2 < threshold 3
	if cmd := release(m); cmd != nil {
		t.Fatal("release below threshold should not produce a command")
	}

	if snap := m.interp.Snapshot(); snap.Phase != gesture.PhaseIdle {
		t.Errorf("phase = %v, want idle", snap.Phase)
	}
	if refreshes.Load() != 0 {
		t.Errorf("refresh ran %d times, want 0", refreshes.Load())
	}
}

func TestDragOutsideListIsIgnored(t *testing.T) {
	m, _ := newTestFeedModel(t, testActivities(3))

	press(m, 0) // header row, out of scope
	drag(m, 12)
	if cmd := release(m); cmd != nil {
		t.Fatal("gesture starting on the header should not refresh")
	}
}

func TestDragWhileScrolledResetsPull(t *testing.T) {
	m, _ := newTestFeedModel(t, testActivities(60))
	m.scrollTop = 5

	press(m, 4)
	drag(m, 12)

	if snap := m.interp.Snapshot(); snap.IsPulling() {
		t.Error("pull should not engage while the list is scrolled down")
	}
	if cmd := release(m); cmd != nil {
		t.Fatal("release while scrolled should not refresh")
	}
}

func TestWheelScrollsList(t *testing.T) {
	m, _ := newTestFeedModel(t, testActivities(60))

	m.Update(tea.MouseMsg{Action: tea.MouseActionPress, Button: tea.MouseButtonWheelDown})
	m.Update(tea.MouseMsg{Action: tea.MouseActionPress, Button: tea.MouseButtonWheelDown})
	if m.scrollTop != 2 {
		t.Errorf("scrollTop = %d after two wheel-downs, want 2", m.scrollTop)
	}

	m.Update(tea.MouseMsg{Action: tea.MouseActionPress, Button: tea.MouseButtonWheelUp})
	if m.scrollTop != 1 {
		t.Errorf("scrollTop = %d after wheel-up, want 1", m.scrollTop)
	}
}

func TestReverseWheelInvertsDirection(t *testing.T) {
	m, _ := newTestFeedModel(t, testActivities(60))
	m.reverseWheel = true
	m.scrollTop = 5

	m.Update(tea.MouseMsg{Action: tea.MouseActionPress, Button: tea.MouseButtonWheelUp})
	if m.scrollTop != 6 {
		t.Errorf("scrollTop = %d after reversed wheel-up, want 6", m.scrollTop)
	}
	m.Update(tea.MouseMsg{Action: tea.MouseActionPress, Button: tea.MouseButtonWheelDown})
	if m.scrollTop != 5 {
		t.Errorf("scrollTop = %d after reversed wheel-down, want 5", m.scrollTop)
	}
}

func TestWheelClampsAtTop(t *testing.T) {
	m, _ := newTestFeedModel(t, testActivities(3))

	m.Update(tea.MouseMsg{Action: tea.MouseActionPress, Button: tea.MouseButtonWheelUp})
	if m.scrollTop != 0 {
		t.Errorf("scrollTop = %d, want 0", m.scrollTop)
	}
}

func TestRefreshKeyGuardsReentry(t *testing.T) {
	m, _ := newTestFeedModel(t, nil)

	cmd, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'r'}})
	if cmd == nil {
		t.Fatal("r should start a refresh")
	}

	// The run has not executed yet, so the interpreter is still refreshing.
	cmd, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'r'}})
	if cmd != nil {
		t.Error("second r while refreshing should be suppressed")
	}
}

func TestSiteFilterNarrowsItems(t *testing.T) {
	items := []model.Activity{
		{ID: "a1", Timestamp: time.Now(), Site: "north", Title: "one"},
		{ID: "a2", Timestamp: time.Now(), Site: "south", Title: "two"},
		{ID: "a3", Timestamp: time.Now(), Site: "north", Title: "three"},
	}
	m, _ := newTestFeedModel(t, items)

	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'f'}})
	if !m.filtering {
		t.Fatal("f should enter filter mode")
	}
	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("south")})
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})

	if len(m.items) != 1 || m.items[0].ID != "a2" {
		t.Errorf("filtered items = %v, want only a2", m.items)
	}

	m.Update(tea.KeyMsg{Type: tea.KeyEscape})
	if len(m.items) != 3 {
		t.Errorf("escape should clear the filter, got %d items", len(m.items))
	}
}

func TestSyncDoneRecordsError(t *testing.T) {
	m, _ := newTestFeedModel(t, nil)

	m.Update(syncDoneMsg{err: errSentinel})
	if m.lastErr != errSentinel {
		t.Errorf("lastErr = %v, want sentinel", m.lastErr)
	}

	m.Update(syncDoneMsg{})
	if m.lastErr != nil {
		t.Errorf("lastErr = %v after clean sync, want nil", m.lastErr)
	}
}

var errSentinel = errTest("boom")

type errTest string

func (e errTest) Error() string { return string(e) }

func TestViewShowsPullHints(t *testing.T) {
	m, _ := newTestFeedModel(t, testActivities(3))

	press(m, 4)
	drag(m, 8) // damped 2, below threshold
	view := m.View(80, 24)
	if !strings.Contains(view, "Pull to refresh") {
		t.Error("view below threshold should hint Pull to refresh")
	}

	drag(m, 12) // damped 4, past threshold
	view = m.View(80, 24)
	if !strings.Contains(view, "Release to refresh") {
		t.Error("view past threshold should hint Release to refresh")
	}
}

func TestViewShowsLastSyncAndCount(t *testing.T) {
	m, _ := newTestFeedModel(t, testActivities(3))

	view := m.View(80, 24)
	if !strings.Contains(view, "Never synced") {
		t.Error("view should show Never synced before the first refresh")
	}
	if !strings.Contains(view, "3 activities") {
		t.Error("view should show the activity count")
	}
}
