package tui

import (
	"time"

	"github.com/charmbracelet/lipgloss"
)

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// SpinnerTickMsg triggers a re-render while a refresh or load is in flight.
type SpinnerTickMsg struct{}

// renderLoadingPlaceholder renders an animated loading indicator. The frame
// is selected from the current time so it animates on re-render.
func renderLoadingPlaceholder(width, height int) string {
	frame := spinnerFrames[time.Now().UnixMilli()/120%int64(len(spinnerFrames))]
	text := styleMuted.Italic(true).Render(frame + " Loading…")
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, text)
}
