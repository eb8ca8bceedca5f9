package gesture

import (
	"fmt"
	"time"
)

// FormatRelative renders the time elapsed between last and now as a coarse
// human-readable string. A zero last means no sync has ever completed.
func FormatRelative(last, now time.Time) string {
	if last.IsZero() {
		return "Never synced"
	}

	mins := int(now.Sub(last).Minutes())
	switch {
	case mins < 1:
		return "Just now"
	case mins == 1:
		return "1 minute ago"
	case mins < 60:
		return fmt.Sprintf("%d minutes ago", mins)
	}

	hours := mins / 60
	switch {
	case hours == 1:
		return "1 hour ago"
	case hours < 24:
		return fmt.Sprintf("%d hours ago", hours)
	}

	days := hours / 24
	if days == 1 {
		return "1 day ago"
	}
	return fmt.Sprintf("%d days ago", days)
}
