package model

import "time"

// Shared defaults used by both the hub and client binaries.
const (
	// Gesture tuning. Thresholds are in the host surface's logical units
	// (terminal cells for the bundled TUI).
	DefaultActivationThreshold = 80.0
	DefaultMaxPullDistance     = 120.0

	DefaultFeedLimit      = 200
	DefaultUpdateInterval = 2 * time.Second
	DefaultAPIPort        = 3414
	DefaultRetention      = 30 * 24 * time.Hour
	DefaultSkin           = "default"
)
