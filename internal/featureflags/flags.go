package featureflags

import (
	"os"
	"strings"
)

// Known flags
const (
	// ReconcileWorker runs the periodic roster reconciliation pass
	ReconcileWorker = "reconcile_worker"
	// RealtimeEvents enables the websocket event stream and event publishing
	RealtimeEvents = "realtime_events"
	// PublicJobCache caches public job listings
	PublicJobCache = "public_job_cache"
)

var defaults = map[string]bool{
	ReconcileWorker: true,
	RealtimeEvents:  true,
	PublicJobCache:  true,
}

// Enabled reports whether a flag is on. Flags are read from env as
// FLAG_<NAME>=true/1/yes/on or false/0/no/off (case-insensitive); unset or
// unparsable values fall back to the flag's default.
func Enabled(name string) bool {
	v := os.Getenv("FLAG_" + strings.ToUpper(name))
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return defaults[name]
	}
}
