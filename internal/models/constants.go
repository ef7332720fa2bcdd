package models

import "time"

const (
	// SnapshotKey is the storage key of the persisted snapshot
	SnapshotKey = "dynamicData"

	// SchemaVersion is the current snapshot schema version
	SchemaVersion = 1

	// DayMs is one day in milliseconds
	DayMs = 86_400_000

	// DefaultSurchargeRate is the GST added to the rental subtotal (9%)
	DefaultSurchargeRate = 0.09

	// DefaultSessionTTL is the idle time after which a session expires
	DefaultSessionTTL = 10 * time.Minute

	// DefaultAutosaveInterval is how often the snapshot is autosaved
	DefaultAutosaveInterval = 20 * time.Second
)

// Layouts accepted for booking dates, most specific first.
var DateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}
