package config

type Config struct {
	Telegram TelegramConfig `json:"telegram"`
	Logging  LoggingConfig  `json:"logging"`

	// Reminder controls date resolution and the fire pipeline.
	Reminder ReminderConfig `json:"reminder"`

	Notifier NotifierConfig `json:"notifier,omitempty"`
	Storage  StorageConfig  `json:"storage"`
}

type TelegramConfig struct {
	Token string `json:"token"`

	// PollTimeout is a Go duration string (e.g. "10s"). Default "10s".
	PollTimeout string `json:"poll_timeout,omitempty"`
}

type LoggingConfig struct {
	Level   string            `json:"level"`
	Console bool              `json:"console"`
	File    LoggingFileConfig `json:"file,omitempty"`
}

type LoggingFileConfig struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path,omitempty"`
}

// ReminderConfig controls the scheduling core.
//
// Timezone is the single fixed IANA zone all reminder timestamps are
// resolved and persisted in. Persisted datetimes are zone-naive, so changing
// the zone reinterprets existing records; pick one and keep it.
type ReminderConfig struct {
	Timezone string `json:"timezone"`

	// MaintenanceEnabled turns on a daily prune of past-due records
	// (the same filtering startup reconciliation applies).
	MaintenanceEnabled bool `json:"maintenance_enabled,omitempty"`
}

// NotifierConfig controls outbound message pacing.
type NotifierConfig struct {
	RatePerSec int `json:"rate_per_sec,omitempty"`
}

// StorageConfig selects the reminder store backend.
//
// Driver values:
//   - "file" (default): single JSON document, compatible with the legacy
//     reminders.json layout
//   - "sqlite": SQLite database file
type StorageConfig struct {
	Driver      string `json:"driver,omitempty"`
	Path        string `json:"path"`
	BusyTimeout string `json:"busy_timeout,omitempty"` // Go duration string (sqlite)
}
