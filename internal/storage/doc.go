// Package storage persists reminder records, grouped by owning chat.
//
// It currently supports:
//   - A single JSON document (compatible with the legacy reminders.json layout)
//   - A SQLite database file
package storage
