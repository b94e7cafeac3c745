package storage

import (
	"errors"
	"fmt"
	"strconv"
	"time"
)

var (
	ErrIndexOutOfRange = errors.New("reminder index out of range")
	ErrClosed          = errors.New("store closed")
)

// TimeLayout is the persisted datetime form: zone-naive local time.
// Lexicographic order on this layout equals chronological order, which the
// sorting code relies on.
const TimeLayout = "2006-01-02 15:04:05"

// Reminder is one scheduled notification occurrence.
//
// The JSON field set and the datetime layout are a compatibility contract
// with the legacy reminders.json file; do not rename or reorder fields.
type Reminder struct {
	ID       string `json:"id"`
	Task     string `json:"task"`
	Datetime string `json:"datetime"`
	ChatID   int64  `json:"chat_id"`
}

// NewReminder builds a record for the given owner and fire time.
//
// The ID is derived deterministically from (owner, fire time) so it can be
// re-derived for job cancellation without a lookup table.
func NewReminder(chatID int64, task string, fireAt time.Time) Reminder {
	return Reminder{
		ID:       fmt.Sprintf("%d_%d", chatID, fireAt.Unix()),
		Task:     task,
		Datetime: fireAt.Format(TimeLayout),
		ChatID:   chatID,
	}
}

// FireAt parses the persisted datetime in the given zone.
func (r Reminder) FireAt(loc *time.Location) (time.Time, error) {
	return time.ParseInLocation(TimeLayout, r.Datetime, loc)
}

// OwnerKey is the map key used for an owner in the persisted document.
func OwnerKey(chatID int64) string { return strconv.FormatInt(chatID, 10) }

// Store is a durable keyed collection of reminders, grouped by owner.
//
// Concurrency precondition: all mutating calls come from the single
// request-handling goroutine. Drivers only guard their own file/database
// handle; they do not serialize logical read-modify-write sequences.
type Store interface {
	// Load returns a copy of the whole collection keyed by OwnerKey.
	Load() (map[string][]Reminder, error)

	// Save replaces the whole collection durably.
	Save(map[string][]Reminder) error

	// Append adds a reminder to the owner's list (stored order) and saves.
	Append(owner int64, r Reminder) error

	// RemoveAt removes the reminder at the 0-based stored-order index and
	// saves. Returns ErrIndexOutOfRange without mutation if index is invalid.
	RemoveAt(owner int64, index int) (Reminder, error)

	// ListSorted returns the owner's reminders ascending by datetime.
	// The stored order is updated to match, so a later RemoveAt index refers
	// to the ordering the caller last displayed.
	ListSorted(owner int64) ([]Reminder, error)

	Close() error
}

// Config configures storage.
//
// Driver values:
//   - "file" (default when empty): single JSON document
//   - "sqlite": SQLite database file
type Config struct {
	Driver      string
	Path        string
	BusyTimeout time.Duration // sqlite only; 0 means default
}
