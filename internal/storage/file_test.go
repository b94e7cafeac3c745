package storage

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	logx "remindbot/pkg/logx"
)

func openTestStore(t *testing.T, path string) Store {
	t.Helper()
	st, err := Open(Config{Driver: "file", Path: path}, logx.Nop())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func TestFileStoreMissingFileIsEmpty(t *testing.T) {
	t.Parallel()
	st := openTestStore(t, filepath.Join(t.TempDir(), "reminders.json"))

	all, err := st.Load()
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if len(all) != 0 {
		t.Fatalf("fresh store has %d owners, want 0", len(all))
	}
}

func TestFileStoreRoundTrip(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "reminders.json")
	st := openTestStore(t, path)

	now := time.Date(2024, time.March, 20, 9, 0, 0, 0, time.UTC)
	a := NewReminder(42, "water plants", now)
	b := NewReminder(42, "standup", now.Add(time.Hour))
	if err := st.Append(42, a); err != nil {
		t.Fatalf("Append error: %v", err)
	}
	if err := st.Append(42, b); err != nil {
		t.Fatalf("Append error: %v", err)
	}
	if err := st.Close(); err != nil {
		t.Fatalf("Close error: %v", err)
	}

	// A fresh open sees the same records.
	st2 := openTestStore(t, path)
	all, err := st2.Load()
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	list := all[OwnerKey(42)]
	if len(list) != 2 || list[0].ID != a.ID || list[1].ID != b.ID {
		t.Fatalf("reloaded list = %v", list)
	}
}

func TestFileStorePersistedLayout(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "reminders.json")
	st := openTestStore(t, path)

	fireAt := time.Date(2024, time.March, 20, 9, 0, 0, 0, time.UTC)
	r := NewReminder(42, "water plants", fireAt)
	if err := st.Append(42, r); err != nil {
		t.Fatalf("Append error: %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read file: %v", err)
	}
	var doc map[string][]map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	list, ok := doc["42"]
	if !ok || len(list) != 1 {
		t.Fatalf("document = %s", raw)
	}
	rec := list[0]
	if rec["datetime"] != "2024-03-20 09:00:00" {
		t.Fatalf("datetime = %v", rec["datetime"])
	}
	if rec["id"] != r.ID || rec["task"] != "water plants" {
		t.Fatalf("record = %v", rec)
	}
	if cid, ok := rec["chat_id"].(float64); !ok || int64(cid) != 42 {
		t.Fatalf("chat_id = %v", rec["chat_id"])
	}
}

func TestFileStoreRemoveAt(t *testing.T) {
	t.Parallel()
	st := openTestStore(t, filepath.Join(t.TempDir(), "reminders.json"))

	now := time.Date(2024, time.March, 20, 9, 0, 0, 0, time.UTC)
	a := NewReminder(7, "a", now)
	b := NewReminder(7, "b", now.Add(time.Hour))
	_ = st.Append(7, a)
	_ = st.Append(7, b)

	if _, err := st.RemoveAt(7, 2); !errors.Is(err, ErrIndexOutOfRange) {
		t.Fatalf("RemoveAt(2) error = %v, want ErrIndexOutOfRange", err)
	}
	if _, err := st.RemoveAt(7, -1); !errors.Is(err, ErrIndexOutOfRange) {
		t.Fatalf("RemoveAt(-1) error = %v, want ErrIndexOutOfRange", err)
	}
	if _, err := st.RemoveAt(99, 0); !errors.Is(err, ErrIndexOutOfRange) {
		t.Fatalf("RemoveAt for unknown owner error = %v, want ErrIndexOutOfRange", err)
	}

	removed, err := st.RemoveAt(7, 0)
	if err != nil {
		t.Fatalf("RemoveAt error: %v", err)
	}
	if removed.ID != a.ID {
		t.Fatalf("removed = %v, want %v", removed.ID, a.ID)
	}
	all, _ := st.Load()
	if list := all[OwnerKey(7)]; len(list) != 1 || list[0].ID != b.ID {
		t.Fatalf("remaining = %v", list)
	}
}

func TestFileStoreListSortedReordersStore(t *testing.T) {
	t.Parallel()
	st := openTestStore(t, filepath.Join(t.TempDir(), "reminders.json"))

	now := time.Date(2024, time.March, 20, 9, 0, 0, 0, time.UTC)
	late := NewReminder(7, "late", now.Add(2*time.Hour))
	early := NewReminder(7, "early", now)
	_ = st.Append(7, late)
	_ = st.Append(7, early)

	list, err := st.ListSorted(7)
	if err != nil {
		t.Fatalf("ListSorted error: %v", err)
	}
	if list[0].ID != early.ID || list[1].ID != late.ID {
		t.Fatalf("sorted list = %v", list)
	}

	// Stored order now matches the displayed order, so index 0 removes the
	// earliest reminder.
	removed, err := st.RemoveAt(7, 0)
	if err != nil {
		t.Fatalf("RemoveAt error: %v", err)
	}
	if removed.ID != early.ID {
		t.Fatalf("removed = %v, want the earliest reminder", removed.Task)
	}
}

func TestFileStoreClosedErrors(t *testing.T) {
	t.Parallel()
	st := openTestStore(t, filepath.Join(t.TempDir(), "reminders.json"))
	if err := st.Close(); err != nil {
		t.Fatalf("Close error: %v", err)
	}

	if _, err := st.Load(); !errors.Is(err, ErrClosed) {
		t.Fatalf("Load after close error = %v, want ErrClosed", err)
	}
	if err := st.Append(7, Reminder{}); !errors.Is(err, ErrClosed) {
		t.Fatalf("Append after close error = %v, want ErrClosed", err)
	}
}

func TestOwnerKeyAndID(t *testing.T) {
	t.Parallel()
	if got := OwnerKey(-100123); got != "-100123" {
		t.Fatalf("OwnerKey = %q", got)
	}
	fireAt := time.Unix(1710925200, 0).UTC()
	r := NewReminder(42, "x", fireAt)
	if r.ID != "42_1710925200" {
		t.Fatalf("ID = %q", r.ID)
	}
	back, err := r.FireAt(time.UTC)
	if err != nil {
		t.Fatalf("FireAt error: %v", err)
	}
	if !back.Equal(fireAt) {
		t.Fatalf("FireAt = %v, want %v", back, fireAt)
	}
}
