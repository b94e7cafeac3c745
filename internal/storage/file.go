package storage

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	logx "remindbot/pkg/logx"
)

// fileStore keeps the whole collection in memory and rewrites one JSON
// document on every mutation. A crash between mutation and save loses at
// most the most recent operation; there is no transactional log.
type fileStore struct {
	log logx.Logger

	mu     sync.Mutex
	path   string
	data   map[string][]Reminder
	closed bool
}

func openFile(cfg Config, log logx.Logger) (Store, error) {
	path := strings.TrimSpace(cfg.Path)
	if path == "" {
		return nil, errors.New("storage.path is required for file driver")
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}

	data := map[string][]Reminder{}
	b, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		// First run: empty store, not an error.
	case err != nil:
		return nil, err
	default:
		if err := json.Unmarshal(b, &data); err != nil {
			return nil, err
		}
	}

	s := &fileStore{log: log, path: path, data: data}
	log.Debug("reminder store opened", logx.String("path", path), logx.Int("owners", len(data)))
	return s, nil
}

func (s *fileStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *fileStore) Load() (map[string][]Reminder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrClosed
	}
	return cloneAll(s.data), nil
}

func (s *fileStore) Save(m map[string][]Reminder) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	s.data = cloneAll(m)
	return s.persistLocked()
}

func (s *fileStore) Append(owner int64, r Reminder) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	key := OwnerKey(owner)
	s.data[key] = append(s.data[key], r)
	return s.persistLocked()
}

func (s *fileStore) RemoveAt(owner int64, index int) (Reminder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return Reminder{}, ErrClosed
	}
	key := OwnerKey(owner)
	list := s.data[key]
	if index < 0 || index >= len(list) {
		return Reminder{}, ErrIndexOutOfRange
	}
	removed := list[index]
	s.data[key] = append(list[:index], list[index+1:]...)
	if err := s.persistLocked(); err != nil {
		return Reminder{}, err
	}
	return removed, nil
}

func (s *fileStore) ListSorted(owner int64) ([]Reminder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrClosed
	}
	list := s.data[OwnerKey(owner)]
	// Stable in-place sort: the stored order becomes the last displayed
	// order, so delete indices line up with what the user saw.
	sort.SliceStable(list, func(i, j int) bool { return list[i].Datetime < list[j].Datetime })
	out := make([]Reminder, len(list))
	copy(out, list)
	return out, nil
}

// persistLocked writes the whole document atomically (temp file + rename).
// Call with s.mu held.
func (s *fileStore) persistLocked() error {
	b, err := json.MarshalIndent(s.data, "", "  ")
	if err != nil {
		return err
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}

func cloneAll(m map[string][]Reminder) map[string][]Reminder {
	out := make(map[string][]Reminder, len(m))
	for k, v := range m {
		cp := make([]Reminder, len(v))
		copy(cp, v)
		out[k] = cp
	}
	return out
}
