package storage

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	_ "modernc.org/sqlite"

	logx "remindbot/pkg/logx"
)

//go:embed migrations.sql
var migrationsFS embed.FS

// sqliteStore implements the same whole-collection semantics as the file
// driver on top of SQLite. The pos column carries the stored order.
type sqliteStore struct {
	db  *sql.DB
	log logx.Logger
}

func openSQLite(cfg Config, log logx.Logger) (Store, error) {
	if strings.TrimSpace(cfg.Path) == "" {
		return nil, errors.New("sqlite path is required")
	}
	path := cfg.Path
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// SQLite prefers a small number of concurrent writers.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	// Basic pragmas.
	if cfg.BusyTimeout > 0 {
		ms := cfg.BusyTimeout.Milliseconds()
		_, _ = db.Exec(fmt.Sprintf("PRAGMA busy_timeout = %d", ms))
	}
	_, _ = db.Exec("PRAGMA journal_mode = WAL")
	_, _ = db.Exec("PRAGMA synchronous = NORMAL")

	st := &sqliteStore{db: db, log: log}
	if err := st.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return st, nil
}

func (s *sqliteStore) migrate() error {
	b, err := migrationsFS.ReadFile("migrations.sql")
	if err != nil {
		return err
	}
	_, err = s.db.Exec(string(b))
	return err
}

func (s *sqliteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *sqliteStore) Load() (map[string][]Reminder, error) {
	rows, err := s.db.Query(`SELECT owner, id, task, datetime FROM reminders ORDER BY owner, pos`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := map[string][]Reminder{}
	for rows.Next() {
		var owner int64
		var r Reminder
		if err := rows.Scan(&owner, &r.ID, &r.Task, &r.Datetime); err != nil {
			return nil, err
		}
		r.ChatID = owner
		key := OwnerKey(owner)
		out[key] = append(out[key], r)
	}
	return out, rows.Err()
}

func (s *sqliteStore) Save(m map[string][]Reminder) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM reminders`); err != nil {
		return err
	}
	for key, list := range m {
		owner, err := strconv.ParseInt(key, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid owner key %q: %w", key, err)
		}
		for pos, r := range list {
			if _, err := tx.Exec(
				`INSERT INTO reminders(owner, pos, id, task, datetime) VALUES(?,?,?,?,?)`,
				owner, pos, r.ID, r.Task, r.Datetime,
			); err != nil {
				return err
			}
		}
	}
	return tx.Commit()
}

func (s *sqliteStore) Append(owner int64, r Reminder) error {
	_, err := s.db.Exec(
		`INSERT INTO reminders(owner, pos, id, task, datetime)
		 VALUES(?, COALESCE((SELECT MAX(pos)+1 FROM reminders WHERE owner = ?), 0), ?, ?, ?)`,
		owner, owner, r.ID, r.Task, r.Datetime,
	)
	return err
}

func (s *sqliteStore) RemoveAt(owner int64, index int) (Reminder, error) {
	if index < 0 {
		return Reminder{}, ErrIndexOutOfRange
	}
	var pos int64
	var r Reminder
	err := s.db.QueryRow(
		`SELECT pos, id, task, datetime FROM reminders WHERE owner = ? ORDER BY pos LIMIT 1 OFFSET ?`,
		owner, index,
	).Scan(&pos, &r.ID, &r.Task, &r.Datetime)
	if errors.Is(err, sql.ErrNoRows) {
		return Reminder{}, ErrIndexOutOfRange
	}
	if err != nil {
		return Reminder{}, err
	}
	r.ChatID = owner
	if _, err := s.db.Exec(`DELETE FROM reminders WHERE owner = ? AND pos = ?`, owner, pos); err != nil {
		return Reminder{}, err
	}
	return r, nil
}

func (s *sqliteStore) ListSorted(owner int64) ([]Reminder, error) {
	rows, err := s.db.Query(
		`SELECT id, task, datetime FROM reminders WHERE owner = ? ORDER BY pos`,
		owner,
	)
	if err != nil {
		return nil, err
	}
	list := []Reminder{}
	for rows.Next() {
		var r Reminder
		if err := rows.Scan(&r.ID, &r.Task, &r.Datetime); err != nil {
			rows.Close()
			return nil, err
		}
		r.ChatID = owner
		list = append(list, r)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	sort.SliceStable(list, func(i, j int) bool { return list[i].Datetime < list[j].Datetime })

	// Renumber pos to the sorted order so delete indices match the list the
	// caller is about to display (same contract as the file driver).
	tx, err := s.db.Begin()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()
	if _, err := tx.Exec(`DELETE FROM reminders WHERE owner = ?`, owner); err != nil {
		return nil, err
	}
	for pos, r := range list {
		if _, err := tx.Exec(
			`INSERT INTO reminders(owner, pos, id, task, datetime) VALUES(?,?,?,?,?)`,
			owner, pos, r.ID, r.Task, r.Datetime,
		); err != nil {
			return nil, err
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return list, nil
}
