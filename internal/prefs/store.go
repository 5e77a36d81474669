// Package prefs persists per-user console preferences in a local SQLite
// database. The backend owns all tenant data; this store only holds UI
// conveniences like saved issue filters, so losing the file is harmless.
package prefs

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// SavedFilter is a named issues query a user pinned for reuse.
type SavedFilter struct {
	ID        string
	Name      string
	Query     string
	CreatedAt time.Time
}

// RecentDataset is a dataset the user viewed, newest first.
type RecentDataset struct {
	DatasetID string
	Name      string
	ViewedAt  time.Time
}

// Store is the SQLite-backed preferences store. A nil Store is valid and
// behaves as empty, so the console runs fine with local state disabled.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens the preferences database at path, creating and migrating it
// as needed. Use ":memory:" for tests.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open preferences database: %w", err)
	}

	// An in-memory database exists per connection, so the pool must stay
	// at one or tables vanish between queries.
	if path == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping preferences database: %w", err)
	}

	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to apply %q: %w", pragma, err)
		}
	}

	s := &Store{db: db, path: path}
	if err := s.Migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the database.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) enabled() bool {
	return s != nil && s.db != nil
}

// SaveFilter stores a named issues query for the given user and
// organization.
func (s *Store) SaveFilter(orgID, userID, name, query string) (*SavedFilter, error) {
	if !s.enabled() {
		return nil, fmt.Errorf("preferences store is disabled")
	}
	if name == "" {
		return nil, fmt.Errorf("filter name is required")
	}

	filter := &SavedFilter{
		ID:        uuid.New().String(),
		Name:      name,
		Query:     query,
		CreatedAt: time.Now().UTC(),
	}

	_, err := s.db.Exec(
		`INSERT INTO saved_filters (id, org_id, user_id, name, query, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		filter.ID, orgID, userID, filter.Name, filter.Query, filter.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to save filter: %w", err)
	}

	return filter, nil
}

// ListFilters returns the user's saved filters for an organization, newest
// first. A disabled store returns no filters.
func (s *Store) ListFilters(orgID, userID string) ([]SavedFilter, error) {
	if !s.enabled() {
		return nil, nil
	}

	rows, err := s.db.Query(
		`SELECT id, name, query, created_at FROM saved_filters
		 WHERE org_id = ? AND user_id = ? ORDER BY created_at DESC`,
		orgID, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list filters: %w", err)
	}
	defer rows.Close()

	var filters []SavedFilter
	for rows.Next() {
		var f SavedFilter
		if err := rows.Scan(&f.ID, &f.Name, &f.Query, &f.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan filter: %w", err)
		}
		filters = append(filters, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read filters: %w", err)
	}
	return filters, nil
}

// DeleteFilter removes one of the user's saved filters.
func (s *Store) DeleteFilter(orgID, userID, id string) error {
	if !s.enabled() {
		return nil
	}

	result, err := s.db.Exec(
		`DELETE FROM saved_filters WHERE id = ? AND org_id = ? AND user_id = ?`,
		id, orgID, userID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete filter: %w", err)
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		return fmt.Errorf("filter not found: %s", id)
	}
	return nil
}

// TouchDataset records that the user viewed a dataset.
func (s *Store) TouchDataset(orgID, userID, datasetID, name string) error {
	if !s.enabled() {
		return nil
	}

	_, err := s.db.Exec(
		`INSERT INTO recent_datasets (org_id, user_id, dataset_id, name, viewed_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT (org_id, user_id, dataset_id)
		 DO UPDATE SET name = excluded.name, viewed_at = excluded.viewed_at`,
		orgID, userID, datasetID, name, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to record dataset view: %w", err)
	}
	return nil
}

// RecentDatasets returns the user's most recently viewed datasets.
func (s *Store) RecentDatasets(orgID, userID string, limit int) ([]RecentDataset, error) {
	if !s.enabled() {
		return nil, nil
	}
	if limit <= 0 {
		limit = 5
	}

	rows, err := s.db.Query(
		`SELECT dataset_id, name, viewed_at FROM recent_datasets
		 WHERE org_id = ? AND user_id = ? ORDER BY viewed_at DESC LIMIT ?`,
		orgID, userID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list recent datasets: %w", err)
	}
	defer rows.Close()

	var recents []RecentDataset
	for rows.Next() {
		var r RecentDataset
		if err := rows.Scan(&r.DatasetID, &r.Name, &r.ViewedAt); err != nil {
			return nil, fmt.Errorf("failed to scan recent dataset: %w", err)
		}
		recents = append(recents, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read recent datasets: %w", err)
	}
	return recents, nil
}

// SetState stores a small piece of UI state, like the last-used export
// format, under a per-user key.
func (s *Store) SetState(orgID, userID, key, value string) error {
	if !s.enabled() {
		return nil
	}

	_, err := s.db.Exec(
		`INSERT INTO ui_state (org_id, user_id, key, value) VALUES (?, ?, ?, ?)
		 ON CONFLICT (org_id, user_id, key) DO UPDATE SET value = excluded.value`,
		orgID, userID, key, value,
	)
	if err != nil {
		return fmt.Errorf("failed to store ui state: %w", err)
	}
	return nil
}

// GetState reads a stored UI state value, "" when nothing was stored.
func (s *Store) GetState(orgID, userID, key string) (string, error) {
	if !s.enabled() {
		return "", nil
	}

	var value string
	err := s.db.QueryRow(
		`SELECT value FROM ui_state WHERE org_id = ? AND user_id = ? AND key = ?`,
		orgID, userID, key,
	).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read ui state: %w", err)
	}
	return value, nil
}

// ForgetDataset drops a dataset from every user's recents, for example
// after it is deleted.
func (s *Store) ForgetDataset(orgID, datasetID string) error {
	if !s.enabled() {
		return nil
	}

	_, err := s.db.Exec(
		`DELETE FROM recent_datasets WHERE org_id = ? AND dataset_id = ?`,
		orgID, datasetID,
	)
	if err != nil {
		return fmt.Errorf("failed to forget dataset: %w", err)
	}
	return nil
}
