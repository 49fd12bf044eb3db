package jobstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"clipforge/internal/config"
)

// ErrStatusConflict indicates a transition that would move a record backward
// in its lifecycle.
var ErrStatusConflict = errors.New("work item status conflict")

// Store manages work item persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the jobs database and verifies the schema.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}

	dbPath := filepath.Join(cfg.Paths.LogDir, "jobs.db")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: dbPath}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}

	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

// CreateIfAbsent inserts a queued work item for the fingerprint unless one
// already exists. It returns the stored item and whether this call created
// it. The unique index on fingerprint makes the check-and-create atomic;
// there is no separate lookup racing against the insert.
func (s *Store) CreateIfAbsent(ctx context.Context, fingerprint string, kind Kind) (*WorkItem, bool, error) {
	fingerprint = strings.TrimSpace(fingerprint)
	if fingerprint == "" {
		return nil, false, errors.New("fingerprint is required")
	}
	if _, ok := ParseKind(string(kind)); !ok {
		return nil, false, fmt.Errorf("unknown work item kind %q", kind)
	}

	timestamp := time.Now().UTC().Format(time.RFC3339Nano)
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO work_items (fingerprint, kind, status, created_at, updated_at)
         VALUES (?, ?, ?, ?, ?)
         ON CONFLICT(fingerprint) DO NOTHING`,
		fingerprint, kind, StatusQueued, timestamp, timestamp,
	)
	if err != nil {
		return nil, false, fmt.Errorf("insert work item: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return nil, false, fmt.Errorf("rows affected: %w", err)
	}

	item, err := s.GetByFingerprint(ctx, fingerprint)
	if err != nil {
		return nil, false, err
	}
	if item == nil {
		return nil, false, fmt.Errorf("work item %s vanished after insert", fingerprint)
	}
	return item, affected > 0, nil
}

// GetByFingerprint fetches a work item by its fingerprint, or nil when absent.
func (s *Store) GetByFingerprint(ctx context.Context, fingerprint string) (*WorkItem, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+itemColumns+` FROM work_items WHERE fingerprint = ?`, fingerprint)
	item, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get work item: %w", err)
	}
	return item, nil
}

// MarkProcessing transitions a queued item to processing.
func (s *Store) MarkProcessing(ctx context.Context, fingerprint string) error {
	return s.transition(ctx, fingerprint, StatusProcessing, func(*updateSet) {})
}

// MarkCompleted finalizes an item with its output asset and result payload.
func (s *Store) MarkCompleted(ctx context.Context, fingerprint, outputAssetID string, result Result) error {
	encoded, err := EncodeResult(result)
	if err != nil {
		return err
	}
	return s.transition(ctx, fingerprint, StatusCompleted, func(u *updateSet) {
		u.outputAssetID = &outputAssetID
		u.resultJSON = &encoded
	})
}

// MarkFailed finalizes an item with the recorded error message, preserved for
// polling clients.
func (s *Store) MarkFailed(ctx context.Context, fingerprint, message string) error {
	return s.transition(ctx, fingerprint, StatusFailed, func(u *updateSet) {
		u.errorMessage = &message
	})
}

type updateSet struct {
	outputAssetID *string
	errorMessage  *string
	resultJSON    *string
}

// transition applies a forward status move. The allowed prior statuses are
// part of the WHERE clause so regressions fail with ErrStatusConflict instead
// of silently rewriting terminal records.
func (s *Store) transition(ctx context.Context, fingerprint string, to Status, apply func(*updateSet)) error {
	priors := to.allowedPriors()
	if len(priors) == 0 {
		return fmt.Errorf("no transitions lead to status %q", to)
	}

	var set updateSet
	apply(&set)

	assignments := []string{"status = ?", "updated_at = ?"}
	args := []any{to, time.Now().UTC().Format(time.RFC3339Nano)}
	if set.outputAssetID != nil {
		assignments = append(assignments, "output_asset_id = ?")
		args = append(args, nullableString(*set.outputAssetID))
	}
	if set.errorMessage != nil {
		assignments = append(assignments, "error_message = ?")
		args = append(args, nullableString(*set.errorMessage))
	}
	if set.resultJSON != nil {
		assignments = append(assignments, "result_json = ?")
		args = append(args, nullableString(*set.resultJSON))
	}

	args = append(args, fingerprint)
	placeholders := make([]string, len(priors))
	for i, prior := range priors {
		placeholders[i] = "?"
		args = append(args, prior)
	}

	query := `UPDATE work_items SET ` + strings.Join(assignments, ", ") +
		` WHERE fingerprint = ? AND status IN (` + strings.Join(placeholders, ",") + `)`
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("transition to %s: %w", to, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		current, lookupErr := s.GetByFingerprint(ctx, fingerprint)
		if lookupErr != nil {
			return lookupErr
		}
		if current == nil {
			return fmt.Errorf("work item %s not found", fingerprint)
		}
		return fmt.Errorf("%w: %s cannot move from %s to %s", ErrStatusConflict, fingerprint, current.Status, to)
	}
	return nil
}

// List returns work items filtered by status set (or all items when no
// status is provided), newest first.
func (s *Store) List(ctx context.Context, statuses ...Status) ([]*WorkItem, error) {
	baseQuery := `SELECT ` + itemColumns + ` FROM work_items`
	orderClause := ` ORDER BY created_at DESC`

	var (
		rows *sql.Rows
		err  error
	)
	if len(statuses) == 0 {
		rows, err = s.db.QueryContext(ctx, baseQuery+orderClause)
	} else {
		placeholders := make([]string, len(statuses))
		args := make([]any, len(statuses))
		for i, status := range statuses {
			placeholders[i] = "?"
			args[i] = status
		}
		rows, err = s.db.QueryContext(ctx,
			baseQuery+` WHERE status IN (`+strings.Join(placeholders, ",")+`)`+orderClause, args...)
	}
	if err != nil {
		return nil, fmt.Errorf("list work items: %w", err)
	}
	defer rows.Close()

	var items []*WorkItem
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// CompletedEditsByParent returns completed video edits whose result
// references the parent key, newest first. Both the tagged and the legacy
// unscoped result shapes are matched.
func (s *Store) CompletedEditsByParent(ctx context.Context, parentKey string) ([]*WorkItem, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+itemColumns+` FROM work_items
         WHERE kind = ? AND status = ? ORDER BY created_at DESC`,
		KindVideoEdit, StatusCompleted,
	)
	if err != nil {
		return nil, fmt.Errorf("query completed edits: %w", err)
	}
	defer rows.Close()

	var items []*WorkItem
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		if item.Result.Edit != nil && item.Result.Edit.ParentKey == parentKey {
			items = append(items, item)
		}
	}
	return items, rows.Err()
}

// Stats returns a count of items grouped by status.
func (s *Store) Stats(ctx context.Context) (map[Status]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT status, COUNT(1) FROM work_items GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("work item stats: %w", err)
	}
	defer rows.Close()

	stats := make(map[Status]int)
	for rows.Next() {
		var status Status
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		stats[status] = count
	}
	return stats, rows.Err()
}

const itemColumns = "id, fingerprint, kind, status, output_asset_id, error_message, result_json, created_at, updated_at"

func scanItem(scanner interface{ Scan(dest ...any) error }) (*WorkItem, error) {
	var (
		id            int64
		fingerprint   string
		kindStr       string
		statusStr     string
		outputAssetID sql.NullString
		errorMessage  sql.NullString
		resultJSON    sql.NullString
		createdRaw    string
		updatedRaw    string
	)

	if err := scanner.Scan(
		&id,
		&fingerprint,
		&kindStr,
		&statusStr,
		&outputAssetID,
		&errorMessage,
		&resultJSON,
		&createdRaw,
		&updatedRaw,
	); err != nil {
		return nil, err
	}

	result, err := DecodeResult(resultJSON.String)
	if err != nil {
		return nil, fmt.Errorf("work item %s: %w", fingerprint, err)
	}

	item := &WorkItem{
		ID:            id,
		Fingerprint:   fingerprint,
		Kind:          Kind(kindStr),
		Status:        Status(statusStr),
		OutputAssetID: outputAssetID.String,
		ErrorMessage:  errorMessage.String,
		Result:        result,
	}
	if created, err := time.Parse(time.RFC3339Nano, createdRaw); err == nil {
		item.CreatedAt = created
	}
	if updated, err := time.Parse(time.RFC3339Nano, updatedRaw); err == nil {
		item.UpdatedAt = updated
	}
	return item, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}
