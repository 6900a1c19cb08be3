package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/shahedmomenzadeh/Video-pipeline/internal/config"
)

// Store manages ledger persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the ledger database and applies migrations.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}

	dbPath := filepath.Join(cfg.Paths.LogDir, "ledger.db")
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
	if err := store.applyMigrations(context.Background()); err != nil {
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

// Path returns the database file location for diagnostics.
func (s *Store) Path() string {
	return s.path
}

// SaveItem registers an item, reporting whether it was newly inserted.
// Existing keys are left untouched so re-ingesting a links file is idempotent.
func (s *Store) SaveItem(ctx context.Context, item *Item) (bool, error) {
	if item == nil {
		return false, errors.New("item is nil")
	}
	if item.Key == "" {
		return false, errors.New("item key required")
	}
	if item.CreatedAt.IsZero() {
		item.CreatedAt = time.Now().UTC()
	}
	res, err := s.db.ExecContext(
		ctx,
		`INSERT INTO items (key, url, title, playlist, created_at)
         VALUES (?, ?, ?, ?, ?)
         ON CONFLICT(key) DO NOTHING`,
		item.Key,
		item.URL,
		nullableString(item.Title),
		nullableString(item.Playlist),
		item.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return false, fmt.Errorf("insert item: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}

// GetItem fetches an item by key, returning nil when absent.
func (s *Store) GetItem(ctx context.Context, key string) (*Item, error) {
	row := s.db.QueryRowContext(
		ctx,
		`SELECT key, url, title, playlist, created_at FROM items WHERE key = ?`,
		key,
	)
	item, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get item: %w", err)
	}
	return item, nil
}

// ListItems returns all registered items in registration order.
func (s *Store) ListItems(ctx context.Context) ([]*Item, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT key, url, title, playlist, created_at FROM items ORDER BY created_at, key`,
	)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	defer rows.Close()

	var items []*Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// RecordOutcome appends a stage outcome. The write is durable before return;
// a crash afterwards costs at most the work in flight, never the record.
func (s *Store) RecordOutcome(ctx context.Context, itemKey string, stage Stage, status Status, detail, runID string) (*Record, error) {
	if itemKey == "" {
		return nil, errors.New("item key required")
	}
	now := time.Now().UTC()
	res, err := s.db.ExecContext(
		ctx,
		`INSERT INTO stage_records (item_key, stage, status, detail, run_id, created_at)
         VALUES (?, ?, ?, ?, ?, ?)`,
		itemKey,
		string(stage),
		string(status),
		nullableString(detail),
		nullableString(runID),
		now.Format(time.RFC3339Nano),
	)
	if err != nil {
		return nil, fmt.Errorf("record outcome: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return &Record{
		ID:        id,
		ItemKey:   itemKey,
		Stage:     stage,
		Status:    status,
		Detail:    detail,
		RunID:     runID,
		CreatedAt: now,
	}, nil
}

// StatusOf returns the latest recorded status for an (item, stage) pair, or
// StatusPending when no record exists.
func (s *Store) StatusOf(ctx context.Context, itemKey string, stage Stage) (Status, error) {
	row := s.db.QueryRowContext(
		ctx,
		`SELECT status FROM stage_records
         WHERE item_key = ? AND stage = ?
         ORDER BY id DESC LIMIT 1`,
		itemKey,
		string(stage),
	)
	var status string
	if err := row.Scan(&status); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return StatusPending, nil
		}
		return "", fmt.Errorf("status of %s/%s: %w", itemKey, stage, err)
	}
	return Status(status), nil
}

// ItemStatuses returns every registered item with its latest status for one
// stage, in registration order. Items without a record report pending.
func (s *Store) ItemStatuses(ctx context.Context, stage Stage) ([]ItemStatus, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT i.key, i.url, i.title, i.playlist, i.created_at,
                COALESCE((
                    SELECT r.status FROM stage_records r
                    WHERE r.item_key = i.key AND r.stage = ?
                    ORDER BY r.id DESC LIMIT 1
                ), ?) AS status
         FROM items i ORDER BY i.created_at, i.key`,
		string(stage),
		string(StatusPending),
	)
	if err != nil {
		return nil, fmt.Errorf("item statuses: %w", err)
	}
	defer rows.Close()

	var results []ItemStatus
	for rows.Next() {
		var (
			item       Item
			title      sql.NullString
			playlist   sql.NullString
			createdRaw string
			status     string
		)
		if err := rows.Scan(&item.Key, &item.URL, &title, &playlist, &createdRaw, &status); err != nil {
			return nil, fmt.Errorf("scan item status: %w", err)
		}
		item.Title = title.String
		item.Playlist = playlist.String
		if created, parseErr := time.Parse(time.RFC3339Nano, createdRaw); parseErr == nil {
			item.CreatedAt = created
		}
		results = append(results, ItemStatus{Item: item, Status: Status(status)})
	}
	return results, rows.Err()
}

// EligibleItems returns the items a stage should process: those whose latest
// status is pending or failed.
func (s *Store) EligibleItems(ctx context.Context, stage Stage) ([]*Item, error) {
	statuses, err := s.ItemStatuses(ctx, stage)
	if err != nil {
		return nil, err
	}
	var eligible []*Item
	for i := range statuses {
		if statuses[i].Status.Eligible() {
			item := statuses[i].Item
			eligible = append(eligible, &item)
		}
	}
	return eligible, nil
}

// Stats returns latest-status counts per stage for the status report.
func (s *Store) Stats(ctx context.Context) (map[Stage]map[Status]int, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT stage, status, COUNT(1) FROM (
            SELECT item_key, stage, status,
                   ROW_NUMBER() OVER (PARTITION BY item_key, stage ORDER BY id DESC) AS rn
            FROM stage_records
         ) WHERE rn = 1 GROUP BY stage, status`,
	)
	if err != nil {
		return nil, fmt.Errorf("ledger stats: %w", err)
	}
	defer rows.Close()

	stats := make(map[Stage]map[Status]int)
	for rows.Next() {
		var stage, status string
		var count int
		if err := rows.Scan(&stage, &status, &count); err != nil {
			return nil, err
		}
		byStatus := stats[Stage(stage)]
		if byStatus == nil {
			byStatus = make(map[Status]int)
			stats[Stage(stage)] = byStatus
		}
		byStatus[Status(status)] = count
	}
	return stats, rows.Err()
}

// History returns every record for an item in append order, for diagnostics.
func (s *Store) History(ctx context.Context, itemKey string) ([]*Record, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT id, item_key, stage, status, detail, run_id, created_at
         FROM stage_records WHERE item_key = ? ORDER BY id`,
		itemKey,
	)
	if err != nil {
		return nil, fmt.Errorf("item history: %w", err)
	}
	defer rows.Close()

	var records []*Record
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

func scanItem(scanner interface{ Scan(dest ...any) error }) (*Item, error) {
	var (
		item       Item
		title      sql.NullString
		playlist   sql.NullString
		createdRaw string
	)
	if err := scanner.Scan(&item.Key, &item.URL, &title, &playlist, &createdRaw); err != nil {
		return nil, err
	}
	item.Title = title.String
	item.Playlist = playlist.String
	if created, err := time.Parse(time.RFC3339Nano, createdRaw); err == nil {
		item.CreatedAt = created
	}
	return &item, nil
}

func scanRecord(scanner interface{ Scan(dest ...any) error }) (*Record, error) {
	var (
		record     Record
		stage      string
		status     string
		detail     sql.NullString
		runID      sql.NullString
		createdRaw string
	)
	if err := scanner.Scan(&record.ID, &record.ItemKey, &stage, &status, &detail, &runID, &createdRaw); err != nil {
		return nil, fmt.Errorf("scan record: %w", err)
	}
	record.Stage = Stage(stage)
	record.Status = Status(status)
	record.Detail = detail.String
	record.RunID = runID.String
	if created, err := time.Parse(time.RFC3339Nano, createdRaw); err == nil {
		record.CreatedAt = created
	}
	return &record, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}
