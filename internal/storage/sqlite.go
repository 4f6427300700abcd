package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/hyperjump/latsearch/internal/models"
)

// SQLiteStorage implements Storage using SQLite.
type SQLiteStorage struct {
	db *sql.DB
}

// NewSQLiteStorage opens or creates a SQLite database at dbPath and initializes the schema.
// Parent directories are created if they do not exist.
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteStorage{db: db}, nil
}

func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS results (
		id TEXT PRIMARY KEY,
		query_label TEXT NOT NULL,
		metric TEXT NOT NULL,
		closest_label TEXT NOT NULL,
		distance REAL NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_results_created_at ON results(created_at);
	CREATE INDEX IF NOT EXISTS idx_results_closest_label ON results(closest_label);
	`
	_, err := db.Exec(schema)
	return err
}

// SaveResult inserts res with a new UUID.
func (s *SQLiteStorage) SaveResult(ctx context.Context, res *models.SearchResult) (string, error) {
	if res == nil {
		return "", errors.New("nil search result")
	}
	id := uuid.New().String()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO results (id, query_label, metric, closest_label, distance, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		id, res.QueryLabel, res.Metric, res.ClosestLabel, res.Distance, time.Now().UTC(),
	)
	if err != nil {
		return "", fmt.Errorf("failed to save result: %w", err)
	}
	return id, nil
}

// GetResult returns a stored result by ID.
func (s *SQLiteStorage) GetResult(ctx context.Context, id string) (*models.HistoryRecord, error) {
	var r models.HistoryRecord
	err := s.db.QueryRowContext(ctx,
		`SELECT id, query_label, metric, closest_label, distance, created_at
		 FROM results WHERE id = ?`, id,
	).Scan(&r.ID, &r.QueryLabel, &r.Metric, &r.ClosestLabel, &r.Distance, &r.CreatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// ListResults returns up to limit results, newest first. limit <= 0 returns all.
func (s *SQLiteStorage) ListResults(ctx context.Context, limit int) ([]*models.HistoryRecord, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, query_label, metric, closest_label, distance, created_at
		 FROM results ORDER BY created_at DESC, rowid DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []*models.HistoryRecord
	for rows.Next() {
		var r models.HistoryRecord
		if err := rows.Scan(&r.ID, &r.QueryLabel, &r.Metric, &r.ClosestLabel, &r.Distance, &r.CreatedAt); err != nil {
			return nil, err
		}
		records = append(records, &r)
	}
	return records, rows.Err()
}

// CountResults returns the total number of stored results.
func (s *SQLiteStorage) CountResults(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM results`).Scan(&count)
	return count, err
}

// Close closes the database connection.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}
