// Package storage defines the persistence interface for search result history.
package storage

import (
	"context"
	"errors"

	"github.com/hyperjump/latsearch/internal/models"
)

// ErrNotFound signals a history record that does not exist.
var ErrNotFound = errors.New("result not found")

// Storage defines search result persistence operations.
type Storage interface {
	// SaveResult stores res and returns the new record id.
	SaveResult(ctx context.Context, res *models.SearchResult) (string, error)
	GetResult(ctx context.Context, id string) (*models.HistoryRecord, error)
	// ListResults returns up to limit records, newest first.
	ListResults(ctx context.Context, limit int) ([]*models.HistoryRecord, error)
	CountResults(ctx context.Context) (int64, error)

	Close() error
}
