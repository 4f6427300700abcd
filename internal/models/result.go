package models

import "time"

// SearchResult is the outcome of one nearest-neighbor search.
type SearchResult struct {
	QueryLabel   string  `json:"query"`
	Metric       string  `json:"metric"`
	ClosestLabel string  `json:"closest"`
	Distance     float64 `json:"distance"`
}

// HistoryRecord is a stored SearchResult with its identity and creation time.
type HistoryRecord struct {
	ID string `json:"id"`
	SearchResult
	CreatedAt time.Time `json:"created_at"`
}
