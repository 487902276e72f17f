// Package types contains common read-side types used across the application.
package types

import "time"

// RankedRecord is a leaderboard entry with its rank attached.
// Rank is 1-based, derived from score-descending insertion-stable order,
// and never persisted.
type RankedRecord struct {
	Rank      int        `json:"rank"`
	GUID      string     `json:"guid"`
	Name      string     `json:"name"`
	Tag       string     `json:"tag"`
	Score     float64    `json:"score"`
	UpdatedAt *time.Time `json:"updatedAt"`
}

// PageResult is one page of the ranked leaderboard.
// JSON field names mirror the public API contract.
type PageResult struct {
	Page       int            `json:"page"`
	PageSize   int            `json:"limit"`
	Total      int            `json:"total"`
	TotalPages int            `json:"totalPages"`
	Items      []RankedRecord `json:"data"`
}
