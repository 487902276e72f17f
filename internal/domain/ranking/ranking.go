// Package ranking implements the pure ranking and pagination view over a
// record collection. The view is recomputed on every call; nothing here is
// cached or incrementally maintained, because the collection can change
// between calls.
package ranking

import (
	"sort"

	"github.com/playforge/ladder/internal/domain/model"
	"github.com/playforge/ladder/internal/domain/types"
)

// Page size bounds enforced on every paged read.
const (
	MinPageSize = 1
	MaxPageSize = 100
)

// ClampPageSize forces a requested page size into [MinPageSize, MaxPageSize].
func ClampPageSize(n int) int {
	if n < MinPageSize {
		return MinPageSize
	}
	if n > MaxPageSize {
		return MaxPageSize
	}
	return n
}

// Rank sorts records by score descending and assigns dense 1-based ranks.
// The sort is stable: records with equal scores keep their relative order
// from the input collection. The input slice is not modified.
func Rank(records []model.Record) []types.RankedRecord {
	sorted := make([]model.Record, len(records))
	copy(sorted, records)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Score > sorted[j].Score
	})

	ranked := make([]types.RankedRecord, len(sorted))
	for i, r := range sorted {
		ranked[i] = types.RankedRecord{
			Rank:      i + 1,
			GUID:      r.GUID,
			Name:      r.Name,
			Tag:       r.Tag,
			Score:     r.Score,
			UpdatedAt: r.UpdatedAt,
		}
	}
	return ranked
}

// Paginate ranks the full collection and slices out the requested page.
// The page is clamped into [1, totalPages]; totalPages is never below 1,
// even for an empty collection.
func Paginate(records []model.Record, page, pageSize int) types.PageResult {
	pageSize = ClampPageSize(pageSize)
	if page < 1 {
		page = 1
	}

	ranked := Rank(records)
	total := len(ranked)

	totalPages := (total + pageSize - 1) / pageSize
	if totalPages < 1 {
		totalPages = 1
	}
	if page > totalPages {
		page = totalPages
	}

	start := (page - 1) * pageSize
	end := start + pageSize
	if start > total {
		start = total
	}
	if end > total {
		end = total
	}

	return types.PageResult{
		Page:       page,
		PageSize:   pageSize,
		Total:      total,
		TotalPages: totalPages,
		Items:      ranked[start:end],
	}
}
