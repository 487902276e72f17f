// Package repository defines the record store interface and errors.
package repository

import (
	"context"

	"github.com/playforge/ladder/internal/domain/model"
	"github.com/playforge/ladder/internal/domain/types"
)

// Store provides durable CRUD access to the leaderboard records.
//
// Mutations are totally ordered relative to each other; reads always observe
// some fully-written snapshot, never a torn one.
type Store interface {
	// Get returns the record for guid, or nil when absent.
	Get(ctx context.Context, guid string) (*model.Record, error)

	// Create adds a new record. Fails with ErrAlreadyExists when guid is
	// taken and with model.ErrScoreNotFinite on a non-finite score.
	Create(ctx context.Context, guid string, fields model.Fields) (*model.Record, error)

	// Update merges a partial patch over an existing record and returns the
	// result, or nil when guid is absent. Empty patches fail with
	// ErrEmptyPatch.
	Update(ctx context.Context, guid string, patch model.Patch) (*model.Record, error)

	// Delete removes the record for guid, reporting whether anything was
	// removed.
	Delete(ctx context.Context, guid string) (bool, error)

	// ListPaged returns one page of the ranked leaderboard. Page and
	// pageSize are clamped to valid bounds.
	ListPaged(ctx context.Context, page, pageSize int) (types.PageResult, error)

	// Count returns the number of records tracked, best effort.
	Count(ctx context.Context) int
}
