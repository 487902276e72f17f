// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"net/http"
	"strconv"

	"github.com/playforge/ladder/internal/domain/types"
)

// Query defaults for the paged leaderboard read.
const (
	defaultPage  = 1
	defaultLimit = 10
)

// LeaderboardDependencies defines the interface for leaderboard reads.
type LeaderboardDependencies interface {
	ListPaged(ctx context.Context, page, pageSize int) (types.PageResult, error)
}

// LeaderboardHandler handles paged leaderboard requests.
type LeaderboardHandler struct {
	deps LeaderboardDependencies
}

// NewLeaderboardHandler creates a new leaderboard handler.
func NewLeaderboardHandler(deps LeaderboardDependencies) *LeaderboardHandler {
	return &LeaderboardHandler{deps: deps}
}

// HandleGetLeaderboard handles GET /leaderboard?page=N&limit=M requests.
func (h *LeaderboardHandler) HandleGetLeaderboard(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_leaderboard"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}

	page := queryInt(r, "page", defaultPage)
	limit := queryInt(r, "limit", defaultLimit)

	result, err := h.deps.ListPaged(r.Context(), page, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "leaderboard_list_failed", err)
		return
	}

	// Ranks go stale the moment a score lands; never let clients cache.
	w.Header().Set("Cache-Control", "no-store")
	writeJSON(w, http.StatusOK, result)
}

// queryInt parses an integer query parameter, falling back to def on
// absence or garbage. Range clamping is the store's job.
func queryInt(r *http.Request, key string, def int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return n
}
