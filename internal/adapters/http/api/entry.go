// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	repository "github.com/playforge/ladder/internal/adapters/repository"
	"github.com/playforge/ladder/internal/domain/model"
)

// EntryDependencies defines the interface for single-record operations.
type EntryDependencies interface {
	Get(ctx context.Context, guid string) (*model.Record, error)
	Create(ctx context.Context, guid string, fields model.Fields) (*model.Record, error)
	Update(ctx context.Context, guid string, patch model.Patch) (*model.Record, error)
	Delete(ctx context.Context, guid string) (bool, error)
}

// EntryHandler handles /leaderboard/{guid} requests.
type EntryHandler struct {
	deps   EntryDependencies
	apiKey string
}

// NewEntryHandler creates a new entry handler.
func NewEntryHandler(deps EntryDependencies, apiKey string) *EntryHandler {
	return &EntryHandler{deps: deps, apiKey: apiKey}
}

// entryRequest mirrors the JSON body of create and patch calls. Pointers
// distinguish "absent" from zero values.
type entryRequest struct {
	Name  *string  `json:"name"`
	Tag   *string  `json:"tag"`
	Score *float64 `json:"score"`
}

// HandleEntry dispatches GET/POST/PATCH/DELETE for one record.
func (h *EntryHandler) HandleEntry(w http.ResponseWriter, r *http.Request) {
	guid := strings.TrimPrefix(r.URL.Path, "/leaderboard/")
	if guid == "" || strings.Contains(guid, "/") || !isGUIDLike(guid) {
		writeError(w, http.StatusBadRequest, "bad_guid", ErrBadGUID)
		return
	}

	switch r.Method {
	case http.MethodGet:
		h.handleGet(w, r, guid)
	case http.MethodPost:
		h.handleCreate(w, r, guid)
	case http.MethodPatch:
		h.handlePatch(w, r, guid)
	case http.MethodDelete:
		h.handleDelete(w, r, guid)
	default:
		http.NotFound(w, r)
	}
}

func (h *EntryHandler) handleGet(w http.ResponseWriter, r *http.Request, guid string) {
	rec, err := h.deps.Get(r.Context(), guid)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "leaderboard_get_failed", err)
		return
	}
	if rec == nil {
		writeError(w, http.StatusNotFound, "not_found", nil)
		return
	}
	w.Header().Set("Cache-Control", "no-store")
	writeJSON(w, http.StatusOK, rec)
}

func (h *EntryHandler) handleCreate(w http.ResponseWriter, r *http.Request, guid string) {
	if !authorized(r, h.apiKey) {
		writeError(w, http.StatusUnauthorized, "unauthorized", ErrUnauthorized)
		return
	}

	var req entryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", ErrBadRequest)
		return
	}
	if req.Score == nil {
		writeError(w, http.StatusBadRequest, "bad_request", ErrMissingScore)
		return
	}

	fields := model.Fields{Score: *req.Score}
	if req.Name != nil {
		fields.Name = *req.Name
	}
	if req.Tag != nil {
		fields.Tag = *req.Tag
	}

	rec, err := h.deps.Create(r.Context(), guid, fields)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrAlreadyExists):
			writeError(w, http.StatusConflict, "already_exists", err)
		case errors.Is(err, model.ErrScoreNotFinite):
			writeError(w, http.StatusBadRequest, "bad_request", err)
		default:
			writeError(w, http.StatusInternalServerError, "create_failed", err)
		}
		return
	}
	writeJSON(w, http.StatusCreated, rec)
}

func (h *EntryHandler) handlePatch(w http.ResponseWriter, r *http.Request, guid string) {
	if !authorized(r, h.apiKey) {
		writeError(w, http.StatusUnauthorized, "unauthorized", ErrUnauthorized)
		return
	}

	var req entryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", ErrBadRequest)
		return
	}

	patch := model.Patch{Name: req.Name, Tag: req.Tag, Score: req.Score}
	rec, err := h.deps.Update(r.Context(), guid, patch)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrEmptyPatch):
			writeError(w, http.StatusBadRequest, "empty_patch", err)
		case errors.Is(err, model.ErrScoreNotFinite):
			writeError(w, http.StatusBadRequest, "bad_request", err)
		default:
			writeError(w, http.StatusInternalServerError, "update_failed", err)
		}
		return
	}
	if rec == nil {
		writeError(w, http.StatusNotFound, "not_found", nil)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (h *EntryHandler) handleDelete(w http.ResponseWriter, r *http.Request, guid string) {
	if !authorized(r, h.apiKey) {
		writeError(w, http.StatusUnauthorized, "unauthorized", ErrUnauthorized)
		return
	}

	removed, err := h.deps.Delete(r.Context(), guid)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "delete_failed", err)
		return
	}
	if !removed {
		writeError(w, http.StatusNotFound, "not_found", nil)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
