// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	service "github.com/playforge/ladder/internal/app"

	"github.com/playforge/ladder/internal/adapters/gate"
	"github.com/playforge/ladder/internal/domain/model"
	"github.com/playforge/ladder/internal/domain/types"
)

// GUID length bounds accepted on entry routes.
const (
	minGUIDLength = 8
	maxGUIDLength = 128
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	// CRUD over leaderboard records.
	Get(ctx context.Context, guid string) (*model.Record, error)
	Create(ctx context.Context, guid string, fields model.Fields) (*model.Record, error)
	Update(ctx context.Context, guid string, patch model.Patch) (*model.Record, error)
	Delete(ctx context.Context, guid string) (bool, error)

	// Ranked reads.
	ListPaged(ctx context.Context, page, pageSize int) (types.PageResult, error)

	// Gate operations.
	CheckGate(ctx context.Context, sig gate.Signals) (gate.Decision, error)
	SubmitAndCheck(ctx context.Context, guid string, fields model.Fields, sig gate.Signals) service.SubmitResult
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler      *HealthHandler
	statsHandler       *StatsHandler
	leaderboardHandler *LeaderboardHandler
	entryHandler       *EntryHandler
	gateHandler        *GateHandler
}

// ServerOption applies a configuration option to the Server.
type ServerOption func(*serverConfig)

type serverConfig struct {
	apiKey        string
	allowClientIP bool
}

// WithAPIKey sets the shared secret required on gated and mutating routes.
// An empty key leaves all routes open.
func WithAPIKey(key string) ServerOption {
	return func(c *serverConfig) {
		c.apiKey = key
	}
}

// WithAllowClientIP lets the gate route accept a caller-supplied IP instead
// of the connection's real address. For test traffic only.
func WithAllowClientIP(allow bool) ServerOption {
	return func(c *serverConfig) {
		c.allowClientIP = allow
	}
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, opts ...ServerOption) *Server {
	var cfg serverConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Server{
		healthHandler:      NewHealthHandler(),
		statsHandler:       NewStatsHandler(statsProvider),
		leaderboardHandler: NewLeaderboardHandler(deps),
		entryHandler:       NewEntryHandler(deps, cfg.apiKey),
		gateHandler:        NewGateHandler(deps, cfg.apiKey, cfg.allowClientIP),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(ctx context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/gate", MetricsMiddleware(RequestIDMiddleware(s.gateHandler.HandlePostGate), "gate"))
	mux.HandleFunc("/leaderboard", MetricsMiddleware(RequestIDMiddleware(s.leaderboardHandler.HandleGetLeaderboard), "leaderboard"))
	mux.HandleFunc("/leaderboard/", MetricsMiddleware(RequestIDMiddleware(s.entryHandler.HandleEntry), "leaderboard_entry"))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// isGUIDLike validates the opaque external identifier shape.
func isGUIDLike(s string) bool {
	return len(s) >= minGUIDLength && len(s) <= maxGUIDLength
}
