// Package service provides the core business service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"errors"
	"sync"

	"github.com/playforge/ladder/internal/adapters/gate"
	repository "github.com/playforge/ladder/internal/adapters/repository"
	"github.com/playforge/ladder/internal/domain/model"
	"github.com/playforge/ladder/internal/domain/ranking"
	"github.com/playforge/ladder/internal/domain/types"
	"github.com/playforge/ladder/pkg/logger"
)

// defaultPageSize is used when a paged read does not specify a size.
const defaultPageSize = 10

// Service implements the API dependencies for the leaderboard system.
type Service struct {
	mu sync.RWMutex

	// Core components
	store repository.Store
	gate  gate.Lookup

	// Configuration
	dataDir  string
	pageSize int

	// State
	started bool

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithStore sets the record store. Defaults to a file store under the
// configured data directory.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// WithGate sets the external gate lookup. When unset, combined operations
// report the gate branch as not configured.
func WithGate(g gate.Lookup) Option {
	return func(s *Service) {
		if g != nil {
			s.gate = g
		}
	}
}

// WithDataDir sets the directory for the default file store.
func WithDataDir(dir string) Option {
	return func(s *Service) {
		if dir != "" {
			s.dataDir = dir
		}
	}
}

// WithDefaultPageSize sets the page size used when callers omit one.
func WithDefaultPageSize(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.pageSize = ranking.ClampPageSize(n)
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		dataDir:  "data",
		pageSize: defaultPageSize,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start initializes the service components.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	if s.logger == nil {
		s.logger = logger.Get()
	}

	if s.store == nil {
		s.store = repository.NewFileStore(ctx, repository.WithDataDir(s.dataDir))
		s.logger.Info(ctx, "using file store", logger.String("dataDir", s.dataDir))
	}

	s.started = true
	s.logger.Info(ctx, "leaderboard service started",
		logger.Int("defaultPageSize", s.pageSize),
		logger.Bool("gateConfigured", s.gate != nil),
	)

	return nil
}

// Stop shuts down the service.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	if closer, ok := s.store.(interface{ Close() error }); ok {
		_ = closer.Close()
	}

	s.started = false
	s.logger.Info(context.Background(), "leaderboard service stopped")
}

// Get returns the record for guid, or nil when absent.
func (s *Service) Get(ctx context.Context, guid string) (*model.Record, error) {
	return s.store.Get(ctx, guid)
}

// Create adds a new record.
func (s *Service) Create(ctx context.Context, guid string, fields model.Fields) (*model.Record, error) {
	return s.store.Create(ctx, guid, fields)
}

// Update merges a patch over an existing record.
func (s *Service) Update(ctx context.Context, guid string, patch model.Patch) (*model.Record, error) {
	return s.store.Update(ctx, guid, patch)
}

// Delete removes the record for guid.
func (s *Service) Delete(ctx context.Context, guid string) (bool, error) {
	return s.store.Delete(ctx, guid)
}

// ListPaged returns one page of the ranked leaderboard. A non-positive
// pageSize falls back to the configured default.
func (s *Service) ListPaged(ctx context.Context, page, pageSize int) (types.PageResult, error) {
	if pageSize <= 0 {
		pageSize = s.pageSize
	}
	return s.store.ListPaged(ctx, page, pageSize)
}

// List returns the first ranked entries up to limit, as a flat slice.
func (s *Service) List(ctx context.Context, limit int) ([]types.RankedRecord, error) {
	res, err := s.store.ListPaged(ctx, 1, limit)
	if err != nil {
		return nil, err
	}
	return res.Items, nil
}

// SubmitResult reports both independent branches of a combined
// submit-and-check operation.
type SubmitResult struct {
	Record   *model.Record
	StoreErr error
	Decision gate.Decision
	GateErr  error
}

// SubmitAndCheck records a score and checks the gate independently. A
// failure in either branch is captured and logged without aborting the
// other; both outcomes are always reported.
func (s *Service) SubmitAndCheck(ctx context.Context, guid string, fields model.Fields, sig gate.Signals) SubmitResult {
	var res SubmitResult

	res.Record, res.StoreErr = s.upsert(ctx, guid, fields)
	if res.StoreErr != nil {
		s.logger.Error(ctx, "score persistence failed",
			logger.String("guid", guid),
			logger.Error(res.StoreErr),
		)
	}

	if s.gate == nil {
		res.GateErr = gate.ErrNotConfigured
	} else {
		res.Decision, res.GateErr = s.gate.Check(ctx, sig)
	}
	if res.GateErr != nil {
		s.logger.Error(ctx, "gate lookup failed", logger.Error(res.GateErr))
	}

	return res
}

// CheckGate performs a gate-only lookup.
func (s *Service) CheckGate(ctx context.Context, sig gate.Signals) (gate.Decision, error) {
	if s.gate == nil {
		return gate.Decision{}, gate.ErrNotConfigured
	}
	return s.gate.Check(ctx, sig)
}

// upsert creates the record or, when it already exists, overwrites its
// fields via a full patch.
func (s *Service) upsert(ctx context.Context, guid string, fields model.Fields) (*model.Record, error) {
	rec, err := s.store.Create(ctx, guid, fields)
	if err == nil {
		return rec, nil
	}
	if !errors.Is(err, repository.ErrAlreadyExists) {
		return nil, err
	}
	patch := model.Patch{
		Name:  &fields.Name,
		Tag:   &fields.Tag,
		Score: &fields.Score,
	}
	return s.store.Update(ctx, guid, patch)
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]interface{}{
		"started":         s.started,
		"defaultPageSize": s.pageSize,
		"gateConfigured":  s.gate != nil,
	}
	if s.started {
		stats["totalRecords"] = s.store.Count(context.Background())
	}
	return stats
}
