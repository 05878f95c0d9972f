// Package service wires deduplication, scoring and the ranked store into the
// operations exposed by the HTTP API.
package service

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"
	repository "github.com/okian/eventrank/internal/adapters/repository"
	"github.com/okian/eventrank/internal/domain/dedupe"
	model "github.com/okian/eventrank/internal/domain/model"
	"github.com/okian/eventrank/internal/domain/scoring"
	"github.com/okian/eventrank/internal/domain/types"
	"github.com/okian/eventrank/pkg/logger"
	"github.com/okian/eventrank/pkg/metrics"
)

// minRegistrySize is the registry size below which competitor scoring is
// considered thin.
const minRegistrySize = 10

// Service evaluates batches of candidate events and serves the ranking.
type Service struct {
	mu sync.RWMutex
	// runMu serializes batch evaluation and rescoring so each run sees the
	// store as the previous run left it.
	runMu sync.Mutex

	// Core components
	store   repository.Store
	deduper *dedupe.Engine
	scorer  *scoring.Engine

	// Configuration
	workerCount int
	weights     scoring.WeightConfig
	thresholds  scoring.Thresholds
	competitors *scoring.Registry
	profile     scoring.Profile
	now         func() time.Time

	// State
	started bool
	lastRun string

	logger logger.Logger
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		workerCount: runtime.NumCPU(),
		weights:     scoring.DefaultWeights(),
		thresholds:  scoring.DefaultThresholds(),
		competitors: scoring.NewRegistry(),
		now:         time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start validates configuration and builds the service components.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	if s.logger == nil {
		s.logger = logger.Get()
	}

	if !s.weights.Valid() {
		return fmt.Errorf("start: %w: weights were not built", scoring.ErrInvalidWeightConfig)
	}
	if err := s.thresholds.Validate(); err != nil {
		return fmt.Errorf("start: %w", err)
	}

	s.logger.Info(ctx, "starting evaluation service...")

	if s.store == nil {
		s.store = repository.NewTreapStore()
	}
	s.deduper = dedupe.New(dedupe.WithLogger(s.logger.Named("dedupe")))
	s.scorer = scoring.New(
		scoring.WithProfile(s.profile),
		scoring.WithWorkers(s.workerCount),
		scoring.WithLogger(s.logger.Named("scoring")),
	)

	if s.profile.Empty() {
		s.logger.Warn(ctx, "no ideal customer profile configured, icp scores will be neutral")
	}
	if n := s.competitors.Len(); n < minRegistrySize {
		s.logger.Warn(ctx, "competitor registry is small, competitor scores will be thin",
			logger.Int("competitors", n),
			logger.Int("recommended", minRegistrySize),
		)
	}

	metrics.UpdateWorkerCount(s.workerCount)
	s.started = true
	s.logger.Info(ctx, "evaluation service started",
		logger.Int("workers", s.workerCount),
		logger.Int("competitors", s.competitors.Len()),
		logger.Int("minScoreThreshold", s.thresholds.Min),
		logger.Int("highScoreThreshold", s.thresholds.High),
	)

	return nil
}

// Stop marks the service stopped. Stored records are kept.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	s.started = false
	s.logger.Info(context.Background(), "evaluation service stopped")
}

// snapshot returns the components and configuration a run needs.
func (s *Service) snapshot() (run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return run{}, ErrNotStarted
	}
	return run{
		store:       s.store,
		deduper:     s.deduper,
		scorer:      s.scorer,
		weights:     s.weights,
		thresholds:  s.thresholds,
		competitors: s.competitors,
		now:         s.now(),
	}, nil
}

type run struct {
	store       repository.Store
	deduper     *dedupe.Engine
	scorer      *scoring.Engine
	weights     scoring.WeightConfig
	thresholds  scoring.Thresholds
	competitors *scoring.Registry
	now         time.Time
}

// Evaluate deduplicates batch against the stored records, scores every new
// or matched record and stores the results.
func (s *Service) Evaluate(ctx context.Context, batch []model.Record) (types.Report, error) {
	started := time.Now()
	defer func() {
		metrics.RecordBatchLatency(float64(time.Since(started).Microseconds()) / 1000)
	}()

	s.runMu.Lock()
	defer s.runMu.Unlock()

	r, err := s.snapshot()
	if err != nil {
		return types.Report{}, fmt.Errorf("evaluate: %w", err)
	}

	report := types.Report{
		RunID:     uuid.NewString(),
		StartedAt: started.UTC(),
		Found:     len(batch),
	}

	res := r.deduper.Deduplicate(ctx, batch, r.store.All(ctx))
	report.New = len(res.New)
	report.Updated = len(res.Updated)
	report.Unchanged = len(res.Unchanged)
	report.Malformed = len(res.Malformed)
	report.Ambiguous = len(res.Ambiguous)
	report.Log = res.Log
	for _, rej := range res.Malformed {
		report.Errors = append(report.Errors, fmt.Sprintf("record %d: %v", rej.Index, rej.Err))
	}
	for _, rej := range res.Ambiguous {
		report.Errors = append(report.Errors, fmt.Sprintf("record %d: %v", rej.Index, rej.Err))
	}

	touched := make([]model.Record, 0, len(res.New)+len(res.Updated)+len(res.Unchanged))
	touched = append(touched, res.New...)
	touched = append(touched, res.Updated...)
	touched = append(touched, res.Unchanged...)

	scored, err := r.scorer.ScoreBatch(ctx, touched, r.weights, r.competitors, r.now)
	if err != nil {
		metrics.RecordErrorByComponent("service", "scoring")
		return types.Report{}, fmt.Errorf("evaluate: %w", err)
	}
	stored, err := r.store.Upsert(ctx, scored...)
	if err != nil {
		metrics.RecordErrorByComponent("service", "store")
		return types.Report{}, fmt.Errorf("evaluate: %w", err)
	}

	ids := make(map[string]struct{}, len(stored))
	for _, rec := range stored {
		ids[rec.ID] = struct{}{}
	}
	report.Records, err = s.ranked(ctx, r, ids)
	if err != nil {
		return types.Report{}, fmt.Errorf("evaluate: %w", err)
	}

	report.FinishedAt = time.Now().UTC()
	s.mu.Lock()
	s.lastRun = report.RunID
	s.mu.Unlock()

	s.logger.Info(ctx, "batch evaluated",
		logger.String("runId", report.RunID),
		logger.Int("found", report.Found),
		logger.Int("new", report.New),
		logger.Int("updated", report.Updated),
		logger.Int("unchanged", report.Unchanged),
		logger.Int("malformed", report.Malformed),
		logger.Int("ambiguous", report.Ambiguous),
		logger.Duration("took", report.FinishedAt.Sub(report.StartedAt)),
	)

	return report, nil
}

// ranked returns the stored records whose IDs are in ids, with their rank
// in the whole store.
func (s *Service) ranked(ctx context.Context, r run, ids map[string]struct{}) ([]types.Entry, error) {
	out := make([]types.Entry, 0, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	entries, err := r.store.TopN(ctx, r.store.Count(ctx))
	if err != nil {
		return nil, err
	}
	for _, e := range entries {
		if _, ok := ids[e.Record.ID]; ok {
			out = append(out, types.NewEntry(e.Rank, e.Record, string(r.thresholds.Band(e.Record.ScoreOverall))))
		}
	}
	return out, nil
}

// UpdateWeights rescores every stored record with w. When w is invalid
// nothing changes.
func (s *Service) UpdateWeights(ctx context.Context, w scoring.WeightConfig) error {
	s.runMu.Lock()
	defer s.runMu.Unlock()

	r, err := s.snapshot()
	if err != nil {
		return fmt.Errorf("update weights: %w", err)
	}

	all := r.store.All(ctx)
	rescored, err := r.scorer.ScoreBatch(ctx, all, w, r.competitors, r.now)
	if err != nil {
		return fmt.Errorf("update weights: %w", err)
	}
	if _, err := r.store.Upsert(ctx, rescored...); err != nil {
		return fmt.Errorf("update weights: %w", err)
	}

	s.mu.Lock()
	s.weights = w
	s.mu.Unlock()

	metrics.RecordRescore()
	s.logger.Info(ctx, "weights updated, records rescored",
		logger.Int("records", len(rescored)),
		logger.Any("weights", w.Map()),
	)
	return nil
}

// Weights returns the active weight configuration.
func (s *Service) Weights() scoring.WeightConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.weights
}

// TopN returns the top n ranked entries.
func (s *Service) TopN(ctx context.Context, n int) ([]types.Entry, error) {
	r, err := s.snapshot()
	if err != nil {
		return nil, err
	}
	entries, err := r.store.TopN(ctx, n)
	if err != nil {
		return nil, err
	}

	out := make([]types.Entry, len(entries))
	for i, e := range entries {
		out[i] = types.NewEntry(e.Rank, e.Record, string(r.thresholds.Band(e.Record.ScoreOverall)))
	}
	return out, nil
}

// Record returns a stored record with its rank and band.
func (s *Service) Record(ctx context.Context, id string) (types.Detail, error) {
	r, err := s.snapshot()
	if err != nil {
		return types.Detail{}, err
	}
	e, err := r.store.Rank(ctx, id)
	if err != nil {
		return types.Detail{}, err
	}
	return types.Detail{
		Rank:   e.Rank,
		Band:   string(r.thresholds.Band(e.Record.ScoreOverall)),
		Record: e.Record,
	}, nil
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]interface{}{
		"started":            s.started,
		"workerCount":        s.workerCount,
		"competitors":        s.competitors.Len(),
		"weights":            s.weights.Map(),
		"minScoreThreshold":  s.thresholds.Min,
		"highScoreThreshold": s.thresholds.High,
	}

	if s.started {
		total := s.store.Count(context.Background())
		stats["storedRecords"] = total
		stats["lastRunId"] = s.lastRun
		metrics.UpdateStoredRecords(total)
	}

	return stats
}
