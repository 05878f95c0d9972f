package service

import (
	"time"

	repository "github.com/okian/eventrank/internal/adapters/repository"
	"github.com/okian/eventrank/internal/domain/scoring"
	"github.com/okian/eventrank/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount bounds concurrent scoring.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
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

// WithWeights sets the initial weight configuration. It is checked by Start.
func WithWeights(w scoring.WeightConfig) Option {
	return func(s *Service) {
		s.weights = w
	}
}

// WithThresholds sets the display band thresholds.
func WithThresholds(t scoring.Thresholds) Option {
	return func(s *Service) {
		s.thresholds = t
	}
}

// WithCompetitors sets the competitor registry.
func WithCompetitors(competitors ...scoring.Competitor) Option {
	return func(s *Service) {
		s.competitors = scoring.NewRegistry(competitors...)
	}
}

// WithProfile sets the ideal customer profile used by ICP and speaking scoring.
func WithProfile(p scoring.Profile) Option {
	return func(s *Service) {
		s.profile = p
	}
}

// WithClock overrides the time source used for timing and deadline checks.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithStore replaces the default in-memory treap store.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}
