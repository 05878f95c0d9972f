package scoring

import (
	"github.com/okian/eventrank/pkg/logger"
)

// Option applies a configuration option to the Engine.
type Option func(*Engine)

// WithProfile sets the Ideal Customer Profile used by the icp factor.
func WithProfile(p Profile) Option {
	return func(e *Engine) {
		e.profile = p
	}
}

// WithFormula replaces the formula for its factor.
func WithFormula(f Formula) Option {
	return func(e *Engine) {
		if f == nil {
			return
		}
		for i, existing := range e.formulas {
			if existing.Factor() == f.Factor() {
				e.formulas[i] = f
				return
			}
		}
	}
}

// WithWorkers bounds how many records ScoreBatch scores at once.
func WithWorkers(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.workers = n
		}
	}
}

// WithLogger sets the logger used to report defaulted factors and invalid inputs.
func WithLogger(l logger.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.log = l
		}
	}
}
