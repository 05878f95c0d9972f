// Package scoring computes weighted, traceable suitability scores for records.
package scoring

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"time"

	model "github.com/okian/eventrank/internal/domain/model"
	"github.com/okian/eventrank/pkg/logger"
	"github.com/okian/eventrank/pkg/metrics"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

const maxScore = 100

// Engine scores records with a fixed set of formulas. It is safe for concurrent use.
type Engine struct {
	formulas []Formula
	profile  Profile
	workers  int
	log      logger.Logger
}

// New creates a scoring engine with the six default formulas.
func New(opts ...Option) *Engine {
	e := &Engine{
		formulas: DefaultFormulas(),
		workers:  runtime.NumCPU(),
		log:      logger.Nop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Workers returns the ScoreBatch concurrency bound.
func (e *Engine) Workers() int { return e.workers }

// Score fills the derived fields of a copy of r: per-factor scores, overall
// score, confidence, breakdown and warnings. It fails only when w is not a
// validated configuration.
func (e *Engine) Score(r model.Record, w WeightConfig, competitors *Registry, now time.Time) (model.Record, error) {
	if err := w.validate(); err != nil {
		metrics.RecordScoringError()
		return model.Record{}, err
	}
	return e.score(context.Background(), r, w, competitors, now), nil
}

// ScoreBatch validates w once, then scores records concurrently. Output order
// matches input order. Cancellation stops the batch and returns ctx's error.
func (e *Engine) ScoreBatch(ctx context.Context, records []model.Record, w WeightConfig, competitors *Registry, now time.Time) ([]model.Record, error) {
	if err := w.validate(); err != nil {
		metrics.RecordScoringError()
		return nil, err
	}

	out := make([]model.Record, len(records))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)
	for i := range records {
		i := i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			out[i] = e.score(gctx, records[i], w, competitors, now)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("score batch: %w", err)
	}
	return out, nil
}

func (e *Engine) score(ctx context.Context, in model.Record, w WeightConfig, competitors *Registry, now time.Time) model.Record {
	start := time.Now()
	r := in.Clone()
	env := Env{Now: now, Profile: e.profile, Competitors: competitors}

	r.Scores = make(model.Scores, len(e.formulas))
	r.Breakdown = make([]model.FactorTrace, 0, len(e.formulas))
	r.Warnings = nil

	total := decimal.Zero
	defaulted := 0
	priceMissing := false
	for _, f := range e.formulas {
		p, err := f.Points(&r, env)
		if err != nil {
			if !errors.Is(err, ErrInvalidScoreInput) {
				err = fmt.Errorf("%w: %s", ErrInvalidScoreInput, err.Error())
			}
			r.Warnings = append(r.Warnings, fmt.Sprintf("%s: %v", f.Factor(), err))
			metrics.RecordInvalidScoreInput(string(f.Factor()))
			e.log.Warn(ctx, "invalid score input, using neutral default",
				logger.String("factor", string(f.Factor())),
				logger.String("record", recordLabel(&r)),
				logger.Error(err),
			)
			p = neutral(f, "invalid input")
		}
		if p.Defaulted {
			defaulted++
			metrics.RecordFactorDefaulted(string(f.Factor()))
			e.log.Debug(ctx, "factor defaulted",
				logger.String("factor", string(f.Factor())),
				logger.String("record", recordLabel(&r)),
			)
		}
		if f.Factor() == model.FactorCommercials && r.PriceStandEstimate == nil {
			priceMissing = true
		}

		score := normalize(p.Raw, f.MaxPoints())
		weight := w.Weight(f.Factor())
		contribution := decimal.NewFromInt(int64(score)).Mul(weight)
		total = total.Add(contribution)

		r.Scores[f.Factor()] = score
		r.Breakdown = append(r.Breakdown, model.FactorTrace{
			Factor:       f.Factor(),
			RawPoints:    p.Raw.InexactFloat64(),
			MaxPoints:    f.MaxPoints().InexactFloat64(),
			Score:        score,
			Weight:       weight.InexactFloat64(),
			Contribution: contribution.InexactFloat64(),
			Defaulted:    p.Defaulted,
			Evidence:     p.Evidence,
		})
	}

	r.ScoreOverall = int(min(max(total.Round(0).IntPart(), 0), maxScore))
	r.Confidence = confidence(defaulted).Cap(r.MatchedBy.ConfidenceCap())
	if priceMissing {
		r.Confidence = r.Confidence.Cap(model.ConfidenceMedium)
	}

	metrics.RecordOverallScore(r.ScoreOverall)
	metrics.RecordScoringLatency(float64(time.Since(start).Microseconds()) / 1000)
	return r
}

// confidence maps the number of defaulted factors to a label.
func confidence(defaulted int) model.Confidence {
	switch {
	case defaulted == 0:
		return model.ConfidenceHigh
	case defaulted == 1:
		return model.ConfidenceMedium
	default:
		return model.ConfidenceLow
	}
}

func recordLabel(r *model.Record) string {
	switch {
	case r.ID != "":
		return r.ID
	case r.URL != "":
		return r.URL
	default:
		return r.Name
	}
}
