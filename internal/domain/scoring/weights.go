package scoring

import (
	"fmt"
	"math"
	"sort"
	"strings"

	model "github.com/okian/eventrank/internal/domain/model"
	"github.com/okian/eventrank/pkg/metrics"
	"github.com/shopspring/decimal"
)

// weightTolerance is how far the weight total may drift from one.
var weightTolerance = decimal.New(1, -6) //nolint:gochecknoglobals // constant decimal

// WeightConfig maps every factor to a non-negative weight; the weights sum to one.
// The zero value is not valid. Build one with WeightsBuilder or DefaultWeights.
type WeightConfig struct {
	weights map[model.Factor]decimal.Decimal
	valid   bool
}

// Valid reports whether the configuration came out of a successful Build.
func (w WeightConfig) Valid() bool { return w.valid }

// Weight returns the weight of f, zero when unset.
func (w WeightConfig) Weight(f model.Factor) decimal.Decimal {
	return w.weights[f]
}

// Map returns the weights as plain floats keyed by factor name.
func (w WeightConfig) Map() map[string]float64 {
	out := make(map[string]float64, len(w.weights))
	for f, v := range w.weights {
		out[string(f)] = v.InexactFloat64()
	}
	return out
}

func (w WeightConfig) validate() error {
	if !w.valid {
		return fmt.Errorf("%w: configuration was not built by the weights builder", ErrInvalidWeightConfig)
	}
	return nil
}

// WeightsBuilder collects weights and validates them once in Build.
type WeightsBuilder struct {
	weights map[model.Factor]decimal.Decimal
	errs    []string
}

// NewWeightsBuilder returns an empty builder.
func NewWeightsBuilder() *WeightsBuilder {
	return &WeightsBuilder{weights: make(map[model.Factor]decimal.Decimal, len(model.Factors()))}
}

// Set records the weight for f. NaN and infinities are rejected in Build.
func (b *WeightsBuilder) Set(f model.Factor, w float64) *WeightsBuilder {
	if math.IsNaN(w) || math.IsInf(w, 0) {
		b.errs = append(b.errs, fmt.Sprintf("weight for %s is not a finite number", f))
		return b
	}
	return b.SetDecimal(f, decimal.NewFromFloat(w))
}

// SetDecimal records an exact weight for f. Each factor may be set once.
func (b *WeightsBuilder) SetDecimal(f model.Factor, w decimal.Decimal) *WeightsBuilder {
	if !knownFactor(f) {
		b.errs = append(b.errs, fmt.Sprintf("unknown factor %q", f))
		return b
	}
	if _, dup := b.weights[f]; dup {
		b.errs = append(b.errs, fmt.Sprintf("weight for %s set more than once", f))
		return b
	}
	b.weights[f] = w
	return b
}

// Build validates and freezes the configuration. It never renormalizes.
func (b *WeightsBuilder) Build() (WeightConfig, error) {
	problems := append([]string(nil), b.errs...)
	sum := decimal.Zero
	for _, f := range model.Factors() {
		w, ok := b.weights[f]
		if !ok {
			problems = append(problems, fmt.Sprintf("missing weight for %s", f))
			continue
		}
		if w.IsNegative() {
			problems = append(problems, fmt.Sprintf("negative weight %s for %s", w, f))
		}
		sum = sum.Add(w)
	}
	if len(problems) == 0 && sum.Sub(decimal.NewFromInt(1)).Abs().GreaterThan(weightTolerance) {
		problems = append(problems, fmt.Sprintf("weights sum to %s, must sum to 1", sum))
	}
	if len(problems) > 0 {
		metrics.RecordWeightRejection()
		return WeightConfig{}, fmt.Errorf("%w: %s", ErrInvalidWeightConfig, strings.Join(problems, "; "))
	}

	frozen := make(map[model.Factor]decimal.Decimal, len(b.weights))
	for f, w := range b.weights {
		frozen[f] = w
	}
	return WeightConfig{weights: frozen, valid: true}, nil
}

// WeightsFromMap builds a configuration from factor names, as found in config files.
func WeightsFromMap(m map[string]float64) (WeightConfig, error) {
	b := NewWeightsBuilder()
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		b.Set(model.Factor(strings.ToLower(strings.TrimSpace(k))), m[k])
	}
	return b.Build()
}

// DefaultWeights returns the stock weighting: icp .30, competitors .20,
// audience .20, speaking .15, commercials .10, timing .05.
func DefaultWeights() WeightConfig {
	w, err := NewWeightsBuilder().
		Set(model.FactorICP, 0.30).
		Set(model.FactorCompetitors, 0.20).
		Set(model.FactorAudience, 0.20).
		Set(model.FactorSpeaking, 0.15).
		Set(model.FactorCommercials, 0.10).
		Set(model.FactorTiming, 0.05).
		Build()
	if err != nil {
		panic(err)
	}
	return w
}

func knownFactor(f model.Factor) bool {
	for _, k := range model.Factors() {
		if k == f {
			return true
		}
	}
	return false
}
