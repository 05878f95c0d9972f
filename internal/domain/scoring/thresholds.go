package scoring

import "fmt"

// Band is a display classification of an overall score.
type Band string

// Bands, best first.
const (
	BandExcellent Band = "excellent"
	BandGood      Band = "good"
	BandReview    Band = "review"
)

// Thresholds split overall scores into bands. They classify, never filter.
type Thresholds struct {
	Min  int `json:"minScoreThreshold"`
	High int `json:"highScoreThreshold"`
}

// DefaultThresholds returns min 60 and high 80.
func DefaultThresholds() Thresholds {
	return Thresholds{Min: 60, High: 80}
}

// Validate checks 0 <= Min <= High <= 100.
func (t Thresholds) Validate() error {
	if t.Min < 0 || t.High > maxScore || t.Min > t.High {
		return fmt.Errorf("%w: need 0 <= min (%d) <= high (%d) <= 100", ErrInvalidThresholds, t.Min, t.High)
	}
	return nil
}

// Band classifies score.
func (t Thresholds) Band(score int) Band {
	switch {
	case score >= t.High:
		return BandExcellent
	case score >= t.Min:
		return BandGood
	default:
		return BandReview
	}
}
