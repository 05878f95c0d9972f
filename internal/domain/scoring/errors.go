package scoring

import "errors"

// Sentinel errors for scoring.
var (
	// ErrInvalidWeightConfig rejects a weight configuration before anything is scored.
	ErrInvalidWeightConfig = errors.New("invalid weight config")
	// ErrInvalidScoreInput marks a signal that cannot be scored; the factor falls back to neutral.
	ErrInvalidScoreInput = errors.New("invalid score input")
	// ErrInvalidThresholds rejects band thresholds outside 0 <= min <= high <= 100.
	ErrInvalidThresholds = errors.New("invalid thresholds")
)
