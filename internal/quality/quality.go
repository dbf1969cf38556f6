package quality

import (
	"fmt"
	"math"

	"deltae/internal/ciede2000"
	"deltae/internal/colorspace"
	"deltae/internal/failure"
)

// DefaultMaxScore bounds the score reported for identical or near-identical frames.
const DefaultMaxScore = 100.0

// Score is the result for one frame pair.
type Score struct {
	Index          int     `json:"index"`
	MeanDifference float64 `json:"mean_delta_e"`
	Value          float64 `json:"score"`
	Clamped        bool    `json:"clamped,omitempty"`
}

// Sink receives scores as soon as they are computed.
type Sink interface {
	Emit(Score) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(Score) error

// Emit calls f.
func (f SinkFunc) Emit(s Score) error { return f(s) }

// Scorer computes frame scores with fixed weights.
type Scorer struct {
	Weights  ciede2000.Weights
	MaxScore float64
}

// NewScorer returns a Scorer, substituting defaults for zero values.
func NewScorer(w ciede2000.Weights, maxScore float64) *Scorer {
	if w == (ciede2000.Weights{}) {
		w = ciede2000.VideoWeights
	}
	if maxScore <= 0 {
		maxScore = DefaultMaxScore
	}
	return &Scorer{Weights: w, MaxScore: maxScore}
}

// Score compares a reference frame with its reconstruction.
func (s *Scorer) Score(index int, ref, rec *colorspace.LabImage) (Score, error) {
	field, err := ciede2000.Field(ref, rec, s.Weights)
	if err != nil {
		return Score{}, fmt.Errorf("frame %d: %w", index, err)
	}
	mean, err := Mean(field)
	if err != nil {
		return Score{}, fmt.Errorf("frame %d: %w", index, err)
	}
	value, clamped := s.FromMean(mean)
	return Score{Index: index, MeanDifference: mean, Value: value, Clamped: clamped}, nil
}

// FromMean maps a mean difference to a score.
func (s *Scorer) FromMean(mean float64) (float64, bool) {
	limit := s.MaxScore
	if limit <= 0 {
		limit = DefaultMaxScore
	}
	if mean <= 0 {
		return limit, true
	}
	v := 45 - 20*math.Log10(mean)
	if v > limit {
		return limit, true
	}
	return v, false
}

// Mean averages a difference field. Empty fields and non-finite values are
// numeric errors.
func Mean(field []float64) (float64, error) {
	if len(field) == 0 {
		return 0, fmt.Errorf("%w: empty difference field", failure.ErrNumeric)
	}
	var sum float64
	for _, v := range field {
		sum += v
	}
	mean := sum / float64(len(field))
	if math.IsNaN(mean) || math.IsInf(mean, 0) {
		return 0, fmt.Errorf("%w: non-finite mean difference", failure.ErrNumeric)
	}
	return mean, nil
}
