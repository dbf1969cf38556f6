package report

import (
	"math"
	"slices"

	"deltae/internal/quality"
)

// Stats describes the distribution of frame scores.
type Stats struct {
	Count   int     `json:"count"`
	Clamped int     `json:"clamped"`
	Min     float64 `json:"min"`
	Max     float64 `json:"max"`
	Mean    float64 `json:"mean"`
	Median  float64 `json:"median"`
	StdDev  float64 `json:"stddev"`
	// Worst is the index of the frame with the lowest score.
	Worst int `json:"worst_frame"`
}

// Summarize computes score statistics. ok is false for an empty slice.
// The standard deviation is the population deviation.
func Summarize(scores []quality.Score) (stats Stats, ok bool) {
	n := len(scores)
	if n == 0 {
		return Stats{}, false
	}

	values := make([]float64, n)
	var sum float64
	stats.Worst = scores[0].Index
	lowest := scores[0].Value
	for i, s := range scores {
		values[i] = s.Value
		sum += s.Value
		if s.Clamped {
			stats.Clamped++
		}
		if s.Value < lowest {
			lowest = s.Value
			stats.Worst = s.Index
		}
	}
	slices.Sort(values)

	stats.Count = n
	stats.Min = values[0]
	stats.Max = values[n-1]
	stats.Mean = sum / float64(n)
	if n%2 == 1 {
		stats.Median = values[n/2]
	} else {
		stats.Median = (values[n/2-1] + values[n/2]) / 2
	}

	var variance float64
	for _, v := range values {
		d := v - stats.Mean
		variance += d * d
	}
	stats.StdDev = math.Sqrt(variance / float64(n))
	return stats, true
}
