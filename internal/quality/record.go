package quality

// Record is an append-only, ordered list of scores.
type Record struct {
	scores []Score
	sum    float64
}

// Append adds s to the end of the record.
func (r *Record) Append(s Score) {
	r.scores = append(r.scores, s)
	r.sum += s.Value
}

// Emit makes a Record usable as a Sink.
func (r *Record) Emit(s Score) error {
	r.Append(s)
	return nil
}

// Scores returns a copy of the recorded scores.
func (r *Record) Scores() []Score {
	out := make([]Score, len(r.scores))
	copy(out, r.scores)
	return out
}

// Len reports the number of recorded scores.
func (r *Record) Len() int { return len(r.scores) }

// Mean returns the arithmetic mean of the score values. ok is false when the
// record is empty.
func (r *Record) Mean() (mean float64, ok bool) {
	if len(r.scores) == 0 {
		return 0, false
	}
	return r.sum / float64(len(r.scores)), true
}
