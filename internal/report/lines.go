package report

import (
	"fmt"
	"io"

	"deltae/internal/quality"
)

// Lines writes one line per scored pair. It implements quality.Sink so it can
// be handed to the pipeline and print while the run is still reading.
type Lines struct {
	w           io.Writer
	summaryOnly bool
}

// NewLines returns a line writer. With summaryOnly set only the Total line
// is written.
func NewLines(w io.Writer, summaryOnly bool) *Lines {
	return &Lines{w: w, summaryOnly: summaryOnly}
}

// Emit writes the score line for s.
func (l *Lines) Emit(s quality.Score) error {
	if l.summaryOnly {
		return nil
	}
	_, err := fmt.Fprintf(l.w, "%08d: %2.4f\n", s.Index, s.Value)
	return err
}

// Total writes the summary line. Nothing is written when no pair was scored.
func (l *Lines) Total(mean float64, ok bool) error {
	if !ok {
		return nil
	}
	_, err := fmt.Fprintf(l.w, "Total: %2.4f\n", mean)
	return err
}
