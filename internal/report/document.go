package report

import (
	"encoding/json"
	"io"
	"time"

	"deltae/internal/pipeline"
	"deltae/internal/quality"
)

// Stream describes the compared video geometry.
type Stream struct {
	Width     int    `json:"width"`
	Height    int    `json:"height"`
	Chroma    string `json:"chroma"`
	Depth     int    `json:"depth"`
	FrameRate string `json:"frame_rate,omitempty"`
}

// Document is the machine readable form of a run.
type Document struct {
	RunID         string            `json:"run_id"`
	Reference     string            `json:"reference"`
	Reconstructed string            `json:"reconstructed"`
	Stream        *Stream           `json:"stream,omitempty"`
	Frames        int               `json:"frames"`
	Total         *float64          `json:"total"`
	Stats         *Stats            `json:"stats,omitempty"`
	Unpaired      pipeline.Unpaired `json:"unpaired"`
	Truncated     []string          `json:"truncated,omitempty"`
	StrictEOF     bool              `json:"strict_eof"`
	Started       time.Time         `json:"started"`
	DurationMS    int64             `json:"duration_ms"`
	Scores        []quality.Score   `json:"scores,omitempty"`
}

// NewDocument builds a document from a run result. Per-frame scores are
// omitted when summaryOnly is set.
func NewDocument(res *pipeline.Result, reference, reconstructed string, strict, summaryOnly bool) Document {
	doc := Document{
		RunID:         res.RunID,
		Reference:     reference,
		Reconstructed: reconstructed,
		Frames:        res.Frames,
		Unpaired:      res.Unpaired,
		Truncated:     res.Truncated,
		StrictEOF:     strict,
		Started:       res.Started.UTC(),
		DurationMS:    res.Duration.Milliseconds(),
	}
	if h := res.Header; h != nil {
		doc.Stream = &Stream{Width: h.Width, Height: h.Height, Chroma: h.Chroma, Depth: h.Depth}
		if !h.FrameRate.IsZero() {
			doc.Stream.FrameRate = h.FrameRate.String()
		}
	}
	if res.HasMean {
		mean := res.Mean
		doc.Total = &mean
	}
	if stats, ok := Summarize(res.Scores); ok {
		doc.Stats = &stats
	}
	if !summaryOnly {
		doc.Scores = res.Scores
	}
	return doc
}

// WriteJSON encodes doc as indented JSON followed by a newline.
func WriteJSON(w io.Writer, doc Document) error { return EncodeJSON(w, doc) }

// EncodeJSON writes any value in the same indented layout as WriteJSON.
func EncodeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
