package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"deltae/internal/ciede2000"
	"deltae/internal/colorspace"
	"deltae/internal/failure"
	"deltae/internal/logging"
	"deltae/internal/quality"
	"deltae/internal/y4m"
	"deltae/internal/yuv"
)

// DefaultBlockSize is the number of bytes read from a source per step.
const DefaultBlockSize = 4 * 1024 * 1024

// Options configure a Run. Zero values select defaults.
type Options struct {
	BlockSize int
	StrictEOF bool
	Weights   ciede2000.Weights
	MaxScore  float64
	Logger    *slog.Logger
	// Sink receives each score as soon as it is computed.
	Sink quality.Sink
	// Progress is called after every block read.
	Progress func(Progress)
}

// Progress reports how far a run has advanced.
type Progress struct {
	RefBytes int64
	RecBytes int64
	Scored   int
}

// Unpaired counts frames left without a partner at the end of a run.
type Unpaired struct {
	Ref int `json:"ref"`
	Rec int `json:"rec"`
}

// Result summarises a completed run.
type Result struct {
	RunID     string          `json:"run_id"`
	Scores    []quality.Score `json:"scores"`
	Mean      float64         `json:"mean"`
	HasMean   bool            `json:"-"`
	Frames    int             `json:"frames"`
	Unpaired  Unpaired        `json:"unpaired"`
	Header    *y4m.Header     `json:"-"`
	Truncated []string        `json:"truncated,omitempty"`
	Started   time.Time       `json:"started"`
	Duration  time.Duration   `json:"duration"`
}

// Run owns the state of one scoring invocation.
type Run struct {
	opts   Options
	id     string
	logger *slog.Logger
	scorer *quality.Scorer
	sync   *Synchronizer
	record quality.Record
	// convert turns a paired raw frame into Lab. Only the two frames being
	// scored are ever converted.
	convert func(*y4m.Frame) (*colorspace.LabImage, error)

	ref *side
	rec *side

	checked bool
	err     error
}

type side struct {
	name   string
	reader *y4m.Reader
	src    io.Reader
	buf    []byte
	eof    bool
	frames int
	// countOnly is set once the partner stream can no longer supply frames.
	countOnly bool
}

// New prepares a Run. Each Run must execute at most once.
func New(opts Options) *Run {
	if opts.BlockSize <= 0 {
		opts.BlockSize = DefaultBlockSize
	}
	r := &Run{
		opts:   opts,
		id:     uuid.NewString(),
		scorer:  quality.NewScorer(opts.Weights, opts.MaxScore),
		convert: toLab,
	}
	r.logger = logging.NewComponentLogger(opts.Logger, "pipeline").With(logging.String(logging.FieldRunID, r.id))
	r.sync = NewSynchronizer(r.pair)
	return r
}

// ID returns the run identifier.
func (r *Run) ID() string { return r.id }

// Execute scores every frame pair of ref and rec.
func (r *Run) Execute(ctx context.Context, ref, rec io.Reader) (*Result, error) {
	if ref == nil || rec == nil {
		return nil, failure.Wrap(failure.ErrIO, "pipeline", "execute", "missing input", nil)
	}
	if err := r.scorer.Weights.Validate(); err != nil {
		return nil, err
	}
	started := time.Now()
	r.ref = r.newSide("reference", ref, r.sync.OnReference)
	r.rec = r.newSide("reconstructed", rec, r.sync.OnReconstructed)

	if err := r.loop(ctx); err != nil {
		return nil, err
	}
	truncated, err := r.finish()
	if err != nil {
		return nil, err
	}

	res := &Result{
		RunID:     r.id,
		Scores:    r.record.Scores(),
		Frames:    r.record.Len(),
		Header:    r.ref.reader.Header(),
		Truncated: truncated,
		Started:   started,
		Duration:  time.Since(started),
	}
	res.Mean, res.HasMean = r.record.Mean()
	res.Unpaired.Ref, res.Unpaired.Rec = r.ref.frames-res.Frames, r.rec.frames-res.Frames
	r.logger.Info("run complete",
		logging.Int("frames", res.Frames),
		logging.Float64("mean", res.Mean),
		logging.Int("unpaired_ref", res.Unpaired.Ref),
		logging.Int("unpaired_rec", res.Unpaired.Rec),
		logging.Duration("elapsed", res.Duration),
	)
	return res, nil
}

func (r *Run) newSide(name string, src io.Reader, push func(*y4m.Frame) error) *side {
	s := &side{name: name, src: src, buf: make([]byte, r.opts.BlockSize)}
	s.reader = y4m.NewReader(func(f *y4m.Frame) error {
		s.frames++
		if s.countOnly {
			return nil
		}
		return push(f)
	})
	return s
}

func (r *Run) loop(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if refPending, _ := r.sync.Pending(); refPending == 0 {
			if stop, err := r.step(r.ref); err != nil || stop {
				return err
			}
		}
		if _, recPending := r.sync.Pending(); recPending == 0 {
			if stop, err := r.step(r.rec); err != nil || stop {
				return err
			}
		}
		r.report()

		if r.ref.eof && r.rec.eof {
			return nil
		}
		if r.opts.StrictEOF {
			continue
		}
		// A finished side with nothing queued can never pair again. The other
		// side is still read to the end, but only to count its frames.
		refPending, recPending := r.sync.Pending()
		if r.ref.eof && refPending == 0 && !r.rec.countOnly {
			r.rec.countOnly = true
			r.sync.Drop()
		}
		if r.rec.eof && recPending == 0 && !r.ref.countOnly {
			r.ref.countOnly = true
			r.sync.Drop()
		}
	}
}

// step reads the next block of s. It reports stop when the source had
// nothing left and StrictEOF ends the run there.
func (r *Run) step(s *side) (bool, error) {
	if s.eof {
		return r.opts.StrictEOF, nil
	}
	n, err := r.read(s)
	if err != nil {
		return false, err
	}
	return n == 0 && s.eof && r.opts.StrictEOF, nil
}

func (r *Run) read(s *side) (int, error) {
	n, err := io.ReadFull(s.src, s.buf)
	if n > 0 {
		if _, werr := s.reader.Write(s.buf[:n]); werr != nil {
			if r.err != nil {
				return n, r.err
			}
			return n, failure.Wrap(failure.ErrFormat, s.name, "parse", "", werr)
		}
	}
	switch {
	case err == nil:
		return n, nil
	case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
		s.eof = true
		return n, nil
	default:
		return n, failure.Wrap(failure.ErrIO, s.name, "read", "", err)
	}
}

func (r *Run) pair(refFrame, recFrame *y4m.Frame) error {
	if !r.checked {
		if err := r.checkHeaders(); err != nil {
			r.err = err
			return err
		}
		r.checked = true
	}
	ref, err := r.lab(r.ref.name, refFrame)
	if err != nil {
		return err
	}
	rec, err := r.lab(r.rec.name, recFrame)
	if err != nil {
		return err
	}
	score, err := r.scorer.Score(r.record.Len(), ref, rec)
	if err != nil {
		r.err = err
		return err
	}
	r.record.Append(score)
	r.logger.Debug("frame scored",
		logging.Frame(score.Index),
		logging.Float64("mean_delta", score.MeanDifference),
		logging.Float64("score", score.Value),
	)
	if r.opts.Sink != nil {
		if err := r.opts.Sink.Emit(score); err != nil {
			r.err = failure.Wrap(failure.ErrIO, "pipeline", "emit score", "", err)
			return r.err
		}
	}
	return nil
}

func (r *Run) lab(name string, f *y4m.Frame) (*colorspace.LabImage, error) {
	img, err := r.convert(f)
	if err != nil {
		r.err = failure.Wrap(failure.ErrFormat, name, fmt.Sprintf("frame %d", f.Index), "decode", err)
		return nil, r.err
	}
	return img, nil
}

func (r *Run) checkHeaders() error {
	a, b := r.ref.reader.Header(), r.rec.reader.Header()
	if err := a.Compatible(b); err != nil {
		return err
	}
	if !a.FrameRate.Equal(b.FrameRate) {
		logging.WarnWithContext(r.logger, "frame rates do not match", "framerate_mismatch",
			logging.String("reference", a.FrameRate.String()),
			logging.String("reconstructed", b.FrameRate.String()),
			logging.String(logging.FieldImpact, "scores are still computed frame by frame"),
		)
	}
	if !a.Aspect.Equal(b.Aspect) {
		logging.WarnWithContext(r.logger, "aspect ratios do not match", "aspect_mismatch",
			logging.String("reference", a.Aspect.String()),
			logging.String("reconstructed", b.Aspect.String()),
		)
	}
	return nil
}

func (r *Run) finish() ([]string, error) {
	for _, s := range []*side{r.ref, r.rec} {
		if s.reader.Header() == nil && (s.eof || !r.opts.StrictEOF) {
			return nil, failure.Wrap(failure.ErrFormat, s.name, "read header", "stream has no y4m header", s.reader.Close())
		}
	}
	// Without any pair the headers have not been compared yet.
	if !r.checked && r.ref.reader.Header() != nil && r.rec.reader.Header() != nil {
		if err := r.checkHeaders(); err != nil {
			return nil, err
		}
	}
	switch {
	case r.ref.frames < r.rec.frames:
		r.endedBefore(r.ref, r.rec)
	case r.rec.frames < r.ref.frames:
		r.endedBefore(r.rec, r.ref)
	}
	var truncated []string
	for _, s := range []*side{r.ref, r.rec} {
		if !s.eof {
			continue
		}
		if err := s.reader.Close(); err != nil {
			truncated = append(truncated, s.name)
			logging.WarnWithContext(r.logger, "stream ended inside a frame", "stream_truncated",
				logging.Stream(s.name),
				logging.Bytes("buffered", int64(s.reader.Buffered())),
				logging.Error(err),
				logging.String(logging.FieldImpact, "the partial frame was not scored"),
			)
		}
	}
	return truncated, nil
}

func (r *Run) endedBefore(short, long *side) {
	attrs := []logging.Attr{
		logging.Stream(short.name),
		logging.String("other", long.name),
		logging.Int("frames", short.frames),
		logging.Int("other_frames", long.frames),
	}
	if r.opts.StrictEOF {
		attrs = append(attrs, logging.Bool("strict_eof", true))
	}
	logging.WarnWithContext(r.logger, fmt.Sprintf("%s ended before %s", short.name, long.name), "stream_length_mismatch",
		append(attrs, logging.String(logging.FieldImpact, "trailing frames were not scored"))...)
}

func (r *Run) report() {
	if r.opts.Progress == nil {
		return
	}
	r.opts.Progress(Progress{
		RefBytes: r.ref.reader.Consumed(),
		RecBytes: r.rec.reader.Consumed(),
		Scored:   r.record.Len(),
	})
}

func toLab(f *y4m.Frame) (*colorspace.LabImage, error) {
	planar, err := yuv.Decode(f)
	if err != nil {
		return nil, err
	}
	img, err := yuv.Upsample(planar)
	if err != nil {
		return nil, err
	}
	return colorspace.ToLab(img), nil
}
