package pipeline_test

import (
	"bytes"
	"context"
	"errors"
	"math"
	"testing"

	"deltae/internal/failure"
	"deltae/internal/pipeline"
	"deltae/internal/quality"
	"deltae/internal/testsupport"
	"deltae/internal/y4m"
)

const header444 = "YUV4MPEG2 W2 H2 F25:1 A1:1 C444"

func grey(t *testing.T, h *y4m.Header, n int, luma int) []*y4m.Frame {
	t.Helper()
	frames := make([]*y4m.Frame, n)
	for i := range frames {
		frames[i] = testsupport.UniformFrame(t, h, i, luma, 128, 128)
	}
	return frames
}

func TestExecuteIdenticalStreams(t *testing.T) {
	h := testsupport.Header(t, header444)
	stream := testsupport.Stream(t, h, grey(t, h, 3, 120)...)

	var emitted []quality.Score
	run := pipeline.New(pipeline.Options{
		Sink: quality.SinkFunc(func(s quality.Score) error {
			emitted = append(emitted, s)
			return nil
		}),
	})
	res, err := run.Execute(context.Background(), bytes.NewReader(stream), bytes.NewReader(stream))
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if res.Frames != 3 || len(res.Scores) != 3 || len(emitted) != 3 {
		t.Fatalf("expected 3 scores, got frames=%d scores=%d emitted=%d", res.Frames, len(res.Scores), len(emitted))
	}
	for i, s := range res.Scores {
		if s.Index != i || !s.Clamped || s.Value != quality.DefaultMaxScore {
			t.Fatalf("score %d: %+v", i, s)
		}
	}
	if !res.HasMean || res.Mean != quality.DefaultMaxScore {
		t.Fatalf("mean = %v (%v)", res.Mean, res.HasMean)
	}
	if res.RunID == "" || res.RunID != run.ID() {
		t.Fatalf("unexpected run id %q", res.RunID)
	}
	if res.Header == nil || res.Header.Width != 2 {
		t.Fatalf("expected reference header in result, got %+v", res.Header)
	}
}

func TestExecuteBlockSizeIndependence(t *testing.T) {
	h := testsupport.Header(t, "YUV4MPEG2 W4 H2 C420jpeg")
	ref := testsupport.Stream(t, h,
		testsupport.UniformFrame(t, h, 0, 16, 128, 128),
		testsupport.UniformFrame(t, h, 1, 100, 90, 170),
		testsupport.UniformFrame(t, h, 2, 200, 140, 110),
	)
	rec := testsupport.Stream(t, h,
		testsupport.UniformFrame(t, h, 0, 20, 128, 128),
		testsupport.UniformFrame(t, h, 1, 110, 95, 160),
		testsupport.UniformFrame(t, h, 2, 190, 140, 120),
	)

	var baseline []quality.Score
	for _, block := range []int{1, 7, 13, 64, pipeline.DefaultBlockSize} {
		res, err := pipeline.New(pipeline.Options{BlockSize: block}).
			Execute(context.Background(), bytes.NewReader(ref), bytes.NewReader(rec))
		if err != nil {
			t.Fatalf("block %d: %v", block, err)
		}
		if baseline == nil {
			baseline = res.Scores
			if len(baseline) != 3 {
				t.Fatalf("expected 3 scores, got %d", len(baseline))
			}
			continue
		}
		for i := range baseline {
			if math.Abs(res.Scores[i].Value-baseline[i].Value) > 1e-12 {
				t.Fatalf("block %d frame %d: %v != %v", block, i, res.Scores[i].Value, baseline[i].Value)
			}
		}
	}
}

func TestExecuteShorterReference(t *testing.T) {
	h := testsupport.Header(t, header444)
	ref := testsupport.Stream(t, h, grey(t, h, 1, 60)...)
	rec := testsupport.Stream(t, h, grey(t, h, 3, 70)...)

	cases := []struct {
		name        string
		strict      bool
		unpairedRec int
	}{
		{name: "drain", strict: false, unpairedRec: 2},
		{name: "strict", strict: true, unpairedRec: 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			// Blocks smaller than one frame keep the reconstructed side from
			// being read ahead of the reference.
			res, err := pipeline.New(pipeline.Options{BlockSize: 5, StrictEOF: tc.strict}).
				Execute(context.Background(), bytes.NewReader(ref), bytes.NewReader(rec))
			if err != nil {
				t.Fatalf("Execute: %v", err)
			}
			if res.Frames != 1 {
				t.Fatalf("expected one pair, got %d", res.Frames)
			}
			if res.Unpaired.Ref != 0 || res.Unpaired.Rec != tc.unpairedRec {
				t.Fatalf("unpaired = %+v, want rec=%d", res.Unpaired, tc.unpairedRec)
			}
		})
	}
}

func TestExecuteShorterReconstruction(t *testing.T) {
	h := testsupport.Header(t, header444)
	ref := testsupport.Stream(t, h, grey(t, h, 3, 60)...)
	rec := testsupport.Stream(t, h, grey(t, h, 1, 60)...)

	res, err := pipeline.New(pipeline.Options{}).
		Execute(context.Background(), bytes.NewReader(ref), bytes.NewReader(rec))
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if res.Frames != 1 || res.Unpaired.Ref != 2 || res.Unpaired.Rec != 0 {
		t.Fatalf("unexpected result frames=%d unpaired=%+v", res.Frames, res.Unpaired)
	}
}

func TestExecuteRejectsIncompatibleStreams(t *testing.T) {
	a := testsupport.Header(t, header444)
	b := testsupport.Header(t, "YUV4MPEG2 W2 H2 C420jpeg")
	ref := testsupport.Stream(t, a, grey(t, a, 1, 60)...)
	rec := testsupport.Stream(t, b, testsupport.UniformFrame(t, b, 0, 60, 128, 128))

	_, err := pipeline.New(pipeline.Options{}).
		Execute(context.Background(), bytes.NewReader(ref), bytes.NewReader(rec))
	if !errors.Is(err, failure.ErrMismatch) {
		t.Fatalf("expected mismatch error, got %v", err)
	}
}

func TestExecuteToleratesFrameRateMismatch(t *testing.T) {
	a := testsupport.Header(t, header444)
	b := testsupport.Header(t, "YUV4MPEG2 W2 H2 F30000:1001 A1:1 C444")
	ref := testsupport.Stream(t, a, grey(t, a, 2, 60)...)
	rec := testsupport.Stream(t, b, grey(t, b, 2, 60)...)

	res, err := pipeline.New(pipeline.Options{}).
		Execute(context.Background(), bytes.NewReader(ref), bytes.NewReader(rec))
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if res.Frames != 2 {
		t.Fatalf("expected 2 pairs, got %d", res.Frames)
	}
}

func TestExecuteReportsTruncatedStream(t *testing.T) {
	h := testsupport.Header(t, header444)
	ref := testsupport.Stream(t, h, grey(t, h, 2, 60)...)
	rec := append(testsupport.Stream(t, h, grey(t, h, 2, 60)...), []byte("FRAME\n\x10\x10")...)

	res, err := pipeline.New(pipeline.Options{}).
		Execute(context.Background(), bytes.NewReader(ref), bytes.NewReader(rec))
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if res.Frames != 2 {
		t.Fatalf("expected 2 pairs, got %d", res.Frames)
	}
	if len(res.Truncated) != 1 || res.Truncated[0] != "reconstructed" {
		t.Fatalf("expected reconstructed stream flagged as truncated, got %v", res.Truncated)
	}
}

func TestExecuteEmptyInput(t *testing.T) {
	h := testsupport.Header(t, header444)
	ref := testsupport.Stream(t, h, grey(t, h, 1, 60)...)

	_, err := pipeline.New(pipeline.Options{}).
		Execute(context.Background(), bytes.NewReader(ref), bytes.NewReader(nil))
	if !errors.Is(err, failure.ErrFormat) {
		t.Fatalf("expected format error, got %v", err)
	}
}

func TestExecuteUnknownLayout(t *testing.T) {
	stream := []byte("YUV4MPEG2 W2 H2 C422\nFRAME\n")
	_, err := pipeline.New(pipeline.Options{}).
		Execute(context.Background(), bytes.NewReader(stream), bytes.NewReader(stream))
	if !errors.Is(err, y4m.ErrUnknownLayout) {
		t.Fatalf("expected unknown layout error, got %v", err)
	}
}

func TestExecuteSinkError(t *testing.T) {
	h := testsupport.Header(t, header444)
	stream := testsupport.Stream(t, h, grey(t, h, 2, 60)...)
	boom := errors.New("closed pipe")

	_, err := pipeline.New(pipeline.Options{
		Sink: quality.SinkFunc(func(quality.Score) error { return boom }),
	}).Execute(context.Background(), bytes.NewReader(stream), bytes.NewReader(stream))
	if !errors.Is(err, boom) || !errors.Is(err, failure.ErrIO) {
		t.Fatalf("expected wrapped sink error, got %v", err)
	}
}

func TestExecuteHonoursCancellation(t *testing.T) {
	h := testsupport.Header(t, header444)
	stream := testsupport.Stream(t, h, grey(t, h, 2, 60)...)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := pipeline.New(pipeline.Options{}).Execute(ctx, bytes.NewReader(stream), bytes.NewReader(stream))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestExecuteProgress(t *testing.T) {
	h := testsupport.Header(t, header444)
	stream := testsupport.Stream(t, h, grey(t, h, 4, 60)...)

	var last pipeline.Progress
	calls := 0
	_, err := pipeline.New(pipeline.Options{
		BlockSize: 16,
		Progress: func(p pipeline.Progress) {
			calls++
			if p.RefBytes < last.RefBytes || p.RecBytes < last.RecBytes || p.Scored < last.Scored {
				t.Fatalf("progress went backwards: %+v after %+v", p, last)
			}
			last = p
		},
	}).Execute(context.Background(), bytes.NewReader(stream), bytes.NewReader(stream))
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if calls == 0 {
		t.Fatal("expected progress callbacks")
	}
	if last.RefBytes != int64(len(stream)) || last.RecBytes != int64(len(stream)) || last.Scored != 4 {
		t.Fatalf("final progress %+v, stream %d bytes", last, len(stream))
	}
}
