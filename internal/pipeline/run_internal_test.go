package pipeline

import (
	"bytes"
	"context"
	"testing"

	"deltae/internal/colorspace"
	"deltae/internal/testsupport"
	"deltae/internal/y4m"
)

func countingConverter(calls map[*y4m.Frame]int) func(*y4m.Frame) (*colorspace.LabImage, error) {
	return func(f *y4m.Frame) (*colorspace.LabImage, error) {
		calls[f]++
		return toLab(f)
	}
}

func TestRunConvertsOnlyPairedFrames(t *testing.T) {
	h := testsupport.Header(t, "YUV4MPEG2 W2 H2 F25:1 A1:1 C444")
	refFrames := make([]*y4m.Frame, 5)
	for i := range refFrames {
		refFrames[i] = testsupport.UniformFrame(t, h, i, 100, 128, 128)
	}
	ref := testsupport.Stream(t, h, refFrames...)
	rec := testsupport.Stream(t, h, refFrames[:2]...)

	for _, strict := range []bool{false, true} {
		calls := map[*y4m.Frame]int{}
		// One block holds the whole reference so every frame is queued at once.
		run := New(Options{BlockSize: len(ref), StrictEOF: strict})
		run.convert = countingConverter(calls)

		res, err := run.Execute(context.Background(), bytes.NewReader(ref), bytes.NewReader(rec))
		if err != nil {
			t.Fatalf("strict=%v: Execute: %v", strict, err)
		}
		if res.Frames != 2 {
			t.Fatalf("strict=%v: expected 2 pairs, got %d", strict, res.Frames)
		}
		if len(calls) != 4 {
			t.Fatalf("strict=%v: expected 4 conversions for 2 pairs, got %d", strict, len(calls))
		}
		for f, n := range calls {
			if n != 1 {
				t.Fatalf("strict=%v: frame %d converted %d times", strict, f.Index, n)
			}
			if f.Index > 1 {
				t.Fatalf("strict=%v: unpaired frame %d was converted", strict, f.Index)
			}
		}
	}
}

func TestSynchronizerQueuesRawFrames(t *testing.T) {
	h := testsupport.Header(t, "YUV4MPEG2 W2 H2 C444")
	var paired int
	s := NewSynchronizer(func(ref, rec *y4m.Frame) error {
		paired++
		return nil
	})
	for i := 0; i < 3; i++ {
		if err := s.OnReference(testsupport.UniformFrame(t, h, i, 16, 128, 128)); err != nil {
			t.Fatalf("OnReference: %v", err)
		}
	}
	for _, f := range s.ref {
		if len(f.Data) != 12 {
			t.Fatalf("expected raw 12-byte frame in queue, got %d bytes", len(f.Data))
		}
	}
	if paired != 0 {
		t.Fatalf("expected no pairs yet, got %d", paired)
	}
}
