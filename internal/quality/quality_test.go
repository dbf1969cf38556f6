package quality_test

import (
	"errors"
	"math"
	"testing"

	"deltae/internal/ciede2000"
	"deltae/internal/colorspace"
	"deltae/internal/failure"
	"deltae/internal/quality"
	"deltae/internal/testsupport"
	"deltae/internal/yuv"
)

func labFrame(t *testing.T, line string, y, cb, cr []int) *colorspace.LabImage {
	t.Helper()
	h := testsupport.Header(t, line)
	planar, err := yuv.Decode(testsupport.Frame(t, h, 0, y, cb, cr))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	img, err := yuv.Upsample(planar)
	if err != nil {
		t.Fatalf("Upsample: %v", err)
	}
	return colorspace.ToLab(img)
}

func TestIdenticalFramesClampToMax(t *testing.T) {
	lab := labFrame(t, "YUV4MPEG2 W2 H2 C444",
		[]int{16, 80, 160, 235}, []int{128, 100, 150, 128}, []int{128, 140, 90, 128})
	scorer := quality.NewScorer(ciede2000.VideoWeights, 0)
	got, err := scorer.Score(3, lab, lab)
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	if got.Index != 3 || got.MeanDifference != 0 {
		t.Fatalf("unexpected score %+v", got)
	}
	if !got.Clamped || got.Value != quality.DefaultMaxScore {
		t.Fatalf("expected clamped max score, got %+v", got)
	}
}

func TestBlackVersusWhiteScoresLow(t *testing.T) {
	black := labFrame(t, "YUV4MPEG2 W2 H2 C444",
		testsupport.Fill(4, 16), testsupport.Fill(4, 128), testsupport.Fill(4, 128))
	white := labFrame(t, "YUV4MPEG2 W2 H2 C444",
		testsupport.Fill(4, 235), testsupport.Fill(4, 128), testsupport.Fill(4, 128))
	scorer := quality.NewScorer(ciede2000.VideoWeights, 0)
	got, err := scorer.Score(0, black, white)
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	if got.Clamped {
		t.Fatalf("did not expect clamp, got %+v", got)
	}
	// L spans 0..100 at mid lightness, so dE = 100 / kL.
	want := 45 - 20*math.Log10(100/0.65)
	if math.Abs(got.Value-want) > 1e-3 {
		t.Fatalf("score = %v, want %v", got.Value, want)
	}
	if got.Value >= quality.DefaultMaxScore {
		t.Fatalf("expected score below identical frames, got %v", got.Value)
	}
}

func TestFromMeanClamp(t *testing.T) {
	s := &quality.Scorer{Weights: ciede2000.VideoWeights, MaxScore: 60}
	cases := []struct {
		mean    float64
		want    float64
		clamped bool
	}{
		{0, 60, true},
		{1, 45, false},
		{10, 25, false},
		{0.1, 60, true}, // 65 > 60
	}
	for _, tc := range cases {
		got, clamped := s.FromMean(tc.mean)
		if math.Abs(got-tc.want) > 1e-9 || clamped != tc.clamped {
			t.Fatalf("FromMean(%v) = %v,%v want %v,%v", tc.mean, got, clamped, tc.want, tc.clamped)
		}
	}
}

func TestMeanRejectsNaN(t *testing.T) {
	if _, err := quality.Mean([]float64{1, math.NaN()}); !errors.Is(err, failure.ErrNumeric) {
		t.Fatalf("expected numeric error, got %v", err)
	}
	if _, err := quality.Mean(nil); !errors.Is(err, failure.ErrNumeric) {
		t.Fatalf("expected numeric error for empty field, got %v", err)
	}
}

func TestScoreMismatchedGeometry(t *testing.T) {
	a := labFrame(t, "YUV4MPEG2 W2 H2 C444", testsupport.Fill(4, 16), testsupport.Fill(4, 128), testsupport.Fill(4, 128))
	b := labFrame(t, "YUV4MPEG2 W4 H1 C444", testsupport.Fill(4, 16), testsupport.Fill(4, 128), testsupport.Fill(4, 128))
	_, err := quality.NewScorer(ciede2000.VideoWeights, 0).Score(0, a, b)
	if !errors.Is(err, failure.ErrMismatch) {
		t.Fatalf("expected mismatch, got %v", err)
	}
}

func TestRecord(t *testing.T) {
	var r quality.Record
	if _, ok := r.Mean(); ok {
		t.Fatal("expected empty record to report no mean")
	}
	r.Append(quality.Score{Index: 0, Value: 30})
	if err := r.Emit(quality.Score{Index: 1, Value: 40}); err != nil {
		t.Fatalf("Emit: %v", err)
	}
	if r.Len() != 2 {
		t.Fatalf("Len = %d", r.Len())
	}
	mean, ok := r.Mean()
	if !ok || mean != 35 {
		t.Fatalf("Mean = %v,%v", mean, ok)
	}
	scores := r.Scores()
	scores[0].Value = 0
	if again := r.Scores(); again[0].Value != 30 {
		t.Fatal("Scores must return a copy")
	}
	if again := r.Scores(); again[0].Index != 0 || again[1].Index != 1 {
		t.Fatalf("order not preserved: %+v", again)
	}
}
