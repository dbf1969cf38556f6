package y4m_test

import (
	"errors"
	"strings"
	"testing"

	"deltae/internal/failure"
	"deltae/internal/y4m"
)

func TestParseHeaderFields(t *testing.T) {
	h, err := y4m.ParseHeader([]byte("YUV4MPEG2 W1920 H1080 F30000:1001 Ip A1:1 C420p10 XYSCSS=420P10\n"))
	if err != nil {
		t.Fatalf("ParseHeader returned error: %v", err)
	}
	if h.Width != 1920 || h.Height != 1080 {
		t.Fatalf("unexpected geometry %dx%d", h.Width, h.Height)
	}
	if h.Layout != y4m.Layout420 || h.Depth != 10 {
		t.Fatalf("unexpected layout %s depth %d", h.Layout, h.Depth)
	}
	if h.FrameRate != (y4m.Ratio{Num: 30000, Den: 1001}) {
		t.Fatalf("unexpected frame rate %v", h.FrameRate)
	}
	if h.Aspect != (y4m.Ratio{Num: 1, Den: 1}) || h.Interlace != 'p' {
		t.Fatalf("unexpected aspect %v interlace %c", h.Aspect, h.Interlace)
	}
	if len(h.Extensions) != 1 || h.Extensions[0] != "YSCSS=420P10" {
		t.Fatalf("unexpected extensions %v", h.Extensions)
	}
	if h.BytesPerSample() != 2 || h.Scale() != 4 {
		t.Fatalf("unexpected sample width %d scale %v", h.BytesPerSample(), h.Scale())
	}
}

func TestParseHeaderDefaultsChroma(t *testing.T) {
	h, err := y4m.ParseHeader([]byte("YUV4MPEG2 W4 H2"))
	if err != nil {
		t.Fatalf("ParseHeader returned error: %v", err)
	}
	if h.Chroma != y4m.DefaultChroma || h.Layout != y4m.Layout420 || h.Depth != 8 {
		t.Fatalf("expected 420jpeg 8-bit default, got %q %s %d", h.Chroma, h.Layout, h.Depth)
	}
}

func TestParseHeaderRejectsMalformed(t *testing.T) {
	cases := map[string]string{
		"signature": "YUV4MPEG W2 H2 C444",
		"width":     "YUV4MPEG2 Wx H2 C444",
		"zero":      "YUV4MPEG2 W0 H2 C444",
		"missing":   "YUV4MPEG2 W2 C444",
		"ratio":     "YUV4MPEG2 W2 H2 F30 C444",
		"interlace": "YUV4MPEG2 W2 H2 Ipp C444",
	}
	for name, line := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := y4m.ParseHeader([]byte(line))
			if !errors.Is(err, y4m.ErrBadHeader) {
				t.Fatalf("expected ErrBadHeader, got %v", err)
			}
			if !errors.Is(err, failure.ErrFormat) {
				t.Fatalf("expected format marker, got %v", err)
			}
		})
	}
}

func TestParseHeaderKeepsUnknownTags(t *testing.T) {
	h, err := y4m.ParseHeader([]byte("YUV4MPEG2 W2 H2 Q1 Zfoo C444\n"))
	if err != nil {
		t.Fatalf("ParseHeader returned error: %v", err)
	}
	if len(h.Unknown) != 2 || h.Unknown[0] != "Q1" || h.Unknown[1] != "Zfoo" {
		t.Fatalf("unexpected unknown tokens %v", h.Unknown)
	}
	if h.Width != 2 || h.Layout != y4m.Layout444 {
		t.Fatalf("unexpected header %+v", h)
	}
	if got := h.String(); got != "YUV4MPEG2 W2 H2 C444 Q1 Zfoo" {
		t.Fatalf("String() = %q", got)
	}
}

func TestFrameSize(t *testing.T) {
	cases := []struct {
		line string
		want int
	}{
		{"YUV4MPEG2 W2 H2 C444", 12},
		{"YUV4MPEG2 W2 H2 C444p10", 24},
		{"YUV4MPEG2 W4 H4 C420jpeg", 24},
		{"YUV4MPEG2 W4 H4 C420mpeg2", 24},
		{"YUV4MPEG2 W4 H4 C420paldv", 24},
		{"YUV4MPEG2 W4 H4 C420p10", 48},
		{"YUV4MPEG2 W352 H288", 352 * 288 * 3 / 2},
		{"YUV4MPEG2 W3 H3 C420", 9 + 2*4},
	}
	for _, tc := range cases {
		h, err := y4m.ParseHeader([]byte(tc.line))
		if err != nil {
			t.Fatalf("ParseHeader(%q): %v", tc.line, err)
		}
		got, err := y4m.FrameSize(h)
		if err != nil {
			t.Fatalf("FrameSize(%q): %v", tc.line, err)
		}
		if got != tc.want {
			t.Fatalf("FrameSize(%q) = %d, want %d", tc.line, got, tc.want)
		}
	}
}

func TestFrameSizeUnknownLayoutNamesToken(t *testing.T) {
	for _, token := range []string{"422", "mono", "444alpha", "420p12"} {
		h, err := y4m.ParseHeader([]byte("YUV4MPEG2 W2 H2 C" + token))
		if err != nil {
			t.Fatalf("ParseHeader returned error: %v", err)
		}
		_, err = y4m.FrameSize(h)
		if !errors.Is(err, y4m.ErrUnknownLayout) {
			t.Fatalf("expected ErrUnknownLayout for %q, got %v", token, err)
		}
		if !strings.Contains(err.Error(), token) {
			t.Fatalf("expected error to name %q, got %q", token, err.Error())
		}
	}
}

func TestHeaderStringRoundTrip(t *testing.T) {
	line := "YUV4MPEG2 W64 H48 F25:1 Ip A1:1 C444p10 XCOLORRANGE=LIMITED"
	h, err := y4m.ParseHeader([]byte(line))
	if err != nil {
		t.Fatalf("ParseHeader returned error: %v", err)
	}
	if got := h.String(); got != line {
		t.Fatalf("String() = %q, want %q", got, line)
	}
}

func TestHeaderCompatible(t *testing.T) {
	base, _ := y4m.ParseHeader([]byte("YUV4MPEG2 W8 H8 F25:1 C420jpeg"))
	same, _ := y4m.ParseHeader([]byte("YUV4MPEG2 W8 H8 F30:1 C420mpeg2"))
	if err := base.Compatible(same); err != nil {
		t.Fatalf("expected 420 variants to be compatible, got %v", err)
	}
	for _, line := range []string{
		"YUV4MPEG2 W8 H4 C420jpeg",
		"YUV4MPEG2 W8 H8 C444",
		"YUV4MPEG2 W8 H8 C420p10",
	} {
		other, _ := y4m.ParseHeader([]byte(line))
		if err := base.Compatible(other); !errors.Is(err, failure.ErrMismatch) {
			t.Fatalf("expected mismatch against %q, got %v", line, err)
		}
	}
}

func TestRatioEqual(t *testing.T) {
	if !(y4m.Ratio{Num: 30, Den: 1}).Equal(y4m.Ratio{Num: 60, Den: 2}) {
		t.Fatal("expected 30:1 to equal 60:2")
	}
	if (y4m.Ratio{Num: 25, Den: 1}).Equal(y4m.Ratio{Num: 24, Den: 1}) {
		t.Fatal("expected 25:1 to differ from 24:1")
	}
}
