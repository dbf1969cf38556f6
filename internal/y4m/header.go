package y4m

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"deltae/internal/failure"
)

// Signature is the magic token opening every YUV4MPEG2 stream.
const Signature = "YUV4MPEG2"

// DefaultChroma is assumed when the header carries no C token.
const DefaultChroma = "420jpeg"

var (
	ErrBadHeader     = fmt.Errorf("%w: malformed y4m header", failure.ErrFormat)
	ErrUnknownLayout = fmt.Errorf("%w: unknown pixel format", failure.ErrFormat)
)

// Layout is the chroma arrangement of a stream.
type Layout int

const (
	LayoutUnknown Layout = iota
	Layout420
	Layout444
)

func (l Layout) String() string {
	switch l {
	case Layout420:
		return "420"
	case Layout444:
		return "444"
	default:
		return "unknown"
	}
}

// Ratio is a rational header field such as F30000:1001 or A1:1.
type Ratio struct {
	Num int
	Den int
}

// IsZero reports whether the ratio was absent from the header.
func (r Ratio) IsZero() bool { return r.Num == 0 && r.Den == 0 }

// Equal compares ratios by value, so 30:1 equals 60:2.
func (r Ratio) Equal(o Ratio) bool {
	return int64(r.Num)*int64(o.Den) == int64(o.Num)*int64(r.Den)
}

func (r Ratio) String() string { return fmt.Sprintf("%d:%d", r.Num, r.Den) }

// Header is the immutable stream header.
type Header struct {
	Width      int
	Height     int
	Chroma     string
	Layout     Layout
	Depth      int
	FrameRate  Ratio
	Aspect     Ratio
	Interlace  byte
	Extensions []string
	// Unknown keeps tokens with unrecognised tags, verbatim.
	Unknown []string
}

// BytesPerSample is 1 for 8-bit streams and 2 for 10-bit streams, whose
// samples are stored as 16-bit little-endian words.
func (h *Header) BytesPerSample() int {
	if h.Depth > 8 {
		return 2
	}
	return 1
}

// Scale is the factor between 8-bit code values and this stream's code
// values (1 for 8-bit, 4 for 10-bit).
func (h *Header) Scale() float64 {
	return float64(int(1) << (h.Depth - 8))
}

// ChromaSize returns the dimensions of each chroma plane.
func (h *Header) ChromaSize() (width, height int) {
	if h.Layout == Layout420 {
		return (h.Width + 1) / 2, (h.Height + 1) / 2
	}
	return h.Width, h.Height
}

// Compatible reports whether two streams carry frames that can be compared
// sample for sample.
func (h *Header) Compatible(o *Header) error {
	switch {
	case h.Width != o.Width || h.Height != o.Height:
		return fmt.Errorf("%w: resolution %dx%d does not match %dx%d",
			failure.ErrMismatch, h.Width, h.Height, o.Width, o.Height)
	case h.Layout != o.Layout:
		return fmt.Errorf("%w: chroma layout %s does not match %s",
			failure.ErrMismatch, h.Chroma, o.Chroma)
	case h.Depth != o.Depth:
		return fmt.Errorf("%w: bit depth %d does not match %d",
			failure.ErrMismatch, h.Depth, o.Depth)
	}
	return nil
}

// String renders the header line without the trailing newline.
func (h *Header) String() string {
	var b strings.Builder
	b.WriteString(Signature)
	fmt.Fprintf(&b, " W%d H%d", h.Width, h.Height)
	if !h.FrameRate.IsZero() {
		fmt.Fprintf(&b, " F%s", h.FrameRate)
	}
	if h.Interlace != 0 {
		fmt.Fprintf(&b, " I%c", h.Interlace)
	}
	if !h.Aspect.IsZero() {
		fmt.Fprintf(&b, " A%s", h.Aspect)
	}
	if h.Chroma != "" {
		fmt.Fprintf(&b, " C%s", h.Chroma)
	}
	for _, x := range h.Extensions {
		fmt.Fprintf(&b, " X%s", x)
	}
	for _, tok := range h.Unknown {
		b.WriteString(" " + tok)
	}
	return b.String()
}

// ParseHeader parses a stream header line. A trailing newline is allowed.
// An unrecognized chroma token is not rejected here; FrameSize reports it.
func ParseHeader(line []byte) (*Header, error) {
	line = bytes.TrimRight(line, "\r\n")
	fields := strings.Fields(string(line))
	if len(fields) == 0 || fields[0] != Signature {
		return nil, fmt.Errorf("%w: missing %s signature", ErrBadHeader, Signature)
	}

	h := &Header{Chroma: DefaultChroma}
	for _, tok := range fields[1:] {
		tag, value := tok[0], tok[1:]
		var err error
		switch tag {
		case 'W':
			h.Width, err = parseDimension(tok, value)
		case 'H':
			h.Height, err = parseDimension(tok, value)
		case 'F':
			h.FrameRate, err = parseRatio(tok, value)
		case 'A':
			h.Aspect, err = parseRatio(tok, value)
		case 'I':
			if len(value) != 1 {
				err = fmt.Errorf("%w: interlace token %q", ErrBadHeader, tok)
			} else {
				h.Interlace = value[0]
			}
		case 'C':
			h.Chroma = value
		case 'X':
			h.Extensions = append(h.Extensions, value)
		default:
			h.Unknown = append(h.Unknown, tok)
		}
		if err != nil {
			return nil, err
		}
	}

	if h.Width <= 0 || h.Height <= 0 {
		return nil, fmt.Errorf("%w: missing frame dimensions", ErrBadHeader)
	}
	h.Layout, h.Depth = classifyChroma(h.Chroma)
	return h, nil
}

// classifyChroma maps a C token onto a layout and bit depth. Tokens of the
// 420 family (420jpeg, 420mpeg2, 420paldv, 420p10...) share one layout.
// 444alpha carries a fourth plane and is not a 444 layout for our purposes.
func classifyChroma(token string) (Layout, int) {
	var layout Layout
	switch {
	case strings.HasPrefix(token, "420"):
		layout = Layout420
	case strings.HasPrefix(token, "444") && token != "444alpha":
		layout = Layout444
	default:
		return LayoutUnknown, 8
	}

	rest := token[3:]
	if !strings.HasPrefix(rest, "p") {
		return layout, 8
	}
	bits, err := strconv.Atoi(rest[1:])
	if err != nil {
		// 420paldv and friends: a siting name, not a depth.
		return layout, 8
	}
	if bits != 10 {
		return LayoutUnknown, bits
	}
	return layout, bits
}

func parseDimension(tok, value string) (int, error) {
	n, err := strconv.Atoi(value)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%w: dimension token %q", ErrBadHeader, tok)
	}
	return n, nil
}

func parseRatio(tok, value string) (Ratio, error) {
	num, den, ok := strings.Cut(value, ":")
	if !ok {
		return Ratio{}, fmt.Errorf("%w: ratio token %q", ErrBadHeader, tok)
	}
	n, err := strconv.Atoi(num)
	if err != nil {
		return Ratio{}, fmt.Errorf("%w: ratio token %q", ErrBadHeader, tok)
	}
	d, err := strconv.Atoi(den)
	if err != nil {
		return Ratio{}, fmt.Errorf("%w: ratio token %q", ErrBadHeader, tok)
	}
	return Ratio{Num: n, Den: d}, nil
}

// FrameSize returns the payload size of one frame in bytes.
func FrameSize(h *Header) (int, error) {
	if h == nil {
		return 0, fmt.Errorf("%w: nil header", ErrBadHeader)
	}
	area := h.Width * h.Height
	var samples int
	switch h.Layout {
	case Layout420:
		cw, ch := h.ChromaSize()
		samples = area + 2*cw*ch
	case Layout444:
		samples = area * 3
	default:
		return 0, fmt.Errorf("%w: %s", ErrUnknownLayout, h.Chroma)
	}
	return samples * h.BytesPerSample(), nil
}
