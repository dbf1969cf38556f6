package yuv

import (
	"encoding/binary"
	"fmt"

	"deltae/internal/failure"
	"deltae/internal/y4m"
)

// ErrShortBuffer means the plane offsets implied by the header run past the
// end of the frame payload.
var ErrShortBuffer = fmt.Errorf("%w: frame buffer shorter than header geometry", failure.ErrFormat)

const (
	lumaOffset   = 16.0
	lumaRange    = 219.0
	chromaOffset = 128.0
	chromaRange  = 224.0
)

// Plane is a row-major array of normalized samples.
type Plane struct {
	Width  int
	Height int
	Data   []float64
}

// At returns the sample at column x, row y.
func (p *Plane) At(x, y int) float64 { return p.Data[y*p.Width+x] }

// Planar holds the decoded planes of one frame.
type Planar struct {
	Index  int
	Header *y4m.Header
	Y      Plane
	Cb     Plane
	Cr     Plane
}

// Decode reads Y, Cb and Cr from consecutive regions of f.Data and
// normalizes them. The frame payload is only read.
func Decode(f *y4m.Frame) (*Planar, error) {
	if f == nil || f.Header == nil {
		return nil, fmt.Errorf("%w: frame without header", failure.ErrFormat)
	}
	h := f.Header
	if h.Layout != y4m.Layout420 && h.Layout != y4m.Layout444 {
		return nil, fmt.Errorf("%w: %s", y4m.ErrUnknownLayout, h.Chroma)
	}

	bps := h.BytesPerSample()
	cw, ch := h.ChromaSize()
	lumaBytes := h.Width * h.Height * bps
	chromaBytes := cw * ch * bps
	if need := lumaBytes + 2*chromaBytes; len(f.Data) < need {
		return nil, fmt.Errorf("%w: frame %d has %d bytes, %s %dx%d needs %d",
			ErrShortBuffer, f.Index, len(f.Data), h.Chroma, h.Width, h.Height, need)
	}

	scale := h.Scale()
	p := &Planar{Index: f.Index, Header: h}
	p.Y = decodePlane(f.Data[:lumaBytes], h.Width, h.Height, bps, lumaOffset*scale, lumaRange*scale)
	cbStart := lumaBytes
	crStart := cbStart + chromaBytes
	p.Cb = decodePlane(f.Data[cbStart:crStart], cw, ch, bps, chromaOffset*scale, chromaRange*scale)
	p.Cr = decodePlane(f.Data[crStart:crStart+chromaBytes], cw, ch, bps, chromaOffset*scale, chromaRange*scale)
	return p, nil
}

func decodePlane(buf []byte, width, height, bps int, offset, span float64) Plane {
	n := width * height
	out := make([]float64, n)
	if bps == 1 {
		for i := 0; i < n; i++ {
			out[i] = (float64(buf[i]) - offset) / span
		}
	} else {
		for i := 0; i < n; i++ {
			out[i] = (float64(binary.LittleEndian.Uint16(buf[2*i:])) - offset) / span
		}
	}
	return Plane{Width: width, Height: height, Data: out}
}
