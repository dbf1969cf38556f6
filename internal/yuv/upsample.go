package yuv

import (
	"fmt"

	"deltae/internal/failure"
	"deltae/internal/y4m"
)

// Image is a full-resolution YCbCr image with interleaved samples:
// Pix[3*(y*Width+x)] is Y, followed by Cb and Cr.
type Image struct {
	Index  int
	Width  int
	Height int
	Pix    []float64
}

// At returns the (Y, Cb, Cr) triple at column x, row y.
func (img *Image) At(x, y int) (float64, float64, float64) {
	i := 3 * (y*img.Width + x)
	return img.Pix[i], img.Pix[i+1], img.Pix[i+2]
}

// Upsample expands 4:2:0 chroma to full resolution by replicating each
// sample into a 2x2 block, then interleaves the planes. 4:4:4 input is only
// interleaved. Odd edges reuse the last chroma row or column.
func Upsample(p *Planar) (*Image, error) {
	if p == nil || p.Header == nil {
		return nil, fmt.Errorf("%w: planar image without header", failure.ErrFormat)
	}
	w, h := p.Y.Width, p.Y.Height
	shift := 0
	switch p.Header.Layout {
	case y4m.Layout420:
		shift = 1
	case y4m.Layout444:
	default:
		return nil, fmt.Errorf("%w: %s", y4m.ErrUnknownLayout, p.Header.Chroma)
	}
	if p.Cb.Width < (w+shift)>>shift || p.Cb.Height < (h+shift)>>shift {
		return nil, fmt.Errorf("%w: chroma plane %dx%d too small for %dx%d",
			ErrShortBuffer, p.Cb.Width, p.Cb.Height, w, h)
	}

	img := &Image{Index: p.Index, Width: w, Height: h, Pix: make([]float64, 3*w*h)}
	for y := 0; y < h; y++ {
		cy := min(y>>shift, p.Cb.Height-1)
		for x := 0; x < w; x++ {
			cx := min(x>>shift, p.Cb.Width-1)
			i := 3 * (y*w + x)
			img.Pix[i] = p.Y.Data[y*w+x]
			img.Pix[i+1] = p.Cb.At(cx, cy)
			img.Pix[i+2] = p.Cr.At(cx, cy)
		}
	}
	return img, nil
}
