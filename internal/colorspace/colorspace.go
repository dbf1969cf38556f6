package colorspace

import (
	"math"

	"deltae/internal/yuv"
)

// bt709 maps (Y, Cb, Cr) to (R, G, B). Rows are output channels.
var bt709 = [3][3]float64{
	{1, 0, 1.28033},
	{1, -0.21482, -0.38059},
	{1, 2.12798, 0},
}

// srgbToXYZ is the linear sRGB (D65) to CIE XYZ matrix.
var srgbToXYZ = [3][3]float64{
	{0.412453, 0.357580, 0.180423},
	{0.212671, 0.715160, 0.072169},
	{0.019334, 0.119193, 0.950227},
}

// D65 is the CIE 1931 2-degree reference white.
var D65 = [3]float64{0.95047, 1.0, 1.08883}

const (
	labEpsilon = 0.008856
	labKappa   = 7.787
)

// YCbCrToRGB applies the BT.709 matrix to one normalized sample triple.
func YCbCrToRGB(y, cb, cr float64) (r, g, b float64) {
	r = bt709[0][0]*y + bt709[0][1]*cb + bt709[0][2]*cr
	g = bt709[1][0]*y + bt709[1][1]*cb + bt709[1][2]*cr
	b = bt709[2][0]*y + bt709[2][1]*cb + bt709[2][2]*cr
	return r, g, b
}

// RGBToXYZ linearizes sRGB-encoded values and maps them to XYZ.
func RGBToXYZ(r, g, b float64) (x, y, z float64) {
	r, g, b = linearize(r), linearize(g), linearize(b)
	x = srgbToXYZ[0][0]*r + srgbToXYZ[0][1]*g + srgbToXYZ[0][2]*b
	y = srgbToXYZ[1][0]*r + srgbToXYZ[1][1]*g + srgbToXYZ[1][2]*b
	z = srgbToXYZ[2][0]*r + srgbToXYZ[2][1]*g + srgbToXYZ[2][2]*b
	return x, y, z
}

// XYZToLab expresses XYZ relative to the D65 white.
func XYZToLab(x, y, z float64) (l, a, b float64) {
	fx := labF(x / D65[0])
	fy := labF(y / D65[1])
	fz := labF(z / D65[2])
	l = 116*fy - 16
	a = 500 * (fx - fy)
	b = 200 * (fy - fz)
	return l, a, b
}

// RGBToLab chains RGBToXYZ and XYZToLab.
func RGBToLab(r, g, b float64) (float64, float64, float64) {
	return XYZToLab(RGBToXYZ(r, g, b))
}

// YCbCrToLab converts one normalized YCbCr triple all the way to Lab.
func YCbCrToLab(y, cb, cr float64) (float64, float64, float64) {
	return RGBToLab(YCbCrToRGB(y, cb, cr))
}

func linearize(v float64) float64 {
	if v > 0.04045 {
		return math.Pow((v+0.055)/1.055, 2.4)
	}
	return v / 12.92
}

func labF(t float64) float64 {
	if t > labEpsilon {
		return math.Cbrt(t)
	}
	return labKappa*t + 16.0/116.0
}

// Lab is one CIE L*a*b* colour.
type Lab struct {
	L, A, B float64
}

// LabImage holds interleaved (L, a, b) triples in row-major order.
type LabImage struct {
	Index  int
	Width  int
	Height int
	Pix    []float64
}

// At returns the colour at column x, row y.
func (img *LabImage) At(x, y int) Lab {
	i := 3 * (y*img.Width + x)
	return Lab{img.Pix[i], img.Pix[i+1], img.Pix[i+2]}
}

// Len returns the number of pixels.
func (img *LabImage) Len() int { return img.Width * img.Height }

// Pixel returns the i-th colour in row-major order.
func (img *LabImage) Pixel(i int) Lab {
	return Lab{img.Pix[3*i], img.Pix[3*i+1], img.Pix[3*i+2]}
}

// RGBImage holds interleaved (R, G, B) triples, kept for diagnostics and tests.
type RGBImage struct {
	Width  int
	Height int
	Pix    []float64
}

// ToRGB converts a full-resolution YCbCr image to RGB.
func ToRGB(img *yuv.Image) *RGBImage {
	out := &RGBImage{Width: img.Width, Height: img.Height, Pix: make([]float64, len(img.Pix))}
	for i := 0; i < len(img.Pix); i += 3 {
		out.Pix[i], out.Pix[i+1], out.Pix[i+2] = YCbCrToRGB(img.Pix[i], img.Pix[i+1], img.Pix[i+2])
	}
	return out
}

// ToLab converts a full-resolution YCbCr image to Lab pixel by pixel.
func ToLab(img *yuv.Image) *LabImage {
	out := &LabImage{Index: img.Index, Width: img.Width, Height: img.Height, Pix: make([]float64, len(img.Pix))}
	for i := 0; i < len(img.Pix); i += 3 {
		out.Pix[i], out.Pix[i+1], out.Pix[i+2] = YCbCrToLab(img.Pix[i], img.Pix[i+1], img.Pix[i+2])
	}
	return out
}
