package ciede2000

import (
	"fmt"
	"math"

	"deltae/internal/colorspace"
	"deltae/internal/failure"
)

// Weights are the parametric factors kL, kC and kH.
type Weights struct {
	KL float64 `json:"kl"`
	KC float64 `json:"kc"`
	KH float64 `json:"kh"`
}

var (
	// UnitWeights are the reference conditions of the CIE recommendation.
	UnitWeights = Weights{KL: 1, KC: 1, KH: 1}
	// VideoWeights follow Yang, Ming and Yu, "Color Image Quality Assessment
	// Based on CIEDE2000" (2012), doi:10.1155/2012/273723.
	VideoWeights = Weights{KL: 0.65, KC: 1.0, KH: 4.0}
)

// Validate rejects weights that would divide by zero or flip signs.
func (w Weights) Validate() error {
	if !(w.KL > 0) || !(w.KC > 0) || !(w.KH > 0) {
		return fmt.Errorf("%w: ciede2000 weights must be positive, got kL=%v kC=%v kH=%v",
			failure.ErrConfiguration, w.KL, w.KC, w.KH)
	}
	return nil
}

var pow25to7 = math.Pow(25, 7)

// hueEpsilon absorbs the rounding of atan2 and the 2π wrap so that hue
// differences of exactly 180° take the |Δh| <= π branch.
const hueEpsilon = 1e-12

// Delta returns the CIEDE2000 difference between two colours.
func Delta(c1, c2 colorspace.Lab, w Weights) float64 {
	cbar := 0.5 * (math.Hypot(c1.A, c1.B) + math.Hypot(c2.A, c2.B))
	c7 := math.Pow(cbar, 7)
	g := 0.5 * (1 - math.Sqrt(c7/(c7+pow25to7)))
	scale := 1 + g
	C1, h1 := polar(c1.A*scale, c1.B)
	C2, h2 := polar(c2.A*scale, c2.B)

	// lightness
	lbar := 0.5 * (c1.L + c2.L)
	tmp := (lbar - 50) * (lbar - 50)
	sl := 1 + 0.015*tmp/math.Sqrt(20+tmp)
	lTerm := (c2.L - c1.L) / (w.KL * sl)

	// chroma
	cbar = 0.5 * (C1 + C2)
	sc := 1 + 0.045*cbar
	cTerm := (C2 - C1) / (w.KC * sc)

	// hue
	hDiff := h2 - h1
	hSum := h1 + h2
	cc := C1 * C2

	dH := hDiff
	switch {
	case cc == 0:
		dH = 0
	case hDiff > math.Pi+hueEpsilon:
		dH -= 2 * math.Pi
	case hDiff < -math.Pi-hueEpsilon:
		dH += 2 * math.Pi
	}
	dHTerm := 2 * math.Sqrt(cc) * math.Sin(dH/2)

	hbar := hSum
	if cc == 0 {
		hbar *= 2
	} else if math.Abs(hDiff) > math.Pi+hueEpsilon {
		if hSum < 2*math.Pi {
			hbar += 2 * math.Pi
		} else {
			hbar -= 2 * math.Pi
		}
	}
	hbar *= 0.5

	t := 1 -
		0.17*math.Cos(hbar-deg2rad(30)) +
		0.24*math.Cos(2*hbar) +
		0.32*math.Cos(3*hbar+deg2rad(6)) -
		0.20*math.Cos(4*hbar-deg2rad(63))
	sh := 1 + 0.015*cbar*t
	hTerm := dHTerm / (w.KH * sh)

	// hue rotation
	c7 = math.Pow(cbar, 7)
	rc := 2 * math.Sqrt(c7/(c7+pow25to7))
	x := (rad2deg(hbar) - 275) / 25
	dTheta := deg2rad(30) * math.Exp(-x*x)
	rTerm := -math.Sin(2*dTheta) * rc * cTerm * hTerm

	de2 := lTerm*lTerm + cTerm*cTerm + hTerm*hTerm + rTerm
	return math.Sqrt(math.Max(de2, 0))
}

// Field computes Delta for every pixel of two co-registered images.
func Field(a, b *colorspace.LabImage, w Weights) ([]float64, error) {
	if a == nil || b == nil {
		return nil, fmt.Errorf("%w: nil lab image", failure.ErrFormat)
	}
	if a.Width != b.Width || a.Height != b.Height || len(a.Pix) != len(b.Pix) {
		return nil, fmt.Errorf("%w: lab images are %dx%d and %dx%d",
			failure.ErrMismatch, a.Width, a.Height, b.Width, b.Height)
	}
	out := make([]float64, a.Len())
	for i := range out {
		out[i] = Delta(a.Pixel(i), b.Pixel(i), w)
	}
	return out, nil
}

func polar(x, y float64) (r, theta float64) {
	theta = math.Atan2(y, x)
	if theta < 0 {
		theta += 2 * math.Pi
	}
	return math.Hypot(x, y), theta
}

func deg2rad(d float64) float64 { return d * math.Pi / 180 }

func rad2deg(r float64) float64 { return r * 180 / math.Pi }
