// Package colorspace converts normalized video YCbCr to CIE L*a*b*.
//
// The YCbCr to RGB step is a fixed BT.709 matrix applied to video-range
// normalized samples. RGB is then treated as sRGB-encoded, linearized,
// mapped to XYZ and expressed as L*a*b* relative to the D65 white point.
// Nothing is clipped: out-of-gamut video values produce out-of-range RGB and
// the Lab conversion follows the same formulas.
package colorspace
