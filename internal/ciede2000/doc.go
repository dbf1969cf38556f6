// Package ciede2000 implements the CIEDE2000 colour-difference formula
// (Sharma, Wu and Dalal, 2005) with configurable parametric weights.
//
// Field computes a per-pixel difference map between two Lab images. The
// hue-angle conventions (atan2 mapped to [0, 2pi), zero-chroma handling) are
// the ones used by scikit-image so scores line up with existing score logs.
package ciede2000
