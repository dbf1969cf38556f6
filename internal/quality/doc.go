// Package quality turns per-pixel CIEDE2000 fields into per-frame scores.
//
// A Scorer reduces the difference field of one frame pair to its mean and
// maps it to 45 - 20*log10(mean). Identical frames have no finite score, so
// a zero mean (and any score above MaxScore) is reported as MaxScore with
// Clamped set. Scores accumulate in a Record in arrival order and may be
// forwarded to a Sink as they are produced.
package quality
