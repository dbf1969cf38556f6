// Package source opens the byte streams fed to the scoring pipeline.
//
// An input is a file path or "-" for standard input. Inputs beginning with
// the zstd frame magic are decompressed transparently, and regular files get
// a sequential read-ahead hint where the platform supports one.
package source
