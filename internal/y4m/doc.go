// Package y4m parses YUV4MPEG2 streams incrementally.
//
// A Reader accepts byte chunks of any size through Write and emits one Frame
// per completed payload, in stream order, through a caller supplied
// FrameFunc. The stream header is parsed once from the first line; each
// frame is a "FRAME" marker line followed by FrameSize(header) raw bytes.
// Only the 4:2:0 and 4:4:4 layouts at 8 or 10 bits are understood, which is
// everything the scoring pipeline needs to locate sample planes.
//
// Writer produces streams in the same format and is used to build fixtures.
package y4m
