// Package pipeline drives one scoring run over a reference and a
// reconstructed Y4M stream.
//
// A Run reads both sources in fixed-size blocks, alternating between them,
// and feeds each block to its own y4m.Reader. Completed frames are decoded,
// upsampled and converted to Lab straight away so raw payloads are released
// early. The Synchronizer pairs Lab frames in arrival order and every pair is
// scored inline. Nothing runs concurrently; the Run value owns all state for
// its invocation.
//
// Only reads are gated: a side is read when its pending queue is empty. When
// one side is exhausted the run drains the other to count unpaired frames
// unless StrictEOF asks for the historical stop-at-first-EOF behaviour.
package pipeline
