// Package report renders scoring results.
//
// Lines streams the classic per-frame output (an eight digit frame index
// and a four decimal score) followed by a Total line. Document is the JSON
// form of a completed run, and RenderSummary draws the same information as
// a table for terminals.
package report
