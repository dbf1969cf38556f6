// Package failure defines the error markers shared by the scoring pipeline.
//
// Components wrap their errors with one of the exported sentinels so the CLI
// and the run history can classify failures with errors.Is without parsing
// messages. There are no retries anywhere in deltae: a marked error always
// terminates the run.
package failure
