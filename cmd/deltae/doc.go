// Command deltae scores how closely a reconstructed Y4M video matches its
// reference using the CIEDE2000 colour difference.
//
// The classic invocation prints one line per frame pair followed by the mean:
//
//	deltae score reference.y4m decoded.y4m
//
// Completed runs are stored in a local SQLite history that the history
// subcommands list and inspect.
package main
