// Package main hosts the mcsounds CLI entrypoint and command graph.
//
// The Cobra-based command tree turns terminal invocations into extraction
// jobs, manifest listings, history queries, environment checks, and
// configuration scaffolding. It centralizes configuration resolution and
// logger setup so subcommands can focus on presentation.
//
// Keep this package lean: the pipeline lives in internal/extraction and its
// supporting packages, and commands here only translate flags into jobs and
// render the resulting events and summaries.
package main
