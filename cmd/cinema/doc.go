// Package main hosts the cinema CLI entrypoint and command graph.
//
// The Cobra command tree resolves configuration once, opens the per-domain
// catalog stores through a shared pool registry, and exposes the read API,
// ingestion, dedup and maintenance operations. Heavy lifting lives in the
// internal packages; commands here only parse flags and render output.
package main
