// Package ingest turns extracted candidate records into catalog writes.
//
// Candidates arrive as JSON Lines in the wire shape the extraction adapters
// emit. Normalize cleans one candidate into a catalog.Candidate and Runner
// feeds a stream of them through a bounded worker set, retrying only the
// transient failures the catalog reports as retryable.
package ingest
