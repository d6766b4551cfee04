// Package extract parses saved detail pages from the supported source sites
// into ingest candidates.
//
// Parsers are pure: they read HTML bytes and the page URL (used to resolve
// relative cover links) and never fetch anything.
package extract
