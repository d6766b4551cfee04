// Package api serves the read-only catalog HTTP API.
//
// Each domain is mounted under its own prefix (/movie, /tvshow) with list,
// search, detail and facet routes. Errors use a JSON envelope
// {"error":{"message","code"}} where code is the catalog error kind.
package api
