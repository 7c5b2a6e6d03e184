// Package cli provides the command-line interface for replay archives.
//
// The cli package implements the commands that work on archives outside of
// a test run:
//   - inspect: List the entries of an archive, or print one entry
//   - validate: Check the project file and archives against the HAR schema
//   - filter: Apply redaction filters to archives already on disk
//   - status: Show archives with their size, age and referencing tests
//   - clean: Remove archives no test references
//   - record: Re-run tests with a forced record mode
//   - config: Display effective configuration and where each value came from
//   - version: Show replay version
//
// Usage:
//
//	replay status
//	replay inspect users
//	replay inspect testdata/replay/users.har --entry 0
//	replay validate
//	replay filter --filter headers:Authorization --filter body:$.token users
//	replay clean --dry-run
//	replay record --mode rewrite --run 'TestUsers' ./client/...
package cli
