// Package replay records HTTP exchanges once and replays them afterwards
// without touching the network.
//
// An Engine owns one archive: an ordered pool of recorded entries, the
// consumed flag of each entry and a buffer of newly recorded exchanges. Each
// live request is resolved against the first unconsumed entry that satisfies
// the configured matchers. Misses are recorded through the real transport or
// rejected with a *NoMatchingEntryError, depending on the record mode.
//
// Engines are reached through two adapters:
//
//   - Transport, an http.RoundTripper, which Global installs as
//     http.DefaultTransport so code under test needs no changes.
//   - Client, which wraps the engine behind a Do/Execute client for code
//     that takes an injected HTTP client.
//
// A Scope ties an engine and a global installation to one test:
//
//	scope, err := replay.DefaultManager.Enter(replay.Config{
//	    Source: replay.FromFile("testdata/users.har"),
//	}, replay.ScopeOptions{})
//	if err != nil {
//	    t.Fatal(err)
//	}
//	defer scope.Exit()
//
// Most tests use pkg/testing instead, which binds the scope to t.
package replay
