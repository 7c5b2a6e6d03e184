// Package testing binds replay scopes to Go tests.
//
// Use enters a scope for the running test, installs it as the process-wide
// transport and exits it when the test finishes:
//
//	func TestFetchUser(t *testing.T) {
//	    rec := replaytesting.Use(t)
//
//	    user, err := client.FetchUser(ctx, 42) // uses http.DefaultClient
//	    if err != nil {
//	        t.Fatal(err)
//	    }
//	    ...
//	    rec.AssertAllConsumed()
//	}
//
// The archive defaults to <archiveDir>/<test name>.har, with archiveDir taken
// from .replay.yaml or REPLAY_ARCHIVE_DIR. Run the test once with
// REPLAY_RECORD_MODE=once to record it.
//
// # Stubs
//
// Stubs replace the archive with hand-written exchanges built fluently:
//
//	replaytesting.Use(t, replaytesting.WithStubs(
//	    replaytesting.Stub("GET", "https://api.example.com/users/42").
//	        WithJSON(map[string]any{"id": 42, "name": "Alice"}),
//	    replaytesting.Stub("DELETE", "https://api.example.com/users/42").
//	        RespondNoContent(),
//	))
//
// # Injected clients
//
// Code that takes an HTTP client can use Recorder.Client or
// Recorder.HTTPClient instead of relying on http.DefaultTransport. Combine
// that with Isolated to nest a scope inside another one.
package testing
