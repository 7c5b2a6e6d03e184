// Package logging builds the structured loggers used across replay.
//
// It wraps log/slog so every component logs the same way. Components accept
// a *slog.Logger and fall back to Nop() when none is given.
//
//	logger := logging.New(logging.Config{
//	    Level:  logging.ParseLevel(os.Getenv("REPLAY_LOG_LEVEL")),
//	    Format: logging.ParseFormat(os.Getenv("REPLAY_LOG_FORMAT")),
//	})
//
// Inside tests, NewTestHandler routes records to t.Log so engine output is
// shown only for failing or verbose tests:
//
//	logger := slog.New(logging.NewTestHandler(t, logging.LevelDebug))
//
// # Levels
//
// The engine logs replayed exchanges at debug, recorded exchanges and
// archive writes at info, and lenient downgrades and misses at warn.
package logging
