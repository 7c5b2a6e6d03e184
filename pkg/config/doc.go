// Package config loads replay project settings.
//
// Settings come from three layers, later ones winning:
//
//  1. Defaults (Default).
//  2. The project file, $REPLAY_CONFIG or .replay.yaml in the working
//     directory.
//  3. REPLAY_* environment variables.
//
// Options passed in code override all three. A project file looks like:
//
//	archiveDir: testdata/replay
//	recordMode: none
//	playbackMode: strict
//	matchers: [method, path, query]
//	filters:
//	  - headers:Authorization,Cookie
//	  - query:api_key
//	  - body:$.password
//	log:
//	  level: debug
//	  format: text
package config
