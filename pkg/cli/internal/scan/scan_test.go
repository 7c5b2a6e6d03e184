package scan

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/getmockd/replay/pkg/replay"
)

const helperEnv = "SCAN_HELPER_PROCESS"

// TestMain doubles as a fake go command for the runner tests.
func TestMain(m *testing.M) {
	if os.Getenv(helperEnv) == "1" {
		fmt.Printf("%s %s\n", os.Getenv(replay.EnvRecordMode), strings.Join(os.Args[1:], " "))
		if strings.Contains(strings.Join(os.Args, " "), "TestFails") {
			os.Exit(3)
		}
		os.Exit(0)
	}
	os.Exit(m.Run())
}

func TestOSFileInfo(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.har")
	require.NoError(t, os.WriteFile(path, []byte("{}"), 0o644))

	info, err := OSFileInfo{}.Stat(path)
	require.NoError(t, err)
	assert.True(t, info.Exists)
	assert.Equal(t, int64(2), info.Size)
	assert.False(t, info.ModTime.IsZero())

	info, err = OSFileInfo{}.Stat(filepath.Join(dir, "missing.har"))
	require.NoError(t, err)
	assert.False(t, info.Exists)
}

func TestWalkerArchives(t *testing.T) {
	w := Walker{FS: fstest.MapFS{
		"users.har":              {Data: []byte("{}")},
		"TestOrders/create.har":  {Data: []byte("{}")},
		"TestOrders/notes.txt":   {Data: []byte("x")},
		"deep/nested/legacy.har": {Data: []byte("{}")},
	}}
	got, err := w.Archives()
	require.NoError(t, err)
	assert.Equal(t, []string{"TestOrders/create.har", "deep/nested/legacy.har", "users.har"}, got)
}

func TestWalkerMissingRoot(t *testing.T) {
	got, err := Walker{Root: filepath.Join(t.TempDir(), "absent")}.Archives()
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestScanReferences(t *testing.T) {
	w := Walker{FS: fstest.MapFS{
		"client/users_test.go": {Data: []byte(`package client

func TestListUsers(t *testing.T) {
	rec := replaytesting.Use(t, replaytesting.WithArchive("users"))
	_ = rec
}
`)},
		"client/orders_test.go": {Data: []byte(`package client

func TestOrders(t *testing.T) {
	replaytesting.Use(t)
}

func TestOrderHelpers(t *testing.T) {}
`)},
		"client/raw_test.go": {Data: []byte(`package client

var src = replay.FromFile("testdata/replay/legacy.har")
`)},
		"client/plain_test.go": {Data: []byte(`package client

func TestNothing(t *testing.T) {}
`)},
	}}
	refs, err := w.ScanReferences()
	require.NoError(t, err)

	assert.Equal(t, []string{"client/users_test.go"}, refs.Mentions("users.har"))
	assert.Equal(t, []string{"client/orders_test.go"}, refs.Mentions("TestOrders/create.har"))
	assert.Equal(t, []string{"client/orders_test.go"}, refs.Mentions("TestOrders.har"))
	assert.Equal(t, []string{"client/raw_test.go"}, refs.Mentions("legacy.har"))
	assert.Empty(t, refs.Mentions("TestNothing.har"), "tests that never call Use record nothing")
	assert.Empty(t, refs.Mentions("orphan.har"))
}

func TestRunnerArgs(t *testing.T) {
	r := Runner{}
	assert.Equal(t, []string{"test", "./..."}, r.Args(RunRequest{}))
	assert.Equal(t, []string{"test", "-v", "-count=1", "-run", "TestUsers", "./client"},
		r.Args(RunRequest{Packages: []string{"./client"}, Filter: "TestUsers", Verbose: true, Count: 1}))
}

func TestRunnerForcesRecordMode(t *testing.T) {
	var out bytes.Buffer
	r := Runner{
		Go:     os.Args[0],
		Env:    append(os.Environ(), helperEnv+"=1", replay.EnvRecordMode+"=none"),
		Stdout: &out,
	}

	res, err := r.Run(context.Background(), RunRequest{Filter: "TestUsers", Mode: replay.RecordRewrite})
	require.NoError(t, err)
	assert.Zero(t, res.ExitCode)
	assert.Equal(t, "rewrite test -run TestUsers ./...\n", out.String())

	out.Reset()
	res, err = r.Run(context.Background(), RunRequest{Filter: "TestFails", Mode: replay.RecordOnce})
	require.NoError(t, err)
	assert.Equal(t, 3, res.ExitCode)
	assert.Equal(t, os.Args[0], res.Args[0])
}

func TestRunnerErrors(t *testing.T) {
	_, err := Runner{}.Run(context.Background(), RunRequest{Mode: "sometimes"})
	assert.ErrorIs(t, err, replay.ErrInvalidRecordMode)

	_, err = Runner{Go: filepath.Join(t.TempDir(), "no-such-go")}.Run(context.Background(), RunRequest{Mode: replay.RecordOnce})
	assert.ErrorContains(t, err, "failed to run")
}
