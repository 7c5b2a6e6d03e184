package replay

import (
	"errors"
	"path/filepath"

	"github.com/getmockd/replay/pkg/har"
)

// Source supplies the entries an engine replays and receives what it
// records. Use FromFile, FromEntries or FromStubs.
type Source interface {
	// Location names the source in logs and errors.
	Location() string

	load(mode RecordMode) (pool, error)
	persist(a *har.Archive) error
}

// pool is the loaded state of a source.
type pool struct {
	entries []har.Entry
	stubs   []*stubItem
	// existed is set when the source held at least one exchange at load.
	existed bool
}

// FileSource is an archive file on disk.
type FileSource struct {
	Path string
}

// FromFile returns a source backed by the archive at path. The file may be
// absent when recording is allowed.
func FromFile(path string) *FileSource {
	return &FileSource{Path: path}
}

func (s *FileSource) Location() string { return s.Path }

func (s *FileSource) load(mode RecordMode) (pool, error) {
	// rewrite replaces the archive, so a stale or damaged file is not read.
	if mode == RecordRewrite {
		return pool{}, nil
	}

	a, err := har.Load(s.Path)
	if err != nil {
		var missing *har.ArchiveMissingError
		if errors.As(err, &missing) && mode == RecordOnce {
			return pool{}, nil
		}
		return pool{}, err
	}
	return pool{entries: a.Log.Entries, existed: len(a.Log.Entries) > 0}, nil
}

func (s *FileSource) persist(a *har.Archive) error {
	return har.Save(s.Path, a)
}

func (s *FileSource) absPath() string {
	if abs, err := filepath.Abs(s.Path); err == nil {
		return abs
	}
	return filepath.Clean(s.Path)
}

// EntriesSource replays entries held in memory. Recorded entries are lost
// unless Capture is set.
type EntriesSource struct {
	Entries []har.Entry
	// Capture receives the merged archive at teardown when anything was
	// recorded.
	Capture func(*har.Archive) error
}

// FromEntries returns an in-memory source.
func FromEntries(entries ...har.Entry) *EntriesSource {
	return &EntriesSource{Entries: entries}
}

func (s *EntriesSource) Location() string { return "in-memory entries" }

func (s *EntriesSource) load(RecordMode) (pool, error) {
	entries := make([]har.Entry, len(s.Entries))
	for i, e := range s.Entries {
		entries[i] = e.Clone()
	}
	return pool{entries: entries, existed: len(entries) > 0}, nil
}

func (s *EntriesSource) persist(a *har.Archive) error {
	if s.Capture == nil {
		return nil
	}
	return s.Capture(a)
}

// StubSource serves hand-written stubs. It never touches the filesystem and
// discards anything recorded.
type StubSource struct {
	items []*stubItem
}

// FromStubs returns a source serving stubs in order. Body producers are
// shared by every engine built from the returned source.
func FromStubs(stubs ...Stub) *StubSource {
	items := make([]*stubItem, len(stubs))
	for i, st := range stubs {
		items[i] = &stubItem{stub: st}
	}
	return &StubSource{items: items}
}

func (s *StubSource) Location() string { return "in-memory stubs" }

func (s *StubSource) load(RecordMode) (pool, error) {
	return pool{stubs: s.items, existed: len(s.items) > 0}, nil
}

func (s *StubSource) persist(*har.Archive) error { return nil }
