package scan

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"regexp"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// ArchivePattern matches archive files below a root.
const ArchivePattern = "**/*.har"

// TestPattern matches Go test sources below a root.
const TestPattern = "**/*_test.go"

// Walker finds archives and test files below Root.
type Walker struct {
	Root string
	// FS overrides os.DirFS(Root), mostly for tests.
	FS fs.FS
}

func (w Walker) fsys() (fs.FS, error) {
	if w.FS != nil {
		return w.FS, nil
	}
	if _, err := os.Stat(w.Root); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	return os.DirFS(w.Root), nil
}

// Glob returns the slash-separated paths below Root matching pattern, sorted.
// A missing root yields no matches.
func (w Walker) Glob(pattern string) ([]string, error) {
	fsys, err := w.fsys()
	if err != nil || fsys == nil {
		return nil, err
	}
	matches, err := doublestar.Glob(fsys, pattern, doublestar.WithFilesOnly())
	if err != nil {
		return nil, fmt.Errorf("failed to glob %s in %s: %w", pattern, w.Root, err)
	}
	sort.Strings(matches)
	return matches, nil
}

// Archives returns the archive files below Root.
func (w Walker) Archives() ([]string, error) {
	return w.Glob(ArchivePattern)
}

// The reference scan is a heuristic over test sources. It never parses Go:
// it looks for quoted strings ending in ".har", string arguments to
// WithArchive and FromFile, and the names of test functions in files that
// call Use(t, ...), whose default archive is named after the test.
var (
	harLiteral  = regexp.MustCompile(`"([^"\n]*\.har)"`)
	archiveCall = regexp.MustCompile(`(?:WithArchive|FromFile)\(\s*"([^"\n]+)"`)
	testFunc    = regexp.MustCompile(`(?m)^func\s+(Test\w*)\s*\(`)
	useCall     = regexp.MustCompile(`\bUse\(\s*t\b`)
)

// References is what the heuristic scan found in test sources.
type References struct {
	// Names are archive names mentioned literally.
	Names map[string][]string
	// Tests are test functions that record under their own name.
	Tests map[string][]string
}

// Mentions reports whether the archive at rel, a slash path relative to
// the archive directory, appears referenced, and by which test files.
func (r References) Mentions(rel string) []string {
	rel = path.Clean(rel)
	noExt := strings.TrimSuffix(rel, path.Ext(rel))
	base := path.Base(rel)
	top, _, _ := strings.Cut(noExt, "/")

	seen := make(map[string]bool)
	var files []string
	add := func(list []string) {
		for _, f := range list {
			if !seen[f] {
				seen[f] = true
				files = append(files, f)
			}
		}
	}
	for _, name := range []string{rel, noExt, base, strings.TrimSuffix(base, path.Ext(base))} {
		add(r.Names[name])
	}
	add(r.Tests[top])
	sort.Strings(files)
	return files
}

// ScanReferences reads every test file below Root.
func (w Walker) ScanReferences() (References, error) {
	refs := References{Names: map[string][]string{}, Tests: map[string][]string{}}

	files, err := w.Glob(TestPattern)
	if err != nil {
		return refs, err
	}
	fsys, err := w.fsys()
	if err != nil || fsys == nil {
		return refs, err
	}
	for _, file := range files {
		data, err := fs.ReadFile(fsys, file)
		if err != nil {
			return refs, fmt.Errorf("failed to read %s: %w", file, err)
		}
		src := string(data)
		var names []string
		for _, m := range harLiteral.FindAllStringSubmatch(src, -1) {
			names = append(names, m[1])
		}
		for _, m := range archiveCall.FindAllStringSubmatch(src, -1) {
			names = append(names, m[1])
		}
		for _, n := range names {
			name := path.Clean(filepathToSlash(n))
			addRef(refs.Names, name, file)
			addRef(refs.Names, path.Base(name), file)
		}
		if useCall.MatchString(src) {
			for _, m := range testFunc.FindAllStringSubmatch(src, -1) {
				addRef(refs.Tests, m[1], file)
			}
		}
	}
	return refs, nil
}

func addRef(m map[string][]string, key, file string) {
	for _, f := range m[key] {
		if f == file {
			return
		}
	}
	m[key] = append(m[key], file)
}

func filepathToSlash(s string) string {
	return strings.ReplaceAll(s, `\`, "/")
}
