package har

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"
)

// Decode parses and validates an archive. location is only used in errors.
func Decode(location string, data []byte) (*Archive, error) {
	var doc interface{}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&doc); err != nil {
		return nil, &ArchiveDecodeError{Location: location, Detail: "malformed JSON: " + err.Error(), Err: err}
	}
	if dec.More() {
		return nil, &ArchiveDecodeError{Location: location, Detail: "malformed JSON: trailing data after the log object"}
	}

	if err := validate(doc); err != nil {
		return nil, &ArchiveDecodeError{Location: location, Detail: schemaDetail(err), Err: err}
	}

	var a Archive
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, &ArchiveDecodeError{Location: location, Detail: err.Error(), Err: err}
	}
	if len(a.Log.Entries) == 0 {
		a.Log.Entries = nil
	}
	return &a, nil
}

// Encode serializes an archive deterministically with a trailing newline.
func Encode(a *Archive) ([]byte, error) {
	out := *a
	if out.Log.Entries == nil {
		out.Log.Entries = []Entry{}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(&out); err != nil {
		return nil, fmt.Errorf("failed to encode archive: %w", err)
	}
	return buf.Bytes(), nil
}

// Load reads and decodes the archive at path.
func Load(path string) (*Archive, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &ArchiveMissingError{Location: path, Hint: DefaultMissingHint}
		}
		return nil, fmt.Errorf("failed to read archive %s: %w", path, err)
	}
	return Decode(path, data)
}

// Exists reports whether an archive file is present at path.
func Exists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// Save writes the archive to path atomically, creating parent directories.
func Save(path string, a *Archive) error {
	data, err := Encode(a)
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create archive directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temporary archive: %w", err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write archive: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write archive: %w", err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return fmt.Errorf("failed to set archive permissions: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("failed to replace archive: %w", err)
	}
	return nil
}

// Info summarizes an archive file on disk.
type Info struct {
	Path    string
	Entries int
	Size    int64
	ModTime time.Time
}

// Stat loads the archive at path and reports its entry count, size and
// modification time.
func Stat(path string) (Info, error) {
	fi, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Info{}, &ArchiveMissingError{Location: path, Hint: DefaultMissingHint}
		}
		return Info{}, fmt.Errorf("failed to stat archive %s: %w", path, err)
	}
	a, err := Load(path)
	if err != nil {
		return Info{}, err
	}
	return Info{Path: path, Entries: len(a.Log.Entries), Size: fi.Size(), ModTime: fi.ModTime()}, nil
}
