// Package scan holds the filesystem and process collaborators of the replay
// CLI: archive file info, archive tree walking, test reference scanning and
// the go test runner.
package scan

import (
	"errors"
	"io/fs"
	"os"
	"time"
)

// FileInfo describes one archive file.
type FileInfo struct {
	Path    string    `json:"path"`
	Exists  bool      `json:"exists"`
	Size    int64     `json:"size"`
	ModTime time.Time `json:"modTime,omitzero"`
}

// FileInfoProvider reports the existence, size and modification time of
// files.
type FileInfoProvider interface {
	Stat(path string) (FileInfo, error)
}

// OSFileInfo is the FileInfoProvider backed by the local filesystem.
type OSFileInfo struct{}

// Stat implements FileInfoProvider. A missing file is not an error.
func (OSFileInfo) Stat(path string) (FileInfo, error) {
	st, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return FileInfo{Path: path}, nil
	}
	if err != nil {
		return FileInfo{}, err
	}
	return FileInfo{Path: path, Exists: true, Size: st.Size(), ModTime: st.ModTime()}, nil
}
