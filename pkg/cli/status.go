package cli

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/getmockd/replay/pkg/cli/internal/output"
	"github.com/getmockd/replay/pkg/cli/internal/scan"
	"github.com/getmockd/replay/pkg/config"
	"github.com/getmockd/replay/pkg/har"
)

var (
	// fileInfo and now are replaced in tests.
	fileInfo scan.FileInfoProvider = scan.OSFileInfo{}
	now                            = time.Now
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show archives and the tests that use them",
	Long: `Show every archive under the project archive directory with its entry
count, size, age and the test files that appear to reference it.

References are found by scanning *_test.go files for archive names and for
tests calling Use(t, ...). The scan is textual, so treat "unreferenced" as a
hint rather than proof.`,
	Example: `  replay status
  replay status --json`,
	Args: cobra.NoArgs,
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

// archiveStatus describes one archive found under the archive directory.
type archiveStatus struct {
	Name         string    `json:"name"`
	Path         string    `json:"path"`
	Entries      int       `json:"entries"`
	Size         int64     `json:"size"`
	ModTime      time.Time `json:"modTime"`
	Error        string    `json:"error,omitempty"`
	ReferencedBy []string  `json:"referencedBy"`
}

func (a archiveStatus) referenced() bool { return len(a.ReferencedBy) > 0 }

// survey lists the project archives with their references.
func survey(p *config.Project) ([]archiveStatus, error) {
	root := archiveRoot(p)
	names, err := scan.Walker{Root: root}.Archives()
	if err != nil {
		return nil, err
	}
	refs, err := scan.Walker{Root: projectDir}.ScanReferences()
	if err != nil {
		return nil, err
	}

	out := make([]archiveStatus, 0, len(names))
	for _, name := range names {
		path := filepath.Join(root, filepath.FromSlash(name))
		info, err := fileInfo.Stat(path)
		if err != nil {
			return nil, err
		}
		st := archiveStatus{
			Name:         name,
			Path:         path,
			Size:         info.Size,
			ModTime:      info.ModTime,
			ReferencedBy: refs.Mentions(name),
		}
		if st.ReferencedBy == nil {
			st.ReferencedBy = []string{}
		}
		if a, err := har.Load(path); err != nil {
			st.Error = err.Error()
		} else {
			st.Entries = len(a.Log.Entries)
		}
		out = append(out, st)
	}
	return out, nil
}

func runStatus(cmd *cobra.Command, args []string) error {
	p, err := loadProject()
	if err != nil {
		return err
	}
	archives, err := survey(p)
	if err != nil {
		return err
	}

	return printResult(cmd, map[string]any{
		"config":       p.Path,
		"archiveDir":   archiveRoot(p),
		"recordMode":   effective(p.RecordMode, "once"),
		"playbackMode": effective(p.PlaybackMode, "strict"),
		"archives":     archives,
	}, func() {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Config:        %s\n", effective(p.Path, "(defaults)"))
		fmt.Fprintf(out, "Archive dir:   %s\n", archiveRoot(p))
		fmt.Fprintf(out, "Record mode:   %s\n", effective(p.RecordMode, "once"))
		fmt.Fprintf(out, "Playback mode: %s\n\n", effective(p.PlaybackMode, "strict"))

		if len(archives) == 0 {
			fmt.Fprintln(out, "No archives yet.")
			return
		}
		w := output.Table(out)
		fmt.Fprintln(w, "ARCHIVE\tENTRIES\tSIZE\tMODIFIED\tREFERENCED BY")
		t := now()
		unreferenced := 0
		for _, a := range archives {
			entries := fmt.Sprint(a.Entries)
			if a.Error != "" {
				entries = "invalid"
			}
			by := strings.Join(a.ReferencedBy, ", ")
			if !a.referenced() {
				by = "-"
				unreferenced++
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", a.Name, entries, output.Size(a.Size), output.Age(a.ModTime, t), by)
		}
		_ = w.Flush()
		if unreferenced > 0 {
			fmt.Fprintf(out, "\n%d archive(s) look unreferenced; see replay clean --dry-run\n", unreferenced)
		}
	})
}

func effective(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
