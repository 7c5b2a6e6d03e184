package cli

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/getmockd/replay/pkg/cli/internal/scan"
	"github.com/getmockd/replay/pkg/har"
)

var validateCmd = &cobra.Command{
	Use:   "validate [archive...]",
	Short: "Validate the project file and archives",
	Long: `Validate the project file and archives without running any tests.

This command checks:
  - .replay.yaml syntax, modes, matchers and filters
  - every archive parses as JSON and follows the HAR 1.2 structure

Without arguments every *.har file under the archive directory is checked.`,
	Example: `  # Validate everything in the project
  replay validate

  # Validate specific archives
  replay validate users orders.har`,
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

// validation is the result for one archive.
type validation struct {
	Path    string `json:"path"`
	Valid   bool   `json:"valid"`
	Entries int    `json:"entries"`
	Error   string `json:"error,omitempty"`
}

func runValidate(cmd *cobra.Command, args []string) error {
	// A broken project file is reported like a broken archive.
	p, err := loadProject()
	if err != nil {
		return &ExitError{Code: 1, Err: fmt.Errorf("%w: %v", ErrValidationFailed, err)}
	}

	paths := make([]string, 0, len(args))
	for _, arg := range args {
		paths = append(paths, resolveArchive(p, arg))
	}
	if len(args) == 0 {
		root := archiveRoot(p)
		found, err := scan.Walker{Root: root}.Archives()
		if err != nil {
			return err
		}
		for _, rel := range found {
			paths = append(paths, filepath.Join(root, filepath.FromSlash(rel)))
		}
	}

	results := make([]validation, 0, len(paths))
	failed := 0
	for _, path := range paths {
		v := validation{Path: path}
		if a, err := har.Load(path); err != nil {
			v.Error = err.Error()
			failed++
		} else {
			v.Valid = true
			v.Entries = len(a.Log.Entries)
		}
		results = append(results, v)
	}

	project := p.Path
	if project == "" {
		project = "(defaults)"
	}
	err = printResult(cmd, map[string]any{
		"config":   project,
		"archives": results,
		"valid":    failed == 0,
	}, func() {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "config  %s\n", project)
		for _, v := range results {
			if v.Valid {
				fmt.Fprintf(out, "ok      %s (%d entries)\n", v.Path, v.Entries)
			} else {
				fmt.Fprintf(out, "FAIL    %s\n        %s\n", v.Path, v.Error)
			}
		}
		if len(results) == 0 {
			fmt.Fprintln(out, "no archives found")
		}
	})
	if err != nil {
		return err
	}
	if failed > 0 {
		return &ExitError{Code: 1, Err: fmt.Errorf("%w: %d of %d archives invalid", ErrValidationFailed, failed, len(results))}
	}
	return nil
}
