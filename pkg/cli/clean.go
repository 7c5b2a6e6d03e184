package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/getmockd/replay/pkg/cli/internal/output"
)

var (
	cleanDryRun bool
	cleanEmpty  bool
)

var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Remove archives no test references",
	Long: `Remove archives under the project archive directory that no *_test.go
file appears to reference. With --empty, archives without entries are removed
as well.

The reference scan is textual. Run with --dry-run first.`,
	Example: `  # See what would be removed
  replay clean --dry-run

  # Remove unreferenced and empty archives
  replay clean --empty`,
	Args: cobra.NoArgs,
	RunE: runClean,
}

func init() {
	rootCmd.AddCommand(cleanCmd)
	cleanCmd.Flags().BoolVarP(&cleanDryRun, "dry-run", "n", false, "List archives without removing them")
	cleanCmd.Flags().BoolVar(&cleanEmpty, "empty", false, "Also remove archives with no entries")
}

// cleaned is one archive selected for removal.
type cleaned struct {
	Path   string `json:"path"`
	Reason string `json:"reason"`
}

func runClean(cmd *cobra.Command, args []string) error {
	p, err := loadProject()
	if err != nil {
		return err
	}
	archives, err := survey(p)
	if err != nil {
		return err
	}

	var removed []cleaned
	for _, a := range archives {
		var reason string
		switch {
		case !a.referenced():
			reason = "unreferenced"
		case cleanEmpty && a.Error == "" && a.Entries == 0:
			reason = "empty"
		default:
			continue
		}
		if !cleanDryRun {
			if err := os.Remove(a.Path); err != nil {
				output.Warn(cmd.ErrOrStderr(), "could not remove %s: %v", a.Path, err)
				continue
			}
		}
		removed = append(removed, cleaned{Path: a.Path, Reason: reason})
	}
	if removed == nil {
		removed = []cleaned{}
	}

	return printResult(cmd, map[string]any{
		"dryRun":  cleanDryRun,
		"removed": removed,
	}, func() {
		out := cmd.OutOrStdout()
		verb := "removed"
		if cleanDryRun {
			verb = "would remove"
		}
		for _, c := range removed {
			fmt.Fprintf(out, "%s %s (%s)\n", verb, c.Path, c.Reason)
		}
		if len(removed) == 0 {
			fmt.Fprintln(out, "nothing to clean")
		}
	})
}
