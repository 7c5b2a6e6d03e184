package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/getmockd/replay/pkg/filter"
	"github.com/getmockd/replay/pkg/har"
)

var (
	filterSpecs  []string
	filterOnly   bool
	filterOutput string
	filterDryRun bool
)

var filterCmd = &cobra.Command{
	Use:   "filter <archive...>",
	Short: "Redact archives already on disk",
	Long: `Apply redaction filters to recorded archives and write them back.

The project filters from .replay.yaml are applied together with any given
with --filter. Filters are idempotent, so running this twice changes nothing
the second time.

Filter syntax:
  headers:<name>[,<name>...]   remove request and response headers
  query:<param>[,<param>...]   remove query parameters from the URL
  body:<jsonpath>[,...]        replace JSON body fields with "[REDACTED]"`,
	Example: `  # Apply the project filters
  replay filter users

  # Add ad-hoc filters and write to a new file
  replay filter --filter headers:X-Session --filter 'body:$.user.email' users -o users.clean.har`,
	Args: cobra.MinimumNArgs(1),
	RunE: runFilter,
}

func init() {
	rootCmd.AddCommand(filterCmd)
	filterCmd.Flags().StringArrayVarP(&filterSpecs, "filter", "f", nil, "Filter to apply (repeatable)")
	filterCmd.Flags().BoolVar(&filterOnly, "only", false, "Apply only --filter filters, not the project ones")
	filterCmd.Flags().StringVarP(&filterOutput, "output", "o", "", "Write to this file instead of in place (single archive only)")
	filterCmd.Flags().BoolVar(&filterDryRun, "dry-run", false, "Report changes without writing")
}

// filterResult reports one filtered archive.
type filterResult struct {
	Path    string `json:"path"`
	Output  string `json:"output,omitempty"`
	Entries int    `json:"entries"`
	Changed int    `json:"changed"`
}

func runFilter(cmd *cobra.Command, args []string) error {
	if filterOutput != "" && len(args) > 1 {
		return errors.New("--output needs exactly one archive")
	}
	p, err := loadProject()
	if err != nil {
		return err
	}

	var specs []string
	if !filterOnly {
		specs = append(specs, p.Filters...)
	}
	specs = append(specs, filterSpecs...)
	if len(specs) == 0 {
		return errors.New("no filters configured - add filters to .replay.yaml or pass --filter")
	}
	filters, err := filter.ParseAll(specs)
	if err != nil {
		return err
	}

	var results []filterResult
	for _, arg := range args {
		path := resolveArchive(p, arg)
		res, err := filterArchive(path, filters)
		if err != nil {
			return err
		}
		results = append(results, res)
	}

	return printResult(cmd, map[string]any{
		"filters":  filter.Strings(filters),
		"dryRun":   filterDryRun,
		"archives": results,
	}, func() {
		out := cmd.OutOrStdout()
		verb := "redacted"
		if filterDryRun {
			verb = "would be redacted"
		}
		for _, r := range results {
			target := r.Path
			if r.Output != "" && r.Output != r.Path {
				target = r.Path + " -> " + r.Output
			}
			fmt.Fprintf(out, "%s: %d of %d entries %s\n", target, r.Changed, r.Entries, verb)
		}
	})
}

func filterArchive(path string, filters []filter.Filter) (filterResult, error) {
	a, err := har.Load(path)
	if err != nil {
		return filterResult{}, err
	}
	res := filterResult{Path: path, Entries: len(a.Log.Entries)}

	for i, e := range a.Log.Entries {
		before, err := json.Marshal(e)
		if err != nil {
			return res, err
		}
		redacted := filter.Apply(filters, e)
		after, err := json.Marshal(redacted)
		if err != nil {
			return res, err
		}
		if !bytes.Equal(before, after) {
			res.Changed++
		}
		a.Log.Entries[i] = redacted
	}

	if filterDryRun {
		return res, nil
	}
	res.Output = path
	if filterOutput != "" {
		res.Output = filterOutput
	}
	if res.Changed == 0 && res.Output == path {
		return res, nil
	}
	if err := har.Save(res.Output, a); err != nil {
		return res, fmt.Errorf("failed to write %s: %w", res.Output, err)
	}
	return res, nil
}
