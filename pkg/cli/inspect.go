package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/getmockd/replay/pkg/cli/internal/output"
	"github.com/getmockd/replay/pkg/har"
)

var inspectEntry int

var inspectCmd = &cobra.Command{
	Use:   "inspect <archive>",
	Short: "List the entries of an archive",
	Long: `List the entries of an archive in replay order.

The archive is a file path or a name under the project archive directory.`,
	Example: `  # List entries by archive name
  replay inspect users

  # Print one entry in full
  replay inspect testdata/replay/users.har --entry 2`,
	Args: cobra.ExactArgs(1),
	RunE: runInspect,
}

func init() {
	rootCmd.AddCommand(inspectCmd)
	inspectCmd.Flags().IntVarP(&inspectEntry, "entry", "e", -1, "Print the entry at this index as JSON")
}

// entrySummary is one row of the inspect listing.
type entrySummary struct {
	Index    int    `json:"index"`
	Method   string `json:"method"`
	URL      string `json:"url"`
	Status   int    `json:"status"`
	MimeType string `json:"mimeType,omitempty"`
	Size     int64  `json:"size"`
	Started  string `json:"startedDateTime,omitempty"`
}

func summarize(i int, e har.Entry) entrySummary {
	s := entrySummary{
		Index:    i,
		Method:   e.Request.Method,
		URL:      e.Request.URL,
		Status:   e.Response.Status,
		MimeType: e.Response.Content.MimeType,
		Size:     e.Response.Content.Size,
	}
	if !e.StartedAt.IsZero() {
		s.Started = e.StartedAt.UTC().Format(time.RFC3339)
	}
	return s
}

func runInspect(cmd *cobra.Command, args []string) error {
	p, err := loadProject()
	if err != nil {
		return err
	}
	path := resolveArchive(p, args[0])

	info, err := har.Stat(path)
	if err != nil {
		return err
	}
	a, err := har.Load(path)
	if err != nil {
		return err
	}

	if inspectEntry >= 0 {
		if inspectEntry >= len(a.Log.Entries) {
			return fmt.Errorf("%s has %d entries, no entry %d", path, len(a.Log.Entries), inspectEntry)
		}
		return output.JSON(cmd.OutOrStdout(), a.Log.Entries[inspectEntry])
	}

	rows := make([]entrySummary, len(a.Log.Entries))
	for i, e := range a.Log.Entries {
		rows[i] = summarize(i, e)
	}

	return printResult(cmd, map[string]any{
		"path":    info.Path,
		"creator": a.Log.Creator,
		"size":    info.Size,
		"entries": rows,
	}, func() {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%s: %d entries, %s, written by %s %s\n\n",
			info.Path, info.Entries, output.Size(info.Size), a.Log.Creator.Name, a.Log.Creator.Version)
		if len(rows) == 0 {
			return
		}
		w := output.Table(out)
		fmt.Fprintln(w, "#\tMETHOD\tURL\tSTATUS\tTYPE\tSIZE")
		for _, r := range rows {
			fmt.Fprintf(w, "%d\t%s\t%s\t%d\t%s\t%s\n", r.Index, r.Method, r.URL, r.Status, r.MimeType, output.Size(r.Size))
		}
		_ = w.Flush()
	})
}
