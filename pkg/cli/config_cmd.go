package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/getmockd/replay/pkg/config"
	"github.com/getmockd/replay/pkg/logging"
	"github.com/getmockd/replay/pkg/replay"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show effective configuration",
	Long: `Show the settings tests in this project run with and where each value
came from: the built-in default, the project file or the environment.`,
	Args: cobra.NoArgs,
	RunE: runConfig,
}

func init() {
	rootCmd.AddCommand(configCmd)
}

// setting is one effective configuration value.
type setting struct {
	Key    string `json:"key"`
	Value  string `json:"value"`
	Source string `json:"source"`
}

func effectiveSettings(p *config.Project) []setting {
	matchers := strings.Join(p.Matchers, ",")
	if p.Matchers == nil {
		names := make([]string, len(replay.DefaultMatchers))
		for i, m := range replay.DefaultMatchers {
			names[i] = string(m)
		}
		matchers = strings.Join(names, ",")
	}
	rows := []setting{
		{Key: "archiveDir", Value: p.ArchiveDir},
		{Key: "recordMode", Value: effective(p.RecordMode, string(replay.RecordOnce))},
		{Key: "playbackMode", Value: effective(p.PlaybackMode, string(replay.PlaybackStrict))},
		{Key: "matchers", Value: matchers},
		{Key: "filters", Value: strings.Join(p.Filters, " ")},
		{Key: "log.level", Value: p.LogLevel().String()},
		{Key: "log.format", Value: string(logging.ParseFormat(p.Log.Format))},
	}
	for i := range rows {
		rows[i].Source = p.Sources[rows[i].Key]
		if rows[i].Source == "" {
			rows[i].Source = config.SourceDefault
		}
	}
	return rows
}

func runConfig(cmd *cobra.Command, args []string) error {
	p, err := loadProject()
	if err != nil {
		return err
	}
	rows := effectiveSettings(p)

	return printResult(cmd, map[string]any{
		"path":     p.Path,
		"settings": rows,
	}, func() {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "# %s\n", effective(p.Path, "no project file, using defaults"))
		for _, r := range rows {
			fmt.Fprintf(out, "%-13s %-30s (%s)\n", r.Key+":", r.Value, r.Source)
		}
	})
}
