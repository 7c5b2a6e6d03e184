package cli

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/getmockd/replay/pkg/har"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		info := map[string]string{
			"version":   Version,
			"commit":    Commit,
			"buildDate": BuildDate,
			"go":        runtime.Version(),
			"har":       har.Version,
		}
		return printResult(cmd, info, func() {
			fmt.Fprintf(cmd.OutOrStdout(), "replay %s (commit %s, built %s, %s)\n", Version, Commit, BuildDate, runtime.Version())
		})
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
