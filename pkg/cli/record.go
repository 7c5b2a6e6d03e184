package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/getmockd/replay/pkg/cli/internal/scan"
	"github.com/getmockd/replay/pkg/replay"
)

var (
	recordMode    string
	recordRun     string
	recordVerbose bool
	recordGo      string
)

var recordCmd = &cobra.Command{
	Use:   "record [packages...]",
	Short: "Re-run tests with a forced record mode",
	Long: `Run go test with REPLAY_RECORD_MODE forced, so the selected tests record
their archives again.

  rewrite  forward every request and replace the archives (default)
  once     record only archives that are missing or empty

Packages default to ./... in the project directory.`,
	Example: `  # Re-record everything
  replay record

  # Re-record the user tests of one package
  replay record --run 'TestUsers' ./client

  # Record only missing archives
  replay record --mode once`,
	RunE: runRecord,
}

func init() {
	rootCmd.AddCommand(recordCmd)
	recordCmd.Flags().StringVarP(&recordMode, "mode", "m", string(replay.RecordRewrite), "Record mode: rewrite or once")
	recordCmd.Flags().StringVar(&recordRun, "run", "", "Only run tests matching this regular expression")
	recordCmd.Flags().BoolVarP(&recordVerbose, "verbose", "v", false, "Pass -v to go test")
	recordCmd.Flags().StringVar(&recordGo, "go", "go", "Go command to run")
	_ = recordCmd.Flags().MarkHidden("go")
}

func runRecord(cmd *cobra.Command, args []string) error {
	mode, err := replay.ParseRecordMode(recordMode)
	if err != nil {
		return err
	}
	if mode == replay.RecordNone {
		return fmt.Errorf("record mode %q never records; use rewrite or once", mode)
	}

	runner := scan.Runner{
		Go:     recordGo,
		Dir:    projectDir,
		Stdout: cmd.OutOrStdout(),
		Stderr: cmd.ErrOrStderr(),
	}
	if jsonOutput {
		runner.Stdout = cmd.ErrOrStderr()
	}
	req := scan.RunRequest{
		Packages: args,
		Filter:   recordRun,
		Mode:     mode,
		Verbose:  recordVerbose,
		// Cached test results would skip the recording.
		Count: 1,
	}
	if !jsonOutput {
		fmt.Fprintf(cmd.ErrOrStderr(), "%s=%s %s %s\n", replay.EnvRecordMode, mode, recordGo, strings.Join(runner.Args(req), " "))
	}

	res, err := runner.Run(cmd.Context(), req)
	if err != nil {
		return err
	}
	if jsonOutput {
		if err := printResult(cmd, map[string]any{
			"mode":     mode,
			"args":     res.Args,
			"exitCode": res.ExitCode,
		}, func() {}); err != nil {
			return err
		}
	}
	if res.ExitCode != 0 {
		return &ExitError{Code: res.ExitCode, Err: fmt.Errorf("go test exited with status %d", res.ExitCode)}
	}
	return nil
}
