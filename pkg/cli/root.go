package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/getmockd/replay/pkg/config"
)

var (
	// Persistent flags available to all subcommands
	jsonOutput bool
	projectDir string
	configFile string

	// Version is injected during build
	Version = "dev"
	// Commit is injected during build
	Commit = "none"
	// BuildDate is injected during build
	BuildDate = "unknown"

	// getenv is replaced in tests.
	getenv = os.Getenv
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "replay",
	Short: "replay manages HTTP record/replay archives",
	Long: `replay inspects, validates, redacts and re-records the HTTP archives used by
record/replay tests.

Settings come from .replay.yaml in the project directory (or $REPLAY_CONFIG),
overridden by REPLAY_* environment variables.`,
	SilenceUsage:  true,
	SilenceErrors: true, // We handle errors in Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output command results in JSON format")
	rootCmd.PersistentFlags().StringVarP(&projectDir, "dir", "C", ".", "Project directory")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Project file (default: .replay.yaml in --dir, or $REPLAY_CONFIG)")
}

// Execute runs the command line and returns the process exit code.
func Execute() int {
	return execute(os.Args[1:], os.Stdout, os.Stderr)
}

func execute(args []string, stdout, stderr io.Writer) int {
	rootCmd.SetArgs(args)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	err := rootCmd.Execute()
	if err == nil {
		return 0
	}
	var exit *ExitError
	if errors.As(err, &exit) {
		if exit.Err != nil {
			fmt.Fprintln(stderr, "Error:", exit.Err)
		}
		return exit.Code
	}
	fmt.Fprintln(stderr, "Error:", err)
	return 1
}

// loadProject resolves the project settings for --dir and --config.
func loadProject() (*config.Project, error) {
	env := getenv
	if configFile != "" {
		path := configFile
		env = func(key string) string {
			if key == config.EnvConfig {
				return path
			}
			return getenv(key)
		}
	}
	return config.LoadDir(projectDir, env)
}

// archiveRoot is the archive directory of p, resolved against --dir.
func archiveRoot(p *config.Project) string {
	if filepath.IsAbs(p.ArchiveDir) {
		return p.ArchiveDir
	}
	return filepath.Join(projectDir, p.ArchiveDir)
}

// resolveArchive maps a command line argument to an archive file. Existing
// paths are used as given; anything else is an archive name under the
// project archive directory.
func resolveArchive(p *config.Project, arg string) string {
	if _, err := os.Stat(arg); err == nil {
		return arg
	}
	if filepath.IsAbs(arg) {
		return arg
	}
	return (&config.Project{ArchiveDir: archiveRoot(p)}).ArchivePath(arg)
}
