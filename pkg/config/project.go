package config

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/getmockd/replay/pkg/filter"
	"github.com/getmockd/replay/pkg/logging"
	"github.com/getmockd/replay/pkg/replay"
)

// Environment variables.
const (
	EnvConfig     = "REPLAY_CONFIG"
	EnvArchiveDir = "REPLAY_ARCHIVE_DIR"
	EnvLogLevel   = "REPLAY_LOG_LEVEL"
	EnvLogFormat  = "REPLAY_LOG_FORMAT"
)

// DefaultArchiveDir holds archives when nothing else is configured.
const DefaultArchiveDir = "testdata/replay"

// FileNames are the project file names searched, in order.
var FileNames = []string{".replay.yaml", ".replay.yml"}

// Value sources, as recorded in Project.Sources.
const (
	SourceDefault = "default"
	SourceFile    = "file"
	SourceEnv     = "env"
)

// Project holds resolved project settings.
type Project struct {
	ArchiveDir   string    `yaml:"archiveDir"`
	RecordMode   string    `yaml:"recordMode"`
	PlaybackMode string    `yaml:"playbackMode"`
	Matchers     []string  `yaml:"matchers"`
	Filters      []string  `yaml:"filters"`
	Log          LogConfig `yaml:"log"`

	// Path is the project file that was loaded, if any.
	Path string `yaml:"-"`
	// Sources maps each set key to where its value came from.
	Sources map[string]string `yaml:"-"`

	lines map[string]int
}

// LogConfig configures the logger built by Project.Logger.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the built-in settings.
func Default() *Project {
	return &Project{
		ArchiveDir: DefaultArchiveDir,
		Sources:    map[string]string{"archiveDir": SourceDefault},
	}
}

// Error is a project file or environment error with its location.
type Error struct {
	Path    string
	Line    int
	Field   string
	Message string
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Path)
	if e.Line > 0 {
		b.WriteString(" (line " + strconv.Itoa(e.Line) + ")")
	}
	b.WriteString(": ")
	if e.Field != "" {
		b.WriteString(e.Field + ": ")
	}
	b.WriteString(e.Message)
	return b.String()
}

// Find returns the project file to load: $REPLAY_CONFIG when set, otherwise
// the first of FileNames in dir. It returns "" when there is none.
func Find(dir string, getenv func(string) string) (string, error) {
	if p := getenv(EnvConfig); p != "" {
		if _, err := os.Stat(p); err != nil {
			return "", &Error{Path: p, Field: EnvConfig, Message: "config file not found"}
		}
		return p, nil
	}
	for _, name := range FileNames {
		p := filepath.Join(dir, name)
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}
	return "", nil
}

var yamlLine = regexp.MustCompile(`line (\d+)`)

// LoadFile decodes and validates a project file.
func LoadFile(path string) (*Project, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, yamlError(path, err)
	}

	p := &Project{Path: path, Sources: map[string]string{}, lines: map[string]int{}}
	if len(root.Content) == 0 {
		return p, nil
	}
	if err := root.Decode(p); err != nil {
		return nil, yamlError(path, err)
	}
	indexKeys(root.Content[0], "", p.lines)
	for key := range p.lines {
		p.Sources[key] = SourceFile
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

func yamlError(path string, err error) *Error {
	e := &Error{Path: path, Message: strings.TrimPrefix(err.Error(), "yaml: ")}
	if m := yamlLine.FindStringSubmatch(err.Error()); m != nil {
		e.Line, _ = strconv.Atoi(m[1])
	}
	return e
}

// indexKeys records the line of every mapping key, nested keys joined by ".".
func indexKeys(n *yaml.Node, prefix string, out map[string]int) {
	if n.Kind != yaml.MappingNode {
		return
	}
	for i := 0; i+1 < len(n.Content); i += 2 {
		key := prefix + n.Content[i].Value
		out[key] = n.Content[i].Line
		indexKeys(n.Content[i+1], key+".", out)
	}
}

// Load resolves settings for the working directory: defaults, then the
// project file, then the environment.
func Load() (*Project, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	return LoadDir(wd, os.Getenv)
}

// LoadDir is Load for an explicit directory and environment.
func LoadDir(dir string, getenv func(string) string) (*Project, error) {
	p := Default()

	path, err := Find(dir, getenv)
	if err != nil {
		return nil, err
	}
	if path != "" {
		file, err := LoadFile(path)
		if err != nil {
			return nil, err
		}
		p.Merge(file, SourceFile)
		p.Path = path
		p.lines = file.lines
	}

	p.ApplyEnv(getenv)
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// Merge copies the non-zero settings of src into p.
func (p *Project) Merge(src *Project, source string) {
	if src == nil {
		return
	}
	if p.Sources == nil {
		p.Sources = map[string]string{}
	}
	set := func(key string) { p.Sources[key] = source }

	if src.ArchiveDir != "" {
		p.ArchiveDir = src.ArchiveDir
		set("archiveDir")
	}
	if src.RecordMode != "" {
		p.RecordMode = src.RecordMode
		set("recordMode")
	}
	if src.PlaybackMode != "" {
		p.PlaybackMode = src.PlaybackMode
		set("playbackMode")
	}
	if src.Matchers != nil {
		p.Matchers = append([]string(nil), src.Matchers...)
		set("matchers")
	}
	if src.Filters != nil {
		p.Filters = append([]string(nil), src.Filters...)
		set("filters")
	}
	if src.Log.Level != "" {
		p.Log.Level = src.Log.Level
		set("log.level")
	}
	if src.Log.Format != "" {
		p.Log.Format = src.Log.Format
		set("log.format")
	}
}

// ApplyEnv overlays REPLAY_* environment variables.
func (p *Project) ApplyEnv(getenv func(string) string) {
	p.Merge(&Project{
		ArchiveDir:   getenv(EnvArchiveDir),
		RecordMode:   getenv(replay.EnvRecordMode),
		PlaybackMode: getenv(replay.EnvPlaybackMode),
		Log: LogConfig{
			Level:  getenv(EnvLogLevel),
			Format: getenv(EnvLogFormat),
		},
	}, SourceEnv)
}

// Validate checks modes, matchers and filters.
func (p *Project) Validate() error {
	if p.RecordMode != "" {
		if _, err := replay.ParseRecordMode(p.RecordMode); err != nil {
			return p.fieldError("recordMode", replay.EnvRecordMode, err)
		}
	}
	if p.PlaybackMode != "" {
		if _, err := replay.ParsePlaybackMode(p.PlaybackMode); err != nil {
			return p.fieldError("playbackMode", replay.EnvPlaybackMode, err)
		}
	}
	if p.Matchers != nil {
		if _, err := replay.ParseMatchers(strings.Join(p.Matchers, ",")); err != nil {
			return p.fieldError("matchers", "", err)
		}
	}
	if _, err := filter.ParseAll(p.Filters); err != nil {
		return p.fieldError("filters", "", err)
	}
	return nil
}

func (p *Project) fieldError(key, env string, err error) *Error {
	if p.Sources[key] == SourceEnv && env != "" {
		return &Error{Path: "environment", Field: env, Message: err.Error()}
	}
	path := p.Path
	if path == "" {
		path = "config"
	}
	return &Error{Path: path, Line: p.lines[key], Field: key, Message: err.Error()}
}

// EngineConfig converts the settings into an engine configuration without a
// source. Unset modes stay empty so the engine applies its own defaults.
func (p *Project) EngineConfig() (replay.Config, error) {
	var cfg replay.Config
	var err error
	if p.RecordMode != "" {
		if cfg.RecordMode, err = replay.ParseRecordMode(p.RecordMode); err != nil {
			return replay.Config{}, err
		}
	}
	if p.PlaybackMode != "" {
		if cfg.PlaybackMode, err = replay.ParsePlaybackMode(p.PlaybackMode); err != nil {
			return replay.Config{}, err
		}
	}
	if p.Matchers != nil {
		if cfg.Matchers, err = replay.ParseMatchers(strings.Join(p.Matchers, ",")); err != nil {
			return replay.Config{}, err
		}
	}
	if cfg.Filters, err = filter.ParseAll(p.Filters); err != nil {
		return replay.Config{}, err
	}
	return cfg, nil
}

// LogLevel returns the configured level, info by default.
func (p *Project) LogLevel() logging.Level {
	return logging.ParseLevel(p.Log.Level)
}

// Logger builds a logger from the log settings writing to os.Stderr.
func (p *Project) Logger() *slog.Logger {
	return p.LoggerTo(os.Stderr)
}

// LoggerTo builds a logger from the log settings writing to w.
func (p *Project) LoggerTo(w io.Writer) *slog.Logger {
	return logging.New(logging.Config{
		Level:  p.LogLevel(),
		Format: logging.ParseFormat(p.Log.Format),
		Output: w,
	})
}

// ArchivePath returns the file for an archive name. Names without an
// extension get ".har"; relative names resolve against ArchiveDir.
func (p *Project) ArchivePath(name string) string {
	if filepath.Ext(name) == "" {
		name += ".har"
	}
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(p.ArchiveDir, name)
}
