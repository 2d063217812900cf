// Package config loads taskgate settings and file-defined tasks.
//
// Settings are layered: built-in defaults, then the settings: section of
// taskgate.yaml, then --set overrides. The result is an immutable
// env.Settings built once at startup.
package config

import (
	stderrors "errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"

	"gopkg.in/yaml.v3"

	"github.com/felixgeelhaar/taskgate/internal/env"
	tgerrors "github.com/felixgeelhaar/taskgate/internal/errors"
	"github.com/felixgeelhaar/taskgate/internal/hooks"
	"github.com/felixgeelhaar/taskgate/internal/task"
)

// DefaultFileName is searched for from the project directory upwards when
// no explicit config path is given.
const DefaultFileName = "taskgate.yaml"

// Default setting values.
const (
	DefaultRun   = "python manage.py"
	DefaultShell = "/bin/sh"
)

// File is the on-disk representation of taskgate.yaml.
type File struct {
	Settings map[string]string `yaml:"settings,omitempty" json:"settings,omitempty"`
	Tasks    []TaskConfig      `yaml:"tasks,omitempty" json:"tasks,omitempty"`
	Hooks    []hooks.Config    `yaml:"hooks,omitempty" json:"hooks,omitempty"`
}

// TaskConfig defines a task in taskgate.yaml.
type TaskConfig struct {
	Name        string       `yaml:"name" json:"name"`
	Description string       `yaml:"description,omitempty" json:"description,omitempty"`
	Params      []task.Param `yaml:"params,omitempty" json:"params,omitempty"`
	Steps       []StepConfig `yaml:"steps" json:"steps"`
}

// StepConfig defines one step of a file-defined task.
type StepConfig struct {
	Name     string `yaml:"name,omitempty" json:"name,omitempty"`
	Run      string `yaml:"run" json:"run"`
	Question string `yaml:"question,omitempty" json:"question,omitempty"`
	WarnOnly bool   `yaml:"warn_only,omitempty" json:"warn_only,omitempty"`
	Capture  bool   `yaml:"capture,omitempty" json:"capture,omitempty"`
}

// Options controls Load.
type Options struct {
	// Path is an explicit config file. It must exist when set.
	Path string

	// Dir is the project directory. Empty means the current directory.
	Dir string

	// Overrides are applied on top of every other source.
	Overrides map[string]string
}

// Config is the effective configuration of one process.
type Config struct {
	// Path of the loaded file, or "" when none was found.
	Path string

	Dir      string
	Settings env.Settings
	Tasks    []*task.Task
	Hooks    []hooks.Config
}

var identifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Defaults returns the built-in settings for a project rooted at dir.
func Defaults(dir string) map[string]string {
	return map[string]string{
		env.KeyRun:         DefaultRun,
		env.KeyShell:       DefaultShell,
		env.KeyProjectName: filepath.Base(dir),
	}
}

// Load resolves the effective configuration.
func Load(opts Options) (*Config, error) {
	dir := opts.Dir
	if dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, tgerrors.Wrap(tgerrors.ErrCodeConfigInvalid, "failed to determine working directory", err)
		}
		dir = wd
	}
	dir, err := filepath.Abs(dir)
	if err != nil {
		return nil, tgerrors.Wrap(tgerrors.ErrCodeConfigInvalid, "invalid project directory", err)
	}

	cfg := &Config{Dir: dir}
	values := Defaults(dir)

	path := opts.Path
	if path == "" {
		path, _ = Discover(dir)
	}

	file := &File{}
	if path != "" {
		file, err = LoadFile(path)
		if err != nil {
			return nil, err
		}
		cfg.Path = path
	}

	for k, v := range file.Settings {
		values[k] = v
	}
	cfg.Settings = env.New(values).With(opts.Overrides)

	for _, k := range cfg.Settings.Keys() {
		if !identifier.MatchString(k) {
			return nil, tgerrors.New(tgerrors.ErrCodeConfigInvalid, fmt.Sprintf("invalid setting name %q", k)).
				WithSuggestion("Setting names may contain letters, digits and underscores")
		}
	}

	tasks, err := file.BuildTasks(cfg.Path, cfg.Settings)
	if err != nil {
		return nil, err
	}
	cfg.Tasks = tasks
	cfg.Hooks = file.Hooks

	return cfg, nil
}

// LoadFile reads and validates a config file. A missing file is reported
// with an error matching fs.ErrNotExist.
func LoadFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if stderrors.Is(err, fs.ErrNotExist) {
			return nil, tgerrors.Wrap(tgerrors.ErrCodeConfigInvalid, "config file not found: "+path, err)
		}
		return nil, tgerrors.Wrap(tgerrors.ErrCodeConfigInvalid, "failed to read config file "+path, err)
	}

	var file File
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, tgerrors.Wrap(tgerrors.ErrCodeConfigInvalid, "failed to parse config file "+path, err).
			WithSuggestion("Check the YAML syntax of " + path)
	}

	if err := file.Validate(); err != nil {
		return nil, tgerrors.Wrap(tgerrors.ErrCodeConfigInvalid, "invalid config file "+path, err)
	}
	return &file, nil
}

// Validate checks the structure of the file's task and hook definitions.
func (f *File) Validate() error {
	hookNames := make(map[string]bool, len(f.Hooks))
	for _, hc := range f.Hooks {
		if err := hc.Validate(); err != nil {
			return err
		}
		if hookNames[hc.Name] {
			return fmt.Errorf("hook %s: defined more than once", hc.Name)
		}
		hookNames[hc.Name] = true
	}

	names := make(map[string]bool, len(f.Tasks))
	for i, tc := range f.Tasks {
		if !identifier.MatchString(tc.Name) {
			return fmt.Errorf("task %d: invalid name %q", i+1, tc.Name)
		}
		if names[tc.Name] {
			return fmt.Errorf("task %s: defined more than once", tc.Name)
		}
		names[tc.Name] = true

		params := make(map[string]bool, len(tc.Params))
		for _, p := range tc.Params {
			if !identifier.MatchString(p.Name) {
				return fmt.Errorf("task %s: invalid parameter name %q", tc.Name, p.Name)
			}
			if params[p.Name] {
				return fmt.Errorf("task %s: parameter %q declared more than once", tc.Name, p.Name)
			}
			params[p.Name] = true
		}

		if len(tc.Steps) == 0 {
			return fmt.Errorf("task %s: no steps", tc.Name)
		}
		for j, sc := range tc.Steps {
			if sc.Run == "" {
				return fmt.Errorf("task %s: step %d: run is required", tc.Name, j+1)
			}
		}
	}
	return nil
}

// BuildTasks converts the file's task definitions into tasks. Every
// placeholder must name a declared parameter or a setting in settings, so
// typos fail at startup rather than halfway through a run.
func (f *File) BuildTasks(source string, settings env.Settings) ([]*task.Task, error) {
	tasks := make([]*task.Task, 0, len(f.Tasks))
	for _, tc := range f.Tasks {
		declared := make(map[string]bool, len(tc.Params))
		for _, p := range tc.Params {
			declared[p.Name] = true
		}

		steps := make([]task.Step, 0, len(tc.Steps))
		for j, sc := range tc.Steps {
			for _, name := range env.Placeholders(sc.Run) {
				if _, ok := settings.Get(name); !ok && !declared[name] {
					return nil, tgerrors.New(tgerrors.ErrCodeConfigInvalid,
						fmt.Sprintf("task %s: step %d: placeholder {%s} is neither a parameter nor a setting", tc.Name, j+1, name)).
						WithSuggestion("Declare it under params: or define it under settings:")
				}
			}
			steps = append(steps, sc.step())
		}

		tasks = append(tasks, &task.Task{
			Name:        tc.Name,
			Description: tc.Description,
			Params:      tc.Params,
			Plan:        task.Static(steps...),
			Source:      source,
		})
	}
	return tasks, nil
}

func (sc StepConfig) step() task.Step {
	var s task.Step
	switch {
	case sc.Question != "":
		// Questioned steps are always warn-only and captured.
		s = task.Gated(sc.Run, sc.Question)
	case sc.WarnOnly:
		s = task.Soft(sc.Run)
		s.Capture = sc.Capture
	default:
		s = task.Cmd(sc.Run)
		s.Capture = sc.Capture
	}
	if sc.Name != "" {
		s = s.Named(sc.Name)
	}
	return s
}
