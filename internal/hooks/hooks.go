// Package hooks notifies external programs about task lifecycle events.
//
// Hooks are declared under hooks: in taskgate.yaml. A hook either runs a
// shell command or POSTs the event as JSON to a URL. Hooks observe runs;
// a failing hook is logged and never changes a task's outcome.
package hooks

import (
	"fmt"
	"net/url"
	"time"
)

// EventType names a lifecycle event.
type EventType string

const (
	EventTaskStarted   EventType = "task_started"
	EventTaskCompleted EventType = "task_completed"
	EventTaskFailed    EventType = "task_failed"
	EventTaskAborted   EventType = "task_aborted"

	// EventStepFailed fires for every step that exits non-zero, including
	// warn-only steps the run continues past.
	EventStepFailed EventType = "step_failed"
)

// EventTypes lists every valid event.
var EventTypes = []EventType{
	EventTaskStarted,
	EventTaskCompleted,
	EventTaskFailed,
	EventTaskAborted,
	EventStepFailed,
}

// IsValid reports whether t is a known event.
func (t EventType) IsValid() bool {
	for _, valid := range EventTypes {
		if t == valid {
			return true
		}
	}
	return false
}

// Event is the payload delivered to hooks.
type Event struct {
	Type      EventType         `json:"type"`
	Timestamp time.Time         `json:"timestamp"`
	RunID     string            `json:"run_id"`
	Task      string            `json:"task"`
	Args      map[string]string `json:"args,omitempty"`
	State     string            `json:"state,omitempty"`
	Step      string            `json:"step,omitempty"`
	Command   string            `json:"command,omitempty"`
	ExitCode  int               `json:"exit_code,omitempty"`
	Error     string            `json:"error,omitempty"`
}

// DefaultTimeout bounds a hook without its own timeout.
const DefaultTimeout = 30 * time.Second

// Config declares one hook in taskgate.yaml. Exactly one of Run and URL
// must be set.
type Config struct {
	Name   string      `yaml:"name" json:"name"`
	Events []EventType `yaml:"events" json:"events"`

	// Run is a shell command. It receives the event as JSON on stdin and
	// as TASKGATE_* environment variables.
	Run string `yaml:"run,omitempty" json:"run,omitempty"`

	// URL receives the event as a JSON POST.
	URL     string            `yaml:"url,omitempty" json:"url,omitempty"`
	Headers map[string]string `yaml:"headers,omitempty" json:"headers,omitempty"`

	Timeout  time.Duration `yaml:"timeout,omitempty" json:"timeout,omitempty"`
	Disabled bool          `yaml:"disabled,omitempty" json:"disabled,omitempty"`
}

// Validate checks a single hook declaration.
func (c Config) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("hook name is required")
	}
	if len(c.Events) == 0 {
		return fmt.Errorf("hook %s: at least one event is required", c.Name)
	}
	for _, e := range c.Events {
		if !e.IsValid() {
			return fmt.Errorf("hook %s: unknown event %q", c.Name, e)
		}
	}

	switch {
	case c.Run == "" && c.URL == "":
		return fmt.Errorf("hook %s: one of run or url is required", c.Name)
	case c.Run != "" && c.URL != "":
		return fmt.Errorf("hook %s: run and url are mutually exclusive", c.Name)
	case c.URL != "":
		u, err := url.Parse(c.URL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("hook %s: url must be an absolute http(s) URL", c.Name)
		}
	}

	if c.Timeout < 0 {
		return fmt.Errorf("hook %s: timeout must not be negative", c.Name)
	}
	return nil
}

// Handles reports whether the hook subscribes to t.
func (c Config) Handles(t EventType) bool {
	for _, e := range c.Events {
		if e == t {
			return true
		}
	}
	return false
}
