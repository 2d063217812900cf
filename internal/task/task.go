// Package task defines named, parameterized sequences of shell steps and
// runs them through an executor and failure gate.
package task

import (
	"fmt"
	"regexp"
	"strings"

	tgerrors "github.com/felixgeelhaar/taskgate/internal/errors"
)

// Param declares a task parameter.
type Param struct {
	Name        string `yaml:"name" json:"name"`
	Description string `yaml:"description,omitempty" json:"description,omitempty"`
	Required    bool   `yaml:"required,omitempty" json:"required,omitempty"`
}

// Step is one command template of a task.
type Step struct {
	// Name labels the step in output, logs and manifests.
	Name string

	// Template is resolved against settings and arguments before execution.
	Template string

	// Question, when set, is asked if the step fails. It only takes effect
	// for warn-only steps; a fail-fast step halts before the gate runs.
	Question string

	// WarnOnly reports a non-zero exit instead of halting immediately.
	WarnOnly bool

	// Capture buffers the command's output instead of streaming it.
	Capture bool
}

// Cmd returns a fail-fast step.
func Cmd(template string) Step {
	return Step{Name: stepName(template), Template: template}
}

// Gated returns a warn-only, captured step that asks question when it fails.
func Gated(template, question string) Step {
	return Step{Name: stepName(template), Template: template, Question: question, WarnOnly: true, Capture: true}
}

// Soft returns a warn-only step whose failure is ignored.
func Soft(template string) Step {
	return Step{Name: stepName(template), Template: template, WarnOnly: true}
}

// Named returns a copy of s with its label replaced.
func (s Step) Named(name string) Step {
	s.Name = name
	return s
}

func stepName(template string) string {
	fields := strings.Fields(template)
	if len(fields) > 3 {
		fields = fields[:3]
	}
	return strings.Join(fields, " ")
}

// Args holds bound parameter values by name.
type Args map[string]string

// Get returns the value of name, or "" when it was not supplied.
func (a Args) Get(name string) string {
	return a[name]
}

// Has reports whether name was supplied with a non-empty value.
func (a Args) Has(name string) bool {
	return a[name] != ""
}

// PlanFunc produces the ordered steps of a task for the given arguments.
type PlanFunc func(args Args) []Step

// Task is a named, parameterized sequence of steps.
type Task struct {
	Name        string
	Description string
	Params      []Param
	Plan        PlanFunc

	// Source tells where the task was defined ("builtin" or a config path).
	Source string
}

// Static returns a PlanFunc that always yields steps.
func Static(steps ...Step) PlanFunc {
	return func(Args) []Step {
		return steps
	}
}

var identifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Bind maps raw command-line arguments onto the task's parameters.
// Arguments of the form name=value set the named parameter; everything else
// fills the parameters positionally in declaration order. Missing required
// parameters fail with MissingArgument.
func (t *Task) Bind(raw []string) (Args, error) {
	args := make(Args, len(t.Params))
	declared := make(map[string]bool, len(t.Params))
	for _, p := range t.Params {
		declared[p.Name] = true
	}

	next := 0
	for _, arg := range raw {
		if key, value, ok := strings.Cut(arg, "="); ok && identifier.MatchString(key) {
			if !declared[key] {
				return nil, t.invalidArgument(fmt.Sprintf("unknown parameter %q", key))
			}
			if _, dup := args[key]; dup {
				return nil, t.invalidArgument(fmt.Sprintf("parameter %q given more than once", key))
			}
			args[key] = value
			continue
		}

		for next < len(t.Params) {
			if _, taken := args[t.Params[next].Name]; !taken {
				break
			}
			next++
		}
		if next >= len(t.Params) {
			return nil, t.invalidArgument(fmt.Sprintf("too many arguments (accepts %d)", len(t.Params)))
		}
		args[t.Params[next].Name] = arg
		next++
	}

	if err := t.Validate(args); err != nil {
		return nil, err
	}
	return args, nil
}

// Validate checks that every required parameter has a non-empty value.
func (t *Task) Validate(args Args) error {
	for _, p := range t.Params {
		if p.Required && !args.Has(p.Name) {
			return tgerrors.NewMissingArgumentError(t.Name, p.Name)
		}
	}
	return nil
}

// Usage renders the task's call signature, e.g. "migrate [app]".
func (t *Task) Usage() string {
	var b strings.Builder
	b.WriteString(t.Name)
	for _, p := range t.Params {
		if p.Required {
			fmt.Fprintf(&b, " <%s>", p.Name)
		} else {
			fmt.Fprintf(&b, " [%s]", p.Name)
		}
	}
	return b.String()
}

func (t *Task) invalidArgument(msg string) error {
	return tgerrors.New(tgerrors.ErrCodeInvalidArgument, fmt.Sprintf("task %s: %s", t.Name, msg)).
		WithSuggestion(fmt.Sprintf("Usage: %s", t.Usage()))
}
