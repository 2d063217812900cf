// Package env holds the immutable settings every task step reads from and
// resolves command templates against them.
//
// Templates use single-brace placeholders, {run} or {app}. Doubled braces
// ({{ and }}) produce literal braces so shell snippets such as
// awk '{{print $1}}' survive resolution.
package env

import (
	"sort"
	"strings"

	tgerrors "github.com/felixgeelhaar/taskgate/internal/errors"
)

// Well-known setting keys.
const (
	// KeyRun is the invocation template for the project's management entry point.
	KeyRun = "run"
	// KeyShell is the shell used to interpret commands.
	KeyShell = "shell"
	// KeyProjectName names the project package directory used by scaffolding tasks.
	KeyProjectName = "project_name"
)

// Settings is a read-only mapping of setting names to values. The zero value
// is an empty, usable Settings.
type Settings struct {
	values map[string]string
}

// New returns Settings holding a copy of values.
func New(values map[string]string) Settings {
	copied := make(map[string]string, len(values))
	for k, v := range values {
		copied[k] = v
	}
	return Settings{values: copied}
}

// With returns a new Settings with overrides applied on top of s. s itself is
// left untouched.
func (s Settings) With(overrides map[string]string) Settings {
	merged := make(map[string]string, len(s.values)+len(overrides))
	for k, v := range s.values {
		merged[k] = v
	}
	for k, v := range overrides {
		merged[k] = v
	}
	return Settings{values: merged}
}

// Get returns the value stored under key.
func (s Settings) Get(key string) (string, bool) {
	v, ok := s.values[key]
	return v, ok
}

// Lookup returns the value stored under key, or a MissingKey error.
func (s Settings) Lookup(key string) (string, error) {
	v, ok := s.values[key]
	if !ok {
		return "", tgerrors.New(tgerrors.ErrCodeMissingKey, "required setting is not defined: "+key).
			WithSuggestion("Define it with --set " + key + "=<value> or under settings: in taskgate.yaml")
	}
	return v, nil
}

// Keys returns the setting names in sorted order.
func (s Settings) Keys() []string {
	keys := make([]string, 0, len(s.values))
	for k := range s.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Map returns a copy of the settings.
func (s Settings) Map() map[string]string {
	copied := make(map[string]string, len(s.values))
	for k, v := range s.values {
		copied[k] = v
	}
	return copied
}

// Len returns the number of settings.
func (s Settings) Len() int {
	return len(s.values)
}

// Resolve substitutes every placeholder in template. params shadow settings
// of the same name. The result is never partially resolved: any placeholder
// without a value fails the whole resolution with MissingKey.
func (s Settings) Resolve(template string, params map[string]string) (string, error) {
	var b strings.Builder
	b.Grow(len(template))

	for i := 0; i < len(template); i++ {
		c := template[i]
		switch c {
		case '{':
			if i+1 < len(template) && template[i+1] == '{' {
				b.WriteByte('{')
				i++
				continue
			}
			end := strings.IndexByte(template[i+1:], '}')
			if end < 0 {
				return "", invalidTemplate(template, "unterminated placeholder")
			}
			name := strings.TrimSpace(template[i+1 : i+1+end])
			if name == "" || strings.ContainsAny(name, "{ \t") {
				return "", invalidTemplate(template, "malformed placeholder")
			}
			value, ok := params[name]
			if !ok {
				value, ok = s.values[name]
			}
			if !ok {
				return "", tgerrors.NewMissingKeyError(name, template)
			}
			b.WriteString(value)
			i += end + 1
		case '}':
			if i+1 < len(template) && template[i+1] == '}' {
				b.WriteByte('}')
				i++
				continue
			}
			return "", invalidTemplate(template, "single '}' encountered")
		default:
			b.WriteByte(c)
		}
	}

	out := b.String()
	if strings.TrimSpace(out) == "" {
		return "", tgerrors.New(tgerrors.ErrCodeEmptyCommand, "template resolved to an empty command: "+template)
	}
	return out, nil
}

// Placeholders lists the distinct placeholder names in template, in order of
// first appearance. Escaped braces are skipped. Malformed templates yield the
// names found before the first problem.
func Placeholders(template string) []string {
	var names []string
	seen := make(map[string]bool)

	for i := 0; i < len(template); i++ {
		switch template[i] {
		case '{':
			if i+1 < len(template) && template[i+1] == '{' {
				i++
				continue
			}
			end := strings.IndexByte(template[i+1:], '}')
			if end < 0 {
				return names
			}
			name := strings.TrimSpace(template[i+1 : i+1+end])
			if name != "" && !seen[name] {
				seen[name] = true
				names = append(names, name)
			}
			i += end + 1
		case '}':
			if i+1 < len(template) && template[i+1] == '}' {
				i++
			}
		}
	}
	return names
}

func invalidTemplate(template, reason string) error {
	return tgerrors.New(tgerrors.ErrCodeInvalidTemplate, reason+" in template: "+template)
}
