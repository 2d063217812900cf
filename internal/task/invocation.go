package task

import (
	"fmt"
	"strings"

	tgerrors "github.com/felixgeelhaar/taskgate/internal/errors"
)

// Invocation is a task name with its raw arguments.
type Invocation struct {
	Name string
	Args []string
}

// String renders the invocation in the syntax ParseInvocation accepts.
func (i Invocation) String() string {
	if len(i.Args) == 0 {
		return i.Name
	}
	escaped := make([]string, len(i.Args))
	for n, a := range i.Args {
		escaped[n] = strings.ReplaceAll(a, ",", `\,`)
	}
	return i.Name + ":" + strings.Join(escaped, ",")
}

// ParseInvocation parses "name" or "name:arg1,key=value". A backslash
// escapes a literal comma inside an argument.
func ParseInvocation(spec string) (Invocation, error) {
	name, rest, hasArgs := strings.Cut(spec, ":")
	name = strings.TrimSpace(name)
	if name == "" {
		return Invocation{}, tgerrors.New(tgerrors.ErrCodeInvalidArgument, fmt.Sprintf("missing task name in %q", spec))
	}

	inv := Invocation{Name: name}
	if !hasArgs || rest == "" {
		return inv, nil
	}

	var current strings.Builder
	for i := 0; i < len(rest); i++ {
		switch {
		case rest[i] == '\\' && i+1 < len(rest) && rest[i+1] == ',':
			current.WriteByte(',')
			i++
		case rest[i] == ',':
			inv.Args = append(inv.Args, current.String())
			current.Reset()
		default:
			current.WriteByte(rest[i])
		}
	}
	inv.Args = append(inv.Args, current.String())

	return inv, nil
}

// ParseInvocations parses each spec in order.
func ParseInvocations(specs []string) ([]Invocation, error) {
	invocations := make([]Invocation, 0, len(specs))
	for _, spec := range specs {
		inv, err := ParseInvocation(spec)
		if err != nil {
			return nil, err
		}
		invocations = append(invocations, inv)
	}
	return invocations, nil
}
