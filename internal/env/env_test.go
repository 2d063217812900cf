package env

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	tgerrors "github.com/felixgeelhaar/taskgate/internal/errors"
)

func TestNewCopiesInput(t *testing.T) {
	input := map[string]string{KeyRun: "python manage.py"}
	s := New(input)

	input[KeyRun] = "changed"

	got, ok := s.Get(KeyRun)
	require.True(t, ok)
	assert.Equal(t, "python manage.py", got)
}

func TestMapReturnsCopy(t *testing.T) {
	s := New(map[string]string{KeyRun: "python manage.py"})

	m := s.Map()
	m[KeyRun] = "mutated"
	m["extra"] = "x"

	got, _ := s.Get(KeyRun)
	assert.Equal(t, "python manage.py", got)
	assert.Equal(t, 1, s.Len())
}

func TestWithLeavesOriginalUntouched(t *testing.T) {
	base := New(map[string]string{KeyRun: "python manage.py", KeyShell: "/bin/sh"})
	derived := base.With(map[string]string{KeyRun: "./manage.py"})

	orig, _ := base.Get(KeyRun)
	next, _ := derived.Get(KeyRun)
	shell, _ := derived.Get(KeyShell)

	assert.Equal(t, "python manage.py", orig)
	assert.Equal(t, "./manage.py", next)
	assert.Equal(t, "/bin/sh", shell)
}

func TestKeysSorted(t *testing.T) {
	s := New(map[string]string{"b": "1", "a": "2", "c": "3"})
	assert.Equal(t, []string{"a", "b", "c"}, s.Keys())
}

func TestLookup(t *testing.T) {
	s := New(map[string]string{KeyRun: "python manage.py"})

	v, err := s.Lookup(KeyRun)
	require.NoError(t, err)
	assert.Equal(t, "python manage.py", v)

	_, err = s.Lookup("missing")
	assert.True(t, errors.Is(err, tgerrors.ErrMissingKey))
}

func TestZeroValueUsable(t *testing.T) {
	var s Settings
	_, ok := s.Get(KeyRun)
	assert.False(t, ok)
	assert.Empty(t, s.Keys())

	out, err := s.Resolve("echo {x}", map[string]string{"x": "hi"})
	require.NoError(t, err)
	assert.Equal(t, "echo hi", out)
}

func TestResolve(t *testing.T) {
	s := New(map[string]string{
		KeyRun:         "python manage.py",
		KeyProjectName: "mysite",
	})

	tests := []struct {
		name     string
		template string
		params   map[string]string
		want     string
		wantErr  *tgerrors.TaskgateError
	}{
		{
			name:     "setting substitution",
			template: "{run} syncdb --noinput",
			want:     "python manage.py syncdb --noinput",
		},
		{
			name:     "setting and parameter",
			template: "{run} migrate {app} --noinput",
			params:   map[string]string{"app": "billing"},
			want:     "python manage.py migrate billing --noinput",
		},
		{
			name:     "parameter shadows setting",
			template: "{run} check",
			params:   map[string]string{KeyRun: "./manage.py"},
			want:     "./manage.py check",
		},
		{
			name:     "repeated placeholder",
			template: "mkdir {project_name}/apps/{app} && {run} startapp {app} {project_name}/apps/{app}",
			params:   map[string]string{"app": "blog"},
			want:     "mkdir mysite/apps/blog && python manage.py startapp blog mysite/apps/blog",
		},
		{
			name:     "whitespace inside braces",
			template: "echo /{ project_name }/static >> .gitignore",
			want:     "echo /mysite/static >> .gitignore",
		},
		{
			name:     "escaped braces",
			template: "awk '{{print $1}}' {app}.txt",
			params:   map[string]string{"app": "log"},
			want:     "awk '{print $1}' log.txt",
		},
		{
			name:     "no placeholders",
			template: "git add .",
			want:     "git add .",
		},
		{
			name:     "missing key",
			template: "{run} migrate {app} --noinput",
			wantErr:  tgerrors.ErrMissingKey,
		},
		{
			name:     "unterminated placeholder",
			template: "{run migrate",
			wantErr:  tgerrors.ErrInvalidTemplate,
		},
		{
			name:     "empty placeholder",
			template: "echo {}",
			wantErr:  tgerrors.ErrInvalidTemplate,
		},
		{
			name:     "stray closing brace",
			template: "echo }",
			wantErr:  tgerrors.ErrInvalidTemplate,
		},
		{
			name:     "empty result",
			template: "{blank}",
			params:   map[string]string{"blank": "  "},
			wantErr:  tgerrors.ErrEmptyCommand,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.Resolve(tt.template, tt.params)
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
				assert.Empty(t, got)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPlaceholders(t *testing.T) {
	tests := []struct {
		template string
		want     []string
	}{
		{"{run} migrate {app} --noinput", []string{"run", "app"}},
		{"mkdir {project_name}/apps/{app} {app}", []string{"project_name", "app"}},
		{"awk '{{print}}'", nil},
		{"git add .", nil},
		{"{run} {broken", []string{"run"}},
	}

	for _, tt := range tests {
		t.Run(tt.template, func(t *testing.T) {
			assert.Equal(t, tt.want, Placeholders(tt.template))
		})
	}
}
