package task

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseInvocation(t *testing.T) {
	tests := []struct {
		spec string
		want Invocation
	}{
		{"syncdb", Invocation{Name: "syncdb"}},
		{"migrate:", Invocation{Name: "migrate"}},
		{"migrate:billing", Invocation{Name: "migrate", Args: []string{"billing"}}},
		{"startapp:app=blog,minimal", Invocation{Name: "startapp", Args: []string{"app=blog", "minimal"}}},
		{`deploy:msg=a\,b`, Invocation{Name: "deploy", Args: []string{"msg=a,b"}}},
		{"deploy:a,,b", Invocation{Name: "deploy", Args: []string{"a", "", "b"}}},
	}

	for _, tt := range tests {
		t.Run(tt.spec, func(t *testing.T) {
			got, err := ParseInvocation(tt.spec)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseInvocationErrors(t *testing.T) {
	for _, spec := range []string{"", ":billing", "  :x"} {
		_, err := ParseInvocation(spec)
		assert.Error(t, err, spec)
	}
}

func TestInvocationStringRoundTrip(t *testing.T) {
	inv := Invocation{Name: "deploy", Args: []string{"msg=a,b", "origin"}}

	parsed, err := ParseInvocation(inv.String())
	require.NoError(t, err)
	assert.Equal(t, inv, parsed)
}

func TestParseInvocations(t *testing.T) {
	got, err := ParseInvocations([]string{"syncdb", "migrate:billing"})
	require.NoError(t, err)
	assert.Len(t, got, 2)

	_, err = ParseInvocations([]string{"syncdb", ":bad"})
	assert.Error(t, err)
}
