package health

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockChecker is a test double for health checks
type mockChecker struct {
	name   string
	result *Result
	delay  time.Duration
}

func (m *mockChecker) Name() string {
	return m.name
}

func (m *mockChecker) Check(ctx context.Context) *Result {
	if m.delay > 0 {
		select {
		case <-time.After(m.delay):
		case <-ctx.Done():
			return Unhealthy("check cancelled").
				WithDetail("error", ctx.Err().Error())
		}
	}
	return m.result
}

func TestNewManager(t *testing.T) {
	manager := NewManager()
	assert.Equal(t, DefaultTimeout, manager.timeout)
	assert.Zero(t, manager.Count())
}

func TestAddChecker(t *testing.T) {
	manager := NewManager()
	manager.AddChecker(
		&mockChecker{name: "shell", result: Healthy("ok")},
		nil,
		&mockChecker{name: "git-binary", result: Healthy("ok")},
	)

	assert.Equal(t, 2, manager.Count())
	assert.Equal(t, []string{"shell", "git-binary"}, manager.CheckNames())
}

func TestCheckKeepsRegistrationOrder(t *testing.T) {
	manager := NewManager()
	manager.AddChecker(
		&mockChecker{name: "slow", result: Healthy("ok"), delay: 30 * time.Millisecond},
		&mockChecker{name: "degraded", result: Degraded("partial")},
		&mockChecker{name: "unhealthy", result: Unhealthy("broken")},
	)

	results := manager.Check(context.Background())
	require.Len(t, results, 3)

	assert.Equal(t, "slow", results[0].Name)
	assert.Equal(t, StatusHealthy, results[0].Status)
	assert.Equal(t, "degraded", results[1].Name)
	assert.Equal(t, StatusDegraded, results[1].Status)
	assert.Equal(t, "unhealthy", results[2].Name)
	assert.Equal(t, StatusUnhealthy, results[2].Status)
	assert.Positive(t, results[0].Latency)
}

func TestCheckWithTimeout(t *testing.T) {
	manager := NewManager().WithTimeout(50 * time.Millisecond)
	manager.AddChecker(&mockChecker{name: "slow", result: Healthy("too late"), delay: time.Second})

	results := manager.Check(context.Background())
	require.Len(t, results, 1)
	assert.Equal(t, StatusUnhealthy, results[0].Status)
	assert.Equal(t, "check cancelled", results[0].Message)
}

func TestCheckRunsInParallel(t *testing.T) {
	manager := NewManager()
	for i := 0; i < 5; i++ {
		manager.AddChecker(&mockChecker{
			name:   fmt.Sprintf("checker-%d", i),
			result: Healthy("ok"),
			delay:  50 * time.Millisecond,
		})
	}

	start := time.Now()
	results := manager.Check(context.Background())

	assert.Len(t, results, 5)
	assert.Less(t, time.Since(start), 200*time.Millisecond)
}

func TestCheckNilResult(t *testing.T) {
	manager := NewManager()
	manager.AddChecker(&mockChecker{name: "broken"})

	results := manager.Check(context.Background())
	require.Len(t, results, 1)
	assert.Equal(t, StatusUnhealthy, results[0].Status)
}

func TestOverallStatus(t *testing.T) {
	named := func(results ...*Result) []NamedResult {
		out := make([]NamedResult, len(results))
		for i, r := range results {
			out[i] = NamedResult{Name: fmt.Sprintf("check%d", i), Result: *r}
		}
		return out
	}

	tests := []struct {
		name    string
		results []NamedResult
		want    Status
	}{
		{name: "empty", results: nil, want: StatusHealthy},
		{name: "all healthy", results: named(Healthy("ok"), Healthy("ok")), want: StatusHealthy},
		{name: "one degraded", results: named(Healthy("ok"), Degraded("partial")), want: StatusDegraded},
		{name: "unhealthy wins", results: named(Degraded("partial"), Unhealthy("broken"), Healthy("ok")), want: StatusUnhealthy},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, OverallStatus(tt.results))
		})
	}
}
