package health

import (
	"context"
	"sync"
	"time"
)

// DefaultTimeout bounds each check.
const DefaultTimeout = 5 * time.Second

// NamedResult pairs a result with the checker that produced it.
type NamedResult struct {
	Name   string `json:"name" yaml:"name"`
	Result `yaml:",inline"`
}

// Manager runs checks in parallel, each with its own timeout.
type Manager struct {
	checkers []Checker
	timeout  time.Duration
	mu       sync.RWMutex
}

// NewManager creates a manager with DefaultTimeout.
func NewManager() *Manager {
	return &Manager{
		checkers: make([]Checker, 0),
		timeout:  DefaultTimeout,
	}
}

// WithTimeout sets the per-check timeout.
func (m *Manager) WithTimeout(timeout time.Duration) *Manager {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.timeout = timeout
	return m
}

// AddChecker registers checkers. Nil checkers are skipped.
func (m *Manager) AddChecker(checkers ...Checker) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range checkers {
		if c != nil {
			m.checkers = append(m.checkers, c)
		}
	}
}

// Check runs every checker and returns the results in registration order.
func (m *Manager) Check(ctx context.Context) []NamedResult {
	m.mu.RLock()
	checkers := make([]Checker, len(m.checkers))
	copy(checkers, m.checkers)
	timeout := m.timeout
	m.mu.RUnlock()

	results := make([]NamedResult, len(checkers))
	var wg sync.WaitGroup

	for i, checker := range checkers {
		wg.Add(1)
		go func(i int, c Checker) {
			defer wg.Done()

			checkCtx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()

			start := time.Now()
			result := c.Check(checkCtx)
			if result == nil {
				result = Unhealthy("check returned no result")
			}
			if result.Latency == 0 {
				result.Latency = time.Since(start)
			}
			results[i] = NamedResult{Name: c.Name(), Result: *result}
		}(i, checker)
	}

	wg.Wait()
	return results
}

// OverallStatus is unhealthy if any result is, else degraded if any result
// is, else healthy.
func OverallStatus(results []NamedResult) Status {
	overall := StatusHealthy
	for _, r := range results {
		switch r.Status {
		case StatusUnhealthy:
			return StatusUnhealthy
		case StatusDegraded:
			overall = StatusDegraded
		}
	}
	return overall
}

// CheckNames returns the names of all registered checkers.
func (m *Manager) CheckNames() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	names := make([]string, len(m.checkers))
	for i, checker := range m.checkers {
		names[i] = checker.Name()
	}
	return names
}

// Count returns the number of registered checkers.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.checkers)
}
