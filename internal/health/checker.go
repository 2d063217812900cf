// Package health checks that the tools a project's tasks shell out to are
// installed.
//
// Each Checker probes one prerequisite (the shell, git, git-flow, the
// management entry point) and reports a Result. A Manager runs all checks in
// parallel with a per-check timeout:
//
//	manager := health.NewManager()
//	manager.AddChecker(health.NewShellChecker("/bin/sh"))
//	manager.AddChecker(health.NewGitChecker())
//
//	for _, r := range manager.Check(ctx) {
//	    fmt.Println(r.Name, r.Status, r.Message)
//	}
package health

import (
	"context"
	"time"
)

// Checker verifies one prerequisite.
type Checker interface {
	// Name is lowercase with hyphens, e.g. "git-binary".
	Name() string

	// Check must respect the context deadline.
	Check(ctx context.Context) *Result
}

// Status is the outcome of a check.
type Status string

const (
	// StatusHealthy means the prerequisite is usable.
	StatusHealthy Status = "healthy"

	// StatusDegraded means tasks can run, but some steps will fail or ask
	// whether to continue.
	StatusDegraded Status = "degraded"

	// StatusUnhealthy means tasks that need the prerequisite cannot run.
	StatusUnhealthy Status = "unhealthy"
)

// String returns the string representation of the status.
func (s Status) String() string {
	return string(s)
}

// Result is what a Checker found.
type Result struct {
	Status  Status         `json:"status" yaml:"status"`
	Message string         `json:"message" yaml:"message"`
	Details map[string]any `json:"details,omitempty" yaml:"details,omitempty"`
	Latency time.Duration  `json:"latency" yaml:"latency"`
}

// NewResult creates a result with the given status and message.
func NewResult(status Status, message string) *Result {
	return &Result{
		Status:  status,
		Message: message,
		Details: make(map[string]any),
	}
}

// WithDetail adds a detail and returns the result for chaining.
func (r *Result) WithDetail(key string, value any) *Result {
	r.Details[key] = value
	return r
}

// WithLatency sets the latency and returns the result for chaining.
func (r *Result) WithLatency(latency time.Duration) *Result {
	r.Latency = latency
	return r
}

// Suggestion returns the "suggestion" detail, if any.
func (r *Result) Suggestion() string {
	s, _ := r.Details["suggestion"].(string)
	return s
}

// Healthy creates a healthy result.
func Healthy(message string) *Result {
	return NewResult(StatusHealthy, message)
}

// Degraded creates a degraded result.
func Degraded(message string) *Result {
	return NewResult(StatusDegraded, message)
}

// Unhealthy creates an unhealthy result.
func Unhealthy(message string) *Result {
	return NewResult(StatusUnhealthy, message)
}
