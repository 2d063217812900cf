// Package metrics records task and step outcomes as Prometheus metrics.
//
// taskgate is a short-lived process, so metrics are not served over HTTP.
// They are written once per invocation in the text exposition format, ready
// for the node_exporter textfile collector.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	tgerrors "github.com/felixgeelhaar/taskgate/internal/errors"
	"github.com/felixgeelhaar/taskgate/internal/exec"
	"github.com/felixgeelhaar/taskgate/internal/task"
)

// Step outcomes.
const (
	OutcomeSucceeded = "succeeded"
	OutcomeFailed    = "failed"
	OutcomeIgnored   = "ignored"
	OutcomeContinued = "continued"
	OutcomeAborted   = "aborted"
	OutcomeNotFound  = "not_found"
	OutcomeDryRun    = "dry_run"
	OutcomeError     = "error"
)

// Gate decisions.
const (
	DecisionContinue = "continue"
	DecisionAbort    = "abort"
)

// Metrics holds all Prometheus metrics for taskgate
type Metrics struct {
	StepExecutions *prometheus.CounterVec
	StepDuration   *prometheus.HistogramVec
	GateDecisions  *prometheus.CounterVec

	TaskRuns     *prometheus.CounterVec
	TaskDuration *prometheus.HistogramVec
	TaskLastRun  *prometheus.GaugeVec

	// Error metrics (by error code from structured errors)
	Errors *prometheus.CounterVec
}

// NewMetrics creates a new Metrics instance with all metrics registered
func NewMetrics(registry prometheus.Registerer) *Metrics {
	factory := promauto.With(registry)

	return &Metrics{
		StepExecutions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "taskgate_step_executions_total",
				Help: "Total number of executed task steps by outcome",
			},
			[]string{"task", "outcome"},
		),
		StepDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "taskgate_step_duration_seconds",
				Help:    "Step command duration in seconds",
				Buckets: []float64{0.1, 0.5, 1, 5, 15, 60, 300, 900},
			},
			[]string{"task"},
		),
		GateDecisions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "taskgate_gate_decisions_total",
				Help: "Total number of failure gate decisions",
			},
			[]string{"task", "decision"},
		),
		TaskRuns: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "taskgate_task_runs_total",
				Help: "Total number of task runs by final state",
			},
			[]string{"task", "state"},
		),
		TaskDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "taskgate_task_duration_seconds",
				Help:    "Task run duration in seconds",
				Buckets: []float64{1, 5, 15, 60, 300, 900, 3600},
			},
			[]string{"task"},
		),
		TaskLastRun: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "taskgate_task_last_run_timestamp_seconds",
				Help: "Unix time a task last finished",
			},
			[]string{"task", "state"},
		),
		Errors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "taskgate_errors_total",
				Help: "Total number of errors by error code",
			},
			[]string{"error_code"},
		),
	}
}

// StepStarted implements task.Observer.
func (m *Metrics) StepStarted(*task.Task, int, int, task.PlannedStep) {}

// StepFinished implements task.Observer.
func (m *Metrics) StepFinished(t *task.Task, _, _ int, step task.PlannedStep, result *exec.Result, err error) {
	if result != nil && !result.DryRun {
		m.StepDuration.WithLabelValues(t.Name).Observe(result.Duration.Seconds())
	}
	m.StepExecutions.WithLabelValues(t.Name, stepOutcome(step, result, err)).Inc()

	if step.Question == "" || result == nil || !result.Failed() {
		return
	}
	switch {
	case err == nil:
		m.GateDecisions.WithLabelValues(t.Name, DecisionContinue).Inc()
	case isCode(err, tgerrors.ErrCodeUserAbort):
		m.GateDecisions.WithLabelValues(t.Name, DecisionAbort).Inc()
	}
}

// ObserveReport records the final state of a task run.
func (m *Metrics) ObserveReport(r *task.Report) {
	if r == nil {
		return
	}
	state := r.State.String()
	m.TaskRuns.WithLabelValues(r.Task, state).Inc()
	if !r.Finished.IsZero() {
		m.TaskDuration.WithLabelValues(r.Task).Observe(r.Duration().Seconds())
		m.TaskLastRun.WithLabelValues(r.Task, state).Set(float64(r.Finished.Unix()))
	}
	if r.Err != nil {
		m.ObserveError(r.Err)
	}
}

// ObserveError counts err by its error code.
func (m *Metrics) ObserveError(err error) {
	code, ok := tgerrors.CodeOf(err)
	if !ok {
		code = "unknown"
	}
	m.Errors.WithLabelValues(string(code)).Inc()
}

func stepOutcome(step task.PlannedStep, result *exec.Result, err error) string {
	if err != nil {
		code, _ := tgerrors.CodeOf(err)
		switch code {
		case tgerrors.ErrCodeUserAbort:
			return OutcomeAborted
		case tgerrors.ErrCodeCommandNotFound:
			return OutcomeNotFound
		case tgerrors.ErrCodeCommandFailed:
			return OutcomeFailed
		default:
			return OutcomeError
		}
	}
	switch {
	case result == nil:
		return OutcomeError
	case result.DryRun:
		return OutcomeDryRun
	case result.Failed() && step.Question != "":
		return OutcomeContinued
	case result.Failed():
		return OutcomeIgnored
	default:
		return OutcomeSucceeded
	}
}

func isCode(err error, code tgerrors.ErrorCode) bool {
	c, ok := tgerrors.CodeOf(err)
	return ok && c == code
}
