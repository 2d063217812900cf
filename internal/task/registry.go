package task

import (
	"fmt"
	"sort"

	tgerrors "github.com/felixgeelhaar/taskgate/internal/errors"
)

// Registry maps task names to tasks.
type Registry struct {
	tasks map[string]*Task
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{tasks: make(map[string]*Task)}
}

// Register adds tasks to the registry. Names must be unique and every task
// needs a plan.
func (r *Registry) Register(tasks ...*Task) error {
	for _, t := range tasks {
		if t == nil || t.Name == "" {
			return tgerrors.New(tgerrors.ErrCodeConfigInvalid, "task name cannot be empty")
		}
		if t.Plan == nil {
			return tgerrors.New(tgerrors.ErrCodeConfigInvalid, fmt.Sprintf("task %s has no steps", t.Name))
		}
		if existing, ok := r.tasks[t.Name]; ok {
			return tgerrors.New(tgerrors.ErrCodeDuplicateTask,
				fmt.Sprintf("task %s from %s is already defined by %s", t.Name, t.Source, existing.Source)).
				WithSuggestion("Rename the task in taskgate.yaml")
		}
		r.tasks[t.Name] = t
	}
	return nil
}

// Get returns the task registered under name
func (r *Registry) Get(name string) (*Task, error) {
	t, ok := r.tasks[name]
	if !ok {
		return nil, tgerrors.NewUnknownTaskError(name)
	}
	return t, nil
}

// List returns all tasks sorted by name
func (r *Registry) List() []*Task {
	tasks := make([]*Task, 0, len(r.tasks))
	for _, t := range r.tasks {
		tasks = append(tasks, t)
	}
	sort.Slice(tasks, func(i, j int) bool {
		return tasks[i].Name < tasks[j].Name
	})
	return tasks
}

// Len returns the number of registered tasks
func (r *Registry) Len() int {
	return len(r.tasks)
}
