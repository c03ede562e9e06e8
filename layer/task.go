package layer

import (
	"context"
	"fmt"
)

// Task is L4: the only layer that synthesizes rules instead of loading a
// domain file. It derives up to three human-readable lines from the active
// task and is absent when no task id is set.
type Task struct{}

func (l *Task) Name() string { return "task" }

func (l *Task) Process(ctx context.Context, pctx *Context) (*Result, error) {
	taskID := pctx.Session.TaskID()
	if taskID == "" {
		return nil, nil
	}
	task := pctx.Session.ActiveTask
	rules := []string{fmt.Sprintf("Active Task: %s", taskID)}
	if task.Story != "" {
		rules = append(rules, fmt.Sprintf("Task Story: %s", task.Story))
	}
	if task.ExecutorType != "" {
		rules = append(rules, fmt.Sprintf("Task Executor: %s", task.ExecutorType))
	}
	return &Result{
		Rules:    rules,
		Metadata: Metadata{TaskID: taskID},
	}, nil
}
