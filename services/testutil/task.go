package testutil

import (
	"context"
	"sync"
	"time"

	"github.com/hibiken/asynq"
)

// RecordingDispatcher captures dispatched tasks. When Mux is set the task is
// also executed synchronously, which keeps end-to-end tests deterministic.
type RecordingDispatcher struct {
	Mux *asynq.ServeMux

	mu    sync.Mutex
	tasks []*asynq.Task
	opts  [][]asynq.Option
}

func (d *RecordingDispatcher) Dispatch(ctx context.Context, t *asynq.Task, opts ...asynq.Option) (bool, error) {
	d.mu.Lock()
	d.tasks = append(d.tasks, t)
	d.opts = append(d.opts, opts)
	d.mu.Unlock()

	if d.Mux != nil {
		if err := d.Mux.ProcessTask(ctx, t); err != nil {
			return true, err
		}
	}
	return true, nil
}

func (d *RecordingDispatcher) Tasks() []*asynq.Task {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]*asynq.Task(nil), d.tasks...)
}

// TasksOf returns the dispatched tasks of the given type.
func (d *RecordingDispatcher) TasksOf(taskType string) []*asynq.Task {
	var out []*asynq.Task
	for _, t := range d.Tasks() {
		if t.Type() == taskType {
			out = append(out, t)
		}
	}
	return out
}

// FixedClock returns a clock frozen at t.
func FixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}
