package task

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

type Enqueuer interface {
	Enqueue(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

type enqueuerImpl struct {
	client *asynq.Client
}

// NewEnqueuer creates a new Enqueuer instance using asynq.Client.
func NewEnqueuer(client *asynq.Client) Enqueuer {
	return &enqueuerImpl{client: client}
}

func (e *enqueuerImpl) Enqueue(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error) {
	info, err := e.client.EnqueueContext(ctx, task, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to enqueue task: %w", err)
	}
	return info, nil
}

// Publisher is what domain services depend on to schedule background work.
type Publisher interface {
	Dispatch(ctx context.Context, t *asynq.Task, opts ...asynq.Option) (bool, error)
}

// Dispatcher hands tasks to the queue. When the queue cannot accept a task
// the handler registered on the local mux runs in-process instead, so a task
// promised to a caller is executed at least once.
type Dispatcher struct {
	enqueuer Enqueuer
	mux      *asynq.ServeMux
	timeout  time.Duration
	wg       sync.WaitGroup
}

func NewDispatcher(enqueuer Enqueuer, mux *asynq.ServeMux, timeout time.Duration) *Dispatcher {
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	return &Dispatcher{enqueuer: enqueuer, mux: mux, timeout: timeout}
}

// Dispatch reports whether the task went to the queue. A duplicate task id
// counts as queued.
func (d *Dispatcher) Dispatch(ctx context.Context, t *asynq.Task, opts ...asynq.Option) (bool, error) {
	info, err := d.enqueuer.Enqueue(ctx, t, opts...)
	if err == nil {
		zap.L().Debug("task enqueued", zap.String("task_type", t.Type()), zap.String("task_id", info.ID), zap.String("queue", info.Queue))
		return true, nil
	}
	if errors.Is(err, asynq.ErrTaskIDConflict) || errors.Is(err, asynq.ErrDuplicateTask) {
		zap.L().Debug("task already scheduled", zap.String("task_type", t.Type()))
		return true, nil
	}

	if d.mux == nil {
		return false, err
	}
	if _, pattern := d.mux.Handler(t); pattern == "" {
		return false, fmt.Errorf("no local handler for %s: %w", t.Type(), err)
	}

	zap.L().Warn("enqueue failed, running task in-process", zap.String("task_type", t.Type()), zap.Error(err))

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		runCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), d.timeout)
		defer cancel()
		if err := d.mux.ProcessTask(runCtx, t); err != nil {
			zap.L().Error("in-process task failed", zap.String("task_type", t.Type()), zap.Error(err))
		}
	}()
	return false, nil
}

// Wait blocks until in-process fallbacks finish.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}
