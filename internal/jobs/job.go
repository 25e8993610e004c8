// Package jobs runs blocking work off the UI goroutine and hands results back to it.
package jobs

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync/atomic"

	"github.com/google/uuid"
)

// ErrAlreadySubmitted is returned when a job is submitted a second time.
var ErrAlreadySubmitted = errors.New("job already submitted")

// PanicError reports a panic recovered from a job body.
type PanicError struct {
	Job   string
	Value interface{}
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("job %s panicked: %v", e.Job, e.Value)
}

// Runner is a unit of work the Dispatcher can execute. It is implemented by *Job[T].
type Runner interface {
	ID() string
	Name() string

	// claim marks the runner as submitted; false if it already was
	claim() bool
	// execute runs the body and returns the completion callback to deliver
	execute(ctx context.Context) func()
	// abandon returns the failure callback for a job that will never run
	abandon(err error) func()
}

// Job runs one function and reports its outcome to exactly one of two callbacks,
// exactly once.
type Job[T any] struct {
	id        string
	name      string
	run       func(ctx context.Context) (T, error)
	onSuccess func(T)
	onFailure func(error)

	claimed atomic.Bool
	settled atomic.Bool
}

// New creates a job. Either callback may be nil.
func New[T any](name string, run func(ctx context.Context) (T, error), onSuccess func(T), onFailure func(error)) *Job[T] {
	return &Job[T]{
		id:        uuid.NewString(),
		name:      name,
		run:       run,
		onSuccess: onSuccess,
		onFailure: onFailure,
	}
}

// ID returns the job's unique ID.
func (j *Job[T]) ID() string { return j.id }

// Name returns the job's display name.
func (j *Job[T]) Name() string { return j.name }

func (j *Job[T]) claim() bool {
	return j.claimed.CompareAndSwap(false, true)
}

func (j *Job[T]) execute(ctx context.Context) func() {
	result, err := j.safeRun(ctx)
	if err != nil {
		return j.failure(err)
	}
	return j.success(result)
}

func (j *Job[T]) abandon(err error) func() {
	return j.failure(err)
}

func (j *Job[T]) safeRun(ctx context.Context) (result T, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &PanicError{Job: j.name, Value: r, Stack: debug.Stack()}
		}
	}()
	if j.run == nil {
		return result, fmt.Errorf("job %s has no body", j.name)
	}
	return j.run(ctx)
}

func (j *Job[T]) success(result T) func() {
	return func() {
		if !j.settled.CompareAndSwap(false, true) {
			return
		}
		if j.onSuccess != nil {
			j.onSuccess(result)
		}
	}
}

func (j *Job[T]) failure(err error) func() {
	return func() {
		if !j.settled.CompareAndSwap(false, true) {
			return
		}
		if j.onFailure != nil {
			j.onFailure(err)
		}
	}
}
