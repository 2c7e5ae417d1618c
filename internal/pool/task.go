package pool

import (
	"context"
	"io"
	"sync"
)

// Submitter is the capability a Task borrows from its owning pool. It is
// bound to a task by Submit, never by the task itself, so a task cannot
// submit anywhere but the pool that dispatched it. Re-entrant tasks use
// Submit to enqueue sub-tasks and SetCurrentWorkerWaiting to tell the
// Controller they are stalled waiting on those sub-tasks rather than
// stuck.
type Submitter interface {
	Submit(t Task) (TaskID, error)
	// SetCurrentWorkerWaiting toggles the waiting flag of the worker
	// executing ctx's task. Go has no introspectable goroutine identity
	// to key a thread-local lookup on, so the executing *Worker travels
	// through ctx instead of being located by thread identity.
	SetCurrentWorkerWaiting(ctx context.Context, waiting bool)
	// WaitForSubTask blocks until id completes or fails, for a
	// re-entrant task waiting on sub-tasks it submitted itself. Bracket
	// the call with SetCurrentWorkerWaiting(ctx, true/false) so the
	// controller can tell a legitimately blocked worker from a stuck one.
	WaitForSubTask(id TaskID) (t Task, failed bool)
}

// Task is the capability every submitted job implements. Task kinds are a
// closed set known at build time (ComputePrimes, SortRandom, WaitEcho,
// SortBigVec, SearchInFile, in package internal/task) — preferable to a
// runtime-registered open set since the kinds are fixed at compile time.
type Task interface {
	ID() TaskID
	SetID(TaskID)
	Description() string
	Status() Status
	SetStatus(Status)

	// BindPool is called by Submit before Execute ever runs, giving a
	// re-entrant task a handle to submit sub-tasks. Tasks that never
	// submit sub-tasks may ignore it.
	BindPool(Submitter)
	Pool() Submitter

	// Execute is the worker's payload. Must be safe to call exactly
	// once. May submit further tasks via Pool() and block on their
	// completion, provided the wait is bracketed with
	// Pool().SetCurrentWorkerWaiting(ctx, true/false).
	Execute(ctx context.Context) error

	// Present renders the task's result to sink. Intended to be called
	// by the submitter thread only, via the pool's AwaitResultByID —
	// never from a worker goroutine, since some task kinds read further
	// input from stdin here and two concurrent Present calls would
	// interleave on it.
	Present(sink io.Writer) error
}

// Base implements the bookkeeping every Task needs: id, description,
// status, and the pool back-reference. Concrete task kinds embed it and
// supply Execute and Present.
type Base struct {
	mu          sync.Mutex
	id          TaskID
	description string
	status      Status
	pool        Submitter
}

// NewBase constructs a Base with the given human-readable description.
// The id and pool back-reference remain zero-valued until Submit binds
// them.
func NewBase(description string) Base {
	return Base{description: description, status: StatusAwaiting}
}

func (b *Base) ID() TaskID { b.mu.Lock(); defer b.mu.Unlock(); return b.id }

func (b *Base) SetID(id TaskID) { b.mu.Lock(); defer b.mu.Unlock(); b.id = id }

func (b *Base) Description() string { return b.description }

func (b *Base) Status() Status { b.mu.Lock(); defer b.mu.Unlock(); return b.status }

func (b *Base) SetStatus(s Status) { b.mu.Lock(); defer b.mu.Unlock(); b.status = s }

func (b *Base) BindPool(s Submitter) { b.mu.Lock(); defer b.mu.Unlock(); b.pool = s }

func (b *Base) Pool() Submitter { b.mu.Lock(); defer b.mu.Unlock(); return b.pool }
