// ============================================================================
// Worker — task execution unit
// ============================================================================
//
// Package: internal/pool
// File: worker.go
//
// A Worker owns one goroutine and two independent atomic flags observable
// by the Controller without contending with dispatch:
//   - running: true for the duration of Task.Execute.
//   - waiting: true while the task body running inside Execute is blocked
//     on a pool-internal condition (re-entrant sub-task submission).
//
// The two flags are kept separate by design: a worker can be running but
// not waiting (the common case), running and waiting (blocked inside a
// re-entrant Execute), or neither (idle, parked on tasksAvailable). They
// must never be collapsed into one enum — the Controller's stall test
// (active worker count == waiting count, summed across the roster) depends
// on telling "idle" apart from "stuck", and both look like "not running"
// from a collapsed state.
//
// ============================================================================

package pool

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// workerCtxKeyType is an unexported key type so only this package can
// stuff a *Worker into a context.Context, and only this package can read
// it back out.
type workerCtxKeyType struct{}

var workerCtxKey workerCtxKeyType

// Worker is one dispatch-loop goroutine. The zero value is not usable;
// construct with newWorker.
type Worker struct {
	id      int
	running atomic.Bool
	waiting atomic.Bool
}

func newWorker(id int) *Worker {
	return &Worker{id: id}
}

// ID returns the worker's position in the roster, stable for its lifetime.
func (w *Worker) ID() int { return w.id }

// Running reports whether the worker is currently inside Task.Execute.
func (w *Worker) Running() bool { return w.running.Load() }

// Waiting reports whether the worker's task body is blocked on a
// pool-internal condition (re-entrant submission).
func (w *Worker) Waiting() bool { return w.waiting.Load() }

// contextWithWorker attaches w to ctx so a task body can recover it via
// Pool().SetCurrentWorkerWaiting without goroutine-local storage, which Go
// does not expose.
func contextWithWorker(ctx context.Context, w *Worker) context.Context {
	return context.WithValue(ctx, workerCtxKey, w)
}

func workerFromContext(ctx context.Context) *Worker {
	w, _ := ctx.Value(workerCtxKey).(*Worker)
	return w
}

// run is the worker's main loop:
//  1. wait on tasksAvailable until (queue non-empty && !paused) || shutdown
//  2. if shutdown and no work is actually available, exit
//  3. pop the head, mark running, release the submission lock
//  4. invoke Execute under a panic-recovering guard
//  5. on success, file into the completion table and broadcast drain
//  6. on failure, add the id to the error set and broadcast drain
func (w *Worker) run(p *Pool) {
	defer p.workersWG.Done()

	for {
		p.submissionMu.Lock()
		for !((len(p.queue) > 0 && !p.paused) || p.shutdown) {
			p.tasksAvailable.Wait()
		}
		if p.shutdown && !(len(p.queue) > 0 && !p.paused) {
			p.submissionMu.Unlock()
			return
		}
		t := p.queue[0]
		p.queue = p.queue[1:]
		w.running.Store(true)
		p.submissionMu.Unlock()

		start := time.Now()
		err := w.executeGuarded(p, t)
		end := time.Now()

		if err == nil {
			t.SetStatus(StatusCompleted)
			p.auditLog.TaskCompleted(t.ID(), t.Description(), start, end)
			p.metrics.ObserveCompleted(taskKind(t.Description()), end.Sub(start))

			p.completionMu.Lock()
			p.completion[t.ID()] = t
			p.completedCount++
			w.running.Store(false)
			p.drainCond.Broadcast()
			p.completionMu.Unlock()
			continue
		}

		p.auditLog.TaskFailed(t.ID(), t.Description(), err)
		p.metrics.ObserveFailed(taskKind(t.Description()))
		p.logger.Warn("task failed",
			zap.Uint64("task_id", uint64(t.ID())),
			zap.String("description", t.Description()),
			zap.Error(err))

		p.errorMu.Lock()
		p.errorSet[t.ID()] = struct{}{}
		p.errorMu.Unlock()

		w.running.Store(false)
		p.completionMu.Lock()
		p.drainCond.Broadcast()
		p.completionMu.Unlock()
	}
}

// taskKind returns description's command verb (its first whitespace-
// separated field) for use as a low-cardinality metrics label — the full
// description carries the task's arguments (e.g. "wait_echo 5 hi") and
// would otherwise give the duration histogram one time series per
// distinct argument.
func taskKind(description string) string {
	if i := strings.IndexByte(description, ' '); i >= 0 {
		return description[:i]
	}
	return description
}

// executeGuarded runs t.Execute, converting a panic into an error the way
// the error taxonomy's catch-all ("Unknown error in task id: K") expects.
func (w *Worker) executeGuarded(p *Pool, t Task) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("Unknown error in task id: %d (%v)", t.ID(), r)
		}
	}()
	ctx := contextWithWorker(context.Background(), w)
	return t.Execute(ctx)
}
