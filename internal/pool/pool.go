// ============================================================================
// Pool — scheduler, completion table, error set, lifecycle
// ============================================================================
//
// Package: internal/pool
// File: pool.go
//
// Pool is the scheduler described by spec.md §4.3: a FIFO submission
// queue, a fixed-at-any-instant worker roster dispatching from it, a
// completion table keyed by TaskID, an error set of failed TaskIDs, and
// the pause/resume/drain/shutdown lifecycle. It is built on
// sync.Mutex/sync.Cond rather than channels for the reasons recorded in
// SPEC_FULL.md §5: the controller needs to sample per-worker waiting
// flags without contending with dispatch, pause must gate future
// dispatch without closing anything, and drain must re-check an
// invariant spanning the queue, the roster, and the completion table.
//
// ============================================================================

package pool

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/bshatskih/Thread-Pool/internal/auditlog"
	"github.com/bshatskih/Thread-Pool/internal/console"
	"github.com/bshatskih/Thread-Pool/internal/metrics"
)

// Pool is the task-execution server's core. Construct with New.
type Pool struct {
	logger   *zap.Logger
	auditLog *auditlog.AuditLog
	console  *console.Console
	metrics  *metrics.Collector

	maxWorkers int

	// submission-queue lock: guards queue, paused, shutdown, and the
	// roster slice itself (growing it is a dispatch-affecting change).
	submissionMu   sync.Mutex
	tasksAvailable *sync.Cond
	queue          []Task
	paused         bool
	shutdown       bool
	workers        []*Worker

	// completion lock: guards the completion table and doubles as the
	// drain condition's lock, since both success and failure paths in
	// worker.run already hold it when they have something to broadcast.
	completionMu   sync.Mutex
	drainCond      *sync.Cond
	completion     map[TaskID]Task
	completedCount int

	// error-set lock: guards the set of task ids whose Execute failed.
	errorMu  sync.Mutex
	errorSet map[TaskID]struct{}

	// wait lock: serializes concurrent WaitUntilDrained callers so a
	// second caller can't observe drainCond.Wait returning to a racing
	// first caller's re-check (spec.md §9's unconditional-drain open
	// question resolved this way: callers queue behind one another
	// rather than all racing the same broadcast).
	waitMu sync.Mutex

	// id assignment: TaskIDs increase strictly from 1.
	idMu   sync.Mutex
	nextID TaskID

	workersWG sync.WaitGroup
}

// Config carries the knobs New needs; see internal/config for the
// file/env-backed version used by cmd/taskpool.
type Config struct {
	InitialWorkers int
	MaxWorkers     int
}

// New constructs a Pool with InitialWorkers already running and returns
// it ready to accept Submit calls.
func New(cfg Config, logger *zap.Logger, al *auditlog.AuditLog, cons *console.Console, coll *metrics.Collector) *Pool {
	maxWorkers := cfg.MaxWorkers
	if maxWorkers <= 0 {
		maxWorkers = MaxWorkers
	}

	p := &Pool{
		logger:     logger,
		auditLog:   al,
		console:    cons,
		metrics:    coll,
		maxWorkers: maxWorkers,
		completion: make(map[TaskID]Task),
		errorSet:   make(map[TaskID]struct{}),
	}
	p.tasksAvailable = sync.NewCond(&p.submissionMu)
	p.drainCond = sync.NewCond(&p.completionMu)

	n := cfg.InitialWorkers
	if n <= 0 {
		n = 1
	}
	p.submissionMu.Lock()
	for i := 0; i < n; i++ {
		p.spawnLocked()
	}
	p.submissionMu.Unlock()

	p.auditLog.Startup(n, time.Now())
	p.logger.Info("pool started", zap.Int("initial_workers", n), zap.Int("max_workers", maxWorkers))
	p.reportWorkerGauges()
	return p
}

// spawnLocked adds one worker to the roster and starts its goroutine.
// Caller must hold submissionMu.
func (p *Pool) spawnLocked() *Worker {
	w := newWorker(len(p.workers) + 1)
	p.workers = append(p.workers, w)
	p.workersWG.Add(1)
	go w.run(p)
	return w
}

// Submit enqueues t, assigning it the next TaskID and binding p as its
// Submitter so a re-entrant task can submit sub-tasks of its own.
func (p *Pool) Submit(t Task) (TaskID, error) {
	p.idMu.Lock()
	p.nextID++
	id := p.nextID
	p.idMu.Unlock()

	t.SetID(id)
	t.BindPool(p)

	p.submissionMu.Lock()
	if p.shutdown {
		p.submissionMu.Unlock()
		return 0, fmt.Errorf("pool: shut down, task %d rejected", id)
	}
	p.queue = append(p.queue, t)
	p.tasksAvailable.Broadcast()
	p.submissionMu.Unlock()

	p.auditLog.Submitted(id, t.Description(), time.Now())
	p.metrics.ObserveSubmitted()
	return id, nil
}

// SetCurrentWorkerWaiting implements Submitter: it toggles the waiting
// flag of the worker executing ctx's task, recovered from ctx since Go
// has no introspectable goroutine identity to key a thread-local lookup
// on (see worker.go's header comment).
func (p *Pool) SetCurrentWorkerWaiting(ctx context.Context, waiting bool) {
	if w := workerFromContext(ctx); w != nil {
		w.waiting.Store(waiting)
	}
}

// AwaitResultByID is the Query API's result lookup (spec.md §4.3):
// despite the name, it is non-blocking. Under the completion lock and
// the console lock: if id is in the completion table, it prints
// "Result [id]:" and calls the task's Present; if id is unknown
// (zero, or greater than the last assigned id) it prints an unknown-id
// notice; if id is in the error set it prints a failure notice;
// otherwise it prints that the task is still processing.
func (p *Pool) AwaitResultByID(id TaskID, sink io.Writer) {
	p.idMu.Lock()
	lastID := p.nextID
	p.idMu.Unlock()

	p.completionMu.Lock()
	done, ok := p.completion[id]
	p.completionMu.Unlock()

	p.console.Lock()
	defer p.console.Unlock()

	if ok {
		fmt.Fprintf(sink, "Result [%s]:\n", id)
		if err := done.Present(sink); err != nil {
			fmt.Fprintf(sink, "present error: %v\n", err)
		}
		return
	}
	if id == 0 || id > lastID {
		fmt.Fprintf(sink, "unknown task id: %s\n", id)
		return
	}
	if p.hasErrored(id) {
		fmt.Fprintf(sink, "task %s failed\n", id)
		return
	}
	fmt.Fprintf(sink, "task %s still processing...\n", id)
}

func (p *Pool) hasErrored(id TaskID) bool {
	p.errorMu.Lock()
	defer p.errorMu.Unlock()
	_, ok := p.errorSet[id]
	return ok
}

// WaitForSubTask blocks until id is present in the completion table or
// the error set, then returns the task (nil if it errored) and whether
// it failed. Unlike AwaitResultByID this blocks — it exists only for a
// re-entrant task to wait on sub-tasks it submitted itself, bracketed
// with SetCurrentWorkerWaiting so the controller can see the wait.
func (p *Pool) WaitForSubTask(id TaskID) (t Task, failed bool) {
	p.completionMu.Lock()
	defer p.completionMu.Unlock()
	for {
		if done, ok := p.completion[id]; ok {
			return done, false
		}
		if p.hasErrored(id) {
			return nil, true
		}
		p.drainCond.Wait()
	}
}

// Pause gates future dispatch: workers mid-Execute finish normally, but
// no worker pops a new task from the queue until Resume.
func (p *Pool) Pause() {
	p.submissionMu.Lock()
	p.paused = true
	p.submissionMu.Unlock()
	p.auditLog.Paused(time.Now())
}

// Resume lifts the dispatch gate Pause set.
func (p *Pool) Resume() {
	p.submissionMu.Lock()
	p.paused = false
	p.tasksAvailable.Broadcast()
	p.submissionMu.Unlock()
	p.auditLog.Resumed(time.Now())
}

// Paused reports the current pause gate state.
func (p *Pool) Paused() bool {
	p.submissionMu.Lock()
	defer p.submissionMu.Unlock()
	return p.paused
}

// WaitUntilDrained serializes on waitMu (so only one drain is ever in
// progress), resumes the pool so any paused dispatch can proceed, waits
// until the drain invariant holds (queue empty, no worker running, every
// submitted task accounted for), then pauses again — per spec.md §4.3.
func (p *Pool) WaitUntilDrained() {
	p.waitMu.Lock()
	defer p.waitMu.Unlock()

	p.Resume()

	p.completionMu.Lock()
	for !p.drainedLocked() {
		p.drainCond.Wait()
	}
	p.completionMu.Unlock()

	p.Pause()
}

func (p *Pool) drainedLocked() bool {
	p.errorMu.Lock()
	failed := len(p.errorSet)
	p.errorMu.Unlock()
	p.idMu.Lock()
	submitted := p.nextID
	p.idMu.Unlock()
	if TaskID(p.completedCount+failed) != submitted {
		return false
	}

	p.submissionMu.Lock()
	empty := len(p.queue) == 0
	roster := make([]*Worker, len(p.workers))
	copy(roster, p.workers)
	p.submissionMu.Unlock()
	if !empty {
		return false
	}
	for _, w := range roster {
		if w.Running() {
			return false
		}
	}
	return true
}

// PurgeCompleted clears the completion table so a long-running REPL
// session doesn't accumulate finished records unboundedly. It does not
// touch the error set or any counters (spec.md §4.3) — a purged task id
// that actually failed must still report as failed, not as unknown or
// still-processing, on a later result lookup. Returns the number of
// records removed.
func (p *Pool) PurgeCompleted() int {
	p.completionMu.Lock()
	defer p.completionMu.Unlock()
	n := len(p.completion)
	p.completion = make(map[TaskID]Task)
	return n
}

// WorkingCount returns how many workers in the current roster are inside
// Execute right now.
func (p *Pool) WorkingCount() int {
	p.submissionMu.Lock()
	defer p.submissionMu.Unlock()
	n := 0
	for _, w := range p.workers {
		if w.Running() {
			n++
		}
	}
	return n
}

// WaitingCount returns how many workers are blocked on a re-entrant
// sub-task's completion.
func (p *Pool) WaitingCount() int {
	p.submissionMu.Lock()
	defer p.submissionMu.Unlock()
	n := 0
	for _, w := range p.workers {
		if w.Waiting() {
			n++
		}
	}
	return n
}

// ActiveWorkerCount returns the current roster size, for the controller's
// stall test and the MaxWorkers cap check.
func (p *Pool) ActiveWorkerCount() int {
	p.submissionMu.Lock()
	defer p.submissionMu.Unlock()
	return len(p.workers)
}

// Roster returns a snapshot of the current workers for status reporting
// (the `workers` CLI command; the REPL's `?`/`!` commands use
// WorkingCount and WaitingCount instead).
func (p *Pool) Roster() []*Worker {
	p.submissionMu.Lock()
	defer p.submissionMu.Unlock()
	out := make([]*Worker, len(p.workers))
	copy(out, p.workers)
	return out
}

// Expand grows the roster by one worker, up to MaxWorkers. Returns the
// new roster size, or the unchanged size and false if already at cap.
// Called by the controller when it observes every worker simultaneously
// blocked.
func (p *Pool) Expand() (newSize int, grew bool) {
	p.submissionMu.Lock()
	defer p.submissionMu.Unlock()
	if len(p.workers) >= p.maxWorkers {
		return len(p.workers), false
	}
	p.spawnLocked()
	return len(p.workers), true
}

// reportWorkerGauges pushes the current roster counts into the metrics
// gauges. It is called once, from New; the gauges are not refreshed
// afterwards as workers start or finish tasks, block, or are added.
func (p *Pool) reportWorkerGauges() {
	p.metrics.SetWorkerCounts(p.ActiveWorkerCount(), p.WorkingCount(), p.WaitingCount())
}

// SetLogging toggles the audit log on or off, backing the REPL's
// `log on` / `log off` command.
func (p *Pool) SetLogging(enabled bool) {
	p.auditLog.SetLogging(enabled)
}

// Shutdown drains the pool, then signals every worker to exit once the
// queue is empty, and waits for their goroutines to return. Per
// spec.md §9's open question, shutdown here is unconditional drain with
// no bounded timeout — a future hard-stop path is a documented gap, not
// a feature of this core.
func (p *Pool) Shutdown() {
	p.WaitUntilDrained()

	p.submissionMu.Lock()
	p.shutdown = true
	p.tasksAvailable.Broadcast()
	p.submissionMu.Unlock()

	p.workersWG.Wait()
	p.auditLog.Shutdown(time.Now())
	p.logger.Info("pool shut down")
}
