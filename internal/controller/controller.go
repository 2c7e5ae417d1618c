// ============================================================================
// Controller — deadlock detection and elastic worker growth
// ============================================================================
//
// Package: internal/controller
// File: controller.go
// Purpose: Watch the worker roster for a simultaneous-stall condition and
// grow it elastically, up to pool.MaxWorkers, to relieve it.
//
// Detection rule (spec.md §4.4): on a fixed sampling interval, compare
// the roster's active worker count W against its waiting count S. If
// W == S and W > 0 — every worker in the roster is blocked on a
// re-entrant sub-task's completion at the same instant — the roster has
// deadlocked itself and cannot make progress without a new worker to
// pick up the queued sub-tasks. This is approximate: it is a snapshot
// comparison on a timer, not a true distributed deadlock proof, and a
// roster that oscillates in and out of the all-waiting state faster than
// the sampling interval can evade detection. spec.md §9 accepts this
// approximation explicitly.
//
// ============================================================================

package controller

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/bshatskih/Thread-Pool/internal/auditlog"
	"github.com/bshatskih/Thread-Pool/internal/metrics"
	"github.com/bshatskih/Thread-Pool/internal/pool"
)

// Pool is the subset of *pool.Pool the controller needs. Declared as an
// interface so controller tests can drive a fake roster without spinning
// up real worker goroutines.
type Pool interface {
	ActiveWorkerCount() int
	WaitingCount() int
	Expand() (newSize int, grew bool)
}

// Controller samples a Pool on Interval and expands it on detected stall.
type Controller struct {
	p        Pool
	interval time.Duration
	auditLog *auditlog.AuditLog
	logger   *zap.Logger
	metrics  *metrics.Collector

	stopOnce sync.Once
	stopCh   chan struct{}
	doneCh   chan struct{}
}

// New builds a Controller sampling p every interval. interval defaults to
// 100ms if zero, matching spec.md §4.4's stated sampling cadence.
func New(p Pool, interval time.Duration, al *auditlog.AuditLog, logger *zap.Logger, coll *metrics.Collector) *Controller {
	if interval <= 0 {
		interval = 100 * time.Millisecond
	}
	return &Controller{
		p:        p,
		interval: interval,
		auditLog: al,
		logger:   logger,
		metrics:  coll,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start launches the sampling loop in its own goroutine.
func (c *Controller) Start() {
	go c.loop()
}

// Stop signals the sampling loop to exit and waits for it to do so.
func (c *Controller) Stop() {
	c.stopOnce.Do(func() { close(c.stopCh) })
	<-c.doneCh
}

func (c *Controller) loop() {
	defer close(c.doneCh)
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-c.stopCh:
			return
		case <-ticker.C:
			c.sample()
		}
	}
}

func (c *Controller) sample() {
	active := c.p.ActiveWorkerCount()
	waiting := c.p.WaitingCount()

	if active == 0 || waiting != active {
		return
	}

	now := time.Now()
	note := c.diagnosticNote()

	newSize, grew := c.p.Expand()
	if grew {
		c.auditLog.DeadlockExpansion(now, active, newSize, note)
		c.metrics.ObserveExpansion()
		c.logger.Warn("deadlock detected, roster expanded",
			zap.Int("stalled_workers", active),
			zap.Int("new_roster_size", newSize),
			zap.String("diagnostic", note))
		return
	}

	c.auditLog.ExpansionRefused(now, active)
	c.logger.Error("deadlock detected at worker cap, could not expand",
		zap.Int("stalled_workers", active))
}

// diagnosticNote takes a one-shot host CPU/memory snapshot to attach to
// the deadlock log entry, so a stall is recorded together with the
// system load that may explain it (e.g. the box was swapping, not the
// scheduler's fault).
func (c *Controller) diagnosticNote() string {
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	percents, err := cpu.PercentWithContext(ctx, 0, false)
	cpuPct := -1.0
	if err == nil && len(percents) > 0 {
		cpuPct = percents[0]
	}

	memPct := -1.0
	if vm, err := mem.VirtualMemoryWithContext(ctx); err == nil {
		memPct = vm.UsedPercent
	}

	return fmt.Sprintf("host cpu=%.1f%% mem=%.1f%%", cpuPct, memPct)
}

var _ Pool = (*pool.Pool)(nil)
