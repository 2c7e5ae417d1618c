package controller_test

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/bshatskih/Thread-Pool/internal/auditlog"
	"github.com/bshatskih/Thread-Pool/internal/controller"
	"github.com/bshatskih/Thread-Pool/internal/metrics"
)

// fakePool drives the controller's stall test without real worker
// goroutines: tests set active/waiting directly and observe Expand calls.
type fakePool struct {
	mu          sync.Mutex
	active      int
	waiting     int
	max         int
	expandCalls int
}

func (f *fakePool) ActiveWorkerCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.active
}

func (f *fakePool) WaitingCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.waiting
}

func (f *fakePool) Expand() (int, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.expandCalls++
	if f.active >= f.max {
		return f.active, false
	}
	f.active++
	f.waiting = 0
	return f.active, true
}

func newTestController(t *testing.T, p controller.Pool) *controller.Controller {
	t.Helper()
	al, err := auditlog.Open(t.TempDir() + "/audit.log")
	require.NoError(t, err)
	t.Cleanup(func() { al.Close() })
	return controller.New(p, 20*time.Millisecond, al, zap.NewNop(), metrics.NewCollector())
}

func TestControllerExpandsOnUniformStall(t *testing.T) {
	fp := &fakePool{active: 2, waiting: 2, max: 10}
	ctl := newTestController(t, fp)
	ctl.Start()
	defer ctl.Stop()

	assert.Eventually(t, func() bool {
		fp.mu.Lock()
		defer fp.mu.Unlock()
		return fp.active == 3
	}, 500*time.Millisecond, 10*time.Millisecond)
}

func TestControllerIgnoresPartialStall(t *testing.T) {
	fp := &fakePool{active: 3, waiting: 2, max: 10}
	ctl := newTestController(t, fp)
	ctl.Start()
	defer ctl.Stop()

	time.Sleep(100 * time.Millisecond)

	fp.mu.Lock()
	defer fp.mu.Unlock()
	assert.Equal(t, 0, fp.expandCalls)
}

func TestControllerRefusesExpansionAtCap(t *testing.T) {
	fp := &fakePool{active: 5, waiting: 5, max: 5}
	ctl := newTestController(t, fp)
	ctl.Start()
	defer ctl.Stop()

	assert.Eventually(t, func() bool {
		fp.mu.Lock()
		defer fp.mu.Unlock()
		return fp.expandCalls > 0
	}, 500*time.Millisecond, 10*time.Millisecond)

	fp.mu.Lock()
	defer fp.mu.Unlock()
	assert.Equal(t, 5, fp.active)
}
