package pool_test

import (
	"context"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/bshatskih/Thread-Pool/internal/auditlog"
	"github.com/bshatskih/Thread-Pool/internal/console"
	"github.com/bshatskih/Thread-Pool/internal/metrics"
	"github.com/bshatskih/Thread-Pool/internal/pool"
)

// noopTask completes instantly, optionally returning an error.
type noopTask struct {
	pool.Base
	fail bool
}

func newNoopTask(desc string, fail bool) *noopTask {
	return &noopTask{Base: pool.NewBase(desc), fail: fail}
}

func (t *noopTask) Execute(ctx context.Context) error {
	if t.fail {
		return fmt.Errorf("boom")
	}
	return nil
}

func (t *noopTask) Present(sink io.Writer) error {
	fmt.Fprintln(sink, "ok")
	return nil
}

func newTestPool(t *testing.T, workers int) *pool.Pool {
	t.Helper()
	logPath := fmt.Sprintf("%s/audit.log", t.TempDir())
	al, err := auditlog.Open(logPath)
	require.NoError(t, err)
	t.Cleanup(func() { al.Close() })

	p := pool.New(pool.Config{InitialWorkers: workers, MaxWorkers: 10},
		zap.NewNop(), al, console.New(), metrics.NewCollector())
	t.Cleanup(p.Shutdown)
	return p
}

func TestSubmitAssignsIncreasingIDs(t *testing.T) {
	p := newTestPool(t, 2)

	var ids []pool.TaskID
	for i := 0; i < 5; i++ {
		id, err := p.Submit(newNoopTask("noop", false))
		require.NoError(t, err)
		ids = append(ids, id)
	}

	for i, id := range ids {
		assert.Equal(t, pool.TaskID(i+1), id)
	}
}

func TestWaitUntilDrainedReachesEquality(t *testing.T) {
	p := newTestPool(t, 3)

	for i := 0; i < 10; i++ {
		_, err := p.Submit(newNoopTask("noop", false))
		require.NoError(t, err)
	}

	p.WaitUntilDrained()
	assert.Equal(t, 0, p.WorkingCount())
	assert.True(t, p.Paused())

	for i := 1; i <= 10; i++ {
		var out strings.Builder
		p.AwaitResultByID(pool.TaskID(i), &out)
		assert.Contains(t, out.String(), fmt.Sprintf("Result [%d]:", i))
	}
}

func TestFailedTaskReportsFailureNotice(t *testing.T) {
	p := newTestPool(t, 1)

	id, err := p.Submit(newNoopTask("boom", true))
	require.NoError(t, err)

	p.WaitUntilDrained()

	var out strings.Builder
	p.AwaitResultByID(id, &out)
	assert.Contains(t, out.String(), fmt.Sprintf("task %d failed", uint64(id)))
}

func TestPauseStopsNewDispatch(t *testing.T) {
	p := newTestPool(t, 1)
	p.Pause()

	_, err := p.Submit(newNoopTask("noop", false))
	require.NoError(t, err)

	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 0, p.WorkingCount())

	p.Resume()
	p.WaitUntilDrained()
}

func TestUnknownIDReported(t *testing.T) {
	p := newTestPool(t, 1)
	var out strings.Builder
	p.AwaitResultByID(pool.TaskID(999), &out)
	assert.Contains(t, out.String(), "unknown task id: 999")
}

func TestPurgeCompletedLeavesErrorSetIntact(t *testing.T) {
	p := newTestPool(t, 1)

	okID, err := p.Submit(newNoopTask("noop", false))
	require.NoError(t, err)
	failID, err := p.Submit(newNoopTask("boom", true))
	require.NoError(t, err)

	p.WaitUntilDrained()
	p.PurgeCompleted()

	var out strings.Builder
	p.AwaitResultByID(failID, &out)
	assert.Contains(t, out.String(), "failed")

	out.Reset()
	p.AwaitResultByID(okID, &out)
	assert.Contains(t, out.String(), "still processing")
}
