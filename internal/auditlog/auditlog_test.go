package auditlog_test

import (
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bshatskih/Thread-Pool/internal/auditlog"
)

type fakeID struct{ s string }

func (f fakeID) String() string { return f.s }

func TestOpenTruncatesOnReopen(t *testing.T) {
	path := fmt.Sprintf("%s/audit.log", t.TempDir())

	al, err := auditlog.Open(path)
	require.NoError(t, err)
	al.Startup(2, time.Now())
	require.NoError(t, al.Close())

	al2, err := auditlog.Open(path)
	require.NoError(t, err)
	defer al2.Close()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Empty(t, data)
}

func TestSetLoggingDisablesWrites(t *testing.T) {
	path := fmt.Sprintf("%s/audit.log", t.TempDir())
	al, err := auditlog.Open(path)
	require.NoError(t, err)
	defer al.Close()

	al.SetLogging(false)
	al.Paused(time.Now())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Empty(t, data)

	al.SetLogging(true)
	al.Resumed(time.Now())

	data, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "dispatch resumed")
}

func TestTaskCompletedIncludesDescription(t *testing.T) {
	path := fmt.Sprintf("%s/audit.log", t.TempDir())
	al, err := auditlog.Open(path)
	require.NoError(t, err)
	defer al.Close()

	start := time.Now()
	al.TaskCompleted(fakeID{"7"}, "compute_primes 30", start, start.Add(time.Millisecond))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "task 7 completed")
	assert.Contains(t, string(data), "compute_primes 30")
}
