package task_test

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/bshatskih/Thread-Pool/internal/auditlog"
	"github.com/bshatskih/Thread-Pool/internal/console"
	"github.com/bshatskih/Thread-Pool/internal/metrics"
	"github.com/bshatskih/Thread-Pool/internal/pool"
	"github.com/bshatskih/Thread-Pool/internal/task"
)

// TestSortBigVecProducesNonDecreasingResult exercises the re-entrant
// sub-task scenario spec.md §8 describes: a handful of chunk-sort
// sub-tasks submitted back through a small pool, merged into one file.
func TestSortBigVecProducesNonDecreasingResult(t *testing.T) {
	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	defer os.Chdir(wd)

	al, err := auditlog.Open(dir + "/audit.log")
	require.NoError(t, err)
	defer al.Close()

	p := pool.New(pool.Config{InitialWorkers: 2, MaxWorkers: 10},
		zap.NewNop(), al, console.New(), metrics.NewCollector())
	defer p.Shutdown()

	tk := task.NewSortBigVec(6000)
	id, err := p.Submit(tk)
	require.NoError(t, err)

	result, failed := p.WaitForSubTask(id)
	require.False(t, failed)
	require.NotNil(t, result)

	var out strings.Builder
	require.NoError(t, result.Present(&out))
	assert.Contains(t, out.String(), "non-decreasing=true")

	assertFileNonDecreasing(t, fmt.Sprintf("../result_%d.txt", uint64(id)))
}

func assertFileNonDecreasing(t *testing.T, path string) {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	scanner := bufio.NewScanner(f)
	prev := -1
	count := 0
	for scanner.Scan() {
		v, err := strconv.Atoi(scanner.Text())
		require.NoError(t, err)
		assert.GreaterOrEqual(t, v, prev)
		prev = v
		count++
	}
	assert.Greater(t, count, 0)
}
