package task_test

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bshatskih/Thread-Pool/internal/task"
)

func TestSortRandomProducesSortedOutput(t *testing.T) {
	tk := task.NewSortRandom(200)
	require.NoError(t, tk.Execute(context.Background()))

	var sb strings.Builder
	require.NoError(t, tk.Present(&sb))

	lines := strings.SplitN(strings.TrimSpace(sb.String()), "\n", 2)
	require.Len(t, lines, 2)
	assert.Equal(t, "200 values:", lines[0])

	fields := strings.Fields(lines[1])
	require.Len(t, fields, 200)

	values := make([]int, len(fields))
	for i, f := range fields {
		v, err := strconv.Atoi(f)
		require.NoError(t, err)
		values[i] = v
	}
	assert.True(t, sort.IntsAreSorted(values))
}
