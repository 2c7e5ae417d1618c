package task_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bshatskih/Thread-Pool/internal/task"
)

func TestComputePrimes(t *testing.T) {
	tk := task.NewComputePrimes(30)
	require.NoError(t, tk.Execute(context.Background()))

	var sb strings.Builder
	require.NoError(t, tk.Present(&sb))

	assert.Equal(t, "2 3 5 7 11 13 17 19 23 29\n", sb.String())
}

func TestComputePrimesBelowTwo(t *testing.T) {
	tk := task.NewComputePrimes(1)
	require.NoError(t, tk.Execute(context.Background()))

	var sb strings.Builder
	require.NoError(t, tk.Present(&sb))
	assert.Equal(t, "\n", sb.String())
}
