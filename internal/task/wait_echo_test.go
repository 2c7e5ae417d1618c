package task_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bshatskih/Thread-Pool/internal/task"
)

func TestWaitEchoSleepsThenRendersMessage(t *testing.T) {
	tk := task.NewWaitEcho(1, "hi")

	start := time.Now()
	require.NoError(t, tk.Execute(context.Background()))
	assert.GreaterOrEqual(t, time.Since(start), time.Second)

	var sb strings.Builder
	require.NoError(t, tk.Present(&sb))
	assert.Equal(t, "hi\n", sb.String())
}
