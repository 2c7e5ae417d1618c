package task

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/bshatskih/Thread-Pool/internal/pool"
)

// WaitEcho sleeps for Seconds, then reports Message. Used in the spec's
// own examples to demonstrate that the pool keeps dispatching other
// tasks while one worker blocks on nothing but a timer.
type WaitEcho struct {
	pool.Base
	Seconds int
	Message string
}

// NewWaitEcho constructs a WaitEcho task.
func NewWaitEcho(seconds int, message string) *WaitEcho {
	return &WaitEcho{
		Base:    pool.NewBase(fmt.Sprintf("wait_echo %d %q", seconds, message)),
		Seconds: seconds,
		Message: message,
	}
}

// Execute blocks for Seconds real seconds via a timer, not a busy loop.
// No in-flight cancellation per spec.md's non-goals, so ctx is accepted
// but not raced against the timer.
func (t *WaitEcho) Execute(ctx context.Context) error {
	timer := time.NewTimer(time.Duration(t.Seconds) * time.Second)
	defer timer.Stop()
	<-timer.C
	return nil
}

// Present prints the message the task was constructed with.
func (t *WaitEcho) Present(sink io.Writer) error {
	fmt.Fprintln(sink, t.Message)
	return nil
}
