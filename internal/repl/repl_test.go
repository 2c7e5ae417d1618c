package repl_test

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/bshatskih/Thread-Pool/internal/auditlog"
	"github.com/bshatskih/Thread-Pool/internal/console"
	"github.com/bshatskih/Thread-Pool/internal/metrics"
	"github.com/bshatskih/Thread-Pool/internal/pool"
	"github.com/bshatskih/Thread-Pool/internal/repl"
)

func newTestREPL(t *testing.T, in string) (*repl.REPL, *strings.Builder) {
	t.Helper()
	al, err := auditlog.Open(fmt.Sprintf("%s/audit.log", t.TempDir()))
	require.NoError(t, err)
	t.Cleanup(func() { al.Close() })

	p := pool.New(pool.Config{InitialWorkers: 2, MaxWorkers: 10},
		zap.NewNop(), al, console.New(), metrics.NewCollector())

	var out strings.Builder
	r := repl.New(strings.NewReader(in), &out, console.New(), p, zap.NewNop())
	return r, &out
}

func TestREPLComputePrimesThenResult(t *testing.T) {
	r, out := newTestREPL(t, "compute_primes 30\nresult 1\nexit\n")
	require.NoError(t, r.Run())
	assert.Contains(t, out.String(), "2 3 5 7 11 13 17 19 23 29")
}

func TestREPLUnknownCommand(t *testing.T) {
	r, _ := newTestREPL(t, "bogus_command\nexit\n")
	require.NoError(t, r.Run())
}

func TestREPLPauseThenStillProcessing(t *testing.T) {
	r, out := newTestREPL(t, "pause\ncompute_primes 10\nresult 1\nstart\nexit\n")
	require.NoError(t, r.Run())
	assert.Contains(t, out.String(), "still processing")
}
