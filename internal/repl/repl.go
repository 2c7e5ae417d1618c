// Package repl implements the standard-input command loop described by
// spec.md §6: one command per line, submitting tasks, querying results,
// and controlling pause/drain/shutdown.
package repl

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/bshatskih/Thread-Pool/internal/console"
	"github.com/bshatskih/Thread-Pool/internal/pool"
	"github.com/bshatskih/Thread-Pool/internal/task"
)

// REPL drives the command loop against a *pool.Pool.
type REPL struct {
	in      *bufio.Scanner
	out     io.Writer
	console *console.Console
	pool    *pool.Pool
	logger  *zap.Logger
}

// New builds a REPL reading from in and writing results/errors to out.
func New(in io.Reader, out io.Writer, cons *console.Console, p *pool.Pool, logger *zap.Logger) *REPL {
	return &REPL{
		in:      bufio.NewScanner(in),
		out:     out,
		console: cons,
		pool:    p,
		logger:  logger,
	}
}

// Run reads commands until `exit` or EOF, then drains and shuts down the
// pool, matching spec.md §6's "destructor drains and shuts down".
func (r *REPL) Run() error {
	for r.in.Scan() {
		line := strings.TrimSpace(r.in.Text())
		if line == "" {
			continue
		}
		if line == "exit" {
			break
		}
		r.dispatch(line)
	}
	if err := r.in.Err(); err != nil {
		return fmt.Errorf("repl: read stdin: %w", err)
	}

	r.pool.WaitUntilDrained()
	r.pool.Shutdown()
	return nil
}

func (r *REPL) dispatch(line string) {
	fields := strings.Fields(line)
	cmd := fields[0]
	args := fields[1:]

	switch cmd {
	case "compute_primes":
		r.submitN(args, func(n int) pool.Task { return task.NewComputePrimes(n) })
	case "sort_random":
		r.submitN(args, func(n int) pool.Task { return task.NewSortRandom(n) })
	case "sort_big_vec":
		r.submitN(args, func(n int) pool.Task { return task.NewSortBigVec(n) })
	case "wait_echo":
		r.submitWaitEcho(args)
	case "search_in_file":
		r.submitSearchInFile(args)
	case "result":
		r.showResult(args)
	case "pause":
		r.pool.Pause()
		r.console.Warn("paused")
	case "start":
		r.pool.Resume()
		r.console.Warn("resumed")
	case "?":
		r.console.Info("%d", r.pool.WorkingCount())
	case "!":
		r.console.Info("%d", r.pool.WaitingCount())
	case "log":
		r.setLogging(args)
	case "purge":
		r.console.Info("purged %d completed records", r.pool.PurgeCompleted())
	default:
		r.console.Error("Error: unknown command %q", cmd)
	}
}

func (r *REPL) submitN(args []string, build func(n int) pool.Task) {
	n, err := parseN(args)
	if err != nil {
		r.console.Error("Error: %v", err)
		return
	}
	r.submit(build(n))
}

// submitWaitEcho parses "wait_echo S MSG"; MSG is everything after S,
// joined back with single spaces, so a multi-word message survives
// Fields' whitespace splitting.
func (r *REPL) submitWaitEcho(args []string) {
	if len(args) < 2 {
		r.console.Error("Error: wait_echo requires S and MSG")
		return
	}
	seconds, err := strconv.Atoi(args[0])
	if err != nil {
		r.console.Error("Error: invalid seconds %q: %v", args[0], err)
		return
	}
	message := strings.Join(args[1:], " ")
	r.submit(task.NewWaitEcho(seconds, message))
}

func (r *REPL) submitSearchInFile(args []string) {
	if len(args) < 2 {
		r.console.Error("Error: search_in_file requires path and phrase")
		return
	}
	r.submit(task.NewSearchInFile(args[0], args[1]))
}

func (r *REPL) submit(t pool.Task) {
	id, err := r.pool.Submit(t)
	if err != nil {
		r.console.Error("Error: %v", err)
		return
	}
	r.console.Success("Task submitted with ID: %d", uint64(id))
}

func (r *REPL) showResult(args []string) {
	if len(args) != 1 {
		r.console.Error("Error: result requires an ID")
		return
	}
	n, err := strconv.ParseUint(args[0], 10, 64)
	if err != nil {
		r.console.Error("Error: invalid id %q: %v", args[0], err)
		return
	}
	r.pool.AwaitResultByID(pool.TaskID(n), r.out)
}

func (r *REPL) setLogging(args []string) {
	if len(args) != 1 || (args[0] != "on" && args[0] != "off") {
		r.console.Error("Error: log requires \"on\" or \"off\"")
		return
	}
	r.pool.SetLogging(args[0] == "on")
	r.console.Warn("logging %s", args[0])
}

func parseN(args []string) (int, error) {
	if len(args) != 1 {
		return 0, fmt.Errorf("expected a single integer argument")
	}
	n, err := strconv.Atoi(args[0])
	if err != nil {
		return 0, fmt.Errorf("invalid integer %q: %w", args[0], err)
	}
	return n, nil
}
