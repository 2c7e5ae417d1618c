// ============================================================================
// Console — serialized REPL output
// ============================================================================
//
// Package: internal/console
// File: console.go
//
// Console wraps stdout behind the single "console lock" spec.md §5 names,
// so the REPL's status lines and the pool's result output never
// interleave mid-line. Colored via
// github.com/fatih/color the way a human operator benefits from at a
// terminal; color is a no-op when stdout isn't a tty (color detects that
// itself).
package console

import (
	"fmt"
	"sync"

	"github.com/fatih/color"
)

// Console is a mutex-guarded, colorized line writer.
type Console struct {
	mu sync.Mutex
}

// New returns a ready Console.
func New() *Console {
	return &Console{}
}

// Info prints an ordinary status line.
func (c *Console) Info(format string, args ...any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Println(fmt.Sprintf(format, args...))
}

// Success prints a line in green, used for task results and confirmations.
func (c *Console) Success(format string, args ...any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	color.Green(format, args...)
}

// Warn prints a line in yellow, used for pause/resume and advisory notices.
func (c *Console) Warn(format string, args ...any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	color.Yellow(format, args...)
}

// Error prints a line in red, used for task failures and bad commands.
func (c *Console) Error(format string, args ...any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	color.Red(format, args...)
}

// Prompt prints the formatted text, with no trailing newline, while
// holding the console lock. It does not read a reply from stdin.
func (c *Console) Prompt(format string, args ...any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Printf(format, args...)
}

// Lock and Unlock expose the console lock directly for callers that need
// a longer atomic section: the pool's AwaitResultByID holds it around a
// task's Present, which for search_in_file prints a prompt and then
// reads a reply from stdin.
func (c *Console) Lock()   { c.mu.Lock() }
func (c *Console) Unlock() { c.mu.Unlock() }
