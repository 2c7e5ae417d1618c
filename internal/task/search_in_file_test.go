package task_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bshatskih/Thread-Pool/internal/task"
)

func TestSearchInFileFindsAllMatchingLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "haystack.txt")
	content := "alpha needle one\nbeta\ngamma needle two\ndelta\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	tk := task.NewSearchInFile(path, "needle")
	require.NoError(t, tk.Execute(context.Background()))

	// Present prompts for a Y/N follow-up on stdin; decline it.
	stdin, w, err := os.Pipe()
	require.NoError(t, err)
	_, err = w.WriteString("n\n")
	require.NoError(t, err)
	w.Close()

	origStdin := os.Stdin
	os.Stdin = stdin
	defer func() { os.Stdin = origStdin }()

	var out strings.Builder
	require.NoError(t, tk.Present(&out))

	assert.Contains(t, out.String(), "2 matches at lines: 1 3")
}

func TestSearchInFileNoMatches(t *testing.T) {
	path := filepath.Join(t.TempDir(), "haystack.txt")
	require.NoError(t, os.WriteFile(path, []byte("nothing here\n"), 0o644))

	tk := task.NewSearchInFile(path, "needle")
	require.NoError(t, tk.Execute(context.Background()))

	var out strings.Builder
	require.NoError(t, tk.Present(&out))
	assert.Equal(t, "no matches\n", out.String())
}
