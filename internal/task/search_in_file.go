package task

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/bshatskih/Thread-Pool/internal/pool"
)

// SearchInFile streams Path line by line, looking for Phrase with the
// Knuth-Morris-Pratt algorithm rather than loading the file whole, so it
// scales to files far larger than memory. Present additionally offers
// one interactive Y/N follow-up — show context around the first match —
// carried over from the original source's interactive file-search task.
// Present must only ever run on the submitter thread, since it reads
// stdin; a worker goroutine calling it would race that read against the
// REPL's own.
type SearchInFile struct {
	pool.Base
	Path   string
	Phrase string

	matchLines []int
	firstLine  string
}

// NewSearchInFile constructs a SearchInFile task.
func NewSearchInFile(path, phrase string) *SearchInFile {
	return &SearchInFile{
		Base:   pool.NewBase(fmt.Sprintf("search_in_file %s %q", path, phrase)),
		Path:   path,
		Phrase: phrase,
	}
}

// Execute scans Path line by line and records every line containing Phrase.
func (t *SearchInFile) Execute(ctx context.Context) error {
	f, err := os.Open(t.Path)
	if err != nil {
		return fmt.Errorf("search_in_file: open %s: %w", t.Path, err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		if kmpContains(line, t.Phrase) {
			t.matchLines = append(t.matchLines, lineNo)
			if t.firstLine == "" {
				t.firstLine = line
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("search_in_file: scan %s: %w", t.Path, err)
	}
	return nil
}

// Present prints the matching line numbers, then offers to show the
// lines surrounding the first match.
func (t *SearchInFile) Present(sink io.Writer) error {
	if len(t.matchLines) == 0 {
		fmt.Fprintln(sink, "no matches")
		return nil
	}
	fmt.Fprintf(sink, "%d matches at lines:", len(t.matchLines))
	for _, ln := range t.matchLines {
		fmt.Fprintf(sink, " %d", ln)
	}
	fmt.Fprintln(sink)

	fmt.Fprint(sink, "show context around first match? (y/n): ")
	reader := bufio.NewReader(os.Stdin)
	reply, _ := reader.ReadString('\n')
	reply = strings.TrimSpace(strings.ToLower(reply))
	if reply != "y" && reply != "yes" {
		return nil
	}
	return t.printContext(sink)
}

// printContext re-reads Path (the cost of streaming is paid once at
// Execute time; context display is rare enough not to warrant buffering
// the whole file for it) and prints up to two lines on either side of
// the first match.
func (t *SearchInFile) printContext(sink io.Writer) error {
	f, err := os.Open(t.Path)
	if err != nil {
		return fmt.Errorf("search_in_file: reopen %s: %w", t.Path, err)
	}
	defer f.Close()

	const radius = 2
	target := t.matchLines[0]
	lo, hi := target-radius, target+radius

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		if lineNo < lo {
			continue
		}
		if lineNo > hi {
			break
		}
		marker := "  "
		if lineNo == target {
			marker = "> "
		}
		fmt.Fprintf(sink, "%s%d: %s\n", marker, lineNo, scanner.Text())
	}
	return scanner.Err()
}

// kmpContains reports whether pattern occurs anywhere in text, using the
// Knuth-Morris-Pratt failure-function algorithm rather than a naive
// O(n*m) scan.
func kmpContains(text, pattern string) bool {
	if pattern == "" {
		return true
	}
	lps := kmpFailure(pattern)
	i, j := 0, 0
	for i < len(text) {
		if text[i] == pattern[j] {
			i++
			j++
			if j == len(pattern) {
				return true
			}
			continue
		}
		if j != 0 {
			j = lps[j-1]
			continue
		}
		i++
	}
	return false
}

// kmpFailure builds the "longest proper prefix that is also a suffix"
// table KMP uses to avoid re-scanning text on a mismatch.
func kmpFailure(pattern string) []int {
	lps := make([]int, len(pattern))
	length := 0
	i := 1
	for i < len(pattern) {
		if pattern[i] == pattern[length] {
			length++
			lps[i] = length
			i++
			continue
		}
		if length != 0 {
			length = lps[length-1]
			continue
		}
		lps[i] = 0
		i++
	}
	return lps
}
