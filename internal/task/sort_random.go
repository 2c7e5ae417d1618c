package task

import (
	"context"
	"fmt"
	"io"
	"math/rand"
	"sort"

	"github.com/bshatskih/Thread-Pool/internal/pool"
)

// SortRandom generates N random uint16 values and sorts them in memory.
// Small enough to never need re-entrant sub-task submission — that's
// what distinguishes it from SortBigVec.
type SortRandom struct {
	pool.Base
	N int

	values []uint16
}

// NewSortRandom constructs a SortRandom task for n values.
func NewSortRandom(n int) *SortRandom {
	return &SortRandom{
		Base: pool.NewBase(fmt.Sprintf("sort_random %d", n)),
		N:    n,
	}
}

// Execute fills values with n random uint16s and sorts them ascending.
func (t *SortRandom) Execute(ctx context.Context) error {
	values := make([]uint16, t.N)
	for i := range values {
		values[i] = uint16(rand.Intn(1 << 16))
	}
	sort.Slice(values, func(i, j int) bool { return values[i] < values[j] })
	t.values = values
	return nil
}

// Present prints the count followed by the sorted sequence.
func (t *SortRandom) Present(sink io.Writer) error {
	fmt.Fprintf(sink, "%d values:\n", len(t.values))
	for i, v := range t.values {
		if i > 0 {
			fmt.Fprint(sink, " ")
		}
		fmt.Fprint(sink, v)
	}
	fmt.Fprintln(sink)
	return nil
}
