// Package task holds the closed set of concrete task kinds the server
// knows how to run: ComputePrimes, SortRandom, WaitEcho, SortBigVec, and
// SearchInFile. Each embeds pool.Base for id/status/pool bookkeeping and
// supplies Execute and Present, per spec.md §4.1/§4.6.
package task

import (
	"context"
	"fmt"
	"io"

	"github.com/bshatskih/Thread-Pool/internal/pool"
)

// ComputePrimes sieves every prime up to N (inclusive of the bound, the
// way spec.md's CLI table describes "all primes up to N").
type ComputePrimes struct {
	pool.Base
	N int

	primes []int
}

// NewComputePrimes constructs a ComputePrimes task for n.
func NewComputePrimes(n int) *ComputePrimes {
	return &ComputePrimes{
		Base: pool.NewBase(fmt.Sprintf("compute_primes %d", n)),
		N:    n,
	}
}

// Execute runs a standard sieve of Eratosthenes.
func (t *ComputePrimes) Execute(ctx context.Context) error {
	if t.N < 2 {
		t.primes = nil
		return nil
	}
	sieve := make([]bool, t.N+1)
	for i := 2; i*i <= t.N; i++ {
		if sieve[i] {
			continue
		}
		for j := i * i; j <= t.N; j += i {
			sieve[j] = true
		}
	}
	primes := make([]int, 0, t.N/10+1)
	for i := 2; i <= t.N; i++ {
		if !sieve[i] {
			primes = append(primes, i)
		}
	}
	t.primes = primes
	return nil
}

// Present prints the primes space-separated on one line.
func (t *ComputePrimes) Present(sink io.Writer) error {
	for i, p := range t.primes {
		if i > 0 {
			fmt.Fprint(sink, " ")
		}
		fmt.Fprint(sink, p)
	}
	fmt.Fprintln(sink)
	return nil
}
