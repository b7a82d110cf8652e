// Package compare implements the three pluggable output comparators:
// line-by-line token comparison, real-number comparison with an epsilon,
// and (via the specialjudge package) an externally invoked judge.
package compare

import (
	"context"

	"judgecore/internal/verdict"
)

// Result is a comparator's judgment of one output file against a reference.
type Result struct {
	Score   int
	Kind    verdict.ResultKind
	Message string
}

// Comparator judges a contestant's output file against the standard output
// file. ctx is polled between units of comparison work so a long-running
// diff over a large output file still observes cancellation promptly.
type Comparator interface {
	Compare(ctx context.Context, contestantPath, standardPath string, fullScore int) (Result, error)
}
