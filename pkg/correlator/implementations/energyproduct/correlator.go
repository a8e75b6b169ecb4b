// Package energyproduct estimates track offsets with a brute-force scan:
// for every candidate shift, both profiles are sampled on a fixed grid
// and the mean of their energy products is taken as the similarity score.
//
// The product form is robust against absolute loudness differences
// between recordings (a quiet camera mic still correlates with a loud
// one) and needs no normalization pass over the profiles.
package energyproduct

import (
	"context"
	"math"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/xaionaro-go/multicam/pkg/correlator"
	"github.com/xaionaro-go/multicam/pkg/energy"
	"github.com/xaionaro-go/observability"
)

type Correlator struct {
	// MaxOffset bounds the search to [-MaxOffset, +MaxOffset] seconds.
	MaxOffset float64
	// Step is both the candidate spacing and the sampling grid step.
	Step float64
	// Workers caps the goroutines scoring candidates; 0 means NumCPU.
	Workers int
}

var _ correlator.Correlator = (*Correlator)(nil)

func NewCorrelator() *Correlator {
	return &Correlator{
		// A ±30s range at 0.1s steps (601 candidates) is enough for
		// cameras started within half a minute of each other; finer steps
		// grow the cost quadratically with no benefit for cut-level sync.
		MaxOffset: 30.0,
		Step:      0.1,
	}
}

func (c *Correlator) BestOffset(
	ctx context.Context,
	reference energy.Profile,
	comparison energy.Profile,
) (correlator.Result, error) {
	if len(reference) == 0 || len(comparison) == 0 {
		return correlator.Result{}, nil
	}

	// Rounding instead of truncation: 2*30/0.1 is slightly below 600 in
	// float64 and would otherwise lose the last candidate.
	numCandidates := int(math.Round(2*c.MaxOffset/c.Step)) + 1
	scores := make([]float64, numCandidates)

	// Each candidate's score is independent, so the scan parallelizes
	// across workers; the winner selection below stays deterministic.
	workers := c.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > numCandidates {
		workers = numCandidates
	}

	var nextCandidate atomic.Int64
	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		observability.Go(ctx, func(ctx context.Context) {
			defer wg.Done()
			for {
				i := int(nextCandidate.Add(1) - 1)
				if i >= numCandidates {
					return
				}
				select {
				case <-ctx.Done():
					return
				default:
				}
				scores[i] = c.score(reference, comparison, c.candidateOffset(i))
			}
		})
	}
	wg.Wait()
	if err := ctx.Err(); err != nil {
		return correlator.Result{}, err
	}

	// Ties resolve to the most negative offset.
	best := 0
	for i := 1; i < numCandidates; i++ {
		if scores[i] > scores[best] {
			best = i
		}
	}
	return correlator.Result{
		Offset: c.candidateOffset(best),
		Score:  scores[best],
	}, nil
}

func (c *Correlator) candidateOffset(i int) float64 {
	return -c.MaxOffset + c.Step*float64(i)
}

// score samples both profiles on the grid over the reference's span and
// accumulates the running mean of the energy products.
func (c *Correlator) score(reference, comparison energy.Profile, shift float64) float64 {
	duration := reference.Duration()
	var sum float64
	var count int
	for t := 0.0; t < duration; t += c.Step {
		sum += reference.At(t) * comparison.At(t+shift)
		count++
	}
	if count == 0 {
		return 0
	}
	return sum / float64(count)
}
