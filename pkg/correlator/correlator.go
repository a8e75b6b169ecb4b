package correlator

import (
	"context"

	"github.com/xaionaro-go/multicam/pkg/energy"
)

type Result struct {
	Offset float64 // Seconds to add to the comparison track's timestamps to align it with the reference (positive means the comparison runs behind).
	Score  float64 // Similarity score the winning offset achieved.
}

// Correlator estimates the time offset between two energy profiles.
type Correlator interface {
	// BestOffset returns the offset of the comparison profile relative to
	// the reference profile that maximizes their similarity. An empty
	// reference or comparison yields a zero Result, not an error.
	BestOffset(
		ctx context.Context,
		reference energy.Profile,
		comparison energy.Profile,
	) (Result, error)
}

/* for easier copy&paste:

func () BestOffset(
	ctx context.Context,
	reference energy.Profile,
	comparison energy.Profile,
) (correlator.Result, error) {
}

*/
