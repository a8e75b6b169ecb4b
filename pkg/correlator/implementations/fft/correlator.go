// Package fft estimates track offsets by cross-correlating the two
// energy profiles in the frequency domain. Both profiles are resampled
// onto a common grid, and the lag of the correlation peak is the offset
// estimate. One FFT pass replaces the brute-force candidate scan; the
// grid step bounds the resolution.
package fft

import (
	"context"
	"math"
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
	"github.com/xaionaro-go/multicam/pkg/correlator"
	"github.com/xaionaro-go/multicam/pkg/energy"
)

type Correlator struct {
	// MaxOffset bounds the considered lags to [-MaxOffset, +MaxOffset] seconds.
	MaxOffset float64
	// Step is the resampling grid step, which is also the resolution.
	Step float64
}

var _ correlator.Correlator = (*Correlator)(nil)

func NewCorrelator() *Correlator {
	return &Correlator{
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
	if err := ctx.Err(); err != nil {
		return correlator.Result{}, err
	}

	ref := reference.Resample(c.Step)
	comp := comparison.Resample(c.Step)

	// Next power of two of n1+n2-1, to avoid circular convolution artifacts.
	n := 1
	for n < len(ref)+len(comp)-1 {
		n <<= 1
	}

	fref := make([]complex128, n)
	fcomp := make([]complex128, n)
	for i, v := range ref {
		fref[i] = complex(v, 0)
	}
	for i, v := range comp {
		fcomp[i] = complex(v, 0)
	}

	ffref := fft.FFT(fref)
	ffcomp := fft.FFT(fcomp)

	// corr[l] = sum_i comparison[i+l] * reference[i]: the peak sits at the
	// lag that slides the comparison back onto the reference.
	cross := make([]complex128, n)
	for i := range cross {
		cross[i] = ffcomp[i] * cmplx.Conj(ffref[i])
	}
	corr := fft.IFFT(cross)

	maxLag := int(math.Round(c.MaxOffset / c.Step))
	if maxLag >= n/2 {
		maxLag = n/2 - 1
	}

	bestLag := -maxLag
	bestVal := real(corr[(n-maxLag)%n])
	for lag := -maxLag + 1; lag <= maxLag; lag++ {
		v := real(corr[((lag%n)+n)%n])
		if v > bestVal {
			bestVal = v
			bestLag = lag
		}
	}

	return correlator.Result{
		Offset: float64(bestLag) * c.Step,
		Score:  bestVal,
	}, nil
}
