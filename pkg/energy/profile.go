// Package energy represents audio loudness over time as a sampled profile
// and provides the lookup primitives the synchronization and switching
// logic is built on.
package energy

import (
	"math"
	"sort"
)

// Frame is a single loudness sample: linear RMS amplitude at a point in time.
type Frame struct {
	Time   float64 // seconds
	Energy float64 // linear amplitude, not dB
}

// Profile is a time-ordered series of loudness samples for one track.
type Profile []Frame

// Normalize makes sure the profile is sorted by time. Backend output is
// untrusted, and the lookups below rely on binary search.
func (p Profile) Normalize() {
	if sort.SliceIsSorted(p, func(i, j int) bool { return p[i].Time < p[j].Time }) {
		return
	}
	sort.SliceStable(p, func(i, j int) bool { return p[i].Time < p[j].Time })
}

// Duration returns the timestamp of the last frame, or 0 for an empty profile.
func (p Profile) Duration() float64 {
	if len(p) == 0 {
		return 0
	}
	return p[len(p)-1].Time
}

// Shift moves every frame by offset seconds.
func (p Profile) Shift(offset float64) {
	for i := range p {
		p[i].Time += offset
	}
}

// At returns the energy at time t, linearly interpolated between the two
// nearest frames. Outside the profile's range the boundary frame's energy
// is returned as-is.
func (p Profile) At(t float64) float64 {
	if len(p) == 0 {
		return 0
	}
	idx := sort.Search(len(p), func(i int) bool { return p[i].Time >= t })
	switch {
	case idx >= len(p):
		return p[len(p)-1].Energy
	case p[idx].Time == t:
		return p[idx].Energy
	case idx == 0:
		return p[0].Energy
	}
	a, b := p[idx-1], p[idx]
	// The epsilon keeps duplicate timestamps (floor-rounded frames) from
	// dividing by zero.
	ratio := (t - a.Time) / (b.Time - a.Time + 1e-9)
	return a.Energy + ratio*(b.Energy-a.Energy)
}

// AverageInWindow returns the mean energy of the frames whose time falls
// into [start, end), or 0 when no frame does.
func (p Profile) AverageInWindow(start, end float64) float64 {
	var sum float64
	var count int
	for _, f := range p {
		if f.Time >= end {
			break
		}
		if f.Time >= start {
			sum += f.Energy
			count++
		}
	}
	if count == 0 {
		return 0
	}
	return sum / float64(count)
}

// Resample evaluates the profile on a fixed-step grid from 0 through its
// duration (inclusive).
func (p Profile) Resample(step float64) []float64 {
	if len(p) == 0 || step <= 0 {
		return nil
	}
	count := int(math.Round(p.Duration()/step)) + 1
	out := make([]float64, count)
	for i := range out {
		out[i] = p.At(step * float64(i))
	}
	return out
}
