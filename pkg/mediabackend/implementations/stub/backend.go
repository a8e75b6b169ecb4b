// Package stub is an in-memory media backend for tests: energy profiles
// and durations are registered per path, cut and concat operations are
// recorded instead of touching real media.
package stub

import (
	"context"
	"errors"
	"sync"

	"github.com/xaionaro-go/multicam/pkg/energy"
	"github.com/xaionaro-go/multicam/pkg/mediabackend"
)

type SubclipCall struct {
	Src      string
	Start    float64
	Duration float64
	Dst      string
}

type ConcatCall struct {
	Parts  []string
	Output string
}

type Backend struct {
	Profiles  map[string]energy.Profile
	Durations map[string]float64

	ProfileErr  map[string]error
	DurationErr map[string]error
	SubclipErr  map[string]error
	ConcatErr   error

	mu       sync.Mutex
	Subclips []SubclipCall
	Concats  []ConcatCall
}

var _ mediabackend.Backend = (*Backend)(nil)

func NewBackend() *Backend {
	return &Backend{
		Profiles:    map[string]energy.Profile{},
		Durations:   map[string]float64{},
		ProfileErr:  map[string]error{},
		DurationErr: map[string]error{},
		SubclipErr:  map[string]error{},
	}
}

func (b *Backend) ExtractEnergyProfile(
	ctx context.Context,
	path string,
	audioChannel int,
) (energy.Profile, error) {
	if err := b.ProfileErr[path]; err != nil {
		return nil, &mediabackend.Error{Op: "extract-energy", Path: path, Err: err}
	}
	// The engine shifts profiles in place, so hand out a copy to keep the
	// registered fixture intact across calls.
	src := b.Profiles[path]
	profile := make(energy.Profile, len(src))
	copy(profile, src)
	return profile, nil
}

func (b *Backend) ProbeDuration(ctx context.Context, path string) (float64, error) {
	if err := b.DurationErr[path]; err != nil {
		return 0, &mediabackend.Error{Op: "probe-duration", Path: path, Err: err}
	}
	duration, ok := b.Durations[path]
	if !ok {
		return 0, &mediabackend.Error{Op: "probe-duration", Path: path, Err: errors.New("unknown path")}
	}
	return duration, nil
}

func (b *Backend) ExtractSubclip(
	ctx context.Context,
	src string,
	start, duration float64,
	dst string,
) error {
	b.mu.Lock()
	b.Subclips = append(b.Subclips, SubclipCall{Src: src, Start: start, Duration: duration, Dst: dst})
	b.mu.Unlock()
	if err := b.SubclipErr[src]; err != nil {
		return &mediabackend.Error{Op: "extract-subclip", Path: src, Err: err}
	}
	return nil
}

func (b *Backend) ConcatLossless(
	ctx context.Context,
	parts []string,
	output string,
) error {
	b.mu.Lock()
	b.Concats = append(b.Concats, ConcatCall{Parts: append([]string(nil), parts...), Output: output})
	b.mu.Unlock()
	if len(parts) == 0 {
		return &mediabackend.Error{Op: "concat", Path: output, Err: errors.New("no input parts")}
	}
	return b.ConcatErr
}
