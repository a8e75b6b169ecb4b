// Package mediabackend abstracts the media toolchain the multicam engine
// delegates all decoding, probing and cutting to.
package mediabackend

import (
	"context"
	"fmt"

	"github.com/xaionaro-go/multicam/pkg/energy"
)

// Backend is the external media toolchain. Implementations are expected
// to kill in-flight subprocess work when ctx is cancelled; the engine
// itself never retries or times out backend calls.
type Backend interface {
	// ExtractEnergyProfile returns time-stamped linear RMS energy samples
	// of the file's audio, analyzed on the given channel (0 = first). A
	// file with no decodable audio yields an empty profile, not an error.
	ExtractEnergyProfile(ctx context.Context, path string, audioChannel int) (energy.Profile, error)

	// ProbeDuration returns the total duration of the media file in seconds.
	ProbeDuration(ctx context.Context, path string) (float64, error)

	// ExtractSubclip writes the [start, start+duration) range of src to
	// dst, re-encoded so that the results can be concatenated losslessly.
	ExtractSubclip(ctx context.Context, src string, start, duration float64, dst string) error

	// ConcatLossless joins the given parts, in order, into output without
	// re-encoding. An empty parts list is an error.
	ConcatLossless(ctx context.Context, parts []string, output string) error
}

// Error is a failure reported by a Backend implementation.
type Error struct {
	Op   string
	Path string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("media backend: %s %q: %v", e.Op, e.Path, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}
