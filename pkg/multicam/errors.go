package multicam

import (
	"errors"
	"fmt"
)

// ErrNoTracks is returned by operations that need at least one track.
var ErrNoTracks = errors.New("no tracks supplied")

// ErrNonPositiveWindow is returned when the analysis window width is
// zero or negative.
var ErrNonPositiveWindow = errors.New("analysis window width must be positive")

// TrackIndexError reports a switch plan referring to a track that does
// not exist.
type TrackIndexError struct {
	Index  int
	Tracks int
}

func (e *TrackIndexError) Error() string {
	return fmt.Sprintf("track index %d out of range (have %d tracks)", e.Index, e.Tracks)
}

// AssemblyError reports that the final concatenation of an assembled
// sequence failed. Individual segment failures are recovered from and do
// not produce it.
type AssemblyError struct {
	Output string
	Err    error
}

func (e *AssemblyError) Error() string {
	return fmt.Sprintf("assembling %q failed: %v", e.Output, e.Err)
}

func (e *AssemblyError) Unwrap() error {
	return e.Err
}
