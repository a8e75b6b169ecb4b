// Package multicam aligns multiple camera recordings of one event on a
// common timeline and auto-edits them into a single sequence by cutting
// to the loudest angle, similar to a multicam smart-switch workflow in a
// desktop NLE.
package multicam

// Track identifies one camera's recording. The engine only reads it.
type Track struct {
	// Path to the recording.
	Path string
	// Label is a human-readable name (e.g. "Camera A", "Wide Shot").
	Label string
	// AudioChannel selects the audio channel used for analysis (0 = first).
	AudioChannel int
}

// SwitchPoint is a timed decision to cut to another camera angle,
// expressed on the master timeline.
type SwitchPoint struct {
	// MasterTime is the moment of the cut in seconds.
	MasterTime float64
	// TargetTrack is the index of the track to cut to.
	TargetTrack int
	// Confidence is the activity detector's score, 0..1.
	Confidence float64
}

// Segment is a contiguous span of the output timeline sourced from a
// single track.
type Segment struct {
	Start float64 // seconds, master timeline
	End   float64 // seconds, master timeline
	Track int
}
