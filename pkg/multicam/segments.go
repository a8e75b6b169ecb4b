package multicam

// PlanSegments expands a switch plan into the contiguous list of spans
// covering [0, totalDuration). The span before the first switch point
// plays track 0; every switch point ends the current span and starts one
// on its target track. Degenerate spans (end <= start) are dropped.
func PlanSegments(switchPoints []SwitchPoint, totalDuration float64) []Segment {
	segments := make([]Segment, 0, len(switchPoints)+1)
	prevTime := 0.0
	prevTrack := 0

	for _, sp := range switchPoints {
		if sp.MasterTime > prevTime {
			segments = append(segments, Segment{
				Start: prevTime,
				End:   sp.MasterTime,
				Track: prevTrack,
			})
		}
		prevTime = sp.MasterTime
		prevTrack = sp.TargetTrack
	}

	if totalDuration > prevTime {
		segments = append(segments, Segment{
			Start: prevTime,
			End:   totalDuration,
			Track: prevTrack,
		})
	}
	return segments
}
