package multicam

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sync"

	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/hashicorp/go-multierror"
	"github.com/xaionaro-go/multicam/pkg/correlator"
	"github.com/xaionaro-go/multicam/pkg/correlator/implementations/energyproduct"
	"github.com/xaionaro-go/multicam/pkg/energy"
	"github.com/xaionaro-go/multicam/pkg/mediabackend"
	"github.com/xaionaro-go/observability"
)

// Engine holds the collaborators the multicam operations delegate to.
// It is stateless between calls; one Engine can serve concurrent calls.
type Engine struct {
	Backend    mediabackend.Backend
	Correlator correlator.Correlator
}

func New(backend mediabackend.Backend) *Engine {
	return &Engine{
		Backend:    backend,
		Correlator: energyproduct.NewCorrelator(),
	}
}

// SyncTracks aligns the given tracks on a common timeline by
// cross-correlating their audio energy profiles. The first track is the
// master and always gets offset 0; every other entry is the number of
// seconds to add to that track's native timestamps to express them on
// the master timeline.
func (e *Engine) SyncTracks(
	ctx context.Context,
	tracks []Track,
) ([]float64, error) {
	if len(tracks) == 0 {
		return []float64{}, nil
	}

	logger.Infof(ctx, "syncing %d tracks via audio cross-correlation", len(tracks))

	profiles, err := e.extractProfiles(ctx, tracks)
	if err != nil {
		return nil, err
	}

	master := profiles[0]
	offsets := make([]float64, 1, len(tracks))

	for i, slave := range profiles[1:] {
		result, err := e.Correlator.BestOffset(ctx, master, slave)
		if err != nil {
			return nil, fmt.Errorf("unable to correlate track %d against the master: %w", i+1, err)
		}
		logger.Infof(ctx, "track %d (%q): offset %.3fs", i+1, tracks[i+1].Label, result.Offset)
		offsets = append(offsets, result.Offset)
	}

	return offsets, nil
}

// SmartSwitch partitions the synced timeline into fixed-width windows
// and picks the loudest angle per window, emitting a switch point
// whenever the pick changes. Offsets missing from the vector default
// to 0; the windows are processed strictly in time order because each
// decision depends on the currently active track.
func (e *Engine) SmartSwitch(
	ctx context.Context,
	tracks []Track,
	offsets []float64,
	windowSecs float64,
) ([]SwitchPoint, error) {
	if len(tracks) == 0 {
		return []SwitchPoint{}, nil
	}
	if windowSecs <= 0 {
		return nil, ErrNonPositiveWindow
	}

	logger.Infof(ctx, "analyzing %d tracks with %.1fs windows", len(tracks), windowSecs)

	profiles, err := e.extractProfiles(ctx, tracks)
	if err != nil {
		return nil, err
	}
	for i := range profiles {
		profiles[i].Shift(offsetAt(offsets, i))
	}

	var totalDuration float64
	for _, profile := range profiles {
		totalDuration = math.Max(totalDuration, profile.Duration())
	}

	switchPoints := []SwitchPoint{}
	currentTrack := 0
	for t := 0.0; t < totalDuration; {
		windowEnd := math.Min(t+windowSecs, totalDuration)

		bestTrack := currentTrack
		bestEnergy := -1.0
		for idx, profile := range profiles {
			avg := profile.AverageInWindow(t, windowEnd)
			if avg > bestEnergy {
				bestEnergy = avg
				bestTrack = idx
			}
		}

		if bestTrack != currentTrack {
			switchPoints = append(switchPoints, SwitchPoint{
				MasterTime:  t,
				TargetTrack: bestTrack,
				Confidence:  math.Min(1.0, bestEnergy/(bestEnergy+1.0)),
			})
			currentTrack = bestTrack
		}

		t = windowEnd
	}

	logger.Infof(ctx, "generated %d switch points", len(switchPoints))
	return switchPoints, nil
}

// Assemble renders the switch plan into a single output file: every
// segment is cut from its source track and the cuts are joined together
// losslessly. A failing segment is logged and skipped so that one broken
// angle does not abort the whole edit; only a failing final join is
// fatal.
func (e *Engine) Assemble(
	ctx context.Context,
	tracks []Track,
	offsets []float64,
	switchPoints []SwitchPoint,
	output string,
) error {
	if len(tracks) == 0 {
		return ErrNoTracks
	}
	for _, sp := range switchPoints {
		if sp.TargetTrack < 0 || sp.TargetTrack >= len(tracks) {
			return &TrackIndexError{Index: sp.TargetTrack, Tracks: len(tracks)}
		}
	}

	totalDuration := e.totalDuration(ctx, tracks, offsets)
	segments := PlanSegments(switchPoints, totalDuration)
	logger.Infof(ctx, "assembling %d segments into %q (%.1fs total)", len(segments), output, totalDuration)

	tmpDir, err := os.MkdirTemp("", "multicam-*")
	if err != nil {
		return fmt.Errorf("unable to create a temporary directory: %w", err)
	}
	defer func() {
		if err := os.RemoveAll(tmpDir); err != nil {
			logger.Warnf(ctx, "unable to remove the temporary directory %q: %v", tmpDir, err)
		}
	}()

	var parts []string
	var segmentErrs *multierror.Error
	for segIdx, seg := range segments {
		track := tracks[seg.Track]
		clipPath := filepath.Join(tmpDir, fmt.Sprintf("seg_%04d.mp4", segIdx))

		// The segment is expressed on the master timeline; the extraction
		// window on the track's own timeline is shifted back by its offset.
		start := seg.Start - offsetAt(offsets, seg.Track)
		if start < 0 {
			start = 0
		}

		err := e.Backend.ExtractSubclip(ctx, track.Path, start, seg.End-seg.Start, clipPath)
		if err != nil {
			logger.Warnf(ctx, "skipping segment %d [%.2fs..%.2fs) of %q: %v", segIdx, seg.Start, seg.End, track.Path, err)
			segmentErrs = multierror.Append(segmentErrs, err)
			continue
		}
		parts = append(parts, clipPath)
	}
	if err := segmentErrs.ErrorOrNil(); err != nil {
		logger.Debugf(ctx, "%d of %d segments failed: %v", len(segmentErrs.Errors), len(segments), err)
	}

	if err := e.Backend.ConcatLossless(ctx, parts, output); err != nil {
		return &AssemblyError{Output: output, Err: err}
	}

	logger.Infof(ctx, "assembly complete: %q", output)
	return nil
}

// extractProfiles fetches every track's energy profile. Extraction is
// read-only and independent per track, so it runs in parallel.
func (e *Engine) extractProfiles(
	ctx context.Context,
	tracks []Track,
) ([]energy.Profile, error) {
	profiles := make([]energy.Profile, len(tracks))
	errs := make([]error, len(tracks))

	var wg sync.WaitGroup
	for i := range tracks {
		wg.Add(1)
		observability.Go(ctx, func(ctx context.Context) {
			defer wg.Done()
			profile, err := e.Backend.ExtractEnergyProfile(ctx, tracks[i].Path, tracks[i].AudioChannel)
			if err != nil {
				errs[i] = fmt.Errorf("unable to extract the energy profile of track %d (%q): %w", i, tracks[i].Path, err)
				return
			}
			profile.Normalize()
			profiles[i] = profile
		})
	}
	wg.Wait()

	var mErr *multierror.Error
	for _, err := range errs {
		if err != nil {
			mErr = multierror.Append(mErr, err)
		}
	}
	if err := mErr.ErrorOrNil(); err != nil {
		return nil, err
	}
	return profiles, nil
}

// totalDuration is the end of the longest track, offset applied. A track
// that cannot be probed just does not contribute.
func (e *Engine) totalDuration(
	ctx context.Context,
	tracks []Track,
	offsets []float64,
) float64 {
	var total float64
	for i, track := range tracks {
		duration, err := e.Backend.ProbeDuration(ctx, track.Path)
		if err != nil {
			logger.Warnf(ctx, "unable to probe the duration of %q: %v", track.Path, err)
			continue
		}
		total = math.Max(total, duration+offsetAt(offsets, i))
	}
	return total
}

func offsetAt(offsets []float64, i int) float64 {
	if i < len(offsets) {
		return offsets[i]
	}
	return 0
}
