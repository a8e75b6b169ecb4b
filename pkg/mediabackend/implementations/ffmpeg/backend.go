// Package ffmpeg implements the media backend on top of the ffmpeg and
// ffprobe command line tools.
package ffmpeg

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/xaionaro-go/multicam/pkg/energy"
	"github.com/xaionaro-go/multicam/pkg/mediabackend"
)

const rmsMetadataKey = "lavfi.astats.Overall.RMS_level"

type Backend struct {
	FFmpegPath  string
	FFprobePath string
}

var _ mediabackend.Backend = (*Backend)(nil)

func NewBackend() *Backend {
	return &Backend{
		FFmpegPath:  "ffmpeg",
		FFprobePath: "ffprobe",
	}
}

func (b *Backend) ExtractEnergyProfile(
	ctx context.Context,
	path string,
	audioChannel int,
) (energy.Profile, error) {
	hasAudio, err := b.hasAudioStream(ctx, path)
	if err != nil {
		return nil, err
	}
	if !hasAudio {
		logger.Debugf(ctx, "%q has no audio stream", path)
		return energy.Profile{}, nil
	}

	// astats emits one RMS_level metadata entry per audio frame; printing
	// them to stdout gives a loudness-over-time series without touching
	// the video streams.
	filter := "astats=metadata=1:reset=1,ametadata=print:key=" + rmsMetadataKey + ":file=-"
	if audioChannel > 0 {
		filter = fmt.Sprintf("pan=mono|c0=c%d,", audioChannel) + filter
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, b.FFmpegPath,
		"-v", "error",
		"-i", path,
		"-af", filter,
		"-vn",
		"-f", "null", "-",
	)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, &mediabackend.Error{
			Op:   "extract-energy",
			Path: path,
			Err:  fmt.Errorf("%w: %s", err, strings.TrimSpace(stderr.String())),
		}
	}

	profile := parseAstats(stdout.String())
	profile.Normalize()
	logger.Debugf(ctx, "extracted %d energy frames from %q", len(profile), path)
	return profile, nil
}

// parseAstats converts the ametadata print output into an energy profile.
// The output interleaves "frame:... pts_time:T" headers with
// "lavfi.astats.Overall.RMS_level=V" values; V is dBFS and may be "-inf"
// for digital silence, which is skipped.
func parseAstats(out string) energy.Profile {
	var profile energy.Profile
	var lastPTS float64
	for _, line := range strings.Split(out, "\n") {
		switch {
		case strings.HasPrefix(line, "frame:"):
			_, tsPart, found := strings.Cut(line, "pts_time:")
			if !found {
				continue
			}
			fields := strings.Fields(tsPart)
			if len(fields) == 0 {
				continue
			}
			if ts, err := strconv.ParseFloat(fields[0], 64); err == nil {
				lastPTS = ts
			}
		case strings.Contains(line, rmsMetadataKey+"="):
			_, valStr, _ := strings.Cut(line, "=")
			dB, err := strconv.ParseFloat(strings.TrimSpace(valStr), 64)
			if err != nil || math.IsInf(dB, 0) || math.IsNaN(dB) {
				continue
			}
			profile = append(profile, energy.Frame{
				Time:   lastPTS,
				Energy: math.Pow(10, dB/20), // dBFS to linear
			})
		}
	}
	return profile
}

func (b *Backend) hasAudioStream(ctx context.Context, path string) (bool, error) {
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, b.FFprobePath,
		"-v", "error",
		"-select_streams", "a",
		"-show_entries", "stream=index",
		"-of", "csv=p=0",
		path,
	)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return false, &mediabackend.Error{
			Op:   "probe-streams",
			Path: path,
			Err:  fmt.Errorf("%w: %s", err, strings.TrimSpace(stderr.String())),
		}
	}
	return strings.TrimSpace(stdout.String()) != "", nil
}

func (b *Backend) ProbeDuration(ctx context.Context, path string) (float64, error) {
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, b.FFprobePath,
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return 0, &mediabackend.Error{
			Op:   "probe-duration",
			Path: path,
			Err:  fmt.Errorf("%w: %s", err, strings.TrimSpace(stderr.String())),
		}
	}
	duration, err := strconv.ParseFloat(strings.TrimSpace(stdout.String()), 64)
	if err != nil {
		return 0, &mediabackend.Error{
			Op:   "probe-duration",
			Path: path,
			Err:  fmt.Errorf("unparseable duration %q: %w", strings.TrimSpace(stdout.String()), err),
		}
	}
	return duration, nil
}

func (b *Backend) ExtractSubclip(
	ctx context.Context,
	src string,
	start, duration float64,
	dst string,
) error {
	var stderr bytes.Buffer
	// Re-encoding (instead of -c copy) snaps the cut to the requested
	// timestamps regardless of keyframe placement and gives every part a
	// uniform codec for the lossless concat afterwards.
	cmd := exec.CommandContext(ctx, b.FFmpegPath,
		"-y",
		"-ss", formatSeconds(start),
		"-i", src,
		"-t", formatSeconds(duration),
		"-c:v", "libx264",
		"-c:a", "aac",
		"-preset", "fast",
		dst,
	)
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return &mediabackend.Error{
			Op:   "extract-subclip",
			Path: src,
			Err:  fmt.Errorf("%w: %s", err, strings.TrimSpace(stderr.String())),
		}
	}
	return nil
}

func (b *Backend) ConcatLossless(
	ctx context.Context,
	parts []string,
	output string,
) error {
	if len(parts) == 0 {
		return &mediabackend.Error{
			Op:   "concat",
			Path: output,
			Err:  errors.New("no input parts"),
		}
	}

	manifest, err := writeConcatManifest(parts)
	if err != nil {
		return &mediabackend.Error{Op: "concat", Path: output, Err: err}
	}
	defer func() {
		_ = os.Remove(manifest)
	}()

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, b.FFmpegPath,
		"-y",
		"-f", "concat",
		"-safe", "0",
		"-i", manifest,
		"-c", "copy",
		output,
	)
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return &mediabackend.Error{
			Op:   "concat",
			Path: output,
			Err:  fmt.Errorf("%w: %s", err, strings.TrimSpace(stderr.String())),
		}
	}
	return nil
}

// writeConcatManifest writes an ffmpeg concat-demuxer list file and
// returns its path.
func writeConcatManifest(parts []string) (string, error) {
	f, err := os.CreateTemp("", "multicam-concat-*.txt")
	if err != nil {
		return "", fmt.Errorf("unable to create the concat manifest: %w", err)
	}

	var sb strings.Builder
	for _, part := range parts {
		abs, err := filepath.Abs(part)
		if err != nil {
			abs = part
		}
		fmt.Fprintf(&sb, "file '%s'\n", strings.ReplaceAll(abs, "'", `'\''`))
	}

	if _, err := f.WriteString(sb.String()); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", fmt.Errorf("unable to write the concat manifest: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", fmt.Errorf("unable to close the concat manifest: %w", err)
	}
	return f.Name(), nil
}

func formatSeconds(v float64) string {
	return strconv.FormatFloat(v, 'f', 6, 64)
}
