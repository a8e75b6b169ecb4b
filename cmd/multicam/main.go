package main

import (
	"context"
	"fmt"
	"os"

	"github.com/davecgh/go-spew/spew"
	"github.com/facebookincubator/go-belt"
	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/facebookincubator/go-belt/tool/logger/implementation/logrus"
	"github.com/spf13/pflag"
	"github.com/xaionaro-go/multicam/pkg/correlator/implementations/energyproduct"
	correlatorfft "github.com/xaionaro-go/multicam/pkg/correlator/implementations/fft"
	"github.com/xaionaro-go/multicam/pkg/mediabackend/implementations/ffmpeg"
	"github.com/xaionaro-go/multicam/pkg/multicam"
)

func main() {
	loggerLevel := logger.LevelInfo
	pflag.Var(&loggerLevel, "log-level", "Log level")
	window := pflag.Float64("window", 4.0, "Analysis window width in seconds")
	output := pflag.StringP("output", "o", "multicam_cut.mp4", "Output file")
	labels := pflag.StringSlice("label", nil, "Track labels, paired with the inputs in order")
	audioChannel := pflag.Int("audio-channel", 0, "Audio channel used for the analysis (0 = first)")
	correlatorName := pflag.String("correlator", "energyproduct", "Offset estimator: energyproduct or fft")
	dumpPlan := pflag.Bool("dump-plan", false, "Print the computed offsets and switch plan")
	pflag.Parse()

	l := logrus.Default().WithLevel(loggerLevel)
	ctx := logger.CtxWithLogger(context.Background(), l)
	logger.Default = func() logger.Logger {
		return l
	}
	defer belt.Flush(ctx)

	inputs := pflag.Args()
	if len(inputs) < 1 {
		fmt.Fprintf(os.Stderr, "usage: %s [flags] <input0> [input1...]\n\nThe first input is the master angle.\n\n", os.Args[0])
		pflag.PrintDefaults()
		os.Exit(2)
	}

	tracks := make([]multicam.Track, 0, len(inputs))
	for i, input := range inputs {
		label := fmt.Sprintf("Camera %d", i)
		if i < len(*labels) {
			label = (*labels)[i]
		}
		tracks = append(tracks, multicam.Track{
			Path:         input,
			Label:        label,
			AudioChannel: *audioChannel,
		})
	}

	engine := multicam.New(ffmpeg.NewBackend())
	switch *correlatorName {
	case "energyproduct":
		engine.Correlator = energyproduct.NewCorrelator()
	case "fft":
		engine.Correlator = correlatorfft.NewCorrelator()
	default:
		fmt.Fprintf(os.Stderr, "unknown correlator %q\n", *correlatorName)
		os.Exit(2)
	}

	offsets, err := engine.SyncTracks(ctx, tracks)
	assertNoError(err)

	switchPoints, err := engine.SmartSwitch(ctx, tracks, offsets, *window)
	assertNoError(err)

	if *dumpPlan {
		spew.Dump(offsets, switchPoints)
	}

	assertNoError(engine.Assemble(ctx, tracks, offsets, switchPoints, *output))
	logger.Infof(ctx, "wrote %q", *output)
}

func assertNoError(err error) {
	if err != nil {
		panic(err)
	}
}
