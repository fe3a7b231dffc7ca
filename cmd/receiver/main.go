// Command receiver runs the GPS L1 C/A software-defined receiver
// pipeline end to end against a raw IF sample file: cold-start
// acquisition, per-channel tracking, bit/frame sync, ephemeris
// decoding, and iterative least-squares PVT.
package main

import (
	"fmt"
	"os"

	cugnssgo "github.com/rockiemtnjoe/cugnssgo"
	"github.com/rockiemtnjoe/cugnssgo/internal/gnsslog"
	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:    "receiver",
		Usage:   "process a raw IF sample file into a GPS position fix sequence",
		Version: "v0.1.0",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "file", Aliases: []string{"f"}, Required: true, Usage: "path to the raw IF sample file"},
			&cli.Float64Flag{Name: "fs", Value: 18e6, Usage: "sampling frequency (Hz)"},
			&cli.Float64Flag{Name: "if", Value: 0, Usage: "intermediate frequency (Hz)"},
			&cli.IntFlag{Name: "ms", Value: 37000, Usage: "milliseconds of data to process"},
			&cli.IntFlag{Name: "channels", Value: 8, Usage: "number of tracking channels"},
			&cli.StringFlag{Name: "log-level", Value: "info", Usage: "logrus level (trace,debug,info,warn,error)"},
		},
		Action: runReceiver,
	}
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func runReceiver(c *cli.Context) error {
	logger := gnsslog.New(c.String("log-level"))

	s := cugnssgo.DefaultSettings()
	s.FileName = c.String("file")
	s.Fs = c.Float64("fs")
	s.IF = c.Float64("if")
	s.MsToProcess = c.Int("ms")
	s.NumberOfChannels = c.Int("channels")

	f, err := os.Open(s.FileName)
	if err != nil {
		return fmt.Errorf("open sample file: %w", err)
	}
	defer f.Close()

	pipeline := cugnssgo.NewPipeline(s, logger)
	logger.WithField("run", pipeline.RunID).Info("starting cold start acquisition")

	results, channels, err := pipeline.ColdStart(f)
	if err != nil {
		return fmt.Errorf("cold start: %w", err)
	}
	fmt.Println(cugnssgo.FormatChannelStatus(channels, results))

	logs, err := pipeline.TrackAll(f, channels, nil)
	if err != nil {
		logger.WithError(err).Warn("tracking ended early on at least one channel")
	}

	solutions, err := pipeline.RunNavigation(logs)
	if err != nil {
		return fmt.Errorf("navigation: %w", err)
	}

	for _, sol := range solutions {
		fmt.Printf("t=%.3f lat=%.7f lon=%.7f h=%.2f pdop=%.2f sats=%d\n",
			sol.LocalTime, sol.Latitude*180/cugnssgo.PI, sol.Longitude*180/cugnssgo.PI, sol.Height, sol.Dop.P, len(sol.PRN))
	}
	return nil
}
