package main

import (
	"context"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/urfave/cli/v3"
)

const (
	sceneKey   = "scene"
	dataKey    = "data"
	metricsKey = "metrics"
	verboseKey = "verbose"
)

func main() {
	cmd := &cli.Command{
		Name:  "mvvm",
		Usage: "Drive observed data through bindings from the command line",
		Commands: []*cli.Command{
			{
				Name:  "run",
				Usage: "Run a scene: bind templates, apply steps, print every render",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     sceneKey,
						Usage:    "Scene TOML file",
						Required: true,
					},
					&cli.BoolFlag{
						Name:  metricsKey,
						Usage: "Print the collected metrics after the scene",
					},
					verboseFlag(),
				},
				Action: run,
			},
			{
				Name:      "eval",
				Usage:     "Resolve path expressions against a JSON document",
				ArgsUsage: "<expr>...",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     dataKey,
						Usage:    "JSON data file",
						Required: true,
					},
					verboseFlag(),
				},
				Action: eval,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		logger := newLogger(false)
		logger.Fatal().Err(err).Msg("mvvm failed")
	}
}

func verboseFlag() cli.Flag {
	return &cli.BoolFlag{
		Name:    verboseKey,
		Aliases: []string{"v"},
		Usage:   "Log every publish and disposal",
	}
}

func newLogger(verbose bool) zerolog.Logger {
	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).
		Level(level).
		With().
		Timestamp().
		Logger()
}
