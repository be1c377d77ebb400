// Package main is the describe command line tool. It computes region files for images and
// matches previously computed region files.
package main

import (
	"io"
	"log"
	"os"

	"github.com/edaniels/golog"
	"github.com/urfave/cli/v2"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

const (
	// Flags.
	flagDebug         = "debug"
	flagConfig        = "config"
	flagKind          = "kind"
	flagPreset        = "preset"
	flagNoOrientation = "no-orientation"
	flagMask          = "mask"
	flagOut           = "out"
	flagPlot          = "plot"
	flagParallel      = "parallel"
	flagSequential    = "sequential"
	flagCrossCheck    = "cross-check"
	flagMaxDist       = "max-dist"
	flagRatio         = "ratio"
	flagHist          = "hist"
	flagTop           = "top"
	flagTextHist      = "text-hist"
	flagMaxDim        = "max-dim"
	flagSchema        = "schema"
	flagLogFile       = "log-file"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	var logger golog.Logger
	var logFile io.Closer

	return &cli.App{
		Name:  "describe",
		Usage: "detect and describe image features",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    flagDebug,
				Aliases: []string{"vvv"},
				Usage:   "enable debug logging",
			},
			&cli.StringFlag{
				Name:  flagLogFile,
				Usage: "write logs to `FILE`, rotated when large",
			},
		},
		Before: func(c *cli.Context) error {
			switch {
			case c.String(flagLogFile) != "":
				var l golog.Logger
				l, logFile = newFileLogger(c.String(flagLogFile), c.Bool(flagDebug))
				logger = l
			case c.Bool(flagDebug):
				logger = golog.NewDebugLogger("describe")
			default:
				logger = zap.NewNop().Sugar()
			}
			return nil
		},
		After: func(c *cli.Context) error {
			if logFile == nil {
				return nil
			}
			return multierr.Combine(logger.Sync(), logFile.Close())
		},
		Commands: []*cli.Command{
			{
				Name:      "image",
				Usage:     "compute features and descriptors of images",
				ArgsUsage: "<image> [image...]",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    flagConfig,
						Aliases: []string{"c"},
						Usage:   "load describer parameters from `FILE`",
					},
					&cli.StringFlag{
						Name:  flagKind,
						Value: "MSURF",
						Usage: "descriptor kind: MSURF, LIOP or MLDB",
					},
					&cli.StringFlag{
						Name:  flagPreset,
						Value: "NORMAL",
						Usage: "detection preset: NORMAL, HIGH or ULTRA",
					},
					&cli.BoolFlag{
						Name:  flagNoOrientation,
						Usage: "do not estimate keypoint orientations",
					},
					&cli.StringSliceFlag{
						Name:  flagMask,
						Usage: "mask `FILE` excluding nonzero pixels, either one for all images or one per image",
					},
					&cli.StringFlag{
						Name:  flagOut,
						Value: ".",
						Usage: "output `DIR` for the .feat and .desc files",
					},
					&cli.BoolFlag{
						Name:  flagPlot,
						Usage: "also save an image with the detected features drawn",
					},
					&cli.IntFlag{
						Name:  flagParallel,
						Value: 4,
						Usage: "number of images processed at once",
					},
					&cli.IntFlag{
						Name:  flagMaxDim,
						Usage: "downscale images whose largest side exceeds this many pixels; features are reported in input coordinates",
					},
					&cli.BoolFlag{
						Name:  flagSequential,
						Usage: "compute the descriptors of an image on a single goroutine",
					},
				},
				Action: func(c *cli.Context) error {
					return describeAction(c, logger)
				},
			},
			{
				Name:      "match",
				Usage:     "match the regions of two images",
				ArgsUsage: "<regions1> <regions2>",
				Description: "Each argument is the path prefix given to the .feat and .desc files " +
					"written by the image command.",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  flagKind,
						Value: "MSURF",
						Usage: "descriptor kind the regions were computed with",
					},
					&cli.BoolFlag{
						Name:  flagCrossCheck,
						Usage: "keep only mutual nearest neighbors",
					},
					&cli.Float64Flag{
						Name:  flagMaxDist,
						Usage: "reject matches at or above this distance",
					},
					&cli.Float64Flag{
						Name:  flagRatio,
						Usage: "reject matches not below this ratio of the second best distance",
					},
					&cli.StringFlag{
						Name:  flagHist,
						Usage: "save a histogram of match distances to `FILE`",
					},
					&cli.IntFlag{
						Name:  flagTop,
						Value: 10,
						Usage: "number of best matches printed",
					},
					&cli.BoolFlag{
						Name:  flagTextHist,
						Usage: "print a histogram of match distances",
					},
				},
				Action: func(c *cli.Context) error {
					return matchAction(c, logger)
				},
			},
			{
				Name:      "write-config",
				Usage:     "write the default describer parameters",
				ArgsUsage: "<file>",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  flagKind,
						Value: "MSURF",
						Usage: "descriptor kind",
					},
					&cli.StringFlag{
						Name:  flagPreset,
						Value: "NORMAL",
						Usage: "detection preset",
					},
					&cli.StringFlag{
						Name:  flagSchema,
						Usage: "also write the JSON schema of the parameters to `FILE`",
					},
				},
				Action: writeConfigAction,
			},
		},
	}
}
