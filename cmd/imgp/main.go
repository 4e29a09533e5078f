// Command imgp applies a recipe of pixel operations to a single image or to a
// directory of images.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"
)

const (
	exitFailure       = 1
	defaultConfigFile = "project.toml"
)

func main() {
	ctx, stop := signal.NotifyContext(
		context.Background(),
		syscall.SIGINT,
		syscall.SIGTERM,
	)

	err := newApp().RunContext(ctx, os.Args)

	stop()

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(exitFailure)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "imgp",
		Usage: "apply grayscale, gamma, convolution, rank, threshold and dither steps to images",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Value:   defaultConfigFile,
				Usage:   "TOML configuration file; a missing file is ignored",
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "run",
				Usage:  "process every supported image in a directory",
				Flags:  batchFlags(),
				Action: runBatch,
			},
			{
				Name:   "apply",
				Usage:  "process a single image file",
				Flags:  applyFlags(),
				Action: runApply,
			},
			{
				Name:   "kernels",
				Usage:  "list the convolution kernels accepted by filter=<name>",
				Action: listKernels,
			},
			{
				Name:   "modes",
				Usage:  "list the dither modes accepted by dither=<mode>",
				Action: listModes,
			},
		},
	}
}

func stepFlag() cli.Flag {
	return &cli.StringSliceFlag{
		Name:    "step",
		Aliases: []string{"s"},
		Usage:   "operation to apply, repeatable, e.g. --step grayscale --step dither=ordered",
	}
}

func batchFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "input", Aliases: []string{"i"}, Usage: "input directory"},
		&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Usage: "output directory"},
		stepFlag(),
		&cli.StringFlag{Name: "format", Aliases: []string{"f"}, Usage: "output format (png, jpg, gif, bmp, tiff)"},
		&cli.IntFlag{Name: "workers", Aliases: []string{"w"}, Usage: "number of concurrent workers"},
		&cli.BoolFlag{Name: "skip-blank", Usage: "do not write results that are blank"},
		&cli.BoolFlag{Name: "stats", Usage: "log intensity statistics after every step"},
	}
}

func applyFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "input", Aliases: []string{"i"}, Required: true, Usage: "input image"},
		&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Required: true, Usage: "output image"},
		stepFlag(),
		&cli.BoolFlag{Name: "stats", Usage: "log intensity statistics after every step"},
	}
}

// flagsFromContext collects the command-line values shared by run and apply.
func flagsFromContext(cliCtx *cli.Context) flags {
	return flags{
		inputPath:  cliCtx.String("input"),
		outputPath: cliCtx.String("output"),
		format:     cliCtx.String("format"),
		steps:      cliCtx.StringSlice("step"),
		workers:    cliCtx.Int("workers"),
		skipBlank:  cliCtx.Bool("skip-blank"),
		logStats:   cliCtx.Bool("stats"),
	}
}

func runBatch(cliCtx *cli.Context) error {
	cfg, err := safeLoadConfig(cliCtx.String("config"))
	if err != nil {
		return err
	}

	options := mergeConfigAndFlags(cfg, flagsFromContext(cliCtx))

	return processWithLogger(cliCtx.Context, &options, cfg.LogsDir.Imgp)
}

func runApply(cliCtx *cli.Context) error {
	cfg, err := safeLoadConfig(cliCtx.String("config"))
	if err != nil {
		return err
	}

	flgs := flagsFromContext(cliCtx)
	steps := flgs.steps

	if len(steps) == 0 {
		steps = cfg.Pipeline.Steps
	}

	return applyWithLogger(
		flgs.inputPath,
		flgs.outputPath,
		steps,
		flgs.logStats || cfg.Pipeline.LogStats,
		cfg.LogsDir.Imgp,
	)
}
