// Package batch runs a recipe over every image in a directory.
package batch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"
	"sync/atomic"

	"github.com/book-expert/logger"
	"github.com/cheggaaa/pb/v3"
	"github.com/google/uuid"

	"github.com/book-expert/image-pipeline-service/internal/imageio"
	"github.com/book-expert/image-pipeline-service/internal/recipe"
)

var (
	// ErrInputPathRequired is returned when input path is not provided.
	ErrInputPathRequired = errors.New("input path is required")
	// ErrOutputPathRequired is returned when output path is not provided.
	ErrOutputPathRequired = errors.New("output path is required")
	// ErrNoSteps is returned when the recipe is empty.
	ErrNoSteps = errors.New("at least one step is required")
)

// Options holds all configurable parameters for a Processor.
type Options struct {
	ProgressBarOutput      io.Writer
	InputPath              string
	OutputPath             string
	Format                 string
	Steps                  []string
	Workers                int
	BlankFuzzPercent       int
	BlankNonWhiteThreshold float64
	SkipBlank              bool
	LogStats               bool
}

// Report counts what happened to each discovered image.
type Report struct {
	Processed int
	Skipped   int
	Failed    int
}

// Processor applies one recipe to a directory of images.
type Processor struct {
	log    *logger.Logger
	runID  string
	steps  []recipe.Step
	config Options
}

// NewProcessor creates a Processor, filling zero-value options with defaults.
func NewProcessor(opts *Options, log *logger.Logger) *Processor {
	applyDefaultOptions(opts)

	return &Processor{
		config: *opts,
		log:    log,
		runID:  uuid.NewString(),
		steps:  nil,
	}
}

const (
	defaultFormat                 = "png"
	defaultBlankFuzzPercent       = 5
	defaultBlankNonWhiteThreshold = 0.005
	barTemplate                   = `{{ bar . " " "━" "━" " " " "}} {{percent .}} {{rtime .}}`
)

func applyDefaultOptions(opts *Options) {
	opts.Workers = defaultIntNonPositive(opts.Workers, runtime.NumCPU())
	opts.BlankFuzzPercent = defaultIntNonPositive(
		opts.BlankFuzzPercent,
		defaultBlankFuzzPercent,
	)
	opts.BlankNonWhiteThreshold = defaultFloatNonPositive(
		opts.BlankNonWhiteThreshold,
		defaultBlankNonWhiteThreshold,
	)
	opts.Format = defaultStringEmpty(opts.Format, defaultFormat)
	opts.ProgressBarOutput = defaultWriterNil(opts.ProgressBarOutput, os.Stdout)
}

func defaultIntNonPositive(v, def int) int {
	if v <= 0 {
		return def
	}

	return v
}

func defaultFloatNonPositive(v, def float64) float64 {
	if v <= 0 {
		return def
	}

	return v
}

func defaultStringEmpty(v, def string) string {
	if v == "" {
		return def
	}

	return v
}

func defaultWriterNil(w, def io.Writer) io.Writer {
	if w == nil {
		return def
	}

	return w
}

// Process validates the options, discovers input images and runs the recipe
// over each of them. Individual image failures are logged and counted, not
// returned.
func (processor *Processor) Process(ctx context.Context) (Report, error) {
	err := processor.validateConfig()
	if err != nil {
		return Report{}, err
	}

	imagePaths, err := processor.discoverInputImages()
	if err != nil {
		return Report{}, err
	}

	err = ensureOutputDirectory(processor.config.OutputPath)
	if err != nil {
		return Report{}, err
	}

	processor.log.Info(
		"Run %s: found %d image(s), recipe %v",
		processor.runID,
		len(imagePaths),
		processor.steps,
	)

	report := processor.processAllImages(ctx, imagePaths)

	processor.log.Success(
		"Run %s: %d processed, %d skipped, %d failed",
		processor.runID,
		report.Processed,
		report.Skipped,
		report.Failed,
	)

	if ctxErr := ctx.Err(); ctxErr != nil {
		return report, fmt.Errorf("batch interrupted: %w", ctxErr)
	}

	return report, nil
}

// validateConfig checks the required options and parses the recipe.
func (processor *Processor) validateConfig() error {
	if processor.config.InputPath == "" {
		return ErrInputPathRequired
	}

	if processor.config.OutputPath == "" {
		return ErrOutputPathRequired
	}

	if len(processor.config.Steps) == 0 {
		return ErrNoSteps
	}

	_, formatErr := imageio.ParseFormat(processor.config.Format)
	if formatErr != nil {
		return fmt.Errorf("invalid output format: %w", formatErr)
	}

	steps, parseErr := recipe.ParseAll(processor.config.Steps)
	if parseErr != nil {
		return fmt.Errorf("invalid recipe: %w", parseErr)
	}

	processor.steps = steps

	return nil
}

// discoverInputImages discovers input images and rejects an empty result.
func (processor *Processor) discoverInputImages() ([]string, error) {
	imagePaths, discoveryErr := DiscoverImages(processor.config.InputPath)
	if discoveryErr != nil {
		return nil, fmt.Errorf("failed to discover images: %w", discoveryErr)
	}

	if len(imagePaths) == 0 {
		return nil, fmt.Errorf(
			"no supported images found in %s: %w",
			processor.config.InputPath,
			os.ErrNotExist,
		)
	}

	return imagePaths, nil
}

// processAllImages feeds every path to the worker pool and tracks progress.
func (processor *Processor) processAllImages(
	ctx context.Context,
	imagePaths []string,
) Report {
	progressBar := pb.New(len(imagePaths)).
		SetTemplateString(barTemplate).
		SetWriter(processor.config.ProgressBarOutput).
		Start()
	defer progressBar.Finish()

	var processed, skipped, failed atomic.Int64

	pool := newImagePool(processor, func(res jobResult) {
		progressBar.Increment()

		switch res {
		case resultProcessed:
			processed.Add(1)
		case resultSkipped:
			skipped.Add(1)
		case resultFailed:
			failed.Add(1)
		}
	})
	pool.run(ctx, imagePaths)

	return Report{
		Processed: int(processed.Load()),
		Skipped:   int(skipped.Load()),
		Failed:    int(failed.Load()),
	}
}
