package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/book-expert/logger"

	"github.com/book-expert/image-pipeline-service/internal/batch"
	"github.com/book-expert/image-pipeline-service/internal/imageio"
	"github.com/book-expert/image-pipeline-service/internal/pipeline"
	"github.com/book-expert/image-pipeline-service/internal/recipe"
	"github.com/book-expert/image-pipeline-service/internal/stats"
)

// processWithLogger sets up the logger and runs the batch processor.
func processWithLogger(
	ctx context.Context,
	options *batch.Options,
	logDir string,
) error {
	log, err := setupLogger(logDir)
	if err != nil {
		return fmt.Errorf("could not set up logger: %w", err)
	}

	defer closeLogger(log)

	processor := batch.NewProcessor(options, log)

	report, procErr := processor.Process(ctx)
	if procErr != nil {
		return fmt.Errorf("image processing failed: %w", procErr)
	}

	_, _ = fmt.Fprintf(
		options.ProgressBarOutput,
		"%d processed, %d skipped, %d failed\n",
		report.Processed,
		report.Skipped,
		report.Failed,
	)

	return nil
}

// applyWithLogger runs steps over one image and writes the result.
func applyWithLogger(inputPath, outputPath string, texts []string, logStats bool, logDir string) error {
	if len(texts) == 0 {
		return batch.ErrNoSteps
	}

	steps, parseErr := recipe.ParseAll(texts)
	if parseErr != nil {
		return fmt.Errorf("invalid recipe: %w", parseErr)
	}

	log, err := setupLogger(logDir)
	if err != nil {
		return fmt.Errorf("could not set up logger: %w", err)
	}

	defer closeLogger(log)

	return applySteps(log, inputPath, outputPath, steps, logStats)
}

func applySteps(
	log *logger.Logger,
	inputPath, outputPath string,
	steps []recipe.Step,
	logStats bool,
) error {
	src, loadErr := imageio.Load(inputPath)
	if loadErr != nil {
		return loadErr
	}

	pipe := pipeline.New(log)
	if logStats {
		pipe.Subscribe(stats.Logger(log, filepath.Base(inputPath)))
	}

	pipe.Load(src)
	recipe.RunAll(pipe, steps)

	saveErr := imageio.Save(pipe.Image(), outputPath)
	if saveErr != nil {
		return saveErr
	}

	log.Success("Wrote %s", outputPath)

	return nil
}

// setupLogger creates a timestamped log file, defaulting to logs/imgp.
func setupLogger(logDirConfig string) (*logger.Logger, error) {
	logDir := logDirConfig
	if logDir == "" {
		logDir = filepath.Join("logs", "imgp")
	}

	logFileName := fmt.Sprintf("log_%s.log", time.Now().Format("20060102_150405"))

	log, err := logger.New(logDir, logFileName)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	return log, nil
}

func closeLogger(log *logger.Logger) {
	cerr := log.Close()
	if cerr != nil {
		_, _ = fmt.Fprintf(os.Stderr, "failed to close logger: %v\n", cerr)
	}
}
