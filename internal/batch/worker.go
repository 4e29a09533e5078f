package batch

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/book-expert/image-pipeline-service/internal/imageio"
	"github.com/book-expert/image-pipeline-service/internal/pipeline"
	"github.com/book-expert/image-pipeline-service/internal/recipe"
	"github.com/book-expert/image-pipeline-service/internal/stats"
)

type jobResult int

const (
	resultProcessed jobResult = iota
	resultSkipped
	resultFailed
)

// imageJob is a single task for a worker: one input file and its destination.
type imageJob struct {
	inputPath  string
	outputPath string
}

// imagePool runs the recipe over many images concurrently. Each job owns its
// own Pipeline, so workers share nothing but the parsed recipe.
type imagePool struct {
	parent *Processor
	done   func(jobResult)
}

func newImagePool(parent *Processor, done func(jobResult)) *imagePool {
	return &imagePool{
		parent: parent,
		done:   done,
	}
}

// run distributes one job per path and waits for every worker to finish.
func (pool *imagePool) run(ctx context.Context, imagePaths []string) {
	jobs := make(chan imageJob, len(imagePaths))

	var waitGroup sync.WaitGroup

	for range pool.parent.config.Workers {
		waitGroup.Add(1)

		go pool.worker(ctx, &waitGroup, jobs)
	}

	for _, inputPath := range imagePaths {
		jobs <- imageJob{
			inputPath: inputPath,
			outputPath: outputPathFor(
				pool.parent.config.OutputPath,
				inputPath,
				pool.parent.config.Format,
			),
		}
	}

	close(jobs)

	waitGroup.Wait()
}

// worker pulls jobs until the channel is drained or the context is canceled.
func (pool *imagePool) worker(
	ctx context.Context,
	waitGroup *sync.WaitGroup,
	jobs <-chan imageJob,
) {
	defer waitGroup.Done()

	for job := range jobs {
		if ctx.Err() != nil {
			pool.parent.log.Warn(
				"Context canceled, skipping %s",
				filepath.Base(job.inputPath),
			)
			pool.done(resultFailed)

			continue
		}

		pool.done(pool.processJob(job))
	}
}

func (pool *imagePool) processJob(job imageJob) jobResult {
	name := filepath.Base(job.inputPath)

	skipped, processErr := pool.parent.processOneImage(job)
	if processErr != nil {
		pool.parent.log.Error("Failed to process %s: %v", name, processErr)

		return resultFailed
	}

	if skipped {
		pool.parent.log.Info("Skipped blank result for %s", name)

		return resultSkipped
	}

	pool.parent.log.Success("Processed %s -> %s", name, filepath.Base(job.outputPath))

	return resultProcessed
}

// processOneImage loads, transforms and saves one image. It reports true when
// the result was blank and SkipBlank suppressed the write.
func (processor *Processor) processOneImage(job imageJob) (bool, error) {
	src, loadErr := imageio.Load(job.inputPath)
	if loadErr != nil {
		return false, loadErr
	}

	pipe := pipeline.New(processor.log)
	if processor.config.LogStats {
		pipe.Subscribe(stats.Logger(processor.log, filepath.Base(job.inputPath)))
	}

	pipe.Load(src)
	recipe.RunAll(pipe, processor.steps)

	result := pipe.Image()

	if processor.config.SkipBlank && stats.IsBlank(
		result,
		processor.config.BlankFuzzPercent,
		processor.config.BlankNonWhiteThreshold,
	) {
		return true, nil
	}

	saveErr := imageio.Save(result, job.outputPath)
	if saveErr != nil {
		return false, fmt.Errorf("could not write result: %w", saveErr)
	}

	return false, nil
}
