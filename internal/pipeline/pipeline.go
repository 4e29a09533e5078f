// Package pipeline holds a loaded image and applies whole-image operations to
// it, publishing the result to subscribers after every step.
package pipeline

import (
	"github.com/book-expert/logger"

	"github.com/book-expert/image-pipeline-service/internal/dither"
	"github.com/book-expert/image-pipeline-service/internal/filter"
	"github.com/book-expert/image-pipeline-service/internal/kernel"
	"github.com/book-expert/image-pipeline-service/internal/raster"
)

// Subscriber receives a snapshot of the current image after every mutating
// operation. The snapshot is owned by the subscriber.
type Subscriber func(img *raster.Buffer)

// Pipeline keeps the loaded source image and a working copy that every
// operation replaces. Operations return the pipeline so calls can be chained.
//
// A Pipeline is not safe for concurrent use; callers must serialize access.
type Pipeline struct {
	log         *logger.Logger
	source      *raster.Buffer
	current     *raster.Buffer
	scratch     *raster.Buffer
	subscribers []Subscriber
}

// New creates an empty pipeline that logs through log.
func New(log *logger.Logger) *Pipeline {
	return &Pipeline{
		log:         log,
		source:      raster.NewBuffer(0, 0),
		current:     raster.NewBuffer(0, 0),
		scratch:     raster.NewBuffer(0, 0),
		subscribers: nil,
	}
}

// Subscribe registers s to be called after every operation, after any
// previously registered subscribers.
func (p *Pipeline) Subscribe(s Subscriber) {
	p.subscribers = append(p.subscribers, s)
}

// Load makes a private copy of img the new source and working image and
// publishes it.
func (p *Pipeline) Load(img *raster.Buffer) {
	p.source = img.Clone()
	p.current.CopyFrom(p.source)
	p.log.Info("Loaded %dx%d image", img.Width(), img.Height())
	p.publish()
}

// Image returns a copy of the working image.
func (p *Pipeline) Image() *raster.Buffer {
	return p.current.Clone()
}

// Source returns a copy of the image passed to the last Load.
func (p *Pipeline) Source() *raster.Buffer {
	return p.source.Clone()
}

// ResetImage discards all applied operations and publishes the source again.
func (p *Pipeline) ResetImage() {
	p.current.CopyFrom(p.source)
	p.log.Info("Reset image to source")
	p.publish()
}

// Apply maps fn over every pixel of the working image.
func (p *Pipeline) Apply(fn raster.PixelFunc) *Pipeline {
	return p.run("pixel function", fn)
}

// MakeGrayscale replaces every pixel with its perceptual intensity.
func (p *Pipeline) MakeGrayscale() *Pipeline {
	return p.run("grayscale", filter.Grayscale)
}

// SetGamma applies gamma correction to every channel.
func (p *Pipeline) SetGamma(gamma float64) *Pipeline {
	return p.run("gamma", filter.Gamma(gamma))
}

// ApplyFilter convolves the working image with k.
func (p *Pipeline) ApplyFilter(k kernel.Kernel) *Pipeline {
	return p.run("filter "+k.String(), filter.Convolve(k))
}

// ApplyNonLinearFilter applies the 3x3 rank filter.
func (p *Pipeline) ApplyNonLinearFilter() *Pipeline {
	return p.run("non-linear filter", filter.Rank)
}

// ApplyThresholding binarizes the working image.
func (p *Pipeline) ApplyThresholding() *Pipeline {
	return p.run("threshold", filter.Threshold)
}

// ApplyDithering reduces the working image to gray and halftones it with
// mode. An unknown mode leaves the image untouched and publishes nothing.
func (p *Pipeline) ApplyDithering(mode dither.Mode) *Pipeline {
	if !mode.Valid() {
		p.log.Warn("Ignoring dithering request with unknown mode %s", mode)

		return p
	}

	p.mapPass(filter.Grayscale)

	renderErr := dither.Render(p.scratch, p.current, mode)
	if renderErr != nil {
		p.log.Error("Dithering failed: %v", renderErr)

		return p
	}

	p.swap()
	p.log.Info("Applied %s dithering to %dx%d image", mode, p.current.Width(), p.current.Height())
	p.publish()

	return p
}

// run performs one published mapping pass.
func (p *Pipeline) run(name string, fn raster.PixelFunc) *Pipeline {
	p.mapPass(fn)
	p.log.Info("Applied %s to %dx%d image", name, p.current.Width(), p.current.Height())
	p.publish()

	return p
}

// mapPass maps fn from the working image into the scratch buffer and swaps
// them, without publishing.
func (p *Pipeline) mapPass(fn raster.PixelFunc) {
	raster.Map(p.scratch, p.current, fn)
	p.swap()
}

func (p *Pipeline) swap() {
	p.current, p.scratch = p.scratch, p.current
}

func (p *Pipeline) publish() {
	for _, s := range p.subscribers {
		s(p.current.Clone())
	}
}
