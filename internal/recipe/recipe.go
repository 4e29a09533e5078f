// Package recipe parses textual operation names such as "filter=gaussian5" or
// "dither=ordered" and runs them against a pipeline.
package recipe

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/book-expert/image-pipeline-service/internal/dither"
	"github.com/book-expert/image-pipeline-service/internal/kernel"
	"github.com/book-expert/image-pipeline-service/internal/pipeline"
)

var (
	// ErrUnknownOperation is returned for an unrecognised step name.
	ErrUnknownOperation = errors.New("unknown operation")
	// ErrMissingArgument is returned when a step that needs an argument has none.
	ErrMissingArgument = errors.New("operation requires an argument")
	// ErrUnexpectedArgument is returned when an argument is given to a step
	// that takes none.
	ErrUnexpectedArgument = errors.New("operation takes no argument")
	// ErrUnknownKernel is returned for a filter name absent from the catalog.
	ErrUnknownKernel = errors.New("unknown kernel")
	// ErrInvalidGamma is returned for a gamma that is not a positive number.
	ErrInvalidGamma = errors.New("gamma must be a positive number")
)

// Op identifies the pipeline operation a step performs.
type Op int

// Supported operations.
const (
	OpReset Op = iota + 1
	OpGrayscale
	OpGamma
	OpFilter
	OpNonLinear
	OpThreshold
	OpDither
)

var opNames = map[string]Op{
	"none":      OpReset,
	"reset":     OpReset,
	"grayscale": OpGrayscale,
	"greyscale": OpGrayscale,
	"gamma":     OpGamma,
	"filter":    OpFilter,
	"nonlinear": OpNonLinear,
	"rank":      OpNonLinear,
	"threshold": OpThreshold,
	"dither":    OpDither,
}

const argSeparator = "="

// Step is one parsed operation with its resolved argument.
type Step struct {
	kernel     kernel.Kernel
	name       string
	kernelName string
	gamma      float64
	op         Op
	mode       dither.Mode
}

// Op returns the operation the step performs.
func (s Step) Op() Op { return s.op }

// Parse turns "name" or "name=argument" into a Step.
func Parse(text string) (Step, error) {
	name, arg, hasArg := strings.Cut(strings.TrimSpace(text), argSeparator)
	name = strings.ToLower(strings.TrimSpace(name))
	arg = strings.TrimSpace(arg)

	op, ok := opNames[name]
	if !ok {
		return Step{}, fmt.Errorf("%q: %w", text, ErrUnknownOperation)
	}

	step := Step{op: op, name: name}

	switch op {
	case OpGamma:
		return parseGamma(step, arg)
	case OpFilter:
		return parseFilter(step, arg)
	case OpDither:
		return parseDither(step, arg)
	case OpReset, OpGrayscale, OpNonLinear, OpThreshold:
		if hasArg {
			return Step{}, fmt.Errorf("%q: %w", text, ErrUnexpectedArgument)
		}
	}

	return step, nil
}

// ParseAll parses every entry of texts, stopping at the first error.
func ParseAll(texts []string) ([]Step, error) {
	steps := make([]Step, 0, len(texts))

	for i, text := range texts {
		step, parseErr := Parse(text)
		if parseErr != nil {
			return nil, fmt.Errorf("step %d: %w", i+1, parseErr)
		}

		steps = append(steps, step)
	}

	return steps, nil
}

func parseGamma(step Step, arg string) (Step, error) {
	if arg == "" {
		return Step{}, fmt.Errorf("gamma: %w", ErrMissingArgument)
	}

	gamma, convErr := strconv.ParseFloat(arg, 64)
	if convErr != nil || gamma <= 0 || math.IsInf(gamma, 0) || math.IsNaN(gamma) {
		return Step{}, fmt.Errorf("gamma %q: %w", arg, ErrInvalidGamma)
	}

	step.gamma = gamma

	return step, nil
}

func parseFilter(step Step, arg string) (Step, error) {
	if arg == "" {
		return Step{}, fmt.Errorf("filter: %w", ErrMissingArgument)
	}

	name := strings.ToLower(arg)

	k, ok := kernel.Lookup(name)
	if !ok {
		return Step{}, fmt.Errorf(
			"filter %q (known: %s): %w",
			arg,
			strings.Join(kernel.Names(), ", "),
			ErrUnknownKernel,
		)
	}

	step.kernel = k
	step.kernelName = name

	return step, nil
}

func parseDither(step Step, arg string) (Step, error) {
	if arg == "" {
		return Step{}, fmt.Errorf("dither: %w", ErrMissingArgument)
	}

	mode, modeErr := dither.ParseMode(arg)
	if modeErr != nil {
		return Step{}, fmt.Errorf("dither: %w", modeErr)
	}

	step.mode = mode

	return step, nil
}

// Run applies the step to p.
func (s Step) Run(p *pipeline.Pipeline) {
	switch s.op {
	case OpReset:
		p.ResetImage()
	case OpGrayscale:
		p.MakeGrayscale()
	case OpGamma:
		p.SetGamma(s.gamma)
	case OpFilter:
		p.ApplyFilter(s.kernel)
	case OpNonLinear:
		p.ApplyNonLinearFilter()
	case OpThreshold:
		p.ApplyThresholding()
	case OpDither:
		p.ApplyDithering(s.mode)
	}
}

// String renders the step in the form Parse accepts.
func (s Step) String() string {
	switch s.op {
	case OpGamma:
		return s.name + argSeparator + strconv.FormatFloat(s.gamma, 'g', -1, 64)
	case OpFilter:
		return s.name + argSeparator + s.kernelName
	case OpDither:
		return s.name + argSeparator + s.mode.String()
	case OpReset, OpGrayscale, OpNonLinear, OpThreshold:
		return s.name
	}

	return "invalid"
}

// RunAll applies steps to p in order.
func RunAll(p *pipeline.Pipeline, steps []Step) {
	for _, step := range steps {
		step.Run(p)
	}
}
