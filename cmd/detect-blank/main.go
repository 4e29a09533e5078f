// Command detect-blank analyzes an image and exits with a code indicating
// whether it is blank (mostly white) or contains content.
//
// Usage: detect-blank <filepath> <fuzz_percent> <non_white_threshold>
// - fuzz_percent: 0..100 tolerated deviation from pure white (higher = more tolerant)
// - non_white_threshold: 0.0..1.0 minimum ratio of non-white pixels to consider content
//
// Any format imgp reads is accepted (PNG, JPEG, GIF, BMP, TIFF, WebP).
//
// Exit codes:
//
//	0 = blank image
//	1 = image has content
//	2 = error (bad args, cannot open/parse image, etc.)
package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/book-expert/image-pipeline-service/internal/imageio"
	"github.com/book-expert/image-pipeline-service/internal/raster"
	"github.com/book-expert/image-pipeline-service/internal/stats"
)

var (
	ErrInvalidArguments   = errors.New("invalid number of arguments")
	ErrInvalidFuzzPercent = errors.New("fuzz percentage must be between 0 and 100")
	ErrInvalidThreshold   = errors.New(
		"non-white threshold must be between 0.0 and 1.0",
	)
	ErrImageZeroPixels = errors.New("image has zero pixels")
)

// arguments holds the parsed and validated command-line arguments.
type arguments struct {
	filePath   string
	fuzzFactor float64
	threshold  float64
}

const (
	exitCodeBlank    = 0
	exitCodeNotBlank = 1
	exitCodeError    = 2

	expectedArgCount = 4
	percentToRatio   = 100.0
)

func main() {
	args, err := parseAndValidateArguments(os.Args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Argument error: %v\n", err)
		os.Exit(exitCodeError)
	}

	hasContent, err := imageHasContent(args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Image analysis error: %v\n", err)
		os.Exit(exitCodeError)
	}

	if hasContent {
		os.Exit(exitCodeNotBlank)
	}

	os.Exit(exitCodeBlank)
}

// parseAndValidateArguments processes the raw command-line arguments.
func parseAndValidateArguments(args []string) (arguments, error) {
	if len(args) != expectedArgCount {
		return arguments{}, fmt.Errorf(
			"expected 3 arguments, but got %d. Usage: <program> <filepath> <fuzz_percent> <threshold>: %w",
			len(args)-1,
			ErrInvalidArguments,
		)
	}

	fuzzFactor, err := parseFuzz(args[2])
	if err != nil {
		return arguments{}, err
	}

	threshold, err := parseThreshold(args[3])
	if err != nil {
		return arguments{}, err
	}

	return arguments{
		filePath:   args[1],
		fuzzFactor: fuzzFactor,
		threshold:  threshold,
	}, nil
}

func parseFuzz(fuzzStr string) (float64, error) {
	fuzzPercent, err := strconv.Atoi(fuzzStr)
	if err != nil {
		return 0, fmt.Errorf("invalid fuzz percentage '%s': %w", fuzzStr, err)
	}

	if fuzzPercent < 0 || fuzzPercent > 100 {
		return 0, fmt.Errorf(
			"got %d: %w",
			fuzzPercent,
			ErrInvalidFuzzPercent,
		)
	}

	return float64(fuzzPercent) / percentToRatio, nil
}

func parseThreshold(thresholdStr string) (float64, error) {
	threshold, err := strconv.ParseFloat(thresholdStr, 64)
	if err != nil {
		return 0, fmt.Errorf(
			"invalid non-white threshold '%s': %w",
			thresholdStr,
			err,
		)
	}

	if threshold < 0 || threshold > 1.0 {
		return 0, fmt.Errorf(
			"got %f: %w",
			threshold,
			ErrInvalidThreshold,
		)
	}

	return threshold, nil
}

// imageHasContent loads the file and analyzes it.
func imageHasContent(args arguments) (bool, error) {
	buf, err := imageio.Load(args.filePath)
	if err != nil {
		return false, err
	}

	return bufferHasContent(buf, args.fuzzFactor, args.threshold)
}

// bufferHasContent reports whether at least threshold of the pixels fall
// outside the white band allowed by fuzzFactor.
func bufferHasContent(buf *raster.Buffer, fuzzFactor, threshold float64) (bool, error) {
	if buf.Empty() {
		return false, ErrImageZeroPixels
	}

	return stats.NonWhiteRatio(buf, fuzzFactor) >= threshold, nil
}
