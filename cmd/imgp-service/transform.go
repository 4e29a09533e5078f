package main

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/book-expert/events"
	"github.com/book-expert/logger"

	"github.com/book-expert/image-pipeline-service/internal/imageio"
	"github.com/book-expert/image-pipeline-service/internal/pipeline"
	"github.com/book-expert/image-pipeline-service/internal/recipe"
)

// errUndecodableImage marks input that will never succeed on redelivery.
var errUndecodableImage = errors.New("undecodable image")

// transform decodes data, applies steps and encodes the result as format.
func transform(data []byte, steps []recipe.Step, format string, log *logger.Logger) ([]byte, error) {
	src, decodeErr := imageio.Decode(bytes.NewReader(data))
	if decodeErr != nil {
		return nil, fmt.Errorf("%w: %w", errUndecodableImage, decodeErr)
	}

	pipe := pipeline.New(log)
	pipe.Load(src)
	recipe.RunAll(pipe, steps)

	var out bytes.Buffer

	encodeErr := imageio.Encode(&out, pipe.Image(), format)
	if encodeErr != nil {
		return nil, fmt.Errorf("failed to encode result: %w", encodeErr)
	}

	return out.Bytes(), nil
}

// processedObjectName returns '<tenant>/<workflow>/processed/page_0001.png'.
func processedObjectName(header *events.EventHeader, pageNumber int, format string) string {
	return fmt.Sprintf(
		"%s/%s/processed/page_%04d.%s",
		header.TenantID,
		header.WorkflowID,
		pageNumber,
		strings.TrimPrefix(format, "."),
	)
}
