// Package imageio loads images into raster buffers and writes buffers back to
// disk or to a stream. It is the only place that knows about file formats.
package imageio

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp" // Register the WebP decoder.

	"github.com/book-expert/image-pipeline-service/internal/raster"
)

// ErrUnsupportedFormat is returned for file extensions that cannot be written.
var ErrUnsupportedFormat = errors.New("unsupported image format")

const jpegQuality = 95

// readable lists every extension Load accepts. WebP is decode only.
var readable = []string{".bmp", ".gif", ".jpeg", ".jpg", ".png", ".tif", ".tiff", ".webp"}

// Extensions returns the lower-case file extensions Load understands.
func Extensions() []string {
	out := make([]string, len(readable))
	copy(out, readable)

	return out
}

// IsSupported reports whether path has an extension Load can decode.
func IsSupported(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, candidate := range readable {
		if ext == candidate {
			return true
		}
	}

	return false
}

// Load decodes the image at path, applying any EXIF orientation.
func Load(path string) (*raster.Buffer, error) {
	img, openErr := imaging.Open(path, imaging.AutoOrientation(true))
	if openErr != nil {
		return nil, fmt.Errorf("could not open image %s: %w", path, openErr)
	}

	return raster.FromImage(img), nil
}

// Decode reads an image of any registered format from r.
func Decode(r io.Reader) (*raster.Buffer, error) {
	img, decodeErr := imaging.Decode(r, imaging.AutoOrientation(true))
	if decodeErr != nil {
		return nil, fmt.Errorf("could not decode image: %w", decodeErr)
	}

	return raster.FromImage(img), nil
}

// Save writes buf to path in the format implied by its extension.
func Save(buf *raster.Buffer, path string) error {
	if _, formatErr := imaging.FormatFromFilename(path); formatErr != nil {
		return fmt.Errorf("%s: %w", path, ErrUnsupportedFormat)
	}

	saveErr := imaging.Save(buf.ToImage(), path, imaging.JPEGQuality(jpegQuality))
	if saveErr != nil {
		return fmt.Errorf("could not save image %s: %w", path, saveErr)
	}

	return nil
}

// Encode writes buf to w. format is a file extension with or without the
// leading dot, e.g. "png" or ".jpg".
func Encode(w io.Writer, buf *raster.Buffer, format string) error {
	f, formatErr := ParseFormat(format)
	if formatErr != nil {
		return formatErr
	}

	encodeErr := imaging.Encode(w, buf.ToImage(), f, imaging.JPEGQuality(jpegQuality))
	if encodeErr != nil {
		return fmt.Errorf("could not encode %s image: %w", format, encodeErr)
	}

	return nil
}

// ParseFormat resolves a writable format from an extension.
func ParseFormat(format string) (imaging.Format, error) {
	ext := format
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}

	f, err := imaging.FormatFromExtension(ext)
	if err != nil {
		return 0, fmt.Errorf("%q: %w", format, ErrUnsupportedFormat)
	}

	return f, nil
}
