package batch

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/book-expert/image-pipeline-service/internal/imageio"
)

// defaultDirMode is the permission set for created directories.
const defaultDirMode = 0o750

// DiscoverImages finds every decodable image in dirPath, sorted by name.
// Matching is case-insensitive and does not recurse into subdirectories.
func DiscoverImages(dirPath string) ([]string, error) {
	dirEntries, readErr := os.ReadDir(dirPath)
	if readErr != nil {
		return nil, fmt.Errorf(
			"could not read directory %s: %w",
			dirPath,
			readErr,
		)
	}

	var imagePaths []string

	for _, entry := range dirEntries {
		if !entry.IsDir() && imageio.IsSupported(entry.Name()) {
			imagePaths = append(imagePaths, filepath.Join(dirPath, entry.Name()))
		}
	}

	return imagePaths, nil
}

// ensureOutputDirectory creates the output directory and its parents.
func ensureOutputDirectory(outputDir string) error {
	mkdirErr := os.MkdirAll(outputDir, defaultDirMode)
	if mkdirErr != nil {
		return fmt.Errorf(
			"failed to create output directory %s: %w",
			outputDir,
			mkdirErr,
		)
	}

	return nil
}

// outputPathFor maps 'in/photo.jpg' to '<outputDir>/photo.<format>'.
func outputPathFor(outputDir, inputPath, format string) string {
	baseName := strings.TrimSuffix(filepath.Base(inputPath), filepath.Ext(inputPath))

	return filepath.Join(outputDir, baseName+"."+strings.TrimPrefix(format, "."))
}
