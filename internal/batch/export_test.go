package batch

// Exported test-only accessors for unexported functions and fields.

// ConfigForTest returns a copy of the processor configuration.
func (processor *Processor) ConfigForTest() Options { return processor.config }

func (processor *Processor) ValidateConfigForTest() error { return processor.validateConfig() }

func (processor *Processor) DiscoverInputImagesForTest() ([]string, error) {
	return processor.discoverInputImages()
}

// OutputPathForTest exposes outputPathFor.
func OutputPathForTest(outputDir, inputPath, format string) string {
	return outputPathFor(outputDir, inputPath, format)
}
