package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/book-expert/image-pipeline-service/internal/batch"
	"github.com/book-expert/image-pipeline-service/internal/imageio"
	"github.com/book-expert/image-pipeline-service/internal/raster"
	"github.com/book-expert/image-pipeline-service/internal/recipe"
)

// TestMergeConfigAndFlags verifies that command-line flags override config
// file settings.
func TestMergeConfigAndFlags(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name            string
		flags           flags
		expectedOptions batch.Options
		baseConfig      config
	}{
		{
			name: "Flags should override all corresponding config values",
			baseConfig: config{
				Paths:          configPaths{InputDir: "/config/in", OutputDir: "/config/out"},
				LogsDir:        configLogsDir{Imgp: ""},
				Settings:       configSettings{Format: "png", Workers: 4},
				BlankDetection: configBlankDetection{FuzzPercent: 0, NonWhiteThreshold: 0, SkipBlank: false},
				Pipeline:       configPipeline{Steps: []string{"threshold"}, LogStats: false},
			},
			flags: flags{
				inputPath:  "/flag/in",
				outputPath: "/flag/out",
				format:     "bmp",
				steps:      []string{"grayscale", "dither=pattern"},
				workers:    8,
				skipBlank:  true,
				logStats:   true,
			},
			expectedOptions: batch.Options{
				ProgressBarOutput:      nil,
				InputPath:              "/flag/in",
				OutputPath:             "/flag/out",
				Format:                 "bmp",
				Steps:                  []string{"grayscale", "dither=pattern"},
				Workers:                8,
				BlankFuzzPercent:       0,
				BlankNonWhiteThreshold: 0,
				SkipBlank:              true,
				LogStats:               true,
			},
		},
		{
			name: "Config values should be used when flags are not provided",
			baseConfig: config{
				Paths:          configPaths{InputDir: "/config/in", OutputDir: "/config/out"},
				LogsDir:        configLogsDir{Imgp: "/logs"},
				Settings:       configSettings{Format: "jpg", Workers: 2},
				BlankDetection: configBlankDetection{FuzzPercent: 10, NonWhiteThreshold: 0.1, SkipBlank: true},
				Pipeline:       configPipeline{Steps: []string{"filter=box"}, LogStats: true},
			},
			flags: flags{
				inputPath:  "",
				outputPath: "",
				format:     "",
				steps:      nil,
				workers:    0,
				skipBlank:  false,
				logStats:   false,
			},
			expectedOptions: batch.Options{
				ProgressBarOutput:      nil,
				InputPath:              "/config/in",
				OutputPath:             "/config/out",
				Format:                 "jpg",
				Steps:                  []string{"filter=box"},
				Workers:                2,
				BlankFuzzPercent:       10,
				BlankNonWhiteThreshold: 0.1,
				SkipBlank:              true,
				LogStats:               true,
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			result := mergeConfigAndFlags(tc.baseConfig, tc.flags)
			assert.Equal(t, tc.expectedOptions, result)
		})
	}
}

func TestSafeLoadConfig(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	cfg, err := safeLoadConfig(filepath.Join(dir, "missing.toml"))
	require.NoError(t, err)
	assert.Equal(t, config{}, cfg)

	invalid := filepath.Join(dir, "invalid.toml")
	require.NoError(t, os.WriteFile(invalid, []byte("[paths\ninput_dir ="), 0o600))

	_, err = safeLoadConfig(invalid)
	require.Error(t, err)

	valid := filepath.Join(dir, "project.toml")
	require.NoError(t, os.WriteFile(valid, []byte(`
[paths]
input_dir = "scans"
output_dir = "out"

[settings]
workers = 3
format = "tiff"

[blank_detection]
fuzz_percent = 7
non_white_threshold = 0.01
skip_blank = true

[pipeline]
steps = ["grayscale", "gamma=1.8", "dither=floyd-steinberg"]
log_stats = true
`), 0o600))

	cfg, err = safeLoadConfig(valid)
	require.NoError(t, err)
	assert.Equal(t, "scans", cfg.Paths.InputDir)
	assert.Equal(t, 3, cfg.Settings.Workers)
	assert.Equal(t, "tiff", cfg.Settings.Format)
	assert.Equal(t, 7, cfg.BlankDetection.FuzzPercent)
	assert.True(t, cfg.BlankDetection.SkipBlank)
	assert.Equal(t, []string{"grayscale", "gamma=1.8", "dither=floyd-steinberg"}, cfg.Pipeline.Steps)
	assert.True(t, cfg.Pipeline.LogStats)

	_, err = recipe.ParseAll(cfg.Pipeline.Steps)
	require.NoError(t, err)
}

func writeConfig(t *testing.T, dir string) string {
	t.Helper()

	path := filepath.Join(dir, "project.toml")
	content := fmt.Sprintf("[logs_dir]\nimgp = %q\n", filepath.Join(dir, "logs"))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

func TestApp_ListCommands(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer

	app := newApp()
	app.Writer = &out

	require.NoError(t, app.Run([]string{"imgp", "kernels"}))
	assert.Contains(t, out.String(), "gaussian5")
	assert.Contains(t, out.String(), "5x5")

	out.Reset()
	require.NoError(t, app.Run([]string{"imgp", "modes"}))
	assert.Contains(t, out.String(), "floyd-steinberg")
	assert.Contains(t, out.String(), "ordered")
}

func TestApp_Apply(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	cfgPath := writeConfig(t, dir)
	input := filepath.Join(dir, "in.png")
	output := filepath.Join(dir, "out.bmp")

	src := raster.NewBuffer(6, 6)
	for y := range 6 {
		for x := range 6 {
			v := uint8(x * 50)
			src.Set(x, y, raster.Color{R: v, G: v, B: v, A: 255})
		}
	}

	require.NoError(t, imageio.Save(src, input))

	app := newApp()
	require.NoError(t, app.Run([]string{
		"imgp", "--config", cfgPath, "apply",
		"--input", input, "--output", output, "--step", "threshold", "--stats",
	}))

	result, err := imageio.Load(output)
	require.NoError(t, err)
	assert.Equal(t, raster.Black, result.Pixel(2, 0))
	assert.Equal(t, raster.White, result.Pixel(3, 0))

	err = newApp().Run([]string{
		"imgp", "--config", cfgPath, "apply", "--input", input, "--output", output,
	})
	require.ErrorIs(t, err, batch.ErrNoSteps)

	err = newApp().Run([]string{
		"imgp", "--config", cfgPath, "apply",
		"--input", input, "--output", output, "--step", "melt",
	})
	require.ErrorIs(t, err, recipe.ErrUnknownOperation)
}

func TestApp_RunBatch(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	cfgPath := writeConfig(t, dir)
	inDir := filepath.Join(dir, "in")
	outDir := filepath.Join(dir, "out")
	require.NoError(t, os.MkdirAll(inDir, 0o750))
	require.NoError(t, imageio.Save(raster.Filled(5, 5, raster.Color{R: 200, G: 10, B: 10, A: 255}), filepath.Join(inDir, "red.png")))

	app := newApp()
	app.Writer = &bytes.Buffer{}

	err := app.RunContext(context.Background(), []string{
		"imgp", "--config", cfgPath, "run",
		"--input", inDir, "--output", outDir, "--step", "grayscale", "--format", "bmp", "--workers", "1",
	})
	require.NoError(t, err)

	result, err := imageio.Load(filepath.Join(outDir, "red.bmp"))
	require.NoError(t, err)

	gray := raster.Color{R: 200, G: 10, B: 10, A: 255}.Gray()
	assert.Equal(t, raster.Color{R: gray, G: gray, B: gray, A: 255}, result.Pixel(4, 4))
}
