package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"

	"github.com/book-expert/image-pipeline-service/internal/batch"
)

type configPaths struct {
	InputDir  string `toml:"input_dir"`
	OutputDir string `toml:"output_dir"`
}

type configLogsDir struct {
	Imgp string `toml:"imgp"`
}

type configSettings struct {
	Format  string `toml:"format"`
	Workers int    `toml:"workers"`
}

type configBlankDetection struct {
	FuzzPercent       int     `toml:"fuzz_percent"`
	NonWhiteThreshold float64 `toml:"non_white_threshold"`
	SkipBlank         bool    `toml:"skip_blank"`
}

type configPipeline struct {
	Steps    []string `toml:"steps"`
	LogStats bool     `toml:"log_stats"`
}

// config mirrors project.toml.
type config struct {
	Paths          configPaths          `toml:"paths"`
	LogsDir        configLogsDir        `toml:"logs_dir"`
	Settings       configSettings       `toml:"settings"`
	BlankDetection configBlankDetection `toml:"blank_detection"`
	Pipeline       configPipeline       `toml:"pipeline"`
}

// safeLoadConfig loads the TOML config, allowing a missing file.
func safeLoadConfig(path string) (config, error) {
	cfg, err := loadConfig(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			var emptyCfg config

			return emptyCfg, nil
		}

		return config{}, fmt.Errorf("error loading config file: %w", err)
	}

	return cfg, nil
}

func loadConfig(path string) (config, error) {
	var cfg config

	data, readErr := os.ReadFile(path)
	if readErr != nil {
		return config{}, fmt.Errorf("failed to read config file: %w", readErr)
	}

	decodeErr := toml.Unmarshal(data, &cfg)
	if decodeErr != nil {
		return config{}, fmt.Errorf("failed to decode config file: %w", decodeErr)
	}

	return cfg, nil
}

// flags holds the command-line values.
type flags struct {
	inputPath  string
	outputPath string
	format     string
	steps      []string
	workers    int
	skipBlank  bool
	logStats   bool
}

// mergeConfigAndFlags combines settings from the config file and command-line
// flags. Flags take precedence; boolean flags can only switch a feature on.
func mergeConfigAndFlags(cfg config, flgs flags) batch.Options {
	opts := batch.Options{
		ProgressBarOutput:      nil,
		InputPath:              cfg.Paths.InputDir,
		OutputPath:             cfg.Paths.OutputDir,
		Format:                 cfg.Settings.Format,
		Steps:                  cfg.Pipeline.Steps,
		Workers:                cfg.Settings.Workers,
		BlankFuzzPercent:       cfg.BlankDetection.FuzzPercent,
		BlankNonWhiteThreshold: cfg.BlankDetection.NonWhiteThreshold,
		SkipBlank:              cfg.BlankDetection.SkipBlank,
		LogStats:               cfg.Pipeline.LogStats,
	}

	if flgs.inputPath != "" {
		opts.InputPath = flgs.inputPath
	}

	if flgs.outputPath != "" {
		opts.OutputPath = flgs.outputPath
	}

	if flgs.format != "" {
		opts.Format = flgs.format
	}

	if len(flgs.steps) > 0 {
		opts.Steps = flgs.steps
	}

	if flgs.workers > 0 {
		opts.Workers = flgs.workers
	}

	opts.SkipBlank = opts.SkipBlank || flgs.skipBlank
	opts.LogStats = opts.LogStats || flgs.logStats

	return opts
}
