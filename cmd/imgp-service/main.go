// This file orchestrates the image pipeline service, initializing and running
// the NATS worker.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/book-expert/configurator"
	"github.com/book-expert/logger"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/book-expert/image-pipeline-service/internal/imageio"
	"github.com/book-expert/image-pipeline-service/internal/recipe"
)

// configURLEnv names the environment variable holding the configuration URL.
const configURLEnv = "IMGP_CONFIG_URL"

var (
	errConfigURLRequired = errors.New(configURLEnv + " is not set")
	errNoSteps           = errors.New("pipeline.steps must not be empty")
)

// Config represents the overall configuration structure for the service.
type Config struct {
	NATS     NATSConfig     `toml:"nats"`
	Paths    PathsConfig    `toml:"paths"`
	Pipeline PipelineConfig `toml:"pipeline"`
}

// PathsConfig holds common path configurations.
type PathsConfig struct {
	BaseLogsDir string `toml:"base_logs_dir"`
}

// NATSConfig holds the streams, subjects and buckets the worker uses. Source
// entries describe incoming PNGs; processed entries describe results.
type NATSConfig struct {
	URL                        string `toml:"url"`
	SourceStreamName           string `toml:"source_stream_name"`
	SourceConsumerName         string `toml:"source_consumer_name"`
	SourceSubject              string `toml:"source_subject"`
	SourceObjectStoreBucket    string `toml:"source_object_store_bucket"`
	ProcessedStreamName        string `toml:"processed_stream_name"`
	ProcessedSubject           string `toml:"processed_subject"`
	ProcessedObjectStoreBucket string `toml:"processed_object_store_bucket"`
}

// PipelineConfig is the recipe applied to every incoming image.
type PipelineConfig struct {
	Steps  []string `toml:"steps"`
	Format string   `toml:"format"`
}

const (
	natsFetchTimeout = 5 * time.Second
	ackWait          = 30 * time.Second
	defaultFormat    = "png"
)

func main() {
	ctx, stop := signal.NotifyContext(
		context.Background(),
		syscall.SIGINT,
		syscall.SIGTERM,
	)

	runErr := run(ctx)

	stop()

	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		log.Printf("Fatal application error: %v", runErr)
		os.Exit(1)
	}

	log.Println("Application shut down gracefully.")
}

// run initializes all components and starts the message processing loop.
func run(ctx context.Context) error {
	cfg, appLogger, setupErr := setupConfigAndLogger()
	if setupErr != nil {
		return setupErr
	}

	defer func() {
		if closeErr := appLogger.Close(); closeErr != nil {
			log.Printf("Warning: failed to close app logger: %v", closeErr)
		}
	}()

	steps, recipeErr := parseRecipe(cfg)
	if recipeErr != nil {
		return recipeErr
	}

	natsConnection, connErr := nats.Connect(cfg.NATS.URL)
	if connErr != nil {
		return fmt.Errorf("failed to connect to NATS: %w", connErr)
	}
	defer natsConnection.Close()

	appLogger.Info("Connected to NATS server at %s", natsConnection.ConnectedUrl())

	jetStream, jsErr := jetstream.New(natsConnection)
	if jsErr != nil {
		return fmt.Errorf("failed to create JetStream context: %w", jsErr)
	}

	jsSetupErr := setupJetStream(ctx, jetStream, cfg)
	if jsSetupErr != nil {
		return fmt.Errorf("failed to set up JetStream resources: %w", jsSetupErr)
	}

	consumer, consumerErr := jetStream.Consumer(
		ctx,
		cfg.NATS.SourceStreamName,
		cfg.NATS.SourceConsumerName,
	)
	if consumerErr != nil {
		return fmt.Errorf("failed to get consumer: %w", consumerErr)
	}

	imageWorker, workerErr := newWorker(ctx, jetStream, cfg, steps, appLogger)
	if workerErr != nil {
		return workerErr
	}

	appLogger.Info(
		"Worker is running with recipe %v, listening on '%s'...",
		steps,
		cfg.NATS.SourceSubject,
	)

	return imageWorker.processMessages(ctx, consumer)
}

// setupConfigAndLogger loads configuration and sets up the application logger.
func setupConfigAndLogger() (*Config, *logger.Logger, error) {
	configURL := os.Getenv(configURLEnv)
	if configURL == "" {
		return nil, nil, errConfigURLRequired
	}

	var cfg Config

	tempLogger, tempLoggerErr := logger.New(os.TempDir(), "imgp-bootstrap.log")
	if tempLoggerErr != nil {
		return nil, nil, fmt.Errorf("failed to create bootstrap logger: %w", tempLoggerErr)
	}

	defer func() {
		if closeErr := tempLogger.Close(); closeErr != nil {
			log.Printf("Warning: failed to close temp logger: %v", closeErr)
		}
	}()

	loadErr := configurator.LoadFromURL(configURL, &cfg, tempLogger)
	if loadErr != nil {
		return nil, nil, fmt.Errorf(
			"failed to load configuration from URL %s: %w",
			configURL,
			loadErr,
		)
	}

	log.Printf("Configuration loaded from %s", configURL)

	appLogger, loggerErr := logger.New(cfg.Paths.BaseLogsDir, "imgp-service.log")
	if loggerErr != nil {
		return nil, nil, fmt.Errorf("failed to initialize logger: %w", loggerErr)
	}

	return &cfg, appLogger, nil
}

// parseRecipe validates the configured steps and output format, filling the
// format default.
func parseRecipe(cfg *Config) ([]recipe.Step, error) {
	if len(cfg.Pipeline.Steps) == 0 {
		return nil, errNoSteps
	}

	if cfg.Pipeline.Format == "" {
		cfg.Pipeline.Format = defaultFormat
	}

	_, formatErr := imageio.ParseFormat(cfg.Pipeline.Format)
	if formatErr != nil {
		return nil, fmt.Errorf("invalid pipeline.format: %w", formatErr)
	}

	steps, parseErr := recipe.ParseAll(cfg.Pipeline.Steps)
	if parseErr != nil {
		return nil, fmt.Errorf("invalid pipeline.steps: %w", parseErr)
	}

	return steps, nil
}
