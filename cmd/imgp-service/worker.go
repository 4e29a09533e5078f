package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/book-expert/events"
	"github.com/book-expert/logger"
	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/book-expert/image-pipeline-service/internal/recipe"
)

// message is the part of jetstream.Msg a job needs.
type message interface {
	Data() []byte
	Ack() error
	Nak() error
	Term() error
	InProgress() error
}

// objectStore is the part of jetstream.ObjectStore a job needs.
type objectStore interface {
	GetBytes(ctx context.Context, name string, opts ...jetstream.GetObjectOpt) ([]byte, error)
	PutBytes(ctx context.Context, name string, data []byte) (*jetstream.ObjectInfo, error)
}

// publisher is the part of jetstream.JetStream a job needs.
type publisher interface {
	Publish(
		ctx context.Context,
		subject string,
		payload []byte,
		opts ...jetstream.PublishOpt,
	) (*jetstream.PubAck, error)
}

// worker owns the shared resources every job uses.
type worker struct {
	publisher      publisher
	sourceStore    objectStore
	processedStore objectStore
	cfg            *Config
	appLogger      *logger.Logger
	steps          []recipe.Step
}

func newWorker(
	ctx context.Context,
	jetStream jetstream.JetStream,
	cfg *Config,
	steps []recipe.Step,
	appLogger *logger.Logger,
) (*worker, error) {
	sourceStore, sourceErr := jetStream.ObjectStore(ctx, cfg.NATS.SourceObjectStoreBucket)
	if sourceErr != nil {
		return nil, fmt.Errorf("failed to bind to source object store: %w", sourceErr)
	}

	processedStore, processedErr := jetStream.ObjectStore(
		ctx,
		cfg.NATS.ProcessedObjectStoreBucket,
	)
	if processedErr != nil {
		return nil, fmt.Errorf("failed to bind to processed object store: %w", processedErr)
	}

	return &worker{
		publisher:      jetStream,
		sourceStore:    sourceStore,
		processedStore: processedStore,
		cfg:            cfg,
		appLogger:      appLogger,
		steps:          steps,
	}, nil
}

// processMessages fetches one message at a time until ctx is canceled.
func (w *worker) processMessages(ctx context.Context, consumer jetstream.Consumer) error {
	for {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("context error in message loop: %w", ctxErr)
		}

		batch, fetchErr := consumer.Fetch(1, jetstream.FetchMaxWait(natsFetchTimeout))
		if fetchErr != nil {
			if !errors.Is(fetchErr, context.Canceled) && !errors.Is(fetchErr, nats.ErrTimeout) {
				w.appLogger.Error("Error fetching messages: %v", fetchErr)
			}

			continue
		}

		for msg := range batch.Messages() {
			w.handleMessage(ctx, msg)
		}

		if batchErr := batch.Error(); batchErr != nil && !errors.Is(batchErr, nats.ErrTimeout) {
			w.appLogger.Error("Error during message batch processing: %v", batchErr)
		}
	}
}

// handleMessage processes a single message. Messages whose payload is not a
// PNGCreatedEvent are terminated so they are never redelivered.
func (w *worker) handleMessage(ctx context.Context, msg message) {
	event, unmarshalErr := unmarshalEvent(msg.Data())
	if unmarshalErr != nil {
		w.appLogger.Error("Terminating undecodable message: %v", unmarshalErr)

		if termErr := msg.Term(); termErr != nil {
			w.appLogger.Error("Failed to TERM message: %v", termErr)
		}

		return
	}

	j := &job{worker: w, msg: msg, event: event, header: &event.Header}
	j.run(ctx)
}

// unmarshalEvent decodes a PNGCreatedEvent.
func unmarshalEvent(data []byte) (*events.PNGCreatedEvent, error) {
	var event events.PNGCreatedEvent
	if err := json.Unmarshal(data, &event); err != nil {
		return nil, fmt.Errorf("failed to unmarshal PNGCreatedEvent: %w", err)
	}

	if event.PNGKey == "" {
		return nil, errMissingPNGKey
	}

	return &event, nil
}

var errMissingPNGKey = errors.New("event has no png key")

// job is the processing of one message.
type job struct {
	worker *worker
	msg    message
	event  *events.PNGCreatedEvent
	header *events.EventHeader
}

// run executes the full lifecycle of a job.
func (j *job) run(ctx context.Context) {
	log := j.worker.appLogger

	log.Info(
		"Received job for WorkflowID [%s]: processing PNG key '%s'",
		j.header.WorkflowID,
		j.event.PNGKey,
	)

	if progErr := j.msg.InProgress(); progErr != nil {
		log.Warn("Failed to send InProgress update: %v", progErr)
	}

	data, downloadErr := j.worker.sourceStore.GetBytes(ctx, j.event.PNGKey)
	if downloadErr != nil {
		j.nak(fmt.Errorf("failed to get '%s' from object store: %w", j.event.PNGKey, downloadErr))

		return
	}

	output, transformErr := transform(data, j.worker.steps, j.worker.cfg.Pipeline.Format, log)
	if transformErr != nil {
		if errors.Is(transformErr, errUndecodableImage) {
			j.term(transformErr)
		} else {
			j.nak(transformErr)
		}

		return
	}

	objectName := processedObjectName(
		j.header,
		j.event.PageNumber,
		j.worker.cfg.Pipeline.Format,
	)

	if _, putErr := j.worker.processedStore.PutBytes(ctx, objectName, output); putErr != nil {
		j.nak(fmt.Errorf("failed to upload '%s': %w", objectName, putErr))

		return
	}

	log.Info("Job [%s]: Uploaded '%s'", j.header.WorkflowID, objectName)

	if publishErr := j.publishProcessedEvent(ctx, objectName); publishErr != nil {
		j.nak(publishErr)

		return
	}

	j.ack()
}

// publishProcessedEvent announces the processed image on the processed subject.
func (j *job) publishProcessedEvent(ctx context.Context, objectName string) error {
	processedEvent := events.PNGCreatedEvent{
		Header: events.EventHeader{
			WorkflowID: j.header.WorkflowID,
			UserID:     j.header.UserID,
			TenantID:   j.header.TenantID,
			EventID:    uuid.New().String(),
			Timestamp:  time.Now(),
		},
		PNGKey:     objectName,
		PageNumber: j.event.PageNumber,
		TotalPages: j.event.TotalPages,
	}

	eventJSON, marshalErr := json.Marshal(processedEvent)
	if marshalErr != nil {
		return fmt.Errorf("failed to marshal PNGCreatedEvent: %w", marshalErr)
	}

	_, pubErr := j.worker.publisher.Publish(ctx, j.worker.cfg.NATS.ProcessedSubject, eventJSON)
	if pubErr != nil {
		return fmt.Errorf("failed to publish PNGCreatedEvent: %w", pubErr)
	}

	return nil
}

func (j *job) ack() {
	log := j.worker.appLogger
	if err := j.msg.Ack(); err != nil {
		log.Error("Job [%s]: Failed to acknowledge message: %v", j.header.WorkflowID, err)
	} else {
		log.Success("Job [%s]: Processing complete. Acknowledged.", j.header.WorkflowID)
	}
}

func (j *job) nak(reason error) {
	log := j.worker.appLogger
	log.Error("NAK'ing message for job [%s]: %v", j.header.WorkflowID, reason)

	if err := j.msg.Nak(); err != nil {
		log.Error("Failed to NAK message: %v", err)
	}
}

func (j *job) term(reason error) {
	log := j.worker.appLogger
	log.Error("Terminating message for job [%s]: %v", j.header.WorkflowID, reason)

	if err := j.msg.Term(); err != nil {
		log.Error("Failed to TERM message: %v", err)
	}
}
