package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/book-expert/events"
	"github.com/book-expert/logger"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/book-expert/image-pipeline-service/internal/imageio"
	"github.com/book-expert/image-pipeline-service/internal/raster"
	"github.com/book-expert/image-pipeline-service/internal/recipe"
)

var errFake = errors.New("fake failure")

type fakeMsg struct {
	data       []byte
	acked      bool
	naked      bool
	termed     bool
	inProgress bool
}

func (m *fakeMsg) Data() []byte { return m.data }

func (m *fakeMsg) Ack() error {
	m.acked = true

	return nil
}

func (m *fakeMsg) Nak() error {
	m.naked = true

	return nil
}

func (m *fakeMsg) Term() error {
	m.termed = true

	return nil
}

func (m *fakeMsg) InProgress() error {
	m.inProgress = true

	return nil
}

type fakeStore struct {
	objects map[string][]byte
	putErr  error
	mu      sync.Mutex
}

func newFakeStore() *fakeStore {
	return &fakeStore{objects: map[string][]byte{}, putErr: nil, mu: sync.Mutex{}}
}

func (s *fakeStore) GetBytes(
	_ context.Context,
	name string,
	_ ...jetstream.GetObjectOpt,
) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, ok := s.objects[name]
	if !ok {
		return nil, jetstream.ErrObjectNotFound
	}

	return data, nil
}

func (s *fakeStore) PutBytes(
	_ context.Context,
	name string,
	data []byte,
) (*jetstream.ObjectInfo, error) {
	if s.putErr != nil {
		return nil, s.putErr
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.objects[name] = data

	return &jetstream.ObjectInfo{}, nil
}

type fakePublisher struct {
	err      error
	subjects []string
	payloads [][]byte
}

func (p *fakePublisher) Publish(
	_ context.Context,
	subject string,
	payload []byte,
	_ ...jetstream.PublishOpt,
) (*jetstream.PubAck, error) {
	if p.err != nil {
		return nil, p.err
	}

	p.subjects = append(p.subjects, subject)
	p.payloads = append(p.payloads, payload)

	return &jetstream.PubAck{}, nil
}

type fixture struct {
	worker    *worker
	source    *fakeStore
	processed *fakeStore
	publisher *fakePublisher
}

func newFixture(t *testing.T, steps ...string) *fixture {
	t.Helper()

	appLogger, loggerErr := logger.New(t.TempDir(), "test.log")
	require.NoError(t, loggerErr)

	t.Cleanup(func() { _ = appLogger.Close() })

	cfg := &Config{
		NATS:     NATSConfig{ProcessedSubject: "images.processed"},
		Paths:    PathsConfig{BaseLogsDir: ""},
		Pipeline: PipelineConfig{Steps: steps, Format: ""},
	}

	parsed, parseErr := parseRecipe(cfg)
	require.NoError(t, parseErr)

	f := &fixture{
		source:    newFakeStore(),
		processed: newFakeStore(),
		publisher: &fakePublisher{err: nil, subjects: nil, payloads: nil},
		worker:    nil,
	}
	f.worker = &worker{
		publisher:      f.publisher,
		sourceStore:    f.source,
		processedStore: f.processed,
		cfg:            cfg,
		appLogger:      appLogger,
		steps:          parsed,
	}

	return f
}

func encodePNG(t *testing.T, buf *raster.Buffer) []byte {
	t.Helper()

	var out bytes.Buffer
	require.NoError(t, imageio.Encode(&out, buf, "png"))

	return out.Bytes()
}

func eventJSON(t *testing.T, key string) []byte {
	t.Helper()

	data, err := json.Marshal(events.PNGCreatedEvent{
		Header: events.EventHeader{
			WorkflowID: "wf-1",
			UserID:     "user-1",
			TenantID:   "tenant-1",
			EventID:    "evt-1",
			Timestamp:  time.Now(),
		},
		PNGKey:     key,
		PageNumber: 3,
		TotalPages: 9,
	})
	require.NoError(t, err)

	return data
}

func TestHandleMessage_Success(t *testing.T) {
	t.Parallel()

	f := newFixture(t, "threshold")
	f.source.objects["tenant-1/wf-1/page_0003.png"] = encodePNG(
		t,
		raster.Filled(4, 4, raster.Color{R: 40, G: 40, B: 40, A: 255}),
	)

	msg := &fakeMsg{data: eventJSON(t, "tenant-1/wf-1/page_0003.png")}
	f.worker.handleMessage(context.Background(), msg)

	assert.True(t, msg.inProgress)
	assert.True(t, msg.acked)
	assert.False(t, msg.naked)
	assert.False(t, msg.termed)

	stored, ok := f.processed.objects["tenant-1/wf-1/processed/page_0003.png"]
	require.True(t, ok)

	result, err := imageio.Decode(bytes.NewReader(stored))
	require.NoError(t, err)
	assert.True(t, result.Equal(raster.Filled(4, 4, raster.Black)))

	require.Len(t, f.publisher.payloads, 1)
	assert.Equal(t, "images.processed", f.publisher.subjects[0])

	var published events.PNGCreatedEvent
	require.NoError(t, json.Unmarshal(f.publisher.payloads[0], &published))
	assert.Equal(t, "tenant-1/wf-1/processed/page_0003.png", published.PNGKey)
	assert.Equal(t, 3, published.PageNumber)
	assert.Equal(t, 9, published.TotalPages)
	assert.Equal(t, "wf-1", published.Header.WorkflowID)
	assert.Equal(t, "tenant-1", published.Header.TenantID)
	assert.NotEqual(t, "evt-1", published.Header.EventID)
}

func TestHandleMessage_Failures(t *testing.T) {
	t.Parallel()

	t.Run("invalid JSON is terminated", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t, "grayscale")
		msg := &fakeMsg{data: []byte("{not json")}
		f.worker.handleMessage(context.Background(), msg)
		assert.True(t, msg.termed)
		assert.False(t, msg.acked)
	})

	t.Run("missing source object is retried", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t, "grayscale")
		msg := &fakeMsg{data: eventJSON(t, "missing.png")}
		f.worker.handleMessage(context.Background(), msg)
		assert.True(t, msg.naked)
		assert.False(t, msg.acked)
	})

	t.Run("undecodable image is terminated", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t, "grayscale")
		f.source.objects["bad.png"] = []byte("garbage")
		msg := &fakeMsg{data: eventJSON(t, "bad.png")}
		f.worker.handleMessage(context.Background(), msg)
		assert.True(t, msg.termed)
		assert.Empty(t, f.processed.objects)
	})

	t.Run("upload failure is retried", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t, "grayscale")
		f.source.objects["ok.png"] = encodePNG(t, raster.Filled(2, 2, raster.White))
		f.processed.putErr = errFake
		msg := &fakeMsg{data: eventJSON(t, "ok.png")}
		f.worker.handleMessage(context.Background(), msg)
		assert.True(t, msg.naked)
		assert.Empty(t, f.publisher.payloads)
	})

	t.Run("publish failure is retried", func(t *testing.T) {
		t.Parallel()

		f := newFixture(t, "grayscale")
		f.source.objects["ok.png"] = encodePNG(t, raster.Filled(2, 2, raster.White))
		f.publisher.err = errFake
		msg := &fakeMsg{data: eventJSON(t, "ok.png")}
		f.worker.handleMessage(context.Background(), msg)
		assert.True(t, msg.naked)
		assert.False(t, msg.acked)
	})
}

func TestUnmarshalEvent(t *testing.T) {
	t.Parallel()

	event, err := unmarshalEvent(eventJSON(t, "a/b.png"))
	require.NoError(t, err)
	assert.Equal(t, "a/b.png", event.PNGKey)

	_, err = unmarshalEvent(eventJSON(t, ""))
	require.ErrorIs(t, err, errMissingPNGKey)

	_, err = unmarshalEvent([]byte("[]"))
	require.Error(t, err)
}

func TestParseRecipe(t *testing.T) {
	t.Parallel()

	cfg := &Config{Pipeline: PipelineConfig{Steps: nil, Format: ""}}
	_, err := parseRecipe(cfg)
	require.ErrorIs(t, err, errNoSteps)

	cfg.Pipeline.Steps = []string{"filter=unknown"}
	_, err = parseRecipe(cfg)
	require.ErrorIs(t, err, recipe.ErrUnknownKernel)

	cfg.Pipeline.Steps = []string{"grayscale"}
	cfg.Pipeline.Format = "webp"
	_, err = parseRecipe(cfg)
	require.ErrorIs(t, err, imageio.ErrUnsupportedFormat)

	cfg.Pipeline.Format = ""
	steps, err := parseRecipe(cfg)
	require.NoError(t, err)
	assert.Len(t, steps, 1)
	assert.Equal(t, "png", cfg.Pipeline.Format)
}

func TestProcessedObjectName(t *testing.T) {
	t.Parallel()

	header := &events.EventHeader{
		WorkflowID: "wf",
		UserID:     "",
		TenantID:   "acme",
		EventID:    "",
		Timestamp:  time.Time{},
	}
	assert.Equal(t, "acme/wf/processed/page_0012.png", processedObjectName(header, 12, "png"))
	assert.Equal(t, "acme/wf/processed/page_0001.bmp", processedObjectName(header, 1, ".bmp"))
}

func TestTransform_GrayscaleKeepsSize(t *testing.T) {
	t.Parallel()

	f := newFixture(t, "grayscale", "filter=box")
	src := raster.Filled(5, 3, raster.Black)
	src.Set(2, 1, raster.Color{R: 255, G: 0, B: 0, A: 255})

	out, err := transform(encodePNG(t, src), f.worker.steps, "bmp", f.worker.appLogger)
	require.NoError(t, err)

	result, err := imageio.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, 5, result.Width())
	assert.Equal(t, 3, result.Height())

	c := result.Pixel(2, 1)
	assert.Equal(t, c.R, c.G)
	assert.Equal(t, c.G, c.B)
}
