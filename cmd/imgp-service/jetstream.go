package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/nats-io/nats.go/jetstream"
)

// setupJetStream ensures the streams, the durable consumer and both object
// stores exist.
func setupJetStream(ctx context.Context, jetStream jetstream.JetStream, cfg *Config) error {
	for _, streamCfg := range []jetstream.StreamConfig{
		newStreamConfig(cfg.NATS.SourceStreamName, cfg.NATS.SourceSubject),
		newStreamConfig(cfg.NATS.ProcessedStreamName, cfg.NATS.ProcessedSubject),
	} {
		_, streamErr := jetStream.CreateStream(ctx, streamCfg)
		if streamErr != nil && !errors.Is(streamErr, jetstream.ErrStreamNameAlreadyInUse) {
			return fmt.Errorf("failed to create stream '%s': %w", streamCfg.Name, streamErr)
		}
	}

	stream, streamErr := jetStream.Stream(ctx, cfg.NATS.SourceStreamName)
	if streamErr != nil {
		return fmt.Errorf("failed to get source stream handle: %w", streamErr)
	}

	_, consumerErr := stream.CreateOrUpdateConsumer(ctx, newConsumerConfig(cfg))
	if consumerErr != nil {
		return fmt.Errorf("failed to create source consumer: %w", consumerErr)
	}

	for _, bucket := range []string{
		cfg.NATS.SourceObjectStoreBucket,
		cfg.NATS.ProcessedObjectStoreBucket,
	} {
		_, objStoreErr := jetStream.CreateObjectStore(ctx, newObjectStoreConfig(bucket))
		if objStoreErr != nil && !errors.Is(objStoreErr, jetstream.ErrBucketExists) {
			return fmt.Errorf("failed to create object store '%s': %w", bucket, objStoreErr)
		}
	}

	return nil
}

func newStreamConfig(name, subject string) jetstream.StreamConfig {
	return jetstream.StreamConfig{
		Name:              name,
		Subjects:          []string{subject},
		Retention:         jetstream.WorkQueuePolicy,
		MaxConsumers:      -1,
		MaxMsgs:           -1,
		MaxBytes:          -1,
		Discard:           jetstream.DiscardOld,
		MaxMsgsPerSubject: -1,
		MaxMsgSize:        -1,
		Storage:           jetstream.FileStorage,
		Replicas:          1,
		Compression:       jetstream.NoCompression,
	}
}

func newConsumerConfig(cfg *Config) jetstream.ConsumerConfig {
	return jetstream.ConsumerConfig{
		Durable:       cfg.NATS.SourceConsumerName,
		FilterSubject: cfg.NATS.SourceSubject,
		AckPolicy:     jetstream.AckExplicitPolicy,
		AckWait:       ackWait,
		MaxDeliver:    -1,
		DeliverPolicy: jetstream.DeliverAllPolicy,
		ReplayPolicy:  jetstream.ReplayInstantPolicy,
		MaxAckPending: -1,
	}
}

func newObjectStoreConfig(bucket string) jetstream.ObjectStoreConfig {
	return jetstream.ObjectStoreConfig{
		Bucket:   bucket,
		MaxBytes: -1,
		Storage:  jetstream.FileStorage,
		Replicas: 1,
	}
}
