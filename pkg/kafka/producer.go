// Package kafka wraps segmentio/kafka-go with the service's producer and
// consumer plumbing.
package kafka

import (
	"context"
	"encoding/json"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/segmentio/kafka-go"

	"github.com/Ramsey-B/fern/pkg/tracing"
)

// Producer handles Kafka event emission
type Producer struct {
	writer *kafka.Writer
	logger ectologger.Logger
	topic  string
}

// ProducerConfig holds Kafka producer configuration
type ProducerConfig struct {
	Brokers      []string
	Topic        string
	BatchSize    int
	BatchTimeout time.Duration
	RequiredAcks int
	Compression  string
}

// NewProducer creates a new Kafka producer
func NewProducer(cfg ProducerConfig, logger ectologger.Logger) *Producer {
	compression := kafka.Snappy
	switch cfg.Compression {
	case "gzip":
		compression = kafka.Gzip
	case "lz4":
		compression = kafka.Lz4
	case "zstd":
		compression = kafka.Zstd
	case "none":
		compression = 0
	}

	writer := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Balancer:               &kafka.LeastBytes{},
		BatchSize:              cfg.BatchSize,
		BatchTimeout:           cfg.BatchTimeout,
		RequiredAcks:           kafka.RequiredAcks(cfg.RequiredAcks),
		Compression:            compression,
		AllowAutoTopicCreation: true,
	}

	return &Producer{
		writer: writer,
		logger: logger,
		topic:  cfg.Topic,
	}
}

// Close closes the producer
func (p *Producer) Close() error {
	return p.writer.Close()
}

// Publish serializes the payload and writes it to the producer's topic. The
// trace parent rides along in a header so consumers can join the trace.
func (p *Producer) Publish(ctx context.Context, key string, payload any) error {
	ctx, span := tracing.StartSpan(ctx, "kafka.Producer.Publish")
	defer span.End()

	log := p.logger.WithContext(ctx).WithFields(map[string]any{
		"topic": p.topic,
		"key":   key,
	})

	value, err := json.Marshal(payload)
	if err != nil {
		log.WithError(err).Error("failed to marshal message payload")
		return err
	}

	msg := kafka.Message{
		Topic: p.topic,
		Key:   []byte(key),
		Value: value,
		Time:  time.Now().UTC(),
	}
	if traceParent := tracing.GetTraceParent(ctx); traceParent != "" {
		msg.Headers = append(msg.Headers, kafka.Header{Key: "traceparent", Value: []byte(traceParent)})
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		log.WithError(err).Error("failed to write message")
		return err
	}
	return nil
}
