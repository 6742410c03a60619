package kafka

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/Ramsey-B/clover/pkg/tracing"
)

// ProducerConfig holds Kafka producer configuration
type ProducerConfig struct {
	Brokers      []string
	Topic        string
	BatchSize    int
	BatchTimeout time.Duration
	RequiredAcks int
	Compression  string
}

// ParseBrokers splits a comma-separated broker list
func ParseBrokers(brokers string) []string {
	list := make([]string, 0)
	for _, b := range strings.Split(brokers, ",") {
		if b = strings.TrimSpace(b); b != "" {
			list = append(list, b)
		}
	}
	return list
}

// messageWriter is the part of kafka.Writer the producer uses
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer publishes dedupe events to a single topic
type Producer struct {
	writer  messageWriter
	logger  ectologger.Logger
	topic   string
	brokers []string
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
		Topic:                  cfg.Topic,
		Balancer:               &kafka.LeastBytes{},
		BatchSize:              cfg.BatchSize,
		BatchTimeout:           cfg.BatchTimeout,
		RequiredAcks:           kafka.RequiredAcks(cfg.RequiredAcks),
		Compression:            compression,
		AllowAutoTopicCreation: true,
	}

	p := newProducer(writer, cfg.Topic, logger)
	p.brokers = cfg.Brokers
	return p
}

func newProducer(writer messageWriter, topic string, logger ectologger.Logger) *Producer {
	return &Producer{
		writer: writer,
		logger: logger,
		topic:  topic,
	}
}

// Publish writes one event. The event type and schema version travel as
// headers alongside the W3C traceparent of ctx.
func (p *Producer) Publish(ctx context.Context, key, eventType, schemaVersion string, value []byte) error {
	ctx, span := tracing.StartSpan(ctx, "kafka.Producer.Publish")
	defer span.End()

	span.SetAttributes(
		attribute.String("messaging.system", "kafka"),
		attribute.String("messaging.destination", p.topic),
		attribute.String("messaging.operation", "publish"),
		attribute.String("event_type", eventType),
	)

	headers := []kafka.Header{
		{Key: "event_type", Value: []byte(eventType)},
		{Key: "schema_version", Value: []byte(schemaVersion)},
	}
	if traceparent := tracing.GetTraceParent(ctx); traceparent != "" {
		headers = append(headers, kafka.Header{Key: "traceparent", Value: []byte(traceparent)})
	}

	msg := kafka.Message{
		Key:     []byte(key),
		Value:   value,
		Headers: headers,
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		p.logger.WithContext(ctx).WithError(err).Errorf("Failed to publish %s event to Kafka topic %s", eventType, p.topic)
		return err
	}

	p.logger.WithContext(ctx).WithFields(map[string]any{
		"event_type": eventType,
		"key":        key,
	}).Debug("Published event")

	return nil
}

// GetName returns the startup dependency name
func (p *Producer) GetName() string {
	return "kafka"
}

// DependsOn returns the startup dependencies
func (p *Producer) DependsOn() []string {
	return []string{"tracing"}
}

// Start is a no-op; the writer connects lazily on the first publish
func (p *Producer) Start(ctx context.Context) error {
	p.logger.WithContext(ctx).WithField("topic", p.topic).Info("Kafka producer ready")
	return nil
}

// Stop flushes pending writes and closes the producer
func (p *Producer) Stop(ctx context.Context) error {
	return p.Close()
}

// Ping dials the first reachable broker
func (p *Producer) Ping(ctx context.Context) error {
	if len(p.brokers) == 0 {
		return fmt.Errorf("no kafka brokers configured")
	}

	var lastErr error
	for _, broker := range p.brokers {
		conn, err := kafka.DialContext(ctx, "tcp", broker)
		if err != nil {
			lastErr = err
			continue
		}
		return conn.Close()
	}
	return fmt.Errorf("no kafka broker reachable: %w", lastErr)
}

// Close closes the producer
func (p *Producer) Close() error {
	return p.writer.Close()
}
