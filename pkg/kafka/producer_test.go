package kafka

import (
	"context"
	"errors"
	"testing"

	"github.com/Gobusters/ectologger"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWriter struct {
	messages []kafka.Message
	err      error
	closed   bool
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.messages = append(w.messages, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

func noopLogger() ectologger.Logger {
	return ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
}

func TestParseBrokers(t *testing.T) {
	assert.Equal(t, []string{"a:9092", "b:9092"}, ParseBrokers(" a:9092 , b:9092,"))
	assert.Empty(t, ParseBrokers(""))
}

func TestProducer_Publish(t *testing.T) {
	writer := &fakeWriter{}
	producer := newProducer(writer, "clover.events", noopLogger())

	err := producer.Publish(context.Background(), "run-1", "dedupe.run.completed", "1.0", []byte(`{"run_id":"run-1"}`))
	require.NoError(t, err)

	require.Len(t, writer.messages, 1)
	msg := writer.messages[0]
	assert.Equal(t, "run-1", string(msg.Key))
	assert.JSONEq(t, `{"run_id":"run-1"}`, string(msg.Value))

	headers := map[string]string{}
	for _, h := range msg.Headers {
		headers[h.Key] = string(h.Value)
	}
	assert.Equal(t, "dedupe.run.completed", headers["event_type"])
	assert.Equal(t, "1.0", headers["schema_version"])
	_, hasTrace := headers["traceparent"]
	assert.False(t, hasTrace)
}

func TestProducer_PublishError(t *testing.T) {
	writer := &fakeWriter{err: errors.New("broker down")}
	producer := newProducer(writer, "clover.events", noopLogger())

	err := producer.Publish(context.Background(), "k", "contact.merged", "1.0", []byte(`{}`))
	assert.EqualError(t, err, "broker down")
}

func TestProducer_Stop(t *testing.T) {
	writer := &fakeWriter{}
	producer := newProducer(writer, "clover.events", noopLogger())

	require.NoError(t, producer.Stop(context.Background()))
	assert.True(t, writer.closed)
	assert.Equal(t, "kafka", producer.GetName())
}

func TestProducer_PingWithoutBrokers(t *testing.T) {
	producer := newProducer(&fakeWriter{}, "clover.events", noopLogger())
	assert.Error(t, producer.Ping(context.Background()))
}
