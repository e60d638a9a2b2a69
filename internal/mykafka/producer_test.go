package mykafka

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/levelup_storefront/internal/events"
)

type fakeWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

type tokenPayload struct {
	Token string `json:"token,omitempty"`
	Email string `json:"email"`
}

func (p tokenPayload) Redacted() any { return tokenPayload{Email: p.Email} }

func TestNewProducer_Validation(t *testing.T) {
	_, err := NewProducer(nil, "topic")
	require.Error(t, err)

	_, err = NewProducer([]string{"localhost:9092"}, "")
	require.Error(t, err)

	p, err := NewProducer([]string{"localhost:9092"}, "storefront_events")
	require.NoError(t, err)
	require.NoError(t, p.Close())
}

func TestForward_PublishesRedactedEventsKeyedByScope(t *testing.T) {
	w := &fakeWriter{}
	p := &Producer{writer: w}
	bus := events.New()

	stop := p.Forward(bus, slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)), events.TopicSession, events.TopicCheckout)
	bus.Publish(context.Background(), events.TopicSession, "dev-1", tokenPayload{Token: "secret", Email: "a@b.cl"})
	bus.Publish(context.Background(), events.TopicNotice, "dev-1", "ignored")
	stop()
	bus.Publish(context.Background(), events.TopicSession, "dev-1", tokenPayload{Email: "late@b.cl"})

	require.Len(t, w.msgs, 1)
	assert.Equal(t, "dev-1", string(w.msgs[0].Key))
	assert.NotContains(t, string(w.msgs[0].Value), "secret")

	var got struct {
		Topic   string         `json:"topic"`
		Scope   string         `json:"scope"`
		Payload map[string]any `json:"payload"`
	}
	require.NoError(t, json.Unmarshal(w.msgs[0].Value, &got))
	assert.Equal(t, "session", got.Topic)
	assert.Equal(t, "a@b.cl", got.Payload["email"])
}

func TestForward_LogsWriteFailures(t *testing.T) {
	w := &fakeWriter{err: errors.New("broker down")}
	p := &Producer{writer: w}
	bus := events.New()

	var buf bytes.Buffer
	p.Forward(bus, slog.New(slog.NewJSONHandler(&buf, nil)), events.TopicCart)
	bus.Publish(context.Background(), events.TopicCart, "dev-2", []string{})

	assert.Contains(t, buf.String(), "kafka_publish_failed")
	assert.Contains(t, buf.String(), "broker down")
}
