package kafka

import (
	"context"
	"errors"
	"testing"

	"github.com/segmentio/kafka-go"
)

type fakeWriter struct {
	written []kafka.Message
	err     error
	closed  bool
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.written = append(w.written, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

func buildMessage(t *testing.T) Message {
	t.Helper()
	msg, err := NewMessage().
		WithKey("listing-1").
		WithEventType("availability.range_reserved").
		WithValue(map[string]string{"bookingId": "b1"}).
		Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return msg
}

func headerValue(msg kafka.Message, key string) string {
	for _, h := range msg.Headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}

func TestProducer_PublishRunsMiddlewareInOrder(t *testing.T) {
	writer := &fakeWriter{}
	p := &Producer{writer: writer, topic: "availability-events"}

	var order []string
	p.Use(func(ctx context.Context, msg Message, next func(context.Context, Message) error) error {
		order = append(order, "first")
		return next(ctx, msg)
	})
	p.Use(func(ctx context.Context, msg Message, next func(context.Context, Message) error) error {
		order = append(order, "second")
		if msg.Topic != "availability-events" {
			t.Errorf("expected topic to default to producer topic, got %q", msg.Topic)
		}
		return next(ctx, msg)
	})

	if err := p.Publish(context.Background(), buildMessage(t)); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	if len(order) != 2 || order[0] != "first" || order[1] != "second" {
		t.Errorf("unexpected middleware order: %v", order)
	}
	if len(writer.written) != 1 || string(writer.written[0].Key) != "listing-1" {
		t.Fatalf("expected one message keyed by listing, got %+v", writer.written)
	}
	if headerValue(writer.written[0], HeaderEventID) == "" {
		t.Error("expected generated event id header")
	}
}

func TestProducer_FailedWriteGoesToDLQ(t *testing.T) {
	writeErr := errors.New("broker unavailable")
	dlq := &fakeWriter{}
	p := &Producer{writer: &fakeWriter{err: writeErr}, dlqWriter: dlq, topic: "availability-events"}

	err := p.Publish(context.Background(), buildMessage(t))
	if ClassifyError(err) != ErrorTypeTransient {
		t.Errorf("expected transient error, got %v", err)
	}
	if !errors.Is(err, writeErr) {
		t.Errorf("expected wrapped write error, got %v", err)
	}
	if len(dlq.written) != 1 {
		t.Fatalf("expected message on DLQ, got %d", len(dlq.written))
	}
	if got := headerValue(dlq.written[0], HeaderOriginalTopic); got != "availability-events" {
		t.Errorf("expected original topic header, got %q", got)
	}
}

func TestProducer_RejectsInvalidMessages(t *testing.T) {
	p := &Producer{writer: &fakeWriter{}, topic: "t"}
	ctx := context.Background()

	if err := p.Publish(ctx, Message{Value: []byte("x")}); !errors.Is(err, ErrEmptyKey) {
		t.Errorf("expected ErrEmptyKey, got %v", err)
	}
	if err := p.Publish(ctx, Message{Key: "k"}); !errors.Is(err, ErrEmptyValue) {
		t.Errorf("expected ErrEmptyValue, got %v", err)
	}

	if err := p.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := p.Publish(ctx, buildMessage(t)); !errors.Is(err, ErrProducerClosed) {
		t.Errorf("expected ErrProducerClosed, got %v", err)
	}
}

func TestMessageBuilder_UnencodableValue(t *testing.T) {
	_, err := NewMessage().WithKey("k").WithValue(make(chan int)).Build()
	if ClassifyError(err) != ErrorTypePermanent {
		t.Errorf("expected permanent error, got %v", err)
	}
}
