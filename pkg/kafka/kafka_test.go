package kafka

import (
	"context"
	"errors"
	"sync"
	"testing"

	"petrent/pkg/logger"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWriter struct {
	mu       sync.Mutex
	err      error
	messages []kafka.Message
	closed   bool
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.mu.Lock()
	defer w.mu.Unlock()
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

type fakeReader struct {
	mu        sync.Mutex
	pending   []kafka.Message
	committed []kafka.Message
	cancel    context.CancelFunc
}

func (r *fakeReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.pending) == 0 {
		r.cancel()
		return kafka.Message{}, context.Canceled
	}
	msg := r.pending[0]
	r.pending = r.pending[1:]
	return msg, nil
}

func (r *fakeReader) CommitMessages(_ context.Context, msgs ...kafka.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.committed = append(r.committed, msgs...)
	return nil
}

func (r *fakeReader) Close() error { return nil }

func header(msg kafka.Message, key string) string {
	for _, h := range msg.Headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}

func buildMessage(t *testing.T, key string) Message {
	t.Helper()
	msg, err := NewMessage().
		WithKey(key).
		WithValue(map[string]string{"paymentId": key}).
		WithEventType("refund.requested").
		Build()
	require.NoError(t, err)
	return msg
}

func TestMessageBuilder(t *testing.T) {
	msg := buildMessage(t, "pay-1")

	assert.Equal(t, "pay-1", msg.Key)
	assert.JSONEq(t, `{"paymentId":"pay-1"}`, string(msg.Value))
	assert.NotEmpty(t, msg.GetEventID())
	assert.Equal(t, "refund.requested", msg.GetEventType())
	assert.NotEmpty(t, msg.Headers[HeaderTimestamp])
}

func TestMessageBuilder_UnencodableValue(t *testing.T) {
	_, err := NewMessage().WithKey("k").WithValue(make(chan int)).Build()

	assert.ErrorIs(t, err, ErrInvalidMessage)
}

func TestMessage_RetryCount(t *testing.T) {
	msg := Message{Headers: map[string]string{}}
	assert.Equal(t, 0, msg.GetRetryCount())

	for i := 0; i < 12; i++ {
		msg.IncrementRetryCount()
	}

	assert.Equal(t, 12, msg.GetRetryCount())
	assert.Equal(t, "12", msg.Headers[HeaderRetryCount])
}

func TestProducer_Publish(t *testing.T) {
	w := &fakeWriter{}
	p := newProducer(w, nil, "petrent.bookings", "", logger.Discard())

	var seen []string
	p.Use(func(ctx context.Context, msg Message, next func(context.Context, Message) error) error {
		seen = append(seen, msg.Topic)
		return next(ctx, msg)
	})

	require.NoError(t, p.Publish(context.Background(), buildMessage(t, "pay-1")))

	require.Len(t, w.messages, 1)
	assert.Equal(t, "pay-1", string(w.messages[0].Key))
	assert.Equal(t, "refund.requested", header(w.messages[0], HeaderEventType))
	assert.Equal(t, []string{"petrent.bookings"}, seen)
}

func TestProducer_RejectsInvalidMessages(t *testing.T) {
	p := newProducer(&fakeWriter{}, nil, "t", "", logger.Discard())

	assert.ErrorIs(t, p.Publish(context.Background(), Message{Value: []byte("{}")}), ErrEmptyKey)
	assert.ErrorIs(t, p.Publish(context.Background(), Message{Key: "k"}), ErrEmptyValue)
}

func TestProducer_DivertsToDLQ(t *testing.T) {
	writeErr := errors.New("leader not available")
	w := &fakeWriter{err: writeErr}
	dlq := &fakeWriter{}
	p := newProducer(w, dlq, "petrent.refunds", "petrent.refunds.dlq", logger.Discard())

	msg := buildMessage(t, "pay-1")
	err := p.Publish(context.Background(), msg)

	assert.ErrorIs(t, err, writeErr)
	require.Len(t, dlq.messages, 1)
	assert.Equal(t, "petrent.refunds", header(dlq.messages[0], HeaderOriginalTopic))
	assert.Equal(t, writeErr.Error(), header(dlq.messages[0], HeaderDLQError))
	assert.Empty(t, msg.Headers[HeaderOriginalTopic])
}

func TestProducer_Closed(t *testing.T) {
	w := &fakeWriter{}
	p := newProducer(w, nil, "t", "", logger.Discard())

	require.NoError(t, p.Close())
	require.NoError(t, p.Close())

	assert.True(t, w.closed)
	assert.ErrorIs(t, p.Publish(context.Background(), buildMessage(t, "k")), ErrProducerClosed)
}

func TestConsumer_RetriesTransientThenSucceeds(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	r := &fakeReader{pending: []kafka.Message{{Key: []byte("pay-1"), Value: []byte("{}")}}, cancel: cancel}
	calls := 0
	c := newConsumer(r, nil, "petrent.refunds", "g", "", func(context.Context, Message) error {
		calls++
		if calls < 3 {
			return NewTransientError("processor unavailable", nil)
		}
		return nil
	}, logger.Discard())
	c.maxRetries = 5

	err := c.Start(ctx)

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 3, calls)
	assert.Len(t, r.committed, 1)
}

func TestConsumer_PermanentGoesToDLQ(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	r := &fakeReader{pending: []kafka.Message{{Key: []byte("pay-1"), Value: []byte("not json")}}, cancel: cancel}
	dlq := &fakeWriter{}
	calls := 0
	c := newConsumer(r, dlq, "petrent.refunds", "petrent-refunds", "petrent.refunds.dlq", func(context.Context, Message) error {
		calls++
		return NewPermanentError("undecodable refund request", nil)
	}, logger.Discard())
	c.maxRetries = 5

	_ = c.Start(ctx)

	assert.Equal(t, 1, calls)
	require.Len(t, dlq.messages, 1)
	assert.Equal(t, "petrent-refunds", header(dlq.messages[0], HeaderDLQConsumerGroup))
	assert.Len(t, r.committed, 1)
}

func TestConsumer_ExhaustedRetriesGoToDLQ(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	r := &fakeReader{pending: []kafka.Message{{Key: []byte("pay-1"), Value: []byte("{}")}}, cancel: cancel}
	dlq := &fakeWriter{}
	calls := 0
	c := newConsumer(r, dlq, "petrent.refunds", "g", "petrent.refunds.dlq", func(context.Context, Message) error {
		calls++
		return NewTransientError("processor unavailable", nil)
	}, logger.Discard())
	c.maxRetries = 2

	_ = c.Start(ctx)

	assert.Equal(t, 3, calls)
	require.Len(t, dlq.messages, 1)
	assert.Equal(t, "2", header(dlq.messages[0], HeaderRetryCount))
}

func TestClassifyError(t *testing.T) {
	assert.Equal(t, ErrorTypeTransient, ClassifyError(errors.New("dial tcp: connection refused")))
	assert.Equal(t, ErrorTypeTransient, ClassifyError(context.DeadlineExceeded))
	assert.Equal(t, ErrorTypePermanent, ClassifyError(errors.New("json: cannot unmarshal")))
	assert.Equal(t, ErrorTypeTransient, ClassifyError(NewTransientError("x", nil)))
	assert.False(t, ShouldRetry(NewTransientError("x", nil), 3, 3))
}
