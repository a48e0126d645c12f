package kafka_middleware

import (
	"context"
	"errors"
	"testing"

	"petrent/pkg/kafka"

	"github.com/stretchr/testify/assert"
)

func TestMetrics_ConsumerMiddleware(t *testing.T) {
	m := NewMetrics()
	mw := m.ConsumerMiddleware()

	ok := func(context.Context, kafka.Message) error { return nil }
	fail := func(context.Context, kafka.Message) error { return errors.New("boom") }

	assert.NoError(t, mw(context.Background(), kafka.Message{}, ok))
	assert.NoError(t, mw(context.Background(), kafka.Message{}, ok))
	assert.Error(t, mw(context.Background(), kafka.Message{}, fail))

	assert.Equal(t, int64(2), m.Consumed())
	assert.Equal(t, int64(1), m.ConsumeFailed())
}

func TestMetrics_ProducerMiddleware(t *testing.T) {
	m := NewMetrics()
	mw := m.ProducerMiddleware()

	err := mw(context.Background(), kafka.Message{}, func(context.Context, kafka.Message) error {
		return errors.New("broker down")
	})

	assert.Error(t, err)
	assert.Equal(t, int64(0), m.Published())
	assert.Equal(t, int64(1), m.PublishFailed())
}
