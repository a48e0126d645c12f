package kafka_middleware

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"petrent/pkg/kafka"
	"petrent/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoggingConsumerMiddleware(t *testing.T) {
	logs := &bytes.Buffer{}
	mw := LoggingConsumerMiddleware(logger.New(logger.Config{Output: logs, Level: logger.WARN}))

	msg, err := kafka.NewMessage().
		WithKey("p1").
		WithValue(map[string]string{"chargeId": "chrg_1"}).
		WithCorrelationID("chrg_1").
		Build()
	require.NoError(t, err)

	assert.NoError(t, mw(context.Background(), msg, func(context.Context, kafka.Message) error { return nil }))
	assert.Empty(t, logs.String())

	err = mw(context.Background(), msg, func(context.Context, kafka.Message) error {
		return errors.New("processor unavailable")
	})
	assert.Error(t, err)
	assert.Contains(t, logs.String(), `"correlation_id":"chrg_1"`)
	assert.Contains(t, logs.String(), `"event_id":"`+msg.GetEventID()+`"`)
	assert.Contains(t, logs.String(), "processor unavailable")
}
