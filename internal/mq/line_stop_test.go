package mq

import (
	"context"
	"errors"
	"testing"

	"github.com/lidercheck/apiserver/config"
	"github.com/lidercheck/apiserver/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryBackend struct {
	published []Message
	channels  []string
	fail      error
}

func (m *memoryBackend) Publish(_ context.Context, channel string, data []byte, attrs map[string]string) (string, error) {
	if m.fail != nil {
		return "", m.fail
	}
	m.channels = append(m.channels, channel)
	m.published = append(m.published, Message{ID: "1", Data: data, Attributes: attrs})
	return "1", nil
}

func (m *memoryBackend) Subscribe(ctx context.Context, channel string, handler Handler) error {
	for _, msg := range m.published {
		if err := handler(ctx, msg); err != nil {
			return err
		}
	}
	return nil
}

func (m *memoryBackend) Close() error { return nil }

func TestLineStopChannel_RoundTrip(t *testing.T) {
	backend := &memoryBackend{}
	channel := NewLineStopChannel(New(backend), "line-stops")
	ctx := context.Background()

	event := types.LineStopEvent{
		Kind:   types.LineStopEventCreated,
		ID:     "ls-1",
		Line:   "L1",
		Status: types.LineStopWaitingJustification,
		UserID: "1001",
		Date:   "2024-01-03",
	}
	require.NoError(t, channel.PublishLineStop(ctx, event))
	require.Len(t, backend.published, 1)
	assert.Equal(t, []string{"line-stops"}, backend.channels)
	assert.Equal(t, "L1", backend.published[0].Attributes[AttrLine])
	assert.Equal(t, types.LineStopEventCreated, backend.published[0].Attributes[AttrKind])

	backend.published = append(backend.published, Message{Data: []byte("not json")})

	var received []types.LineStopEvent
	err := channel.SubscribeLineStops(ctx, func(_ context.Context, e types.LineStopEvent) error {
		received = append(received, e)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []types.LineStopEvent{event}, received)
}

func TestLineStopChannel_PublishError(t *testing.T) {
	backend := &memoryBackend{fail: errors.New("broker down")}
	channel := NewLineStopChannel(New(backend), "line-stops")

	err := channel.PublishLineStop(context.Background(), types.LineStopEvent{Kind: types.LineStopEventUpdated})
	assert.ErrorContains(t, err, "broker down")
}

func TestOpen(t *testing.T) {
	m, err := Open(context.Background(), config.MQConfig{})
	require.NoError(t, err)
	assert.Nil(t, m)

	_, err = Open(context.Background(), config.MQConfig{Backend: "kafka"})
	assert.Error(t, err)

	_, err = Open(context.Background(), config.MQConfig{Backend: BackendRabbitMQ})
	assert.Error(t, err)
}
