package mq

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/lidercheck/apiserver/types"
)

// Attribute keys set on line-stop events.
const (
	AttrKind        = "kind"
	AttrLine        = "line"
	AttrContentType = "content-type"
)

// LineStopChannel publishes and consumes line-stop events as JSON on one
// channel.
type LineStopChannel struct {
	mq      *MQ
	channel string
}

func NewLineStopChannel(mq *MQ, channel string) *LineStopChannel {
	return &LineStopChannel{mq: mq, channel: channel}
}

// PublishLineStop sends event to the configured channel.
func (c *LineStopChannel) PublishLineStop(ctx context.Context, event types.LineStopEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	attrs := map[string]string{
		AttrKind:        event.Kind,
		AttrLine:        event.Line,
		AttrContentType: "application/json",
	}
	if _, err := c.mq.Publish(ctx, c.channel, data, attrs); err != nil {
		return fmt.Errorf("publish %s to %s: %w", event.Kind, c.channel, err)
	}
	return nil
}

// SubscribeLineStops decodes events from the configured channel and passes
// them to handle. Messages that do not decode are acknowledged and dropped.
func (c *LineStopChannel) SubscribeLineStops(ctx context.Context, handle func(context.Context, types.LineStopEvent) error) error {
	return c.mq.Subscribe(ctx, c.channel, func(ctx context.Context, msg Message) error {
		var event types.LineStopEvent
		if err := json.Unmarshal(msg.Data, &event); err != nil {
			return nil
		}
		return handle(ctx, event)
	})
}
