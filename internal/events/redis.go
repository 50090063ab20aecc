package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// DefaultChannel is the pub/sub channel snapshot events travel on.
const DefaultChannel = "stocksentinel:snapshots"

// RedisPublisher publishes events on a Redis pub/sub channel so a serving
// process on another host learns about new snapshots.
type RedisPublisher struct {
	Client  *redis.Client
	Channel string
}

func NewRedisPublisher(client *redis.Client, channel string) *RedisPublisher {
	if channel == "" {
		channel = DefaultChannel
	}
	return &RedisPublisher{Client: client, Channel: channel}
}

func (p *RedisPublisher) Publish(ctx context.Context, evt SnapshotEvent) error {
	data, err := json.Marshal(evt)
	if err != nil {
		return err
	}
	if err := p.Client.Publish(ctx, p.Channel, data).Err(); err != nil {
		return fmt.Errorf("redis publish %s: %w", p.Channel, err)
	}
	return nil
}

// RedisListener relays events from a Redis channel into a local publisher, usually a Broker.
type RedisListener struct {
	Client  *redis.Client
	Channel string
	Target  Publisher
	Logger  *zap.Logger
}

// Run blocks until ctx is cancelled or the subscription closes.
func (l *RedisListener) Run(ctx context.Context) error {
	channel := l.Channel
	if channel == "" {
		channel = DefaultChannel
	}
	pubsub := l.Client.Subscribe(ctx, channel)
	defer pubsub.Close()

	if _, err := pubsub.Receive(ctx); err != nil {
		return fmt.Errorf("redis subscribe %s: %w", channel, err)
	}
	l.Logger.Info("listening for snapshot events", zap.String("channel", channel))

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			l.relay(ctx, msg.Payload)
		}
	}
}

func (l *RedisListener) relay(ctx context.Context, payload string) {
	evt, err := decodeEvent([]byte(payload))
	if err != nil {
		l.Logger.Warn("dropping malformed snapshot event", zap.Error(err))
		return
	}
	if err := l.Target.Publish(ctx, evt); err != nil {
		l.Logger.Error("relay snapshot event", zap.String("run_id", evt.RunID), zap.Error(err))
	}
}

func decodeEvent(data []byte) (SnapshotEvent, error) {
	var evt SnapshotEvent
	if err := json.Unmarshal(data, &evt); err != nil {
		return evt, err
	}
	if evt.RunID == "" {
		return evt, errors.New("event without run id")
	}
	return evt, nil
}
