package events

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"
)

const DefaultChannel = "agent:events"

type RedisBus struct {
	rdb     *redis.Client
	channel string
}

func NewRedisBus(rdb *redis.Client, channel string) *RedisBus {
	if channel == "" {
		channel = DefaultChannel
	}
	return &RedisBus{rdb: rdb, channel: channel}
}

func (b *RedisBus) Publish(ctx context.Context, ev Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return b.rdb.Publish(ctx, b.channel, payload).Err()
}

// Subscribe forwards raw JSON payloads as they were published.
func (b *RedisBus) Subscribe(ctx context.Context) (<-chan []byte, error) {
	ps := b.rdb.Subscribe(ctx, b.channel)
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, err
	}

	out := make(chan []byte, 32)
	go func() {
		defer close(out)
		defer ps.Close()
		for {
			m, err := ps.ReceiveMessage(ctx)
			if err != nil {
				return
			}
			select {
			case out <- []byte(m.Payload):
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}
