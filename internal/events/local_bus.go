package events

import (
	"context"
	"encoding/json"
	"sync"
)

// LocalBus is the in-process Bus used when Redis is not configured. Slow
// subscribers miss events rather than block publishers.
type LocalBus struct {
	mu   sync.Mutex
	subs map[chan []byte]struct{}
}

func NewLocalBus() *LocalBus {
	return &LocalBus{subs: make(map[chan []byte]struct{})}
}

func (b *LocalBus) Publish(_ context.Context, ev Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	for ch := range b.subs {
		select {
		case ch <- payload:
		default:
		}
	}
	return nil
}

func (b *LocalBus) Subscribe(ctx context.Context) (<-chan []byte, error) {
	ch := make(chan []byte, 32)
	b.mu.Lock()
	b.subs[ch] = struct{}{}
	b.mu.Unlock()

	go func() {
		<-ctx.Done()
		b.mu.Lock()
		delete(b.subs, ch)
		close(ch)
		b.mu.Unlock()
	}()
	return ch, nil
}
