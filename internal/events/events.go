// Package events fans agent activity out to websocket subscribers.
package events

import (
	"context"
	"time"
)

type Type string

const (
	TypeStatus     Type = "status"
	TypeSuggestion Type = "suggestion"
	TypeCallLog    Type = "call_log"
	TypeMessage    Type = "message"
)

type Event struct {
	Type      Type      `json:"type"`
	Data      any       `json:"data,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

func New(t Type, data any) Event {
	return Event{Type: t, Data: data, Timestamp: time.Now().UTC()}
}

type Publisher interface {
	Publish(ctx context.Context, ev Event) error
}

// Bus is a Publisher that can also be subscribed to. Subscriptions end when
// ctx is done; the returned channel is then closed.
type Bus interface {
	Publisher
	Subscribe(ctx context.Context) (<-chan []byte, error)
}
