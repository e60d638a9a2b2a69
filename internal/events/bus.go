// Package events is the in-process broadcast used to tell the rest of the
// storefront that a device's session, cart or notices changed.
package events

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

type Topic string

const (
	TopicSession  Topic = "session"
	TopicNotice   Topic = "notice"
	TopicCart     Topic = "cart"
	TopicCheckout Topic = "checkout"
)

type Event struct {
	ID      string    `json:"id"`
	Topic   Topic     `json:"topic"`
	Scope   string    `json:"scope"`
	Payload any       `json:"payload"`
	At      time.Time `json:"at"`
}

// Redactor is implemented by payloads that carry secrets. Anything leaving
// the process (Kafka, SSE) sends Redacted() instead of the payload itself.
type Redactor interface {
	Redacted() any
}

// Public returns a copy of the event that is safe to hand to outside readers.
func (e Event) Public() Event {
	if r, ok := e.Payload.(Redactor); ok {
		e.Payload = r.Redacted()
	}
	return e
}

type Handler func(ctx context.Context, ev Event)

type subscription struct {
	id int
	h  Handler
}

// Bus delivers events synchronously, in subscription order, on the
// publisher's goroutine. A nil *Bus drops everything.
type Bus struct {
	mu   sync.RWMutex
	next int
	subs map[Topic][]subscription
}

func New() *Bus {
	return &Bus{subs: make(map[Topic][]subscription)}
}

// Subscribe registers h for topic and returns a function that removes it.
func (b *Bus) Subscribe(topic Topic, h Handler) func() {
	b.mu.Lock()
	b.next++
	id := b.next
	b.subs[topic] = append(b.subs[topic], subscription{id: id, h: h})
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			subs := b.subs[topic]
			for i, s := range subs {
				if s.id == id {
					b.subs[topic] = append(subs[:i:i], subs[i+1:]...)
					break
				}
			}
		})
	}
}

func (b *Bus) SubscribeMany(h Handler, topics ...Topic) func() {
	cancels := make([]func(), 0, len(topics))
	for _, t := range topics {
		cancels = append(cancels, b.Subscribe(t, h))
	}
	return func() {
		for _, c := range cancels {
			c()
		}
	}
}

func (b *Bus) Publish(ctx context.Context, topic Topic, scope string, payload any) Event {
	ev := Event{
		ID:      uuid.NewString(),
		Topic:   topic,
		Scope:   scope,
		Payload: payload,
		At:      time.Now().UTC(),
	}
	if b == nil {
		return ev
	}

	b.mu.RLock()
	subs := append([]subscription(nil), b.subs[topic]...)
	b.mu.RUnlock()

	for _, s := range subs {
		s.h(ctx, ev)
	}
	return ev
}
