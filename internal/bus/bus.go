// Package bus provides the process-wide broadcast primitive that fans out
// presence, telemetry and blink notifications to every subscribed observer.
package bus

import (
	"log"
	"sync"

	"github.com/google/uuid"
)

// Topic names carried over the push channel.
const (
	TopicStatus      = "status"
	TopicTelemetry   = "telemetry"
	TopicBlink       = "blink"
	TopicBlinkCount  = "blinkCount"
	TopicLightStatus = "lightStatus"
	TopicSpeech      = "speech"
	TopicNavigate    = "navigate"
	TopicEmergency   = "emergency"
	TopicMenu        = "menu"
	TopicPhrase      = "phrase"
	TopicMorse       = "morse"
	TopicGame        = "game"
)

// Event is a single broadcast message.
type Event struct {
	Topic   string `json:"type"`
	Payload any    `json:"data"`
}

// Bus delivers events to all current subscribers on a best-effort basis.
// Delivery to a subscriber whose buffer is full is dropped rather than
// blocking the publisher; disconnected observers resynchronize via the
// replay passed to Subscribe.
type Bus struct {
	mu     sync.RWMutex
	subs   map[string]chan Event
	buffer int
}

// New creates a Bus whose subscribers each get a channel buffered to the
// given size.
func New(buffer int) *Bus {
	if buffer <= 0 {
		buffer = 64
	}
	return &Bus{
		subs:   make(map[string]chan Event),
		buffer: buffer,
	}
}

// Publish delivers the payload to every current subscriber. It never blocks:
// a subscriber that cannot keep up loses the event.
func (b *Bus) Publish(topic string, payload any) {
	ev := Event{Topic: topic, Payload: payload}
	b.mu.RLock()
	defer b.mu.RUnlock()
	for id, ch := range b.subs {
		select {
		case ch <- ev:
		default:
			log.Printf("[BUS] dropping %s event for slow subscriber %s", topic, id)
		}
	}
}

// Subscribe registers a new observer. Any replay events are queued into the
// subscriber's channel before it joins the live flow, so a fresh observer
// sees current state without waiting for a triggering event.
func (b *Bus) Subscribe(replay ...Event) (string, <-chan Event) {
	id := uuid.New().String()
	ch := make(chan Event, b.buffer+len(replay))
	for _, ev := range replay {
		ch <- ev
	}
	b.mu.Lock()
	b.subs[id] = ch
	b.mu.Unlock()
	return id, ch
}

// Unsubscribe removes an observer and closes its channel.
func (b *Bus) Unsubscribe(id string) {
	b.mu.Lock()
	ch, ok := b.subs[id]
	if ok {
		delete(b.subs, id)
	}
	b.mu.Unlock()
	if ok {
		close(ch)
	}
}

// SubscriberCount reports the number of currently attached observers.
func (b *Bus) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}
