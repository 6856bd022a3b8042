package eventbus

import (
	"context"
	"sync"

	"pkt.systems/pslog"
	"pkt.systems/sayam/schema"
)

// EventType identifies the event payload.
type EventType string

const (
	// EventConversation carries a conversation log change.
	EventConversation EventType = "conversation"
	// EventSession carries session mode and presence changes.
	EventSession EventType = "session"
	// EventStudy carries study artifact changes.
	EventStudy EventType = "study"
	// EventTab carries browser tab lifecycle updates.
	EventTab EventType = "tab"
)

// Event represents a UI-facing event emitted by the shell.
type Event struct {
	Type         EventType
	Conversation schema.ConversationEvent
	Session      schema.SessionEvent
	Study        schema.StudyEvent
	Tab          schema.TabEvent
}

// Bus fanouts shell events to UI subscribers. Slow subscribers lose
// events rather than blocking the emitters; the session and tab events
// carry full state so a dropped update is corrected by the next one.
type Bus struct {
	mu    sync.Mutex
	subs  map[chan Event]struct{}
	log   pslog.Logger
	depth int
}

// New constructs a Bus.
func New(logger pslog.Logger) *Bus {
	if logger == nil {
		logger = pslog.Ctx(context.Background())
	}
	return &Bus{
		subs:  make(map[chan Event]struct{}),
		log:   logger,
		depth: 256,
	}
}

// Subscribe registers a subscriber and returns a channel + cancel.
func (b *Bus) Subscribe() (<-chan Event, func()) {
	if b == nil {
		return nil, func() {}
	}
	ch := make(chan Event, b.depth)
	b.mu.Lock()
	b.subs[ch] = struct{}{}
	count := len(b.subs)
	b.mu.Unlock()
	if b.log != nil {
		b.log.Debug("eventbus subscribe", "subs", count)
	}
	return ch, func() {
		b.mu.Lock()
		delete(b.subs, ch)
		b.mu.Unlock()
		close(ch)
		if b.log != nil {
			b.log.Debug("eventbus unsubscribe")
		}
	}
}

// OnConversation publishes a conversation event.
func (b *Bus) OnConversation(event schema.ConversationEvent) {
	b.publish(Event{Type: EventConversation, Conversation: event})
}

// OnSession publishes a session event.
func (b *Bus) OnSession(event schema.SessionEvent) {
	b.publish(Event{Type: EventSession, Session: event})
}

// OnStudy publishes a study event.
func (b *Bus) OnStudy(event schema.StudyEvent) {
	b.publish(Event{Type: EventStudy, Study: event})
}

// OnTabEvent publishes a tab event.
func (b *Bus) OnTabEvent(event schema.TabEvent) {
	b.publish(Event{Type: EventTab, Tab: event})
}

func (b *Bus) publish(event Event) {
	if b == nil {
		return
	}
	b.mu.Lock()
	subs := make([]chan Event, 0, len(b.subs))
	for sub := range b.subs {
		subs = append(subs, sub)
	}
	b.mu.Unlock()
	if len(subs) == 0 {
		return
	}
	dropped := 0
	for _, sub := range subs {
		select {
		case sub <- event:
		default:
			dropped++
		}
	}
	if dropped > 0 && b.log != nil {
		b.log.Trace("eventbus dropped", "count", dropped)
	}
}
