package events

import (
	"sync"
	"time"
)

// Type classifies published events.
type Type string

const (
	TypeStatus   Type = "status"
	TypeProgress Type = "progress"
	TypeStep     Type = "step"
	TypeEngine   Type = "engine"
	TypeResult   Type = "result"
	TypeError    Type = "error"
	TypeReset    Type = "reset"
)

// StatusKind is the tone of a status line.
type StatusKind string

const (
	StatusLoading StatusKind = "loading"
	StatusReady   StatusKind = "ready"
	StatusError   StatusKind = "error"
)

// Event is a sequenced payload consumed by observers.
type Event struct {
	Seq       int64      `json:"seq"`
	Timestamp time.Time  `json:"timestamp"`
	RunID     string     `json:"run_id,omitempty"`
	Type      Type       `json:"type"`
	Stage     string     `json:"stage,omitempty"`
	Percent   int        `json:"percent,omitempty"`
	Visible   bool       `json:"visible"`
	Kind      StatusKind `json:"kind,omitempty"`
	Message   string     `json:"message,omitempty"`
	Category  string     `json:"category,omitempty"`
	Hint      string     `json:"hint,omitempty"`
	Step      int        `json:"step,omitempty"`
	StepState string     `json:"step_state,omitempty"`
}

// Bus stores recent events and fans them out to subscribers.
type Bus struct {
	mu        sync.RWMutex
	nextSeq   int64
	maxEvents int
	events    []Event
	subs      map[int]chan Event
	nextSub   int
}

// NewBus creates a bounded in-memory event buffer.
func NewBus(maxEvents int) *Bus {
	if maxEvents <= 0 {
		maxEvents = 500
	}
	return &Bus{
		maxEvents: maxEvents,
		events:    make([]Event, 0, maxEvents),
		subs:      make(map[int]chan Event),
	}
}

// Publish appends one event, assigns sequence and timestamp, and delivers it
// to subscribers. A subscriber whose buffer is full misses the event; it can
// catch up with Since.
func (b *Bus) Publish(event Event) Event {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextSeq++
	event.Seq = b.nextSeq
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	b.events = append(b.events, event)
	if len(b.events) > b.maxEvents {
		trim := len(b.events) - b.maxEvents
		b.events = append([]Event(nil), b.events[trim:]...)
	}

	for _, ch := range b.subs {
		select {
		case ch <- event:
		default:
		}
	}
	return event
}

// Since returns events with sequence strictly greater than seq.
func (b *Bus) Since(seq int64) []Event {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if len(b.events) == 0 {
		return nil
	}

	out := make([]Event, 0, len(b.events))
	for _, event := range b.events {
		if event.Seq > seq {
			out = append(out, event)
		}
	}
	return out
}

// Subscribe registers a live subscriber. The cancel func closes the channel
// and is safe to call more than once.
func (b *Bus) Subscribe(buffer int) (<-chan Event, func()) {
	if buffer <= 0 {
		buffer = 64
	}
	ch := make(chan Event, buffer)

	b.mu.Lock()
	id := b.nextSub
	b.nextSub++
	b.subs[id] = ch
	b.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, id)
			b.mu.Unlock()
			close(ch)
		})
	}
	return ch, cancel
}
