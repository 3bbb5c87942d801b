// Package events is the in-process notification bus. The command gateway
// publishes backend notifications on it, the state store publishes field
// changes, and the reconciler publishes phase transitions.
package events

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/logocruncher/logo-cruncher/internal/constants"
)

// EventType defines the types of events that can be emitted
type EventType string

const (
	// EventCompletion carries a named notification delivered by the backend
	// (for example "event-greet-finished").
	EventCompletion EventType = "completion"

	// EventPhaseChanged is published on every job reconciler transition.
	EventPhaseChanged EventType = "phase_changed"
)

// Event is the base interface for all events
type Event interface {
	Type() EventType
	Timestamp() time.Time
}

// BaseEvent provides common event fields
type BaseEvent struct {
	EventType EventType
	Time      time.Time
}

func (e BaseEvent) Type() EventType      { return e.EventType }
func (e BaseEvent) Timestamp() time.Time { return e.Time }

// CompletionEvent is a backend notification. Deliveries are unordered with
// respect to command responses and may repeat.
type CompletionEvent struct {
	BaseEvent
	Name    string
	Payload string
}

// NewCompletionEvent creates a CompletionEvent stamped with the current time.
func NewCompletionEvent(name, payload string) *CompletionEvent {
	return &CompletionEvent{
		BaseEvent: BaseEvent{EventType: EventCompletion, Time: time.Now()},
		Name:      name,
		Payload:   payload,
	}
}

// PhaseChangedEvent reports a job reconciler state transition.
type PhaseChangedEvent struct {
	BaseEvent
	RequestID string // correlation id of the submission
	Sequence  uint64 // dispatch sequence number (0 before dispatch)
	OldPhase  string
	NewPhase  string
	Message   string // status text set by the transition, if any
	JobCount  int    // jobs applied, for the applied phase
}

// EventBus manages event subscriptions and publishing
type EventBus struct {
	subscribers   map[EventType][]chan Event
	all           []chan Event // Subscribers to all events
	mu            sync.RWMutex
	bufferSize    int
	closed        bool
	droppedEvents atomic.Int64 // Count of dropped events due to full buffers
}

// NewEventBus creates a new event bus with specified buffer size
func NewEventBus(bufferSize int) *EventBus {
	if bufferSize <= 0 {
		bufferSize = constants.EventBusDefaultBuffer
	}
	if bufferSize > constants.EventBusMaxBuffer {
		bufferSize = constants.EventBusMaxBuffer
	}
	return &EventBus{
		subscribers: make(map[EventType][]chan Event),
		all:         make([]chan Event, 0),
		bufferSize:  bufferSize,
	}
}

// Subscribe creates a subscription to a specific event type.
// After Close the returned channel is already closed.
func (eb *EventBus) Subscribe(eventType EventType) <-chan Event {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	if eb.closed {
		ch := make(chan Event)
		close(ch)
		return ch
	}

	ch := make(chan Event, eb.bufferSize)
	eb.subscribers[eventType] = append(eb.subscribers[eventType], ch)
	return ch
}

// SubscribeAll creates a subscription to all events
func (eb *EventBus) SubscribeAll() <-chan Event {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	if eb.closed {
		ch := make(chan Event)
		close(ch)
		return ch
	}

	ch := make(chan Event, eb.bufferSize)
	eb.all = append(eb.all, ch)
	return ch
}

// SubscribeFunc runs handler on its own goroutine for every event of the
// given type until the returned cancel function is called or the bus is
// closed. Cancel is idempotent. Called outside the handler it blocks until
// the handler goroutine has exited, so no handler call starts after it
// returns. Called while a handler is running (including from the handler
// itself) it stops further deliveries and returns without waiting.
func (eb *EventBus) SubscribeFunc(eventType EventType, handler func(Event)) (cancel func()) {
	ch := eb.Subscribe(eventType)
	return runHandler(ch, handler, func() { eb.Unsubscribe(eventType, ch) })
}

// SubscribeAllFunc is SubscribeFunc for every event type.
func (eb *EventBus) SubscribeAllFunc(handler func(Event)) (cancel func()) {
	ch := eb.SubscribeAll()
	return runHandler(ch, handler, func() { eb.UnsubscribeAll(ch) })
}

func runHandler(ch <-chan Event, handler func(Event), release func()) (cancel func()) {
	stop := make(chan struct{})
	done := make(chan struct{})
	var running atomic.Bool

	go func() {
		defer close(done)
		for {
			select {
			case <-stop:
				return
			case ev, ok := <-ch:
				if !ok {
					return
				}
				running.Store(true)
				select {
				case <-stop:
					running.Store(false)
					return
				default:
				}
				handler(ev)
				running.Store(false)
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			close(stop)
			if !running.Load() {
				<-done
			}
			release()
		})
	}
}

// Publish sends an event to all subscribers without blocking.
// Events that do not fit a subscriber's buffer are dropped and counted.
func (eb *EventBus) Publish(event Event) {
	eb.mu.RLock()
	defer eb.mu.RUnlock()

	if eb.closed {
		return
	}

	for _, ch := range eb.subscribers[event.Type()] {
		select {
		case ch <- event:
		default:
			eb.droppedEvents.Add(1)
		}
	}

	for _, ch := range eb.all {
		select {
		case ch <- event:
		default:
			eb.droppedEvents.Add(1)
		}
	}
}

// Close shuts down the event bus and closes all channels
func (eb *EventBus) Close() {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	if eb.closed {
		return
	}

	eb.closed = true

	for _, channels := range eb.subscribers {
		for _, ch := range channels {
			close(ch)
		}
	}

	for _, ch := range eb.all {
		close(ch)
	}
}

// PublishCompletion is a convenience method for publishing backend notifications
func (eb *EventBus) PublishCompletion(name, payload string) {
	eb.Publish(NewCompletionEvent(name, payload))
}

// Unsubscribe removes a subscription channel from a specific event type
func (eb *EventBus) Unsubscribe(eventType EventType, ch <-chan Event) {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	if eb.closed {
		return
	}

	subscribers := eb.subscribers[eventType]
	for i, subCh := range subscribers {
		if subCh == ch {
			subscribers[i] = subscribers[len(subscribers)-1]
			eb.subscribers[eventType] = subscribers[:len(subscribers)-1]
			break
		}
	}
}

// UnsubscribeAll removes an all-event subscription channel.
func (eb *EventBus) UnsubscribeAll(ch <-chan Event) {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	if eb.closed {
		return
	}

	for i, subCh := range eb.all {
		if subCh == ch {
			eb.all[i] = eb.all[len(eb.all)-1]
			eb.all = eb.all[:len(eb.all)-1]
			break
		}
	}
}

// SubscriberCount returns the number of live subscriptions for eventType,
// not counting all-event subscribers.
func (eb *EventBus) SubscriberCount(eventType EventType) int {
	eb.mu.RLock()
	defer eb.mu.RUnlock()
	return len(eb.subscribers[eventType])
}

// AllSubscriberCount returns the number of live all-event subscriptions.
func (eb *EventBus) AllSubscriberCount() int {
	eb.mu.RLock()
	defer eb.mu.RUnlock()
	return len(eb.all)
}

// GetDroppedEventCount returns the total number of events dropped due to full buffers
func (eb *EventBus) GetDroppedEventCount() int64 {
	return eb.droppedEvents.Load()
}
