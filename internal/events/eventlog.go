// Package events provides the diagnostics journal of the animation loop.
// It records what the loop did (mounts, ticks, timer failures); it is never
// read back to restore animation state.
package events

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// EventType defines the category of a journal event.
type EventType string

const (
	EventTypeMount      EventType = "MOUNT"
	EventTypeTick       EventType = "TICK"
	EventTypeTimerError EventType = "TIMER_ERROR"
)

// Event is one journal entry.
type Event struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	Count     uint64    `json:"count"`            // counter after the event was handled
	Detail    string    `json:"detail,omitempty"` // error text for TIMER_ERROR
}

// NewEvent stamps a new event with an ID and the current time.
func NewEvent(t EventType, count uint64, detail string) Event {
	return Event{
		ID:        uuid.NewString(),
		Timestamp: time.Now(),
		Type:      t,
		Count:     count,
		Detail:    detail,
	}
}

// Persister defines how an event is durably stored.
type Persister interface {
	Append(ctx context.Context, event Event) error
}

// DropRecorder is told about persistence outcomes. metrics.Collector satisfies it.
type DropRecorder interface {
	RecordJournalWrite(err error)
	RecordJournalDrop()
}

// EventLog is the bounded in-memory journal. Once full, the oldest entries are
// overwritten.
type EventLog struct {
	mu    sync.RWMutex
	buf   []Event
	next  int
	full  bool
	total int64

	persister Persister
	queue     chan Event
	recorder  DropRecorder
	stopped   bool // set once Run has begun its final flush
}

// NewEventLog creates a journal holding at most capacity entries. persister
// may be nil; queueSize bounds the entries waiting to be persisted.
func NewEventLog(capacity, queueSize int, persister Persister, recorder DropRecorder) *EventLog {
	if capacity < 1 {
		capacity = 1
	}
	el := &EventLog{
		buf:       make([]Event, capacity),
		persister: persister,
		recorder:  recorder,
	}
	if persister != nil {
		if queueSize < 1 {
			queueSize = 1
		}
		el.queue = make(chan Event, queueSize)
	}
	return el
}

// flushTimeout bounds how long Run keeps writing queued events after ctx ends.
const flushTimeout = 2 * time.Second

// Run writes queued events to the persister until ctx ends, then flushes what
// is still queued. Events that cannot be flushed in time are counted as
// dropped. It is a no-op without a persister. Call in a goroutine.
func (el *EventLog) Run(ctx context.Context) error {
	if el.persister == nil {
		<-ctx.Done()
		return nil
	}
	for {
		select {
		case <-ctx.Done():
			el.flush()
			return nil
		case e := <-el.queue:
			if ctx.Err() != nil {
				el.flush(e)
				return nil
			}
			el.persist(ctx, e)
		}
	}
}

// flush stops the queue and writes pending plus everything still queued on a
// fresh deadline.
func (el *EventLog) flush(pending ...Event) {
	el.mu.Lock()
	el.stopped = true
	el.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), flushTimeout)
	defer cancel()
	write := func(e Event) {
		if ctx.Err() != nil {
			el.recordDrop()
			return
		}
		el.persist(ctx, e)
	}

	for _, e := range pending {
		write(e)
	}
	for {
		select {
		case e := <-el.queue:
			write(e)
		default:
			return
		}
	}
}

func (el *EventLog) persist(ctx context.Context, e Event) {
	err := el.persister.Append(ctx, e)
	if el.recorder != nil {
		el.recorder.RecordJournalWrite(err)
	}
}

func (el *EventLog) recordDrop() {
	if el.recorder != nil {
		el.recorder.RecordJournalDrop()
	}
}

// Append adds a new event to the journal and queues it for persistence.
// It never blocks: when the queue is full, or Run has stopped, the event stays
// in memory only and is counted as dropped.
func (el *EventLog) Append(event Event) {
	el.mu.Lock()
	defer el.mu.Unlock()

	el.buf[el.next] = event
	el.next = (el.next + 1) % len(el.buf)
	if el.next == 0 {
		el.full = true
	}
	el.total++

	if el.queue == nil {
		return
	}
	if el.stopped {
		el.recordDrop()
		return
	}
	select {
	case el.queue <- event:
	default:
		el.recordDrop()
	}
}

// Len returns the number of events currently held.
func (el *EventLog) Len() int {
	el.mu.RLock()
	defer el.mu.RUnlock()
	if el.full {
		return len(el.buf)
	}
	return el.next
}

// Total returns the number of events ever appended.
func (el *EventLog) Total() int64 {
	el.mu.RLock()
	defer el.mu.RUnlock()
	return el.total
}

// Replay returns the held events, oldest first.
func (el *EventLog) Replay() []Event {
	el.mu.RLock()
	defer el.mu.RUnlock()

	if !el.full {
		return append([]Event(nil), el.buf[:el.next]...)
	}
	out := make([]Event, 0, len(el.buf))
	out = append(out, el.buf[el.next:]...)
	return append(out, el.buf[:el.next]...)
}

// Recent returns the newest n events, oldest first.
func (el *EventLog) Recent(n int) []Event {
	all := el.Replay()
	if n <= 0 || n >= len(all) {
		return all
	}
	return all[len(all)-n:]
}

// ByType returns the held events of type t, oldest first.
func (el *EventLog) ByType(t EventType) []Event {
	var result []Event
	for _, e := range el.Replay() {
		if e.Type == t {
			result = append(result, e)
		}
	}
	return result
}
