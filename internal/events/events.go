// Package events carries notifications from worker goroutines to the GUI.
package events

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/pipelinekit/sgdesk/internal/constants"
)

// EventType defines the types of events that can be emitted
type EventType string

const (
	EventTransferStarted   EventType = "transfer_started"   // A file's bytes started moving
	EventTransferProgress  EventType = "transfer_progress"  // Byte progress for the current file
	EventTransferCompleted EventType = "transfer_completed" // A file finished
	EventTransferFailed    EventType = "transfer_failed"    // A file failed

	EventSessionChanged EventType = "session_changed" // Logged in or out
)

// Transfer directions
const (
	TransferUpload   = "upload"
	TransferDownload = "download"
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

// TransferEvent reports one file of a download or upload.
type TransferEvent struct {
	BaseEvent
	TaskID    int     // ShotGrid task the transfer belongs to
	Direction string  // TransferUpload or TransferDownload
	Name      string  // File name
	Size      int64   // File size in bytes (0 when unknown)
	Bytes     int64   // Bytes moved so far
	Progress  float64 // 0.0 to 1.0, 0 when Size is unknown
	Error     error   // Set for EventTransferFailed
}

// SessionEvent reports a login or logout.
type SessionEvent struct {
	BaseEvent
	LoggedIn bool
	Username string
	SiteURL  string
}

// EventBus fans every published event out to all subscribers
type EventBus struct {
	all           []chan Event
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
	return &EventBus{bufferSize: bufferSize}
}

// SubscribeAll creates a subscription to all events.
// Subscribing to a closed bus returns a closed channel.
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

// Publish sends an event to all subscribers. It never blocks: an event for a
// full channel is dropped and counted.
func (eb *EventBus) Publish(event Event) {
	eb.mu.RLock()
	defer eb.mu.RUnlock()

	if eb.closed {
		return
	}

	for _, ch := range eb.all {
		select {
		case ch <- event:
		default:
			eb.droppedEvents.Add(1)
		}
	}
}

// PublishTransfer is a convenience method for publishing transfer events
func (eb *EventBus) PublishTransfer(eventType EventType, ev TransferEvent) {
	ev.BaseEvent = BaseEvent{EventType: eventType, Time: time.Now()}
	if ev.Size > 0 {
		ev.Progress = float64(ev.Bytes) / float64(ev.Size)
		if ev.Progress > 1 {
			ev.Progress = 1
		}
	}
	eb.Publish(&ev)
}

// PublishSession is a convenience method for publishing session events
func (eb *EventBus) PublishSession(loggedIn bool, username, siteURL string) {
	eb.Publish(&SessionEvent{
		BaseEvent: BaseEvent{EventType: EventSessionChanged, Time: time.Now()},
		LoggedIn:  loggedIn,
		Username:  username,
		SiteURL:   siteURL,
	})
}

// Close shuts down the event bus and closes all channels
func (eb *EventBus) Close() {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	if eb.closed {
		return
	}

	eb.closed = true

	for _, ch := range eb.all {
		close(ch)
	}
}

// DroppedEvents returns the total number of events dropped due to full buffers
func (eb *EventBus) DroppedEvents() int64 {
	return eb.droppedEvents.Load()
}
