// Package progress reports per-file transfer progress to the GUI through the event bus.
package progress

import (
	"io"
	"time"

	"github.com/pipelinekit/sgdesk/internal/constants"
	"github.com/pipelinekit/sgdesk/internal/events"
)

// Func receives the cumulative byte count of one file. total is 0 when unknown.
type Func func(done, total int64)

// Reporter tracks one file at a time.
type Reporter interface {
	Start(name string, total int64)
	Update(current int64)
	Finish()
	Error(err error)
}

// GUIProgress implements Reporter by publishing TransferEvents.
type GUIProgress struct {
	eventBus  *events.EventBus
	taskID    int
	direction string
	name      string
	total     int64
	current   int64
}

// NewGUIProgress creates a reporter for transfers belonging to taskID.
func NewGUIProgress(eventBus *events.EventBus, taskID int, direction string) *GUIProgress {
	return &GUIProgress{
		eventBus:  eventBus,
		taskID:    taskID,
		direction: direction,
	}
}

// Start begins tracking a new file.
func (p *GUIProgress) Start(name string, total int64) {
	p.name = name
	p.total = total
	p.current = 0
	p.eventBus.PublishTransfer(events.EventTransferStarted, p.event())
}

// Update publishes the current byte count.
func (p *GUIProgress) Update(current int64) {
	p.current = current
	p.eventBus.PublishTransfer(events.EventTransferProgress, p.event())
}

// Finish publishes completion of the current file.
func (p *GUIProgress) Finish() {
	if p.total > 0 {
		p.current = p.total
	}
	p.eventBus.PublishTransfer(events.EventTransferCompleted, p.event())
}

// Error publishes failure of the current file.
func (p *GUIProgress) Error(err error) {
	if err == nil {
		return
	}
	ev := p.event()
	ev.Error = err
	p.eventBus.PublishTransfer(events.EventTransferFailed, ev)
}

func (p *GUIProgress) event() events.TransferEvent {
	return events.TransferEvent{
		TaskID:    p.taskID,
		Direction: p.direction,
		Name:      p.name,
		Size:      p.total,
		Bytes:     p.current,
	}
}

// NoOpProgress is a reporter that does nothing.
type NoOpProgress struct{}

func (NoOpProgress) Start(name string, total int64) {}
func (NoOpProgress) Update(current int64)           {}
func (NoOpProgress) Finish()                        {}
func (NoOpProgress) Error(err error)                {}

// Reader wraps an io.Reader and reports progress at most once per
// constants.ProgressReportInterval, plus once at EOF.
type Reader struct {
	reader   io.Reader
	report   Func
	total    int64
	current  int64
	interval time.Duration
	last     time.Time
}

// NewReader creates a progress-reporting reader. A nil report is allowed.
func NewReader(reader io.Reader, total int64, report Func) *Reader {
	return &Reader{
		reader:   reader,
		report:   report,
		total:    total,
		interval: constants.ProgressReportInterval,
	}
}

// Read implements io.Reader.
func (pr *Reader) Read(p []byte) (int, error) {
	n, err := pr.reader.Read(p)
	pr.current += int64(n)
	if pr.report != nil {
		now := time.Now()
		if err == io.EOF || now.Sub(pr.last) >= pr.interval {
			pr.last = now
			pr.report(pr.current, pr.total)
		}
	}
	return n, err
}
