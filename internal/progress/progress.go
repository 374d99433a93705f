// Package progress carries one-way, fire-and-forget notices from a snapshot
// build to whoever is watching it.
package progress

import (
	"fmt"
	"sync"
	"time"
)

// Kind classifies a progress notice.
type Kind string

const (
	KindScanRoot          Kind = "scan_root"
	KindEnterDirectory    Kind = "enter_directory"
	KindReadFile          Kind = "read_file"
	KindExcludedDirectory Kind = "excluded_directory"
	KindIgnoredEntry      Kind = "ignored_entry"
	KindAccessDenied      Kind = "access_denied"
	KindStatFailed        Kind = "stat_failed"
)

var messageFormats = map[Kind]string{
	KindScanRoot:          "scanning root: %s",
	KindEnterDirectory:    "directory: %s",
	KindReadFile:          "file: %s",
	KindExcludedDirectory: "skipped (listed without contents): %s",
	KindIgnoredEntry:      "skipped (pattern match): %s",
	KindAccessDenied:      "access denied: %s",
	KindStatFailed:        "unable to stat: %s",
}

// Message is a single progress notice.
type Message struct {
	Kind      Kind
	Path      string
	Detail    string
	EmittedAt time.Time
}

// String renders the notice for display.
func (message Message) String() string {
	format, known := messageFormats[message.Kind]
	if !known {
		format = string(message.Kind) + ": %s"
	}
	rendered := fmt.Sprintf(format, message.Path)
	if message.Detail != "" {
		rendered += " (" + message.Detail + ")"
	}
	return rendered
}

// Sink receives progress notices. Implementations must not block the caller.
type Sink interface {
	Notify(message Message)
}

// Notify delivers message to sink when sink is not nil.
func Notify(sink Sink, message Message) {
	if sink == nil {
		return
	}
	sink.Notify(message)
}

type discardSink struct{}

func (discardSink) Notify(Message) {}

// Discard drops every notice.
var Discard Sink = discardSink{}

// Queue is an unbounded, ordered sink. Notify appends and returns immediately;
// a pump goroutine hands messages to Messages at the consumer's pace.
type Queue struct {
	mutex   sync.Mutex
	pending []Message
	closed  bool
	signal  chan struct{}
	output  chan Message
}

// NewQueue starts a queue and its delivery goroutine.
func NewQueue() *Queue {
	queue := &Queue{
		signal: make(chan struct{}, 1),
		output: make(chan Message),
	}
	go queue.pump()
	return queue
}

// Notify enqueues message. Messages sent after Close are dropped.
func (queue *Queue) Notify(message Message) {
	if message.EmittedAt.IsZero() {
		message.EmittedAt = time.Now().UTC()
	}
	queue.mutex.Lock()
	if queue.closed {
		queue.mutex.Unlock()
		return
	}
	queue.pending = append(queue.pending, message)
	queue.mutex.Unlock()
	queue.wake()
}

// Messages returns the delivery channel. It is closed after Close once every
// pending message has been delivered.
func (queue *Queue) Messages() <-chan Message {
	return queue.output
}

// Close stops accepting messages. It does not wait for delivery.
func (queue *Queue) Close() {
	queue.mutex.Lock()
	if queue.closed {
		queue.mutex.Unlock()
		return
	}
	queue.closed = true
	queue.mutex.Unlock()
	queue.wake()
}

func (queue *Queue) wake() {
	select {
	case queue.signal <- struct{}{}:
	default:
	}
}

func (queue *Queue) pump() {
	defer close(queue.output)
	for {
		queue.mutex.Lock()
		batch := queue.pending
		queue.pending = nil
		closed := queue.closed
		queue.mutex.Unlock()

		for _, message := range batch {
			queue.output <- message
		}
		if len(batch) > 0 {
			continue
		}
		if closed {
			return
		}
		<-queue.signal
	}
}

var _ Sink = (*Queue)(nil)
