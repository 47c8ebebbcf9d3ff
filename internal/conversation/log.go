// Package conversation holds the append-only message log and the lookup
// that decides which reply widget a message implies.
package conversation

import (
	"sync"

	"github.com/fk1blow/haplea/internal/intent"
)

// Message is one server-posted conversation message. IDs are server
// assigned, unique, and non-decreasing by arrival; arrival order, not the
// ID, defines the log order.
type Message struct {
	ID   int         `json:"id"`
	Body string      `json:"body"`
	Data MessageData `json:"data"`
}

// MessageData is the classifier-derived payload attached to a message.
// All fields may be null on the wire.
type MessageData struct {
	Confidence *float64             `json:"confidence"`
	Entities   *intent.EntityBundle `json:"entities"`
	Name       string               `json:"name"`
}

// Log is the append-only conversation store. The newest message sits at the
// head; appended messages are immutable and never removed.
type Log struct {
	mu       sync.RWMutex
	messages []Message
}

// NewLog creates an empty Log.
func NewLog() *Log {
	return &Log{}
}

// Append inserts a message at the head of the log.
func (l *Log) Append(m Message) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.messages = append([]Message{m}, l.messages...)
}

// Snapshot returns a copy of the log, newest first.
func (l *Log) Snapshot() []Message {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]Message{}, l.messages...)
}

// Len returns the number of messages in the log.
func (l *Log) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.messages)
}
