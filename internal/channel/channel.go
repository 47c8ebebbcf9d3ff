// Package channel maintains the duplex websocket connection to the
// conversation backend: inbound message events feed the conversation log,
// inbound error events go to an error sink, and outbound posts are written
// by a single writer goroutine.
package channel

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/fk1blow/haplea/internal/conversation"
)

// Channel event names, shared with the backend.
const (
	EventMessagePosted    = "conversation:message:posted"
	EventMessagePostError = "conversation:message:post_error"
	EventThreadError      = "question:thread:error"

	EventMessagePost   = "conversation:message:post"
	EventExpenseCreate = "conversation:expense:create"
)

// Frame is one event frame on the wire.
type Frame struct {
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload,omitempty"`
	Ref     string          `json:"ref,omitempty"`
}

// ErrorSink receives delivery and thread errors. Errors are surfaced once
// and never retried; any optimistic local state stays untouched.
type ErrorSink func(event string, payload json.RawMessage)

// Channel is a connected duplex channel. The reader goroutine dispatches
// inbound frames; the writer goroutine serializes outbound pushes so
// callers only ever block on enqueueing.
type Channel struct {
	conn  *websocket.Conn
	convo *conversation.Log
	sink  ErrorSink
	log   zerolog.Logger

	out  chan Frame
	done chan struct{}
	once sync.Once
}

// Dial connects to the backend and starts the reader and writer loops.
func Dial(ctx context.Context, wsURL string, convo *conversation.Log, sink ErrorSink, log zerolog.Logger) (*Channel, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return nil, fmt.Errorf("channel dial %s: %w", wsURL, err)
	}

	c := &Channel{
		conn:  conn,
		convo: convo,
		sink:  sink,
		log:   log,
		out:   make(chan Frame, 16),
		done:  make(chan struct{}),
	}

	go c.readLoop()
	go c.writeLoop()

	return c, nil
}

// PostMessage pushes a conversation message body to the backend.
func (c *Channel) PostMessage(body string) error {
	payload, err := json.Marshal(map[string]string{"body": body})
	if err != nil {
		return fmt.Errorf("post message: marshal payload: %w", err)
	}
	return c.push(Frame{Event: EventMessagePost, Payload: payload, Ref: uuid.NewString()})
}

// CreateExpense pushes an expense-create payload to the backend.
func (c *Channel) CreateExpense(payload interface{}) error {
	body, err := json.Marshal(map[string]interface{}{"body": payload})
	if err != nil {
		return fmt.Errorf("create expense: marshal payload: %w", err)
	}
	return c.push(Frame{Event: EventExpenseCreate, Payload: body, Ref: uuid.NewString()})
}

// Close stops both loops and closes the connection.
func (c *Channel) Close() error {
	c.once.Do(func() { close(c.done) })
	return c.conn.Close()
}

func (c *Channel) push(f Frame) error {
	select {
	case <-c.done:
		return fmt.Errorf("push %s: channel closed", f.Event)
	default:
	}
	select {
	case c.out <- f:
		return nil
	case <-c.done:
		return fmt.Errorf("push %s: channel closed", f.Event)
	}
}

func (c *Channel) writeLoop() {
	for {
		select {
		case f := <-c.out:
			if err := c.conn.WriteJSON(f); err != nil {
				c.log.Error().Err(err).Str("event", f.Event).Msg("Channel write failed")
				c.sink(f.Event, f.Payload)
			}
		case <-c.done:
			return
		}
	}
}

func (c *Channel) readLoop() {
	for {
		var f Frame
		if err := c.conn.ReadJSON(&f); err != nil {
			select {
			case <-c.done:
			default:
				c.log.Error().Err(err).Msg("Channel read failed")
				c.sink(EventThreadError, nil)
			}
			return
		}
		c.dispatch(f)
	}
}

// dispatch routes one inbound frame. Unknown events are logged and dropped.
func (c *Channel) dispatch(f Frame) {
	switch f.Event {
	case EventMessagePosted:
		var msg conversation.Message
		if err := json.Unmarshal(f.Payload, &msg); err != nil {
			c.log.Warn().Err(err).Msg("Dropping undecodable message-posted payload")
			return
		}
		c.convo.Append(msg)

	case EventMessagePostError, EventThreadError:
		c.sink(f.Event, f.Payload)

	default:
		c.log.Debug().Str("event", f.Event).Msg("Ignoring unknown channel event")
	}
}
