package skyler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"willtank/internal/logger"
)

var (
	// ErrUnauthorized is returned when the chat endpoint rejects the session.
	ErrUnauthorized = errors.New("please log in again")
	// ErrBusy is returned when Send is called while a response is streaming.
	ErrBusy = errors.New("a response is already in progress")
	// ErrEmptyResponse is returned when the stream ends without any content.
	ErrEmptyResponse = errors.New("assistant returned an empty response")
)

// StreamError carries an error message sent by the server inside the stream.
type StreamError struct {
	Message string
}

func (e *StreamError) Error() string { return "assistant error: " + e.Message }

// Streamer opens a chat completion stream for a transcript.
type Streamer interface {
	OpenStream(ctx context.Context, messages []Message) (io.ReadCloser, error)
}

// Conversation is a chat session with an append-only event log. It is safe
// for concurrent use, but only one Send may be in flight at a time.
type Conversation struct {
	mu       sync.Mutex
	streamer Streamer
	system   string
	events   []Event
	state    State
	lastErr  error
	onChunk  func(partial string)
	now      func() time.Time
}

// Option configures a Conversation.
type Option func(*Conversation)

// WithSystemPrompt prepends a system message to every transcript.
func WithSystemPrompt(prompt string) Option {
	return func(c *Conversation) { c.system = prompt }
}

// WithOnChunk observes the growing assistant reply while it streams.
func WithOnChunk(fn func(partial string)) Option {
	return func(c *Conversation) { c.onChunk = fn }
}

// WithEvents restores a conversation from a previously recorded log.
func WithEvents(events []Event) Option {
	return func(c *Conversation) {
		c.events = append([]Event(nil), events...)
	}
}

// NewConversation creates an idle conversation.
func NewConversation(streamer Streamer, opts ...Option) *Conversation {
	c := &Conversation{
		streamer: streamer,
		state:    StateIdle,
		now:      time.Now,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// State returns the current state.
func (c *Conversation) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Err returns the error that moved the conversation into StateError.
func (c *Conversation) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

// Events returns a copy of the log.
func (c *Conversation) Events() []Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Event(nil), c.events...)
}

// Transcript derives the message list from the log.
func (c *Conversation) Transcript() []Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.transcriptLocked()
}

func (c *Conversation) transcriptLocked() []Message {
	var out []Message
	if c.system != "" {
		out = append(out, Message{Role: "system", Content: c.system})
	}
	for _, ev := range c.events {
		switch ev.Type {
		case EventUserMessage:
			out = append(out, Message{Role: "user", Content: ev.Content})
		case EventAssistantMessage:
			out = append(out, Message{Role: "assistant", Content: ev.Content})
		}
	}
	return out
}

func (c *Conversation) appendLocked(t EventType, content string) {
	c.events = append(c.events, Event{
		Seq:     len(c.events) + 1,
		Type:    t,
		Content: content,
		At:      c.now(),
	})
}

func (c *Conversation) append(t EventType, content string) {
	c.mu.Lock()
	c.appendLocked(t, content)
	c.mu.Unlock()
}

func (c *Conversation) fail(err error) error {
	c.mu.Lock()
	c.appendLocked(EventError, err.Error())
	c.state = StateError
	c.lastErr = err
	c.mu.Unlock()
	return err
}

// Send appends a user turn, streams the assistant reply and commits it as a
// single assistant message once the stream completes.
func (c *Conversation) Send(ctx context.Context, text string) (Message, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Message{}, errors.New("message is empty")
	}

	c.mu.Lock()
	if c.state == StateAwaiting {
		c.mu.Unlock()
		return Message{}, ErrBusy
	}
	c.appendLocked(EventUserMessage, text)
	c.state = StateAwaiting
	c.lastErr = nil
	transcript := c.transcriptLocked()
	c.mu.Unlock()

	body, err := c.streamer.OpenStream(ctx, transcript)
	if err != nil {
		return Message{}, c.fail(err)
	}
	defer body.Close()

	log := logger.FromContext(ctx)
	var partial strings.Builder

	done, err := ReadStream(body, func(chunk Chunk, raw string, decodeErr error) error {
		if decodeErr != nil {
			log.Warn("dropping malformed chat chunk", "payload", raw, "error", decodeErr)
			c.append(EventChunkDropped, raw)
			return nil
		}
		if chunk.Error != "" {
			return &StreamError{Message: chunk.Error}
		}
		if chunk.Content == "" {
			return nil
		}
		partial.WriteString(chunk.Content)
		c.append(EventAssistantChunk, chunk.Content)
		if c.onChunk != nil {
			c.onChunk(partial.String())
		}
		return nil
	})
	if err != nil {
		return Message{}, c.fail(fmt.Errorf("read chat stream: %w", err))
	}

	reply := partial.String()
	if reply == "" {
		return Message{}, c.fail(ErrEmptyResponse)
	}
	if !done {
		log.Warn("chat stream ended without completion marker", "length", len(reply))
	}

	c.mu.Lock()
	c.appendLocked(EventAssistantMessage, reply)
	c.state = StateIdle
	c.mu.Unlock()

	return Message{Role: "assistant", Content: reply}, nil
}
