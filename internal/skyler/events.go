package skyler

import "time"

// EventType names an entry in the conversation log.
type EventType string

const (
	EventUserMessage      EventType = "user_message"
	EventAssistantChunk   EventType = "assistant_chunk"
	EventAssistantMessage EventType = "assistant_message"
	EventChunkDropped     EventType = "chunk_dropped"
	EventError            EventType = "error"
)

// Event is one append-only log entry. The transcript is derived from the log.
type Event struct {
	Seq     int       `json:"seq"`
	Type    EventType `json:"type"`
	Content string    `json:"content,omitempty"`
	At      time.Time `json:"at"`
}

// State is the conversation's position in its request cycle.
type State string

const (
	StateIdle     State = "idle"
	StateAwaiting State = "awaiting_response"
	StateError    State = "error"
)

// Message is a transcript entry as sent to the chat endpoint.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}
