package ws

import (
	"encoding/json"

	"github.com/drafti/drafti-backend/internal/engine"
)

// MessageType represents the different kinds of messages our system can handle
type MessageType string

const (
	MessageTypeMove       MessageType = "move"
	MessageTypeGameState  MessageType = "gameState"
	MessageTypeResign     MessageType = "resign"
	MessageTypeMatchFound MessageType = "matchFound"
	MessageTypeError      MessageType = "error"
)

// Message represents a WebSocket message in our system
type Message struct {
	Type    MessageType     `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// ErrorKindRequest marks errors in the request itself rather than the move:
// malformed JSON, unknown message types, unparseable notation.
const ErrorKindRequest engine.ErrorKind = "BAD_REQUEST"

// ErrorPayload is the payload of an "error" message. Details carries the
// validation error fields when the error came from the rule engine.
type ErrorPayload struct {
	Kind    engine.ErrorKind        `json:"kind"`
	Message string                  `json:"message"`
	Details *engine.ValidationError `json:"details,omitempty"`
}

// NewMessage wraps payload in a Message of type t.
func NewMessage(t MessageType, payload interface{}) (Message, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Message{}, err
	}
	return Message{Type: t, Payload: data}, nil
}
