// Package protocol defines the message types for the rover's manual
// control channel. This package is shared between the rover and its
// operator clients.
package protocol

import (
	"encoding/json"
	"fmt"
	"time"
)

// MessageType identifies the type of an outbound message.
type MessageType string

const (
	// TypeState carries a full vehicle-state snapshot.
	TypeState MessageType = "state"
	// TypeError reports a rejected command back to the sender.
	TypeError MessageType = "error"
	// TypeDistance answers a distance query.
	TypeDistance MessageType = "distance"
)

// Command is an inbound manual-control frame: a named action with an
// action-specific payload.
type Command struct {
	Action  string          `json:"action"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// ParseCommand parses an inbound control frame.
func ParseCommand(data []byte) (*Command, error) {
	var cmd Command
	if err := json.Unmarshal(data, &cmd); err != nil {
		return nil, fmt.Errorf("failed to parse command: %w", err)
	}
	if cmd.Action == "" {
		return nil, fmt.Errorf("command has no action")
	}
	return &cmd, nil
}

// Message is the base wrapper for all outbound frames.
type Message struct {
	Type      MessageType     `json:"type"`
	Timestamp int64           `json:"ts,omitempty"` // Unix milliseconds
	Data      json.RawMessage `json:"data,omitempty"`
}

// NewMessage creates an outbound message with the current timestamp.
func NewMessage(msgType MessageType, data any) (*Message, error) {
	var rawData json.RawMessage
	if data != nil {
		var err error
		rawData, err = json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal message data: %w", err)
		}
	}

	return &Message{
		Type:      msgType,
		Timestamp: time.Now().UnixMilli(),
		Data:      rawData,
	}, nil
}

// ParseData unmarshals the message data into the provided struct.
func (m *Message) ParseData(v any) error {
	if m.Data == nil {
		return nil
	}
	return json.Unmarshal(m.Data, v)
}

// Bytes returns the JSON-encoded message.
func (m *Message) Bytes() ([]byte, error) {
	return json.Marshal(m)
}

// ParseMessage parses an outbound frame received by a client.
func ParseMessage(data []byte) (*Message, error) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("failed to parse message: %w", err)
	}
	return &msg, nil
}

// ErrorReply reports a rejected command. The connection stays open; the
// error is informational.
type ErrorReply struct {
	Action string `json:"action,omitempty"`
	Error  string `json:"error"`
}

// DistanceReply answers a distance query, using the sensor's sentinel
// values (-1 no echo, -2 too close) when no measurement exists.
type DistanceReply struct {
	Distance float64 `json:"distance"`
}
