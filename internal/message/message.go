// Package message defines the clipweave status protocol.
//
// All messages are newline-delimited JSON. Each message is exactly one
// line: <json>\n
package message

import (
	"encoding/json"
	"fmt"
	"time"
)

// Type identifies the kind of message.
type Type string

const (
	TypePing           Type = "PING"
	TypePong           Type = "PONG"
	TypeStatus         Type = "STATUS"
	TypeStatusResponse Type = "STATUS_RESPONSE"
	TypeError          Type = "ERROR"
)

// EndpointInfo names one clipboard in the canonical set.
type EndpointInfo struct {
	Kind    string `json:"kind"`
	Display string `json:"display"`
}

// Change records the most recent adopted clipboard value.
type Change struct {
	Display string    `json:"display"`
	At      time.Time `json:"at"`
}

// Status is the body of a STATUS_RESPONSE.
type Status struct {
	PID     int       `json:"pid"`
	Started time.Time `json:"started"`
	// Runs counts pipeline runs since start; every governor retry is a run.
	Runs       int            `json:"runs"`
	RunStarted time.Time      `json:"run_started,omitzero"`
	Endpoints  []EndpointInfo `json:"endpoints"`
	LastChange *Change        `json:"last_change,omitempty"`
	Failures   int            `json:"failures"`
	Pain       float64        `json:"pain"`
	LastError  string         `json:"last_error,omitempty"`
}

// Message is the top-level wire envelope.
type Message struct {
	Type Type `json:"type"`

	// STATUS_RESPONSE
	Status *Status `json:"status,omitempty"`

	// ERROR
	Error string `json:"error,omitempty"`
}

// Encode serialises the message to JSON without a trailing newline.
func (m *Message) Encode() ([]byte, error) {
	return json.Marshal(m)
}

// Decode deserialises a message from raw JSON bytes.
func Decode(b []byte) (*Message, error) {
	var m Message
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("message decode: %w", err)
	}
	if m.Type == "" {
		return nil, fmt.Errorf("message decode: missing type")
	}
	return &m, nil
}

// Errorf builds an ERROR message.
func Errorf(format string, args ...any) *Message {
	return &Message{Type: TypeError, Error: fmt.Sprintf(format, args...)}
}
