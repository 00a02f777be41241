// Package protocol defines what goes back to a client: a state envelope or
// a selector envelope listing the candidates to choose from.
package protocol

import (
	"encoding/json"
	"strconv"
)

type State string

const (
	StateError    State = "Error"
	StateInfo     State = "Info"
	StateState    State = "State"
	StateSuccess  State = "Success"
	StateWarning  State = "Warning"
	StateProgress State = "Progress"
)

// Outgoing is an Envelope or a SelectorEnvelope.
type Outgoing interface {
	RequestKey() string
	// Terminal reports whether this is the last envelope of a command.
	Terminal() bool
}

type Envelope struct {
	Key     string `json:"key"`
	State   State  `json:"state"`
	Message string `json:"message,omitempty"`
	Payload any    `json:"payload,omitempty"`
}

func (e Envelope) RequestKey() string { return e.Key }

func (e Envelope) Terminal() bool {
	return e.State != StateState && e.State != StateProgress
}

type Variant struct {
	Name     string          `json:"name"`
	Incoming json.RawMessage `json:"incoming"`
}

type SelectorEnvelope struct {
	Key      string    `json:"key"`
	Variants []Variant `json:"variants"`
}

func (s SelectorEnvelope) RequestKey() string { return s.Key }
func (s SelectorEnvelope) Terminal() bool     { return true }

var (
	_ Outgoing = Envelope{}
	_ Outgoing = SelectorEnvelope{}
)

func Success(key, message string) Envelope {
	return Envelope{Key: key, State: StateSuccess, Message: message}
}

// SuccessPayload carries structured data; payload must marshal to JSON.
func SuccessPayload(key string, payload any) Envelope {
	return Envelope{Key: key, State: StateSuccess, Payload: payload}
}

func Error(key, message string) Envelope {
	return Envelope{Key: key, State: StateError, Message: message}
}

func Info(key, message string) Envelope {
	return Envelope{Key: key, State: StateInfo, Message: message}
}

func Warning(key, message string) Envelope {
	return Envelope{Key: key, State: StateWarning, Message: message}
}

// Status is an intermediate State event.
func Status(key, message string) Envelope {
	return Envelope{Key: key, State: StateState, Message: message}
}

func Progress(key string, percent int) Envelope {
	return Envelope{Key: key, State: StateProgress, Message: strconv.Itoa(percent)}
}

func Encode(out Outgoing) ([]byte, error) {
	return json.Marshal(out) //nolint:wrapcheck // callers wrap
}
