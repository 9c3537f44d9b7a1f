// Package api defines the JSON payloads exchanged with view clients.
package api

import (
	"github.com/skobkin/corebuddy/internal/sampler"
)

// Message types sent over the WebSocket stream.
const (
	TypeHello    = "hello"
	TypeSnapshot = "snapshot"
	TypeHistory  = "history"
	TypeError    = "error"
	TypePong     = "pong"
	TypePing     = "ping"
)

// HelloMessage is the initial payload sent on WebSocket connection.
type HelloMessage struct {
	Type            string          `json:"type"`
	IntervalMS      int64           `json:"interval_ms"`
	HistoryCapacity int             `json:"history_capacity"`
	GPUStrategies   []string        `json:"gpu_strategies"`
	Features        map[string]bool `json:"features"`
}

// NewHelloMessage constructs a hello payload.
func NewHelloMessage(intervalMS int64, historyCapacity int, gpuStrategies []string, features map[string]bool) HelloMessage {
	return HelloMessage{
		Type:            TypeHello,
		IntervalMS:      intervalMS,
		HistoryCapacity: historyCapacity,
		GPUStrategies:   gpuStrategies,
		Features:        features,
	}
}

// SnapshotMessage wraps a published snapshot for transport.
type SnapshotMessage struct {
	Type string `json:"type"`
	sampler.Snapshot
}

// NewSnapshotMessage constructs a snapshot payload.
func NewSnapshotMessage(snapshot sampler.Snapshot) SnapshotMessage {
	return SnapshotMessage{
		Type:     TypeSnapshot,
		Snapshot: snapshot,
	}
}

// HistoryMessage carries every core's rolling history, oldest value first.
type HistoryMessage struct {
	Type     string      `json:"type"`
	Capacity int         `json:"capacity"`
	Cores    [][]float64 `json:"cores"`
}

// NewHistoryMessage constructs a history payload.
func NewHistoryMessage(capacity int, cores [][]float64) HistoryMessage {
	if cores == nil {
		cores = [][]float64{}
	}
	return HistoryMessage{
		Type:     TypeHistory,
		Capacity: capacity,
		Cores:    cores,
	}
}

// CoreHistory is the history of a single core.
type CoreHistory struct {
	Core     int       `json:"core"`
	Capacity int       `json:"capacity"`
	Values   []float64 `json:"values"`
}

// ErrorMessage communicates an error condition to the client.
type ErrorMessage struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// NewErrorMessage constructs an error payload.
func NewErrorMessage(message string) ErrorMessage {
	return ErrorMessage{Type: TypeError, Message: message}
}

// ClientMessage is a generic envelope used for decoding inbound client messages.
type ClientMessage struct {
	Type string `json:"type"`
}

// PongMessage is the response to a ping.
type PongMessage struct {
	Type string `json:"type"`
}
