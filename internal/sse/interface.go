package sse

import (
	"time"
)

// Message types
const (
	TypeConnected = "connected"
	TypeState     = "state"
	TypeRemoved   = "removed"
)

// Manager defines the interface for SSE client management
type Manager interface {
	// AddClient registers a new SSE client and returns a channel for messages
	AddClient(clientID string) <-chan Message

	// RemoveClient unregisters an SSE client
	RemoveClient(clientID string)

	// HasClients returns true if there are any connected clients
	HasClients() bool

	// ClientCount returns the number of connected clients
	ClientCount() int

	// Broadcast sends a message to all connected clients
	Broadcast(message Message)

	// SetClientConnectCallback sets a callback to be called when a new client connects
	SetClientConnectCallback(callback func(clientID string))

	// NotifyClientConnected runs the connect callback for clientID
	NotifyClientConnected(clientID string)

	// SendToClient sends a message to a specific client
	SendToClient(clientID string, message Message)
}

// Message represents a Server-Sent Event message
type Message struct {
	ID        int64     `json:"id"`
	Type      string    `json:"type"`
	EntityID  string    `json:"entity_id,omitempty"`
	Data      any       `json:"data,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}
