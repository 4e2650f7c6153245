package sse

import (
	"log/slog"
	"sync"
	"time"
)

const clientBuffer = 100

// manager implements the SSE Manager interface
type manager struct {
	clients   map[string]chan Message
	onConnect func(clientID string)
	logger    *slog.Logger
	mu        sync.RWMutex
}

// NewManager creates a new SSE manager instance
func NewManager(logger *slog.Logger) Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &manager{
		clients: make(map[string]chan Message),
		logger:  logger,
	}
}

// AddClient registers a new SSE client and returns a channel for messages
func (m *manager) AddClient(clientID string) <-chan Message {
	m.mu.Lock()
	defer m.mu.Unlock()

	// Remove existing client if present
	if existingChan, exists := m.clients[clientID]; exists {
		close(existingChan)
		delete(m.clients, clientID)
	}

	clientChan := make(chan Message, clientBuffer)
	m.clients[clientID] = clientChan

	m.logger.Debug("sse client connected", "client_id", clientID, "total", len(m.clients))

	return clientChan
}

// RemoveClient unregisters an SSE client
func (m *manager) RemoveClient(clientID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if clientChan, exists := m.clients[clientID]; exists {
		close(clientChan)
		delete(m.clients, clientID)
		m.logger.Debug("sse client disconnected", "client_id", clientID, "remaining", len(m.clients))
	}
}

// HasClients returns true if there are any connected clients
func (m *manager) HasClients() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return len(m.clients) > 0
}

// ClientCount returns the number of connected clients
func (m *manager) ClientCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return len(m.clients)
}

// Broadcast sends a message to all connected clients. Slow clients miss messages.
func (m *manager) Broadcast(message Message) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	message = stamp(message)

	for clientID, clientChan := range m.clients {
		select {
		case clientChan <- message:
		default:
			m.logger.Warn("sse client channel full, skipping message", "client_id", clientID, "type", message.Type)
		}
	}
}

func (m *manager) SetClientConnectCallback(callback func(clientID string)) {
	m.mu.Lock()
	m.onConnect = callback
	m.mu.Unlock()
}

func (m *manager) NotifyClientConnected(clientID string) {
	m.mu.RLock()
	cb := m.onConnect
	m.mu.RUnlock()

	if cb != nil {
		cb(clientID)
	}
}

// SendToClient sends message to one client, dropping it if the client is gone or full
func (m *manager) SendToClient(clientID string, message Message) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	clientChan, exists := m.clients[clientID]
	if !exists {
		return
	}
	select {
	case clientChan <- stamp(message):
	default:
		m.logger.Warn("sse client channel full, skipping message", "client_id", clientID, "type", message.Type)
	}
}

func stamp(message Message) Message {
	if message.Timestamp.IsZero() {
		message.Timestamp = time.Now()
	}
	if message.ID == 0 {
		message.ID = message.Timestamp.UnixMilli()
	}
	return message
}
