package sse

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
)

const keepaliveInterval = 30 * time.Second

// RegisterHandlers registers the SSE HTTP handlers
func RegisterHandlers(mux *http.ServeMux, mgr Manager, logger *slog.Logger) {
	mux.HandleFunc("/events", handleSSE(mgr, logger))
}

// handleSSE streams sensor updates until the client goes away
func handleSSE(mgr Manager, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		flusher, ok := w.(http.Flusher)
		if !ok {
			http.Error(w, "Streaming not supported", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("X-Accel-Buffering", "no") // Disable Nginx buffering

		clientID := r.Header.Get("X-Client-Id")
		if clientID == "" {
			clientID = uuid.NewString()
		}

		messageChan := mgr.AddClient(clientID)
		defer mgr.RemoveClient(clientID)

		initialMsg := Message{
			Type: TypeConnected,
			Data: map[string]any{"client_id": clientID},
		}
		if err := writeSSEMessage(w, initialMsg); err != nil {
			logger.Debug("sending initial sse message", "client_id", clientID, "err", err)
			return
		}
		flusher.Flush()

		// Sends the current state of every sensor to this client
		mgr.NotifyClientConnected(clientID)

		keepaliveTicker := time.NewTicker(keepaliveInterval)
		defer keepaliveTicker.Stop()

		for {
			select {
			case <-r.Context().Done():
				return

			case msg, ok := <-messageChan:
				if !ok {
					return
				}
				if err := writeSSEMessage(w, msg); err != nil {
					logger.Debug("sending sse message", "client_id", clientID, "err", err)
					return
				}
				flusher.Flush()

			case <-keepaliveTicker.C:
				if _, err := fmt.Fprint(w, ": keepalive\n\n"); err != nil {
					return
				}
				flusher.Flush()
			}
		}
	}
}

// writeSSEMessage writes a message in SSE format
func writeSSEMessage(w http.ResponseWriter, msg Message) error {
	if msg.ID == 0 {
		msg.ID = time.Now().UnixMilli()
	}

	if _, err := fmt.Fprintf(w, "id: %d\n", msg.ID); err != nil {
		return err
	}

	if msg.Type != "" {
		if _, err := fmt.Fprintf(w, "event: %s\n", msg.Type); err != nil {
			return err
		}
	}

	data := []byte("{}")
	if msg.Data != nil {
		var err error
		if data, err = json.Marshal(msg.Data); err != nil {
			return fmt.Errorf("error marshaling SSE data: %w", err)
		}
	}
	if _, err := fmt.Fprintf(w, "data: %s\n\n", data); err != nil {
		return err
	}

	return nil
}
