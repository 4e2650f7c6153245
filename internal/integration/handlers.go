package integration

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
)

// RegisterHandlers registers the sensor HTTP handlers
func RegisterHandlers(mux *http.ServeMux, mgr *Manager, logger *slog.Logger) {
	mux.HandleFunc("/api/sensors", handleSensors(mgr, logger))
	mux.HandleFunc("/api/sensors/", handleSensor(mgr, logger))
}

func handleSensors(mgr *Manager, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		writeJSON(w, mgr.Sensors(), logger)
	}
}

func handleSensor(mgr *Manager, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		entityID := strings.TrimPrefix(r.URL.Path, "/api/sensors/")
		if entityID == "" {
			http.Error(w, "Entity ID required", http.StatusBadRequest)
			return
		}

		view, exists := mgr.Sensor(entityID)
		if !exists {
			http.Error(w, "Sensor not found", http.StatusNotFound)
			return
		}
		writeJSON(w, view, logger)
	}
}

func writeJSON(w http.ResponseWriter, v any, logger *slog.Logger) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("encoding sensors response", "err", err)
	}
}
