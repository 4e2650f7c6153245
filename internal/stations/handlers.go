package stations

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
)

// RegisterHandlers registers the station HTTP handlers
func RegisterHandlers(mux *http.ServeMux, mgr Manager, logger *slog.Logger) {
	mux.HandleFunc("/api/stations", handleStations(mgr, logger))
	mux.HandleFunc("/api/stations/", handleStation(mgr, logger))
}

// handleStations handles the stations list endpoint
func handleStations(mgr Manager, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		region := r.URL.Query().Get("region")

		var stations []Station
		if region != "" {
			stations = mgr.GetStationsByRegion(region)
		} else {
			stations = mgr.GetAllStations()
		}

		if err := json.NewEncoder(w).Encode(stations); err != nil {
			logger.Error("encoding stations response", "err", err)
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}
	}
}

// handleStation resolves a single station, asking FMI when it is not known locally
func handleStation(mgr Manager, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		fmisid := strings.TrimPrefix(r.URL.Path, "/api/stations/")
		if fmisid == "" {
			http.Error(w, "Station ID required", http.StatusBadRequest)
			return
		}

		station, err := mgr.Resolve(r.Context(), fmisid)
		if errors.Is(err, ErrStationNotFound) {
			http.Error(w, "Station not found", http.StatusNotFound)
			return
		}
		if err != nil {
			logger.Warn("station lookup failed", "fmisid", fmisid, "err", err)
			http.Error(w, "Station lookup failed", http.StatusBadGateway)
			return
		}

		if err := json.NewEncoder(w).Encode(station); err != nil {
			logger.Error("encoding station response", "err", err)
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}
	}
}
