package entries

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
)

// RegisterHandlers registers the entry HTTP handlers
func RegisterHandlers(mux *http.ServeMux, store Store, flow *Flow, host Lifecycle, logger *slog.Logger) {
	h := &handlers{store: store, flow: flow, host: host, logger: logger}
	mux.HandleFunc("/api/entries", h.handleEntries)
	mux.HandleFunc("/api/entries/", h.handleEntry)
}

type handlers struct {
	store  Store
	flow   *Flow
	host   Lifecycle
	logger *slog.Logger
}

// handleEntries lists entries on GET and runs the setup flow on POST
func (h *handlers) handleEntries(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		list, err := h.store.List(r.Context())
		if err != nil {
			h.logger.Error("listing entries", "err", err)
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}
		h.writeJSON(w, http.StatusOK, list)

	case http.MethodPost:
		var input *UserInput
		body, err := io.ReadAll(io.LimitReader(r.Body, 1<<16))
		if err != nil {
			http.Error(w, "Failed to read body", http.StatusBadRequest)
			return
		}
		if len(strings.TrimSpace(string(body))) > 0 {
			input = &UserInput{}
			if err := json.Unmarshal(body, input); err != nil {
				http.Error(w, "Invalid JSON", http.StatusBadRequest)
				return
			}
		}

		result := h.flow.StepUser(r.Context(), input)
		switch result.Type {
		case ResultCreateEntry:
			if err := h.host.SetupEntry(r.Context(), *result.Entry); err != nil {
				h.logger.Warn("entry created but not ready", "entry_id", result.Entry.EntryID, "err", err)
			}
			h.writeJSON(w, http.StatusCreated, result)
		case ResultAbort:
			h.writeJSON(w, http.StatusConflict, result)
		default:
			h.writeJSON(w, http.StatusOK, result)
		}

	default:
		w.Header().Set("Allow", "GET, POST")
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// handleEntry serves /api/entries/{id}, /api/entries/{id}/options and /api/entries/{id}/refresh
func (h *handlers) handleEntry(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/entries/")
	parts := strings.Split(strings.Trim(path, "/"), "/")
	if parts[0] == "" || len(parts) > 2 {
		http.Error(w, "Entry ID required", http.StatusBadRequest)
		return
	}
	entryID := parts[0]

	action := ""
	if len(parts) == 2 {
		action = parts[1]
	}

	switch {
	case action == "" && r.Method == http.MethodGet:
		entry, err := h.store.Get(r.Context(), entryID)
		if h.storeError(w, err) {
			return
		}
		h.writeJSON(w, http.StatusOK, entry)

	case action == "" && r.Method == http.MethodDelete:
		// Delete before unloading so a pending retry cannot re-read the entry
		if h.storeError(w, h.store.Delete(r.Context(), entryID)) {
			return
		}
		if err := h.host.UnloadEntry(entryID); err != nil && !errors.Is(err, ErrEntryNotFound) {
			h.logger.Warn("unloading entry", "entry_id", entryID, "err", err)
		}
		w.WriteHeader(http.StatusNoContent)

	case action == "options" && r.Method == http.MethodPut:
		var opts Options
		if err := json.NewDecoder(r.Body).Decode(&opts); err != nil {
			http.Error(w, "Invalid JSON", http.StatusBadRequest)
			return
		}
		if opts.Timestep < 0 {
			h.writeJSON(w, http.StatusBadRequest, map[string]string{"timestep": CodeInvalidTimestep})
			return
		}
		entry, err := h.store.UpdateOptions(r.Context(), entryID, opts)
		if h.storeError(w, err) {
			return
		}
		if err := h.host.ReloadEntry(r.Context(), entryID); err != nil {
			h.logger.Warn("reloading entry", "entry_id", entryID, "err", err)
		}
		h.writeJSON(w, http.StatusOK, entry)

	case action == "refresh" && r.Method == http.MethodPost:
		err := h.host.RefreshEntry(r.Context(), entryID)
		if errors.Is(err, ErrEntryNotFound) {
			http.Error(w, "Entry not loaded", http.StatusNotFound)
			return
		}
		if err != nil {
			h.writeJSON(w, http.StatusBadGateway, map[string]string{"error": err.Error()})
			return
		}
		w.WriteHeader(http.StatusAccepted)

	case action != "" && action != "options" && action != "refresh":
		http.NotFound(w, r)

	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// storeError writes the response for a store error and reports whether it did
func (h *handlers) storeError(w http.ResponseWriter, err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrEntryNotFound) {
		http.Error(w, "Entry not found", http.StatusNotFound)
		return true
	}
	h.logger.Error("entry store", "err", err)
	http.Error(w, "Internal server error", http.StatusInternalServerError)
	return true
}

func (h *handlers) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("encoding response", "err", err)
	}
}
