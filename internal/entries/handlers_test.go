package entries

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

type fakeLifecycle struct {
	setup    []string
	unloaded []string
	reloaded []string
	refresh  error
	onUnload func(entryID string)
}

func (f *fakeLifecycle) SetupEntry(ctx context.Context, entry Entry) error {
	f.setup = append(f.setup, entry.EntryID)
	return nil
}

func (f *fakeLifecycle) UnloadEntry(entryID string) error {
	f.unloaded = append(f.unloaded, entryID)
	if f.onUnload != nil {
		f.onUnload(entryID)
	}
	return nil
}

func (f *fakeLifecycle) ReloadEntry(ctx context.Context, entryID string) error {
	f.reloaded = append(f.reloaded, entryID)
	return nil
}

func (f *fakeLifecycle) RefreshEntry(ctx context.Context, entryID string) error {
	return f.refresh
}

func newTestMux(t *testing.T) (*http.ServeMux, Store, *fakeLifecycle) {
	t.Helper()
	store := setupTestStore(t)
	host := &fakeLifecycle{}
	mux := http.NewServeMux()
	RegisterHandlers(mux, store, NewFlow(store, newResolver(), quietLogger()), host, quietLogger())
	return mux, store, host
}

func do(mux *http.ServeMux, method, path, body string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(method, path, strings.NewReader(body)))
	return rec
}

func TestCreateEntryHandler(t *testing.T) {
	mux, _, host := newTestMux(t)

	rec := do(mux, http.MethodPost, "/api/entries", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected form with 200, got %d", rec.Code)
	}

	rec = do(mux, http.MethodPost, "/api/entries", `{"fmisid": 134253}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var result FlowResult
	if err := json.NewDecoder(rec.Body).Decode(&result); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if result.Entry == nil || len(host.setup) != 1 || host.setup[0] != result.Entry.EntryID {
		t.Errorf("Expected created entry to be set up, got result=%+v setup=%v", result, host.setup)
	}

	rec = do(mux, http.MethodPost, "/api/entries", `{"fmisid": "134253"}`)
	if rec.Code != http.StatusConflict {
		t.Errorf("Expected 409 for duplicate, got %d", rec.Code)
	}

	rec = do(mux, http.MethodPost, "/api/entries", `{"fmisid": "abc"}`)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), CodeInvalidFMISID) {
		t.Errorf("Expected form with invalid_fmisid, got %d %s", rec.Code, rec.Body.String())
	}

	rec = do(mux, http.MethodPost, "/api/entries", `{`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for bad JSON, got %d", rec.Code)
	}
}

func TestEntryHandlers(t *testing.T) {
	mux, store, host := newTestMux(t)
	ctx := context.Background()

	entry, err := store.Create(ctx, hankoEntry())
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	base := "/api/entries/" + entry.EntryID

	if rec := do(mux, http.MethodGet, "/api/entries", ""); rec.Code != http.StatusOK {
		t.Errorf("List: expected 200, got %d", rec.Code)
	}
	if rec := do(mux, http.MethodGet, base, ""); rec.Code != http.StatusOK {
		t.Errorf("Get: expected 200, got %d", rec.Code)
	}
	if rec := do(mux, http.MethodGet, "/api/entries/nope", ""); rec.Code != http.StatusNotFound {
		t.Errorf("Get missing: expected 404, got %d", rec.Code)
	}

	rec := do(mux, http.MethodPut, base+"/options", `{"timestep": 15}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("Options: expected 200, got %d", rec.Code)
	}
	if len(host.reloaded) != 1 {
		t.Errorf("Expected reload after options change, got %v", host.reloaded)
	}
	if rec := do(mux, http.MethodPut, base+"/options", `{"timestep": -1}`); rec.Code != http.StatusBadRequest {
		t.Errorf("Options: expected 400 for negative timestep, got %d", rec.Code)
	}

	if rec := do(mux, http.MethodPost, base+"/refresh", ""); rec.Code != http.StatusAccepted {
		t.Errorf("Refresh: expected 202, got %d", rec.Code)
	}
	host.refresh = errors.New("update failed")
	if rec := do(mux, http.MethodPost, base+"/refresh", ""); rec.Code != http.StatusBadGateway {
		t.Errorf("Refresh failure: expected 502, got %d", rec.Code)
	}

	if rec := do(mux, http.MethodGet, base+"/unknown", ""); rec.Code != http.StatusNotFound {
		t.Errorf("Unknown action: expected 404, got %d", rec.Code)
	}

	if rec := do(mux, http.MethodDelete, base, ""); rec.Code != http.StatusNoContent {
		t.Fatalf("Delete: expected 204, got %d", rec.Code)
	}
	if len(host.unloaded) != 1 || host.unloaded[0] != entry.EntryID {
		t.Errorf("Expected entry to be unloaded, got %v", host.unloaded)
	}
	if _, err := store.Get(ctx, entry.EntryID); !errors.Is(err, ErrEntryNotFound) {
		t.Errorf("Expected entry to be deleted, got %v", err)
	}
}

func TestDeleteEntryHandlerRemovesRowBeforeUnload(t *testing.T) {
	mux, store, host := newTestMux(t)
	ctx := context.Background()

	entry, err := store.Create(ctx, hankoEntry())
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	var storedAtUnload error
	host.onUnload = func(entryID string) {
		_, storedAtUnload = store.Get(ctx, entryID)
	}

	if rec := do(mux, http.MethodDelete, "/api/entries/"+entry.EntryID, ""); rec.Code != http.StatusNoContent {
		t.Fatalf("Delete: expected 204, got %d", rec.Code)
	}
	if !errors.Is(storedAtUnload, ErrEntryNotFound) {
		t.Errorf("Expected entry to be gone from the store when unloaded, got %v", storedAtUnload)
	}

	host.unloaded = nil
	if rec := do(mux, http.MethodDelete, "/api/entries/"+entry.EntryID, ""); rec.Code != http.StatusNotFound {
		t.Errorf("Second delete: expected 404, got %d", rec.Code)
	}
	if len(host.unloaded) != 0 {
		t.Errorf("Expected no unload for a missing entry, got %v", host.unloaded)
	}
}
