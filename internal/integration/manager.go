package integration

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"mareo-monitor/internal/coordinator"
	"mareo-monitor/internal/entries"
	"mareo-monitor/internal/sensor"
	"mareo-monitor/internal/sse"
	"mareo-monitor/pkg/fmi"
)

type loadedEntry struct {
	entry          entries.Entry
	coord          *coordinator.Coordinator
	sensor         *sensor.Sensor
	removeListener func()
}

// Manager hosts configuration entries: it owns one coordinator and one
// sensor per loaded entry and pushes sensor updates to SSE and discovery.
type Manager struct {
	store     entries.Store
	fetcher   coordinator.Fetcher
	sseMgr    sse.Manager
	discovery Discovery
	cfg       Config
	logger    *slog.Logger

	mu      sync.RWMutex
	baseCtx context.Context
	cancel  context.CancelFunc
	loaded  map[string]*loadedEntry
	retries map[string]*time.Timer
	// gens is bumped by UnloadEntry; a setup started under an older
	// generation is discarded.
	gens map[string]uint64
}

// NewManager creates a manager. discovery may be nil.
func NewManager(store entries.Store, fetcher coordinator.Fetcher, sseMgr sse.Manager, discovery Discovery, cfg Config, logger *slog.Logger) *Manager {
	if cfg.RetryInitial <= 0 {
		cfg.RetryInitial = DefaultRetryInitial
	}
	if cfg.RetryMax <= 0 {
		cfg.RetryMax = DefaultRetryMax
	}
	if logger == nil {
		logger = slog.Default()
	}

	m := &Manager{
		store:     store,
		fetcher:   fetcher,
		sseMgr:    sseMgr,
		discovery: discovery,
		cfg:       cfg,
		logger:    logger,
		baseCtx:   context.Background(),
		loaded:    make(map[string]*loadedEntry),
		retries:   make(map[string]*time.Timer),
		gens:      make(map[string]uint64),
	}

	if sseMgr != nil {
		sseMgr.SetClientConnectCallback(m.sendAllTo)
	}
	return m
}

// startConcurrency bounds the first refreshes Start runs in parallel
const startConcurrency = 8

// Start sets up every stored entry concurrently. Entries that are not ready
// are retried in the background and do not fail Start.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.cancel != nil {
		m.mu.Unlock()
		return fmt.Errorf("integration manager is already running")
	}
	m.baseCtx, m.cancel = context.WithCancel(ctx)
	m.mu.Unlock()

	list, err := m.store.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to list entries: %w", err)
	}

	var g errgroup.Group
	g.SetLimit(startConcurrency)
	for _, entry := range list {
		g.Go(func() error {
			if err := m.SetupEntry(ctx, entry); err != nil {
				m.logger.Warn("entry setup failed", "entry_id", entry.EntryID, "title", entry.Title, "err", err)
			}
			return nil
		})
	}
	_ = g.Wait()

	m.logger.Info("integration manager started", "entries", len(list), "loaded", m.LoadedCount())
	return nil
}

// Stop cancels pending retries and unloads every entry
func (m *Manager) Stop() {
	m.mu.Lock()
	if m.cancel != nil {
		m.cancel()
		m.cancel = nil
	}
	for id, timer := range m.retries {
		timer.Stop()
		delete(m.retries, id)
	}
	ids := make([]string, 0, len(m.loaded))
	for id := range m.loaded {
		ids = append(ids, id)
	}
	m.mu.Unlock()

	for _, id := range ids {
		if err := m.UnloadEntry(id); err != nil {
			m.logger.Warn("unloading entry", "entry_id", id, "err", err)
		}
	}
	m.logger.Info("integration manager stopped")
}

// SetupEntry performs the first refresh of entry and, when it succeeds,
// starts polling and exposes the sensor. A failed first refresh returns
// ErrEntryNotReady and schedules a retry.
func (m *Manager) SetupEntry(ctx context.Context, entry entries.Entry) error {
	m.mu.RLock()
	gen := m.gens[entry.EntryID]
	m.mu.RUnlock()
	return m.setup(ctx, entry, 0, gen)
}

func (m *Manager) setup(ctx context.Context, entry entries.Entry, attempt int, gen uint64) error {
	m.mu.Lock()
	if _, exists := m.loaded[entry.EntryID]; exists {
		m.mu.Unlock()
		return fmt.Errorf("entry %s is already loaded", entry.EntryID)
	}
	if timer, exists := m.retries[entry.EntryID]; exists {
		timer.Stop()
		delete(m.retries, entry.EntryID)
	}
	runCtx := m.baseCtx
	m.mu.Unlock()

	logger := m.logger.With("entry_id", entry.EntryID, "fmisid", entry.Data.FMISID)

	coord := coordinator.New(coordinator.Config{
		FMISID:         entry.Data.FMISID,
		Location:       fmi.Coordinates{Lat: entry.Data.Latitude, Lon: entry.Data.Longitude},
		Timestep:       entry.Options.Timestep,
		UpdateInterval: m.cfg.UpdateInterval,
		UpdateTimeout:  m.cfg.UpdateTimeout,
	}, m.fetcher, m.logger)

	if err := coord.Refresh(ctx); err != nil {
		m.scheduleRetry(entry, attempt, gen)
		return fmt.Errorf("%w: %w", ErrEntryNotReady, err)
	}

	le := &loadedEntry{
		entry:  entry,
		coord:  coord,
		sensor: sensor.New(entry, coord, logger),
	}

	m.mu.Lock()
	if runCtx.Err() != nil || m.gens[entry.EntryID] != gen {
		m.mu.Unlock()
		logger.Debug("entry unloaded during setup, discarding")
		return ErrEntryUnloaded
	}
	if _, exists := m.loaded[entry.EntryID]; exists {
		m.mu.Unlock()
		return fmt.Errorf("entry %s is already loaded", entry.EntryID)
	}
	m.loaded[entry.EntryID] = le
	m.mu.Unlock()

	le.removeListener = coord.AddListener(func() { m.publish(le.sensor) })
	if err := coord.Start(runCtx); err != nil {
		return err
	}

	st := le.sensor.Render()
	if m.discovery != nil {
		if err := m.discovery.Announce(st); err != nil {
			logger.Warn("announcing sensor", "entity_id", st.EntityID, "err", err)
		}
	}
	m.publishState(st)

	logger.Info("entry loaded", "entity_id", st.EntityID, "state", st.State)
	return nil
}

func (m *Manager) scheduleRetry(entry entries.Entry, attempt int, gen uint64) {
	delay := retryDelay(m.cfg.RetryInitial, m.cfg.RetryMax, attempt)

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.baseCtx.Err() != nil || m.gens[entry.EntryID] != gen {
		return
	}
	if timer, exists := m.retries[entry.EntryID]; exists {
		timer.Stop()
	}
	m.retries[entry.EntryID] = time.AfterFunc(delay, func() { m.retry(entry.EntryID, attempt+1, gen) })

	m.logger.Info("entry not ready, retrying", "entry_id", entry.EntryID, "in", delay, "attempt", attempt+1)
}

func (m *Manager) retry(entryID string, attempt int, gen uint64) {
	m.mu.Lock()
	delete(m.retries, entryID)
	ctx := m.baseCtx
	current := m.gens[entryID]
	m.mu.Unlock()

	if ctx.Err() != nil || current != gen {
		return
	}

	// The entry may have been removed or changed while waiting
	entry, err := m.store.Get(ctx, entryID)
	if err != nil {
		if !errors.Is(err, entries.ErrEntryNotFound) {
			m.logger.Warn("loading entry for retry", "entry_id", entryID, "err", err)
		}
		return
	}

	if err := m.setup(ctx, entry, attempt, gen); err != nil {
		m.logger.Debug("entry retry failed", "entry_id", entryID, "attempt", attempt, "err", err)
	}
}

// UnloadEntry stops polling for the entry and removes its sensor
func (m *Manager) UnloadEntry(entryID string) error {
	m.mu.Lock()
	m.gens[entryID]++
	timer, retrying := m.retries[entryID]
	if retrying {
		timer.Stop()
		delete(m.retries, entryID)
	}
	le, exists := m.loaded[entryID]
	delete(m.loaded, entryID)
	m.mu.Unlock()

	if !exists {
		if retrying {
			return nil
		}
		return entries.ErrEntryNotFound
	}

	if le.removeListener != nil {
		le.removeListener()
	}
	le.coord.Stop()

	entityID := le.sensor.EntityID()
	if m.discovery != nil {
		if err := m.discovery.Remove(le.sensor.UniqueID()); err != nil {
			m.logger.Warn("removing sensor from discovery", "entity_id", entityID, "err", err)
		}
	}
	if m.sseMgr != nil {
		m.sseMgr.Broadcast(sse.Message{Type: sse.TypeRemoved, EntityID: entityID})
	}

	m.logger.Info("entry unloaded", "entry_id", entryID, "entity_id", entityID)
	return nil
}

// ReloadEntry re-reads the entry from the store and sets it up again,
// picking up changed options
func (m *Manager) ReloadEntry(ctx context.Context, entryID string) error {
	entry, err := m.store.Get(ctx, entryID)
	if err != nil {
		return err
	}
	if err := m.UnloadEntry(entryID); err != nil && !errors.Is(err, entries.ErrEntryNotFound) {
		return err
	}
	return m.SetupEntry(ctx, entry)
}

// RefreshEntry polls a loaded entry immediately
func (m *Manager) RefreshEntry(ctx context.Context, entryID string) error {
	m.mu.RLock()
	le, exists := m.loaded[entryID]
	m.mu.RUnlock()

	if !exists {
		return entries.ErrEntryNotFound
	}
	return le.coord.Refresh(ctx)
}

// Republish announces every loaded sensor again, e.g. after an MQTT reconnect
func (m *Manager) Republish() {
	if m.discovery == nil {
		return
	}
	for _, le := range m.snapshotLoaded() {
		st := le.sensor.Render()
		if err := m.discovery.Announce(st); err != nil {
			m.logger.Warn("announcing sensor", "entity_id", st.EntityID, "err", err)
			continue
		}
		if err := m.discovery.PublishState(st); err != nil {
			m.logger.Warn("publishing sensor state", "entity_id", st.EntityID, "err", err)
		}
	}
}

// Sensors returns every loaded sensor ordered by entity id
func (m *Manager) Sensors() []SensorView {
	loaded := m.snapshotLoaded()
	views := make([]SensorView, 0, len(loaded))
	for _, le := range loaded {
		views = append(views, SensorView{State: le.sensor.Render(), Coordinator: le.coord.Status()})
	}
	sort.Slice(views, func(i, j int) bool { return views[i].EntityID < views[j].EntityID })
	return views
}

// Sensor returns the sensor with the given entity id
func (m *Manager) Sensor(entityID string) (SensorView, bool) {
	for _, le := range m.snapshotLoaded() {
		if le.sensor.EntityID() == entityID {
			return SensorView{State: le.sensor.Render(), Coordinator: le.coord.Status()}, true
		}
	}
	return SensorView{}, false
}

func (m *Manager) LoadedCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.loaded)
}

// PendingRetries returns the number of entries waiting for a setup retry
func (m *Manager) PendingRetries() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.retries)
}

func (m *Manager) snapshotLoaded() []*loadedEntry {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*loadedEntry, 0, len(m.loaded))
	for _, le := range m.loaded {
		out = append(out, le)
	}
	return out
}

func (m *Manager) publish(s *sensor.Sensor) {
	m.publishState(s.Render())
}

func (m *Manager) publishState(st sensor.State) {
	if m.sseMgr != nil && m.sseMgr.HasClients() {
		m.sseMgr.Broadcast(sse.Message{Type: sse.TypeState, EntityID: st.EntityID, Data: st})
	}
	if m.discovery != nil {
		if err := m.discovery.PublishState(st); err != nil {
			m.logger.Warn("publishing sensor state", "entity_id", st.EntityID, "err", err)
		}
	}
}

// sendAllTo sends the current state of every sensor to a new SSE client
func (m *Manager) sendAllTo(clientID string) {
	for _, view := range m.Sensors() {
		m.sseMgr.SendToClient(clientID, sse.Message{
			Type:     sse.TypeState,
			EntityID: view.EntityID,
			Data:     view.State,
		})
	}
}
