package coordinator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"mareo-monitor/pkg/fmi"
	"mareo-monitor/pkg/fmi/sealevel"
)

const (
	DefaultUpdateInterval = 30 * time.Minute
	DefaultUpdateTimeout  = 40 * time.Second
)

// Fetcher retrieves a sea level forecast
type Fetcher interface {
	Execute(ctx context.Context, req sealevel.Request) (*sealevel.Response, error)
}

// Snapshot is the most recently fetched forecast. It is replaced as a whole
// on every successful poll and never modified afterwards.
type Snapshot struct {
	Points    []sealevel.Point `json:"points"`
	FetchedAt time.Time        `json:"fetched_at"`
}

// Config controls what a coordinator fetches and how often
type Config struct {
	FMISID         int
	Location       fmi.Coordinates
	Timestep       int
	UpdateInterval time.Duration
	UpdateTimeout  time.Duration
}

// Status summarises the coordinator for the API
type Status struct {
	FMISID            int           `json:"fmisid"`
	LastUpdateSuccess bool          `json:"last_update_success"`
	LastAttempt       time.Time     `json:"last_attempt"`
	LastSuccess       time.Time     `json:"last_success"`
	LastError         string        `json:"last_error,omitempty"`
	UpdateInterval    time.Duration `json:"update_interval"`
	Running           bool          `json:"running"`
}

// UpdateFailedError reports a refresh that did not produce fresh data
type UpdateFailedError struct {
	FMISID int
	Err    error
}

func (e *UpdateFailedError) Error() string {
	return fmt.Sprintf("sea level update failed for fmisid %d: %v", e.FMISID, e.Err)
}

func (e *UpdateFailedError) Unwrap() error { return e.Err }

// Coordinator polls one station and holds its snapshot
type Coordinator struct {
	cfg     Config
	fetcher Fetcher
	logger  *slog.Logger
	now     func() time.Time

	// refreshMu keeps a single fetch outstanding
	refreshMu sync.Mutex

	mu                sync.RWMutex
	snapshot          *Snapshot
	lastUpdateSuccess bool
	lastAttempt       time.Time
	lastSuccess       time.Time
	lastErr           error

	listenersMu sync.Mutex
	listeners   map[int]func()
	nextID      int

	runMu  sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// New creates a coordinator. Zero intervals fall back to the defaults.
func New(cfg Config, fetcher Fetcher, logger *slog.Logger) *Coordinator {
	if cfg.UpdateInterval <= 0 {
		cfg.UpdateInterval = DefaultUpdateInterval
	}
	if cfg.UpdateTimeout <= 0 {
		cfg.UpdateTimeout = DefaultUpdateTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Coordinator{
		cfg:       cfg,
		fetcher:   fetcher,
		logger:    logger.With("fmisid", cfg.FMISID),
		now:       time.Now,
		listeners: make(map[int]func()),
	}
}

// Refresh fetches the forecast once. Transport and API failures keep the
// previous snapshot, a malformed feed replaces it with an empty one.
// Listeners are notified in every case.
func (c *Coordinator) Refresh(ctx context.Context) error {
	c.refreshMu.Lock()
	defer c.refreshMu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, c.cfg.UpdateTimeout)
	defer cancel()

	started := c.now()
	resp, err := c.fetcher.Execute(ctx, sealevel.Request{
		Location:  c.cfg.Location,
		StartTime: started.UTC().Truncate(time.Second),
		Timestep:  c.cfg.Timestep,
		UseGzip:   true,
	})

	c.mu.Lock()
	c.lastAttempt = started
	switch {
	case err == nil:
		c.snapshot = &Snapshot{Points: resp.Points, FetchedAt: started}
		c.lastUpdateSuccess = true
		c.lastSuccess = started
		c.lastErr = nil
	case errors.Is(err, sealevel.ErrMalformedFeed):
		c.snapshot = &Snapshot{Points: []sealevel.Point{}, FetchedAt: started}
		c.lastUpdateSuccess = false
		err = &UpdateFailedError{FMISID: c.cfg.FMISID, Err: err}
		c.lastErr = err
	default:
		c.lastUpdateSuccess = false
		err = &UpdateFailedError{FMISID: c.cfg.FMISID, Err: err}
		c.lastErr = err
	}
	c.mu.Unlock()

	if err != nil {
		c.logger.Warn("sea level update failed", "err", err, "took", time.Since(started))
	} else {
		c.logUpdate(resp)
	}

	c.notify()
	return err
}

func (c *Coordinator) logUpdate(resp *sealevel.Response) {
	if len(resp.Points) > 12 {
		c.logger.Debug("sea level data updated",
			"first", resp.Points[0],
			"plus12", resp.Points[12],
			"kept", resp.Stats.Kept,
			"records", resp.Stats.Records,
		)
		return
	}
	c.logger.Debug("sea level data updated", "kept", resp.Stats.Kept, "records", resp.Stats.Records)
}

// Snapshot returns the current snapshot, if any fetch has produced one
func (c *Coordinator) Snapshot() (Snapshot, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.snapshot == nil {
		return Snapshot{}, false
	}
	return *c.snapshot, true
}

// LastUpdateSuccess reports whether the most recent refresh succeeded
func (c *Coordinator) LastUpdateSuccess() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lastUpdateSuccess
}

func (c *Coordinator) Status() Status {
	c.mu.RLock()
	st := Status{
		FMISID:            c.cfg.FMISID,
		LastUpdateSuccess: c.lastUpdateSuccess,
		LastAttempt:       c.lastAttempt,
		LastSuccess:       c.lastSuccess,
		UpdateInterval:    c.cfg.UpdateInterval,
	}
	if c.lastErr != nil {
		st.LastError = c.lastErr.Error()
	}
	c.mu.RUnlock()

	c.runMu.Lock()
	st.Running = c.cancel != nil
	c.runMu.Unlock()

	return st
}

// AddListener registers fn to run after every refresh and returns a function removing it
func (c *Coordinator) AddListener(fn func()) (remove func()) {
	c.listenersMu.Lock()
	id := c.nextID
	c.nextID++
	c.listeners[id] = fn
	c.listenersMu.Unlock()

	return func() {
		c.listenersMu.Lock()
		delete(c.listeners, id)
		c.listenersMu.Unlock()
	}
}

func (c *Coordinator) notify() {
	c.listenersMu.Lock()
	fns := make([]func(), 0, len(c.listeners))
	for _, fn := range c.listeners {
		fns = append(fns, fn)
	}
	c.listenersMu.Unlock()

	for _, fn := range fns {
		fn()
	}
}

// Start polls at the update interval until Stop is called or ctx ends.
// It does not refresh immediately.
func (c *Coordinator) Start(ctx context.Context) error {
	c.runMu.Lock()
	defer c.runMu.Unlock()

	if c.cancel != nil {
		return fmt.Errorf("coordinator for fmisid %d is already running", c.cfg.FMISID)
	}

	ctx, c.cancel = context.WithCancel(ctx)
	c.done = make(chan struct{})
	go c.run(ctx, c.done)

	c.logger.Info("coordinator started", "interval", c.cfg.UpdateInterval)
	return nil
}

func (c *Coordinator) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(c.cfg.UpdateInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			// Errors are logged and recorded by Refresh
			_ = c.Refresh(ctx)
		case <-ctx.Done():
			return
		}
	}
}

// Stop ends polling and waits for an in-flight refresh to return
func (c *Coordinator) Stop() {
	c.runMu.Lock()
	cancel, done := c.cancel, c.done
	c.cancel, c.done = nil, nil
	c.runMu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
	c.logger.Info("coordinator stopped")
}
