package integration

import (
	"errors"
	"time"

	"mareo-monitor/internal/coordinator"
	"mareo-monitor/internal/sensor"
)

// ErrEntryNotReady is returned when the first refresh of an entry fails.
// The entry is retried in the background.
var ErrEntryNotReady = errors.New("entry not ready")

// ErrEntryUnloaded is returned when an entry is unloaded or the manager is
// stopped while its setup is still fetching.
var ErrEntryUnloaded = errors.New("entry unloaded during setup")

const (
	DefaultRetryInitial = 30 * time.Second
	DefaultRetryMax     = 10 * time.Minute
)

// Config controls coordinator cadence and setup retries
type Config struct {
	UpdateInterval time.Duration
	UpdateTimeout  time.Duration
	RetryInitial   time.Duration
	RetryMax       time.Duration
}

// Discovery announces sensors to an external system, e.g. MQTT
type Discovery interface {
	Announce(st sensor.State) error
	PublishState(st sensor.State) error
	Remove(uniqueID string) error
}

// SensorView is a sensor together with the coordinator feeding it
type SensorView struct {
	sensor.State
	Coordinator coordinator.Status `json:"coordinator"`
}

// retryDelay doubles initial for every failed attempt, capped at limit
func retryDelay(initial, limit time.Duration, attempt int) time.Duration {
	d := initial
	for i := 0; i < attempt && d < limit; i++ {
		d *= 2
	}
	return min(d, limit)
}
