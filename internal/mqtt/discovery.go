package mqtt

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"mareo-monitor/internal/sensor"
)

const (
	PayloadOnline  = "online"
	PayloadOffline = "offline"

	manufacturer = "Finnish Meteorological Institute"
	model        = "Mareograph forecast"
)

// Publisher is the part of Client the discovery publisher needs
type Publisher interface {
	Publish(topic string, retained bool, payload []byte) error
}

// Discovery publishes sensors using the Home Assistant MQTT discovery
// convention: one retained config message per entity plus state,
// attributes and availability topics.
type Discovery struct {
	pub       Publisher
	prefix    string
	baseTopic string
	swVersion string
	logger    *slog.Logger
}

func NewDiscovery(pub Publisher, prefix, baseTopic, swVersion string, logger *slog.Logger) *Discovery {
	if logger == nil {
		logger = slog.Default()
	}
	return &Discovery{
		pub:       pub,
		prefix:    prefix,
		baseTopic: baseTopic,
		swVersion: swVersion,
		logger:    logger,
	}
}

// SensorConfig is the discovery payload of a sensor entity
type SensorConfig struct {
	Name                string `json:"name"`
	UniqueID            string `json:"unique_id"`
	ObjectID            string `json:"object_id"`
	StateTopic          string `json:"state_topic"`
	JSONAttributesTopic string `json:"json_attributes_topic"`
	AvailabilityTopic   string `json:"availability_topic"`
	UnitOfMeasurement   string `json:"unit_of_measurement"`
	Icon                string `json:"icon"`
	StateClass          string `json:"state_class"`
	Device              Device `json:"device"`
}

type Device struct {
	Identifiers  []string `json:"identifiers"`
	Name         string   `json:"name"`
	Manufacturer string   `json:"manufacturer"`
	Model        string   `json:"model"`
	SWVersion    string   `json:"sw_version,omitempty"`
}

func (d *Discovery) ConfigTopic(uniqueID string) string {
	return fmt.Sprintf("%s/sensor/%s/config", d.prefix, uniqueID)
}

func (d *Discovery) StateTopic(uniqueID string) string {
	return fmt.Sprintf("%s/%s/state", d.baseTopic, uniqueID)
}

func (d *Discovery) AttributesTopic(uniqueID string) string {
	return fmt.Sprintf("%s/%s/attributes", d.baseTopic, uniqueID)
}

func (d *Discovery) AvailabilityTopic(uniqueID string) string {
	return fmt.Sprintf("%s/%s/availability", d.baseTopic, uniqueID)
}

func (d *Discovery) sensorConfig(st sensor.State) SensorConfig {
	return SensorConfig{
		Name:                st.Name,
		UniqueID:            st.UniqueID,
		ObjectID:            strings.TrimPrefix(st.EntityID, "sensor."),
		StateTopic:          d.StateTopic(st.UniqueID),
		JSONAttributesTopic: d.AttributesTopic(st.UniqueID),
		AvailabilityTopic:   d.AvailabilityTopic(st.UniqueID),
		UnitOfMeasurement:   st.Unit,
		Icon:                st.Icon,
		StateClass:          st.StateClass,
		Device: Device{
			Identifiers:  []string{st.UniqueID},
			Name:         st.Name,
			Manufacturer: manufacturer,
			Model:        model,
			SWVersion:    d.swVersion,
		},
	}
}

// Announce publishes the retained discovery config of a sensor
func (d *Discovery) Announce(st sensor.State) error {
	payload, err := json.Marshal(d.sensorConfig(st))
	if err != nil {
		return fmt.Errorf("marshal discovery config: %w", err)
	}
	if err := d.pub.Publish(d.ConfigTopic(st.UniqueID), true, payload); err != nil {
		return err
	}
	d.logger.Debug("announced sensor", "entity_id", st.EntityID, "unique_id", st.UniqueID)
	return nil
}

// PublishState publishes availability, attributes and state. An Unavailable
// sensor is reported offline and its state is not published.
func (d *Discovery) PublishState(st sensor.State) error {
	if st.State == sensor.StateUnavailable {
		return d.pub.Publish(d.AvailabilityTopic(st.UniqueID), true, []byte(PayloadOffline))
	}

	attrs, err := json.Marshal(st.Attributes)
	if err != nil {
		return fmt.Errorf("marshal attributes: %w", err)
	}

	return errors.Join(
		d.pub.Publish(d.AttributesTopic(st.UniqueID), true, attrs),
		d.pub.Publish(d.StateTopic(st.UniqueID), true, []byte(st.State)),
		d.pub.Publish(d.AvailabilityTopic(st.UniqueID), true, []byte(PayloadOnline)),
	)
}

// Remove clears the retained discovery config, which deletes the entity
func (d *Discovery) Remove(uniqueID string) error {
	return errors.Join(
		d.pub.Publish(d.AvailabilityTopic(uniqueID), true, []byte(PayloadOffline)),
		d.pub.Publish(d.ConfigTopic(uniqueID), true, []byte{}),
	)
}
