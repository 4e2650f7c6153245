package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment override, e.g. MAREO_HTTP_ADDR
const EnvPrefix = "MAREO"

type Config struct {
	AppEnv   string
	LogLevel slog.Level
	HTTPAddr string

	DBPath string

	FMIBaseURL        string
	FMIRequestTimeout time.Duration
	FMIUpdateTimeout  time.Duration
	FMIUpdateInterval time.Duration

	// EntriesFile is an optional yaml file of stations imported on startup
	EntriesFile string

	MQTTEnabled         bool
	MQTTBroker          string
	MQTTPort            int
	MQTTClientID        string
	MQTTDiscoveryPrefix string
	MQTTBaseTopic       string
}

// SetDefaults registers the default value of every key on v
func SetDefaults(v *viper.Viper) {
	v.SetDefault("app_env", "dev")
	v.SetDefault("log_level", "info")
	v.SetDefault("http_addr", ":8080")
	v.SetDefault("db.path", "data/mareo.db")
	v.SetDefault("fmi.base_url", "https://opendata.fmi.fi/wfs")
	v.SetDefault("fmi.request_timeout", "5s")
	v.SetDefault("fmi.update_timeout", "40s")
	v.SetDefault("fmi.update_interval", "30m")
	v.SetDefault("entries_file", "")
	v.SetDefault("mqtt.enabled", false)
	v.SetDefault("mqtt.broker", "localhost")
	v.SetDefault("mqtt.port", 1883)
	v.SetDefault("mqtt.client_id", "mareo-monitor")
	v.SetDefault("mqtt.discovery_prefix", "homeassistant")
	v.SetDefault("mqtt.base_topic", "mareo")
}

// BindEnv makes MAREO_* environment variables override file values
func BindEnv(v *viper.Viper) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}

// Load builds a validated Config from v
func Load(v *viper.Viper) (Config, error) {
	appEnv := strings.TrimSpace(v.GetString("app_env"))
	switch appEnv {
	case "dev", "prod":
	default:
		return Config{}, fmt.Errorf("invalid app_env %q (allowed: dev, prod)", appEnv)
	}

	level, err := parseLogLevel(v.GetString("log_level"))
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		AppEnv:              appEnv,
		LogLevel:            level,
		HTTPAddr:            strings.TrimSpace(v.GetString("http_addr")),
		DBPath:              strings.TrimSpace(v.GetString("db.path")),
		FMIBaseURL:          strings.TrimSpace(v.GetString("fmi.base_url")),
		EntriesFile:         strings.TrimSpace(v.GetString("entries_file")),
		MQTTEnabled:         v.GetBool("mqtt.enabled"),
		MQTTBroker:          strings.TrimSpace(v.GetString("mqtt.broker")),
		MQTTPort:            v.GetInt("mqtt.port"),
		MQTTClientID:        strings.TrimSpace(v.GetString("mqtt.client_id")),
		MQTTDiscoveryPrefix: strings.Trim(v.GetString("mqtt.discovery_prefix"), "/ "),
		MQTTBaseTopic:       strings.Trim(v.GetString("mqtt.base_topic"), "/ "),
	}

	if cfg.FMIRequestTimeout, err = positiveDuration(v, "fmi.request_timeout"); err != nil {
		return Config{}, err
	}
	if cfg.FMIUpdateTimeout, err = positiveDuration(v, "fmi.update_timeout"); err != nil {
		return Config{}, err
	}
	if cfg.FMIUpdateInterval, err = positiveDuration(v, "fmi.update_interval"); err != nil {
		return Config{}, err
	}

	if cfg.FMIBaseURL == "" {
		return Config{}, fmt.Errorf("fmi.base_url must not be empty")
	}
	if cfg.DBPath == "" {
		return Config{}, fmt.Errorf("db.path must not be empty")
	}
	if cfg.MQTTEnabled {
		if cfg.MQTTBroker == "" {
			return Config{}, fmt.Errorf("mqtt.broker is required when mqtt is enabled")
		}
		if cfg.MQTTPort <= 0 || cfg.MQTTPort > 65535 {
			return Config{}, fmt.Errorf("invalid mqtt.port %d", cfg.MQTTPort)
		}
	}

	return cfg, nil
}

func positiveDuration(v *viper.Viper, key string) (time.Duration, error) {
	raw := strings.TrimSpace(v.GetString(key))
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s must be positive, got %s", key, d)
	}
	return d, nil
}

func parseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("invalid log_level %q (allowed: debug, info, warn, error)", s)
	}
}
