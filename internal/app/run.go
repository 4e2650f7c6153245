package app

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"mareo-monitor/internal/config"
	"mareo-monitor/internal/entries"
	"mareo-monitor/internal/integration"
	"mareo-monitor/internal/mqtt"
	"mareo-monitor/internal/sse"
	"mareo-monitor/internal/stations"
)

// Run starts the server and blocks until ctx is cancelled or the server fails
func Run(ctx context.Context, cfg config.Config, build BuildInfo, logger *slog.Logger) error {
	logger.Info("config loaded",
		"appEnv", cfg.AppEnv,
		"logLevel", cfg.LogLevel.String(),
		"httpAddr", cfg.HTTPAddr,
		"dbPath", cfg.DBPath,
		"fmiBaseURL", cfg.FMIBaseURL,
		"updateInterval", cfg.FMIUpdateInterval,
		"mqttEnabled", cfg.MQTTEnabled,
	)

	svc, err := NewServices(cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := svc.Close(); err != nil {
			logger.Error("db close", "error", err)
		}
	}()

	if cfg.EntriesFile != "" {
		if _, err := svc.Importer.ImportPath(ctx, cfg.EntriesFile); err != nil {
			return err
		}
	}

	sseMgr := sse.NewManager(logger)

	var (
		mqttClient *mqtt.Client
		discovery  integration.Discovery
	)
	if cfg.MQTTEnabled {
		mqttClient = mqtt.NewClient(cfg, logger)
		discovery = mqtt.NewDiscovery(mqttClient, cfg.MQTTDiscoveryPrefix, cfg.MQTTBaseTopic, build.Version, logger)
	}

	host := integration.NewManager(svc.Store, svc.Forecast, sseMgr, discovery, integration.Config{
		UpdateInterval: cfg.FMIUpdateInterval,
		UpdateTimeout:  cfg.FMIUpdateTimeout,
	}, logger)

	if mqttClient != nil {
		mqttClient.OnConnect(host.Republish)

		// Short timeout so a missing broker does not block startup
		connectCtx, connectCancel := context.WithTimeout(ctx, 5*time.Second)
		err := mqttClient.Connect(connectCtx)
		connectCancel()
		if err != nil {
			logger.Warn("mqtt connection failed (continuing without mqtt)", "error", err)
		}
	}

	mux := NewMux(svc, sseMgr, host, build, logger)
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           requestLogger(mux, logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http listening", "addr", cfg.HTTPAddr)
		errCh <- srv.ListenAndServe()
	}()

	// Entries load while the server already answers /health
	if err := host.Start(ctx); err != nil {
		_ = srv.Close()
		<-errCh
		if mqttClient != nil {
			mqttClient.Disconnect()
		}
		return err
	}

	select {
	case <-ctx.Done():
	case err := <-errCh:
		host.Stop()
		if mqttClient != nil {
			mqttClient.Disconnect()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	logger.Info("stopping coordinators")
	host.Stop()

	if mqttClient != nil {
		logger.Info("mqtt disconnecting")
		mqttClient.Disconnect()
	}

	logger.Info("http shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}

	err = <-errCh
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return ctx.Err()
}

// NewMux registers every HTTP handler
func NewMux(svc *Services, sseMgr sse.Manager, host *integration.Manager, build BuildInfo, logger *slog.Logger) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/", handleIndex(host))
	mux.HandleFunc("/health", handleHealth(svc, sseMgr, host, build, logger))

	sse.RegisterHandlers(mux, sseMgr, logger)
	stations.RegisterHandlers(mux, svc.Stations, logger)
	entries.RegisterHandlers(mux, svc.Store, svc.Flow, host, logger)
	integration.RegisterHandlers(mux, host, logger)

	return mux
}
