package app

import (
	"database/sql"
	"log/slog"
	"net/http"

	"mareo-monitor/internal/config"
	"mareo-monitor/internal/db"
	"mareo-monitor/internal/entries"
	"mareo-monitor/internal/stations"
	"mareo-monitor/pkg/fmi/sealevel"
	fmistations "mareo-monitor/pkg/fmi/stations"
)

// BuildInfo is injected at build time
type BuildInfo struct {
	Version string `json:"version"`
	Commit  string `json:"commit"`
	Date    string `json:"date"`
}

// Services are the components shared by the server and the CLI commands
type Services struct {
	DB       *sql.DB
	Store    entries.Store
	Stations stations.Manager
	Forecast *sealevel.Query
	Flow     *entries.Flow
	Importer *entries.Importer
}

// NewServices opens and migrates the database and builds the FMI clients
func NewServices(cfg config.Config, logger *slog.Logger) (*Services, error) {
	conn, err := db.Open(cfg.DBPath)
	if err != nil {
		return nil, err
	}
	if err := db.Migrate(conn, logger); err != nil {
		_ = db.Close(conn)
		return nil, err
	}

	httpClient := &http.Client{Timeout: cfg.FMIRequestTimeout}

	store := entries.NewStore(conn)
	stationMgr := stations.NewManager(fmistations.NewQuery(cfg.FMIBaseURL, httpClient), logger)
	flow := entries.NewFlow(store, stationMgr, logger)

	return &Services{
		DB:       conn,
		Store:    store,
		Stations: stationMgr,
		Forecast: sealevel.NewQuery(cfg.FMIBaseURL, httpClient, logger),
		Flow:     flow,
		Importer: entries.NewImporter(flow, logger),
	}, nil
}

func (s *Services) Close() error {
	return db.Close(s.DB)
}
