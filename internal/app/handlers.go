package app

import (
	"encoding/json"
	"html/template"
	"log/slog"
	"net/http"

	"mareo-monitor/internal/integration"
	"mareo-monitor/internal/sse"
)

var indexTemplate = template.Must(template.New("index").Parse(`<!DOCTYPE html>
<html>
<head>
    <title>Mareo Monitor</title>
    <style>
        body { font-family: Arial, sans-serif; margin: 20px; }
        .sensor { margin: 10px 0; padding: 10px; border: 1px solid #ccc; }
        .data { color: #0a5; }
        .no-data { color: #999; }
    </style>
</head>
<body>
    <h1>Mareo Monitor</h1>
    <p>{{len .}} sea level sensors</p>
    <div class="sensors">
    {{- range .}}
        <div class="sensor" id="{{.EntityID}}">
            <strong>{{.Name}}</strong><br>
            {{- if .Available}}
            <span class="data">{{.State.State}} {{.Unit}}</span>
            {{- else}}
            <span class="no-data">{{.State.State}}</span>
            {{- end}}
        </div>
    {{- end}}
    </div>
    <p><a href="/api/sensors">Sensors API</a> | <a href="/api/entries">Entries API</a> | <a href="/api/stations">Stations API</a></p>
    <script>
        const eventSource = new EventSource('/events');
        eventSource.addEventListener('state', function(event) {
            const st = JSON.parse(event.data);
            const el = document.getElementById(st.entity_id);
            if (el) {
                el.querySelector('span').textContent = st.available ? st.state + ' ' + st.unit_of_measurement : st.state;
            }
        });
    </script>
</body>
</html>`))

func handleIndex(host *integration.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := indexTemplate.Execute(w, host.Sensors()); err != nil {
			http.Error(w, "Internal server error", http.StatusInternalServerError)
		}
	}
}

type healthResponse struct {
	Status         string    `json:"status"`
	Entries        int       `json:"entries"`
	Sensors        int       `json:"sensors"`
	PendingRetries int       `json:"pending_retries"`
	SSEClients     int       `json:"sse_clients"`
	Build          BuildInfo `json:"build"`
}

func handleHealth(svc *Services, sseMgr sse.Manager, host *integration.Manager, build BuildInfo, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		list, err := svc.Store.List(r.Context())
		if err != nil {
			logger.Error("failed to check database connectivity", "error", err)
			w.WriteHeader(http.StatusServiceUnavailable)
			_ = json.NewEncoder(w).Encode(map[string]string{"status": "error", "error": "database unavailable"})
			return
		}

		if err := json.NewEncoder(w).Encode(healthResponse{
			Status:         "ok",
			Entries:        len(list),
			Sensors:        host.LoadedCount(),
			PendingRetries: host.PendingRetries(),
			SSEClients:     sseMgr.ClientCount(),
			Build:          build,
		}); err != nil {
			logger.Error("encoding health response", "error", err)
		}
	}
}
