package wsapi

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/agam1092005/multiGalaxy/internal/infrastructure/config"
	obs "github.com/agam1092005/multiGalaxy/internal/infrastructure/observability"
	"github.com/agam1092005/multiGalaxy/internal/usecase"
)

type Deps struct {
	Cfg     config.Config
	Logger  *zerolog.Logger
	Metrics *obs.Metrics
	Svc     *usecase.SessionService
	Hub     *Hub
}

func NewRouterWithDeps(d *Deps) http.Handler {
	return withCORS(d.Cfg, buildBaseMux(d))
}

func buildBaseMux(d *Deps) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("/readyz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	mux.Handle("/metrics", promhttp.HandlerFor(d.Metrics.Registry(), promhttp.HandlerOpts{}))

	mux.HandleFunc("/api/version", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"name":    "multigalaxy",
			"version": obs.Version,
			"time":    time.Now().UTC(),
		})
	})

	// collaboration socket
	mux.HandleFunc("/ws", d.Hub.HandleWS)

	// REST sessions
	mux.HandleFunc("/api/sessions", d.handleListSessions)
	mux.HandleFunc("/api/sessions/", d.handleSessionByID)

	return mux
}

func withCORS(cfg config.Config, h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", cfg.CORSAllowOrigin)
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, Sec-WebSocket-Protocol")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		h.ServeHTTP(w, r)
	})
}
