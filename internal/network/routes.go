package network

import (
	"net/http"
	"time"

	"github.com/MRamiBalles/sinewave/internal/platform/metrics"
)

// NewMux wires every HTTP route of the server.
func NewMux(hub *Hub, snap Snapshotter, journal *JournalHandler, m *metrics.Collector, startedAt time.Time) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/", PageHandler(snap, hub.logger))
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		ServeWs(hub, snap, w, r)
	})
	mux.HandleFunc("/api/state", StateHandler(snap, hub, startedAt))
	mux.HandleFunc("/api/metrics", m.Handler())
	mux.HandleFunc("/metrics", m.PrometheusHandler())
	journal.RegisterRoutes(mux)

	return mux
}
