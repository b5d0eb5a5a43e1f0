package handler

import (
	"encoding/json"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/wadjakorntonsri/qr-redirect/pkg/config"
	"github.com/wadjakorntonsri/qr-redirect/pkg/ports"
)

// NewRouter creates and configures the main application router
func NewRouter(cfg *config.Config, store ports.RedirectStore, resolver ports.Resolver, analytics ports.Analytics) http.Handler {
	h := NewHTTPHandler(cfg, store, resolver, analytics)
	mw := NewMiddleware(cfg)

	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		res := map[string]string{
			"message": "ok",
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(&res)
	})
	mux.Handle("GET /metrics", promhttp.Handler())

	mux.HandleFunc("GET /{$}", h.Landing)
	mux.HandleFunc("GET /shorten", h.Shorten)
	mux.HandleFunc("GET /api/v1/redirects/{id}", h.GetRedirect)
	mux.HandleFunc("GET /api/v1/redirects/{id}/stats", h.Stats)
	mux.HandleFunc("GET /{id}/qr", h.QRCode)

	// Every hit here is a resolution and produces an analytics event.
	mux.HandleFunc("GET /{id}", h.Redirect)

	return mw.Chain(mux)
}
