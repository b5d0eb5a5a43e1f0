package handler

import (
	"context"
	"net/http"

	"github.com/wadjakorntonsri/qr-redirect/pkg/app"
	"github.com/wadjakorntonsri/qr-redirect/pkg/config"
	"github.com/wadjakorntonsri/qr-redirect/pkg/logger"
)

var mux http.Handler

func init() {
	cfg := config.Load()
	logger.Initialize(cfg.AppEnv, cfg.LogLevel)

	// Note: On Vercel, local sqlite files are ephemeral unless DATABASE_URL and
	// ANALYTICS_DATABASE_URL point at remote libsql/Turso databases
	a, err := app.Open(context.Background(), cfg)
	if err != nil {
		panic(err)
	}

	mux = a.Handler()
}

// Handler is the entrypoint for Vercel
func Handler(w http.ResponseWriter, r *http.Request) {
	mux.ServeHTTP(w, r)
}
