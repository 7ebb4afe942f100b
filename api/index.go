package handler

import (
	"net/http"

	"github.com/wadjakorntonsri/campaign-links/pkg/adapters/handler"
	"github.com/wadjakorntonsri/campaign-links/pkg/app"
	"github.com/wadjakorntonsri/campaign-links/pkg/config"
)

var mux http.Handler

func init() {
	cfg := config.Load()
	logger := cfg.NewLogger()

	// Note: On Vercel, db.sqlite is ephemeral unless DATABASE_URL points at Turso (libsql://)
	a, err := app.New(cfg, logger)
	if err != nil {
		panic(err)
	}

	mux = handler.NewRouter(cfg, a.Services(), logger)
}

// Handler is the entrypoint for Vercel
func Handler(w http.ResponseWriter, r *http.Request) {
	mux.ServeHTTP(w, r)
}
