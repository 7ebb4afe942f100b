package main

import (
	"net/http"
	"os"
	"time"

	"github.com/wadjakorntonsri/campaign-links/pkg/adapters/handler"
	"github.com/wadjakorntonsri/campaign-links/pkg/app"
	"github.com/wadjakorntonsri/campaign-links/pkg/config"
)

func main() {
	cfg := config.Load()
	logger := cfg.NewLogger()

	// Initialize Repository and Services
	a, err := app.New(cfg, logger)
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer a.Repo.Close()

	// Initialize Router
	mux := handler.NewRouter(cfg, a.Services(), logger)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 60 * time.Second, // provisioning a large audience runs inside the request
	}

	logger.Info("Server starting", "port", cfg.Port, "env", cfg.AppEnv)
	if err := server.ListenAndServe(); err != nil {
		logger.Error("Server stopped", "error", err)
		os.Exit(1)
	}
}
