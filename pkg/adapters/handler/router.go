package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/wadjakorntonsri/campaign-links/pkg/config"
	"github.com/wadjakorntonsri/campaign-links/pkg/ports"
)

// Services bundles what the HTTP layer calls into.
type Services struct {
	Provision ports.ProvisionService
	Audience  ports.AudienceService
	Redirects ports.RedirectService
	Domains   ports.DomainService
}

// NewRouter creates and configures the main application router
func NewRouter(cfg *config.Config, svc Services, logger *slog.Logger) http.Handler {
	h := NewHTTPHandler(svc, logger)
	mw := NewMiddleware(cfg)

	mux := http.NewServeMux()

	// Public Routes
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"message": "ok"})
	})
	mux.HandleFunc("GET /{short_code}", h.Redirect)

	// Protected Routes (admin API)
	protectedMux := http.NewServeMux()
	protectedMux.HandleFunc("POST /api/v1/provision", h.Provision)
	protectedMux.HandleFunc("POST /api/v1/posts/regenerate", h.Regenerate)
	protectedMux.HandleFunc("GET /api/v1/posts/{id}/stats", h.PostStats)
	protectedMux.HandleFunc("GET /api/v1/campaigns/{id}/audience", h.Audience)
	protectedMux.HandleFunc("GET /api/v1/domains", h.ListDomains)
	protectedMux.HandleFunc("POST /api/v1/domains", h.AddDomain)
	protectedMux.HandleFunc("GET /api/v1/domains/active", h.ActiveDomain)
	protectedMux.HandleFunc("PUT /api/v1/domains/{id}/activate", h.ActivateDomain)

	mux.Handle("/api/v1/", mw.AuthMiddleware(protectedMux))

	return mux
}
