package handler

import (
	"encoding/json"
	"errors"
	"html/template"
	"log/slog"
	"net/http"

	"github.com/wadjakorntonsri/campaign-links/pkg/core/domain"
)

var notFoundPage = template.Must(template.New("not_found").Parse(`<!DOCTYPE html>
<html lang="en">
<head><meta charset="utf-8"><title>Link not found</title></head>
<body>
<h1>Error</h1>
<p>Link not found{{if .}}: <code>{{.}}</code>{{end}}</p>
</body>
</html>
`))

type HTTPHandler struct {
	svc    Services
	logger *slog.Logger
}

func NewHTTPHandler(svc Services, logger *slog.Logger) *HTTPHandler {
	return &HTTPHandler{svc: svc, logger: logger}
}

// ProvisionRequest payload. The legacy campaign_post_id/post_url keys are still accepted.
type ProvisionRequest struct {
	PostID         string `json:"post_id"`
	DestinationURL string `json:"destination_url"`
	LegacyPostID   string `json:"campaign_post_id,omitempty"`
	LegacyPostURL  string `json:"post_url,omitempty"`
}

type provisionResponse struct {
	Success bool `json:"success"`
	*domain.ProvisionResult
}

// Provision links for every user targeted by a post's campaign
func (h *HTTPHandler) Provision(w http.ResponseWriter, r *http.Request) {
	var req ProvisionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.PostID == "" {
		req.PostID = req.LegacyPostID
	}
	if req.DestinationURL == "" {
		req.DestinationURL = req.LegacyPostURL
	}
	if req.PostID == "" {
		writeJSONError(w, http.StatusBadRequest, "post_id is required")
		return
	}

	result, err := h.svc.Provision.Provision(r.Context(), req.PostID, req.DestinationURL)
	if err != nil {
		h.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, provisionResponse{Success: true, ProvisionResult: result})
}

// Regenerate runs provisioning again for every post
func (h *HTTPHandler) Regenerate(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.Provision.RegenerateAll(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// PostStats returns link and click totals for a post
func (h *HTTPHandler) PostStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.svc.Provision.PostStats(r.Context(), r.PathValue("id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// Audience previews the users a campaign targets
func (h *HTTPHandler) Audience(w http.ResponseWriter, r *http.Request) {
	campaignID := r.PathValue("id")
	users, err := h.svc.Audience.Resolve(r.Context(), campaignID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"campaign_id": campaignID,
		"user_ids":    users,
		"total":       len(users),
	})
}

func (h *HTTPHandler) ListDomains(w http.ResponseWriter, r *http.Request) {
	domains, err := h.svc.Domains.List(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	if domains == nil {
		domains = []domain.Domain{}
	}
	writeJSON(w, http.StatusOK, domains)
}

type addDomainRequest struct {
	Domain string `json:"domain"`
}

func (h *HTTPHandler) AddDomain(w http.ResponseWriter, r *http.Request) {
	var req addDomainRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	d, err := h.svc.Domains.AddDomain(r.Context(), req.Domain)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, d)
}

func (h *HTTPHandler) ActiveDomain(w http.ResponseWriter, r *http.Request) {
	d, err := h.svc.Domains.Active(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (h *HTTPHandler) ActivateDomain(w http.ResponseWriter, r *http.Request) {
	d, err := h.svc.Domains.Activate(r.Context(), r.PathValue("id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.logger.Info("Domain activated via API", "domain", d.Hostname, "by", AdminSubject(r.Context()))
	writeJSON(w, http.StatusOK, d)
}

// Redirect to original URL, counting the click
func (h *HTTPHandler) Redirect(w http.ResponseWriter, r *http.Request) {
	code := r.PathValue("short_code")

	originalURL, err := h.svc.Redirects.Resolve(r.Context(), r.Host, code)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			renderNotFound(w, code)
			return
		}
		h.logger.Error("Redirect failed", "code", code, "error", err)
		http.Error(w, "Error processing redirect", http.StatusInternalServerError)
		return
	}

	http.Redirect(w, r, originalURL, http.StatusFound)
}

func renderNotFound(w http.ResponseWriter, code string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusNotFound)
	_ = notFoundPage.Execute(w, code)
}

func (h *HTTPHandler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrNoActiveDomain),
		errors.Is(err, domain.ErrInvalidURL),
		errors.Is(err, domain.ErrInvalidHostname):
		writeJSONError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		writeJSONError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrAlreadyExists):
		writeJSONError(w, http.StatusConflict, err.Error())
	default:
		h.logger.Error("Request failed", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "internal server error")
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
