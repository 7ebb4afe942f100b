package services

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"strings"

	"github.com/wadjakorntonsri/campaign-links/pkg/core/domain"
	"github.com/wadjakorntonsri/campaign-links/pkg/ports"
)

type RedirectResolver struct {
	repo   ports.LinkRepository
	logger *slog.Logger
}

func NewRedirectResolver(repo ports.LinkRepository, logger *slog.Logger) *RedirectResolver {
	return &RedirectResolver{repo: repo, logger: logger}
}

// Resolve counts a click on code and returns the destination URL.
// host scopes the lookup when it names a registered domain.
func (s *RedirectResolver) Resolve(ctx context.Context, host, code string) (string, error) {
	if code == "" {
		return "", domain.ErrNotFound
	}

	redirect, err := s.repo.IncrementClicks(ctx, normalizeHost(host), code)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			s.logger.Error("Redirect lookup failed", "code", code, "host", host, "error", err)
		}
		return "", err
	}

	s.logger.Debug("Redirect resolved", "code", code, "link_id", redirect.LinkID, "clicks", redirect.ClickCount)
	return redirect.OriginalURL, nil
}

// normalizeHost lowercases host and drops a trailing root dot. The port is kept.
func normalizeHost(host string) string {
	if h, port, err := net.SplitHostPort(host); err == nil {
		return net.JoinHostPort(strings.ToLower(strings.TrimSuffix(h, ".")), port)
	}
	return strings.ToLower(strings.TrimSuffix(host, "."))
}
