package services

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/wadjakorntonsri/campaign-links/pkg/core/domain"
	"github.com/wadjakorntonsri/campaign-links/pkg/ports"
)

// hostnameRegex accepts DNS names, single labels like localhost, and an optional port.
var hostnameRegex = regexp.MustCompile(`^[a-z0-9]([a-z0-9-]*[a-z0-9])?(\.[a-z0-9]([a-z0-9-]*[a-z0-9])?)*(:[0-9]{1,5})?$`)

type DomainManager struct {
	repo   ports.DomainRepository
	logger *slog.Logger
}

func NewDomainManager(repo ports.DomainRepository, logger *slog.Logger) *DomainManager {
	return &DomainManager{repo: repo, logger: logger}
}

// AddDomain registers a hostname. The first domain registered while none is active becomes active.
func (m *DomainManager) AddDomain(ctx context.Context, hostname string) (*domain.Domain, error) {
	hostname = strings.ToLower(strings.TrimSpace(hostname))
	if !hostnameRegex.MatchString(hostname) {
		return nil, fmt.Errorf("%q: %w", hostname, domain.ErrInvalidHostname)
	}

	d := &domain.Domain{Hostname: hostname}
	if err := m.repo.CreateDomain(ctx, d); err != nil {
		return nil, err
	}
	m.logger.Info("Domain added", "domain", d.Hostname, "active", d.Active)
	return d, nil
}

func (m *DomainManager) Activate(ctx context.Context, id string) (*domain.Domain, error) {
	d, err := m.repo.SetActiveDomain(ctx, id)
	if err != nil {
		return nil, err
	}
	m.logger.Info("Domain activated", "domain", d.Hostname, "id", d.ID)
	return d, nil
}

func (m *DomainManager) Active(ctx context.Context) (*domain.Domain, error) {
	d, err := m.repo.GetActiveDomain(ctx)
	if err != nil {
		return nil, err
	}
	if d == nil {
		return nil, domain.ErrNoActiveDomain
	}
	return d, nil
}

func (m *DomainManager) List(ctx context.Context) ([]domain.Domain, error) {
	return m.repo.ListDomains(ctx)
}
