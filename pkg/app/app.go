// Package app wires the store, services and transport from configuration.
package app

import (
	"log/slog"

	"github.com/wadjakorntonsri/campaign-links/pkg/adapters/handler"
	"github.com/wadjakorntonsri/campaign-links/pkg/adapters/messaging"
	"github.com/wadjakorntonsri/campaign-links/pkg/adapters/repository/sqlite"
	"github.com/wadjakorntonsri/campaign-links/pkg/config"
	"github.com/wadjakorntonsri/campaign-links/pkg/core/services"
	"github.com/wadjakorntonsri/campaign-links/pkg/ports"
)

// App holds the wired services shared by the server, the CLI and the serverless entrypoint.
type App struct {
	Repo        *sqlite.SQLiteRepository
	Audience    *services.AudienceResolver
	Provisioner *services.LinkProvisioner
	Redirects   *services.RedirectResolver
	Domains     *services.DomainManager
	Logger      *slog.Logger
}

func New(cfg *config.Config, logger *slog.Logger) (*App, error) {
	repo, err := sqlite.NewSQLiteRepository(cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	return Wire(cfg, repo, newSender(cfg, logger), logger), nil
}

// Wire builds the services on top of an open repository and a message sender.
func Wire(cfg *config.Config, repo *sqlite.SQLiteRepository, sender ports.MessageSender, logger *slog.Logger) *App {
	audience := services.NewAudienceResolver(repo)
	codes := services.NewShortCodeGenerator(repo, cfg.ShortCodeLength, cfg.ShortCodeAttempts, logger)
	notifier := services.NewLinkNotifier(sender, logger)

	return &App{
		Repo:     repo,
		Audience: audience,
		Provisioner: services.NewLinkProvisioner(repo, repo, repo, audience, codes, notifier, services.ProvisionerConfig{
			Scheme:  cfg.LinkScheme,
			Workers: cfg.ProvisionWorkers,
		}, logger),
		Redirects: services.NewRedirectResolver(repo, logger),
		Domains:   services.NewDomainManager(repo, logger),
		Logger:    logger,
	}
}

// Services exposes the wired use cases to the HTTP layer.
func (a *App) Services() handler.Services {
	return handler.Services{
		Provision: a.Provisioner,
		Audience:  a.Audience,
		Redirects: a.Redirects,
		Domains:   a.Domains,
	}
}

func newSender(cfg *config.Config, logger *slog.Logger) ports.MessageSender {
	if cfg.MessagingAPIKey == "" {
		logger.Info("Mock messaging enabled (no MESSAGING_API_KEY)")
		return messaging.NewLogSender(logger)
	}
	return messaging.NewBotConversaSender(cfg.MessagingEndpoint, cfg.MessagingAPIKey, cfg.MessagingTimeout, logger)
}
