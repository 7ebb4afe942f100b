package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/codeGROOVE-dev/retry"
	"golang.org/x/sync/errgroup"

	"github.com/wadjakorntonsri/campaign-links/pkg/core/domain"
	"github.com/wadjakorntonsri/campaign-links/pkg/ports"
)

const (
	DefaultWorkers        = 8
	DefaultInsertAttempts = 3
)

// ProvisionerConfig tunes link provisioning.
type ProvisionerConfig struct {
	Scheme         string // scheme of composed short URLs, "https" by default
	Workers        int    // concurrent users per batch
	InsertAttempts int    // inserts tried when a freshly drawn code loses a race
}

// LinkProvisioner mints one personalized link per targeted user and notifies them.
type LinkProvisioner struct {
	links    ports.LinkRepository
	domains  ports.DomainRepository
	catalog  ports.CatalogRepository
	audience ports.AudienceService
	codes    ports.CodeGenerator
	notifier ports.Notifier
	cfg      ProvisionerConfig
	logger   *slog.Logger
}

func NewLinkProvisioner(
	links ports.LinkRepository,
	domains ports.DomainRepository,
	catalog ports.CatalogRepository,
	audience ports.AudienceService,
	codes ports.CodeGenerator,
	notifier ports.Notifier,
	cfg ProvisionerConfig,
	logger *slog.Logger,
) *LinkProvisioner {
	if cfg.Scheme == "" {
		cfg.Scheme = "https"
	}
	if cfg.Workers < 1 {
		cfg.Workers = DefaultWorkers
	}
	if cfg.InsertAttempts < 1 {
		cfg.InsertAttempts = DefaultInsertAttempts
	}
	return &LinkProvisioner{
		links:    links,
		domains:  domains,
		catalog:  catalog,
		audience: audience,
		codes:    codes,
		notifier: notifier,
		cfg:      cfg,
		logger:   logger,
	}
}

// userResult is what one per-user task hands back to the reduction.
type userResult struct {
	userID  string
	outcome domain.Outcome
	link    *domain.ShortenedLink
	contact string
	err     error
}

// Provision creates the missing links for a post's audience. Only a missing
// active domain, an unknown post or a failed audience read abort the batch;
// per-user failures are counted in the result.
func (p *LinkProvisioner) Provision(ctx context.Context, postID, destinationURL string) (*domain.ProvisionResult, error) {
	active, err := p.domains.GetActiveDomain(ctx)
	if err != nil {
		return nil, fmt.Errorf("active domain: %w", err)
	}
	if active == nil {
		return nil, domain.ErrNoActiveDomain
	}

	post, err := p.catalog.GetPost(ctx, postID)
	if err != nil {
		return nil, fmt.Errorf("load post: %w", err)
	}
	if post == nil {
		return nil, fmt.Errorf("post %s: %w", postID, domain.ErrNotFound)
	}

	dest, err := destinationFor(post, destinationURL)
	if err != nil {
		return nil, err
	}

	users, err := p.audience.Resolve(ctx, post.CampaignID)
	if err != nil {
		return nil, fmt.Errorf("resolve audience: %w", err)
	}

	p.logger.Info("Provisioning links",
		"post_id", post.ID,
		"campaign_id", post.CampaignID,
		"domain", active.Hostname,
		"users", len(users))

	results := make([]userResult, len(users))
	var g errgroup.Group
	g.SetLimit(p.cfg.Workers)
	for i, userID := range users {
		g.Go(func() error {
			results[i] = p.provisionUser(ctx, active, post, dest, userID)
			return nil
		})
	}
	_ = g.Wait() // tasks report through results

	result := &domain.ProvisionResult{
		PostID: post.ID,
		Domain: active.Hostname,
		Links:  make([]domain.ShortenedLink, 0, len(users)),
	}
	var created []userResult
	for _, r := range results {
		switch r.outcome {
		case domain.OutcomeCreated:
			result.CreatedCount++
			result.Links = append(result.Links, *r.link)
			created = append(created, r)
		case domain.OutcomeExisting:
			result.ExistingCount++
			result.Links = append(result.Links, *r.link)
		default:
			result.FailedCount++
			p.logger.Warn("Provisioning failed for user", "post_id", post.ID, "user_id", r.userID, "error", r.err)
		}
	}

	deliveries := p.notifyAll(ctx, created)
	for _, d := range deliveries {
		switch d {
		case domain.DeliverySent:
			result.NotifiedCount++
		case domain.DeliverySkipped:
			result.NotifySkippedCount++
		default:
			result.NotifyFailedCount++
		}
	}

	p.logger.Info("Provisioning completed",
		"post_id", post.ID,
		"created", result.CreatedCount,
		"existing", result.ExistingCount,
		"failed", result.FailedCount,
		"notified", result.NotifiedCount,
		"notify_skipped", result.NotifySkippedCount,
		"notify_failed", result.NotifyFailedCount)

	return result, nil
}

func (p *LinkProvisioner) provisionUser(ctx context.Context, active *domain.Domain, post *domain.Post, dest, userID string) userResult {
	res := userResult{userID: userID, outcome: domain.OutcomeFailed}

	existing, err := p.links.GetLinkByUserPost(ctx, userID, post.ID)
	if err != nil {
		res.err = fmt.Errorf("lookup existing link: %w", err)
		return res
	}
	if existing != nil {
		res.outcome, res.link = domain.OutcomeExisting, existing
		return res
	}

	profile, err := p.catalog.GetProfile(ctx, userID)
	if err != nil {
		res.err = fmt.Errorf("load profile: %w", err)
		return res
	}
	if profile == nil {
		res.err = fmt.Errorf("profile %s: %w", userID, domain.ErrNotFound)
		return res
	}

	var (
		link    *domain.ShortenedLink
		created bool
		lastErr error
	)
	err = retry.Do(
		func() error {
			code, err := p.codes.Generate(ctx, active.ID)
			if err != nil {
				lastErr = err
				return err
			}
			link = &domain.ShortenedLink{
				UserID:       userID,
				PostID:       post.ID,
				DomainID:     active.ID,
				ShortCode:    code,
				OriginalURL:  dest,
				ShortenedURL: fmt.Sprintf("%s://%s/%s", p.cfg.Scheme, active.Hostname, code),
				CreatedAt:    time.Now().UTC(),
			}
			created, lastErr = p.links.CreateLink(ctx, link)
			return lastErr
		},
		retry.Attempts(uint(p.cfg.InsertAttempts)),
		retry.Delay(10*time.Millisecond),
		retry.Context(ctx),
		retry.RetryIf(func(err error) bool {
			return errors.Is(err, domain.ErrCodeTaken)
		}),
		retry.OnRetry(func(n uint, err error) {
			p.logger.Debug("Retrying link insert with a new code", "user_id", userID, "attempt", n, "error", err)
		}),
	)
	if err != nil {
		if lastErr == nil {
			lastErr = err
		}
		res.err = fmt.Errorf("create link: %w", lastErr)
		return res
	}

	if !created {
		// A concurrent run inserted the (user, post) link first.
		existing, err := p.links.GetLinkByUserPost(ctx, userID, post.ID)
		if err != nil || existing == nil {
			res.err = fmt.Errorf("reload raced link: %w", errors.Join(err, domain.ErrNotFound))
			return res
		}
		res.outcome, res.link = domain.OutcomeExisting, existing
		return res
	}

	res.outcome, res.link, res.contact = domain.OutcomeCreated, link, profile.Contact
	return res
}

func (p *LinkProvisioner) notifyAll(ctx context.Context, created []userResult) []domain.Delivery {
	deliveries := make([]domain.Delivery, len(created))
	var g errgroup.Group
	g.SetLimit(p.cfg.Workers)
	for i, r := range created {
		g.Go(func() error {
			deliveries[i] = p.notifier.Notify(ctx, r.contact, r.link.ShortenedURL)
			return nil
		})
	}
	_ = g.Wait()
	return deliveries
}

// RegenerateAll runs provisioning for every post. Existing links are kept,
// so this only fills the gaps left by earlier failures or new audience members.
func (p *LinkProvisioner) RegenerateAll(ctx context.Context) (*domain.RegenerateResult, error) {
	posts, err := p.catalog.ListPosts(ctx)
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}

	result := &domain.RegenerateResult{}
	for _, post := range posts {
		if _, err := p.Provision(ctx, post.ID, post.URL); err != nil {
			if errors.Is(err, domain.ErrNoActiveDomain) {
				return nil, err
			}
			p.logger.Warn("Regenerate failed for post", "post_id", post.ID, "error", err)
			result.ErrorCount++
			continue
		}
		result.SuccessCount++
	}
	return result, nil
}

// PostStats reports how many links a post has and how often they were clicked.
func (p *LinkProvisioner) PostStats(ctx context.Context, postID string) (*domain.PostStats, error) {
	post, err := p.catalog.GetPost(ctx, postID)
	if err != nil {
		return nil, err
	}
	if post == nil {
		return nil, fmt.Errorf("post %s: %w", postID, domain.ErrNotFound)
	}
	return p.links.GetPostStats(ctx, postID)
}

func destinationFor(post *domain.Post, destinationURL string) (string, error) {
	if destinationURL == "" {
		destinationURL = post.URL
	}
	u, err := url.ParseRequestURI(destinationURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", fmt.Errorf("%q: %w", destinationURL, domain.ErrInvalidURL)
	}
	return destinationURL, nil
}
