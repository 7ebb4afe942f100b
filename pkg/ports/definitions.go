package ports

import (
	"context"

	"github.com/wadjakorntonsri/campaign-links/pkg/core/domain"
)

// LinkRepository defines storage operations for shortened links.
// Lookups return (nil, nil) when nothing matches.
type LinkRepository interface {
	ShortCodeExists(ctx context.Context, domainID, code string) (bool, error)
	GetLinkByUserPost(ctx context.Context, userID, postID string) (*domain.ShortenedLink, error)
	// CreateLink inserts the link unless one already exists for its
	// (user, post) pair, in which case it reports created == false.
	CreateLink(ctx context.Context, link *domain.ShortenedLink) (created bool, err error)
	// IncrementClicks counts one click and returns the destination.
	// An empty or unregistered hostname matches the code under any domain.
	// hostname may carry a port; a domain registered with it wins over the bare name.
	IncrementClicks(ctx context.Context, hostname, code string) (*domain.Redirect, error)
	ListLinksByPost(ctx context.Context, postID string) ([]domain.ShortenedLink, error)
	GetPostStats(ctx context.Context, postID string) (*domain.PostStats, error)
	Dump(ctx context.Context) ([]domain.ShortenedLink, error) // For export
}

// DomainRepository defines storage operations for link domains.
type DomainRepository interface {
	GetActiveDomain(ctx context.Context) (*domain.Domain, error)
	GetDomain(ctx context.Context, id string) (*domain.Domain, error)
	ListDomains(ctx context.Context) ([]domain.Domain, error)
	// CreateDomain registers a hostname; it becomes active when no other domain is.
	CreateDomain(ctx context.Context, d *domain.Domain) error
	// SetActiveDomain activates one domain and deactivates all others atomically.
	SetActiveDomain(ctx context.Context, id string) (*domain.Domain, error)
}

// AudienceRepository reads the campaign and user interest links.
type AudienceRepository interface {
	GetCampaignInterestIDs(ctx context.Context, campaignID string) ([]string, error)
	GetUserIDsByInterests(ctx context.Context, interestIDs []string) ([]string, error)
}

// CatalogRepository reads posts and profiles owned by the admin and registration flows.
type CatalogRepository interface {
	GetPost(ctx context.Context, id string) (*domain.Post, error)
	ListPosts(ctx context.Context) ([]domain.Post, error)
	GetProfile(ctx context.Context, userID string) (*domain.Profile, error)
}

// MessageSender delivers a text message to a recipient contact.
type MessageSender interface {
	Send(ctx context.Context, recipient, message string) error
}

// CodeGenerator mints short codes unique within a domain.
type CodeGenerator interface {
	Generate(ctx context.Context, domainID string) (string, error)
}

// AudienceService resolves which users a campaign targets.
type AudienceService interface {
	Resolve(ctx context.Context, campaignID string) ([]string, error)
}

// Notifier sends the personalized link to one user.
type Notifier interface {
	Notify(ctx context.Context, contact, shortenedURL string) domain.Delivery
}

// ProvisionService defines the link distribution operations.
type ProvisionService interface {
	Provision(ctx context.Context, postID, destinationURL string) (*domain.ProvisionResult, error)
	RegenerateAll(ctx context.Context) (*domain.RegenerateResult, error)
	PostStats(ctx context.Context, postID string) (*domain.PostStats, error)
}

// RedirectService resolves short codes to their destination.
type RedirectService interface {
	Resolve(ctx context.Context, host, code string) (string, error)
}

// DomainService manages which hostname new links are minted under.
type DomainService interface {
	AddDomain(ctx context.Context, hostname string) (*domain.Domain, error)
	Activate(ctx context.Context, id string) (*domain.Domain, error)
	Active(ctx context.Context) (*domain.Domain, error)
	List(ctx context.Context) ([]domain.Domain, error)
}
