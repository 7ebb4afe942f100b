package services

import (
	"context"
	"fmt"
	"sort"

	"github.com/wadjakorntonsri/campaign-links/pkg/ports"
)

type AudienceResolver struct {
	repo ports.AudienceRepository
}

func NewAudienceResolver(repo ports.AudienceRepository) *AudienceResolver {
	return &AudienceResolver{repo: repo}
}

// Resolve returns the sorted, deduplicated users declaring any of the
// campaign's interests. A campaign without interests targets nobody.
func (a *AudienceResolver) Resolve(ctx context.Context, campaignID string) ([]string, error) {
	interestIDs, err := a.repo.GetCampaignInterestIDs(ctx, campaignID)
	if err != nil {
		return nil, fmt.Errorf("campaign interests: %w", err)
	}
	if len(interestIDs) == 0 {
		return []string{}, nil
	}

	matches, err := a.repo.GetUserIDsByInterests(ctx, interestIDs)
	if err != nil {
		return nil, fmt.Errorf("user interests: %w", err)
	}

	seen := make(map[string]struct{}, len(matches))
	users := make([]string, 0, len(matches))
	for _, id := range matches {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		users = append(users, id)
	}
	sort.Strings(users)
	return users, nil
}
