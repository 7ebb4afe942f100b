package services

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/wadjakorntonsri/campaign-links/pkg/adapters/repository/sqlite"
	"github.com/wadjakorntonsri/campaign-links/pkg/core/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestRepo(t *testing.T) *sqlite.SQLiteRepository {
	t.Helper()
	repo, err := sqlite.NewSQLiteRepository("file:" + uuid.NewString() + "?mode=memory&cache=shared")
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

// recordingSender captures messages instead of sending them.
type recordingSender struct {
	mu   sync.Mutex
	sent map[string]string
	fail map[string]error
}

func newRecordingSender() *recordingSender {
	return &recordingSender{sent: map[string]string{}, fail: map[string]error{}}
}

func (s *recordingSender) Send(ctx context.Context, recipient, message string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail[recipient]; err != nil {
		return err
	}
	s.sent[recipient] = message
	return nil
}

func (s *recordingSender) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sent)
}

// fixture seeds interests, a campaign, users and a domain.
type fixture struct {
	repo     *sqlite.SQLiteRepository
	ctx      context.Context
	interest map[string]string
}

func newFixture(t *testing.T) *fixture {
	return &fixture{repo: newTestRepo(t), ctx: context.Background(), interest: map[string]string{}}
}

func (f *fixture) addInterest(t *testing.T, name string) string {
	t.Helper()
	i := &domain.Interest{Name: name}
	require.NoError(t, f.repo.CreateInterest(f.ctx, i))
	f.interest[name] = i.ID
	return i.ID
}

func (f *fixture) addCampaign(t *testing.T, name string, interests ...string) string {
	t.Helper()
	c := &domain.Campaign{Name: name}
	require.NoError(t, f.repo.CreateCampaign(f.ctx, c))
	for _, in := range interests {
		require.NoError(t, f.repo.AddCampaignInterest(f.ctx, c.ID, f.interest[in]))
	}
	return c.ID
}

func (f *fixture) addUser(t *testing.T, userID, contact string, interests ...string) {
	t.Helper()
	require.NoError(t, f.repo.UpsertProfile(f.ctx, &domain.Profile{UserID: userID, Contact: contact}))
	for _, in := range interests {
		require.NoError(t, f.repo.AddUserInterest(f.ctx, userID, f.interest[in]))
	}
}

func (f *fixture) addPost(t *testing.T, campaignID, url string) string {
	t.Helper()
	p := &domain.Post{CampaignID: campaignID, URL: url}
	require.NoError(t, f.repo.CreatePost(f.ctx, p))
	return p.ID
}

func (f *fixture) addDomain(t *testing.T, host string) *domain.Domain {
	t.Helper()
	d := &domain.Domain{Hostname: host}
	require.NoError(t, f.repo.CreateDomain(f.ctx, d))
	return d
}

func (f *fixture) provisioner(sender *recordingSender) *LinkProvisioner {
	audience := NewAudienceResolver(f.repo)
	codes := NewShortCodeGenerator(f.repo, DefaultCodeLength, DefaultCodeAttempts, testLogger())
	return NewLinkProvisioner(f.repo, f.repo, f.repo, audience, codes,
		NewLinkNotifier(sender, testLogger()), ProvisionerConfig{Workers: 4}, testLogger())
}
