package services

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wadjakorntonsri/campaign-links/pkg/core/domain"
)

func TestNormalizeHost(t *testing.T) {
	tests := map[string]string{
		"go.example.com":      "go.example.com",
		"GO.Example.com:8080": "go.example.com:8080",
		"go.example.com.":     "go.example.com",
		"Go.Example.com.:443": "go.example.com:443",
		"":                    "",
		"localhost:8080":      "localhost:8080",
	}
	for in, want := range tests {
		assert.Equal(t, want, normalizeHost(in), in)
	}
}

func TestRedirectResolver(t *testing.T) {
	f := newFixture(t)
	f.addInterest(t, "Education")
	campaign := f.addCampaign(t, "Enrollment", "Education")
	f.addUser(t, "U1", "", "Education")
	post := f.addPost(t, campaign, "https://example.com/p1")
	f.addDomain(t, "go.example.com")

	result, err := f.provisioner(newRecordingSender()).Provision(f.ctx, post, "")
	require.NoError(t, err)
	require.Len(t, result.Links, 1)
	code := result.Links[0].ShortCode

	r := NewRedirectResolver(f.repo, testLogger())

	t.Run("resolves and counts", func(t *testing.T) {
		url, err := r.Resolve(f.ctx, "go.example.com:443", code)
		require.NoError(t, err)
		assert.Equal(t, "https://example.com/p1", url)

		stats, err := f.repo.GetPostStats(f.ctx, post)
		require.NoError(t, err)
		assert.EqualValues(t, 1, stats.TotalClicks)
	})

	t.Run("unknown host falls back to code only", func(t *testing.T) {
		_, err := r.Resolve(f.ctx, "localhost:8080", code)
		require.NoError(t, err)
	})

	t.Run("unknown code", func(t *testing.T) {
		_, err := r.Resolve(f.ctx, "go.example.com", "nope")
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("empty code", func(t *testing.T) {
		_, err := r.Resolve(f.ctx, "go.example.com", "")
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("concurrent clicks are all counted", func(t *testing.T) {
		before, err := f.repo.GetPostStats(f.ctx, post)
		require.NoError(t, err)

		const clicks = 25
		var wg sync.WaitGroup
		for i := 0; i < clicks; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := r.Resolve(context.Background(), "go.example.com", code)
				assert.NoError(t, err)
			}()
		}
		wg.Wait()

		after, err := f.repo.GetPostStats(f.ctx, post)
		require.NoError(t, err)
		assert.Equal(t, before.TotalClicks+clicks, after.TotalClicks)
	})
}
