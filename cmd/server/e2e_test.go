package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/wadjakorntonsri/campaign-links/pkg/adapters/handler"
	"github.com/wadjakorntonsri/campaign-links/pkg/adapters/repository/sqlite"
	"github.com/wadjakorntonsri/campaign-links/pkg/app"
	"github.com/wadjakorntonsri/campaign-links/pkg/config"
	"github.com/wadjakorntonsri/campaign-links/pkg/core/domain"
)

type inbox struct {
	mu       sync.Mutex
	messages map[string]string
}

func (i *inbox) Send(ctx context.Context, recipient, message string) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.messages[recipient] = message
	return nil
}

type testEnv struct {
	server *httptest.Server
	client *http.Client
	repo   *sqlite.SQLiteRepository
	inbox  *inbox
	token  string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	cfg := &config.Config{JWTSecret: "e2e-secret", LinkScheme: "https"}
	repo, err := sqlite.NewSQLiteRepository("file:" + uuid.NewString() + "?mode=memory&cache=shared")
	if err != nil {
		t.Fatalf("Failed to init db: %v", err)
	}
	t.Cleanup(func() { repo.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	box := &inbox{messages: map[string]string{}}
	a := app.Wire(cfg, repo, box, logger)

	server := httptest.NewServer(handler.NewRouter(cfg, a.Services(), logger))
	t.Cleanup(server.Close)

	client := server.Client()
	// Don't follow redirects so the 302 can be checked
	client.CheckRedirect = func(req *http.Request, via []*http.Request) error {
		return http.ErrUseLastResponse
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, &jwt.RegisteredClaims{
		Subject:   "admin@example.com",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString([]byte(cfg.JWTSecret))
	if err != nil {
		t.Fatalf("Failed to sign token: %v", err)
	}

	return &testEnv{server: server, client: client, repo: repo, inbox: box, token: token}
}

func (e *testEnv) do(t *testing.T, method, path string, payload interface{}, out interface{}) int {
	t.Helper()

	var body io.Reader
	if payload != nil {
		b, _ := json.Marshal(payload)
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, e.server.URL+path, body)
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("Authorization", "Bearer "+e.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode %s %s: %v", method, path, err)
		}
	}
	return resp.StatusCode
}

// seedEducation stores the "Education" campaign: U1 and U2 share the interest, U3 does not.
func seedEducation(t *testing.T, repo *sqlite.SQLiteRepository) (postID string) {
	t.Helper()
	ctx := context.Background()

	must := func(err error) {
		t.Helper()
		if err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	edu := &domain.Interest{Name: "Education"}
	sports := &domain.Interest{Name: "Sports"}
	must(repo.CreateInterest(ctx, edu))
	must(repo.CreateInterest(ctx, sports))

	campaign := &domain.Campaign{Name: "Enrollment 2025"}
	must(repo.CreateCampaign(ctx, campaign))
	must(repo.AddCampaignInterest(ctx, campaign.ID, edu.ID))

	must(repo.UpsertProfile(ctx, &domain.Profile{UserID: "U1", Contact: "+5511900000001"}))
	must(repo.UpsertProfile(ctx, &domain.Profile{UserID: "U2", Contact: "+5511900000002"}))
	must(repo.UpsertProfile(ctx, &domain.Profile{UserID: "U3", Contact: "+5511900000003"}))
	must(repo.AddUserInterest(ctx, "U1", edu.ID))
	must(repo.AddUserInterest(ctx, "U2", edu.ID))
	must(repo.AddUserInterest(ctx, "U3", sports.ID))

	post := &domain.Post{CampaignID: campaign.ID, URL: "https://example.com/p1"}
	must(repo.CreatePost(ctx, post))
	return post.ID
}

type provisionResponse struct {
	Success       bool                   `json:"success"`
	Domain        string                 `json:"domain"`
	CreatedCount  int                    `json:"created_count"`
	ExistingCount int                    `json:"existing_count"`
	FailedCount   int                    `json:"failed_count"`
	NotifiedCount int                    `json:"notified_count"`
	Links         []domain.ShortenedLink `json:"links"`
	Error         string                 `json:"error"`
}

func TestIntegration(t *testing.T) {
	env := newTestEnv(t)
	postID := seedEducation(t, env.repo)

	// TEST 1: Provisioning without an active domain is rejected
	var failed provisionResponse
	if code := env.do(t, http.MethodPost, "/api/v1/provision", map[string]string{"post_id": postID}, &failed); code != http.StatusBadRequest {
		t.Fatalf("Expected 400 without active domain, got %d", code)
	}
	if failed.Error == "" {
		t.Error("Expected error message")
	}

	// TEST 2: Register a domain; the first one becomes active
	var added domain.Domain
	if code := env.do(t, http.MethodPost, "/api/v1/domains", map[string]string{"domain": "go.example.com"}, &added); code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d", code)
	}
	if !added.Active {
		t.Error("First domain should be active")
	}

	// TEST 3: Provision
	var first provisionResponse
	if code := env.do(t, http.MethodPost, "/api/v1/provision", map[string]string{
		"post_id":         postID,
		"destination_url": "https://example.com/p1",
	}, &first); code != http.StatusOK {
		t.Fatalf("Provision expected 200, got %d: %s", code, first.Error)
	}
	if !first.Success || first.CreatedCount != 2 || first.ExistingCount != 0 || first.NotifiedCount != 2 {
		t.Fatalf("Unexpected provision result: %+v", first)
	}
	if first.Domain != "go.example.com" {
		t.Errorf("Domain mismatch: %s", first.Domain)
	}

	links := map[string]domain.ShortenedLink{}
	for _, l := range first.Links {
		links[l.UserID] = l
	}
	if _, ok := links["U3"]; ok {
		t.Error("U3 does not share the campaign interest")
	}
	for _, user := range []string{"U1", "U2"} {
		l, ok := links[user]
		if !ok {
			t.Fatalf("Missing link for %s", user)
		}
		if len(l.ShortCode) != 8 {
			t.Errorf("Short code length: %q", l.ShortCode)
		}
		if l.ShortenedURL != "https://go.example.com/"+l.ShortCode {
			t.Errorf("Shortened URL mismatch: %s", l.ShortenedURL)
		}
	}
	if links["U1"].ShortCode == links["U2"].ShortCode {
		t.Error("Short codes must differ")
	}
	if len(env.inbox.messages) != 2 {
		t.Errorf("Expected 2 messages, got %d", len(env.inbox.messages))
	}
	if !bytes.Contains([]byte(env.inbox.messages["+5511900000001"]), []byte(links["U1"].ShortenedURL)) {
		t.Error("U1 message does not carry the link")
	}

	// TEST 4: Provisioning again changes nothing
	var second provisionResponse
	env.do(t, http.MethodPost, "/api/v1/provision", map[string]string{"post_id": postID}, &second)
	if second.CreatedCount != 0 || second.ExistingCount != 2 {
		t.Errorf("Expected idempotent run, got %+v", second)
	}
	for _, l := range second.Links {
		if l.ShortCode != links[l.UserID].ShortCode {
			t.Errorf("Link for %s changed", l.UserID)
		}
	}

	// TEST 5: Redirect counts clicks
	for i := 0; i < 3; i++ {
		resp, err := env.client.Get(env.server.URL + "/" + links["U1"].ShortCode)
		if err != nil {
			t.Fatal(err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusFound {
			t.Fatalf("Redirect expected 302, got %d", resp.StatusCode)
		}
		if loc := resp.Header.Get("Location"); loc != "https://example.com/p1" {
			t.Errorf("Redirect location mismatch: %s", loc)
		}
	}

	resp, err := env.client.Get(env.server.URL + "/doesnotexist")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("Unknown code expected 404, got %d", resp.StatusCode)
	}

	// TEST 6: Stats
	var stats domain.PostStats
	if code := env.do(t, http.MethodGet, "/api/v1/posts/"+postID+"/stats", nil, &stats); code != http.StatusOK {
		t.Fatalf("Stats expected 200, got %d", code)
	}
	if stats.LinksCreated != 2 || stats.TotalClicks != 3 {
		t.Errorf("Unexpected stats: %+v", stats)
	}

	// TEST 7: Export (Dump)
	dump, err := env.repo.Dump(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(dump) != 2 {
		t.Errorf("Expected 2 links in dump, got %d", len(dump))
	}
}

func TestDomainSwitch(t *testing.T) {
	env := newTestEnv(t)
	postID := seedEducation(t, env.repo)

	var a, b domain.Domain
	env.do(t, http.MethodPost, "/api/v1/domains", map[string]string{"domain": "a.example.com"}, &a)
	env.do(t, http.MethodPost, "/api/v1/domains", map[string]string{"domain": "b.example.com"}, &b)
	if b.Active {
		t.Fatal("Second domain must not activate itself")
	}

	var first provisionResponse
	env.do(t, http.MethodPost, "/api/v1/provision", map[string]string{"post_id": postID}, &first)

	var activated domain.Domain
	if code := env.do(t, http.MethodPut, "/api/v1/domains/"+b.ID+"/activate", nil, &activated); code != http.StatusOK {
		t.Fatalf("Activate expected 200, got %d", code)
	}

	var active domain.Domain
	env.do(t, http.MethodGet, "/api/v1/domains/active", nil, &active)
	if active.ID != b.ID {
		t.Errorf("Active domain mismatch: %s", active.Hostname)
	}

	var domains []domain.Domain
	env.do(t, http.MethodGet, "/api/v1/domains", nil, &domains)
	activeCount := 0
	for _, d := range domains {
		if d.Active {
			activeCount++
		}
	}
	if activeCount != 1 {
		t.Errorf("Expected exactly one active domain, got %d", activeCount)
	}

	// Existing links keep their original domain
	var second provisionResponse
	env.do(t, http.MethodPost, "/api/v1/provision", map[string]string{"post_id": postID}, &second)
	if second.Domain != "b.example.com" || second.ExistingCount != 2 {
		t.Errorf("Unexpected result after switch: %+v", second)
	}
	for _, l := range second.Links {
		if l.DomainID != a.ID {
			t.Errorf("Link for %s moved to domain %s", l.UserID, l.DomainID)
		}
	}

	if code := env.do(t, http.MethodPut, "/api/v1/domains/missing/activate", nil, nil); code != http.StatusNotFound {
		t.Errorf("Unknown domain expected 404, got %d", code)
	}
}

func TestAdminAPIRequiresToken(t *testing.T) {
	env := newTestEnv(t)

	resp, err := env.client.Post(env.server.URL+"/api/v1/provision", "application/json", bytes.NewBufferString(`{"post_id":"x"}`))
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("Expected 401, got %d", resp.StatusCode)
	}
}
