package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/wadjakorntonsri/campaign-links/pkg/core/domain"
)

// --- Audience reads ---

func (r *SQLiteRepository) GetCampaignInterestIDs(ctx context.Context, campaignID string) ([]string, error) {
	return r.queryStrings(ctx,
		`SELECT interest_id FROM campaign_interests WHERE campaign_id = ? ORDER BY interest_id`, campaignID)
}

// GetUserIDsByInterests returns one row per (user, interest) match, so users may repeat.
func (r *SQLiteRepository) GetUserIDsByInterests(ctx context.Context, interestIDs []string) ([]string, error) {
	if len(interestIDs) == 0 {
		return nil, nil
	}

	args := make([]any, len(interestIDs))
	for i, id := range interestIDs {
		args[i] = id
	}

	query := `SELECT user_id FROM user_interests WHERE interest_id IN (` + placeholders(len(interestIDs)) + `)`
	return r.queryStrings(ctx, query, args...)
}

func (r *SQLiteRepository) queryStrings(ctx context.Context, query string, args ...any) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// --- Posts and profiles ---

func (r *SQLiteRepository) GetPost(ctx context.Context, id string) (*domain.Post, error) {
	var p domain.Post
	err := r.db.QueryRowContext(ctx,
		`SELECT id, campaign_id, post_url, post_type, created_at FROM campaign_posts WHERE id = ?`, id,
	).Scan(&p.ID, &p.CampaignID, &p.URL, &p.Type, &p.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *SQLiteRepository) ListPosts(ctx context.Context) ([]domain.Post, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, campaign_id, post_url, post_type, created_at FROM campaign_posts ORDER BY created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var posts []domain.Post
	for rows.Next() {
		var p domain.Post
		if err := rows.Scan(&p.ID, &p.CampaignID, &p.URL, &p.Type, &p.CreatedAt); err != nil {
			return nil, err
		}
		posts = append(posts, p)
	}
	return posts, rows.Err()
}

func (r *SQLiteRepository) GetProfile(ctx context.Context, userID string) (*domain.Profile, error) {
	var p domain.Profile
	var contact, first, last sql.NullString
	err := r.db.QueryRowContext(ctx,
		`SELECT user_id, whatsapp_phone, first_name, last_name FROM profiles WHERE user_id = ?`, userID,
	).Scan(&p.UserID, &contact, &first, &last)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	p.Contact, p.FirstName, p.LastName = contact.String, first.String, last.String
	return &p, nil
}

// --- Writes owned by the admin and registration flows ---

func (r *SQLiteRepository) CreateInterest(ctx context.Context, i *domain.Interest) error {
	if i.ID == "" {
		i.ID = uuid.NewString()
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO interests (id, name, description) VALUES (?, ?, ?)`, i.ID, i.Name, i.Description)
	return err
}

func (r *SQLiteRepository) CreateCampaign(ctx context.Context, c *domain.Campaign) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	c.UpdatedAt = c.CreatedAt
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO campaigns (id, name, created_at, updated_at) VALUES (?, ?, ?, ?)`,
		c.ID, c.Name, c.CreatedAt, c.UpdatedAt)
	return err
}

func (r *SQLiteRepository) AddCampaignInterest(ctx context.Context, campaignID, interestID string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO campaign_interests (campaign_id, interest_id) VALUES (?, ?)`, campaignID, interestID)
	return err
}

func (r *SQLiteRepository) CreatePost(ctx context.Context, p *domain.Post) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.Type == "" {
		p.Type = domain.PostTypeLink
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO campaign_posts (id, campaign_id, post_url, post_type, created_at) VALUES (?, ?, ?, ?, ?)`,
		p.ID, p.CampaignID, p.URL, p.Type, p.CreatedAt)
	return err
}

// DeletePost removes a post together with every link minted for it.
func (r *SQLiteRepository) DeletePost(ctx context.Context, id string) error {
	return r.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM shortened_links WHERE campaign_post_id = ?`, id); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, `DELETE FROM campaign_posts WHERE id = ?`, id)
		return err
	})
}

func (r *SQLiteRepository) UpsertProfile(ctx context.Context, p *domain.Profile) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO profiles (user_id, whatsapp_phone, first_name, last_name) VALUES (?, ?, ?, ?)
		 ON CONFLICT(user_id) DO UPDATE SET
			whatsapp_phone = excluded.whatsapp_phone,
			first_name = excluded.first_name,
			last_name = excluded.last_name`,
		p.UserID, p.Contact, p.FirstName, p.LastName)
	return err
}

func (r *SQLiteRepository) AddUserInterest(ctx context.Context, userID, interestID string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO user_interests (user_id, interest_id) VALUES (?, ?)`, userID, interestID)
	return err
}
