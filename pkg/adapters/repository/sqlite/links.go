package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/google/uuid"
	"github.com/wadjakorntonsri/campaign-links/pkg/core/domain"
)

const linkColumns = `id, user_id, campaign_post_id, domain_id, short_code, original_url, shortened_url, click_count, created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanLink(row rowScanner) (*domain.ShortenedLink, error) {
	var l domain.ShortenedLink
	err := row.Scan(&l.ID, &l.UserID, &l.PostID, &l.DomainID, &l.ShortCode,
		&l.OriginalURL, &l.ShortenedURL, &l.ClickCount, &l.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func (r *SQLiteRepository) ShortCodeExists(ctx context.Context, domainID, code string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM shortened_links WHERE domain_id = ? AND short_code = ?)`,
		domainID, code,
	).Scan(&exists)
	return exists, err
}

func (r *SQLiteRepository) GetLinkByUserPost(ctx context.Context, userID, postID string) (*domain.ShortenedLink, error) {
	query := `SELECT ` + linkColumns + ` FROM shortened_links WHERE user_id = ? AND campaign_post_id = ?`

	link, err := scanLink(r.db.QueryRowContext(ctx, query, userID, postID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return link, nil
}

func (r *SQLiteRepository) CreateLink(ctx context.Context, link *domain.ShortenedLink) (bool, error) {
	if link.ID == "" {
		link.ID = uuid.NewString()
	}

	query := `INSERT INTO shortened_links (` + linkColumns + `)
			  VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
			  ON CONFLICT(user_id, campaign_post_id) DO NOTHING`

	res, err := r.db.ExecContext(ctx, query,
		link.ID, link.UserID, link.PostID, link.DomainID, link.ShortCode,
		link.OriginalURL, link.ShortenedURL, link.ClickCount, link.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) && strings.Contains(err.Error(), "short_code") {
			return false, fmt.Errorf("insert link %s: %w", link.ShortCode, domain.ErrCodeTaken)
		}
		return false, err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (r *SQLiteRepository) IncrementClicks(ctx context.Context, hostname, code string) (*domain.Redirect, error) {
	var redirect *domain.Redirect

	err := r.withTx(ctx, func(tx *sql.Tx) error {
		query := `SELECT id FROM shortened_links WHERE short_code = ?`
		args := []any{code}

		if hostname != "" {
			// A domain registered with the request's port wins over the bare hostname.
			bare := hostname
			if h, _, err := net.SplitHostPort(hostname); err == nil {
				bare = h
			}
			var domainID string
			err := tx.QueryRowContext(ctx,
				`SELECT id FROM domains WHERE domain IN (?, ?) ORDER BY length(domain) DESC LIMIT 1`,
				hostname, bare,
			).Scan(&domainID)
			switch {
			case err == nil:
				query += " AND domain_id = ?"
				args = append(args, domainID)
			case err != sql.ErrNoRows:
				return err
			}
		}

		// Two rows means the code exists under several domains and the request did not say which.
		rows, err := tx.QueryContext(ctx, query+" LIMIT 2", args...)
		if err != nil {
			return err
		}
		var ids []string
		for rows.Next() {
			var id string
			if err := rows.Scan(&id); err != nil {
				rows.Close()
				return err
			}
			ids = append(ids, id)
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return err
		}
		if len(ids) != 1 {
			return domain.ErrNotFound
		}

		redirect = &domain.Redirect{LinkID: ids[0]}
		return tx.QueryRowContext(ctx,
			`UPDATE shortened_links SET click_count = click_count + 1 WHERE id = ? RETURNING original_url, click_count`,
			ids[0],
		).Scan(&redirect.OriginalURL, &redirect.ClickCount)
	})
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("increment clicks for %s: %w", code, err)
	}
	return redirect, nil
}

func (r *SQLiteRepository) ListLinksByPost(ctx context.Context, postID string) ([]domain.ShortenedLink, error) {
	query := `SELECT ` + linkColumns + ` FROM shortened_links WHERE campaign_post_id = ? ORDER BY created_at, user_id`
	return r.queryLinks(ctx, query, postID)
}

func (r *SQLiteRepository) GetPostStats(ctx context.Context, postID string) (*domain.PostStats, error) {
	stats := &domain.PostStats{PostID: postID}
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(SUM(click_count), 0) FROM shortened_links WHERE campaign_post_id = ?`,
		postID,
	).Scan(&stats.LinksCreated, &stats.TotalClicks)
	if err != nil {
		return nil, err
	}
	return stats, nil
}

func (r *SQLiteRepository) Dump(ctx context.Context) ([]domain.ShortenedLink, error) {
	return r.queryLinks(ctx, `SELECT `+linkColumns+` FROM shortened_links ORDER BY created_at`)
}

func (r *SQLiteRepository) queryLinks(ctx context.Context, query string, args ...any) ([]domain.ShortenedLink, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var links []domain.ShortenedLink
	for rows.Next() {
		l, err := scanLink(rows)
		if err != nil {
			return nil, err
		}
		links = append(links, *l)
	}
	return links, rows.Err()
}
