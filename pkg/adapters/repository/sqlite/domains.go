package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/wadjakorntonsri/campaign-links/pkg/core/domain"
)

const domainColumns = `id, domain, is_active, created_at, updated_at`

func scanDomain(row rowScanner) (*domain.Domain, error) {
	var d domain.Domain
	if err := row.Scan(&d.ID, &d.Hostname, &d.Active, &d.CreatedAt, &d.UpdatedAt); err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *SQLiteRepository) GetActiveDomain(ctx context.Context) (*domain.Domain, error) {
	d, err := scanDomain(r.db.QueryRowContext(ctx, `SELECT `+domainColumns+` FROM domains WHERE is_active = 1`))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return d, err
}

func (r *SQLiteRepository) GetDomain(ctx context.Context, id string) (*domain.Domain, error) {
	d, err := scanDomain(r.db.QueryRowContext(ctx, `SELECT `+domainColumns+` FROM domains WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return d, err
}

func (r *SQLiteRepository) ListDomains(ctx context.Context) ([]domain.Domain, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+domainColumns+` FROM domains ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var domains []domain.Domain
	for rows.Next() {
		d, err := scanDomain(rows)
		if err != nil {
			return nil, err
		}
		domains = append(domains, *d)
	}
	return domains, rows.Err()
}

func (r *SQLiteRepository) CreateDomain(ctx context.Context, d *domain.Domain) error {
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	d.CreatedAt, d.UpdatedAt = now, now

	err := r.insertDomain(ctx, d, `NOT EXISTS (SELECT 1 FROM domains WHERE is_active = 1)`)
	if isActiveIndexViolation(err) {
		// Another domain became active between the check and the insert.
		err = r.insertDomain(ctx, d, `0`)
	}
	if isUniqueViolation(err) {
		return fmt.Errorf("domain %s: %w", d.Hostname, domain.ErrAlreadyExists)
	}
	return err
}

// insertDomain stores d with is_active set from the SQL expression activeExpr.
func (r *SQLiteRepository) insertDomain(ctx context.Context, d *domain.Domain, activeExpr string) error {
	query := `INSERT INTO domains (` + domainColumns + `)
			  VALUES (?, ?, ` + activeExpr + `, ?, ?)
			  RETURNING is_active`

	return r.db.QueryRowContext(ctx, query, d.ID, d.Hostname, d.CreatedAt, d.UpdatedAt).Scan(&d.Active)
}

// isActiveIndexViolation reports a clash on idx_domains_single_active rather than on the hostname.
func isActiveIndexViolation(err error) bool {
	return isUniqueViolation(err) && strings.Contains(err.Error(), "domains.is_active")
}

func (r *SQLiteRepository) SetActiveDomain(ctx context.Context, id string) (*domain.Domain, error) {
	var activated *domain.Domain

	err := r.withTx(ctx, func(tx *sql.Tx) error {
		now := time.Now().UTC()

		// Deactivate first so the single-active index never sees two rows.
		if _, err := tx.ExecContext(ctx,
			`UPDATE domains SET is_active = 0, updated_at = ? WHERE is_active = 1 AND id <> ?`, now, id,
		); err != nil {
			return err
		}

		res, err := tx.ExecContext(ctx, `UPDATE domains SET is_active = 1, updated_at = ? WHERE id = ?`, now, id)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return fmt.Errorf("domain %s: %w", id, domain.ErrNotFound)
		}

		activated, err = scanDomain(tx.QueryRowContext(ctx, `SELECT `+domainColumns+` FROM domains WHERE id = ?`, id))
		return err
	})
	if err != nil {
		return nil, err
	}
	return activated, nil
}
