package sqlite

import (
	"context"
	"database/sql"
	"strings"

	_ "github.com/tursodatabase/libsql-client-go/libsql" // Turso driver
	"github.com/wadjakorntonsri/campaign-links/pkg/ports"
	_ "modernc.org/sqlite" // Local SQLite driver
)

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbURL string) (*SQLiteRepository, error) {
	driverName := "sqlite"
	if strings.Contains(dbURL, "libsql://") || strings.Contains(dbURL, "wss://") {
		driverName = "libsql"
	}

	db, err := sql.Open(driverName, dbURL)
	if err != nil {
		return nil, err
	}

	if driverName == "sqlite" {
		// One writer at a time; also keeps PRAGMAs and in-memory databases on a single connection.
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}

	if err := migrate(db); err != nil {
		db.Close()
		return nil, err
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}

func migrate(db *sql.DB) error {
	if _, err := db.Exec(`PRAGMA foreign_keys = ON`); err != nil {
		return err
	}

	query := `
	CREATE TABLE IF NOT EXISTS interests (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		description TEXT
	);

	CREATE TABLE IF NOT EXISTS campaigns (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS campaign_interests (
		campaign_id TEXT NOT NULL,
		interest_id TEXT NOT NULL,
		PRIMARY KEY (campaign_id, interest_id),
		FOREIGN KEY(campaign_id) REFERENCES campaigns(id) ON DELETE CASCADE,
		FOREIGN KEY(interest_id) REFERENCES interests(id)
	);

	CREATE TABLE IF NOT EXISTS campaign_posts (
		id TEXT PRIMARY KEY,
		campaign_id TEXT NOT NULL,
		post_url TEXT NOT NULL,
		post_type TEXT NOT NULL DEFAULT 'link',
		created_at DATETIME NOT NULL,
		FOREIGN KEY(campaign_id) REFERENCES campaigns(id) ON DELETE CASCADE
	);
	CREATE INDEX IF NOT EXISTS idx_campaign_posts_campaign ON campaign_posts(campaign_id);

	CREATE TABLE IF NOT EXISTS profiles (
		user_id TEXT PRIMARY KEY,
		whatsapp_phone TEXT,
		first_name TEXT,
		last_name TEXT
	);

	CREATE TABLE IF NOT EXISTS user_interests (
		user_id TEXT NOT NULL,
		interest_id TEXT NOT NULL,
		PRIMARY KEY (user_id, interest_id),
		FOREIGN KEY(interest_id) REFERENCES interests(id)
	);
	CREATE INDEX IF NOT EXISTS idx_user_interests_interest ON user_interests(interest_id);

	CREATE TABLE IF NOT EXISTS domains (
		id TEXT PRIMARY KEY,
		domain TEXT NOT NULL UNIQUE,
		is_active INTEGER NOT NULL DEFAULT 0,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	);
	CREATE UNIQUE INDEX IF NOT EXISTS idx_domains_single_active ON domains(is_active) WHERE is_active = 1;

	CREATE TABLE IF NOT EXISTS shortened_links (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		campaign_post_id TEXT NOT NULL,
		domain_id TEXT NOT NULL,
		short_code TEXT NOT NULL,
		original_url TEXT NOT NULL,
		shortened_url TEXT NOT NULL,
		click_count INTEGER NOT NULL DEFAULT 0 CHECK (click_count >= 0),
		created_at DATETIME NOT NULL,
		UNIQUE (user_id, campaign_post_id),
		UNIQUE (domain_id, short_code),
		FOREIGN KEY(campaign_post_id) REFERENCES campaign_posts(id) ON DELETE CASCADE,
		FOREIGN KEY(domain_id) REFERENCES domains(id)
	);
	CREATE INDEX IF NOT EXISTS idx_shortened_links_code ON shortened_links(short_code);
	CREATE INDEX IF NOT EXISTS idx_shortened_links_post ON shortened_links(campaign_post_id);
	`
	_, err := db.Exec(query)
	return err
}

// isUniqueViolation matches the constraint error text shared by sqlite and libsql.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// placeholders returns "?, ?, ?" for n arguments.
func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

func (r *SQLiteRepository) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

// Ensure interface compliance
var (
	_ ports.LinkRepository     = (*SQLiteRepository)(nil)
	_ ports.DomainRepository   = (*SQLiteRepository)(nil)
	_ ports.AudienceRepository = (*SQLiteRepository)(nil)
	_ ports.CatalogRepository  = (*SQLiteRepository)(nil)
)
