package domain

import "time"

// ShortenedLink is the personalized short link minted for one user and one post.
type ShortenedLink struct {
	ID           string    `json:"id"`
	UserID       string    `json:"user_id"`
	PostID       string    `json:"post_id"`
	DomainID     string    `json:"domain_id"`
	ShortCode    string    `json:"short_code"`
	OriginalURL  string    `json:"original_url"`
	ShortenedURL string    `json:"shortened_url"`
	ClickCount   int64     `json:"click_count"`
	CreatedAt    time.Time `json:"created_at"`
}

// Redirect is what the redirect resolver hands back after counting a click.
type Redirect struct {
	LinkID      string `json:"link_id"`
	OriginalURL string `json:"original_url"`
	ClickCount  int64  `json:"click_count"`
}

// PostStats aggregates the links of a single post.
type PostStats struct {
	PostID       string `json:"post_id"`
	LinksCreated int64  `json:"links_created"`
	TotalClicks  int64  `json:"total_clicks"`
}
