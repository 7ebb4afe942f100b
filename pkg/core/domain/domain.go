package domain

import "time"

// Domain is a hostname links can be minted under. At most one is active.
type Domain struct {
	ID        string    `json:"id"`
	Hostname  string    `json:"domain"`
	Active    bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
