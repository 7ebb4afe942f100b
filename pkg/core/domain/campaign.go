package domain

import (
	"strings"
	"time"
)

// Interest is a tag used to match users to campaigns.
type Interest struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// Campaign groups posts and the interests they target.
type Campaign struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Post types accepted by the admin screens.
const (
	PostTypeLink  = "link"
	PostTypeImage = "image"
	PostTypeVideo = "video"
)

// Post is a single piece of content published against a campaign.
type Post struct {
	ID         string    `json:"id"`
	CampaignID string    `json:"campaign_id"`
	URL        string    `json:"url"`
	Type       string    `json:"type"`
	CreatedAt  time.Time `json:"created_at"`
}

// Profile ties an external identity to a messaging contact.
type Profile struct {
	UserID    string `json:"user_id"`
	Contact   string `json:"contact"` // WhatsApp phone, may be empty
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
}

// MaskContact hides all but the last four characters of a contact for logging.
func MaskContact(contact string) string {
	const visible = 4
	if len(contact) <= visible {
		return strings.Repeat("*", len(contact))
	}
	return strings.Repeat("*", len(contact)-visible) + contact[len(contact)-visible:]
}
