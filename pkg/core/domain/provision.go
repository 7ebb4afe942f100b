package domain

// Outcome of provisioning one user.
type Outcome string

const (
	OutcomeCreated  Outcome = "created"
	OutcomeExisting Outcome = "existing"
	OutcomeFailed   Outcome = "failed"
)

// Delivery is the result of notifying one recipient.
type Delivery string

const (
	DeliverySent    Delivery = "sent"
	DeliverySkipped Delivery = "skipped"
	DeliveryFailed  Delivery = "failed"
)

// ProvisionResult summarizes one provisioning run for a post.
type ProvisionResult struct {
	PostID             string          `json:"post_id"`
	Domain             string          `json:"domain"`
	CreatedCount       int             `json:"created_count"`
	ExistingCount      int             `json:"existing_count"`
	FailedCount        int             `json:"failed_count"`
	NotifiedCount      int             `json:"notified_count"`
	NotifySkippedCount int             `json:"notify_skipped_count"`
	NotifyFailedCount  int             `json:"notify_failed_count"`
	Links              []ShortenedLink `json:"links"` // created and existing
}

// RegenerateResult summarizes a provisioning pass over every post.
type RegenerateResult struct {
	SuccessCount int `json:"success_count"`
	ErrorCount   int `json:"error_count"`
}
