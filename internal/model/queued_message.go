// internal/model/queued_message.go
package model

import "time"

// QueuedMessage statuses. pending -> sent or pending -> failed, exactly once.
const (
	MessageStatusPending = "pending"
	MessageStatusSent    = "sent"
	MessageStatusFailed  = "failed"
)

// QueuedMessage is one unit of outbound work: exactly one row per
// (campaign, phone) pair, enforced by a unique index.
type QueuedMessage struct {
	ID              int        `db:"id" json:"id"`
	CampaignID      int        `db:"campaign_id" json:"campaign_id"`
	Phone           string     `db:"phone" json:"phone"`
	RenderedContent string     `db:"rendered_content" json:"rendered_content"`
	Status          string     `db:"status" json:"status"`
	LastError       string     `db:"last_error" json:"last_error,omitempty"`
	CreatedAt       time.Time  `db:"created_at" json:"created_at"`
	SentAt          *time.Time `db:"sent_at" json:"sent_at,omitempty"`
}
