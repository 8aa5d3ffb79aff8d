// internal/model/campaign.go
package model

import "time"

// Campaign statuses. A campaign only ever moves forward through these,
// except for the rollback-to-draft path when enqueue fails before any
// message is processed.
const (
	CampaignStatusDraft     = "draft"
	CampaignStatusScheduled = "scheduled"
	CampaignStatusSending   = "sending"
	CampaignStatusCompleted = "completed"
	CampaignStatusFailed    = "failed"
)

// Target modes.
const (
	TargetModeAll    = "all"
	TargetModeGroups = "groups"
)

// Per-message delay bounds (seconds).
const (
	MinDelaySeconds     = 1
	MaxDelaySeconds     = 60
	DefaultDelaySeconds = 3
)

type Campaign struct {
	ID              int        `db:"id" json:"id"`
	Name            string     `db:"name" json:"name"`
	Channel         string     `db:"channel" json:"channel"`
	Status          string     `db:"status" json:"status"`
	BaseTemplate    string     `db:"base_template" json:"base_template"`
	TargetMode      string     `db:"target_mode" json:"target_mode"`
	TargetGroups    []int64    `db:"target_groups" json:"target_groups,omitempty"`
	DelaySeconds    int        `db:"delay_seconds" json:"delay_seconds"`
	TotalRecipients int        `db:"total_recipients" json:"total_recipients"`
	SentCount       int        `db:"sent_count" json:"sent_count"`
	FailedCount     int        `db:"failed_count" json:"failed_count"`
	ScheduledAt     *time.Time `db:"scheduled_at" json:"scheduled_at,omitempty"`
	StartedAt       *time.Time `db:"started_at" json:"started_at,omitempty"`
	CompletedAt     *time.Time `db:"completed_at" json:"completed_at,omitempty"`
	ErrorMessage    string     `db:"error_message" json:"error_message,omitempty"`
	CreatedBy       string     `db:"created_by" json:"created_by,omitempty"`
	CreatedAt       time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt       *time.Time `db:"updated_at" json:"updated_at,omitempty"`
}

// ClampDelay returns the per-message delay bounded to
// [MinDelaySeconds, MaxDelaySeconds], falling back to the default when unset.
func (c *Campaign) ClampDelay() int {
	d := c.DelaySeconds
	if d == 0 {
		d = DefaultDelaySeconds
	}
	if d < MinDelaySeconds {
		d = MinDelaySeconds
	}
	if d > MaxDelaySeconds {
		d = MaxDelaySeconds
	}
	return d
}
