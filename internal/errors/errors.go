// internal/errors/errors.go
package appErrors

import "fmt"

// ErrCampaignNotFound is a sentinel error
type ErrCampaignNotFound struct {
	CampaignID int
}

func (e *ErrCampaignNotFound) Error() string {
	return fmt.Sprintf("campaign with ID %d not found", e.CampaignID)
}

// Helper constructor
func NewCampaignNotFound(id int) error {
	return &ErrCampaignNotFound{CampaignID: id}
}

// ErrInvalidCampaignState rejects a dispatch request against a campaign
// whose status does not allow it (e.g. a second dispatch while sending).
type ErrInvalidCampaignState struct {
	CampaignID int
	Status     string
}

func (e *ErrInvalidCampaignState) Error() string {
	return fmt.Sprintf("campaign %d cannot be dispatched in status %q", e.CampaignID, e.Status)
}

func NewInvalidCampaignState(id int, status string) error {
	return &ErrInvalidCampaignState{CampaignID: id, Status: status}
}

// ErrValidation covers bad operator input rejected before any state change.
type ErrValidation struct {
	Field  string
	Reason string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func NewValidation(field, reason string) error {
	return &ErrValidation{Field: field, Reason: reason}
}

// ErrEmptyAudience is a validation failure: the campaign's audience cannot
// resolve to anyone.
var ErrEmptyAudience = NewValidation("target_groups", "groups mode requires at least one group")

// ErrNoActiveEndpoint means no active webhook endpoint exists for a channel.
type ErrNoActiveEndpoint struct {
	Channel string
}

func (e *ErrNoActiveEndpoint) Error() string {
	return fmt.Sprintf("no active webhook endpoint configured for channel %q", e.Channel)
}
