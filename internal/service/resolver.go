// internal/service/resolver.go
package service

import (
	"strings"

	appErrors "github.com/adworkshq/outreach-backend/internal/errors"
	"github.com/adworkshq/outreach-backend/internal/model"
	"github.com/adworkshq/outreach-backend/internal/repository"
)

// RecipientResolver expands a campaign's declared audience into a concrete,
// deduplicated recipient list.
type RecipientResolver struct {
	Contacts repository.ContactRepositoryInterface
}

// EstimateCount computes the total_recipients figure stamped on a campaign
// at creation. For groups mode this is a membership-count estimate; the real
// enqueue always uses the exact expanded list and any discrepancy simply
// surfaces in the final counters.
func (r *RecipientResolver) EstimateCount(mode string, groupIDs []int64) (int, error) {
	switch mode {
	case model.TargetModeAll:
		return r.Contacts.CountWithPhone()
	case model.TargetModeGroups:
		if len(groupIDs) == 0 {
			return 0, appErrors.ErrEmptyAudience
		}
		return r.Contacts.CountByGroups(groupIDs)
	default:
		return 0, appErrors.NewValidation("target_mode", "must be \"all\" or \"groups\"")
	}
}

// Resolve produces the exact recipient list: contacts with a usable phone,
// deduplicated by phone. A contact in several selected groups appears once.
func (r *RecipientResolver) Resolve(mode string, groupIDs []int64) ([]model.Recipient, error) {
	var contacts []model.Contact
	var err error

	switch mode {
	case model.TargetModeAll:
		contacts, err = r.Contacts.ListWithPhone()
	case model.TargetModeGroups:
		if len(groupIDs) == 0 {
			return nil, appErrors.ErrEmptyAudience
		}
		contacts, err = r.Contacts.ListByGroups(groupIDs)
	default:
		return nil, appErrors.NewValidation("target_mode", "must be \"all\" or \"groups\"")
	}
	if err != nil {
		return nil, err
	}

	seen := map[string]bool{}
	recipients := []model.Recipient{}
	for _, c := range contacts {
		phone := strings.TrimSpace(c.Phone)
		if phone == "" || seen[phone] {
			continue
		}
		seen[phone] = true
		c.Phone = phone
		recipients = append(recipients, model.RecipientFromContact(c))
	}
	return recipients, nil
}
