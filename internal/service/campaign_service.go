// internal/service/campaign_service.go
package service

import (
	"fmt"
	"log"
	"strings"
	"time"

	appErrors "github.com/adworkshq/outreach-backend/internal/errors"
	"github.com/adworkshq/outreach-backend/internal/model"
	"github.com/adworkshq/outreach-backend/internal/queue"
	"github.com/adworkshq/outreach-backend/internal/repository"
)

// CampaignService owns campaign status transitions and aggregate counters.
type CampaignService struct {
	CampaignRepo repository.CampaignRepositoryInterface
	MessageRepo  repository.QueuedMessageRepositoryInterface
	ContactRepo  repository.ContactRepositoryInterface
	Resolver     *RecipientResolver
	Queue        queue.Queue
}

type CreateCampaignInput struct {
	Name         string  `json:"name"`
	BaseTemplate string  `json:"base_template"`
	Channel      string  `json:"channel"`
	TargetMode   string  `json:"target_mode"`
	TargetGroups []int64 `json:"target_groups"`
	DelaySeconds int     `json:"delay_seconds"`
	ScheduledAt  *string `json:"scheduled_at"`
	CreatedBy    string  `json:"created_by"`
}

// EnqueueResult is the shape returned to the UI for the enqueue operation.
type EnqueueResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
}

type CampaignDetails struct {
	*model.Campaign
	Stats map[string]int `json:"stats"`
}

func (s *CampaignService) CreateCampaign(in CreateCampaignInput) (*model.Campaign, error) {
	if strings.TrimSpace(in.Name) == "" {
		return nil, appErrors.NewValidation("name", "cannot be empty")
	}
	if strings.TrimSpace(in.BaseTemplate) == "" {
		return nil, appErrors.NewValidation("base_template", "cannot be empty")
	}

	c := &model.Campaign{
		Name:         strings.TrimSpace(in.Name),
		Channel:      in.Channel,
		BaseTemplate: in.BaseTemplate,
		TargetMode:   in.TargetMode,
		TargetGroups: in.TargetGroups,
		DelaySeconds: in.DelaySeconds,
		Status:       model.CampaignStatusDraft,
		CreatedBy:    in.CreatedBy,
	}
	c.DelaySeconds = c.ClampDelay()

	// Rejects the unresolvable audiences (groups mode with no groups,
	// unknown mode) before any row exists.
	total, err := s.Resolver.EstimateCount(c.TargetMode, c.TargetGroups)
	if err != nil {
		return nil, err
	}
	c.TotalRecipients = total

	if in.ScheduledAt != nil && *in.ScheduledAt != "" {
		t, err := time.Parse(time.RFC3339, *in.ScheduledAt)
		if err != nil {
			return nil, appErrors.NewValidation("scheduled_at", "must be RFC3339")
		}
		c.ScheduledAt = &t
		if t.After(time.Now()) {
			c.Status = model.CampaignStatusScheduled
		}
	}

	if err := s.CampaignRepo.Create(c); err != nil {
		return nil, err
	}
	return c, nil
}

// EnqueueCampaign resolves the audience, flips the campaign to sending and
// creates one pending queued message per recipient, then hands the drain to
// the worker. Any setup failure after the status flip rolls the campaign
// back to draft with started_at cleared so the operator can retry cleanly.
func (s *CampaignService) EnqueueCampaign(campaignID int) (*EnqueueResult, error) {
	campaign, err := s.CampaignRepo.GetByID(campaignID)
	if err != nil {
		return nil, err
	}

	if campaign.Status != model.CampaignStatusDraft && campaign.Status != model.CampaignStatusScheduled {
		return nil, appErrors.NewInvalidCampaignState(campaignID, campaign.Status)
	}

	// Resolution failures leave the campaign untouched in draft.
	recipients, err := s.Resolver.Resolve(campaign.TargetMode, campaign.TargetGroups)
	if err != nil {
		return nil, err
	}

	// The conditional update is the guard against a concurrent dispatch:
	// whoever loses the race gets zero rows and must reject.
	ok, err := s.CampaignRepo.MarkSending(campaignID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, appErrors.NewInvalidCampaignState(campaignID, campaign.Status)
	}

	msgs := make([]*model.QueuedMessage, 0, len(recipients))
	for _, rcpt := range recipients {
		msgs = append(msgs, &model.QueuedMessage{
			CampaignID:      campaignID,
			Phone:           rcpt.Phone,
			RenderedContent: RenderTemplate(campaign.BaseTemplate, rcpt.Vars),
		})
	}

	inserted, err := s.MessageRepo.BulkEnqueue(campaignID, msgs)
	if err != nil {
		// Partial persistence must not leave the campaign sending; the
		// idempotent insert makes a retried enqueue safe.
		reason := fmt.Sprintf("enqueue failed: %v", err)
		if rbErr := s.CampaignRepo.RevertToDraft(campaignID, reason); rbErr != nil {
			log.Println("⚠️ failed to roll back campaign", campaignID, "to draft:", rbErr)
		}
		return &EnqueueResult{
			Success: false,
			Message: fmt.Sprintf("campaign %d enqueue aborted, reverted to draft", campaignID),
			Error:   reason,
		}, nil
	}

	if len(recipients) == 0 {
		// Nothing to send: the campaign completes immediately with zero
		// counters rather than idling in sending.
		if err := s.FinalizeCampaign(campaignID); err != nil {
			return nil, err
		}
		return &EnqueueResult{
			Success: true,
			Message: fmt.Sprintf("campaign %d has no recipients, marked completed", campaignID),
		}, nil
	}

	if err := s.Queue.Publish(queue.DrainTopic, queue.DrainJob{CampaignID: campaignID}); err != nil {
		// Rows are safely queued; the operator can still trigger a manual
		// process-now run.
		log.Println("⚠️ failed to publish drain job for campaign", campaignID, ":", err)
		return &EnqueueResult{
			Success: true,
			Message: fmt.Sprintf("queued %d messages for campaign %d; automatic dispatch unavailable, use process-now", inserted, campaignID),
		}, nil
	}

	return &EnqueueResult{
		Success: true,
		Message: fmt.Sprintf("queued %d messages for campaign %d", inserted, campaignID),
	}, nil
}

// FinalizeCampaign recomputes the campaign's counters from the authoritative
// queued-message rows and completes the campaign when nothing is pending.
// Safe to call after every drain, including a stopped-early or re-delivered
// one: completion only ever happens from sending, so a campaign rolled back
// to draft with leftover rows keeps its status and stays redispatchable.
func (s *CampaignService) FinalizeCampaign(campaignID int) error {
	stats, err := s.CampaignRepo.GetCampaignStats(campaignID)
	if err != nil {
		return err
	}

	sent := stats[model.MessageStatusSent]
	failed := stats[model.MessageStatusFailed]

	if err := s.CampaignRepo.UpdateCounters(campaignID, sent, failed); err != nil {
		return err
	}
	if stats[model.MessageStatusPending] == 0 {
		return s.CampaignRepo.MarkCompleted(campaignID, sent, failed)
	}
	return nil
}

// RenderPreview personalizes the campaign template against one contact for
// the authoring screen.
func (s *CampaignService) RenderPreview(campaignID, contactID int, overrideTemplate *string) (string, error) {
	campaign, err := s.CampaignRepo.GetByID(campaignID)
	if err != nil {
		return "", err
	}

	contact, err := s.ContactRepo.GetByID(contactID)
	if err != nil {
		return "", err
	}
	if contact == nil {
		return "", fmt.Errorf("contact not found")
	}

	template := campaign.BaseTemplate
	if overrideTemplate != nil && strings.TrimSpace(*overrideTemplate) != "" {
		template = *overrideTemplate
	}
	if strings.TrimSpace(template) == "" {
		return "", appErrors.NewValidation("base_template", "cannot be empty")
	}

	rcpt := model.RecipientFromContact(*contact)
	return RenderTemplate(template, rcpt.Vars), nil
}

// ListCampaigns fetches campaigns with pagination
func (s *CampaignService) ListCampaigns(page, pageSize int, status string) ([]model.Campaign, map[string]int, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	if pageSize > 100 {
		pageSize = 100
	}
	offset := (page - 1) * pageSize

	ptrs, total, err := s.CampaignRepo.ListCampaigns(offset, pageSize, status)
	if err != nil {
		return nil, nil, err
	}

	campaigns := make([]model.Campaign, len(ptrs))
	for i, c := range ptrs {
		campaigns[i] = *c
	}

	totalPages := (total + pageSize - 1) / pageSize
	pagination := map[string]int{
		"page":        page,
		"page_size":   pageSize,
		"total_count": total,
		"total_pages": totalPages,
	}

	return campaigns, pagination, nil
}

// GetCampaignDetailsWithStats returns the campaign plus the authoritative
// per-status message counts the review UI renders.
func (s *CampaignService) GetCampaignDetailsWithStats(campaignID int) (*CampaignDetails, error) {
	campaign, err := s.CampaignRepo.GetByID(campaignID)
	if err != nil {
		return nil, err
	}

	stats, err := s.CampaignRepo.GetCampaignStats(campaignID)
	if err != nil {
		return nil, err
	}
	total := 0
	for _, n := range stats {
		total += n
	}
	stats["total"] = total

	return &CampaignDetails{Campaign: campaign, Stats: stats}, nil
}
