package main

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/adworkshq/outreach-backend/internal/dispatch"
	appErrors "github.com/adworkshq/outreach-backend/internal/errors"
	"github.com/adworkshq/outreach-backend/internal/model"
	"github.com/adworkshq/outreach-backend/internal/queue"
	"github.com/adworkshq/outreach-backend/internal/service"
)

// fakeBatches drains a fixed pending count in batch-sized steps and tracks
// sent totals, standing in for the dispatcher plus message store.
type fakeBatches struct {
	pending int
	sent    int
}

func (f *fakeBatches) RunBatch(campaignID int) (*dispatch.BatchResult, error) {
	n := dispatch.BatchSize
	if f.pending < n {
		n = f.pending
	}
	f.pending -= n
	f.sent += n
	return &dispatch.BatchResult{ProcessedCount: n}, nil
}

func (f *fakeBatches) CountPending(campaignID int) (int, error) {
	return f.pending, nil
}

type fakeCampaignRepo struct {
	campaign *model.Campaign
	batches  *fakeBatches
}

func (m *fakeCampaignRepo) Create(c *model.Campaign) error { return nil }
func (m *fakeCampaignRepo) GetByID(id int) (*model.Campaign, error) {
	if m.campaign == nil {
		return nil, appErrors.NewCampaignNotFound(id)
	}
	return m.campaign, nil
}
func (m *fakeCampaignRepo) ListCampaigns(offset, limit int, status string) ([]*model.Campaign, int, error) {
	return nil, 0, nil
}
func (m *fakeCampaignRepo) ListDueScheduled(now time.Time) ([]*model.Campaign, error) {
	return nil, nil
}
func (m *fakeCampaignRepo) MarkSending(campaignID int) (bool, error) { return true, nil }
func (m *fakeCampaignRepo) RevertToDraft(campaignID int, errorMessage string) error {
	return nil
}
func (m *fakeCampaignRepo) MarkCompleted(campaignID, sent, failed int) error {
	if m.campaign.Status != model.CampaignStatusSending {
		return nil // conditional update matches no rows
	}
	now := time.Now()
	m.campaign.Status = model.CampaignStatusCompleted
	m.campaign.SentCount = sent
	m.campaign.FailedCount = failed
	m.campaign.CompletedAt = &now
	return nil
}
func (m *fakeCampaignRepo) UpdateCounters(campaignID, sent, failed int) error {
	m.campaign.SentCount = sent
	m.campaign.FailedCount = failed
	return nil
}
func (m *fakeCampaignRepo) GetCampaignStats(campaignID int) (map[string]int, error) {
	return map[string]int{
		model.MessageStatusPending: m.batches.pending,
		model.MessageStatusSent:    m.batches.sent,
		model.MessageStatusFailed:  0,
	}, nil
}

func TestDrainJobDecode(t *testing.T) {
	var job queue.DrainJob
	if err := json.Unmarshal([]byte(`{"campaign_id":42}`), &job); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if job.CampaignID != 42 {
		t.Fatalf("expected campaign 42, got %d", job.CampaignID)
	}
}

func TestRunJobDrainsAndCompletesCampaign(t *testing.T) {
	batches := &fakeBatches{pending: 25}
	repo := &fakeCampaignRepo{
		campaign: &model.Campaign{ID: 7, Status: model.CampaignStatusSending, TotalRecipients: 25},
		batches:  batches,
	}

	orchestrator := &dispatch.Orchestrator{
		Batches: batches,
		Pending: batches,
		Sleep:   func(time.Duration) {},
	}
	runner := &drainRunner{
		orchestrator: orchestrator,
		campaigns:    &service.CampaignService{CampaignRepo: repo},
	}

	if err := runner.runJob(queue.DrainJob{CampaignID: 7}); err != nil {
		t.Fatalf("runJob: %v", err)
	}

	if repo.campaign.Status != model.CampaignStatusCompleted {
		t.Errorf("expected completed, got %s", repo.campaign.Status)
	}
	if repo.campaign.SentCount != 25 {
		t.Errorf("expected sent_count 25, got %d", repo.campaign.SentCount)
	}
}

func TestRunJobLeavesCampaignSendingWhenCapped(t *testing.T) {
	// More work than one drain may do: the campaign must stay in sending
	// so a later drain can resume.
	batches := &fakeBatches{pending: 600}
	repo := &fakeCampaignRepo{
		campaign: &model.Campaign{ID: 9, Status: model.CampaignStatusSending, TotalRecipients: 600},
		batches:  batches,
	}

	orchestrator := &dispatch.Orchestrator{
		Batches: batches,
		Pending: batches,
		Sleep:   func(time.Duration) {},
	}
	runner := &drainRunner{
		orchestrator: orchestrator,
		campaigns:    &service.CampaignService{CampaignRepo: repo},
	}

	if err := runner.runJob(queue.DrainJob{CampaignID: 9}); err != nil {
		t.Fatalf("runJob: %v", err)
	}

	if repo.campaign.Status != model.CampaignStatusSending {
		t.Errorf("expected campaign still sending, got %s", repo.campaign.Status)
	}
	if repo.campaign.SentCount != 500 {
		t.Errorf("expected sent_count 500 after capped drain, got %d", repo.campaign.SentCount)
	}
}
