package controller_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/adworkshq/outreach-backend/internal/controller"
	"github.com/adworkshq/outreach-backend/internal/dispatch"
	appErrors "github.com/adworkshq/outreach-backend/internal/errors"
	"github.com/adworkshq/outreach-backend/internal/model"
	"github.com/adworkshq/outreach-backend/internal/service"
	"github.com/adworkshq/outreach-backend/internal/webhook"
)

// --- Mocks ---

type mockCampaignRepo struct {
	campaign  *model.Campaign
	stats     map[string]int
	finalized bool
}

func (m *mockCampaignRepo) Create(c *model.Campaign) error { c.ID = 1; return nil }
func (m *mockCampaignRepo) GetByID(id int) (*model.Campaign, error) {
	if m.campaign == nil {
		return nil, appErrors.NewCampaignNotFound(id)
	}
	return m.campaign, nil
}
func (m *mockCampaignRepo) ListCampaigns(offset, limit int, status string) ([]*model.Campaign, int, error) {
	return []*model.Campaign{}, 0, nil
}
func (m *mockCampaignRepo) ListDueScheduled(now time.Time) ([]*model.Campaign, error) {
	return nil, nil
}
func (m *mockCampaignRepo) MarkSending(campaignID int) (bool, error) {
	now := time.Now()
	m.campaign.Status = model.CampaignStatusSending
	m.campaign.StartedAt = &now
	return true, nil
}
func (m *mockCampaignRepo) RevertToDraft(campaignID int, errorMessage string) error { return nil }
func (m *mockCampaignRepo) MarkCompleted(campaignID, sent, failed int) error {
	if m.campaign.Status != model.CampaignStatusSending {
		return nil // conditional update matches no rows
	}
	m.campaign.Status = model.CampaignStatusCompleted
	m.finalized = true
	return nil
}
func (m *mockCampaignRepo) UpdateCounters(campaignID, sent, failed int) error {
	m.finalized = true
	return nil
}
func (m *mockCampaignRepo) GetCampaignStats(campaignID int) (map[string]int, error) {
	if m.stats != nil {
		return m.stats, nil
	}
	return map[string]int{"pending": 0, "sent": 0, "failed": 0}, nil
}

type mockMessageRepo struct {
	enqueued int
}

func (m *mockMessageRepo) BulkEnqueue(campaignID int, msgs []*model.QueuedMessage) (int, error) {
	m.enqueued += len(msgs)
	return len(msgs), nil
}
func (m *mockMessageRepo) ListPendingBatch(campaignID, limit int) ([]*model.QueuedMessage, error) {
	return nil, nil
}
func (m *mockMessageRepo) MarkSent(id int) error                  { return nil }
func (m *mockMessageRepo) MarkFailed(id int, reason string) error { return nil }
func (m *mockMessageRepo) CountPending(campaignID int) (int, error) {
	return 0, nil
}
func (m *mockMessageRepo) ListByCampaign(campaignID, offset, limit int) ([]*model.QueuedMessage, int, error) {
	return []*model.QueuedMessage{}, 0, nil
}

type mockContactRepo struct{}

func (m *mockContactRepo) GetByID(id int) (*model.Contact, error) {
	return &model.Contact{ID: id, Phone: "+254700000001", FirstName: "Alice", LastName: "Smith"}, nil
}
func (m *mockContactRepo) ListWithPhone() ([]model.Contact, error) {
	return []model.Contact{{ID: 1, Phone: "+254700000001", FirstName: "Alice"}}, nil
}
func (m *mockContactRepo) ListByGroups(groupIDs []int64) ([]model.Contact, error) {
	return nil, nil
}
func (m *mockContactRepo) CountWithPhone() (int, error)                { return 1, nil }
func (m *mockContactRepo) CountByGroups(groupIDs []int64) (int, error) { return 0, nil }

type mockQueue struct{ jobs int }

func (q *mockQueue) Publish(topic string, payload any) error { q.jobs++; return nil }
func (q *mockQueue) Subscribe(topic string, handler func(payload any) error) error {
	return nil
}

type mockRunner struct {
	result *dispatch.BatchResult
}

func (m *mockRunner) RunBatch(campaignID int) (*dispatch.BatchResult, error) {
	return m.result, nil
}

func newTestController(campaign *model.Campaign) (*controller.CampaignController, *mockCampaignRepo, *mockQueue) {
	campaignRepo := &mockCampaignRepo{campaign: campaign}
	contactRepo := &mockContactRepo{}
	messageRepo := &mockMessageRepo{}
	q := &mockQueue{}

	svc := &service.CampaignService{
		CampaignRepo: campaignRepo,
		MessageRepo:  messageRepo,
		ContactRepo:  contactRepo,
		Resolver:     &service.RecipientResolver{Contacts: contactRepo},
		Queue:        q,
	}

	ctrl := &controller.CampaignController{
		CampaignService: svc,
		MessageRepo:     messageRepo,
		Dispatcher:      &mockRunner{result: &dispatch.BatchResult{Results: []dispatch.MessageResult{}}},
	}
	return ctrl, campaignRepo, q
}

func newRouter(ctrl *controller.CampaignController, hooks *controller.WebhookController) *chi.Mux {
	r := chi.NewRouter()
	r.Post("/campaigns/{id}/enqueue", ctrl.EnqueueCampaign)
	r.Post("/campaigns/{id}/personalized-preview", ctrl.PersonalizedPreview)
	r.Post("/dispatch/run", ctrl.DispatchRun)
	if hooks != nil {
		r.Post("/webhooks/test", hooks.SelfTest)
	}
	return r
}

// --- Tests ---

func TestEnqueueCampaignHandler(t *testing.T) {
	ctrl, repo, q := newTestController(&model.Campaign{
		ID:           1,
		Status:       model.CampaignStatusDraft,
		BaseTemplate: "Hi {first_name}",
		TargetMode:   model.TargetModeAll,
	})
	r := newRouter(ctrl, nil)

	req := httptest.NewRequest("POST", "/campaigns/1/enqueue", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var res service.EnqueueResult
	if err := json.NewDecoder(w.Body).Decode(&res); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !res.Success {
		t.Fatalf("expected success, got %+v", res)
	}
	if repo.campaign.Status != model.CampaignStatusSending {
		t.Errorf("expected campaign sending, got %s", repo.campaign.Status)
	}
	if q.jobs != 1 {
		t.Errorf("expected one drain job, got %d", q.jobs)
	}
}

func TestEnqueueCampaignHandlerConflictWhenSending(t *testing.T) {
	ctrl, _, _ := newTestController(&model.Campaign{
		ID:         1,
		Status:     model.CampaignStatusSending,
		TargetMode: model.TargetModeAll,
	})
	r := newRouter(ctrl, nil)

	req := httptest.NewRequest("POST", "/campaigns/1/enqueue", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", w.Code)
	}
}

func TestPersonalizedPreviewHandler(t *testing.T) {
	ctrl, _, _ := newTestController(&model.Campaign{
		ID:           1,
		Status:       model.CampaignStatusDraft,
		BaseTemplate: "Hi {first_name} {last_name}!",
		TargetMode:   model.TargetModeAll,
	})
	r := newRouter(ctrl, nil)

	body, _ := json.Marshal(map[string]interface{}{"contact_id": 1})
	req := httptest.NewRequest("POST", "/campaigns/1/personalized-preview", bytes.NewReader(body))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var res map[string]interface{}
	if err := json.NewDecoder(w.Body).Decode(&res); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	msg, _ := res["rendered_message"].(string)
	if !strings.Contains(msg, "Alice") {
		t.Errorf("expected 'Alice' in message, got %q", msg)
	}
}

func TestDispatchRunHandler(t *testing.T) {
	ctrl, repo, _ := newTestController(&model.Campaign{ID: 1, Status: model.CampaignStatusSending})
	ctrl.Dispatcher = &mockRunner{result: &dispatch.BatchResult{
		ProcessedCount: 2,
		Results: []dispatch.MessageResult{
			{MessageID: 1, CampaignID: 1, Status: model.MessageStatusSent},
			{MessageID: 2, CampaignID: 1, Status: model.MessageStatusFailed, Error: "timeout"},
		},
	}}
	r := newRouter(ctrl, nil)

	req := httptest.NewRequest("POST", "/dispatch/run", strings.NewReader(`{"campaign_id":1}`))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var res dispatch.BatchResult
	if err := json.NewDecoder(w.Body).Decode(&res); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if res.ProcessedCount != 2 {
		t.Errorf("expected processed_count 2, got %d", res.ProcessedCount)
	}
	if !repo.finalized {
		t.Error("expected campaign counters re-synced after batch")
	}
}

func TestWebhookSelfTestHandlerMissingURL(t *testing.T) {
	hooks := &controller.WebhookController{
		Adapter: webhook.NewAdapter(nil),
	}
	r := newRouter(nil, hooks)

	req := httptest.NewRequest("POST", "/webhooks/test", strings.NewReader(`{}`))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}

	var res webhook.SelfTestResult
	if err := json.NewDecoder(w.Body).Decode(&res); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if res.Success {
		t.Error("expected success=false")
	}
	if res.Error == "" {
		t.Error("expected error message in body")
	}
}
