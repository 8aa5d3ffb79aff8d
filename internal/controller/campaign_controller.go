// internal/controller/campaign_controller.go
package controller

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/adworkshq/outreach-backend/internal/dispatch"
	appErrors "github.com/adworkshq/outreach-backend/internal/errors"
	"github.com/adworkshq/outreach-backend/internal/repository"
	"github.com/adworkshq/outreach-backend/internal/service"
)

type CampaignController struct {
	CampaignService *service.CampaignService
	MessageRepo     repository.QueuedMessageRepositoryInterface
	Dispatcher      dispatch.BatchRunner
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError maps the service error taxonomy onto HTTP statuses.
func writeError(w http.ResponseWriter, err error) {
	var validation *appErrors.ErrValidation
	var notFound *appErrors.ErrCampaignNotFound
	var invalidState *appErrors.ErrInvalidCampaignState

	status := http.StatusInternalServerError
	switch {
	case errors.As(err, &validation):
		status = http.StatusBadRequest
	case errors.As(err, &notFound):
		status = http.StatusNotFound
	case errors.As(err, &invalidState):
		status = http.StatusConflict
	}
	writeJSON(w, status, map[string]interface{}{
		"success": false,
		"error":   err.Error(),
	})
}

func (c *CampaignController) CreateCampaign(w http.ResponseWriter, r *http.Request) {
	var in service.CreateCampaignInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}

	campaign, err := c.CampaignService.CreateCampaign(in)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, campaign)
}

func (c *CampaignController) ListCampaigns(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	pageSize, _ := strconv.Atoi(r.URL.Query().Get("page_size"))
	status := r.URL.Query().Get("status")

	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}

	campaigns, pagination, err := c.CampaignService.ListCampaigns(page, pageSize, status)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"data":       campaigns,
		"pagination": pagination,
	})
}

func (c *CampaignController) GetCampaignDetails(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid campaign id", http.StatusBadRequest)
		return
	}

	details, err := c.CampaignService.GetCampaignDetailsWithStats(id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, details)
}

// EnqueueCampaign is the dispatch entry point: resolve, mark sending,
// enqueue, hand the drain to the worker.
func (c *CampaignController) EnqueueCampaign(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid campaign id", http.StatusBadRequest)
		return
	}

	result, err := c.CampaignService.EnqueueCampaign(id)
	if err != nil {
		writeError(w, err)
		return
	}

	status := http.StatusOK
	if !result.Success {
		status = http.StatusUnprocessableEntity
	}
	writeJSON(w, status, result)
}

func (c *CampaignController) PersonalizedPreview(w http.ResponseWriter, r *http.Request) {
	campaignID, _ := strconv.Atoi(chi.URLParam(r, "id"))

	var body struct {
		ContactID        int     `json:"contact_id"`
		OverrideTemplate *string `json:"override_template"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}

	rendered, err := c.CampaignService.RenderPreview(campaignID, body.ContactID, body.OverrideTemplate)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"rendered_message": rendered,
		"contact_id":       body.ContactID,
	})
}

func (c *CampaignController) ListMessages(w http.ResponseWriter, r *http.Request) {
	campaignID, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid campaign id", http.StatusBadRequest)
		return
	}

	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	pageSize, _ := strconv.Atoi(r.URL.Query().Get("page_size"))
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 200 {
		pageSize = 50
	}

	msgs, total, err := c.MessageRepo.ListByCampaign(campaignID, (page-1)*pageSize, pageSize)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"data":        msgs,
		"total_count": total,
	})
}

// DispatchRun is the operator "process now" action: one batch, optionally
// scoped to a campaign. Counters are re-synced after the batch.
func (c *CampaignController) DispatchRun(w http.ResponseWriter, r *http.Request) {
	var body struct {
		CampaignID int `json:"campaign_id"`
	}
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, "invalid body", http.StatusBadRequest)
			return
		}
	}

	result, err := c.Dispatcher.RunBatch(body.CampaignID)
	if err != nil {
		writeError(w, err)
		return
	}

	touched := map[int]bool{}
	for _, mr := range result.Results {
		touched[mr.CampaignID] = true
	}
	for campaignID := range touched {
		if err := c.CampaignService.FinalizeCampaign(campaignID); err != nil {
			writeError(w, err)
			return
		}
	}

	writeJSON(w, http.StatusOK, result)
}
