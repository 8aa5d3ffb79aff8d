// internal/controller/webhook_controller.go
package controller

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/adworkshq/outreach-backend/internal/model"
	"github.com/adworkshq/outreach-backend/internal/repository"
	"github.com/adworkshq/outreach-backend/internal/webhook"
)

type WebhookController struct {
	Repo    repository.WebhookRepositoryInterface
	Adapter *webhook.Adapter
}

func (c *WebhookController) ListEndpoints(w http.ResponseWriter, r *http.Request) {
	endpoints, err := c.Repo.List()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"data": endpoints})
}

func (c *WebhookController) CreateEndpoint(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name    string `json:"name"`
		Channel string `json:"channel"`
		URL     string `json:"url"`
		Secret  string `json:"secret"`
		Active  bool   `json:"active"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(body.URL) == "" {
		http.Error(w, "url is required", http.StatusBadRequest)
		return
	}

	endpoint := &model.WebhookEndpoint{
		Name:    body.Name,
		Channel: body.Channel,
		URL:     body.URL,
		Secret:  body.Secret,
		Active:  body.Active,
	}
	if err := c.Repo.Create(endpoint); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, endpoint)
}

func (c *WebhookController) SetEndpointActive(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid endpoint id", http.StatusBadRequest)
		return
	}

	var body struct {
		Active bool `json:"active"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}

	if err := c.Repo.SetActive(id, body.Active); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"id": id, "active": body.Active})
}

// SelfTest posts a synthetic payload at an arbitrary URL for endpoint
// verification. A failed delivery is reported in the body; only a missing
// URL is a request error.
func (c *WebhookController) SelfTest(w http.ResponseWriter, r *http.Request) {
	var req webhook.SelfTestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}

	if strings.TrimSpace(req.WebhookURL) == "" {
		writeJSON(w, http.StatusBadRequest, webhook.SelfTestResult{
			Error: "webhook_url is required",
		})
		return
	}

	writeJSON(w, http.StatusOK, c.Adapter.SelfTest(req))
}
