// internal/webhook/adapter.go
package webhook

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/adworkshq/outreach-backend/internal/model"
)

// DeliveryTimeout bounds a single outbound attempt so one hung endpoint
// cannot stall a whole batch.
const DeliveryTimeout = 15 * time.Second

const maxResponseBytes = 8 << 10

// EndpointSource supplies the active endpoint for a channel.
type EndpointSource interface {
	GetActiveByChannel(channel string) (*model.WebhookEndpoint, error)
}

// DeliveryResult is the tagged outcome of one send attempt. Exactly one of
// the two shapes applies: OK with StatusCode/Response, or !OK with Reason.
type DeliveryResult struct {
	OK         bool   `json:"ok"`
	StatusCode int    `json:"status,omitempty"`
	Response   string `json:"response,omitempty"`
	Reason     string `json:"reason,omitempty"`
}

// Adapter performs single outbound delivery attempts. It never retries;
// retry policy belongs to the drain loop above it.
type Adapter struct {
	Endpoints EndpointSource
	Client    *http.Client
}

func NewAdapter(endpoints EndpointSource) *Adapter {
	return &Adapter{
		Endpoints: endpoints,
		Client:    &http.Client{Timeout: DeliveryTimeout},
	}
}

type deliveryPayload struct {
	MessageRef string `json:"message_ref"`
	To         string `json:"to"`
	Message    string `json:"message"`
	Channel    string `json:"channel"`
}

// Deliver sends one rendered message to the channel's active endpoint.
// All failure modes come back as a DeliveryResult, never an error: the
// caller records them on the message row and moves on.
func (a *Adapter) Deliver(channel, to, body string) DeliveryResult {
	endpoint, err := a.Endpoints.GetActiveByChannel(channel)
	if err != nil {
		return DeliveryResult{Reason: err.Error()}
	}

	payload := deliveryPayload{
		MessageRef: uuid.NewString(),
		To:         to,
		Message:    body,
		Channel:    channel,
	}
	return a.post(endpoint.URL, endpoint.Secret, payload)
}

func (a *Adapter) post(url, secret string, payload any) DeliveryResult {
	raw, err := json.Marshal(payload)
	if err != nil {
		return DeliveryResult{Reason: "encode payload: " + err.Error()}
	}

	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(raw))
	if err != nil {
		return DeliveryResult{Reason: "build request: " + err.Error()}
	}
	req.Header.Set("Content-Type", "application/json")
	if secret != "" {
		req.Header.Set("X-Signature-256", sign(raw, secret))
	}

	resp, err := a.Client.Do(req)
	if err != nil {
		return DeliveryResult{Reason: "delivery failed: " + err.Error()}
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	result := DeliveryResult{
		StatusCode: resp.StatusCode,
		Response:   strings.TrimSpace(string(respBody)),
	}

	// A 2xx from the endpoint is the sole success signal.
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		result.OK = true
		return result
	}
	result.Reason = "endpoint returned status " + resp.Status
	return result
}

func sign(body []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}
