// internal/webhook/selftest.go
package webhook

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// SelfTestRequest is the operator-side endpoint verification input. It never
// touches campaign state.
type SelfTestRequest struct {
	WebhookURL string          `json:"webhook_url"`
	Event      string          `json:"event,omitempty"`
	TestData   json.RawMessage `json:"test_data,omitempty"`
}

type SelfTestResult struct {
	Success  bool   `json:"success"`
	Status   int    `json:"status,omitempty"`
	Response string `json:"response,omitempty"`
	Error    string `json:"error,omitempty"`
}

type selfTestPayload struct {
	Event    string          `json:"event"`
	EventID  string          `json:"event_id"`
	SentAt   time.Time       `json:"sent_at"`
	Test     bool            `json:"test"`
	TestData json.RawMessage `json:"test_data,omitempty"`
}

// SelfTest performs one POST against an arbitrary URL and reports the raw
// outcome. Delivery failure is reported in the result, not as an error.
func (a *Adapter) SelfTest(req SelfTestRequest) SelfTestResult {
	if req.WebhookURL == "" {
		return SelfTestResult{Error: "webhook_url is required"}
	}

	event := req.Event
	if event == "" {
		event = "webhook.test"
	}
	payload := selfTestPayload{
		Event:    event,
		EventID:  uuid.NewString(),
		SentAt:   time.Now().UTC(),
		Test:     true,
		TestData: req.TestData,
	}

	res := a.post(req.WebhookURL, "", payload)
	out := SelfTestResult{
		Success:  res.OK,
		Status:   res.StatusCode,
		Response: res.Response,
	}
	if !res.OK {
		out.Error = res.Reason
	}
	return out
}
