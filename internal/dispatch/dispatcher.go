// internal/dispatch/dispatcher.go
package dispatch

import (
	"fmt"
	"log"
	"time"

	"github.com/adworkshq/outreach-backend/internal/model"
	"github.com/adworkshq/outreach-backend/internal/webhook"
)

// BatchSize is the fixed pending-message budget per dispatcher invocation.
const BatchSize = 10

// MessageStore is the slice of the queue repository the dispatcher needs.
// Row status is the coordination mechanism: a message is claimed by being
// read as pending and never re-claimed once its status moves on.
type MessageStore interface {
	ListPendingBatch(campaignID, limit int) ([]*model.QueuedMessage, error)
	MarkSent(id int) error
	MarkFailed(id int, reason string) error
}

type CampaignStore interface {
	GetByID(id int) (*model.Campaign, error)
}

type Deliverer interface {
	Deliver(channel, to, body string) webhook.DeliveryResult
}

type MessageResult struct {
	MessageID  int    `json:"message_id"`
	CampaignID int    `json:"campaign_id"`
	Phone      string `json:"phone"`
	Status     string `json:"status"`
	Error      string `json:"error,omitempty"`
}

type BatchResult struct {
	ProcessedCount int             `json:"processed_count"`
	Results        []MessageResult `json:"results"`
}

// Dispatcher drains one bounded batch per call. Sleep is injectable so
// pacing can be asserted in tests without wall-clock waits.
type Dispatcher struct {
	Messages  MessageStore
	Campaigns CampaignStore
	Delivery  Deliverer
	Sleep     func(time.Duration)
}

func NewDispatcher(messages MessageStore, campaigns CampaignStore, delivery Deliverer) *Dispatcher {
	return &Dispatcher{
		Messages:  messages,
		Campaigns: campaigns,
		Delivery:  delivery,
		Sleep:     time.Sleep,
	}
}

// RunBatch processes up to BatchSize oldest pending messages, oldest first.
// campaignID 0 means any campaign. Each message's outcome is written before
// the next send starts, and the configured per-campaign delay is enforced
// between consecutive sends, including after a failed one. Only queue
// read/write failures come back as errors; delivery failures are message
// state.
func (d *Dispatcher) RunBatch(campaignID int) (*BatchResult, error) {
	msgs, err := d.Messages.ListPendingBatch(campaignID, BatchSize)
	if err != nil {
		return nil, fmt.Errorf("list pending batch: %w", err)
	}

	result := &BatchResult{Results: []MessageResult{}}
	campaigns := map[int]*model.Campaign{}

	for i, msg := range msgs {
		campaign, ok := campaigns[msg.CampaignID]
		if !ok {
			campaign, err = d.Campaigns.GetByID(msg.CampaignID)
			if err != nil {
				return result, fmt.Errorf("load campaign %d: %w", msg.CampaignID, err)
			}
			campaigns[msg.CampaignID] = campaign
		}

		if i > 0 {
			d.Sleep(time.Duration(campaign.ClampDelay()) * time.Second)
		}

		res := d.Delivery.Deliver(campaign.Channel, msg.Phone, msg.RenderedContent)

		mr := MessageResult{
			MessageID:  msg.ID,
			CampaignID: msg.CampaignID,
			Phone:      msg.Phone,
		}
		if res.OK {
			if err := d.Messages.MarkSent(msg.ID); err != nil {
				return result, fmt.Errorf("mark message %d sent: %w", msg.ID, err)
			}
			mr.Status = model.MessageStatusSent
		} else {
			if err := d.Messages.MarkFailed(msg.ID, res.Reason); err != nil {
				return result, fmt.Errorf("mark message %d failed: %w", msg.ID, err)
			}
			mr.Status = model.MessageStatusFailed
			mr.Error = res.Reason
			log.Printf("⚠️ delivery failed for message %d (%s): %s", msg.ID, msg.Phone, res.Reason)
		}

		result.Results = append(result.Results, mr)
		result.ProcessedCount++
	}

	return result, nil
}
