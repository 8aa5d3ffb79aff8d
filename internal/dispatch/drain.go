// internal/dispatch/drain.go
package dispatch

import (
	"fmt"
	"log"
	"time"
)

// MaxDrainIterations caps one automatic drain so a stuck queue can never
// loop forever; an operator resumes with another drain.
const MaxDrainIterations = 50

// DrainCooldown separates batch iterations, independent of the per-message
// delay inside a batch.
const DrainCooldown = 3 * time.Second

type BatchRunner interface {
	RunBatch(campaignID int) (*BatchResult, error)
}

type PendingCounter interface {
	CountPending(campaignID int) (int, error)
}

// DrainOutcome distinguishes "done" from "gave up". Drained=false with
// pending remaining means the iteration cap fired and the campaign is left
// in sending for a later drain to resume.
type DrainOutcome struct {
	CampaignID     int  `json:"campaign_id,omitempty"`
	ProcessedCount int  `json:"processed_count"`
	Iterations     int  `json:"iterations"`
	Drained        bool `json:"drained"`
}

func (o *DrainOutcome) String() string {
	if o.Drained {
		return fmt.Sprintf("drained: %d processed in %d iterations", o.ProcessedCount, o.Iterations)
	}
	return fmt.Sprintf("stopped early after %d iterations: %d processed, pending remain", o.Iterations, o.ProcessedCount)
}

// Orchestrator repeatedly runs dispatch batches until the pending queue is
// empty or the iteration cap is reached.
type Orchestrator struct {
	Batches BatchRunner
	Pending PendingCounter
	Sleep   func(time.Duration)
}

func NewOrchestrator(batches BatchRunner, pending PendingCounter) *Orchestrator {
	return &Orchestrator{
		Batches: batches,
		Pending: pending,
		Sleep:   time.Sleep,
	}
}

// Drain runs up to MaxDrainIterations batches for a campaign (0 = any).
// Zero pending at invocation is a no-op success.
func (o *Orchestrator) Drain(campaignID int) (*DrainOutcome, error) {
	outcome := &DrainOutcome{CampaignID: campaignID}

	for it := 1; it <= MaxDrainIterations; it++ {
		pending, err := o.Pending.CountPending(campaignID)
		if err != nil {
			return outcome, fmt.Errorf("count pending: %w", err)
		}
		if pending == 0 {
			outcome.Drained = true
			return outcome, nil
		}

		if it > 1 {
			o.Sleep(DrainCooldown)
		}

		res, err := o.Batches.RunBatch(campaignID)
		if err != nil {
			return outcome, err
		}
		outcome.Iterations = it
		outcome.ProcessedCount += res.ProcessedCount

		if res.ProcessedCount == 0 && pending > 0 {
			// Nothing claimable despite a positive count; bail rather
			// than spin (another worker may own the remaining rows).
			log.Printf("drain for campaign %d made no progress at iteration %d", campaignID, it)
			break
		}
	}

	pending, err := o.Pending.CountPending(campaignID)
	if err != nil {
		return outcome, fmt.Errorf("count pending: %w", err)
	}
	outcome.Drained = pending == 0 && outcome.Iterations < MaxDrainIterations
	return outcome, nil
}
