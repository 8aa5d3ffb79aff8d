package repository

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"

	appErrors "github.com/adworkshq/outreach-backend/internal/errors"
	"github.com/adworkshq/outreach-backend/internal/model"
)

type CampaignRepositoryInterface interface {
	Create(c *model.Campaign) error
	GetByID(id int) (*model.Campaign, error)
	ListCampaigns(offset, limit int, status string) ([]*model.Campaign, int, error)
	ListDueScheduled(now time.Time) ([]*model.Campaign, error)

	// Status transitions
	MarkSending(campaignID int) (bool, error)
	RevertToDraft(campaignID int, errorMessage string) error
	MarkCompleted(campaignID, sentCount, failedCount int) error
	UpdateCounters(campaignID, sentCount, failedCount int) error

	// Authoritative per-status message counts
	GetCampaignStats(campaignID int) (map[string]int, error)
}

type CampaignRepository struct {
	DB *sql.DB
}

const campaignColumns = `id, name, channel, status, base_template, target_mode, target_groups,
       delay_seconds, total_recipients, sent_count, failed_count,
       scheduled_at, started_at, completed_at, error_message, created_by, created_at, updated_at`

func scanCampaign(row interface{ Scan(...any) error }) (*model.Campaign, error) {
	var c model.Campaign
	var groups pq.Int64Array
	err := row.Scan(
		&c.ID, &c.Name, &c.Channel, &c.Status, &c.BaseTemplate, &c.TargetMode, &groups,
		&c.DelaySeconds, &c.TotalRecipients, &c.SentCount, &c.FailedCount,
		&c.ScheduledAt, &c.StartedAt, &c.CompletedAt, &c.ErrorMessage, &c.CreatedBy,
		&c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	c.TargetGroups = []int64(groups)
	return &c, nil
}

func (r *CampaignRepository) Create(c *model.Campaign) error {
	c.CreatedAt = time.Now()
	if c.Status == "" {
		c.Status = model.CampaignStatusDraft
	}
	if c.Channel == "" {
		c.Channel = "whatsapp"
	}
	query := `
        INSERT INTO campaigns
            (name, channel, status, base_template, target_mode, target_groups,
             delay_seconds, total_recipients, scheduled_at, created_by, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
        RETURNING id
    `
	return r.DB.QueryRow(query,
		c.Name, c.Channel, c.Status, c.BaseTemplate, c.TargetMode, pq.Array(c.TargetGroups),
		c.DelaySeconds, c.TotalRecipients, c.ScheduledAt, c.CreatedBy, c.CreatedAt,
	).Scan(&c.ID)
}

func (r *CampaignRepository) GetByID(id int) (*model.Campaign, error) {
	query := `SELECT ` + campaignColumns + ` FROM campaigns WHERE id=$1`
	c, err := scanCampaign(r.DB.QueryRow(query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.NewCampaignNotFound(id)
		}
		return nil, err
	}
	return c, nil
}

func (r *CampaignRepository) ListCampaigns(offset, limit int, status string) ([]*model.Campaign, int, error) {
	campaigns := []*model.Campaign{}
	query := `SELECT ` + campaignColumns + ` FROM campaigns WHERE 1=1`
	args := []interface{}{}
	argPos := 1

	if status != "" {
		query += fmt.Sprintf(" AND status=$%d", argPos)
		args = append(args, status)
		argPos++
	}

	query += fmt.Sprintf(" ORDER BY id DESC LIMIT $%d OFFSET $%d", argPos, argPos+1)
	args = append(args, limit, offset)

	rows, err := r.DB.Query(query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	for rows.Next() {
		c, err := scanCampaign(rows)
		if err != nil {
			return nil, 0, err
		}
		campaigns = append(campaigns, c)
	}

	countQuery := `SELECT COUNT(*) FROM campaigns WHERE 1=1`
	argsCount := []interface{}{}
	if status != "" {
		countQuery += " AND status=$1"
		argsCount = append(argsCount, status)
	}

	var total int
	if err := r.DB.QueryRow(countQuery, argsCount...).Scan(&total); err != nil {
		return nil, 0, err
	}

	return campaigns, total, nil
}

// ListDueScheduled returns scheduled campaigns whose send time has passed.
func (r *CampaignRepository) ListDueScheduled(now time.Time) ([]*model.Campaign, error) {
	query := `SELECT ` + campaignColumns + ` FROM campaigns
              WHERE status=$1 AND scheduled_at IS NOT NULL AND scheduled_at <= $2
              ORDER BY scheduled_at`
	rows, err := r.DB.Query(query, model.CampaignStatusScheduled, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	campaigns := []*model.Campaign{}
	for rows.Next() {
		c, err := scanCampaign(rows)
		if err != nil {
			return nil, err
		}
		campaigns = append(campaigns, c)
	}
	return campaigns, rows.Err()
}

// MarkSending flips a draft or scheduled campaign to sending and stamps
// started_at. The WHERE clause is the concurrency guard: a campaign already
// sending matches no rows and the caller must reject the dispatch.
func (r *CampaignRepository) MarkSending(campaignID int) (bool, error) {
	query := `
        UPDATE campaigns
        SET status=$1, started_at=NOW(), error_message='', updated_at=NOW()
        WHERE id=$2 AND status IN ($3, $4)
    `
	res, err := r.DB.Exec(query, model.CampaignStatusSending, campaignID,
		model.CampaignStatusDraft, model.CampaignStatusScheduled)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// RevertToDraft undoes a failed dispatch setup so the operator can retry.
// started_at is cleared; the error is kept for the review screen.
func (r *CampaignRepository) RevertToDraft(campaignID int, errorMessage string) error {
	query := `
        UPDATE campaigns
        SET status=$1, started_at=NULL, error_message=$2, updated_at=NOW()
        WHERE id=$3
    `
	_, err := r.DB.Exec(query, model.CampaignStatusDraft, errorMessage, campaignID)
	return err
}

// MarkCompleted finishes a campaign. Conditional on sending: a draft
// campaign holding leftover rows from an aborted enqueue, or a campaign
// already completed by an earlier drain, matches no rows and keeps its
// status and completed_at.
func (r *CampaignRepository) MarkCompleted(campaignID, sentCount, failedCount int) error {
	query := `
        UPDATE campaigns
        SET status=$1, sent_count=$2, failed_count=$3, completed_at=NOW(), updated_at=NOW()
        WHERE id=$4 AND status=$5
    `
	_, err := r.DB.Exec(query, model.CampaignStatusCompleted, sentCount, failedCount, campaignID,
		model.CampaignStatusSending)
	return err
}

func (r *CampaignRepository) UpdateCounters(campaignID, sentCount, failedCount int) error {
	query := `UPDATE campaigns SET sent_count=$1, failed_count=$2, updated_at=NOW() WHERE id=$3`
	_, err := r.DB.Exec(query, sentCount, failedCount, campaignID)
	return err
}

func (r *CampaignRepository) GetCampaignStats(campaignID int) (map[string]int, error) {
	query := `SELECT status, COUNT(*) FROM queued_messages WHERE campaign_id=$1 GROUP BY status`
	rows, err := r.DB.Query(query, campaignID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	stats := map[string]int{
		model.MessageStatusPending: 0,
		model.MessageStatusSent:    0,
		model.MessageStatusFailed:  0,
	}
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		stats[status] = count
	}
	return stats, rows.Err()
}

var _ CampaignRepositoryInterface = (*CampaignRepository)(nil)
