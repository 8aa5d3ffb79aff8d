package repository

import (
	"database/sql"
	"time"

	"github.com/adworkshq/outreach-backend/internal/model"
)

type QueuedMessageRepositoryInterface interface {
	// BulkEnqueue performs an idempotent insert of one pending row per
	// message; rows already present for a (campaign, phone) pair are left
	// untouched. Returns the number of rows actually inserted.
	BulkEnqueue(campaignID int, msgs []*model.QueuedMessage) (int, error)

	// ListPendingBatch returns the oldest pending messages, bounded by
	// limit. campaignID 0 means any campaign.
	ListPendingBatch(campaignID, limit int) ([]*model.QueuedMessage, error)

	MarkSent(id int) error
	MarkFailed(id int, reason string) error
	CountPending(campaignID int) (int, error)
	ListByCampaign(campaignID, offset, limit int) ([]*model.QueuedMessage, int, error)
}

type QueuedMessageRepository struct {
	DB *sql.DB
}

func (r *QueuedMessageRepository) BulkEnqueue(campaignID int, msgs []*model.QueuedMessage) (int, error) {
	// Per-row insert so a unique-index conflict skips just that row. The
	// unique index on (campaign_id, phone) is what makes re-enqueue safe.
	inserted := 0
	query := `
        INSERT INTO queued_messages (campaign_id, phone, rendered_content, status, created_at)
        VALUES ($1, $2, $3, $4, $5)
        ON CONFLICT (campaign_id, phone) DO NOTHING
    `
	now := time.Now()
	for _, msg := range msgs {
		res, err := r.DB.Exec(query, campaignID, msg.Phone, msg.RenderedContent, model.MessageStatusPending, now)
		if err != nil {
			return inserted, err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return inserted, err
		}
		if n > 0 {
			inserted++
		}
	}
	return inserted, nil
}

func (r *QueuedMessageRepository) ListPendingBatch(campaignID, limit int) ([]*model.QueuedMessage, error) {
	query := `
        SELECT id, campaign_id, phone, rendered_content, status, last_error, created_at, sent_at
        FROM queued_messages
        WHERE status=$1
    `
	args := []interface{}{model.MessageStatusPending}
	if campaignID > 0 {
		query += " AND campaign_id=$2 ORDER BY created_at, id LIMIT $3"
		args = append(args, campaignID, limit)
	} else {
		query += " ORDER BY created_at, id LIMIT $2"
		args = append(args, limit)
	}

	rows, err := r.DB.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	msgs := []*model.QueuedMessage{}
	for rows.Next() {
		var m model.QueuedMessage
		if err := rows.Scan(&m.ID, &m.CampaignID, &m.Phone, &m.RenderedContent, &m.Status, &m.LastError, &m.CreatedAt, &m.SentAt); err != nil {
			return nil, err
		}
		msgs = append(msgs, &m)
	}
	return msgs, rows.Err()
}

// MarkSent moves a message out of pending exactly once; a row that already
// left pending is never rewritten.
func (r *QueuedMessageRepository) MarkSent(id int) error {
	query := `UPDATE queued_messages SET status=$1, last_error='', sent_at=NOW() WHERE id=$2 AND status=$3`
	_, err := r.DB.Exec(query, model.MessageStatusSent, id, model.MessageStatusPending)
	return err
}

func (r *QueuedMessageRepository) MarkFailed(id int, reason string) error {
	query := `UPDATE queued_messages SET status=$1, last_error=$2 WHERE id=$3 AND status=$4`
	_, err := r.DB.Exec(query, model.MessageStatusFailed, reason, id, model.MessageStatusPending)
	return err
}

func (r *QueuedMessageRepository) CountPending(campaignID int) (int, error) {
	query := `SELECT COUNT(*) FROM queued_messages WHERE status=$1`
	args := []interface{}{model.MessageStatusPending}
	if campaignID > 0 {
		query += " AND campaign_id=$2"
		args = append(args, campaignID)
	}
	var count int
	err := r.DB.QueryRow(query, args...).Scan(&count)
	return count, err
}

func (r *QueuedMessageRepository) ListByCampaign(campaignID, offset, limit int) ([]*model.QueuedMessage, int, error) {
	query := `
        SELECT id, campaign_id, phone, rendered_content, status, last_error, created_at, sent_at
        FROM queued_messages
        WHERE campaign_id=$1
        ORDER BY id
        LIMIT $2 OFFSET $3
    `
	rows, err := r.DB.Query(query, campaignID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	msgs := []*model.QueuedMessage{}
	for rows.Next() {
		var m model.QueuedMessage
		if err := rows.Scan(&m.ID, &m.CampaignID, &m.Phone, &m.RenderedContent, &m.Status, &m.LastError, &m.CreatedAt, &m.SentAt); err != nil {
			return nil, 0, err
		}
		msgs = append(msgs, &m)
	}

	var total int
	if err := r.DB.QueryRow(`SELECT COUNT(*) FROM queued_messages WHERE campaign_id=$1`, campaignID).Scan(&total); err != nil {
		return nil, 0, err
	}

	return msgs, total, nil
}

var _ QueuedMessageRepositoryInterface = (*QueuedMessageRepository)(nil)
