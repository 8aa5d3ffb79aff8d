package repository

import (
	"database/sql"
	"time"

	appErrors "github.com/adworkshq/outreach-backend/internal/errors"
	"github.com/adworkshq/outreach-backend/internal/model"
)

type WebhookRepositoryInterface interface {
	GetActiveByChannel(channel string) (*model.WebhookEndpoint, error)
	List() ([]model.WebhookEndpoint, error)
	Create(e *model.WebhookEndpoint) error
	SetActive(id int, active bool) error
}

type WebhookRepository struct {
	DB *sql.DB
}

// GetActiveByChannel picks the delivery endpoint for a channel. The ordering
// makes the pick deterministic when several endpoints are active: most
// recently updated wins, id breaks ties.
func (r *WebhookRepository) GetActiveByChannel(channel string) (*model.WebhookEndpoint, error) {
	query := `
        SELECT id, name, channel, url, secret, active, created_at, updated_at
        FROM webhook_endpoints
        WHERE active = TRUE AND channel = $1
        ORDER BY updated_at DESC, id DESC
        LIMIT 1
    `
	var e model.WebhookEndpoint
	err := r.DB.QueryRow(query, channel).Scan(
		&e.ID, &e.Name, &e.Channel, &e.URL, &e.Secret, &e.Active, &e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, &appErrors.ErrNoActiveEndpoint{Channel: channel}
		}
		return nil, err
	}
	return &e, nil
}

func (r *WebhookRepository) List() ([]model.WebhookEndpoint, error) {
	query := `
        SELECT id, name, channel, url, secret, active, created_at, updated_at
        FROM webhook_endpoints
        ORDER BY id
    `
	rows, err := r.DB.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	endpoints := []model.WebhookEndpoint{}
	for rows.Next() {
		var e model.WebhookEndpoint
		if err := rows.Scan(&e.ID, &e.Name, &e.Channel, &e.URL, &e.Secret, &e.Active, &e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, err
		}
		endpoints = append(endpoints, e)
	}
	return endpoints, rows.Err()
}

func (r *WebhookRepository) Create(e *model.WebhookEndpoint) error {
	now := time.Now()
	e.CreatedAt = now
	e.UpdatedAt = now
	if e.Channel == "" {
		e.Channel = "whatsapp"
	}
	query := `
        INSERT INTO webhook_endpoints (name, channel, url, secret, active, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
        RETURNING id
    `
	return r.DB.QueryRow(query, e.Name, e.Channel, e.URL, e.Secret, e.Active, e.CreatedAt, e.UpdatedAt).Scan(&e.ID)
}

func (r *WebhookRepository) SetActive(id int, active bool) error {
	query := `UPDATE webhook_endpoints SET active=$1, updated_at=NOW() WHERE id=$2`
	_, err := r.DB.Exec(query, active, id)
	return err
}

var _ WebhookRepositoryInterface = (*WebhookRepository)(nil)
