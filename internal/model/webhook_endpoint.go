// internal/model/webhook_endpoint.go
package model

import "time"

// WebhookEndpoint is an operator-configured outbound delivery target.
// The dispatch path only ever reads these.
type WebhookEndpoint struct {
	ID        int       `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Channel   string    `db:"channel" json:"channel"`
	URL       string    `db:"url" json:"url"`
	Secret    string    `db:"secret" json:"-"`
	Active    bool      `db:"active" json:"active"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}
