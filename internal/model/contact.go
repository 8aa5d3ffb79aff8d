// internal/model/contact.go
package model

import "strings"

type Contact struct {
	ID        int    `db:"id" json:"id"`
	Phone     string `db:"phone" json:"phone"`
	FirstName string `db:"first_name" json:"first_name"`
	LastName  string `db:"last_name" json:"last_name"`
	Company   string `db:"company" json:"company"`
}

// FullName joins first and last names, skipping empty parts.
func (c *Contact) FullName() string {
	return strings.TrimSpace(strings.TrimSpace(c.FirstName) + " " + strings.TrimSpace(c.LastName))
}

type ContactGroup struct {
	ID   int    `db:"id" json:"id"`
	Name string `db:"name" json:"name"`
}

// Recipient is derived from audience expansion and never persisted on its
// own; the queued message row is its persisted form.
type Recipient struct {
	Phone string            `json:"phone"`
	Name  string            `json:"name,omitempty"`
	Vars  map[string]string `json:"-"`
}

// RecipientFromContact builds the template substitution set for one contact.
func RecipientFromContact(c Contact) Recipient {
	return Recipient{
		Phone: c.Phone,
		Name:  c.FullName(),
		Vars: map[string]string{
			"name":       c.FullName(),
			"first_name": c.FirstName,
			"last_name":  c.LastName,
			"company":    c.Company,
			"phone":      c.Phone,
		},
	}
}
