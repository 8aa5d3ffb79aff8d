package repository

import (
	"database/sql"

	"github.com/lib/pq"

	"github.com/adworkshq/outreach-backend/internal/model"
)

// ContactRepositoryInterface defines the audience-expansion queries the
// resolver needs plus single-contact lookup for previews.
type ContactRepositoryInterface interface {
	GetByID(id int) (*model.Contact, error)
	ListWithPhone() ([]model.Contact, error)
	ListByGroups(groupIDs []int64) ([]model.Contact, error)
	CountWithPhone() (int, error)
	CountByGroups(groupIDs []int64) (int, error)
}

type ContactRepository struct {
	DB *sql.DB
}

func (r *ContactRepository) GetByID(id int) (*model.Contact, error) {
	query := `
        SELECT id, phone, first_name, last_name, company
        FROM contacts
        WHERE id = $1
    `
	row := r.DB.QueryRow(query, id)

	var c model.Contact
	if err := row.Scan(&c.ID, &c.Phone, &c.FirstName, &c.LastName, &c.Company); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // not found
		}
		return nil, err
	}
	return &c, nil
}

// ListWithPhone fetches every contact with a usable channel address.
func (r *ContactRepository) ListWithPhone() ([]model.Contact, error) {
	query := `
        SELECT id, phone, first_name, last_name, company
        FROM contacts
        WHERE phone IS NOT NULL AND phone <> ''
        ORDER BY id
    `
	return r.queryContacts(query)
}

// ListByGroups fetches the union of members across the given groups.
// DISTINCT collapses contacts that belong to more than one selected group.
func (r *ContactRepository) ListByGroups(groupIDs []int64) ([]model.Contact, error) {
	query := `
        SELECT DISTINCT c.id, c.phone, c.first_name, c.last_name, c.company
        FROM contacts c
        JOIN group_members gm ON gm.contact_id = c.id
        WHERE gm.group_id = ANY($1)
          AND c.phone IS NOT NULL AND c.phone <> ''
        ORDER BY c.id
    `
	return r.queryContacts(query, pq.Array(groupIDs))
}

func (r *ContactRepository) CountWithPhone() (int, error) {
	var count int
	err := r.DB.QueryRow(`SELECT COUNT(*) FROM contacts WHERE phone IS NOT NULL AND phone <> ''`).Scan(&count)
	return count, err
}

// CountByGroups is a membership-count estimate used only for the campaign's
// total_recipients field at creation time; the enqueue step always uses the
// exact expanded list.
func (r *ContactRepository) CountByGroups(groupIDs []int64) (int, error) {
	var count int
	err := r.DB.QueryRow(`SELECT COUNT(*) FROM group_members WHERE group_id = ANY($1)`, pq.Array(groupIDs)).Scan(&count)
	return count, err
}

func (r *ContactRepository) queryContacts(query string, args ...interface{}) ([]model.Contact, error) {
	rows, err := r.DB.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	contacts := []model.Contact{}
	for rows.Next() {
		var c model.Contact
		if err := rows.Scan(&c.ID, &c.Phone, &c.FirstName, &c.LastName, &c.Company); err != nil {
			return nil, err
		}
		contacts = append(contacts, c)
	}
	return contacts, rows.Err()
}

var _ ContactRepositoryInterface = (*ContactRepository)(nil)
