package service_test

import (
	"errors"
	"testing"

	appErrors "github.com/adworkshq/outreach-backend/internal/errors"
	"github.com/adworkshq/outreach-backend/internal/model"
	"github.com/adworkshq/outreach-backend/internal/service"
)

// mockContactRepo serves fixed contacts and group memberships.
type mockContactRepo struct {
	contacts []model.Contact
	groups   map[int64][]int // group id -> contact ids
}

func (m *mockContactRepo) GetByID(id int) (*model.Contact, error) {
	for _, c := range m.contacts {
		if c.ID == id {
			return &c, nil
		}
	}
	return nil, nil
}

func (m *mockContactRepo) ListWithPhone() ([]model.Contact, error) {
	out := []model.Contact{}
	for _, c := range m.contacts {
		if c.Phone != "" {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *mockContactRepo) ListByGroups(groupIDs []int64) ([]model.Contact, error) {
	seen := map[int]bool{}
	out := []model.Contact{}
	for _, gid := range groupIDs {
		for _, cid := range m.groups[gid] {
			if seen[cid] {
				continue
			}
			seen[cid] = true
			c, _ := m.GetByID(cid)
			if c != nil && c.Phone != "" {
				out = append(out, *c)
			}
		}
	}
	return out, nil
}

func (m *mockContactRepo) CountWithPhone() (int, error) {
	list, _ := m.ListWithPhone()
	return len(list), nil
}

func (m *mockContactRepo) CountByGroups(groupIDs []int64) (int, error) {
	// Membership count estimate, duplicates included, like the SQL count.
	total := 0
	for _, gid := range groupIDs {
		total += len(m.groups[gid])
	}
	return total, nil
}

func newResolverFixture() *service.RecipientResolver {
	repo := &mockContactRepo{
		contacts: []model.Contact{
			{ID: 1, Phone: "+254700000001", FirstName: "Alice", LastName: "Smith"},
			{ID: 2, Phone: "+254700000002", FirstName: "Bob", LastName: "Jones"},
			{ID: 3, Phone: "+254700000001", FirstName: "Alice", LastName: "Duplicate"}, // same phone as 1
			{ID: 4, Phone: "", FirstName: "Eve", LastName: "NoPhone"},
			{ID: 5, Phone: "+254700000005", FirstName: "Carol", LastName: "Mwangi"},
		},
		groups: map[int64][]int{
			10: {1, 4, 5},
			11: {2, 5},
		},
	}
	return &service.RecipientResolver{Contacts: repo}
}

func TestResolveAllDeduplicatesByPhone(t *testing.T) {
	resolver := newResolverFixture()

	recipients, err := resolver.Resolve(model.TargetModeAll, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(recipients) != 3 {
		t.Fatalf("expected 3 recipients, got %d", len(recipients))
	}
	seen := map[string]bool{}
	for _, r := range recipients {
		if r.Phone == "" {
			t.Errorf("recipient with empty phone leaked through")
		}
		if seen[r.Phone] {
			t.Errorf("duplicate phone %s in resolved set", r.Phone)
		}
		seen[r.Phone] = true
	}
}

func TestResolveGroupsUnion(t *testing.T) {
	resolver := newResolverFixture()

	// Contact 5 is in both groups, contact 4 has no phone: the union
	// resolves to contacts 1, 2 and 5.
	recipients, err := resolver.Resolve(model.TargetModeGroups, []int64{10, 11})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(recipients) != 3 {
		t.Fatalf("expected 3 recipients, got %d", len(recipients))
	}
}

func TestResolveGroupExcludesMissingPhone(t *testing.T) {
	resolver := newResolverFixture()

	// Group 10 has 3 members, one without a phone.
	recipients, err := resolver.Resolve(model.TargetModeGroups, []int64{10})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(recipients) != 2 {
		t.Fatalf("expected 2 recipients, got %d", len(recipients))
	}
}

func TestResolveGroupsEmptySetRejected(t *testing.T) {
	resolver := newResolverFixture()

	_, err := resolver.Resolve(model.TargetModeGroups, nil)
	var verr *appErrors.ErrValidation
	if !errors.As(err, &verr) {
		t.Fatalf("expected validation error, got %v", err)
	}

	if _, err := resolver.EstimateCount(model.TargetModeGroups, []int64{}); err == nil {
		t.Fatal("expected estimate to reject empty group set")
	}
}

func TestResolveUnknownModeRejected(t *testing.T) {
	resolver := newResolverFixture()

	if _, err := resolver.Resolve("everyone", nil); err == nil {
		t.Fatal("expected unknown mode to be rejected")
	}
}

func TestEstimateCountGroupsUsesMembership(t *testing.T) {
	resolver := newResolverFixture()

	// The estimate may overcount shared members; the enqueue step owns the
	// exact expansion.
	n, err := resolver.EstimateCount(model.TargetModeGroups, []int64{10, 11})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 5 {
		t.Fatalf("expected membership estimate 5, got %d", n)
	}
}
