package account

import (
	"fmt"

	"github.com/google/uuid"
)

// Registry indexes one user's accounts by slug and id.
// Archived accounts are indexed but never resolved.
type Registry struct {
	userID uuid.UUID
	bySlug map[string]*Account
	byID   map[uuid.UUID]*Account
}

// NewRegistry builds a registry from the user's accounts.
func NewRegistry(userID uuid.UUID, accounts []*Account) *Registry {
	r := &Registry{
		userID: userID,
		bySlug: make(map[string]*Account, len(accounts)),
		byID:   make(map[uuid.UUID]*Account, len(accounts)),
	}
	for _, a := range accounts {
		if a == nil || a.UserID != userID {
			continue
		}
		r.bySlug[a.Slug] = a
		r.byID[a.ID] = a
	}
	return r
}

// Require resolves a slug or fails with ErrMissingAccount.
func (r *Registry) Require(slug string) (*Account, error) {
	a, ok := r.bySlug[slug]
	if !ok || a.Archived {
		return nil, fmt.Errorf("%w: %q for user %s", ErrMissingAccount, slug, r.userID)
	}
	return a, nil
}

// RequireAll resolves several slugs at once, in order.
func (r *Registry) RequireAll(slugs ...string) ([]*Account, error) {
	out := make([]*Account, 0, len(slugs))
	for _, s := range slugs {
		a, err := r.Require(s)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, nil
}

// RequireID resolves an account id or fails with ErrMissingAccount.
func (r *Registry) RequireID(id uuid.UUID) (*Account, error) {
	a, ok := r.byID[id]
	if !ok || a.Archived {
		return nil, fmt.Errorf("%w: id %s for user %s", ErrMissingAccount, id, r.userID)
	}
	return a, nil
}

// Has reports whether a live account with the slug exists.
func (r *Registry) Has(slug string) bool {
	a, ok := r.bySlug[slug]
	return ok && !a.Archived
}

// Accounts returns every indexed account, archived included.
func (r *Registry) Accounts() []*Account {
	out := make([]*Account, 0, len(r.byID))
	for _, a := range r.byID {
		out = append(out, a)
	}
	return out
}
