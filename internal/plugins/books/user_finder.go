package books

import (
	"context"

	"github.com/keyxmakerx/bookdir/internal/plugins/auth"
)

// OwnerFinder resolves book owners to their public fields.
type OwnerFinder interface {
	FindOwner(ctx context.Context, id string) (*Owner, error)

	// FindOwners returns the owners it could find, keyed by user ID.
	FindOwners(ctx context.Context, ids []string) (map[string]Owner, error)
}

// OwnerFinderAdapter wraps auth.UserRepository to satisfy OwnerFinder.
// Only this file (and the snapshot helpers) reference auth types.
type OwnerFinderAdapter struct {
	repo auth.UserRepository
}

// NewOwnerFinderAdapter creates a new adapter around the auth repository.
func NewOwnerFinderAdapter(repo auth.UserRepository) OwnerFinder {
	return &OwnerFinderAdapter{repo: repo}
}

// FindOwner looks up a single user by ID and maps it to Owner.
func (a *OwnerFinderAdapter) FindOwner(ctx context.Context, id string) (*Owner, error) {
	user, err := a.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	owner := ownerFromUser(user)
	return &owner, nil
}

// FindOwners loads all ids in one repository call.
func (a *OwnerFinderAdapter) FindOwners(ctx context.Context, ids []string) (map[string]Owner, error) {
	users, err := a.repo.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	owners := make(map[string]Owner, len(users))
	for i := range users {
		owners[users[i].ID] = ownerFromUser(&users[i])
	}
	return owners, nil
}

func ownerFromUser(u *auth.User) Owner {
	return Owner{
		ID:        u.ID,
		FullName:  u.FullName,
		Email:     u.Email,
		CreatedAt: u.CreatedAt,
	}
}
