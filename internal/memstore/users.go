package memstore

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/gtead/marketplace-backend/internal/repos"
	"github.com/gtead/marketplace-backend/internal/types"
)

type userRepo struct {
	c *collection[types.User]
}

func (ur *userRepo) Create(ctx context.Context, user *types.User) (*types.User, error) {
	u := *user
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	u.Email = strings.ToLower(u.Email)
	now := time.Now()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	u.UpdatedAt = now
	ur.c.insert(u.ID, u)
	out := u
	return &out, nil
}

func (ur *userRepo) GetByID(ctx context.Context, id uuid.UUID) (*types.User, error) {
	u, ok := ur.c.get(id)
	if !ok {
		return nil, repos.ErrNotFound
	}
	return &u, nil
}

func (ur *userRepo) GetByEmail(ctx context.Context, email string) (*types.User, error) {
	lowered := strings.ToLower(email)
	matches := ur.c.list(func(u types.User) bool {
		return strings.ToLower(u.Email) == lowered
	})
	if len(matches) == 0 {
		return nil, repos.ErrNotFound
	}
	u := matches[0]
	return &u, nil
}

func (ur *userRepo) GetByProviderSubject(ctx context.Context, provider, subject string) (*types.User, error) {
	matches := ur.c.list(func(u types.User) bool {
		return u.Provider == provider && u.ProviderSubject == subject
	})
	if len(matches) == 0 {
		return nil, repos.ErrNotFound
	}
	u := matches[0]
	return &u, nil
}

func (ur *userRepo) Update(ctx context.Context, user *types.User) (*types.User, error) {
	u := *user
	u.UpdatedAt = time.Now()
	if !ur.c.replace(u.ID, u) {
		return nil, repos.ErrNotFound
	}
	out := u
	return &out, nil
}
