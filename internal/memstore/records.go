package memstore

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/gtead/marketplace-backend/internal/repos"
	"github.com/gtead/marketplace-backend/internal/types"
)

type reviewRepo struct {
	c *collection[types.Review]
}

func (rr *reviewRepo) Create(ctx context.Context, review *types.Review) (*types.Review, error) {
	r := *review
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	now := time.Now()
	if r.CreatedAt.IsZero() {
		r.CreatedAt = now
	}
	r.UpdatedAt = now
	rr.c.insert(r.ID, r)
	out := r
	return &out, nil
}

func (rr *reviewRepo) GetByID(ctx context.Context, id uuid.UUID) (*types.Review, error) {
	r, ok := rr.c.get(id)
	if !ok {
		return nil, repos.ErrNotFound
	}
	return &r, nil
}

func (rr *reviewRepo) ListBySolution(ctx context.Context, solutionID uuid.UUID) ([]*types.Review, error) {
	matches := rr.c.list(func(r types.Review) bool {
		return r.SolutionID == solutionID
	})
	return refs(matches), nil
}

type applicationRepo struct {
	c *collection[types.Application]
}

func (ar *applicationRepo) Create(ctx context.Context, application *types.Application) (*types.Application, error) {
	a := *application
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	if a.Status == "" {
		a.Status = types.ApplicationStatusSubmitted
	}
	if a.Phase == 0 {
		a.Phase = 1
	}
	now := time.Now()
	if a.CreatedAt.IsZero() {
		a.CreatedAt = now
	}
	a.UpdatedAt = now
	ar.c.insert(a.ID, a)
	out := a
	return &out, nil
}

func (ar *applicationRepo) GetByID(ctx context.Context, id uuid.UUID) (*types.Application, error) {
	a, ok := ar.c.get(id)
	if !ok {
		return nil, repos.ErrNotFound
	}
	return &a, nil
}

func (ar *applicationRepo) List(ctx context.Context, filter repos.ApplicationFilter) ([]*types.Application, error) {
	matches := ar.c.list(func(a types.Application) bool {
		if filter.ChallengeID != nil && a.ChallengeID != *filter.ChallengeID {
			return false
		}
		if filter.VendorID != nil && a.VendorID != *filter.VendorID {
			return false
		}
		if filter.Status != "" && a.Status != filter.Status {
			return false
		}
		return true
	})
	return refs(matches), nil
}

func (ar *applicationRepo) Update(ctx context.Context, application *types.Application) (*types.Application, error) {
	a := *application
	a.UpdatedAt = time.Now()
	if !ar.c.replace(a.ID, a) {
		return nil, repos.ErrNotFound
	}
	out := a
	return &out, nil
}

type chatMessageRepo struct {
	c *collection[types.ChatMessage]
}

func (cr *chatMessageRepo) Create(ctx context.Context, message *types.ChatMessage) (*types.ChatMessage, error) {
	m := *message
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now()
	}
	cr.c.insert(m.ID, m)
	out := m
	return &out, nil
}

func (cr *chatMessageRepo) History(ctx context.Context, userID uuid.UUID, limit int) ([]*types.ChatMessage, error) {
	if limit <= 0 {
		limit = 50
	}
	matches := cr.c.list(func(m types.ChatMessage) bool {
		return m.UserID == userID
	})
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].CreatedAt.After(matches[j].CreatedAt)
	})
	if len(matches) > limit {
		matches = matches[:limit]
	}
	return refs(matches), nil
}
