package memstore

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/gtead/marketplace-backend/internal/repos"
	"github.com/gtead/marketplace-backend/internal/types"
)

type challengeRepo struct {
	c *collection[types.Challenge]
}

func (cr *challengeRepo) Create(ctx context.Context, challenge *types.Challenge) (*types.Challenge, error) {
	ch := *challenge
	if ch.ID == uuid.Nil {
		ch.ID = uuid.New()
	}
	if ch.Status == "" {
		ch.Status = types.ChallengeStatusOpen
	}
	now := time.Now()
	if ch.CreatedAt.IsZero() {
		ch.CreatedAt = now
	}
	ch.UpdatedAt = now
	cr.c.insert(ch.ID, ch)
	out := ch
	return &out, nil
}

func (cr *challengeRepo) GetByID(ctx context.Context, id uuid.UUID) (*types.Challenge, error) {
	ch, ok := cr.c.get(id)
	if !ok {
		return nil, repos.ErrNotFound
	}
	return &ch, nil
}

func (cr *challengeRepo) List(ctx context.Context, filter repos.ChallengeFilter) ([]*types.Challenge, error) {
	matches := cr.c.list(func(ch types.Challenge) bool {
		if filter.Status != "" && ch.Status != filter.Status {
			return false
		}
		if filter.Type != "" && ch.Type != filter.Type {
			return false
		}
		return true
	})
	return refs(matches), nil
}

func (cr *challengeRepo) Update(ctx context.Context, challenge *types.Challenge) (*types.Challenge, error) {
	ch := *challenge
	ch.UpdatedAt = time.Now()
	if !cr.c.replace(ch.ID, ch) {
		return nil, repos.ErrNotFound
	}
	out := ch
	return &out, nil
}

type solutionRepo struct {
	c *collection[types.Solution]
}

func (sr *solutionRepo) Create(ctx context.Context, solution *types.Solution) (*types.Solution, error) {
	s := *solution
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	if s.Status == "" {
		s.Status = types.SolutionStatusSubmitted
	}
	now := time.Now()
	if s.CreatedAt.IsZero() {
		s.CreatedAt = now
	}
	s.UpdatedAt = now
	sr.c.insert(s.ID, s)
	out := s
	return &out, nil
}

func (sr *solutionRepo) GetByID(ctx context.Context, id uuid.UUID) (*types.Solution, error) {
	s, ok := sr.c.get(id)
	if !ok {
		return nil, repos.ErrNotFound
	}
	return &s, nil
}

func (sr *solutionRepo) List(ctx context.Context, filter repos.SolutionFilter) ([]*types.Solution, error) {
	matches := sr.c.list(func(s types.Solution) bool {
		if filter.VendorID != nil && s.VendorID != *filter.VendorID {
			return false
		}
		if filter.Status != "" && s.Status != filter.Status {
			return false
		}
		if filter.TRL != nil && s.TRL != *filter.TRL {
			return false
		}
		if filter.NATOCompatible != nil && s.NATOCompatible != *filter.NATOCompatible {
			return false
		}
		if filter.SecurityCleared != nil && s.SecurityCleared != *filter.SecurityCleared {
			return false
		}
		if filter.CapabilityArea != "" && !containsFold(s.CapabilityAreas, filter.CapabilityArea) {
			return false
		}
		return true
	})
	return refs(matches), nil
}

func (sr *solutionRepo) Update(ctx context.Context, solution *types.Solution) (*types.Solution, error) {
	s := *solution
	s.UpdatedAt = time.Now()
	if !sr.c.replace(s.ID, s) {
		return nil, repos.ErrNotFound
	}
	out := s
	return &out, nil
}

func (sr *solutionRepo) Search(ctx context.Context, query string) ([]*types.Solution, error) {
	needle := strings.ToLower(strings.TrimSpace(query))
	if needle == "" {
		return []*types.Solution{}, nil
	}
	matches := sr.c.list(func(s types.Solution) bool {
		if strings.Contains(strings.ToLower(s.Title), needle) {
			return true
		}
		if strings.Contains(strings.ToLower(s.Description), needle) {
			return true
		}
		for _, area := range s.CapabilityAreas {
			if strings.Contains(strings.ToLower(area), needle) {
				return true
			}
		}
		return false
	})
	return refs(matches), nil
}

func containsFold(areas []string, want string) bool {
	for _, area := range areas {
		if strings.EqualFold(area, want) {
			return true
		}
	}
	return false
}

func refs[T any](values []T) []*T {
	out := make([]*T, len(values))
	for i := range values {
		v := values[i]
		out[i] = &v
	}
	return out
}
