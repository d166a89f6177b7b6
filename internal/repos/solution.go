package repos

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/gtead/marketplace-backend/internal/logger"
	"github.com/gtead/marketplace-backend/internal/types"
)

// SolutionFilter fields are conjunctive; nil/zero values mean "any".
type SolutionFilter struct {
	VendorID        *uuid.UUID
	Status          string
	TRL             *int
	NATOCompatible  *bool
	SecurityCleared *bool
	CapabilityArea  string
}

type SolutionRepo interface {
	Create(ctx context.Context, solution *types.Solution) (*types.Solution, error)
	GetByID(ctx context.Context, id uuid.UUID) (*types.Solution, error)
	List(ctx context.Context, filter SolutionFilter) ([]*types.Solution, error)
	Update(ctx context.Context, solution *types.Solution) (*types.Solution, error)
	Search(ctx context.Context, query string) ([]*types.Solution, error)
}

type solutionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewSolutionRepo(db *gorm.DB, baseLog *logger.Logger) SolutionRepo {
	return &solutionRepo{db: db, log: baseLog.With("repo", "SolutionRepo")}
}

func (sr *solutionRepo) Create(ctx context.Context, solution *types.Solution) (*types.Solution, error) {
	if solution.ID == uuid.Nil {
		solution.ID = uuid.New()
	}
	if solution.Status == "" {
		solution.Status = types.SolutionStatusSubmitted
	}
	if err := sr.db.WithContext(ctx).Create(solution).Error; err != nil {
		return nil, err
	}
	return solution, nil
}

func (sr *solutionRepo) GetByID(ctx context.Context, id uuid.UUID) (*types.Solution, error) {
	var solution types.Solution
	err := sr.db.WithContext(ctx).Where("id = ?", id).First(&solution).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &solution, nil
}

func (sr *solutionRepo) List(ctx context.Context, filter SolutionFilter) ([]*types.Solution, error) {
	q := sr.db.WithContext(ctx).Model(&types.Solution{}).Order("created_at ASC")
	if filter.VendorID != nil {
		q = q.Where("vendor_id = ?", *filter.VendorID)
	}
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.TRL != nil {
		q = q.Where("trl = ?", *filter.TRL)
	}
	if filter.NATOCompatible != nil {
		q = q.Where("nato_compatible = ?", *filter.NATOCompatible)
	}
	if filter.SecurityCleared != nil {
		q = q.Where("security_cleared = ?", *filter.SecurityCleared)
	}
	if filter.CapabilityArea != "" {
		q = q.Where(datatypes.JSONArrayQuery("capability_areas").Contains(filter.CapabilityArea))
	}
	var results []*types.Solution
	if err := q.Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (sr *solutionRepo) Update(ctx context.Context, solution *types.Solution) (*types.Solution, error) {
	solution.UpdatedAt = time.Now()
	res := sr.db.WithContext(ctx).
		Model(&types.Solution{}).
		Where("id = ?", solution.ID).
		Select("*").
		Omit("id", "created_at").
		Updates(solution)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, ErrNotFound
	}
	return solution, nil
}

// Search matches title, description and capability areas
// case-insensitively. Postgres-only (the in-memory backend scans).
func (sr *solutionRepo) Search(ctx context.Context, query string) ([]*types.Solution, error) {
	pattern := "%" + query + "%"
	var results []*types.Solution
	err := sr.db.WithContext(ctx).
		Model(&types.Solution{}).
		Where("title ILIKE ? OR description ILIKE ? OR capability_areas::text ILIKE ?", pattern, pattern, pattern).
		Order("created_at ASC").
		Find(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}
