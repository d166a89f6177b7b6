package repos

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/gtead/marketplace-backend/internal/logger"
	"github.com/gtead/marketplace-backend/internal/types"
)

type ReviewRepo interface {
	Create(ctx context.Context, review *types.Review) (*types.Review, error)
	GetByID(ctx context.Context, id uuid.UUID) (*types.Review, error)
	ListBySolution(ctx context.Context, solutionID uuid.UUID) ([]*types.Review, error)
}

type reviewRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewReviewRepo(db *gorm.DB, baseLog *logger.Logger) ReviewRepo {
	return &reviewRepo{db: db, log: baseLog.With("repo", "ReviewRepo")}
}

func (rr *reviewRepo) Create(ctx context.Context, review *types.Review) (*types.Review, error) {
	if review.ID == uuid.Nil {
		review.ID = uuid.New()
	}
	if err := rr.db.WithContext(ctx).Create(review).Error; err != nil {
		return nil, err
	}
	return review, nil
}

func (rr *reviewRepo) GetByID(ctx context.Context, id uuid.UUID) (*types.Review, error) {
	var review types.Review
	err := rr.db.WithContext(ctx).Where("id = ?", id).First(&review).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &review, nil
}

func (rr *reviewRepo) ListBySolution(ctx context.Context, solutionID uuid.UUID) ([]*types.Review, error) {
	var results []*types.Review
	err := rr.db.WithContext(ctx).
		Where("solution_id = ?", solutionID).
		Order("created_at ASC").
		Find(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}
