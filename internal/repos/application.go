package repos

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/gtead/marketplace-backend/internal/logger"
	"github.com/gtead/marketplace-backend/internal/types"
)

// ApplicationFilter fields are conjunctive; nil/zero values mean "any".
type ApplicationFilter struct {
	ChallengeID *uuid.UUID
	VendorID    *uuid.UUID
	Status      string
}

type ApplicationRepo interface {
	Create(ctx context.Context, application *types.Application) (*types.Application, error)
	GetByID(ctx context.Context, id uuid.UUID) (*types.Application, error)
	List(ctx context.Context, filter ApplicationFilter) ([]*types.Application, error)
	Update(ctx context.Context, application *types.Application) (*types.Application, error)
}

type applicationRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewApplicationRepo(db *gorm.DB, baseLog *logger.Logger) ApplicationRepo {
	return &applicationRepo{db: db, log: baseLog.With("repo", "ApplicationRepo")}
}

func (ar *applicationRepo) Create(ctx context.Context, application *types.Application) (*types.Application, error) {
	if application.ID == uuid.Nil {
		application.ID = uuid.New()
	}
	if application.Status == "" {
		application.Status = types.ApplicationStatusSubmitted
	}
	if application.Phase == 0 {
		application.Phase = 1
	}
	if err := ar.db.WithContext(ctx).Create(application).Error; err != nil {
		return nil, err
	}
	return application, nil
}

func (ar *applicationRepo) GetByID(ctx context.Context, id uuid.UUID) (*types.Application, error) {
	var application types.Application
	err := ar.db.WithContext(ctx).Where("id = ?", id).First(&application).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &application, nil
}

func (ar *applicationRepo) List(ctx context.Context, filter ApplicationFilter) ([]*types.Application, error) {
	q := ar.db.WithContext(ctx).Model(&types.Application{}).Order("created_at ASC")
	if filter.ChallengeID != nil {
		q = q.Where("challenge_id = ?", *filter.ChallengeID)
	}
	if filter.VendorID != nil {
		q = q.Where("vendor_id = ?", *filter.VendorID)
	}
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	var results []*types.Application
	if err := q.Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (ar *applicationRepo) Update(ctx context.Context, application *types.Application) (*types.Application, error) {
	application.UpdatedAt = time.Now()
	res := ar.db.WithContext(ctx).
		Model(&types.Application{}).
		Where("id = ?", application.ID).
		Select("*").
		Omit("id", "created_at").
		Updates(application)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, ErrNotFound
	}
	return application, nil
}
