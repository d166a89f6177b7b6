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

// ChallengeFilter fields are conjunctive; zero values mean "any".
type ChallengeFilter struct {
	Status string
	Type   string
}

type ChallengeRepo interface {
	Create(ctx context.Context, challenge *types.Challenge) (*types.Challenge, error)
	GetByID(ctx context.Context, id uuid.UUID) (*types.Challenge, error)
	List(ctx context.Context, filter ChallengeFilter) ([]*types.Challenge, error)
	Update(ctx context.Context, challenge *types.Challenge) (*types.Challenge, error)
}

type challengeRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewChallengeRepo(db *gorm.DB, baseLog *logger.Logger) ChallengeRepo {
	return &challengeRepo{db: db, log: baseLog.With("repo", "ChallengeRepo")}
}

func (cr *challengeRepo) Create(ctx context.Context, challenge *types.Challenge) (*types.Challenge, error) {
	if challenge.ID == uuid.Nil {
		challenge.ID = uuid.New()
	}
	if challenge.Status == "" {
		challenge.Status = types.ChallengeStatusOpen
	}
	if err := cr.db.WithContext(ctx).Create(challenge).Error; err != nil {
		return nil, err
	}
	return challenge, nil
}

func (cr *challengeRepo) GetByID(ctx context.Context, id uuid.UUID) (*types.Challenge, error) {
	var challenge types.Challenge
	err := cr.db.WithContext(ctx).Where("id = ?", id).First(&challenge).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &challenge, nil
}

func (cr *challengeRepo) List(ctx context.Context, filter ChallengeFilter) ([]*types.Challenge, error) {
	q := cr.db.WithContext(ctx).Model(&types.Challenge{}).Order("created_at ASC")
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.Type != "" {
		q = q.Where("type = ?", filter.Type)
	}
	var results []*types.Challenge
	if err := q.Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (cr *challengeRepo) Update(ctx context.Context, challenge *types.Challenge) (*types.Challenge, error) {
	challenge.UpdatedAt = time.Now()
	res := cr.db.WithContext(ctx).
		Model(&types.Challenge{}).
		Where("id = ?", challenge.ID).
		Select("*").
		Omit("id", "created_at").
		Updates(challenge)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, ErrNotFound
	}
	return challenge, nil
}
