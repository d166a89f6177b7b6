package sessionstore

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/gtead/marketplace-backend/internal/logger"
	"github.com/gtead/marketplace-backend/internal/types"
)

type postgresStore struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPostgresStore(db *gorm.DB, baseLog *logger.Logger) SessionStore {
	return &postgresStore{db: db, log: baseLog.With("store", "SessionStore")}
}

func (ps *postgresStore) Create(ctx context.Context, session *types.Session) error {
	return ps.db.WithContext(ctx).Create(session).Error
}

func (ps *postgresStore) Get(ctx context.Context, sid string) (*types.Session, error) {
	var session types.Session
	err := ps.db.WithContext(ctx).Where("sid = ?", sid).First(&session).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if time.Now().After(session.ExpiresAt) {
		if derr := ps.Delete(ctx, sid); derr != nil {
			ps.log.Warn("Failed to remove expired session", "sid", sid, "error", derr)
		}
		return nil, ErrNotFound
	}
	return &session, nil
}

func (ps *postgresStore) Update(ctx context.Context, session *types.Session) error {
	res := ps.db.WithContext(ctx).
		Model(&types.Session{}).
		Where("sid = ?", session.SID).
		Select("*").
		Omit("sid", "created_at").
		Updates(session)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (ps *postgresStore) Delete(ctx context.Context, sid string) error {
	return ps.db.WithContext(ctx).Where("sid = ?", sid).Delete(&types.Session{}).Error
}
