package sessionstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/gtead/marketplace-backend/internal/logger"
	"github.com/gtead/marketplace-backend/internal/types"
	"github.com/gtead/marketplace-backend/internal/utils"
)

const redisKeyPrefix = "session:"

// redisSession mirrors types.Session with every field serialized; the
// API-facing struct hides provider tokens from JSON, but the store must
// keep them.
type redisSession struct {
	SID            string     `json:"sid"`
	UserID         uuid.UUID  `json:"userId"`
	Provider       string     `json:"provider"`
	AccessToken    string     `json:"accessToken"`
	RefreshToken   string     `json:"refreshToken"`
	TokenExpiresAt *time.Time `json:"tokenExpiresAt,omitempty"`
	ExpiresAt      time.Time  `json:"expiresAt"`
	CreatedAt      time.Time  `json:"createdAt"`
}

func toRedisSession(s *types.Session) redisSession {
	return redisSession{
		SID:            s.SID,
		UserID:         s.UserID,
		Provider:       s.Provider,
		AccessToken:    s.AccessToken,
		RefreshToken:   s.RefreshToken,
		TokenExpiresAt: s.TokenExpiresAt,
		ExpiresAt:      s.ExpiresAt,
		CreatedAt:      s.CreatedAt,
	}
}

func (r redisSession) toSession() *types.Session {
	return &types.Session{
		SID:            r.SID,
		UserID:         r.UserID,
		Provider:       r.Provider,
		AccessToken:    r.AccessToken,
		RefreshToken:   r.RefreshToken,
		TokenExpiresAt: r.TokenExpiresAt,
		ExpiresAt:      r.ExpiresAt,
		CreatedAt:      r.CreatedAt,
	}
}

type redisStore struct {
	log *logger.Logger
	rdb *goredis.Client
}

// RedisConfigured reports whether REDIS_ADDR is set; when it is, sessions
// live in Redis instead of the sessions table.
func RedisConfigured() bool {
	return strings.TrimSpace(utils.GetEnv("REDIS_ADDR", "", nil)) != ""
}

func NewRedisStore(log *logger.Logger) (SessionStore, error) {
	addr := strings.TrimSpace(utils.GetEnv("REDIS_ADDR", "", log))
	if addr == "" {
		return nil, fmt.Errorf("missing REDIS_ADDR")
	}
	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		Password:    utils.GetEnv("REDIS_PASSWORD", "", nil),
		DialTimeout: 5 * time.Second,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return &redisStore{log: log.With("store", "RedisSessionStore"), rdb: rdb}, nil
}

func (rs *redisStore) Create(ctx context.Context, session *types.Session) error {
	payload, err := json.Marshal(toRedisSession(session))
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	ttl := time.Until(session.ExpiresAt)
	if ttl <= 0 {
		return fmt.Errorf("session already expired")
	}
	return rs.rdb.Set(ctx, redisKeyPrefix+session.SID, payload, ttl).Err()
}

func (rs *redisStore) Get(ctx context.Context, sid string) (*types.Session, error) {
	raw, err := rs.rdb.Get(ctx, redisKeyPrefix+sid).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	var decoded redisSession
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	if time.Now().After(decoded.ExpiresAt) {
		_ = rs.rdb.Del(ctx, redisKeyPrefix+sid).Err()
		return nil, ErrNotFound
	}
	return decoded.toSession(), nil
}

func (rs *redisStore) Update(ctx context.Context, session *types.Session) error {
	key := redisKeyPrefix + session.SID
	exists, err := rs.rdb.Exists(ctx, key).Result()
	if err != nil {
		return err
	}
	if exists == 0 {
		return ErrNotFound
	}
	payload, err := json.Marshal(toRedisSession(session))
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	return rs.rdb.Set(ctx, key, payload, time.Until(session.ExpiresAt)).Err()
}

func (rs *redisStore) Delete(ctx context.Context, sid string) error {
	return rs.rdb.Del(ctx, redisKeyPrefix+sid).Err()
}
