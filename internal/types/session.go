package types

import (
	"time"

	"github.com/google/uuid"
)

const (
	SessionProviderLocal = "local"
	SessionProviderOIDC  = "oidc"
)

// Session is the server-side record behind the signed cookie. Delegated
// sessions additionally carry the provider tokens so middleware can
// silently refresh an expired access token.
type Session struct {
	SID            string     `gorm:"primaryKey;column:sid" json:"sid"`
	UserID         uuid.UUID  `gorm:"type:uuid;not null;index;column:user_id" json:"userId"`
	Provider       string     `gorm:"not null;column:provider" json:"provider"`
	AccessToken    string     `gorm:"column:access_token" json:"-"`
	RefreshToken   string     `gorm:"column:refresh_token" json:"-"`
	TokenExpiresAt *time.Time `gorm:"column:token_expires_at" json:"-"`
	ExpiresAt      time.Time  `gorm:"not null;index;column:expires_at" json:"expiresAt"`
	CreatedAt      time.Time  `gorm:"not null" json:"createdAt"`
}

func (Session) TableName() string { return "sessions" }
