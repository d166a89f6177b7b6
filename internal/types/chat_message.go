package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// ChatMessage is one user/assistant exchange. Append-only per user.
type ChatMessage struct {
	ID        uuid.UUID         `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    uuid.UUID         `gorm:"type:uuid;not null;index;column:user_id" json:"userId"`
	User      *User             `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"user,omitempty"`
	Message   string            `gorm:"not null;column:message" json:"message"`
	Response  string            `gorm:"column:response" json:"response"`
	Context   datatypes.JSONMap `gorm:"column:context;type:jsonb" json:"context"`
	CreatedAt time.Time         `gorm:"not null" json:"createdAt"`
}

func (ChatMessage) TableName() string { return "chat_messages" }
