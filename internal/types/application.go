package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const (
	ApplicationStatusSubmitted   = "submitted"
	ApplicationStatusUnderReview = "under_review"
	ApplicationStatusAccepted    = "accepted"
	ApplicationStatusRejected    = "rejected"
)

type Application struct {
	ID             uuid.UUID          `gorm:"type:uuid;primaryKey" json:"id"`
	ChallengeID    uuid.UUID          `gorm:"type:uuid;not null;index;column:challenge_id" json:"challengeId"`
	Challenge      *Challenge         `gorm:"constraint:OnDelete:CASCADE;foreignKey:ChallengeID;references:ID" json:"challenge,omitempty"`
	VendorID       uuid.UUID          `gorm:"type:uuid;not null;index;column:vendor_id" json:"vendorId"`
	Vendor         *User              `gorm:"constraint:OnDelete:CASCADE;foreignKey:VendorID;references:ID" json:"vendor,omitempty"`
	SolutionID     *uuid.UUID         `gorm:"type:uuid;column:solution_id" json:"solutionId,omitempty"`
	Phase          int                `gorm:"not null;default:1;column:phase" json:"phase"`
	Status         string             `gorm:"not null;default:submitted;column:status" json:"status"`
	WhitePaperURL  string             `gorm:"column:white_paper_url" json:"whitePaperUrl,omitempty"`
	VideoURL       string             `gorm:"column:video_url" json:"videoUrl,omitempty"`
	SubmissionData datatypes.JSONMap  `gorm:"column:submission_data;type:jsonb" json:"submissionData"`
	Feedback       string             `gorm:"column:feedback" json:"feedback,omitempty"`
	CreatedAt      time.Time          `gorm:"not null" json:"createdAt"`
	UpdatedAt      time.Time          `gorm:"not null" json:"updatedAt"`
}

func (Application) TableName() string { return "applications" }
