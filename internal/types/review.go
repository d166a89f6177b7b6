package types

import (
	"time"

	"github.com/google/uuid"
)

type Review struct {
	ID                    uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	SolutionID            uuid.UUID  `gorm:"type:uuid;not null;index;column:solution_id" json:"solutionId"`
	Solution              *Solution  `gorm:"constraint:OnDelete:CASCADE;foreignKey:SolutionID;references:ID" json:"solution,omitempty"`
	ReviewerID            uuid.UUID  `gorm:"type:uuid;not null;index;column:reviewer_id" json:"reviewerId"`
	Reviewer              *User      `gorm:"constraint:OnDelete:CASCADE;foreignKey:ReviewerID;references:ID" json:"reviewer,omitempty"`
	Rating                int        `gorm:"not null;column:rating" json:"rating"`
	Title                 string     `gorm:"column:title" json:"title,omitempty"`
	Description           string     `gorm:"column:description" json:"description,omitempty"`
	ReadinessScore        int        `gorm:"column:readiness_score" json:"readinessScore,omitempty"`
	InteroperabilityScore int        `gorm:"column:interoperability_score" json:"interoperabilityScore,omitempty"`
	SupportScore          int        `gorm:"column:support_score" json:"supportScore,omitempty"`
	FieldTested           bool       `gorm:"default:false;column:field_tested" json:"fieldTested"`
	TestDate              *time.Time `gorm:"column:test_date" json:"testDate,omitempty"`
	HelpfulVotes          int        `gorm:"default:0;column:helpful_votes" json:"helpfulVotes"`
	TotalVotes            int        `gorm:"default:0;column:total_votes" json:"totalVotes"`
	CreatedAt             time.Time  `gorm:"not null" json:"createdAt"`
	UpdatedAt             time.Time  `gorm:"not null" json:"updatedAt"`
}

func (Review) TableName() string { return "reviews" }
