package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const (
	SolutionStatusSubmitted   = "submitted"
	SolutionStatusUnderReview = "under_review"
	SolutionStatusAwardable   = "awardable"
	SolutionStatusRejected    = "rejected"
)

func ValidSolutionStatus(s string) bool {
	switch s {
	case SolutionStatusSubmitted, SolutionStatusUnderReview, SolutionStatusAwardable, SolutionStatusRejected:
		return true
	}
	return false
}

// Procurement records a prior government purchase of the solution.
type Procurement struct {
	Unit           string `json:"unit" yaml:"unit"`
	ContactName    string `json:"contactName" yaml:"contactName"`
	ContactEmail   string `json:"contactEmail" yaml:"contactEmail"`
	ContractValue  string `json:"contractValue" yaml:"contractValue"`
	DeploymentDate string `json:"deploymentDate" yaml:"deploymentDate"`
}

type Solution struct {
	ID              uuid.UUID                        `gorm:"type:uuid;primaryKey" json:"id"`
	VendorID        uuid.UUID                        `gorm:"type:uuid;not null;index;column:vendor_id" json:"vendorId"`
	Vendor          *User                            `gorm:"constraint:OnDelete:CASCADE;foreignKey:VendorID;references:ID" json:"vendor,omitempty"`
	Title           string                           `gorm:"not null;column:title" json:"title"`
	Description     string                           `gorm:"not null;column:description" json:"description"`
	TRL             int                              `gorm:"column:trl" json:"trl"`
	NATOCompatible  bool                             `gorm:"default:false;column:nato_compatible" json:"natoCompatible"`
	SecurityCleared bool                             `gorm:"default:false;column:security_cleared" json:"securityCleared"`
	CapabilityAreas datatypes.JSONSlice[string]      `gorm:"column:capability_areas;type:jsonb" json:"capabilityAreas"`
	PitchVideoURL   string                           `gorm:"column:pitch_video_url" json:"pitchVideoUrl,omitempty"`
	DocumentURLs    datatypes.JSONSlice[string]      `gorm:"column:document_urls;type:jsonb" json:"documentUrls"`
	Procurements    datatypes.JSONSlice[Procurement] `gorm:"column:procurements;type:jsonb" json:"procurements"`
	Status          string                           `gorm:"not null;default:submitted;column:status" json:"status"`
	CreatedAt       time.Time                        `gorm:"not null" json:"createdAt"`
	UpdatedAt       time.Time                        `gorm:"not null" json:"updatedAt"`
}

func (Solution) TableName() string { return "solutions" }
