package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const (
	ChallengeTypeXTech    = "xtech"
	ChallengeTypeOpenCall = "open_call"
	ChallengeTypeAOSCall  = "aos_call"

	ChallengeStatusOpen   = "open"
	ChallengeStatusActive = "active"
	ChallengeStatusClosed = "closed"
)

func ValidChallengeType(t string) bool {
	switch t {
	case ChallengeTypeXTech, ChallengeTypeOpenCall, ChallengeTypeAOSCall:
		return true
	}
	return false
}

// ChallengePhase is one entry of a challenge's ordered phase list.
type ChallengePhase struct {
	Name         string `json:"name" yaml:"name"`
	Description  string `json:"description" yaml:"description"`
	Requirements string `json:"requirements" yaml:"requirements"`
	Prize        string `json:"prize" yaml:"prize"`
}

type EligibilityRequirements struct {
	Organizations []string `json:"organizations" yaml:"organizations"`
	Requirements  []string `json:"requirements" yaml:"requirements"`
}

type Challenge struct {
	ID                      uuid.UUID                                      `gorm:"type:uuid;primaryKey" json:"id"`
	Title                   string                                         `gorm:"not null;column:title" json:"title"`
	Description             string                                         `gorm:"not null;column:description" json:"description"`
	Type                    string                                         `gorm:"not null;column:type" json:"type"`
	Status                  string                                         `gorm:"not null;default:open;column:status" json:"status"`
	Phases                  datatypes.JSONSlice[ChallengePhase]            `gorm:"column:phases;type:jsonb" json:"phases"`
	PrizePool               string                                         `gorm:"column:prize_pool" json:"prizePool,omitempty"`
	ApplicationDeadline     *time.Time                                     `gorm:"column:application_deadline" json:"applicationDeadline,omitempty"`
	FinalsDate              *time.Time                                     `gorm:"column:finals_date" json:"finalsDate,omitempty"`
	EligibilityRequirements datatypes.JSONType[EligibilityRequirements]    `gorm:"column:eligibility_requirements;type:jsonb" json:"eligibilityRequirements"`
	FocusAreas              datatypes.JSONSlice[string]                    `gorm:"column:focus_areas;type:jsonb" json:"focusAreas"`
	CreatedAt               time.Time                                      `gorm:"not null" json:"createdAt"`
	UpdatedAt               time.Time                                      `gorm:"not null" json:"updatedAt"`
}

func (Challenge) TableName() string { return "challenges" }
