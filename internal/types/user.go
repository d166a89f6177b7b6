package types

import (
	"time"

	"github.com/google/uuid"
)

const (
	RoleVendor             = "vendor"
	RoleGovernment         = "government"
	RoleContractingOfficer = "contracting_officer"
	RoleAdmin              = "admin"
)

func ValidRole(role string) bool {
	switch role {
	case RoleVendor, RoleGovernment, RoleContractingOfficer, RoleAdmin:
		return true
	}
	return false
}

// GovernmentRole reports whether the role grants government-class access
// (review creation, solution status changes).
func GovernmentRole(role string) bool {
	return role == RoleGovernment || role == RoleContractingOfficer
}

type User struct {
	ID                uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Email             string    `gorm:"uniqueIndex;not null;column:email" json:"email"`
	Password          string    `gorm:"column:password" json:"-"`
	FirstName         string    `gorm:"column:first_name" json:"firstName"`
	LastName          string    `gorm:"column:last_name" json:"lastName"`
	ProfileImageURL   string    `gorm:"column:profile_image_url" json:"profileImageUrl,omitempty"`
	Role              string    `gorm:"not null;default:vendor;column:role" json:"role"`
	Organization      string    `gorm:"column:organization" json:"organization,omitempty"`
	UEI               string    `gorm:"column:uei" json:"uei,omitempty"`
	CAGE              string    `gorm:"column:cage" json:"cage,omitempty"`
	NATOEligible      bool      `gorm:"default:false;column:nato_eligible" json:"natoEligible"`
	SecurityClearance string    `gorm:"column:security_clearance" json:"securityClearance,omitempty"`
	BusinessSize      string    `gorm:"column:business_size" json:"businessSize,omitempty"`
	Provider          string    `gorm:"column:provider" json:"-"`
	ProviderSubject   string    `gorm:"index;column:provider_subject" json:"-"`
	CreatedAt         time.Time `gorm:"not null" json:"createdAt"`
	UpdatedAt         time.Time `gorm:"not null" json:"updatedAt"`
}

func (User) TableName() string { return "users" }
