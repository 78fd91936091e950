package models

import (
	"time"
)

// Owner roles that qualify for a referral code.
const (
	RoleAlumni = "alumni"
	RoleAgent  = "agent"
)

// ReferralCode is the master index row for an issued code. One row per code,
// and at most one active row per (owner_id, owner_role).
type ReferralCode struct {
	ID                      int       `gorm:"primaryKey;autoIncrement" json:"id"`
	Code                    string    `gorm:"column:code;size:40;not null;uniqueIndex" json:"code"`
	OwnerId                 int       `gorm:"column:owner_id;not null;uniqueIndex:idx_code_owner_role" json:"owner_id"`
	OwnerRole               string    `gorm:"column:owner_role;size:20;not null;uniqueIndex:idx_code_owner_role" json:"owner_role"`
	CommissionPerConversion int64     `gorm:"column:commission_per_conversion;not null" json:"commission_per_conversion"`
	IsActive                bool      `gorm:"column:is_active;default:true" json:"is_active"`
	CreatedAt               time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt               time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (ReferralCode) TableName() string {
	return "referral_codes"
}
