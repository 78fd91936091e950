package models

import (
	"time"
)

// ReferralAccount aggregates per-owner referral totals. Created together with
// the owner's ReferralCode in the same transaction.
// Invariants: successful_referrals <= total_referrals; total_commission is
// monotonically non-decreasing.
type ReferralAccount struct {
	ID                  int       `gorm:"primaryKey;autoIncrement" json:"id"`
	OwnerId             int       `gorm:"column:owner_id;not null;uniqueIndex" json:"owner_id"`
	Code                string    `gorm:"column:code;size:40;not null;index" json:"code"`
	TotalReferrals      int       `gorm:"column:total_referrals;not null;default:0" json:"total_referrals"`
	SuccessfulReferrals int       `gorm:"column:successful_referrals;not null;default:0" json:"successful_referrals"`
	TotalCommission     int64     `gorm:"column:total_commission;not null;default:0" json:"total_commission"`
	CreatedAt           time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt           time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (ReferralAccount) TableName() string {
	return "referral_accounts"
}
