package models

import (
	"time"
)

// TrackingEntry lifecycle states. Initial is registered; converted and
// payment_rejected are terminal.
const (
	TrackingRegistered       = "registered"
	TrackingPaymentSubmitted = "payment_submitted"
	TrackingConverted        = "converted"
	TrackingPaymentRejected  = "payment_rejected"
)

// TrackingEntry is one row per referred signup. The payment_submitted ->
// converted transition is the only event that credits the referrer's balance,
// and CommissionAmount stays 0 until then.
type TrackingEntry struct {
	ID               string     `gorm:"primaryKey;size:36" json:"id"`
	ReferrerId       int        `gorm:"column:referrer_id;not null;index" json:"referrer_id"`
	ReferredUserId   int        `gorm:"column:referred_user_id;not null;uniqueIndex" json:"referred_user_id"`
	ReferralCode     string     `gorm:"column:referral_code;size:40;not null;index" json:"referral_code"`
	Status           string     `gorm:"column:status;size:30;not null;default:registered;index" json:"status"`
	CommissionAmount int64      `gorm:"column:commission_amount;not null;default:0" json:"commission_amount"`
	CreatedAt        time.Time  `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	ConvertedAt      *time.Time `gorm:"column:converted_at" json:"converted_at,omitempty"`
	UpdatedAt        time.Time  `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (TrackingEntry) TableName() string {
	return "tracking_entries"
}
