package models

import (
	"time"
)

// Balance is the per-owner commission balance. All amounts are integers in the
// smallest currency unit. Invariants: balance >= 0 after every mutation;
// balance == total_earned - total_withdrawn - sum(pending reservations).
type Balance struct {
	ID             int       `gorm:"primaryKey;autoIncrement" json:"id"`
	OwnerId        int       `gorm:"column:owner_id;not null;uniqueIndex" json:"owner_id"`
	Balance        int64     `gorm:"column:balance;not null;default:0" json:"balance"`
	TotalEarned    int64     `gorm:"column:total_earned;not null;default:0" json:"total_earned"`
	TotalWithdrawn int64     `gorm:"column:total_withdrawn;not null;default:0" json:"total_withdrawn"`
	CreatedAt      time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (Balance) TableName() string {
	return "balances"
}
