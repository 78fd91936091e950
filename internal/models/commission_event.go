package models

import (
	"time"
)

// Commission event types, one per Balance mutation.
const (
	EventCredit  = "credit"
	EventReserve = "reserve"
	EventRelease = "release"
	EventSettle  = "settle"
)

// CommissionEvent is an append-only journal row written alongside every
// Balance mutation. Dashboards read these instead of watching the Balance row,
// and the reconciliation audit replays them to check conservation.
type CommissionEvent struct {
	ID           int       `gorm:"primaryKey;autoIncrement" json:"id"`
	OwnerId      int       `gorm:"column:owner_id;not null;index" json:"owner_id"`
	EventType    string    `gorm:"column:event_type;size:20;not null" json:"event_type"`
	Amount       int64     `gorm:"column:amount;not null" json:"amount"`
	BalanceAfter int64     `gorm:"column:balance_after;not null" json:"balance_after"`
	Reference    string    `gorm:"column:reference;size:64;index" json:"reference"`
	Description  string    `gorm:"column:description;type:text" json:"description"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (CommissionEvent) TableName() string {
	return "commission_events"
}
