package models

import (
	"time"
)

// Withdrawal request states. pending is initial; confirmed and rejected are
// terminal.
const (
	WithdrawalPending   = "pending"
	WithdrawalConfirmed = "confirmed"
	WithdrawalRejected  = "rejected"
)

// Payout channels. Exactly one set of payout fields is populated per request.
const (
	PayoutBankTransfer = "bank_transfer"
	PayoutEwallet      = "ewallet"
)

// WithdrawalRequest records a cash-out against the owner's Balance. The amount
// is debited when the request is created; confirmation settles it into
// total_withdrawn, rejection credits it back.
type WithdrawalRequest struct {
	ID             string     `gorm:"primaryKey;size:36" json:"id"`
	OwnerId        int        `gorm:"column:owner_id;not null;index" json:"owner_id"`
	Amount         int64      `gorm:"column:amount;not null" json:"amount"`
	PayoutMethod   string     `gorm:"column:payout_method;size:20;not null" json:"payout_method"`
	BankName       string     `gorm:"column:bank_name;size:150" json:"bank_name,omitempty"`
	AccountNumber  string     `gorm:"column:account_number;size:50" json:"account_number,omitempty"`
	AccountName    string     `gorm:"column:account_name;size:150" json:"account_name,omitempty"`
	EwalletName    string     `gorm:"column:ewallet_name;size:50" json:"ewallet_name,omitempty"`
	EwalletNumber  string     `gorm:"column:ewallet_number;size:50" json:"ewallet_number,omitempty"`
	Status         string     `gorm:"column:status;size:20;not null;default:pending;index" json:"status"`
	RequestDate    time.Time  `gorm:"column:request_date;autoCreateTime" json:"request_date"`
	ProcessedDate  *time.Time `gorm:"column:processed_date" json:"processed_date,omitempty"`
	ProcessedBy    string     `gorm:"column:processed_by;size:150" json:"processed_by,omitempty"`
	UpdatedAt      time.Time  `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (WithdrawalRequest) TableName() string {
	return "withdrawal_requests"
}
