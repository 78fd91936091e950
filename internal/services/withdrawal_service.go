package services

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"referral-service/internal/config"
	"referral-service/internal/models"
	"referral-service/pkg/common"
)

// WithdrawalService runs the cash-out workflow: an optimistic debit at request
// time, then an admin-driven confirm (settle) or reject (compensating credit).
type WithdrawalService struct {
	DB      *gorm.DB
	Balance *BalanceService
	Config  config.CommissionConfig
}

func NewWithdrawalService(db *gorm.DB, balance *BalanceService, cfg config.CommissionConfig) *WithdrawalService {
	return &WithdrawalService{DB: db, Balance: balance, Config: cfg}
}

type PayoutMethodDTO struct {
	BankName      string `json:"bank_name"`
	AccountNumber string `json:"account_number"`
	AccountName   string `json:"account_name"`
	EwalletName   string `json:"ewallet_name"`
	EwalletNumber string `json:"ewallet_number"`
}

func (p PayoutMethodDTO) bankComplete() bool {
	return p.BankName != "" && p.AccountNumber != "" && p.AccountName != ""
}

func (p PayoutMethodDTO) ewalletComplete() bool {
	return p.EwalletName != "" && p.EwalletNumber != ""
}

func (p PayoutMethodDTO) bankPartial() bool {
	return p.BankName != "" || p.AccountNumber != "" || p.AccountName != ""
}

func (p PayoutMethodDTO) ewalletPartial() bool {
	return p.EwalletName != "" || p.EwalletNumber != ""
}

// method returns the payout channel, or ErrInvalidPayout unless exactly one
// set of fields is fully populated.
func (p PayoutMethodDTO) method() (string, error) {
	switch {
	case p.bankComplete() && !p.ewalletPartial():
		return models.PayoutBankTransfer, nil
	case p.ewalletComplete() && !p.bankPartial():
		return models.PayoutEwallet, nil
	default:
		return "", ErrInvalidPayout
	}
}

// RequestWithdrawal validates and records a cash-out. The balance reservation
// and the request row are one transaction: an insufficient balance rolls the
// whole thing back and no partial request is ever stored.
func (s *WithdrawalService) RequestWithdrawal(ownerId int, amount int64, payout PayoutMethodDTO) (models.WithdrawalRequest, error) {
	if amount <= 0 {
		return models.WithdrawalRequest{}, ErrBelowMinimum
	}
	if amount < s.Config.MinWithdrawal {
		return models.WithdrawalRequest{}, ErrBelowMinimum
	}
	if s.Config.MaxWithdrawal > 0 && amount > s.Config.MaxWithdrawal {
		return models.WithdrawalRequest{}, errors.New("withdrawal amount exceeds the maximum threshold")
	}

	method, err := payout.method()
	if err != nil {
		return models.WithdrawalRequest{}, err
	}

	req := models.WithdrawalRequest{
		ID:            uuid.NewString(),
		OwnerId:       ownerId,
		Amount:        amount,
		PayoutMethod:  method,
		BankName:      payout.BankName,
		AccountNumber: payout.AccountNumber,
		AccountName:   payout.AccountName,
		EwalletName:   payout.EwalletName,
		EwalletNumber: payout.EwalletNumber,
		Status:        models.WithdrawalPending,
	}

	err = s.DB.Transaction(func(tx *gorm.DB) error {
		if err := s.Balance.ReserveTx(tx, ownerId, amount, req.ID); err != nil {
			return err
		}
		return tx.Create(&req).Error
	})
	if err != nil {
		return models.WithdrawalRequest{}, err
	}
	return req, nil
}

// Confirm settles a pending withdrawal. The pending -> confirmed transition is
// a guarded UPDATE, so a retried confirmation finds zero rows, sees the
// request already confirmed and settles nothing twice.
func (s *WithdrawalService) Confirm(requestId, processedBy string) error {
	return s.DB.Transaction(func(tx *gorm.DB) error {
		req, done, err := s.transitionTx(tx, requestId, models.WithdrawalConfirmed, processedBy)
		if err != nil || done {
			return err
		}
		return s.Balance.SettleTx(tx, req.OwnerId, req.Amount, req.ID)
	})
}

// Reject cancels a pending withdrawal and credits the reserved amount back.
// The guarded transition makes the reversal exactly-once: a retried rejection
// is a no-op and cannot double-credit the balance.
func (s *WithdrawalService) Reject(requestId, processedBy string) error {
	return s.DB.Transaction(func(tx *gorm.DB) error {
		req, done, err := s.transitionTx(tx, requestId, models.WithdrawalRejected, processedBy)
		if err != nil || done {
			return err
		}
		return s.Balance.ReleaseTx(tx, req.OwnerId, req.Amount, req.ID)
	})
}

// transitionTx applies pending -> target. done reports an idempotent retry
// (already in the target state); any other state is an InvalidTransition.
func (s *WithdrawalService) transitionTx(tx *gorm.DB, requestId, target, processedBy string) (models.WithdrawalRequest, bool, error) {
	var req models.WithdrawalRequest
	if err := tx.Where("id = ?", requestId).First(&req).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return req, false, ErrNotFound
		}
		return req, false, err
	}

	now := time.Now()
	res := tx.Model(&models.WithdrawalRequest{}).
		Where("id = ? AND status = ?", requestId, models.WithdrawalPending).
		UpdateColumns(map[string]interface{}{
			"status":         target,
			"processed_date": now,
			"processed_by":   processedBy,
		})
	if res.Error != nil {
		return req, false, res.Error
	}
	if res.RowsAffected == 0 {
		// Re-read: a concurrent admin action may have landed between the
		// initial read and the guarded update.
		if err := tx.Where("id = ?", requestId).First(&req).Error; err != nil {
			return req, false, err
		}
		if req.Status == target {
			return req, true, nil
		}
		return req, false, ErrInvalidTransition
	}
	return req, false, nil
}

type FetchWithdrawalsDTO struct {
	OwnerId int
	Pending bool
}

// FetchOwnerWithdrawals lists an owner's withdrawal requests, newest first.
func (s *WithdrawalService) FetchOwnerWithdrawals(data FetchWithdrawalsDTO) ([]models.WithdrawalRequest, error) {
	query := s.DB.Where("owner_id = ?", data.OwnerId)
	if data.Pending {
		query = query.Where("status = ?", models.WithdrawalPending)
	}

	var withdrawals []models.WithdrawalRequest
	err := query.Order("request_date DESC").Find(&withdrawals).Error
	return withdrawals, err
}

type ListWithdrawalRequestsDTO struct {
	From    string
	To      string
	Status  string
	OwnerId int
	Page    int
	Limit   int
}

// ListWithdrawalRequests is the admin view: filterable, paginated, with the
// filtered amount total for the approval dashboard header.
func (s *WithdrawalService) ListWithdrawalRequests(data ListWithdrawalRequestsDTO) (common.PaginationResult, error) {
	limit := data.Limit
	if limit <= 0 {
		limit = 50
	}
	page := data.Page
	if page < 1 {
		page = 1
	}
	offset := (page - 1) * limit

	query := s.DB.Model(&models.WithdrawalRequest{})
	if data.From != "" && data.To != "" {
		query = query.Where("request_date BETWEEN ? AND ?", data.From, data.To)
	}
	if data.OwnerId != 0 {
		query = query.Where("owner_id = ?", data.OwnerId)
	}
	if data.Status != "" {
		query = query.Where("status = ?", data.Status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return common.PaginationResult{}, err
	}

	var list []models.WithdrawalRequest
	if err := query.Order("request_date DESC").Limit(limit).Offset(offset).Find(&list).Error; err != nil {
		return common.PaginationResult{}, err
	}

	var totalAmount int64
	sumQuery := s.DB.Model(&models.WithdrawalRequest{})
	if data.From != "" && data.To != "" {
		sumQuery = sumQuery.Where("request_date BETWEEN ? AND ?", data.From, data.To)
	}
	if data.OwnerId != 0 {
		sumQuery = sumQuery.Where("owner_id = ?", data.OwnerId)
	}
	if data.Status != "" {
		sumQuery = sumQuery.Where("status = ?", data.Status)
	}
	if err := sumQuery.Select("COALESCE(SUM(amount), 0)").Scan(&totalAmount).Error; err != nil {
		return common.PaginationResult{}, err
	}

	return common.PaginateResponse(map[string]interface{}{
		"data":        list,
		"totalAmount": totalAmount,
	}, total, page, limit, "Withdrawal requests fetched successfully"), nil
}
