package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"referral-service/internal/models"
)

// ReferralService is the tracking ledger: one entry per referred signup, a
// state machine from registered through payment_submitted to converted or
// payment_rejected. The payment_submitted -> converted transition is the only
// code path that credits a balance.
type ReferralService struct {
	DB      *gorm.DB
	Balance *BalanceService
}

func NewReferralService(db *gorm.DB, balance *BalanceService) *ReferralService {
	return &ReferralService{DB: db, Balance: balance}
}

// LookupOwnerByCode resolves a shared code to its owner. A code whose account
// row has not materialized yet reads as not found rather than half-issued.
func (s *ReferralService) LookupOwnerByCode(code string) (models.ReferralCode, error) {
	var rec models.ReferralCode
	err := s.DB.Where("code = ? AND is_active = ?", code, true).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.ReferralCode{}, ErrNotFound
	}
	if err != nil {
		return models.ReferralCode{}, err
	}

	var n int64
	if err := s.DB.Model(&models.ReferralAccount{}).Where("owner_id = ?", rec.OwnerId).Count(&n).Error; err != nil {
		return models.ReferralCode{}, err
	}
	if n == 0 {
		return models.ReferralCode{}, ErrNotFound
	}
	return rec, nil
}

// GetAccount reads the owner's referral totals. A missing row reads as
// zero-value, same soft-fail as GetBalance.
func (s *ReferralService) GetAccount(ownerId int) (models.ReferralAccount, error) {
	var acct models.ReferralAccount
	err := s.DB.Where("owner_id = ?", ownerId).First(&acct).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.ReferralAccount{OwnerId: ownerId}, nil
	}
	if err != nil {
		return models.ReferralAccount{}, err
	}
	return acct, nil
}

// ListTrackingEntries returns the owner's referred signups, newest first.
func (s *ReferralService) ListTrackingEntries(ownerId int) ([]models.TrackingEntry, error) {
	var entries []models.TrackingEntry
	err := s.DB.Where("referrer_id = ?", ownerId).Order("created_at DESC").Find(&entries).Error
	return entries, err
}

// CommissionForEntry resolves the per-conversion rate fixed on the code the
// entry was registered under. Used when the approval event carries no explicit
// amount.
func (s *ReferralService) CommissionForEntry(entryId string) (int64, error) {
	var entry models.TrackingEntry
	if err := s.DB.Where("id = ?", entryId).First(&entry).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, ErrNotFound
		}
		return 0, err
	}

	var code models.ReferralCode
	if err := s.DB.Where("code = ?", entry.ReferralCode).First(&code).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, ErrNotFound
		}
		return 0, err
	}
	return code.CommissionPerConversion, nil
}

// RecordRegistration creates a tracking entry for a signup that used the given
// code. The code must resolve to the claimed referrer; a mismatch is rejected
// so a signup cannot pin its registration on an owner the code does not
// belong to.
func (s *ReferralService) RecordRegistration(referrerId, referredUserId int, code string) (models.TrackingEntry, error) {
	rec, err := s.LookupOwnerByCode(code)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return models.TrackingEntry{}, ErrInvalidCode
		}
		return models.TrackingEntry{}, err
	}
	if rec.OwnerId != referrerId {
		return models.TrackingEntry{}, ErrInvalidCode
	}

	entry := models.TrackingEntry{
		ID:             uuid.NewString(),
		ReferrerId:     referrerId,
		ReferredUserId: referredUserId,
		ReferralCode:   code,
		Status:         models.TrackingRegistered,
	}

	err = s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&entry).Error; err != nil {
			return err
		}
		return tx.Model(&models.ReferralAccount{}).
			Where("owner_id = ?", referrerId).
			UpdateColumn("total_referrals", gorm.Expr("total_referrals + ?", 1)).Error
	})
	if err != nil {
		if isDuplicateKey(err) {
			return models.TrackingEntry{}, fmt.Errorf("user %d is already referred: %w", referredUserId, err)
		}
		return models.TrackingEntry{}, err
	}
	return entry, nil
}

// MarkPaymentSubmitted moves an entry from registered to payment_submitted.
// Duplicate notifications from the payment collaborator arrive at-least-once,
// so an entry already at or past payment_submitted is a no-op, not an error.
func (s *ReferralService) MarkPaymentSubmitted(entryId string) error {
	res := s.DB.Model(&models.TrackingEntry{}).
		Where("id = ? AND status = ?", entryId, models.TrackingRegistered).
		UpdateColumn("status", models.TrackingPaymentSubmitted)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		var n int64
		if err := s.DB.Model(&models.TrackingEntry{}).Where("id = ?", entryId).Count(&n).Error; err != nil {
			return err
		}
		if n == 0 {
			return ErrNotFound
		}
	}
	return nil
}

// ApproveConversion finalizes a referred signup whose payment was approved.
// The status transition, the account totals and the balance credit are one
// database transaction, and the transition itself is a guarded UPDATE on the
// current status: a second approval finds the entry already converted and
// returns without touching the balance.
func (s *ReferralService) ApproveConversion(entryId string, commissionAmount int64) error {
	return s.DB.Transaction(func(tx *gorm.DB) error {
		var entry models.TrackingEntry
		if err := tx.Where("id = ?", entryId).First(&entry).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}

		now := time.Now()
		res := tx.Model(&models.TrackingEntry{}).
			Where("id = ? AND status = ?", entryId, models.TrackingPaymentSubmitted).
			UpdateColumns(map[string]interface{}{
				"status":            models.TrackingConverted,
				"commission_amount": commissionAmount,
				"converted_at":      now,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			// Re-read: a concurrent approval may have landed between the
			// initial read and the guarded update.
			if err := tx.Where("id = ?", entryId).First(&entry).Error; err != nil {
				return err
			}
			if entry.Status == models.TrackingConverted {
				// Retry of an already-applied approval.
				return nil
			}
			return fmt.Errorf("%w: approve from %s", ErrInvalidTransition, entry.Status)
		}

		res = tx.Model(&models.ReferralAccount{}).
			Where("owner_id = ?", entry.ReferrerId).
			UpdateColumns(map[string]interface{}{
				"successful_referrals": gorm.Expr("successful_referrals + ?", 1),
				"total_commission":     gorm.Expr("total_commission + ?", commissionAmount),
			})
		if res.Error != nil {
			return res.Error
		}

		return s.Balance.CreditTx(tx, entry.ReferrerId, commissionAmount, entry.ID,
			fmt.Sprintf("commission for referral %s", entry.ReferralCode))
	})
}

// RejectConversion marks a payment as rejected. No commission was credited, so
// there is no balance effect. An entry found already converted should be
// impossible under the state machine, but is defended against: the credit is
// reversed and the account totals walked back.
func (s *ReferralService) RejectConversion(entryId string) error {
	return s.DB.Transaction(func(tx *gorm.DB) error {
		var entry models.TrackingEntry
		if err := tx.Where("id = ?", entryId).First(&entry).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}

		res := tx.Model(&models.TrackingEntry{}).
			Where("id = ? AND status = ?", entryId, models.TrackingPaymentSubmitted).
			UpdateColumn("status", models.TrackingPaymentRejected)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected > 0 {
			return nil
		}

		if err := tx.Where("id = ?", entryId).First(&entry).Error; err != nil {
			return err
		}

		switch entry.Status {
		case models.TrackingPaymentRejected:
			// Retry of an already-applied rejection.
			return nil
		case models.TrackingConverted:
			return s.reverseConversionTx(tx, entry)
		default:
			return fmt.Errorf("%w: reject from %s", ErrInvalidTransition, entry.Status)
		}
	})
}

func (s *ReferralService) reverseConversionTx(tx *gorm.DB, entry models.TrackingEntry) error {
	res := tx.Model(&models.TrackingEntry{}).
		Where("id = ? AND status = ?", entry.ID, models.TrackingConverted).
		UpdateColumns(map[string]interface{}{
			"status":            models.TrackingPaymentRejected,
			"commission_amount": 0,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return nil
	}

	res = tx.Model(&models.ReferralAccount{}).
		Where("owner_id = ?", entry.ReferrerId).
		UpdateColumns(map[string]interface{}{
			"successful_referrals": gorm.Expr("successful_referrals - ?", 1),
			"total_commission":     gorm.Expr("total_commission - ?", entry.CommissionAmount),
		})
	if res.Error != nil {
		return res.Error
	}

	return s.Balance.reverseTx(tx, entry.ReferrerId, entry.CommissionAmount, entry.ID)
}
