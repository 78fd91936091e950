package services

import (
	"errors"
	"log"
	"strings"

	"gorm.io/gorm"

	"referral-service/internal/models"
)

// BalanceService owns every mutation of the per-owner commission balance.
// Credit is called only by the conversion transition, reserve/release/settle
// only by the withdrawal workflow. Each mutation appends a CommissionEvent row
// in the same transaction.
type BalanceService struct {
	DB *gorm.DB
}

func NewBalanceService(db *gorm.DB) *BalanceService {
	return &BalanceService{DB: db}
}

// GetBalance reads the owner's balance. A missing row reads as a zero-value
// balance, not an error: an owner legitimately has no row before the first
// credit.
func (s *BalanceService) GetBalance(ownerId int) (models.Balance, error) {
	var bal models.Balance
	err := s.DB.Where("owner_id = ?", ownerId).First(&bal).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.Balance{OwnerId: ownerId}, nil
	}
	if err != nil {
		return models.Balance{}, err
	}
	return bal, nil
}

// ListEvents returns the owner's commission journal, newest first.
func (s *BalanceService) ListEvents(ownerId int) ([]models.CommissionEvent, error) {
	var events []models.CommissionEvent
	err := s.DB.Where("owner_id = ?", ownerId).Order("created_at DESC, id DESC").Find(&events).Error
	return events, err
}

func (s *BalanceService) Credit(ownerId int, amount int64, reference, description string) error {
	return s.DB.Transaction(func(tx *gorm.DB) error {
		return s.CreditTx(tx, ownerId, amount, reference, description)
	})
}

// CreditTx credits balance and total_earned inside the caller's transaction.
// The row is created on first credit; creation races resolve through the
// unique owner_id index.
func (s *BalanceService) CreditTx(tx *gorm.DB, ownerId int, amount int64, reference, description string) error {
	if err := s.ensureRowTx(tx, ownerId); err != nil {
		return err
	}

	res := tx.Model(&models.Balance{}).
		Where("owner_id = ?", ownerId).
		UpdateColumns(map[string]interface{}{
			"balance":      gorm.Expr("balance + ?", amount),
			"total_earned": gorm.Expr("total_earned + ?", amount),
		})
	if res.Error != nil {
		return res.Error
	}

	return s.appendEventTx(tx, ownerId, models.EventCredit, amount, reference, description)
}

func (s *BalanceService) Reserve(ownerId int, amount int64, reference string) error {
	return s.DB.Transaction(func(tx *gorm.DB) error {
		return s.ReserveTx(tx, ownerId, amount, reference)
	})
}

// ReserveTx debits the available balance for a pending withdrawal. The
// sufficiency check and the debit are one guarded UPDATE, so two concurrent
// reserves against the same stale balance cannot jointly overdraw.
func (s *BalanceService) ReserveTx(tx *gorm.DB, ownerId int, amount int64, reference string) error {
	res := tx.Model(&models.Balance{}).
		Where("owner_id = ? AND balance >= ?", ownerId, amount).
		UpdateColumn("balance", gorm.Expr("balance - ?", amount))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrInsufficientBalance
	}

	return s.appendEventTx(tx, ownerId, models.EventReserve, amount, reference, "withdrawal reservation")
}

func (s *BalanceService) Release(ownerId int, amount int64, reference string) error {
	return s.DB.Transaction(func(tx *gorm.DB) error {
		return s.ReleaseTx(tx, ownerId, amount, reference)
	})
}

// ReleaseTx returns a reserved amount to the available balance after a
// withdrawal rejection. Exactly-once semantics are enforced by the caller's
// guarded status transition, not here.
func (s *BalanceService) ReleaseTx(tx *gorm.DB, ownerId int, amount int64, reference string) error {
	res := tx.Model(&models.Balance{}).
		Where("owner_id = ?", ownerId).
		UpdateColumn("balance", gorm.Expr("balance + ?", amount))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}

	return s.appendEventTx(tx, ownerId, models.EventRelease, amount, reference, "withdrawal rejected, reservation released")
}

func (s *BalanceService) Settle(ownerId int, amount int64, reference string) error {
	return s.DB.Transaction(func(tx *gorm.DB) error {
		return s.SettleTx(tx, ownerId, amount, reference)
	})
}

// SettleTx moves a reserved amount into total_withdrawn permanently. The
// available balance was already debited at reservation time.
func (s *BalanceService) SettleTx(tx *gorm.DB, ownerId int, amount int64, reference string) error {
	res := tx.Model(&models.Balance{}).
		Where("owner_id = ?", ownerId).
		UpdateColumn("total_withdrawn", gorm.Expr("total_withdrawn + ?", amount))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}

	return s.appendEventTx(tx, ownerId, models.EventSettle, amount, reference, "withdrawal confirmed")
}

// reverseTx undoes a past credit. Only the defensive path in the tracking
// ledger uses it, for an entry found converted when a rejection arrives. The
// debit is guarded so the balance cannot go negative; if part of the credit
// was already withdrawn the remainder is clamped and logged.
func (s *BalanceService) reverseTx(tx *gorm.DB, ownerId int, amount int64, reference string) error {
	res := tx.Model(&models.Balance{}).
		Where("owner_id = ? AND balance >= ?", ownerId, amount).
		UpdateColumns(map[string]interface{}{
			"balance":      gorm.Expr("balance - ?", amount),
			"total_earned": gorm.Expr("total_earned - ?", amount),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		var bal models.Balance
		if err := tx.Where("owner_id = ?", ownerId).First(&bal).Error; err != nil {
			return err
		}
		log.Printf("reversal of %d for owner %d exceeds available balance %d; clamping", amount, ownerId, bal.Balance)
		res = tx.Model(&models.Balance{}).
			Where("owner_id = ?", ownerId).
			UpdateColumns(map[string]interface{}{
				"balance":      gorm.Expr("balance - ?", bal.Balance),
				"total_earned": gorm.Expr("total_earned - ?", amount),
			})
		if res.Error != nil {
			return res.Error
		}
	}

	return s.appendEventTx(tx, ownerId, models.EventRelease, -amount, reference, "conversion reversed")
}

func (s *BalanceService) ensureRowTx(tx *gorm.DB, ownerId int) error {
	var bal models.Balance
	err := tx.Where("owner_id = ?", ownerId).First(&bal).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	if err := tx.Create(&models.Balance{OwnerId: ownerId}).Error; err != nil {
		if isDuplicateKey(err) {
			return nil
		}
		return err
	}
	return nil
}

func (s *BalanceService) appendEventTx(tx *gorm.DB, ownerId int, eventType string, amount int64, reference, description string) error {
	var bal models.Balance
	if err := tx.Where("owner_id = ?", ownerId).First(&bal).Error; err != nil {
		return err
	}

	return tx.Create(&models.CommissionEvent{
		OwnerId:      ownerId,
		EventType:    eventType,
		Amount:       amount,
		BalanceAfter: bal.Balance,
		Reference:    reference,
		Description:  description,
	}).Error
}

// isDuplicateKey detects unique index violations across the mysql and sqlite
// drivers without relying on gorm error translation.
func isDuplicateKey(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "Duplicate entry") || strings.Contains(msg, "UNIQUE constraint")
}
