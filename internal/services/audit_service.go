package services

import (
	"log"

	"github.com/robfig/cron/v3"
	"gorm.io/gorm"

	"referral-service/internal/models"
)

// AuditService recomputes the ledger invariants per owner and logs any drift.
// It never mutates anything: drift means a bug elsewhere, and the fix belongs
// there, not in a background repair job.
type AuditService struct {
	DB *gorm.DB
}

func NewAuditService(db *gorm.DB) *AuditService {
	return &AuditService{DB: db}
}

// DriftReport describes one owner whose ledger failed a reconciliation check.
type DriftReport struct {
	OwnerId  int    `json:"owner_id"`
	Check    string `json:"check"`
	Expected int64  `json:"expected"`
	Actual   int64  `json:"actual"`
}

// Reconcile verifies, for every owner holding a balance row:
//   - balance == total_earned - total_withdrawn - sum(pending withdrawals)
//   - account.total_commission == sum(commission of converted entries)
//   - account.total_commission == balance.total_earned (absent reversals)
func (s *AuditService) Reconcile() ([]DriftReport, error) {
	var balances []models.Balance
	if err := s.DB.Find(&balances).Error; err != nil {
		return nil, err
	}

	var drift []DriftReport
	for _, bal := range balances {
		var pending int64
		err := s.DB.Model(&models.WithdrawalRequest{}).
			Where("owner_id = ? AND status = ?", bal.OwnerId, models.WithdrawalPending).
			Select("COALESCE(SUM(amount), 0)").Scan(&pending).Error
		if err != nil {
			return nil, err
		}

		if expected := bal.TotalEarned - bal.TotalWithdrawn - pending; expected != bal.Balance {
			drift = append(drift, DriftReport{
				OwnerId:  bal.OwnerId,
				Check:    "conservation",
				Expected: expected,
				Actual:   bal.Balance,
			})
		}

		var converted int64
		err = s.DB.Model(&models.TrackingEntry{}).
			Where("referrer_id = ? AND status = ?", bal.OwnerId, models.TrackingConverted).
			Select("COALESCE(SUM(commission_amount), 0)").Scan(&converted).Error
		if err != nil {
			return nil, err
		}

		var acct models.ReferralAccount
		if err := s.DB.Where("owner_id = ?", bal.OwnerId).First(&acct).Error; err == nil {
			if acct.TotalCommission != converted {
				drift = append(drift, DriftReport{
					OwnerId:  bal.OwnerId,
					Check:    "total_commission",
					Expected: converted,
					Actual:   acct.TotalCommission,
				})
			}
			if acct.TotalCommission != bal.TotalEarned {
				drift = append(drift, DriftReport{
					OwnerId:  bal.OwnerId,
					Check:    "earned_mirror",
					Expected: acct.TotalCommission,
					Actual:   bal.TotalEarned,
				})
			}
		}
	}

	return drift, nil
}

func (s *AuditService) runScheduled() {
	drift, err := s.Reconcile()
	if err != nil {
		log.Printf("Error during ledger reconciliation: %v", err)
		return
	}
	if len(drift) == 0 {
		log.Println("Ledger reconciliation clean")
		return
	}
	for _, d := range drift {
		log.Printf("LEDGER DRIFT owner=%d check=%s expected=%d actual=%d", d.OwnerId, d.Check, d.Expected, d.Actual)
	}
}

// StartScheduler runs the reconciliation nightly at 01:00.
func (s *AuditService) StartScheduler() {
	c := cron.New()
	_, err := c.AddFunc("0 1 * * *", func() {
		log.Println("Running scheduled ledger reconciliation...")
		s.runScheduled()
	})
	if err != nil {
		log.Printf("Error scheduling reconciliation task: %v", err)
		return
	}
	c.Start()
	log.Println("Ledger Reconciliation Scheduler started (Daily at 01:00)")
}
