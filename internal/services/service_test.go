package services

import (
	"fmt"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"referral-service/internal/config"
	"referral-service/internal/database"
	"referral-service/internal/models"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	// sqlite cannot take concurrent writers; a single pooled connection keeps
	// the concurrency tests exercising the ledger's guards instead of the
	// driver's busy handling.
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("db handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	if err := database.AutoMigrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func testConfig() config.CommissionConfig {
	return config.CommissionConfig{
		AlumniCommission: 200000,
		AgentCommission:  500000,
		MinWithdrawal:    50000,
	}
}

// issueTestCode provisions an owner with an active code and account.
func issueTestCode(t *testing.T, db *gorm.DB, ownerId int, role, displayName string) models.ReferralCode {
	t.Helper()
	svc := NewCodeService(db, testConfig())
	code, err := svc.IssueCode(IssueCodeDTO{
		OwnerId:     ownerId,
		OwnerRole:   role,
		DisplayName: displayName,
		ActorId:     ownerId,
	})
	if err != nil {
		t.Fatalf("issue code: %v", err)
	}
	return code
}

// creditOwner pushes commission onto an owner's balance through the full
// conversion path so account and balance stay consistent.
func creditOwner(t *testing.T, db *gorm.DB, code models.ReferralCode, referredUserId int, amount int64) models.TrackingEntry {
	t.Helper()
	balance := NewBalanceService(db)
	referral := NewReferralService(db, balance)

	entry, err := referral.RecordRegistration(code.OwnerId, referredUserId, code.Code)
	if err != nil {
		t.Fatalf("record registration: %v", err)
	}
	if err := referral.MarkPaymentSubmitted(entry.ID); err != nil {
		t.Fatalf("mark payment submitted: %v", err)
	}
	if err := referral.ApproveConversion(entry.ID, amount); err != nil {
		t.Fatalf("approve conversion: %v", err)
	}
	return entry
}
