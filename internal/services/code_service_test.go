package services

import (
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"referral-service/internal/models"
)

func TestIssueCodeCreatesCodeAndAccount(t *testing.T) {
	db := setupTestDB(t)
	svc := NewCodeService(db, testConfig())

	code, err := svc.IssueCode(IssueCodeDTO{
		OwnerId:     1,
		OwnerRole:   models.RoleAlumni,
		DisplayName: "Ahmad Fauzi",
		ActorId:     1,
	})
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(code.Code, "SULTANAH-AHM"), "code %s should carry the name prefix", code.Code)
	assert.Len(t, code.Code, len("SULTANAH-AHM4821"))
	assert.True(t, code.IsActive)
	assert.Equal(t, int64(200000), code.CommissionPerConversion)

	var acct models.ReferralAccount
	require.NoError(t, db.Where("owner_id = ?", 1).First(&acct).Error)
	assert.Equal(t, code.Code, acct.Code)
	assert.Equal(t, 0, acct.TotalReferrals)
	assert.Equal(t, 0, acct.SuccessfulReferrals)
	assert.Equal(t, int64(0), acct.TotalCommission)
}

func TestIssueCodeIdempotent(t *testing.T) {
	db := setupTestDB(t)
	svc := NewCodeService(db, testConfig())

	first, err := svc.IssueCode(IssueCodeDTO{OwnerId: 1, OwnerRole: models.RoleAgent, DisplayName: "Siti", ActorId: 1})
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		again, err := svc.IssueCode(IssueCodeDTO{OwnerId: 1, OwnerRole: models.RoleAgent, DisplayName: "Siti", ActorId: 1})
		require.NoError(t, err)
		assert.Equal(t, first.Code, again.Code)
	}

	var count int64
	db.Model(&models.ReferralCode{}).Where("owner_id = ?", 1).Count(&count)
	assert.Equal(t, int64(1), count)

	db.Model(&models.ReferralAccount{}).Where("owner_id = ?", 1).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestIssueCodeConcurrent(t *testing.T) {
	db := setupTestDB(t)
	svc := NewCodeService(db, testConfig())

	var wg sync.WaitGroup
	codes := make([]string, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			code, err := svc.IssueCode(IssueCodeDTO{OwnerId: 7, OwnerRole: models.RoleAlumni, DisplayName: "Budi", ActorId: 7})
			if err == nil {
				codes[i] = code.Code
			}
		}(i)
	}
	wg.Wait()

	var count int64
	db.Model(&models.ReferralCode{}).Where("owner_id = ? AND is_active = ?", 7, true).Count(&count)
	assert.Equal(t, int64(1), count, "concurrent issuance must produce exactly one active code")

	db.Model(&models.ReferralAccount{}).Where("owner_id = ?", 7).Count(&count)
	assert.Equal(t, int64(1), count)

	seen := ""
	for _, c := range codes {
		if c == "" {
			continue
		}
		if seen == "" {
			seen = c
		}
		assert.Equal(t, seen, c, "all successful calls must return the same code")
	}
}

func TestIssueCodeCollisionRetries(t *testing.T) {
	db := setupTestDB(t)
	svc := NewCodeService(db, testConfig())

	// Another owner already holds every code this display name could draw?
	// Not feasible to exhaust 10k suffixes, but a single pre-existing
	// collision must be skipped, never overwritten.
	first := issueTestCode(t, db, 1, models.RoleAlumni, "Ahmad")

	second, err := svc.IssueCode(IssueCodeDTO{OwnerId: 2, OwnerRole: models.RoleAlumni, DisplayName: "Ahmad", ActorId: 2})
	require.NoError(t, err)
	assert.NotEqual(t, first.Code, second.Code)

	var count int64
	db.Model(&models.ReferralCode{}).Count(&count)
	assert.Equal(t, int64(2), count)
}

func TestIssueCodePermissionDenied(t *testing.T) {
	db := setupTestDB(t)
	svc := NewCodeService(db, testConfig())

	_, err := svc.IssueCode(IssueCodeDTO{OwnerId: 1, OwnerRole: models.RoleAlumni, DisplayName: "Ahmad", ActorId: 99})
	assert.ErrorIs(t, err, ErrPermissionDenied)

	// Admin acting on the owner's behalf is allowed.
	_, err = svc.IssueCode(IssueCodeDTO{OwnerId: 1, OwnerRole: models.RoleAlumni, DisplayName: "Ahmad", ActorId: 99, ActorIsAdmin: true})
	assert.NoError(t, err)
}

func TestIssueCodeRejectsUnqualifiedRole(t *testing.T) {
	db := setupTestDB(t)
	svc := NewCodeService(db, testConfig())

	_, err := svc.IssueCode(IssueCodeDTO{OwnerId: 1, OwnerRole: "influencer", DisplayName: "Ahmad", ActorId: 1})
	assert.Error(t, err)
}

func TestIssueCodeAgentRate(t *testing.T) {
	db := setupTestDB(t)
	code := issueTestCode(t, db, 3, models.RoleAgent, "Rina")
	assert.Equal(t, int64(500000), code.CommissionPerConversion)
}
