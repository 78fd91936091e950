package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"referral-service/internal/models"
)

func bankPayout() PayoutMethodDTO {
	return PayoutMethodDTO{
		BankName:      "Bank Syariah Indonesia",
		AccountNumber: "7120043321",
		AccountName:   "Ahmad Fauzi",
	}
}

func ewalletPayout() PayoutMethodDTO {
	return PayoutMethodDTO{
		EwalletName:   "GoPay",
		EwalletNumber: "081234567890",
	}
}

func setupFundedOwner(t *testing.T, amount int64) (*WithdrawalService, *BalanceService) {
	t.Helper()
	db := setupTestDB(t)
	code := issueTestCode(t, db, 1, models.RoleAlumni, "Ahmad")
	creditOwner(t, db, code, 50, amount)

	balance := NewBalanceService(db)
	return NewWithdrawalService(db, balance, testConfig()), balance
}

func TestRequestWithdrawalDebitsImmediately(t *testing.T) {
	svc, balance := setupFundedOwner(t, 200000)

	req, err := svc.RequestWithdrawal(1, 150000, bankPayout())
	require.NoError(t, err)
	assert.Equal(t, models.WithdrawalPending, req.Status)
	assert.Equal(t, int64(150000), req.Amount)
	assert.Equal(t, models.PayoutBankTransfer, req.PayoutMethod)

	bal, _ := balance.GetBalance(1)
	assert.Equal(t, int64(50000), bal.Balance)
	assert.Equal(t, int64(0), bal.TotalWithdrawn, "settle happens on confirmation, not request")
}

func TestRequestWithdrawalInsufficientBalance(t *testing.T) {
	svc, balance := setupFundedOwner(t, 200000)

	_, err := svc.RequestWithdrawal(1, 300000, bankPayout())
	assert.ErrorIs(t, err, ErrInsufficientBalance)

	bal, _ := balance.GetBalance(1)
	assert.Equal(t, int64(200000), bal.Balance, "failed request must leave balance unchanged")

	var count int64
	svc.DB.Model(&models.WithdrawalRequest{}).Count(&count)
	assert.Equal(t, int64(0), count, "no partial request may be stored")
}

func TestRequestWithdrawalBelowMinimum(t *testing.T) {
	svc, _ := setupFundedOwner(t, 200000)

	_, err := svc.RequestWithdrawal(1, 49999, bankPayout())
	assert.ErrorIs(t, err, ErrBelowMinimum)

	_, err = svc.RequestWithdrawal(1, 0, bankPayout())
	assert.ErrorIs(t, err, ErrBelowMinimum)

	_, err = svc.RequestWithdrawal(1, -50000, bankPayout())
	assert.ErrorIs(t, err, ErrBelowMinimum)
}

func TestRequestWithdrawalPayoutValidation(t *testing.T) {
	svc, _ := setupFundedOwner(t, 500000)

	// Neither method.
	_, err := svc.RequestWithdrawal(1, 50000, PayoutMethodDTO{})
	assert.ErrorIs(t, err, ErrInvalidPayout)

	// Both methods.
	both := bankPayout()
	both.EwalletName = "GoPay"
	both.EwalletNumber = "081234567890"
	_, err = svc.RequestWithdrawal(1, 50000, both)
	assert.ErrorIs(t, err, ErrInvalidPayout)

	// Incomplete bank fields.
	partial := bankPayout()
	partial.AccountName = ""
	_, err = svc.RequestWithdrawal(1, 50000, partial)
	assert.ErrorIs(t, err, ErrInvalidPayout)

	// E-wallet alone is fine.
	req, err := svc.RequestWithdrawal(1, 50000, ewalletPayout())
	require.NoError(t, err)
	assert.Equal(t, models.PayoutEwallet, req.PayoutMethod)
}

func TestConfirmWithdrawal(t *testing.T) {
	svc, balance := setupFundedOwner(t, 200000)

	req, _ := svc.RequestWithdrawal(1, 150000, bankPayout())
	require.NoError(t, svc.Confirm(req.ID, "admin-7"))

	var updated models.WithdrawalRequest
	svc.DB.Where("id = ?", req.ID).First(&updated)
	assert.Equal(t, models.WithdrawalConfirmed, updated.Status)
	assert.NotNil(t, updated.ProcessedDate)
	assert.Equal(t, "admin-7", updated.ProcessedBy)

	bal, _ := balance.GetBalance(1)
	assert.Equal(t, int64(50000), bal.Balance)
	assert.Equal(t, int64(150000), bal.TotalWithdrawn)

	// Re-confirming is a no-op.
	require.NoError(t, svc.Confirm(req.ID, "admin-7"))
	bal, _ = balance.GetBalance(1)
	assert.Equal(t, int64(150000), bal.TotalWithdrawn)
}

func TestRejectWithdrawalRestoresExactlyOnce(t *testing.T) {
	svc, balance := setupFundedOwner(t, 200000)

	req, _ := svc.RequestWithdrawal(1, 150000, bankPayout())

	bal, _ := balance.GetBalance(1)
	require.Equal(t, int64(50000), bal.Balance)

	require.NoError(t, svc.Reject(req.ID, "admin-7"))
	bal, _ = balance.GetBalance(1)
	assert.Equal(t, int64(200000), bal.Balance, "rejection must restore the reserved amount")
	assert.Equal(t, int64(0), bal.TotalWithdrawn)

	// Retried rejection must not credit a second time.
	require.NoError(t, svc.Reject(req.ID, "admin-7"))
	bal, _ = balance.GetBalance(1)
	assert.Equal(t, int64(200000), bal.Balance)
}

func TestConfirmRejectCrossTransitions(t *testing.T) {
	svc, _ := setupFundedOwner(t, 500000)

	confirmed, _ := svc.RequestWithdrawal(1, 100000, bankPayout())
	require.NoError(t, svc.Confirm(confirmed.ID, "admin-7"))
	assert.ErrorIs(t, svc.Reject(confirmed.ID, "admin-7"), ErrInvalidTransition)

	rejected, _ := svc.RequestWithdrawal(1, 100000, bankPayout())
	require.NoError(t, svc.Reject(rejected.ID, "admin-7"))
	assert.ErrorIs(t, svc.Confirm(rejected.ID, "admin-7"), ErrInvalidTransition)

	assert.ErrorIs(t, svc.Confirm("no-such-request", "admin-7"), ErrNotFound)
	assert.ErrorIs(t, svc.Reject("no-such-request", "admin-7"), ErrNotFound)
}

func TestFetchOwnerWithdrawals(t *testing.T) {
	svc, _ := setupFundedOwner(t, 500000)

	first, _ := svc.RequestWithdrawal(1, 100000, bankPayout())
	svc.RequestWithdrawal(1, 100000, ewalletPayout())
	require.NoError(t, svc.Confirm(first.ID, "admin-7"))

	all, err := svc.FetchOwnerWithdrawals(FetchWithdrawalsDTO{OwnerId: 1})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	pending, err := svc.FetchOwnerWithdrawals(FetchWithdrawalsDTO{OwnerId: 1, Pending: true})
	require.NoError(t, err)
	assert.Len(t, pending, 1)
}

func TestListWithdrawalRequests(t *testing.T) {
	svc, _ := setupFundedOwner(t, 500000)

	svc.RequestWithdrawal(1, 100000, bankPayout())
	svc.RequestWithdrawal(1, 150000, ewalletPayout())

	result, err := svc.ListWithdrawalRequests(ListWithdrawalRequestsDTO{Status: models.WithdrawalPending})
	require.NoError(t, err)
	assert.Equal(t, int64(2), result.Count)

	data := result.Data.(map[string]interface{})
	assert.Equal(t, int64(250000), data["totalAmount"])
}

func TestListWithdrawalRequestsOwnerFilterScopesTotal(t *testing.T) {
	db := setupTestDB(t)
	alumni := issueTestCode(t, db, 1, models.RoleAlumni, "Ahmad")
	agent := issueTestCode(t, db, 2, models.RoleAgent, "Bilal")
	creditOwner(t, db, alumni, 50, 200000)
	creditOwner(t, db, agent, 51, 500000)

	svc := NewWithdrawalService(db, NewBalanceService(db), testConfig())
	_, err := svc.RequestWithdrawal(1, 150000, bankPayout())
	require.NoError(t, err)
	_, err = svc.RequestWithdrawal(2, 400000, ewalletPayout())
	require.NoError(t, err)

	result, err := svc.ListWithdrawalRequests(ListWithdrawalRequestsDTO{OwnerId: 1})
	require.NoError(t, err)
	assert.Equal(t, int64(1), result.Count)

	// The header total must be scoped the same way as the rows.
	data := result.Data.(map[string]interface{})
	assert.Equal(t, int64(150000), data["totalAmount"])
}
