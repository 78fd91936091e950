package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"referral-service/internal/models"
)

func TestGetBalanceZeroValueOnMiss(t *testing.T) {
	db := setupTestDB(t)
	balance := NewBalanceService(db)

	bal, err := balance.GetBalance(42)
	require.NoError(t, err)
	assert.Equal(t, 42, bal.OwnerId)
	assert.Equal(t, int64(0), bal.Balance)
	assert.Equal(t, int64(0), bal.TotalEarned)
}

func TestCreditCreatesRow(t *testing.T) {
	db := setupTestDB(t)
	balance := NewBalanceService(db)

	require.NoError(t, balance.Credit(1, 200000, "entry-1", "commission"))

	bal, _ := balance.GetBalance(1)
	assert.Equal(t, int64(200000), bal.Balance)
	assert.Equal(t, int64(200000), bal.TotalEarned)

	require.NoError(t, balance.Credit(1, 500000, "entry-2", "commission"))
	bal, _ = balance.GetBalance(1)
	assert.Equal(t, int64(700000), bal.Balance)
	assert.Equal(t, int64(700000), bal.TotalEarned)
}

func TestReserveInsufficientBalance(t *testing.T) {
	db := setupTestDB(t)
	balance := NewBalanceService(db)

	require.NoError(t, balance.Credit(1, 100000, "entry-1", "commission"))

	err := balance.Reserve(1, 100001, "wr-1")
	assert.ErrorIs(t, err, ErrInsufficientBalance)

	bal, _ := balance.GetBalance(1)
	assert.Equal(t, int64(100000), bal.Balance, "failed reserve must not change the balance")

	// Owner with no row at all.
	err = balance.Reserve(99, 1, "wr-2")
	assert.ErrorIs(t, err, ErrInsufficientBalance)
}

func TestReserveSerializesAgainstOverdraft(t *testing.T) {
	db := setupTestDB(t)
	balance := NewBalanceService(db)

	require.NoError(t, balance.Credit(1, 100000, "entry-1", "commission"))

	// Two reserves that each pass a stale read of 100000 but together overdraw.
	require.NoError(t, balance.Reserve(1, 60000, "wr-1"))
	assert.ErrorIs(t, balance.Reserve(1, 60000, "wr-2"), ErrInsufficientBalance)

	bal, _ := balance.GetBalance(1)
	assert.Equal(t, int64(40000), bal.Balance)
	assert.GreaterOrEqual(t, bal.Balance, int64(0))
}

func TestReserveReleaseSettleConservation(t *testing.T) {
	db := setupTestDB(t)
	balance := NewBalanceService(db)

	require.NoError(t, balance.Credit(1, 500000, "entry-1", "commission"))
	require.NoError(t, balance.Reserve(1, 150000, "wr-1"))
	require.NoError(t, balance.Reserve(1, 100000, "wr-2"))

	// wr-1 rejected, wr-2 confirmed.
	require.NoError(t, balance.Release(1, 150000, "wr-1"))
	require.NoError(t, balance.Settle(1, 100000, "wr-2"))

	bal, _ := balance.GetBalance(1)
	assert.Equal(t, int64(400000), bal.Balance)
	assert.Equal(t, int64(500000), bal.TotalEarned)
	assert.Equal(t, int64(100000), bal.TotalWithdrawn)

	// No reservations remain, so conservation reduces to earned - withdrawn.
	assert.Equal(t, bal.TotalEarned-bal.TotalWithdrawn, bal.Balance)
}

func TestCommissionEventsJournal(t *testing.T) {
	db := setupTestDB(t)
	balance := NewBalanceService(db)

	require.NoError(t, balance.Credit(1, 300000, "entry-1", "commission"))
	require.NoError(t, balance.Reserve(1, 100000, "wr-1"))
	require.NoError(t, balance.Release(1, 100000, "wr-1"))

	events, err := balance.ListEvents(1)
	require.NoError(t, err)
	require.Len(t, events, 3)

	// Newest first.
	assert.Equal(t, models.EventRelease, events[0].EventType)
	assert.Equal(t, int64(300000), events[0].BalanceAfter)
	assert.Equal(t, models.EventReserve, events[1].EventType)
	assert.Equal(t, int64(200000), events[1].BalanceAfter)
	assert.Equal(t, models.EventCredit, events[2].EventType)
	assert.Equal(t, int64(300000), events[2].BalanceAfter)

	for _, e := range events {
		assert.GreaterOrEqual(t, e.BalanceAfter, int64(0))
	}
}
