package services

import "errors"

// Ledger error taxonomy. State-machine and balance violations are always
// surfaced to the caller; read-path misses on Balance/ReferralAccount are
// handled as zero-value reads instead (see BalanceService.GetBalance).
var (
	ErrPermissionDenied    = errors.New("caller is not authorized for the target owner")
	ErrInvalidCode         = errors.New("referral code does not resolve to the claimed referrer")
	ErrInvalidTransition   = errors.New("state transition not allowed from current status")
	ErrInsufficientBalance = errors.New("withdrawal amount exceeds available balance")
	ErrNotFound            = errors.New("record not found")
	ErrInvalidPayout       = errors.New("exactly one payout method must be provided")
	ErrBelowMinimum        = errors.New("withdrawal amount is below the minimum threshold")
	ErrCodeSpaceExhausted  = errors.New("referral code space exhausted after retries")
)
