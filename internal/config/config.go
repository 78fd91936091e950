package config

import (
	"os"
	"strconv"
)

// Commission rates and withdrawal limits are deploy-time configuration, not
// computed by the ledger. Defaults match the current business rules.
const (
	DefaultAlumniCommission = 200000
	DefaultAgentCommission  = 500000
	DefaultMinWithdrawal    = 50000
)

type CommissionConfig struct {
	AlumniCommission int64
	AgentCommission  int64
	MinWithdrawal    int64
	MaxWithdrawal    int64 // 0 means no cap
}

func LoadCommission() CommissionConfig {
	return CommissionConfig{
		AlumniCommission: envInt64("ALUMNI_COMMISSION", DefaultAlumniCommission),
		AgentCommission:  envInt64("AGENT_COMMISSION", DefaultAgentCommission),
		MinWithdrawal:    envInt64("MIN_WITHDRAWAL", DefaultMinWithdrawal),
		MaxWithdrawal:    envInt64("MAX_WITHDRAWAL", 0),
	}
}

// RateForRole returns the per-conversion commission for an owner role.
func (c CommissionConfig) RateForRole(role string) int64 {
	if role == "agent" {
		return c.AgentCommission
	}
	return c.AlumniCommission
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}
