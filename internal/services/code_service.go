package services

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"referral-service/internal/config"
	"referral-service/internal/models"
	"referral-service/pkg/common"
)

// codeIssueAttempts is the random-suffix retry budget. The final attempt uses
// a timestamp-derived suffix so the loop always terminates with a fresh value.
const codeIssueAttempts = 5

// CodeService issues referral codes. Issuance is idempotent per owner and
// safe under concurrent calls: uniqueness lives in the database indexes, not
// in a read-then-write check.
type CodeService struct {
	DB     *gorm.DB
	Config config.CommissionConfig
}

func NewCodeService(db *gorm.DB, cfg config.CommissionConfig) *CodeService {
	return &CodeService{DB: db, Config: cfg}
}

type IssueCodeDTO struct {
	OwnerId     int
	OwnerRole   string
	DisplayName string
	// Caller identity. Issuance is allowed for the owner themself or an admin
	// acting on their behalf.
	ActorId      int
	ActorIsAdmin bool
}

// IssueCode returns the owner's active referral code, creating it on first
// call. The ReferralCode master row and the zero-initialized ReferralAccount
// are created in one transaction so neither can exist without the other.
func (s *CodeService) IssueCode(data IssueCodeDTO) (models.ReferralCode, error) {
	if data.ActorId != data.OwnerId && !data.ActorIsAdmin {
		return models.ReferralCode{}, ErrPermissionDenied
	}
	if data.OwnerRole != models.RoleAlumni && data.OwnerRole != models.RoleAgent {
		return models.ReferralCode{}, fmt.Errorf("%w: role %q does not qualify for a referral code", ErrPermissionDenied, data.OwnerRole)
	}

	if code, ok, err := s.activeCode(data.OwnerId, data.OwnerRole); err != nil {
		return models.ReferralCode{}, err
	} else if ok {
		return code, nil
	}

	prefix := common.NamePrefix(data.DisplayName)
	rate := s.Config.RateForRole(data.OwnerRole)

	for attempt := 0; attempt <= codeIssueAttempts; attempt++ {
		suffix := common.RandomSuffix()
		if attempt == codeIssueAttempts {
			suffix = common.TimestampSuffix()
		}

		rec := models.ReferralCode{
			Code:                    common.FormatCode(prefix, suffix),
			OwnerId:                 data.OwnerId,
			OwnerRole:               data.OwnerRole,
			CommissionPerConversion: rate,
			IsActive:                true,
		}

		err := s.DB.Transaction(func(tx *gorm.DB) error {
			if err := tx.Create(&rec).Error; err != nil {
				return err
			}
			// An owner upgraded from alumni to agent keeps their existing
			// account row; only the first code creates one.
			var acct models.ReferralAccount
			return tx.Where(models.ReferralAccount{OwnerId: data.OwnerId}).
				Attrs(models.ReferralAccount{Code: rec.Code}).
				FirstOrCreate(&acct).Error
		})
		if err == nil {
			return rec, nil
		}
		if !isDuplicateKey(err) {
			return models.ReferralCode{}, err
		}

		// Either a concurrent IssueCode for the same owner won, or the random
		// suffix collided with another owner's code. Re-read to tell them apart.
		if code, ok, rerr := s.activeCode(data.OwnerId, data.OwnerRole); rerr != nil {
			return models.ReferralCode{}, rerr
		} else if ok {
			return code, nil
		}
	}

	return models.ReferralCode{}, ErrCodeSpaceExhausted
}

func (s *CodeService) activeCode(ownerId int, role string) (models.ReferralCode, bool, error) {
	var code models.ReferralCode
	err := s.DB.Where("owner_id = ? AND owner_role = ? AND is_active = ?", ownerId, role, true).
		First(&code).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.ReferralCode{}, false, nil
	}
	if err != nil {
		return models.ReferralCode{}, false, err
	}
	return code, true, nil
}
