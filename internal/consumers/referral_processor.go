package consumers

import (
	"log"

	"referral-service/internal/services"
)

// ReferralProcessor applies inbound collaborator events to the ledger. Every
// handler is idempotent, so the queue's at-least-once delivery is safe.
type ReferralProcessor struct {
	Code     *services.CodeService
	Referral *services.ReferralService
}

func NewReferralProcessor(code *services.CodeService, referral *services.ReferralService) *ReferralProcessor {
	return &ReferralProcessor{Code: code, Referral: referral}
}

// --- DTOs ---

// RoleGrantedDTO arrives when a user becomes alumni (trip completed) or agent
// (upgrade accepted).
type RoleGrantedDTO struct {
	OwnerId     int    `json:"ownerId"`
	Role        string `json:"role"`
	DisplayName string `json:"displayName"`
}

// SignupDTO arrives when a new user registers with a referral code.
type SignupDTO struct {
	NewUserId  int    `json:"newUserId"`
	ReferrerId int    `json:"referrerId"`
	Code       string `json:"code"`
}

// PaymentEventDTO arrives from the payment/admin-approval collaborator.
// Amount is only set on approval.
type PaymentEventDTO struct {
	EntryId string `json:"entryId"`
	Amount  int64  `json:"amount,omitempty"`
}

// --- Handlers ---

func (p *ReferralProcessor) ProcessRoleGranted(data RoleGrantedDTO) error {
	code, err := p.Code.IssueCode(services.IssueCodeDTO{
		OwnerId:      data.OwnerId,
		OwnerRole:    data.Role,
		DisplayName:  data.DisplayName,
		ActorId:      data.OwnerId,
		ActorIsAdmin: true,
	})
	if err != nil {
		log.Printf("Failed to issue referral code for owner %d: %v", data.OwnerId, err)
		return err
	}
	log.Printf("Referral code %s active for owner %d", code.Code, data.OwnerId)
	return nil
}

func (p *ReferralProcessor) ProcessSignup(data SignupDTO) error {
	entry, err := p.Referral.RecordRegistration(data.ReferrerId, data.NewUserId, data.Code)
	if err != nil {
		log.Printf("Failed to record registration for user %d with code %s: %v", data.NewUserId, data.Code, err)
		return err
	}
	log.Printf("Tracking entry %s registered for referrer %d", entry.ID, entry.ReferrerId)
	return nil
}

func (p *ReferralProcessor) ProcessPaymentSubmitted(data PaymentEventDTO) error {
	return p.Referral.MarkPaymentSubmitted(data.EntryId)
}

func (p *ReferralProcessor) ProcessPaymentApproved(data PaymentEventDTO) error {
	amount := data.Amount
	if amount <= 0 {
		// Approval events may omit the amount; fall back to the rate frozen
		// on the referral code so the entry is never converted with zero.
		var err error
		amount, err = p.Referral.CommissionForEntry(data.EntryId)
		if err != nil {
			log.Printf("Failed to resolve commission for entry %s: %v", data.EntryId, err)
			return err
		}
	}
	return p.Referral.ApproveConversion(data.EntryId, amount)
}

func (p *ReferralProcessor) ProcessPaymentRejected(data PaymentEventDTO) error {
	return p.Referral.RejectConversion(data.EntryId)
}
