package worker

import (
	"encoding/json"

	"github.com/hibiken/asynq"

	"referral-service/internal/consumers"
)

// Task Types
const (
	TypeRoleGranted      = "referral:role-granted"
	TypeSignup           = "referral:signup"
	TypePaymentSubmitted = "referral:payment-submitted"
	TypePaymentApproved  = "referral:payment-approved"
	TypePaymentRejected  = "referral:payment-rejected"
)

// Task Creators

func NewRoleGrantedTask(payload consumers.RoleGrantedDTO) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeRoleGranted, data), nil
}

func NewSignupTask(payload consumers.SignupDTO) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeSignup, data), nil
}

func NewPaymentSubmittedTask(payload consumers.PaymentEventDTO) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypePaymentSubmitted, data), nil
}

func NewPaymentApprovedTask(payload consumers.PaymentEventDTO) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypePaymentApproved, data), nil
}

func NewPaymentRejectedTask(payload consumers.PaymentEventDTO) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypePaymentRejected, data), nil
}
