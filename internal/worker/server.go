package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"github.com/hibiken/asynq"

	"referral-service/internal/consumers"
	"referral-service/internal/services"
)

type Worker struct {
	Processor *consumers.ReferralProcessor
}

func NewWorker(processor *consumers.ReferralProcessor) *Worker {
	return &Worker{Processor: processor}
}

func (w *Worker) HandleRoleGranted(ctx context.Context, t *asynq.Task) error {
	var p consumers.RoleGrantedDTO
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return fmt.Errorf("json.Unmarshal failed: %v: %w", err, asynq.SkipRetry)
	}
	return terminal(w.Processor.ProcessRoleGranted(p))
}

func (w *Worker) HandleSignup(ctx context.Context, t *asynq.Task) error {
	var p consumers.SignupDTO
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return fmt.Errorf("json.Unmarshal failed: %v: %w", err, asynq.SkipRetry)
	}
	return terminal(w.Processor.ProcessSignup(p))
}

func (w *Worker) HandlePaymentSubmitted(ctx context.Context, t *asynq.Task) error {
	var p consumers.PaymentEventDTO
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return fmt.Errorf("json.Unmarshal failed: %v: %w", err, asynq.SkipRetry)
	}
	return terminal(w.Processor.ProcessPaymentSubmitted(p))
}

func (w *Worker) HandlePaymentApproved(ctx context.Context, t *asynq.Task) error {
	var p consumers.PaymentEventDTO
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return fmt.Errorf("json.Unmarshal failed: %v: %w", err, asynq.SkipRetry)
	}
	return terminal(w.Processor.ProcessPaymentApproved(p))
}

func (w *Worker) HandlePaymentRejected(ctx context.Context, t *asynq.Task) error {
	var p consumers.PaymentEventDTO
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return fmt.Errorf("json.Unmarshal failed: %v: %w", err, asynq.SkipRetry)
	}
	return terminal(w.Processor.ProcessPaymentRejected(p))
}

// terminal marks ordering bugs and spoofed codes as non-retryable: redelivery
// cannot fix them and the error still surfaces in the task result.
func terminal(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, services.ErrInvalidTransition) ||
		errors.Is(err, services.ErrInvalidCode) ||
		errors.Is(err, services.ErrNotFound) ||
		errors.Is(err, services.ErrPermissionDenied) {
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	}
	return err
}

// StartWorker runs the asynq server until it is signalled to stop.
func StartWorker(redisOpt asynq.RedisClientOpt, processor *consumers.ReferralProcessor) {
	srv := asynq.NewServer(
		redisOpt,
		asynq.Config{
			Concurrency: 10,
			Queues: map[string]int{
				"critical": 6,
				"default":  3,
				"low":      1,
			},
		},
	)

	worker := NewWorker(processor)
	mux := asynq.NewServeMux()

	mux.HandleFunc(TypeRoleGranted, worker.HandleRoleGranted)
	mux.HandleFunc(TypeSignup, worker.HandleSignup)
	mux.HandleFunc(TypePaymentSubmitted, worker.HandlePaymentSubmitted)
	mux.HandleFunc(TypePaymentApproved, worker.HandlePaymentApproved)
	mux.HandleFunc(TypePaymentRejected, worker.HandlePaymentRejected)

	if err := srv.Run(mux); err != nil {
		log.Fatalf("could not run server: %v", err)
	}
}
