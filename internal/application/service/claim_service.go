package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/campushq/claimflow/internal/application/dispatcher"
	"github.com/campushq/claimflow/internal/application/port"
	"github.com/campushq/claimflow/internal/domain/calculator"
	"github.com/campushq/claimflow/internal/domain/entity"
	"github.com/campushq/claimflow/internal/domain/event"
	"github.com/campushq/claimflow/internal/domain/workflow"
)

// ClaimService owns the authoritative collection of claims and enforces the
// claim lifecycle. All mutations are atomic: the status change, timestamps,
// chain append, and audit append commit together or not at all. Decisions on
// the same claim serialize through a per-claim lock so two approvers can
// never occupy the same level.
type ClaimService interface {
	Submit(ctx context.Context, submitterID string, policyID int64, amount decimal.Decimal, description string, receipts []string) (*entity.Claim, error)
	RecordDecision(ctx context.Context, claimID int64, approverID string, decision entity.Decision) (*entity.Claim, error)
	MarkPaid(ctx context.Context, claimID int64, actorID string) (*entity.Claim, error)
	Get(ctx context.Context, id int64) (*entity.Claim, error)
	List(ctx context.Context, filter port.ClaimFilter) ([]*entity.Claim, error)
}

type claimServiceImpl struct {
	policyRepo port.PolicyRepository
	claimRepo  port.ClaimRepository
	txManager  port.TransactionManager
	events     dispatcher.Dispatcher
	logger     Logger

	// one mutex per claim id, created on first use
	locks sync.Map
}

// NewClaimService creates a new ClaimService. events may be nil when no
// subscribers are wired.
func NewClaimService(
	policyRepo port.PolicyRepository,
	claimRepo port.ClaimRepository,
	txManager port.TransactionManager,
	events dispatcher.Dispatcher,
	logger Logger,
) ClaimService {
	return &claimServiceImpl{
		policyRepo: policyRepo,
		claimRepo:  claimRepo,
		txManager:  txManager,
		events:     events,
		logger:     logger,
	}
}

// publish raises a domain event outside the transaction, after the change
// is durable
func (s *claimServiceImpl) publish(ctx context.Context, eventType event.Type, subjectID int64, payload map[string]interface{}) {
	if s.events == nil {
		return
	}
	s.events.DispatchAsync(ctx, event.NewEvent(eventType, subjectID, payload))
}

func (s *claimServiceImpl) lockClaim(id int64) func() {
	mu, _ := s.locks.LoadOrStore(id, &sync.Mutex{})
	mu.(*sync.Mutex).Lock()
	return mu.(*sync.Mutex).Unlock
}

// Submit validates the amount against the referenced policy and creates the
// claim in pending. Policies that do not require approval auto-approve the
// claim immediately, leaving the approval chain empty.
func (s *claimServiceImpl) Submit(ctx context.Context, submitterID string, policyID int64, amount decimal.Decimal, description string, receipts []string) (*entity.Claim, error) {
	policy, err := s.policyRepo.GetByID(ctx, policyID)
	if err != nil {
		return nil, err
	}

	if err := calculator.Validate(policy, amount); err != nil {
		s.logger.Info("Claim submission rejected",
			"policy_id", policyID, "submitter_id", submitterID, "amount", amount.String(), "reason", err.Error())
		return nil, err
	}

	now := time.Now()
	claim := &entity.Claim{
		SubmitterID: submitterID,
		PolicyID:    policyID,
		Category:    policy.Category,
		Amount:      amount,
		Description: description,
		Receipts:    receipts,
		Status:      entity.ClaimPending,
		SubmittedAt: now,
	}

	autoApproved := false
	if !policy.RequiresApproval {
		machine := workflow.NewClaimMachine(workflow.StatePending)
		if err := machine.Fire(workflow.TriggerAutoApprove); err != nil {
			return nil, err
		}
		claim.Status = entity.ClaimStatus(machine.State())
		claim.ApprovedAt = &now
		autoApproved = true
	}

	err = s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := s.claimRepo.Create(txCtx, claim); err != nil {
			return fmt.Errorf("create claim: %w", err)
		}

		if err := s.appendAudit(txCtx, claim, now, entity.AuditActionSubmitted, submitterID,
			fmt.Sprintf("amount %s under policy %d", amount, policyID)); err != nil {
			return err
		}

		if autoApproved {
			if err := s.appendAudit(txCtx, claim, now, entity.AuditActionAutoApproved, submitterID,
				"policy does not require approval"); err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		s.logger.Error("Failed to submit claim", "error", err, "policy_id", policyID, "submitter_id", submitterID)
		return nil, err
	}

	s.publish(ctx, event.TypeClaimSubmitted, claim.ID, map[string]interface{}{
		"submitter_id": submitterID,
		"policy_id":    policyID,
		"amount":       amount.String(),
	})
	if autoApproved {
		s.publish(ctx, event.TypeClaimAutoApproved, claim.ID, nil)
	}

	s.logger.Info("Claim submitted",
		"id", claim.ID, "policy_id", policyID, "submitter_id", submitterID,
		"amount", amount.String(), "status", claim.Status)
	return claim, nil
}

// RecordDecision appends a decision at the next approval level. A rejection
// at any level terminates the claim immediately; an approval at the final
// level moves it to approved, earlier approvals leave it pending.
func (s *claimServiceImpl) RecordDecision(ctx context.Context, claimID int64, approverID string, decision entity.Decision) (*entity.Claim, error) {
	if !decision.IsValid() {
		return nil, fmt.Errorf("%w: unknown decision %q", entity.ErrInvalidTransition, decision)
	}

	unlock := s.lockClaim(claimID)
	defer unlock()

	claim, err := s.claimRepo.GetByID(ctx, claimID)
	if err != nil {
		return nil, err
	}

	machine := workflow.NewClaimMachine(workflow.State(claim.Status))
	if !machine.CanFire(workflow.TriggerApprove) {
		return nil, fmt.Errorf("%w: claim %d is %s", entity.ErrInvalidTransition, claimID, claim.Status)
	}

	policy, err := s.policyRepo.GetByID(ctx, claim.PolicyID)
	if err != nil {
		return nil, err
	}

	level := claim.NextLevel()
	if level > policy.ApprovalLevels {
		return nil, fmt.Errorf("%w: level %d exceeds configured %d levels",
			entity.ErrLevelMismatch, level, policy.ApprovalLevels)
	}

	now := time.Now()
	record := &entity.ApprovalRecord{
		ClaimID:    claimID,
		Level:      level,
		ApproverID: approverID,
		Decision:   decision,
		Timestamp:  now,
	}

	var auditAction string
	finalStatus := claim.Status
	switch {
	case decision == entity.DecisionReject:
		if err := machine.Fire(workflow.TriggerReject); err != nil {
			return nil, err
		}
		finalStatus = entity.ClaimStatus(machine.State())
		auditAction = entity.AuditActionRejected
	case level == policy.ApprovalLevels:
		if err := machine.Fire(workflow.TriggerApprove); err != nil {
			return nil, err
		}
		finalStatus = entity.ClaimStatus(machine.State())
		auditAction = entity.AuditActionApproved
	default:
		// intermediate approval, claim stays pending
		auditAction = entity.AuditActionApproved
	}

	err = s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := s.claimRepo.AppendApproval(txCtx, record); err != nil {
			return fmt.Errorf("append approval: %w", err)
		}

		if finalStatus != claim.Status {
			if err := s.claimRepo.UpdateStatus(txCtx, claimID, finalStatus); err != nil {
				return fmt.Errorf("update status: %w", err)
			}
		}
		if finalStatus == entity.ClaimApproved {
			if err := s.claimRepo.SetApprovedAt(txCtx, claimID, now); err != nil {
				return fmt.Errorf("set approved_at: %w", err)
			}
		}

		return s.appendAudit(txCtx, claim, now, auditAction, approverID,
			fmt.Sprintf("level %d of %d: %s", level, policy.ApprovalLevels, decision))
	})
	if err != nil {
		s.logger.Error("Failed to record decision", "error", err, "claim_id", claimID, "approver_id", approverID)
		return nil, err
	}

	claim.ApprovalChain = append(claim.ApprovalChain, *record)
	claim.Status = finalStatus
	if finalStatus == entity.ClaimApproved {
		claim.ApprovedAt = &now
	}

	switch finalStatus {
	case entity.ClaimApproved:
		s.publish(ctx, event.TypeClaimApproved, claimID, map[string]interface{}{"approver_id": approverID})
	case entity.ClaimRejected:
		s.publish(ctx, event.TypeClaimRejected, claimID, map[string]interface{}{"approver_id": approverID, "level": level})
	}

	s.logger.Info("Decision recorded",
		"claim_id", claimID, "approver_id", approverID, "level", level,
		"decision", decision, "status", claim.Status)
	return claim, nil
}

// MarkPaid moves an approved claim to paid, the terminal success state
func (s *claimServiceImpl) MarkPaid(ctx context.Context, claimID int64, actorID string) (*entity.Claim, error) {
	unlock := s.lockClaim(claimID)
	defer unlock()

	claim, err := s.claimRepo.GetByID(ctx, claimID)
	if err != nil {
		return nil, err
	}

	machine := workflow.NewClaimMachine(workflow.State(claim.Status))
	if err := machine.Fire(workflow.TriggerPay); err != nil {
		return nil, err
	}

	now := time.Now()
	err = s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := s.claimRepo.UpdateStatus(txCtx, claimID, entity.ClaimPaid); err != nil {
			return fmt.Errorf("update status: %w", err)
		}
		if err := s.claimRepo.SetPaidAt(txCtx, claimID, now); err != nil {
			return fmt.Errorf("set paid_at: %w", err)
		}
		return s.appendAudit(txCtx, claim, now, entity.AuditActionPaid, actorID, "")
	})
	if err != nil {
		s.logger.Error("Failed to mark claim paid", "error", err, "claim_id", claimID)
		return nil, err
	}

	claim.Status = entity.ClaimPaid
	claim.PaidAt = &now

	s.publish(ctx, event.TypeClaimPaid, claimID, map[string]interface{}{"actor_id": actorID})
	s.logger.Info("Claim paid", "claim_id", claimID, "actor_id", actorID)
	return claim, nil
}

// Get retrieves a claim by id, including its approval chain and audit log
func (s *claimServiceImpl) Get(ctx context.Context, id int64) (*entity.Claim, error) {
	return s.claimRepo.GetByID(ctx, id)
}

// List retrieves claims matching the filter
func (s *claimServiceImpl) List(ctx context.Context, filter port.ClaimFilter) ([]*entity.Claim, error) {
	return s.claimRepo.List(ctx, filter)
}

func (s *claimServiceImpl) appendAudit(ctx context.Context, claim *entity.Claim, ts time.Time, action, actorID, details string) error {
	log := &entity.ClaimAuditLog{
		ClaimID:   claim.ID,
		Timestamp: ts,
		Action:    action,
		ActorID:   actorID,
		Details:   details,
	}
	if err := s.claimRepo.AppendAudit(ctx, log); err != nil {
		return fmt.Errorf("append audit: %w", err)
	}
	claim.AuditLogs = append(claim.AuditLogs, *log)
	return nil
}
