package service

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/campushq/claimflow/internal/application/dispatcher"
	"github.com/campushq/claimflow/internal/application/port"
	"github.com/campushq/claimflow/internal/domain/entity"
	"github.com/campushq/claimflow/internal/domain/event"
)

// Logger interface for minimal logging dependency
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// PolicyPatch carries partial updates to a fee structure. Nil fields are left
// untouched; ClearMaxAmount removes the cap.
type PolicyPatch struct {
	Name             *string          `json:"name,omitempty"`
	Category         *entity.Category `json:"category,omitempty"`
	Rule             *entity.Rule     `json:"rule,omitempty"`
	MaxAmount        *decimal.Decimal `json:"max_amount,omitempty"`
	ClearMaxAmount   bool             `json:"clear_max_amount,omitempty"`
	RequiresApproval *bool            `json:"requires_approval,omitempty"`
	ApprovalLevels   *int             `json:"approval_levels,omitempty"`
	ApprovalWorkflow []string         `json:"approval_workflow,omitempty"`
}

// PolicyService manages fee structure definitions
type PolicyService interface {
	Create(ctx context.Context, actorID string, draft *entity.FeeStructure) (*entity.FeeStructure, error)
	Update(ctx context.Context, actorID string, id int64, patch PolicyPatch) (*entity.FeeStructure, error)
	Deactivate(ctx context.Context, actorID string, id int64) error
	Get(ctx context.Context, id int64) (*entity.FeeStructure, error)
	List(ctx context.Context, limit, offset int) ([]*entity.FeeStructure, error)
}

type policyServiceImpl struct {
	policyRepo port.PolicyRepository
	txManager  port.TransactionManager
	events     dispatcher.Dispatcher
	logger     Logger
}

// NewPolicyService creates a new PolicyService. events may be nil when no
// subscribers are wired.
func NewPolicyService(policyRepo port.PolicyRepository, txManager port.TransactionManager, events dispatcher.Dispatcher, logger Logger) PolicyService {
	return &policyServiceImpl{
		policyRepo: policyRepo,
		txManager:  txManager,
		events:     events,
		logger:     logger,
	}
}

func (s *policyServiceImpl) publish(ctx context.Context, eventType event.Type, policyID int64) {
	if s.events == nil {
		return
	}
	s.events.DispatchAsync(ctx, event.NewEvent(eventType, policyID, nil))
}

// Create validates and stores a new fee structure with an initial audit entry
func (s *policyServiceImpl) Create(ctx context.Context, actorID string, draft *entity.FeeStructure) (*entity.FeeStructure, error) {
	now := time.Now()

	policy := *draft
	policy.ID = 0
	policy.IsActive = true
	policy.CreatedAt = now
	policy.UpdatedAt = now

	if err := policy.Validate(); err != nil {
		return nil, err
	}

	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := s.policyRepo.Create(txCtx, &policy); err != nil {
			return fmt.Errorf("create policy: %w", err)
		}

		audit := &entity.PolicyAuditEntry{
			PolicyID:  policy.ID,
			Timestamp: now,
			Action:    entity.AuditActionCreated,
			ActorID:   actorID,
		}
		if err := s.policyRepo.AppendAudit(txCtx, audit); err != nil {
			return fmt.Errorf("append policy audit: %w", err)
		}
		policy.AuditTrail = append(policy.AuditTrail, *audit)

		return nil
	})
	if err != nil {
		s.logger.Error("Failed to create policy", "error", err, "name", draft.Name)
		return nil, err
	}

	s.publish(ctx, event.TypePolicyCreated, policy.ID)
	s.logger.Info("Policy created", "id", policy.ID, "name", policy.Name, "actor_id", actorID)
	return &policy, nil
}

// Update applies a patch, re-validates the merged result, and appends an
// audit entry. Existing claims referencing the policy are untouched.
func (s *policyServiceImpl) Update(ctx context.Context, actorID string, id int64, patch PolicyPatch) (*entity.FeeStructure, error) {
	policy, err := s.policyRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	applyPatch(policy, patch)
	policy.UpdatedAt = time.Now()

	if err := policy.Validate(); err != nil {
		return nil, err
	}

	err = s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := s.policyRepo.Update(txCtx, policy); err != nil {
			return fmt.Errorf("update policy: %w", err)
		}

		audit := &entity.PolicyAuditEntry{
			PolicyID:  policy.ID,
			Timestamp: policy.UpdatedAt,
			Action:    entity.AuditActionUpdated,
			ActorID:   actorID,
		}
		if err := s.policyRepo.AppendAudit(txCtx, audit); err != nil {
			return fmt.Errorf("append policy audit: %w", err)
		}
		policy.AuditTrail = append(policy.AuditTrail, *audit)

		return nil
	})
	if err != nil {
		s.logger.Error("Failed to update policy", "error", err, "id", id)
		return nil, err
	}

	s.publish(ctx, event.TypePolicyUpdated, id)
	s.logger.Info("Policy updated", "id", id, "actor_id", actorID)
	return policy, nil
}

// Deactivate marks a policy inactive. New claims against it are rejected;
// existing claims remain valid. Deactivating an inactive policy is a no-op.
func (s *policyServiceImpl) Deactivate(ctx context.Context, actorID string, id int64) error {
	policy, err := s.policyRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if !policy.IsActive {
		return nil
	}

	policy.IsActive = false
	policy.UpdatedAt = time.Now()

	err = s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := s.policyRepo.Update(txCtx, policy); err != nil {
			return fmt.Errorf("deactivate policy: %w", err)
		}

		audit := &entity.PolicyAuditEntry{
			PolicyID:  policy.ID,
			Timestamp: policy.UpdatedAt,
			Action:    entity.AuditActionDeactivated,
			ActorID:   actorID,
		}
		if err := s.policyRepo.AppendAudit(txCtx, audit); err != nil {
			return fmt.Errorf("append policy audit: %w", err)
		}

		return nil
	})
	if err != nil {
		s.logger.Error("Failed to deactivate policy", "error", err, "id", id)
		return err
	}

	s.publish(ctx, event.TypePolicyDeactivated, id)
	s.logger.Info("Policy deactivated", "id", id, "actor_id", actorID)
	return nil
}

// Get retrieves a policy by id
func (s *policyServiceImpl) Get(ctx context.Context, id int64) (*entity.FeeStructure, error) {
	return s.policyRepo.GetByID(ctx, id)
}

// List retrieves policies with pagination
func (s *policyServiceImpl) List(ctx context.Context, limit, offset int) ([]*entity.FeeStructure, error) {
	return s.policyRepo.List(ctx, limit, offset)
}

func applyPatch(policy *entity.FeeStructure, patch PolicyPatch) {
	if patch.Name != nil {
		policy.Name = *patch.Name
	}
	if patch.Category != nil {
		policy.Category = *patch.Category
	}
	if patch.Rule != nil {
		policy.Rule = *patch.Rule
	}
	if patch.ClearMaxAmount {
		policy.MaxAmount = nil
	} else if patch.MaxAmount != nil {
		policy.MaxAmount = patch.MaxAmount
	}
	if patch.RequiresApproval != nil {
		policy.RequiresApproval = *patch.RequiresApproval
	}
	if patch.ApprovalLevels != nil {
		policy.ApprovalLevels = *patch.ApprovalLevels
	}
	if patch.ApprovalWorkflow != nil {
		policy.ApprovalWorkflow = patch.ApprovalWorkflow
	}
}
