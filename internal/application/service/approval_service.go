package service

import (
	"context"
	"fmt"

	"github.com/campushq/claimflow/internal/application/port"
	"github.com/campushq/claimflow/internal/domain/entity"
)

// ApprovalService drives claims through their configured approval workflows.
// It layers role gating over ClaimService.RecordDecision: the approver's role
// must match the workflow role configured for the claim's current level.
type ApprovalService interface {
	RecordDecision(ctx context.Context, claimID int64, approverID, approverRole string, decision entity.Decision) (*entity.Claim, error)
}

type approvalServiceImpl struct {
	claims     ClaimService
	policyRepo port.PolicyRepository
	logger     Logger
}

// NewApprovalService creates a new ApprovalService
func NewApprovalService(claims ClaimService, policyRepo port.PolicyRepository, logger Logger) ApprovalService {
	return &approvalServiceImpl{
		claims:     claims,
		policyRepo: policyRepo,
		logger:     logger,
	}
}

// RecordDecision checks the approver's role against the policy workflow for
// the claim's next level, then delegates to the ledger
func (s *approvalServiceImpl) RecordDecision(ctx context.Context, claimID int64, approverID, approverRole string, decision entity.Decision) (*entity.Claim, error) {
	claim, err := s.claims.Get(ctx, claimID)
	if err != nil {
		return nil, err
	}

	policy, err := s.policyRepo.GetByID(ctx, claim.PolicyID)
	if err != nil {
		return nil, err
	}

	level := claim.NextLevel()
	if level > len(policy.ApprovalWorkflow) {
		return nil, fmt.Errorf("%w: level %d exceeds configured %d levels",
			entity.ErrLevelMismatch, level, len(policy.ApprovalWorkflow))
	}

	expectedRole := policy.ApprovalWorkflow[level-1]
	if approverRole != expectedRole {
		s.logger.Info("Approver role mismatch",
			"claim_id", claimID, "approver_id", approverID, "level", level,
			"role", approverRole, "expected_role", expectedRole)
		return nil, fmt.Errorf("%w: level %d expects role %q, got %q",
			entity.ErrUnauthorizedApprover, level, expectedRole, approverRole)
	}

	return s.claims.RecordDecision(ctx, claimID, approverID, decision)
}
