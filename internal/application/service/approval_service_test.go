package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campushq/claimflow/internal/domain/entity"
)

func newApprovalFixture() (*claimFixture, ApprovalService) {
	f := newClaimFixture()
	return f, NewApprovalService(f.claims, f.policyRepo, nopLogger{})
}

func TestApprovalService_RoleGating(t *testing.T) {
	f, approvals := newApprovalFixture()
	policy := f.createPolicy(t, validDraft())
	claim, err := f.claims.Submit(context.Background(), "teacher-7", policy.ID, dec(t, "350"), "", nil)
	require.NoError(t, err)

	// level 1 expects department_head
	_, err = approvals.RecordDecision(context.Background(), claim.ID, "fin-1", "finance_manager", entity.DecisionApprove)
	assert.ErrorIs(t, err, entity.ErrUnauthorizedApprover)

	claim, err = approvals.RecordDecision(context.Background(), claim.ID, "head-1", "department_head", entity.DecisionApprove)
	require.NoError(t, err)
	assert.Equal(t, entity.ClaimPending, claim.Status)

	// level 2 now expects finance_manager; department_head is no longer valid
	_, err = approvals.RecordDecision(context.Background(), claim.ID, "head-1", "department_head", entity.DecisionApprove)
	assert.ErrorIs(t, err, entity.ErrUnauthorizedApprover)

	claim, err = approvals.RecordDecision(context.Background(), claim.ID, "fin-1", "finance_manager", entity.DecisionApprove)
	require.NoError(t, err)
	assert.Equal(t, entity.ClaimApproved, claim.Status)
}

func TestApprovalService_RejectWithMatchingRole(t *testing.T) {
	f, approvals := newApprovalFixture()
	policy := f.createPolicy(t, validDraft())
	claim, err := f.claims.Submit(context.Background(), "teacher-7", policy.ID, dec(t, "350"), "", nil)
	require.NoError(t, err)

	claim, err = approvals.RecordDecision(context.Background(), claim.ID, "head-1", "department_head", entity.DecisionReject)
	require.NoError(t, err)
	assert.Equal(t, entity.ClaimRejected, claim.Status)
}

func TestApprovalService_UnknownClaim(t *testing.T) {
	_, approvals := newApprovalFixture()

	_, err := approvals.RecordDecision(context.Background(), 404, "head-1", "department_head", entity.DecisionApprove)
	assert.ErrorIs(t, err, entity.ErrNotFound)
}

func TestApprovalService_FullChainOnAutoApprovedClaim(t *testing.T) {
	f, approvals := newApprovalFixture()
	draft := validDraft()
	draft.RequiresApproval = false
	draft.ApprovalLevels = 0
	draft.ApprovalWorkflow = nil
	policy := f.createPolicy(t, draft)

	claim, err := f.claims.Submit(context.Background(), "teacher-7", policy.ID, dec(t, "100"), "", nil)
	require.NoError(t, err)
	require.Equal(t, entity.ClaimApproved, claim.Status)

	// no workflow is configured, every decision attempt fails
	_, err = approvals.RecordDecision(context.Background(), claim.ID, "head-1", "department_head", entity.DecisionApprove)
	assert.ErrorIs(t, err, entity.ErrLevelMismatch)
}
