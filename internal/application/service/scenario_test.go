package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campushq/claimflow/internal/application/port"
	"github.com/campushq/claimflow/internal/domain/entity"
)

// Full lifecycle of a tuition reimbursement: an 80% policy capped at 15000
// with a single hr_manager approval level.
func TestTuitionReimbursementLifecycle(t *testing.T) {
	f, approvals := newApprovalFixture()
	ctx := context.Background()

	policy := f.createPolicy(t, &entity.FeeStructure{
		Name:             "Tuition reimbursement",
		Category:         entity.CategoryProfessionalDevelopment,
		Rule:             entity.Rule{Kind: entity.RulePercentage, Rate: dec(t, "80")},
		MaxAmount:        decPtr(t, "15000"),
		RequiresApproval: true,
		ApprovalLevels:   1,
		ApprovalWorkflow: []string{"hr_manager"},
	})

	claim, err := f.claims.Submit(ctx, "teacher-7", policy.ID, dec(t, "12000"), "MSc tuition", []string{"rcpt-9"})
	require.NoError(t, err)
	assert.Equal(t, entity.ClaimPending, claim.Status)
	assert.Empty(t, claim.ApprovalChain)

	claim, err = approvals.RecordDecision(ctx, claim.ID, "hr-1", "hr_manager", entity.DecisionApprove)
	require.NoError(t, err)
	assert.Equal(t, entity.ClaimApproved, claim.Status)
	require.Len(t, claim.ApprovalChain, 1)
	assert.Equal(t, 1, claim.ApprovalChain[0].Level)
	assert.Equal(t, entity.DecisionApprove, claim.ApprovalChain[0].Decision)

	claim, err = f.claims.MarkPaid(ctx, claim.ID, "fin-1")
	require.NoError(t, err)
	assert.Equal(t, entity.ClaimPaid, claim.Status)
	require.NotNil(t, claim.PaidAt)

	// over the cap: the submission fails and no claim is created
	_, err = f.claims.Submit(ctx, "teacher-7", policy.ID, dec(t, "16000"), "", nil)
	assert.ErrorIs(t, err, entity.ErrExceedsCap)

	claims, err := f.claims.List(ctx, port.ClaimFilter{PolicyID: policy.ID})
	require.NoError(t, err)
	assert.Len(t, claims, 1)
}
