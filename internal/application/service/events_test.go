package service

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campushq/claimflow/internal/application/dispatcher"
	"github.com/campushq/claimflow/internal/domain/entity"
	"github.com/campushq/claimflow/internal/domain/event"
)

type eventRecorder struct {
	mu     sync.Mutex
	events []*event.Event
}

func (r *eventRecorder) handle(ctx context.Context, evt *event.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, evt)
	return nil
}

func (r *eventRecorder) types() []event.Type {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]event.Type, len(r.events))
	for i, evt := range r.events {
		out[i] = evt.Type
	}
	return out
}

func TestClaimLifecycleEvents(t *testing.T) {
	recorder := &eventRecorder{}
	events := dispatcher.NewDispatcher(nil)
	for _, eventType := range []event.Type{
		event.TypeClaimSubmitted,
		event.TypeClaimApproved,
		event.TypeClaimRejected,
		event.TypeClaimPaid,
		event.TypePolicyCreated,
	} {
		events.Subscribe(eventType, "recorder", recorder.handle)
	}

	policyRepo := newFakePolicyRepo()
	claimRepo := newFakeClaimRepo()
	policies := NewPolicyService(policyRepo, fakeTxManager{}, events, nopLogger{})
	claims := NewClaimService(policyRepo, claimRepo, fakeTxManager{}, events, nopLogger{})

	ctx := context.Background()
	policy, err := policies.Create(ctx, "admin-1", validDraft())
	require.NoError(t, err)

	claim, err := claims.Submit(ctx, "emp-1", policy.ID, dec(t, "100"), "taxi", nil)
	require.NoError(t, err)

	_, err = claims.RecordDecision(ctx, claim.ID, "mgr-1", entity.DecisionApprove)
	require.NoError(t, err)
	_, err = claims.RecordDecision(ctx, claim.ID, "fin-1", entity.DecisionApprove)
	require.NoError(t, err)
	_, err = claims.MarkPaid(ctx, claim.ID, "fin-1")
	require.NoError(t, err)

	// Close waits for async handlers, so the recorder is complete after this
	require.NoError(t, events.Close())

	got := recorder.types()
	assert.ElementsMatch(t, []event.Type{
		event.TypePolicyCreated,
		event.TypeClaimSubmitted,
		event.TypeClaimApproved,
		event.TypeClaimPaid,
	}, got)

	for _, evt := range recorder.events {
		if evt.Type == event.TypeClaimSubmitted {
			assert.Equal(t, claim.ID, evt.SubjectID)
			assert.Equal(t, "emp-1", evt.GetPayloadString("submitter_id"))
		}
	}
}
