package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/campushq/claimflow/internal/application/port"
	"github.com/campushq/claimflow/internal/domain/entity"
)

// In-memory fakes implementing the port interfaces. Create/append failures
// can be injected through the fail* function fields.

type fakePolicyRepo struct {
	mu       sync.Mutex
	policies map[int64]*entity.FeeStructure
	nextID   int64

	failCreate func() error
	failUpdate func() error
}

func newFakePolicyRepo() *fakePolicyRepo {
	return &fakePolicyRepo{policies: make(map[int64]*entity.FeeStructure)}
}

func (r *fakePolicyRepo) Create(_ context.Context, policy *entity.FeeStructure) error {
	if r.failCreate != nil {
		if err := r.failCreate(); err != nil {
			return err
		}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	policy.ID = r.nextID
	stored := *policy
	r.policies[policy.ID] = &stored
	return nil
}

func (r *fakePolicyRepo) GetByID(_ context.Context, id int64) (*entity.FeeStructure, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	policy, ok := r.policies[id]
	if !ok {
		return nil, fmt.Errorf("%w: policy %d", entity.ErrNotFound, id)
	}
	out := *policy
	out.AuditTrail = append([]entity.PolicyAuditEntry(nil), policy.AuditTrail...)
	return &out, nil
}

func (r *fakePolicyRepo) Update(_ context.Context, policy *entity.FeeStructure) error {
	if r.failUpdate != nil {
		if err := r.failUpdate(); err != nil {
			return err
		}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.policies[policy.ID]
	if !ok {
		return fmt.Errorf("%w: policy %d", entity.ErrNotFound, policy.ID)
	}
	updated := *policy
	updated.AuditTrail = stored.AuditTrail
	r.policies[policy.ID] = &updated
	return nil
}

func (r *fakePolicyRepo) AppendAudit(_ context.Context, audit *entity.PolicyAuditEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.policies[audit.PolicyID]
	if !ok {
		return fmt.Errorf("%w: policy %d", entity.ErrNotFound, audit.PolicyID)
	}
	audit.ID = int64(len(stored.AuditTrail) + 1)
	stored.AuditTrail = append(stored.AuditTrail, *audit)
	return nil
}

func (r *fakePolicyRepo) List(_ context.Context, limit, offset int) ([]*entity.FeeStructure, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.FeeStructure
	for id := int64(1); id <= r.nextID; id++ {
		if policy, ok := r.policies[id]; ok {
			p := *policy
			out = append(out, &p)
		}
	}
	if offset > len(out) {
		offset = len(out)
	}
	out = out[offset:]
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

type fakeClaimRepo struct {
	mu     sync.Mutex
	claims map[int64]*entity.Claim
	nextID int64

	failAppendApproval func() error
	failUpdateStatus   func() error
}

func newFakeClaimRepo() *fakeClaimRepo {
	return &fakeClaimRepo{claims: make(map[int64]*entity.Claim)}
}

func (r *fakeClaimRepo) Create(_ context.Context, claim *entity.Claim) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	claim.ID = r.nextID
	stored := *claim
	r.claims[claim.ID] = &stored
	return nil
}

func (r *fakeClaimRepo) get(id int64) (*entity.Claim, error) {
	claim, ok := r.claims[id]
	if !ok {
		return nil, fmt.Errorf("%w: claim %d", entity.ErrNotFound, id)
	}
	return claim, nil
}

func (r *fakeClaimRepo) GetByID(_ context.Context, id int64) (*entity.Claim, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	claim, err := r.get(id)
	if err != nil {
		return nil, err
	}
	out := *claim
	out.ApprovalChain = append([]entity.ApprovalRecord(nil), claim.ApprovalChain...)
	out.AuditLogs = append([]entity.ClaimAuditLog(nil), claim.AuditLogs...)
	return &out, nil
}

func (r *fakeClaimRepo) UpdateStatus(_ context.Context, id int64, status entity.ClaimStatus) error {
	if r.failUpdateStatus != nil {
		if err := r.failUpdateStatus(); err != nil {
			return err
		}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	claim, err := r.get(id)
	if err != nil {
		return err
	}
	claim.Status = status
	return nil
}

func (r *fakeClaimRepo) SetApprovedAt(_ context.Context, id int64, t time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	claim, err := r.get(id)
	if err != nil {
		return err
	}
	claim.ApprovedAt = &t
	return nil
}

func (r *fakeClaimRepo) SetPaidAt(_ context.Context, id int64, t time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	claim, err := r.get(id)
	if err != nil {
		return err
	}
	claim.PaidAt = &t
	return nil
}

func (r *fakeClaimRepo) AppendApproval(_ context.Context, record *entity.ApprovalRecord) error {
	if r.failAppendApproval != nil {
		if err := r.failAppendApproval(); err != nil {
			return err
		}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	claim, err := r.get(record.ClaimID)
	if err != nil {
		return err
	}
	record.ID = int64(len(claim.ApprovalChain) + 1)
	claim.ApprovalChain = append(claim.ApprovalChain, *record)
	return nil
}

func (r *fakeClaimRepo) AppendAudit(_ context.Context, log *entity.ClaimAuditLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	claim, err := r.get(log.ClaimID)
	if err != nil {
		return err
	}
	log.ID = int64(len(claim.AuditLogs) + 1)
	claim.AuditLogs = append(claim.AuditLogs, *log)
	return nil
}

func (r *fakeClaimRepo) List(_ context.Context, filter port.ClaimFilter) ([]*entity.Claim, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.Claim
	for id := int64(1); id <= r.nextID; id++ {
		claim, ok := r.claims[id]
		if !ok {
			continue
		}
		if filter.Status != "" && claim.Status != filter.Status {
			continue
		}
		if filter.SubmitterID != "" && claim.SubmitterID != filter.SubmitterID {
			continue
		}
		if filter.PolicyID != 0 && claim.PolicyID != filter.PolicyID {
			continue
		}
		c := *claim
		out = append(out, &c)
	}
	return out, nil
}

func (r *fakeClaimRepo) TotalsByStatus(_ context.Context) (map[entity.ClaimStatus]decimal.Decimal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	totals := make(map[entity.ClaimStatus]decimal.Decimal)
	for _, claim := range r.claims {
		totals[claim.Status] = totals[claim.Status].Add(claim.Amount)
	}
	return totals, nil
}

func (r *fakeClaimRepo) CountByStatus(_ context.Context) (map[entity.ClaimStatus]int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	counts := make(map[entity.ClaimStatus]int)
	for _, claim := range r.claims {
		counts[claim.Status]++
	}
	return counts, nil
}

func (r *fakeClaimRepo) StatsByCategory(_ context.Context) (map[entity.Category]port.CategoryStats, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stats := make(map[entity.Category]port.CategoryStats)
	for _, claim := range r.claims {
		s := stats[claim.Category]
		s.Count++
		s.Sum = s.Sum.Add(claim.Amount)
		stats[claim.Category] = s
	}
	return stats, nil
}

type fakeTxManager struct{}

func (fakeTxManager) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type nopLogger struct{}

func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}

var _ port.PolicyRepository = (*fakePolicyRepo)(nil)
var _ port.ClaimRepository = (*fakeClaimRepo)(nil)
var _ port.TransactionManager = fakeTxManager{}
