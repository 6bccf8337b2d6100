// Package port defines the persistence interfaces the application layer
// depends on. Implementations live under internal/infrastructure; services
// never touch a concrete store directly, so the ledger can be rebacked onto a
// different durable store without touching the state-machine logic.
package port

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/campushq/claimflow/internal/domain/entity"
)

// PolicyRepository defines persistence operations for FeeStructure
type PolicyRepository interface {
	Create(ctx context.Context, policy *entity.FeeStructure) error
	GetByID(ctx context.Context, id int64) (*entity.FeeStructure, error)
	Update(ctx context.Context, policy *entity.FeeStructure) error
	AppendAudit(ctx context.Context, audit *entity.PolicyAuditEntry) error
	List(ctx context.Context, limit, offset int) ([]*entity.FeeStructure, error)
}

// ClaimFilter narrows claim listings. Zero-value fields are ignored.
type ClaimFilter struct {
	Status      entity.ClaimStatus
	SubmitterID string
	PolicyID    int64
	Limit       int
	Offset      int
}

// CategoryStats is the aggregated view of claims in a single category
type CategoryStats struct {
	Count int             `json:"count"`
	Sum   decimal.Decimal `json:"sum"`
}

// ClaimRepository defines persistence operations for Claim. The approval
// chain and audit log are append-only at this interface: there is no way to
// rewrite or remove an entry once stored.
type ClaimRepository interface {
	Create(ctx context.Context, claim *entity.Claim) error
	GetByID(ctx context.Context, id int64) (*entity.Claim, error)
	UpdateStatus(ctx context.Context, id int64, status entity.ClaimStatus) error
	SetApprovedAt(ctx context.Context, id int64, t time.Time) error
	SetPaidAt(ctx context.Context, id int64, t time.Time) error
	AppendApproval(ctx context.Context, record *entity.ApprovalRecord) error
	AppendAudit(ctx context.Context, log *entity.ClaimAuditLog) error
	List(ctx context.Context, filter ClaimFilter) ([]*entity.Claim, error)

	// Aggregations for reporting; each runs as a single consistent read.
	TotalsByStatus(ctx context.Context) (map[entity.ClaimStatus]decimal.Decimal, error)
	CountByStatus(ctx context.Context) (map[entity.ClaimStatus]int, error)
	StatsByCategory(ctx context.Context) (map[entity.Category]CategoryStats, error)
}

// TransactionManager runs a function within a storage transaction. All
// repository calls made with the derived context join the same transaction;
// an error return rolls the whole unit back.
type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
