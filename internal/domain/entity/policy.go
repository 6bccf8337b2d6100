package entity

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Tier is a single amount range within a tiered rule. MaxAmount is inclusive;
// a nil MaxAmount means the tier is open-ended.
type Tier struct {
	MinAmount decimal.Decimal  `json:"min_amount"`
	MaxAmount *decimal.Decimal `json:"max_amount,omitempty"`
	Rate      decimal.Decimal  `json:"rate"`
}

// Contains reports whether amount falls within this tier's range
func (t Tier) Contains(amount decimal.Decimal) bool {
	if amount.Cmp(t.MinAmount) < 0 {
		return false
	}
	if t.MaxAmount != nil && amount.Cmp(*t.MaxAmount) > 0 {
		return false
	}
	return true
}

// Rule is the tagged amount rule of a fee structure. Exactly one variant is
// active, selected by Kind: Fixed uses Amount as the per-claim ceiling,
// Percentage uses Rate, Tiered uses Tiers.
type Rule struct {
	Kind   RuleKind        `json:"kind"`
	Amount decimal.Decimal `json:"amount,omitempty"`
	Rate   decimal.Decimal `json:"rate,omitempty"`
	Tiers  []Tier          `json:"tiers,omitempty"`
}

// Validate checks the rule's internal consistency
func (r Rule) Validate() error {
	if !r.Kind.IsValid() {
		return fmt.Errorf("%w: unknown rule kind %q", ErrInvalidPolicy, r.Kind)
	}

	switch r.Kind {
	case RuleFixed:
		if r.Amount.IsNegative() {
			return fmt.Errorf("%w: fixed amount must be non-negative", ErrInvalidPolicy)
		}
	case RulePercentage:
		if r.Rate.IsNegative() {
			return fmt.Errorf("%w: percentage rate must be non-negative", ErrInvalidPolicy)
		}
	case RuleTiered:
		if len(r.Tiers) == 0 {
			return fmt.Errorf("%w: tiered rule requires at least one tier", ErrInvalidPolicy)
		}
		for i, tier := range r.Tiers {
			if tier.MinAmount.IsNegative() {
				return fmt.Errorf("%w: tier %d has negative minimum", ErrInvalidPolicy, i+1)
			}
			if tier.MaxAmount != nil && tier.MaxAmount.Cmp(tier.MinAmount) < 0 {
				return fmt.Errorf("%w: tier %d maximum below minimum", ErrInvalidPolicy, i+1)
			}
			if tier.Rate.IsNegative() {
				return fmt.Errorf("%w: tier %d has negative rate", ErrInvalidPolicy, i+1)
			}
		}
	}

	return nil
}

// PolicyAuditEntry is a single entry in a fee structure's append-only audit trail
type PolicyAuditEntry struct {
	ID        int64     `json:"id"`
	PolicyID  int64     `json:"policy_id"`
	Timestamp time.Time `json:"timestamp"`
	Action    string    `json:"action"`
	ActorID   string    `json:"actor_id"`
}

// FeeStructure is a reimbursement policy: how a category of expense is
// computed, capped, and approved. Structures are never deleted, only
// deactivated; existing claims keep referencing them by id.
type FeeStructure struct {
	ID               int64              `json:"id"`
	Name             string             `json:"name"`
	Category         Category           `json:"category"`
	Rule             Rule               `json:"rule"`
	MaxAmount        *decimal.Decimal   `json:"max_amount,omitempty"`
	RequiresApproval bool               `json:"requires_approval"`
	ApprovalLevels   int                `json:"approval_levels"`
	ApprovalWorkflow []string           `json:"approval_workflow"`
	IsActive         bool               `json:"is_active"`
	CreatedAt        time.Time          `json:"created_at"`
	UpdatedAt        time.Time          `json:"updated_at"`
	AuditTrail       []PolicyAuditEntry `json:"audit_trail,omitempty"`
}

// Validate checks the structure's invariants. It is applied on create and on
// the merged result of every update.
func (f *FeeStructure) Validate() error {
	if f.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidPolicy)
	}
	if !f.Category.IsValid() {
		return fmt.Errorf("%w: unknown category %q", ErrInvalidPolicy, f.Category)
	}
	if err := f.Rule.Validate(); err != nil {
		return err
	}

	if f.RequiresApproval {
		if f.ApprovalLevels < 1 {
			return fmt.Errorf("%w: approval required but no levels configured", ErrInvalidPolicy)
		}
	} else if f.ApprovalLevels != 0 {
		return fmt.Errorf("%w: approval levels set without requires_approval", ErrInvalidPolicy)
	}
	if f.ApprovalLevels != len(f.ApprovalWorkflow) {
		return fmt.Errorf("%w: approval_levels %d does not match workflow length %d",
			ErrInvalidPolicy, f.ApprovalLevels, len(f.ApprovalWorkflow))
	}
	for i, role := range f.ApprovalWorkflow {
		if role == "" {
			return fmt.Errorf("%w: empty approver role at level %d", ErrInvalidPolicy, i+1)
		}
	}

	if f.MaxAmount != nil {
		if f.MaxAmount.IsNegative() {
			return fmt.Errorf("%w: max_amount must be non-negative", ErrInvalidPolicy)
		}
		if f.Rule.Kind == RuleFixed && f.MaxAmount.Cmp(f.Rule.Amount) < 0 {
			return fmt.Errorf("%w: max_amount below fixed rule amount", ErrInvalidPolicy)
		}
	}

	return nil
}
