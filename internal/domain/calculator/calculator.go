// Package calculator validates claimed amounts against fee structure rules.
// Validation is pure: no clock, no storage, no side effects.
package calculator

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/campushq/claimflow/internal/domain/entity"
)

// Validate checks amount against the policy's rule and cap.
//
// Fixed rules treat the rule amount as the per-claim ceiling. Percentage
// rules accept the submitted amount as the already-computed reimbursement
// value; the rate is informational and not re-derived from a base figure.
// Tiered rules require the amount to fall inside one of the configured tier
// ranges. In every branch the amount must be positive and, when max_amount is
// set, must not exceed it.
func Validate(policy *entity.FeeStructure, amount decimal.Decimal) error {
	if !policy.IsActive {
		return fmt.Errorf("%w: policy %d", entity.ErrPolicyInactive, policy.ID)
	}

	if amount.Sign() <= 0 {
		return fmt.Errorf("%w: amount must be positive, got %s", entity.ErrInvalidAmount, amount)
	}

	if policy.MaxAmount != nil && amount.Cmp(*policy.MaxAmount) > 0 {
		return fmt.Errorf("%w: %s exceeds maximum %s", entity.ErrExceedsCap, amount, policy.MaxAmount)
	}

	switch policy.Rule.Kind {
	case entity.RuleFixed:
		if amount.Cmp(policy.Rule.Amount) > 0 {
			return fmt.Errorf("%w: %s exceeds fixed limit %s", entity.ErrExceedsCap, amount, policy.Rule.Amount)
		}
	case entity.RulePercentage:
		// No inherent ceiling beyond max_amount; the rate alone bounds nothing.
	case entity.RuleTiered:
		if !inAnyTier(policy.Rule.Tiers, amount) {
			return fmt.Errorf("%w: %s matches no tier", entity.ErrTierGap, amount)
		}
	default:
		return fmt.Errorf("%w: unknown rule kind %q", entity.ErrInvalidPolicy, policy.Rule.Kind)
	}

	return nil
}

func inAnyTier(tiers []entity.Tier, amount decimal.Decimal) bool {
	for _, tier := range tiers {
		if tier.Contains(amount) {
			return true
		}
	}
	return false
}
