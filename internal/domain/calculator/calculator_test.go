package calculator

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/campushq/claimflow/internal/domain/entity"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func fixedPolicy(limit string) *entity.FeeStructure {
	return &entity.FeeStructure{
		ID:       1,
		Name:     "Travel per diem",
		Category: entity.CategoryTravel,
		Rule:     entity.Rule{Kind: entity.RuleFixed, Amount: dec(limit)},
		IsActive: true,
	}
}

func TestValidate_Fixed(t *testing.T) {
	tests := []struct {
		name    string
		amount  string
		wantErr error
	}{
		{"below limit", "400", nil},
		{"exactly at limit", "500", nil},
		{"one cent over limit", "500.01", entity.ErrExceedsCap},
		{"zero amount", "0", entity.ErrInvalidAmount},
		{"negative amount", "-10", entity.ErrInvalidAmount},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(fixedPolicy("500"), dec(tt.amount))
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("Validate() failed: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidate_PercentageRespectsCapOnly(t *testing.T) {
	policy := &entity.FeeStructure{
		ID:        2,
		Name:      "Tuition reimbursement",
		Category:  entity.CategoryProfessionalDevelopment,
		Rule:      entity.Rule{Kind: entity.RulePercentage, Rate: dec("80")},
		MaxAmount: decPtr("15000"),
		IsActive:  true,
	}

	if err := Validate(policy, dec("12000")); err != nil {
		t.Fatalf("Validate(12000) failed: %v", err)
	}
	if err := Validate(policy, dec("15000")); err != nil {
		t.Fatalf("Validate(15000) failed: %v", err)
	}

	err := Validate(policy, dec("16000"))
	if !errors.Is(err, entity.ErrExceedsCap) {
		t.Errorf("Validate(16000) error = %v, want ErrExceedsCap", err)
	}
}

func TestValidate_Tiered(t *testing.T) {
	policy := &entity.FeeStructure{
		ID:       3,
		Name:     "Conference fees",
		Category: entity.CategoryConference,
		Rule: entity.Rule{
			Kind: entity.RuleTiered,
			Tiers: []entity.Tier{
				{MinAmount: dec("0"), MaxAmount: decPtr("100"), Rate: dec("100")},
				{MinAmount: dec("200"), MaxAmount: decPtr("500"), Rate: dec("50")},
				{MinAmount: dec("1000"), Rate: dec("25")},
			},
		},
		IsActive: true,
	}

	tests := []struct {
		name    string
		amount  string
		wantErr error
	}{
		{"inside first tier", "50", nil},
		{"at first tier boundary", "100", nil},
		{"gap between tiers", "150", entity.ErrTierGap},
		{"inside second tier", "350", nil},
		{"gap before open tier", "700", entity.ErrTierGap},
		{"inside open-ended tier", "50000", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(policy, dec(tt.amount))
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("Validate(%s) failed: %v", tt.amount, err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate(%s) error = %v, want %v", tt.amount, err, tt.wantErr)
			}
		})
	}
}

func TestValidate_InactivePolicyRejectsAnyAmount(t *testing.T) {
	policy := fixedPolicy("500")
	policy.IsActive = false

	for _, amount := range []string{"1", "500", "9999"} {
		err := Validate(policy, dec(amount))
		if !errors.Is(err, entity.ErrPolicyInactive) {
			t.Errorf("Validate(%s) error = %v, want ErrPolicyInactive", amount, err)
		}
	}
}

func TestValidate_CapAppliesAcrossAllRuleKinds(t *testing.T) {
	policy := fixedPolicy("500")
	policy.MaxAmount = decPtr("300")

	err := Validate(policy, dec("400"))
	if !errors.Is(err, entity.ErrExceedsCap) {
		t.Errorf("Validate() error = %v, want ErrExceedsCap from max_amount", err)
	}
}
