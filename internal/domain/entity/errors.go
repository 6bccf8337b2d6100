package entity

import "errors"

var (
	// ErrNotFound is returned when a policy or claim id is unknown
	ErrNotFound = errors.New("record not found")

	// ErrInvalidPolicy is returned when a fee structure definition is malformed or inconsistent
	ErrInvalidPolicy = errors.New("invalid policy definition")

	// ErrPolicyInactive is returned when a claim is submitted against a deactivated policy
	ErrPolicyInactive = errors.New("policy is inactive")

	// ErrInvalidAmount is returned when a claim amount is zero, negative, or violates the policy rule
	ErrInvalidAmount = errors.New("invalid claim amount")

	// ErrExceedsCap is returned when a claim amount exceeds the policy's maximum
	ErrExceedsCap = errors.New("amount exceeds policy cap")

	// ErrTierGap is returned when a claim amount falls between configured tier ranges
	ErrTierGap = errors.New("amount falls outside all configured tiers")

	// ErrInvalidTransition is returned when a claim state transition is not allowed
	ErrInvalidTransition = errors.New("invalid state transition")

	// ErrLevelMismatch is returned when a decision would exceed the policy's approval levels
	ErrLevelMismatch = errors.New("approval level mismatch")

	// ErrUnauthorizedApprover is returned when the approver's role does not match
	// the workflow role configured for the current level
	ErrUnauthorizedApprover = errors.New("approver not authorized for current level")
)
