package entity

// Category classifies what a fee structure reimburses
type Category string

const (
	CategoryTravel                  Category = "TRAVEL"
	CategoryProfessionalDevelopment Category = "PROFESSIONAL_DEVELOPMENT"
	CategoryEquipment               Category = "EQUIPMENT"
	CategoryConference              Category = "CONFERENCE"
	CategoryOther                   Category = "OTHER"
)

var validCategories = map[Category]bool{
	CategoryTravel:                  true,
	CategoryProfessionalDevelopment: true,
	CategoryEquipment:               true,
	CategoryConference:              true,
	CategoryOther:                   true,
}

// IsValid returns true if the category is one of the closed set
func (c Category) IsValid() bool {
	return validCategories[c]
}

// String returns the string representation of the category
func (c Category) String() string {
	return string(c)
}

// RuleKind identifies which amount rule variant a fee structure carries
type RuleKind string

const (
	RuleFixed      RuleKind = "FIXED"
	RulePercentage RuleKind = "PERCENTAGE"
	RuleTiered     RuleKind = "TIERED"
)

var validRuleKinds = map[RuleKind]bool{
	RuleFixed:      true,
	RulePercentage: true,
	RuleTiered:     true,
}

// IsValid returns true if the rule kind is one of the closed set
func (k RuleKind) IsValid() bool {
	return validRuleKinds[k]
}

// ClaimStatus is the lifecycle state of a claim
type ClaimStatus string

const (
	ClaimPending  ClaimStatus = "PENDING"
	ClaimApproved ClaimStatus = "APPROVED"
	ClaimRejected ClaimStatus = "REJECTED"
	ClaimPaid     ClaimStatus = "PAID"
)

// Decision is an approver's verdict at a single chain level
type Decision string

const (
	DecisionApprove Decision = "APPROVE"
	DecisionReject  Decision = "REJECT"
)

// IsValid returns true if the decision is approve or reject
func (d Decision) IsValid() bool {
	return d == DecisionApprove || d == DecisionReject
}

// Audit action constants for policy audit trails
const (
	AuditActionCreated     = "created"
	AuditActionUpdated     = "updated"
	AuditActionDeactivated = "deactivated"
)

// Audit action constants for claim audit logs
const (
	AuditActionSubmitted    = "submitted"
	AuditActionAutoApproved = "auto_approved"
	AuditActionApproved     = "approved"
	AuditActionRejected     = "rejected"
	AuditActionPaid         = "paid"
)
