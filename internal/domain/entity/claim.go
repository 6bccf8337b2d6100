package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// ApprovalRecord is one level's decision in a claim's approval chain.
// Levels are 1-based and strictly increasing; the chain only ever grows.
type ApprovalRecord struct {
	ID         int64     `json:"id"`
	ClaimID    int64     `json:"claim_id"`
	Level      int       `json:"level"`
	ApproverID string    `json:"approver_id"`
	Decision   Decision  `json:"decision"`
	Timestamp  time.Time `json:"timestamp"`
}

// ClaimAuditLog is a single entry in a claim's append-only audit log
type ClaimAuditLog struct {
	ID        int64     `json:"id"`
	ClaimID   int64     `json:"claim_id"`
	Timestamp time.Time `json:"timestamp"`
	Action    string    `json:"action"`
	ActorID   string    `json:"actor_id"`
	Details   string    `json:"details,omitempty"`
}

// Claim is a single reimbursement request tied to one policy and one
// submitter. Category is copied from the policy at submission time; the
// policy itself may be edited or deactivated afterwards without invalidating
// the claim. Claims are never deleted; rejected and paid are terminal and
// retained for audit.
type Claim struct {
	ID            int64            `json:"id"`
	SubmitterID   string           `json:"submitter_id"`
	PolicyID      int64            `json:"policy_id"`
	Category      Category         `json:"category"`
	Amount        decimal.Decimal  `json:"amount"`
	Description   string           `json:"description"`
	Receipts      []string         `json:"receipts,omitempty"`
	Status        ClaimStatus      `json:"status"`
	SubmittedAt   time.Time        `json:"submitted_at"`
	ApprovedAt    *time.Time       `json:"approved_at,omitempty"`
	PaidAt        *time.Time       `json:"paid_at,omitempty"`
	ApprovalChain []ApprovalRecord `json:"approval_chain"`
	AuditLogs     []ClaimAuditLog  `json:"audit_logs,omitempty"`
}

// NextLevel returns the 1-based level the next decision will occupy
func (c *Claim) NextLevel() int {
	return len(c.ApprovalChain) + 1
}
