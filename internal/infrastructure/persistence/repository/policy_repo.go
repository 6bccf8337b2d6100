package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/campushq/claimflow/internal/application/port"
	"github.com/campushq/claimflow/internal/domain/entity"
	"github.com/campushq/claimflow/internal/infrastructure/persistence/sqlite"
)

// PolicyRepository implements port.PolicyRepository over sqlite
type PolicyRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewPolicyRepository creates a new policy repository
func NewPolicyRepository(db *sql.DB, logger *zap.Logger) port.PolicyRepository {
	return &PolicyRepository{
		db:     db,
		logger: logger,
	}
}

// Create inserts a new fee structure and assigns its id
func (r *PolicyRepository) Create(ctx context.Context, policy *entity.FeeStructure) error {
	query := `
		INSERT INTO fee_structures (
			name, category, rule_kind, rule_amount, rule_rate, rule_tiers,
			max_amount, requires_approval, approval_levels, approval_workflow,
			is_active, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	tiersJSON, err := json.Marshal(policy.Rule.Tiers)
	if err != nil {
		return fmt.Errorf("failed to marshal tiers: %w", err)
	}
	workflowJSON, err := json.Marshal(policy.ApprovalWorkflow)
	if err != nil {
		return fmt.Errorf("failed to marshal workflow: %w", err)
	}

	result, err := sqlite.GetExecutor(ctx, r.db).ExecContext(ctx, query,
		policy.Name,
		string(policy.Category),
		string(policy.Rule.Kind),
		policy.Rule.Amount.String(),
		policy.Rule.Rate.String(),
		string(tiersJSON),
		decimalPtrToNull(policy.MaxAmount),
		policy.RequiresApproval,
		policy.ApprovalLevels,
		string(workflowJSON),
		policy.IsActive,
		policy.CreatedAt,
		policy.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create policy", zap.Error(err))
		return fmt.Errorf("failed to create policy: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	policy.ID = id
	return nil
}

// GetByID retrieves a fee structure with its audit trail
func (r *PolicyRepository) GetByID(ctx context.Context, id int64) (*entity.FeeStructure, error) {
	query := `
		SELECT id, name, category, rule_kind, rule_amount, rule_rate, rule_tiers,
			max_amount, requires_approval, approval_levels, approval_workflow,
			is_active, created_at, updated_at
		FROM fee_structures
		WHERE id = ?
	`

	policy, err := scanPolicy(sqlite.GetExecutor(ctx, r.db).QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: policy %d", entity.ErrNotFound, id)
	}
	if err != nil {
		r.logger.Error("Failed to get policy", zap.Int64("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get policy: %w", err)
	}

	if err := r.loadAuditTrail(ctx, policy); err != nil {
		return nil, err
	}

	return policy, nil
}

// Update rewrites the mutable columns of a fee structure
func (r *PolicyRepository) Update(ctx context.Context, policy *entity.FeeStructure) error {
	query := `
		UPDATE fee_structures SET
			name = ?, category = ?, rule_kind = ?, rule_amount = ?, rule_rate = ?,
			rule_tiers = ?, max_amount = ?, requires_approval = ?, approval_levels = ?,
			approval_workflow = ?, is_active = ?, updated_at = ?
		WHERE id = ?
	`

	tiersJSON, err := json.Marshal(policy.Rule.Tiers)
	if err != nil {
		return fmt.Errorf("failed to marshal tiers: %w", err)
	}
	workflowJSON, err := json.Marshal(policy.ApprovalWorkflow)
	if err != nil {
		return fmt.Errorf("failed to marshal workflow: %w", err)
	}

	result, err := sqlite.GetExecutor(ctx, r.db).ExecContext(ctx, query,
		policy.Name,
		string(policy.Category),
		string(policy.Rule.Kind),
		policy.Rule.Amount.String(),
		policy.Rule.Rate.String(),
		string(tiersJSON),
		decimalPtrToNull(policy.MaxAmount),
		policy.RequiresApproval,
		policy.ApprovalLevels,
		string(workflowJSON),
		policy.IsActive,
		policy.UpdatedAt,
		policy.ID,
	)
	if err != nil {
		r.logger.Error("Failed to update policy", zap.Int64("id", policy.ID), zap.Error(err))
		return fmt.Errorf("failed to update policy: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: policy %d", entity.ErrNotFound, policy.ID)
	}

	return nil
}

// AppendAudit stores an audit trail entry. Entries are insert-only.
func (r *PolicyRepository) AppendAudit(ctx context.Context, audit *entity.PolicyAuditEntry) error {
	query := `
		INSERT INTO policy_audit_trail (policy_id, timestamp, action, actor_id)
		VALUES (?, ?, ?, ?)
	`

	result, err := sqlite.GetExecutor(ctx, r.db).ExecContext(ctx, query,
		audit.PolicyID, audit.Timestamp, audit.Action, audit.ActorID)
	if err != nil {
		r.logger.Error("Failed to append policy audit", zap.Int64("policy_id", audit.PolicyID), zap.Error(err))
		return fmt.Errorf("failed to append policy audit: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	audit.ID = id
	return nil
}

// List retrieves fee structures with pagination, newest first
func (r *PolicyRepository) List(ctx context.Context, limit, offset int) ([]*entity.FeeStructure, error) {
	query := `
		SELECT id, name, category, rule_kind, rule_amount, rule_rate, rule_tiers,
			max_amount, requires_approval, approval_levels, approval_workflow,
			is_active, created_at, updated_at
		FROM fee_structures
		ORDER BY created_at DESC
		LIMIT ? OFFSET ?
	`

	rows, err := sqlite.GetExecutor(ctx, r.db).QueryContext(ctx, query, limit, offset)
	if err != nil {
		r.logger.Error("Failed to list policies", zap.Error(err))
		return nil, fmt.Errorf("failed to list policies: %w", err)
	}
	defer rows.Close()

	var policies []*entity.FeeStructure
	for rows.Next() {
		policy, err := scanPolicy(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan policy: %w", err)
		}
		policies = append(policies, policy)
	}

	return policies, rows.Err()
}

func (r *PolicyRepository) loadAuditTrail(ctx context.Context, policy *entity.FeeStructure) error {
	query := `
		SELECT id, policy_id, timestamp, action, actor_id
		FROM policy_audit_trail
		WHERE policy_id = ?
		ORDER BY id
	`

	rows, err := sqlite.GetExecutor(ctx, r.db).QueryContext(ctx, query, policy.ID)
	if err != nil {
		return fmt.Errorf("failed to load audit trail: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var audit entity.PolicyAuditEntry
		if err := rows.Scan(&audit.ID, &audit.PolicyID, &audit.Timestamp, &audit.Action, &audit.ActorID); err != nil {
			return fmt.Errorf("failed to scan audit entry: %w", err)
		}
		policy.AuditTrail = append(policy.AuditTrail, audit)
	}

	return rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanPolicy(row rowScanner) (*entity.FeeStructure, error) {
	var policy entity.FeeStructure
	var category, ruleKind, ruleAmount, ruleRate, tiersJSON, workflowJSON string
	var maxAmount sql.NullString

	err := row.Scan(
		&policy.ID,
		&policy.Name,
		&category,
		&ruleKind,
		&ruleAmount,
		&ruleRate,
		&tiersJSON,
		&maxAmount,
		&policy.RequiresApproval,
		&policy.ApprovalLevels,
		&workflowJSON,
		&policy.IsActive,
		&policy.CreatedAt,
		&policy.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	policy.Category = entity.Category(category)
	policy.Rule.Kind = entity.RuleKind(ruleKind)

	if policy.Rule.Amount, err = decimal.NewFromString(ruleAmount); err != nil {
		return nil, fmt.Errorf("invalid rule amount %q: %w", ruleAmount, err)
	}
	if policy.Rule.Rate, err = decimal.NewFromString(ruleRate); err != nil {
		return nil, fmt.Errorf("invalid rule rate %q: %w", ruleRate, err)
	}
	if err := json.Unmarshal([]byte(tiersJSON), &policy.Rule.Tiers); err != nil {
		return nil, fmt.Errorf("invalid tiers: %w", err)
	}
	if err := json.Unmarshal([]byte(workflowJSON), &policy.ApprovalWorkflow); err != nil {
		return nil, fmt.Errorf("invalid workflow: %w", err)
	}
	if maxAmount.Valid {
		d, err := decimal.NewFromString(maxAmount.String)
		if err != nil {
			return nil, fmt.Errorf("invalid max amount %q: %w", maxAmount.String, err)
		}
		policy.MaxAmount = &d
	}

	return &policy, nil
}

func decimalPtrToNull(d *decimal.Decimal) sql.NullString {
	if d == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: d.String(), Valid: true}
}

var _ port.PolicyRepository = (*PolicyRepository)(nil)
