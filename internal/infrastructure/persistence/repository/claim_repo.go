package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/campushq/claimflow/internal/application/port"
	"github.com/campushq/claimflow/internal/domain/entity"
	"github.com/campushq/claimflow/internal/infrastructure/persistence/sqlite"
)

// ClaimRepository implements port.ClaimRepository over sqlite. Approval and
// audit rows are insert-only; there is no update or delete path for them.
type ClaimRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewClaimRepository creates a new claim repository
func NewClaimRepository(db *sql.DB, logger *zap.Logger) port.ClaimRepository {
	return &ClaimRepository{
		db:     db,
		logger: logger,
	}
}

// Create inserts a new claim and assigns its id
func (r *ClaimRepository) Create(ctx context.Context, claim *entity.Claim) error {
	query := `
		INSERT INTO claims (
			submitter_id, policy_id, category, amount, description, receipts,
			status, submitted_at, approved_at, paid_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	receiptsJSON, err := json.Marshal(claim.Receipts)
	if err != nil {
		return fmt.Errorf("failed to marshal receipts: %w", err)
	}

	result, err := sqlite.GetExecutor(ctx, r.db).ExecContext(ctx, query,
		claim.SubmitterID,
		claim.PolicyID,
		string(claim.Category),
		claim.Amount.String(),
		claim.Description,
		string(receiptsJSON),
		string(claim.Status),
		claim.SubmittedAt,
		timePtrToNull(claim.ApprovedAt),
		timePtrToNull(claim.PaidAt),
	)
	if err != nil {
		r.logger.Error("Failed to create claim", zap.Error(err))
		return fmt.Errorf("failed to create claim: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	claim.ID = id
	return nil
}

// GetByID retrieves a claim with its approval chain and audit log
func (r *ClaimRepository) GetByID(ctx context.Context, id int64) (*entity.Claim, error) {
	query := `
		SELECT id, submitter_id, policy_id, category, amount, description,
			receipts, status, submitted_at, approved_at, paid_at
		FROM claims
		WHERE id = ?
	`

	claim, err := scanClaim(sqlite.GetExecutor(ctx, r.db).QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: claim %d", entity.ErrNotFound, id)
	}
	if err != nil {
		r.logger.Error("Failed to get claim", zap.Int64("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get claim: %w", err)
	}

	if err := r.loadApprovalChain(ctx, claim); err != nil {
		return nil, err
	}
	if err := r.loadAuditLogs(ctx, claim); err != nil {
		return nil, err
	}

	return claim, nil
}

// UpdateStatus sets a claim's lifecycle status
func (r *ClaimRepository) UpdateStatus(ctx context.Context, id int64, status entity.ClaimStatus) error {
	result, err := sqlite.GetExecutor(ctx, r.db).ExecContext(ctx,
		`UPDATE claims SET status = ? WHERE id = ?`, string(status), id)
	if err != nil {
		r.logger.Error("Failed to update claim status", zap.Int64("id", id), zap.Error(err))
		return fmt.Errorf("failed to update claim status: %w", err)
	}
	return requireRow(result, id)
}

// SetApprovedAt records the moment the final approval landed
func (r *ClaimRepository) SetApprovedAt(ctx context.Context, id int64, t time.Time) error {
	result, err := sqlite.GetExecutor(ctx, r.db).ExecContext(ctx,
		`UPDATE claims SET approved_at = ? WHERE id = ?`, t, id)
	if err != nil {
		r.logger.Error("Failed to set approved_at", zap.Int64("id", id), zap.Error(err))
		return fmt.Errorf("failed to set approved_at: %w", err)
	}
	return requireRow(result, id)
}

// SetPaidAt records the payment timestamp
func (r *ClaimRepository) SetPaidAt(ctx context.Context, id int64, t time.Time) error {
	result, err := sqlite.GetExecutor(ctx, r.db).ExecContext(ctx,
		`UPDATE claims SET paid_at = ? WHERE id = ?`, t, id)
	if err != nil {
		r.logger.Error("Failed to set paid_at", zap.Int64("id", id), zap.Error(err))
		return fmt.Errorf("failed to set paid_at: %w", err)
	}
	return requireRow(result, id)
}

// AppendApproval stores one level's decision. The unique (claim_id, level)
// constraint rejects a second decision for the same level.
func (r *ClaimRepository) AppendApproval(ctx context.Context, record *entity.ApprovalRecord) error {
	query := `
		INSERT INTO claim_approvals (claim_id, level, approver_id, decision, timestamp)
		VALUES (?, ?, ?, ?, ?)
	`

	result, err := sqlite.GetExecutor(ctx, r.db).ExecContext(ctx, query,
		record.ClaimID, record.Level, record.ApproverID, string(record.Decision), record.Timestamp)
	if err != nil {
		r.logger.Error("Failed to append approval", zap.Int64("claim_id", record.ClaimID), zap.Error(err))
		return fmt.Errorf("failed to append approval: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	record.ID = id
	return nil
}

// AppendAudit stores an audit log entry
func (r *ClaimRepository) AppendAudit(ctx context.Context, log *entity.ClaimAuditLog) error {
	query := `
		INSERT INTO claim_audit_logs (claim_id, timestamp, action, actor_id, details)
		VALUES (?, ?, ?, ?, ?)
	`

	result, err := sqlite.GetExecutor(ctx, r.db).ExecContext(ctx, query,
		log.ClaimID, log.Timestamp, log.Action, log.ActorID, log.Details)
	if err != nil {
		r.logger.Error("Failed to append claim audit", zap.Int64("claim_id", log.ClaimID), zap.Error(err))
		return fmt.Errorf("failed to append claim audit: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	log.ID = id
	return nil
}

// List retrieves claims matching the filter, newest first
func (r *ClaimRepository) List(ctx context.Context, filter port.ClaimFilter) ([]*entity.Claim, error) {
	var conditions []string
	var args []interface{}

	if filter.Status != "" {
		conditions = append(conditions, "status = ?")
		args = append(args, string(filter.Status))
	}
	if filter.SubmitterID != "" {
		conditions = append(conditions, "submitter_id = ?")
		args = append(args, filter.SubmitterID)
	}
	if filter.PolicyID != 0 {
		conditions = append(conditions, "policy_id = ?")
		args = append(args, filter.PolicyID)
	}

	query := `
		SELECT id, submitter_id, policy_id, category, amount, description,
			receipts, status, submitted_at, approved_at, paid_at
		FROM claims
	`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY submitted_at DESC"

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += " LIMIT ? OFFSET ?"
	args = append(args, limit, filter.Offset)

	rows, err := sqlite.GetExecutor(ctx, r.db).QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to list claims", zap.Error(err))
		return nil, fmt.Errorf("failed to list claims: %w", err)
	}
	defer rows.Close()

	var claims []*entity.Claim
	for rows.Next() {
		claim, err := scanClaim(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan claim: %w", err)
		}
		claims = append(claims, claim)
	}

	return claims, rows.Err()
}

// TotalsByStatus sums claim amounts per status. Amounts are summed in Go so
// decimal strings never round-trip through sqlite floats.
func (r *ClaimRepository) TotalsByStatus(ctx context.Context) (map[entity.ClaimStatus]decimal.Decimal, error) {
	rows, err := sqlite.GetExecutor(ctx, r.db).QueryContext(ctx, `SELECT status, amount FROM claims`)
	if err != nil {
		return nil, fmt.Errorf("failed to query totals: %w", err)
	}
	defer rows.Close()

	totals := make(map[entity.ClaimStatus]decimal.Decimal)
	for rows.Next() {
		var status, amountStr string
		if err := rows.Scan(&status, &amountStr); err != nil {
			return nil, fmt.Errorf("failed to scan totals row: %w", err)
		}
		amount, err := decimal.NewFromString(amountStr)
		if err != nil {
			return nil, fmt.Errorf("invalid amount %q: %w", amountStr, err)
		}
		key := entity.ClaimStatus(status)
		totals[key] = totals[key].Add(amount)
	}

	return totals, rows.Err()
}

// CountByStatus counts claims per status
func (r *ClaimRepository) CountByStatus(ctx context.Context) (map[entity.ClaimStatus]int, error) {
	rows, err := sqlite.GetExecutor(ctx, r.db).QueryContext(ctx,
		`SELECT status, COUNT(*) FROM claims GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("failed to query counts: %w", err)
	}
	defer rows.Close()

	counts := make(map[entity.ClaimStatus]int)
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("failed to scan count row: %w", err)
		}
		counts[entity.ClaimStatus(status)] = count
	}

	return counts, rows.Err()
}

// StatsByCategory aggregates claim count and amount per category
func (r *ClaimRepository) StatsByCategory(ctx context.Context) (map[entity.Category]port.CategoryStats, error) {
	rows, err := sqlite.GetExecutor(ctx, r.db).QueryContext(ctx, `SELECT category, amount FROM claims`)
	if err != nil {
		return nil, fmt.Errorf("failed to query category stats: %w", err)
	}
	defer rows.Close()

	stats := make(map[entity.Category]port.CategoryStats)
	for rows.Next() {
		var category, amountStr string
		if err := rows.Scan(&category, &amountStr); err != nil {
			return nil, fmt.Errorf("failed to scan category row: %w", err)
		}
		amount, err := decimal.NewFromString(amountStr)
		if err != nil {
			return nil, fmt.Errorf("invalid amount %q: %w", amountStr, err)
		}
		key := entity.Category(category)
		s := stats[key]
		s.Count++
		s.Sum = s.Sum.Add(amount)
		stats[key] = s
	}

	return stats, rows.Err()
}

func (r *ClaimRepository) loadApprovalChain(ctx context.Context, claim *entity.Claim) error {
	query := `
		SELECT id, claim_id, level, approver_id, decision, timestamp
		FROM claim_approvals
		WHERE claim_id = ?
		ORDER BY level
	`

	rows, err := sqlite.GetExecutor(ctx, r.db).QueryContext(ctx, query, claim.ID)
	if err != nil {
		return fmt.Errorf("failed to load approval chain: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var record entity.ApprovalRecord
		var decision string
		if err := rows.Scan(&record.ID, &record.ClaimID, &record.Level, &record.ApproverID, &decision, &record.Timestamp); err != nil {
			return fmt.Errorf("failed to scan approval record: %w", err)
		}
		record.Decision = entity.Decision(decision)
		claim.ApprovalChain = append(claim.ApprovalChain, record)
	}

	return rows.Err()
}

func (r *ClaimRepository) loadAuditLogs(ctx context.Context, claim *entity.Claim) error {
	query := `
		SELECT id, claim_id, timestamp, action, actor_id, details
		FROM claim_audit_logs
		WHERE claim_id = ?
		ORDER BY id
	`

	rows, err := sqlite.GetExecutor(ctx, r.db).QueryContext(ctx, query, claim.ID)
	if err != nil {
		return fmt.Errorf("failed to load audit logs: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var log entity.ClaimAuditLog
		if err := rows.Scan(&log.ID, &log.ClaimID, &log.Timestamp, &log.Action, &log.ActorID, &log.Details); err != nil {
			return fmt.Errorf("failed to scan audit log: %w", err)
		}
		claim.AuditLogs = append(claim.AuditLogs, log)
	}

	return rows.Err()
}

func scanClaim(row rowScanner) (*entity.Claim, error) {
	var claim entity.Claim
	var category, amountStr, receiptsJSON, status string
	var approvedAt, paidAt sql.NullTime

	err := row.Scan(
		&claim.ID,
		&claim.SubmitterID,
		&claim.PolicyID,
		&category,
		&amountStr,
		&claim.Description,
		&receiptsJSON,
		&status,
		&claim.SubmittedAt,
		&approvedAt,
		&paidAt,
	)
	if err != nil {
		return nil, err
	}

	claim.Category = entity.Category(category)
	claim.Status = entity.ClaimStatus(status)

	if claim.Amount, err = decimal.NewFromString(amountStr); err != nil {
		return nil, fmt.Errorf("invalid amount %q: %w", amountStr, err)
	}
	if err := json.Unmarshal([]byte(receiptsJSON), &claim.Receipts); err != nil {
		return nil, fmt.Errorf("invalid receipts: %w", err)
	}
	if approvedAt.Valid {
		claim.ApprovedAt = &approvedAt.Time
	}
	if paidAt.Valid {
		claim.PaidAt = &paidAt.Time
	}

	return &claim, nil
}

func requireRow(result sql.Result, id int64) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: claim %d", entity.ErrNotFound, id)
	}
	return nil
}

func timePtrToNull(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

var _ port.ClaimRepository = (*ClaimRepository)(nil)
