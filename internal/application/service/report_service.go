package service

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/campushq/claimflow/internal/application/port"
	"github.com/campushq/claimflow/internal/domain/entity"
)

// Summary is the full derived report over the claim ledger
type Summary struct {
	TotalsByStatus map[entity.ClaimStatus]decimal.Decimal `json:"totals_by_status"`
	CountByStatus  map[entity.ClaimStatus]int             `json:"count_by_status"`
	ByCategory     map[entity.Category]port.CategoryStats `json:"by_category"`
	GeneratedAt    time.Time                              `json:"generated_at"`
}

// ReportService derives summary statistics from the claim ledger. It keeps no
// state of its own: every call recomputes from the store.
type ReportService interface {
	TotalsByStatus(ctx context.Context) (map[entity.ClaimStatus]decimal.Decimal, error)
	CountByStatus(ctx context.Context) (map[entity.ClaimStatus]int, error)
	ByCategory(ctx context.Context) (map[entity.Category]port.CategoryStats, error)
	Summary(ctx context.Context) (*Summary, error)
}

type reportServiceImpl struct {
	claimRepo port.ClaimRepository
	txManager port.TransactionManager
	logger    Logger
}

// NewReportService creates a new ReportService
func NewReportService(claimRepo port.ClaimRepository, txManager port.TransactionManager, logger Logger) ReportService {
	return &reportServiceImpl{
		claimRepo: claimRepo,
		txManager: txManager,
		logger:    logger,
	}
}

// TotalsByStatus returns the summed claim amount per status
func (s *reportServiceImpl) TotalsByStatus(ctx context.Context) (map[entity.ClaimStatus]decimal.Decimal, error) {
	return s.claimRepo.TotalsByStatus(ctx)
}

// CountByStatus returns the claim count per status
func (s *reportServiceImpl) CountByStatus(ctx context.Context) (map[entity.ClaimStatus]int, error) {
	return s.claimRepo.CountByStatus(ctx)
}

// ByCategory returns count and sum per claim category
func (s *reportServiceImpl) ByCategory(ctx context.Context) (map[entity.Category]port.CategoryStats, error) {
	return s.claimRepo.StatsByCategory(ctx)
}

// Summary computes all three breakdowns inside a single read transaction so
// the report reflects one consistent ledger snapshot.
func (s *reportServiceImpl) Summary(ctx context.Context) (*Summary, error) {
	summary := &Summary{GeneratedAt: time.Now()}

	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		var err error
		if summary.TotalsByStatus, err = s.claimRepo.TotalsByStatus(txCtx); err != nil {
			return err
		}
		if summary.CountByStatus, err = s.claimRepo.CountByStatus(txCtx); err != nil {
			return err
		}
		summary.ByCategory, err = s.claimRepo.StatsByCategory(txCtx)
		return err
	})
	if err != nil {
		s.logger.Error("Failed to build summary report", "error", err)
		return nil, err
	}

	return summary, nil
}
