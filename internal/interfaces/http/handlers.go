package http

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/campushq/claimflow/internal/application/port"
	"github.com/campushq/claimflow/internal/application/service"
	"github.com/campushq/claimflow/internal/domain/entity"
	"github.com/campushq/claimflow/internal/report"
)

// Handlers contains all HTTP request handlers
type Handlers struct {
	policies  service.PolicyService
	claims    service.ClaimService
	approvals service.ApprovalService
	reports   service.ReportService
	exporter  *report.ExcelExporter
	logger    Logger
}

// NewHandlers creates a new Handlers instance
func NewHandlers(
	policies service.PolicyService,
	claims service.ClaimService,
	approvals service.ApprovalService,
	reports service.ReportService,
	exporter *report.ExcelExporter,
	logger Logger,
) *Handlers {
	return &Handlers{
		policies:  policies,
		claims:    claims,
		approvals: approvals,
		reports:   reports,
		exporter:  exporter,
		logger:    logger,
	}
}

// Response represents a standard JSON response
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// CreatePolicyRequest is the body for POST /api/policies
type CreatePolicyRequest struct {
	ActorID          string           `json:"actor_id" binding:"required"`
	Name             string           `json:"name" binding:"required"`
	Category         entity.Category  `json:"category" binding:"required"`
	Rule             entity.Rule      `json:"rule" binding:"required"`
	MaxAmount        *decimal.Decimal `json:"max_amount,omitempty"`
	RequiresApproval bool             `json:"requires_approval"`
	ApprovalLevels   int              `json:"approval_levels"`
	ApprovalWorkflow []string         `json:"approval_workflow"`
}

// UpdatePolicyRequest is the body for PATCH /api/policies/:id
type UpdatePolicyRequest struct {
	ActorID string              `json:"actor_id" binding:"required"`
	Patch   service.PolicyPatch `json:"patch"`
}

// SubmitClaimRequest is the body for POST /api/claims
type SubmitClaimRequest struct {
	SubmitterID string          `json:"submitter_id" binding:"required"`
	PolicyID    int64           `json:"policy_id" binding:"required"`
	Amount      decimal.Decimal `json:"amount" binding:"required"`
	Description string          `json:"description"`
	Receipts    []string        `json:"receipts"`
}

// DecisionRequest is the body for POST /api/claims/:id/decisions
type DecisionRequest struct {
	ApproverID   string          `json:"approver_id" binding:"required"`
	ApproverRole string          `json:"approver_role" binding:"required"`
	Decision     entity.Decision `json:"decision" binding:"required"`
}

// PayClaimRequest is the body for POST /api/claims/:id/pay
type PayClaimRequest struct {
	ActorID string `json:"actor_id" binding:"required"`
}

// HealthCheck handles GET /health
func (h *Handlers) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, Response{
		Success: true,
		Data: gin.H{
			"status":    "healthy",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		},
	})
}

// CreatePolicy handles POST /api/policies
func (h *Handlers) CreatePolicy(c *gin.Context) {
	var req CreatePolicyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}

	draft := &entity.FeeStructure{
		Name:             req.Name,
		Category:         req.Category,
		Rule:             req.Rule,
		MaxAmount:        req.MaxAmount,
		RequiresApproval: req.RequiresApproval,
		ApprovalLevels:   req.ApprovalLevels,
		ApprovalWorkflow: req.ApprovalWorkflow,
	}

	policy, err := h.policies.Create(c.Request.Context(), req.ActorID, draft)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, Response{Success: true, Data: policy})
}

// ListPolicies handles GET /api/policies
func (h *Handlers) ListPolicies(c *gin.Context) {
	limit, offset := pagination(c)

	policies, err := h.policies.List(c.Request.Context(), limit, offset)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: policies})
}

// GetPolicy handles GET /api/policies/:id
func (h *Handlers) GetPolicy(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	policy, err := h.policies.Get(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: policy})
}

// UpdatePolicy handles PATCH /api/policies/:id
func (h *Handlers) UpdatePolicy(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	var req UpdatePolicyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}

	policy, err := h.policies.Update(c.Request.Context(), req.ActorID, id, req.Patch)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: policy})
}

// DeactivatePolicy handles POST /api/policies/:id/deactivate
func (h *Handlers) DeactivatePolicy(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	var req PayClaimRequest // same shape: just an actor id
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}

	if err := h.policies.Deactivate(c.Request.Context(), req.ActorID, id); err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true})
}

// SubmitClaim handles POST /api/claims
func (h *Handlers) SubmitClaim(c *gin.Context) {
	var req SubmitClaimRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}

	claim, err := h.claims.Submit(c.Request.Context(),
		req.SubmitterID, req.PolicyID, req.Amount, req.Description, req.Receipts)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, Response{Success: true, Data: claim})
}

// ListClaims handles GET /api/claims
func (h *Handlers) ListClaims(c *gin.Context) {
	limit, offset := pagination(c)

	filter := port.ClaimFilter{
		Status:      entity.ClaimStatus(c.Query("status")),
		SubmitterID: c.Query("submitter_id"),
		Limit:       limit,
		Offset:      offset,
	}
	if policyID := c.Query("policy_id"); policyID != "" {
		id, err := strconv.ParseInt(policyID, 10, 64)
		if err != nil {
			h.badRequest(c, fmt.Errorf("invalid policy_id: %w", err))
			return
		}
		filter.PolicyID = id
	}

	claims, err := h.claims.List(c.Request.Context(), filter)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: claims})
}

// GetClaim handles GET /api/claims/:id
func (h *Handlers) GetClaim(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	claim, err := h.claims.Get(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: claim})
}

// GetClaimAudit handles GET /api/claims/:id/audit
func (h *Handlers) GetClaimAudit(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	claim, err := h.claims.Get(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: claim.AuditLogs})
}

// RecordDecision handles POST /api/claims/:id/decisions
func (h *Handlers) RecordDecision(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	var req DecisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}

	claim, err := h.approvals.RecordDecision(c.Request.Context(),
		id, req.ApproverID, req.ApproverRole, req.Decision)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: claim})
}

// PayClaim handles POST /api/claims/:id/pay
func (h *Handlers) PayClaim(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	var req PayClaimRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, err)
		return
	}

	claim, err := h.claims.MarkPaid(c.Request.Context(), id, req.ActorID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: claim})
}

// GetSummary handles GET /api/reports/summary
func (h *Handlers) GetSummary(c *gin.Context) {
	summary, err := h.reports.Summary(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: summary})
}

// DownloadSummary handles GET /api/reports/summary.xlsx
func (h *Handlers) DownloadSummary(c *gin.Context) {
	summary, err := h.reports.Summary(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}

	f, err := h.exporter.Generate(summary)
	if err != nil {
		h.respondError(c, err)
		return
	}
	defer f.Close()

	filename := fmt.Sprintf("summary_%s.xlsx", summary.GeneratedAt.Format("20060102_150405"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")

	if err := f.Write(c.Writer); err != nil {
		h.logger.Error("Failed to stream summary export", "error", err)
	}
}

// ExportSummary handles POST /api/reports/export
func (h *Handlers) ExportSummary(c *gin.Context) {
	summary, err := h.reports.Summary(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}

	path, err := h.exporter.Save(summary)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, Response{Success: true, Data: gin.H{"path": path}})
}

func (h *Handlers) pathID(c *gin.Context) (int64, bool) {
	idStr := c.Param("id")
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		h.badRequest(c, fmt.Errorf("invalid id %q", idStr))
		return 0, false
	}
	return id, true
}

func (h *Handlers) badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, Response{Success: false, Error: err.Error()})
}

func (h *Handlers) respondError(c *gin.Context, err error) {
	status := statusForError(err)
	if status == http.StatusInternalServerError {
		h.logger.Error("Request failed", "path", c.Request.URL.Path, "error", err)
		c.JSON(status, Response{Success: false, Error: "internal error"})
		return
	}
	c.JSON(status, Response{Success: false, Error: err.Error()})
}

func statusForError(err error) int {
	switch {
	case errors.Is(err, entity.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, entity.ErrInvalidPolicy),
		errors.Is(err, entity.ErrInvalidAmount),
		errors.Is(err, entity.ErrExceedsCap),
		errors.Is(err, entity.ErrTierGap),
		errors.Is(err, entity.ErrPolicyInactive):
		return http.StatusUnprocessableEntity
	case errors.Is(err, entity.ErrInvalidTransition),
		errors.Is(err, entity.ErrLevelMismatch),
		errors.Is(err, entity.ErrUnauthorizedApprover):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func pagination(c *gin.Context) (limit, offset int) {
	limit, _ = strconv.Atoi(c.DefaultQuery("limit", "20"))
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	offset, _ = strconv.Atoi(c.DefaultQuery("offset", "0"))
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
