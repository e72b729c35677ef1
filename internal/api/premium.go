package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/taskdesk/taskdesk/internal/middleware"
	"github.com/taskdesk/taskdesk/internal/models"
	"github.com/taskdesk/taskdesk/internal/repository"
	"go.uber.org/zap"
)

// PremiumHandler manages bonus-pool periods and per-employee metrics.
// Routes are gated to Administrator and Manager. The actual scoring
// lives in the calculate_premium_distribution stored procedure; this
// handler only collects inputs and displays results.
type PremiumHandler struct {
	premiums repository.PremiumRepository
	profiles repository.ProfileRepository
	logger   *zap.Logger
}

func NewPremiumHandler(premiums repository.PremiumRepository, profiles repository.ProfileRepository, logger *zap.Logger) *PremiumHandler {
	return &PremiumHandler{premiums: premiums, profiles: profiles, logger: logger}
}

// ListFunds handles GET /v1/premium/funds.
func (h *PremiumHandler) ListFunds(c *gin.Context) {
	funds, err := h.premiums.ListFunds(c.Request.Context())
	if err != nil {
		fail(c, h.logger, "list premium funds", err)
		return
	}
	c.JSON(http.StatusOK, funds)
}

type createFundRequest struct {
	PeriodStart time.Time `json:"period_start" binding:"required"`
	PeriodEnd   time.Time `json:"period_end" binding:"required"`
	TotalAmount float64   `json:"total_fund_amount" binding:"required,gt=0"`
}

// CreateFund handles POST /v1/premium/funds.
func (h *PremiumHandler) CreateFund(c *gin.Context) {
	var req createFundRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !req.PeriodEnd.After(req.PeriodStart) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "period end must be after period start"})
		return
	}

	fund, err := h.premiums.CreateFund(c.Request.Context(), req.PeriodStart, req.PeriodEnd, req.TotalAmount, middleware.GetUserID(c))
	if err != nil {
		fail(c, h.logger, "create premium fund", err)
		return
	}
	c.JSON(http.StatusCreated, fund)
}

// Metrics handles GET /v1/premium/funds/:id/metrics; the fund's period
// selects the metric rows.
func (h *PremiumHandler) Metrics(c *gin.Context) {
	fundID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid fund ID"})
		return
	}

	fund, err := h.premiums.GetFund(c.Request.Context(), fundID)
	if err != nil {
		fail(c, h.logger, "get premium fund", err)
		return
	}
	if fund == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "premium fund not found"})
		return
	}

	metrics, err := h.premiums.MetricsForPeriod(c.Request.Context(), fund.PeriodStart, fund.PeriodEnd)
	if err != nil {
		fail(c, h.logger, "list metrics", err)
		return
	}
	c.JSON(http.StatusOK, metrics)
}

type addMetricRequest struct {
	UserID                  uuid.UUID `json:"user_id" binding:"required"`
	TaskCompletionFrequency float64   `json:"task_completion_frequency" binding:"gte=0"`
	TasksNotCompletedOnTime int       `json:"tasks_not_completed_on_time" binding:"gte=0"`
	TasksCompletedOnTime    int       `json:"tasks_completed_on_time" binding:"gte=0"`
	TotalContractValue      float64   `json:"total_contract_value" binding:"gte=0"`
	NumberOfDelays          int       `json:"number_of_delays" binding:"gte=0"`
}

// AddMetric handles POST /v1/premium/funds/:id/metrics. The period is
// copied from the fund; metrics only exist for periods with a fund.
func (h *PremiumHandler) AddMetric(c *gin.Context) {
	fundID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid fund ID"})
		return
	}

	var req addMetricRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	fund, err := h.premiums.GetFund(c.Request.Context(), fundID)
	if err != nil {
		fail(c, h.logger, "get premium fund", err)
		return
	}
	if fund == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "premium fund not found"})
		return
	}

	employee, err := h.profiles.GetByID(c.Request.Context(), req.UserID)
	if err != nil {
		fail(c, h.logger, "get employee profile", err)
		return
	}
	if employee == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "employee not found"})
		return
	}

	metric, err := h.premiums.AddMetric(c.Request.Context(), &models.EmployeeMetric{
		UserID:                  req.UserID,
		PeriodStart:             fund.PeriodStart,
		PeriodEnd:               fund.PeriodEnd,
		TaskCompletionFrequency: req.TaskCompletionFrequency,
		TasksNotCompletedOnTime: req.TasksNotCompletedOnTime,
		TasksCompletedOnTime:    req.TasksCompletedOnTime,
		TotalContractValue:      req.TotalContractValue,
		NumberOfDelays:          req.NumberOfDelays,
	})
	if err != nil {
		fail(c, h.logger, "add metric", err)
		return
	}

	metric.FullName = employee.FullName
	metric.UserRole = employee.Role
	c.JSON(http.StatusCreated, metric)
}

// Calculate handles POST /v1/premium/funds/:id/calculate; the one
// remote-procedure call in the system.
func (h *PremiumHandler) Calculate(c *gin.Context) {
	fundID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid fund ID"})
		return
	}

	if err := h.premiums.CalculateDistribution(c.Request.Context(), fundID); err != nil {
		fail(c, h.logger, "calculate premiums", err)
		return
	}

	fund, err := h.premiums.GetFund(c.Request.Context(), fundID)
	if err != nil {
		fail(c, h.logger, "reload premium fund", err)
		return
	}
	c.JSON(http.StatusOK, fund)
}

// Distribute handles POST /v1/premium/funds/:id/distribute; the final
// calculated→distributed step.
func (h *PremiumHandler) Distribute(c *gin.Context) {
	fundID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid fund ID"})
		return
	}

	fund, err := h.premiums.SetFundStatus(c.Request.Context(), fundID, models.FundDistributed)
	if err != nil {
		fail(c, h.logger, "distribute premium fund", err)
		return
	}
	c.JSON(http.StatusOK, fund)
}
