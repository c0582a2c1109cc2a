// internal/handlers/dashboard.go
package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/javajoker/loan-manager/internal/services"
	"github.com/javajoker/loan-manager/internal/utils"
)

type DashboardHandler struct {
	dashboardService *services.DashboardService
	analyticsService *services.AnalyticsService
}

func NewDashboardHandler(dashboardService *services.DashboardService, analyticsService *services.AnalyticsService) *DashboardHandler {
	return &DashboardHandler{
		dashboardService: dashboardService,
		analyticsService: analyticsService,
	}
}

// GET /api/dashboard/stats
func (h *DashboardHandler) GetDashboardStats(c *gin.Context) {
	stats, err := h.dashboardService.Summary(c.Request.Context())
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, stats)
}

// GET /api/dashboard/loan-types
func (h *DashboardHandler) GetLoanTypeStats(c *gin.Context) {
	stats, err := h.dashboardService.LoanTypeStats(c.Request.Context())
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, stats)
}

// GET /api/dashboard/monthly
func (h *DashboardHandler) GetMonthlyStats(c *gin.Context) {
	months := services.DefaultMonthlyWindow
	if raw := c.Query("months"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 1 || v > services.MaxMonthlyWindow {
			utils.ValidationErrorResponse(c, map[string]string{
				"months": "months must be an integer between 1 and 24",
			})
			return
		}
		months = v
	}

	stats, err := h.dashboardService.MonthlyStats(c.Request.Context(), months)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, stats)
}

// GET /api/dashboard/approval-trends
func (h *DashboardHandler) GetApprovalTrends(c *gin.Context) {
	invalid := queryErrors{}
	start, err := utils.ParseOptionalDate(c.Query("startDate"))
	if err != nil {
		invalid["startDate"] = "startDate must be an ISO-8601 date"
	}
	end, err := utils.ParseOptionalDate(c.Query("endDate"))
	if err != nil {
		invalid["endDate"] = "endDate must be an ISO-8601 date"
	}
	if invalid.respond(c) {
		return
	}

	trends, err := h.dashboardService.ApprovalTrends(c.Request.Context(), start, end)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, trends)
}

// GET /api/dashboard/top-metrics
func (h *DashboardHandler) GetTopMetrics(c *gin.Context) {
	top, err := h.dashboardService.TopMetrics(c.Request.Context())
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, top)
}

// GET /api/dashboard/snapshots
func (h *DashboardHandler) GetSnapshots(c *gin.Context) {
	filter := services.SnapshotFilter{Metric: c.Query("metric")}

	invalid := queryErrors{}
	var err error
	if filter.From, err = utils.ParseOptionalDate(c.Query("from")); err != nil {
		invalid["from"] = "from must be an ISO-8601 date"
	}
	if filter.To, err = utils.ParseOptionalDate(c.Query("to")); err != nil {
		invalid["to"] = "to must be an ISO-8601 date"
	}
	if raw := c.Query("limit"); raw != "" {
		if filter.Limit, err = strconv.Atoi(raw); err != nil {
			invalid["limit"] = "limit must be an integer"
		}
	}
	if invalid.respond(c) {
		return
	}

	snapshots, err := h.analyticsService.ListSnapshots(c.Request.Context(), filter)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, snapshots)
}
