// internal/handlers/application.go
package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/javajoker/loan-manager/internal/models"
	"github.com/javajoker/loan-manager/internal/services"
	"github.com/javajoker/loan-manager/internal/utils"
)

type ApplicationHandler struct {
	applicationService *services.ApplicationService
}

func NewApplicationHandler(applicationService *services.ApplicationService) *ApplicationHandler {
	return &ApplicationHandler{
		applicationService: applicationService,
	}
}

// POST /api/applications
func (h *ApplicationHandler) CreateApplication(c *gin.Context) {
	var req services.CreateApplicationRequest
	if !bindJSON(c, &req) {
		return
	}

	app, err := h.applicationService.Create(c.Request.Context(), &req)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.CreatedResponse(c, app)
}

// GET /api/applications
func (h *ApplicationHandler) GetApplications(c *gin.Context) {
	filters, invalid := parseApplicationFilters(c)
	if invalid.respond(c) {
		return
	}

	params := utils.GetPaginationParams(c)
	list, err := h.applicationService.List(c.Request.Context(), filters, params.Page, params.Limit)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.PaginatedResponse(c, utils.PaginationResult{
		Data:       list.Items,
		Count:      len(list.Items),
		Pagination: list.Pagination,
	})
}

// GET /api/applications/:id
func (h *ApplicationHandler) GetApplication(c *gin.Context) {
	app, err := h.applicationService.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, app)
}

// GET /api/applicants/:email/applications
func (h *ApplicationHandler) GetApplicationsByEmail(c *gin.Context) {
	apps, err := h.applicationService.ListByEmail(c.Request.Context(), c.Param("email"))
	if err != nil {
		handleServiceError(c, err)
		return
	}

	count := len(apps)
	c.JSON(http.StatusOK, utils.APIResponse{
		Success: true,
		Count:   &count,
		Data:    apps,
	})
}

// PUT /api/applications/:id
func (h *ApplicationHandler) UpdateApplication(c *gin.Context) {
	var req services.UpdateApplicationRequest
	if !bindJSON(c, &req) {
		return
	}

	app, err := h.applicationService.Update(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, app)
}

// PATCH /api/applications/:id/status
func (h *ApplicationHandler) UpdateApplicationStatus(c *gin.Context) {
	var req services.UpdateStatusRequest
	if !bindJSON(c, &req) {
		return
	}

	app, err := h.applicationService.UpdateStatus(c.Request.Context(), c.Param("id"), req.Status)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, app)
}

// DELETE /api/applications/:id
func (h *ApplicationHandler) DeleteApplication(c *gin.Context) {
	if err := h.applicationService.Delete(c.Request.Context(), c.Param("id")); err != nil {
		handleServiceError(c, err)
		return
	}

	utils.MessageResponse(c, "Application deleted successfully")
}

// GET /api/applications/:id/history
func (h *ApplicationHandler) GetApplicationHistory(c *gin.Context) {
	entries, err := h.applicationService.History(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, entries)
}

func parseApplicationFilters(c *gin.Context) (services.ApplicationFilters, queryErrors) {
	var filters services.ApplicationFilters
	invalid := queryErrors{}

	if status := c.Query("status"); status != "" {
		s := models.ApplicationStatus(status)
		if !s.IsValid() {
			invalid["status"] = "status must be one of: pending, approved, rejected"
		}
		filters.Status = &s
	}

	if loanType := c.Query("loanType"); loanType != "" {
		lt := models.LoanType(loanType)
		if !lt.IsValid() {
			invalid["loanType"] = "loanType must be one of: personal, business, education, mortgage, auto"
		}
		filters.LoanType = &lt
	}

	filters.Email = c.Query("email")

	var err error
	if filters.DateFrom, err = utils.ParseOptionalDate(c.Query("dateFrom")); err != nil {
		invalid["dateFrom"] = "dateFrom must be an ISO-8601 date"
	}
	if filters.DateTo, err = utils.ParseOptionalDate(c.Query("dateTo")); err != nil {
		invalid["dateTo"] = "dateTo must be an ISO-8601 date"
	}

	filters.CreditScoreMin = queryInt(c, "creditScoreMin", invalid)
	filters.CreditScoreMax = queryInt(c, "creditScoreMax", invalid)
	filters.LoanAmountMin = queryFloat(c, "loanAmountMin", invalid)
	filters.LoanAmountMax = queryFloat(c, "loanAmountMax", invalid)

	return filters, invalid
}

func queryInt(c *gin.Context, name string, invalid queryErrors) *int {
	raw := c.Query(name)
	if raw == "" {
		return nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		invalid[name] = name + " must be an integer"
		return nil
	}
	return &v
}

func queryFloat(c *gin.Context, name string, invalid queryErrors) *float64 {
	raw := c.Query(name)
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		invalid[name] = name + " must be a number"
		return nil
	}
	return &v
}
