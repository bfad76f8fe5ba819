package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/exam-service/internal/services"
	"github.com/SAP-F-2025/exam-service/internal/utils"
)

type DashboardHandler struct {
	BaseHandler
	service services.DashboardService
}

func NewDashboardHandler(service services.DashboardService, logger utils.Logger) *DashboardHandler {
	return &DashboardHandler{
		BaseHandler: NewBaseHandler(logger),
		service:     service,
	}
}

// ===== DASHBOARD ENDPOINTS =====

// GetOverview returns bank, exam and submission totals
// @Summary Get dashboard overview
// @Description Totals plus the number of questions per subject
// @Tags dashboard
// @Produce json
// @Success 200 {object} services.DashboardOverview
// @Failure 401 {object} ErrorResponse "Unauthorized"
// @Failure 500 {object} ErrorResponse "Internal server error"
// @Router /dashboard/overview [get]
func (h *DashboardHandler) GetOverview(c *gin.Context) {
	h.LogRequest(c, "Getting dashboard overview")

	overview, err := h.service.Overview(c.Request.Context())
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, overview)
}

// GetScheduleStats returns attempt and score statistics of a schedule lineage
// @Summary Get schedule statistics
// @Tags dashboard
// @Produce json
// @Param id path uint true "Schedule ID"
// @Success 200 {object} repositories.ScheduleStats
// @Failure 404 {object} ErrorResponse
// @Router /dashboard/schedules/{id} [get]
func (h *DashboardHandler) GetScheduleStats(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	h.LogRequest(c, "Getting schedule stats", "schedule_id", id)

	stats, err := h.service.ScheduleStats(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, stats)
}
