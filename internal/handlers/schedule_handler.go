package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/exam-service/internal/models"
	"github.com/SAP-F-2025/exam-service/internal/repositories"
	"github.com/SAP-F-2025/exam-service/internal/services"
	"github.com/SAP-F-2025/exam-service/internal/utils"
)

type ScheduleHandler struct {
	BaseHandler
	scheduleService services.ScheduleService
}

func NewScheduleHandler(scheduleService services.ScheduleService, logger utils.Logger) *ScheduleHandler {
	return &ScheduleHandler{
		BaseHandler:     NewBaseHandler(logger),
		scheduleService: scheduleService,
	}
}

// CreateSchedule opens a window in which students may attempt an exam
// @Summary Create schedule
// @Tags schedules
// @Accept json
// @Produce json
// @Param schedule body services.CreateScheduleRequest true "Schedule data"
// @Success 201 {object} models.ExamSchedule
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /schedules [post]
func (h *ScheduleHandler) CreateSchedule(c *gin.Context) {
	var req services.CreateScheduleRequest
	if !h.bindJSON(c, &req) {
		return
	}

	userID, ok := h.userID(c)
	if !ok {
		return
	}

	h.LogRequest(c, "Creating schedule", "exam_id", req.ExamID)

	schedule, err := h.scheduleService.Create(c.Request.Context(), &req, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, schedule)
}

// GetSchedule returns a schedule. Retired versions resolve to the current one.
// @Summary Get schedule
// @Tags schedules
// @Produce json
// @Param id path uint true "Schedule ID"
// @Success 200 {object} models.ExamSchedule
// @Failure 404 {object} ErrorResponse
// @Router /schedules/{id} [get]
func (h *ScheduleHandler) GetSchedule(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	schedule, err := h.scheduleService.Resolve(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, schedule)
}

// GetPaper returns the exam paper a student sees, without answer keys
// @Summary Get exam paper
// @Tags schedules
// @Produce json
// @Param id path uint true "Schedule ID"
// @Success 200 {object} models.ExamPaper
// @Router /schedules/{id}/paper [get]
func (h *ScheduleHandler) GetPaper(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	paper, err := h.scheduleService.GetPaper(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, paper)
}

// UpdateSchedule replaces the current version with a patched copy
// @Summary Update schedule
// @Description Only the current version can be updated. The response is the new version.
// @Tags schedules
// @Accept json
// @Produce json
// @Param id path uint true "Schedule ID"
// @Param patch body services.SchedulePatch true "Changed fields"
// @Success 200 {object} models.ExamSchedule
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /schedules/{id} [put]
func (h *ScheduleHandler) UpdateSchedule(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	var patch services.SchedulePatch
	if !h.bindJSON(c, &patch) {
		return
	}

	userID, ok := h.userID(c)
	if !ok {
		return
	}

	h.LogRequest(c, "Updating schedule", "schedule_id", id)

	schedule, err := h.scheduleService.Update(c.Request.Context(), id, &patch, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, schedule)
}

// DeactivateSchedule stops new attempts without versioning
// @Summary Deactivate schedule
// @Tags schedules
// @Param id path uint true "Schedule ID"
// @Success 200 {object} SuccessResponse
// @Failure 404 {object} ErrorResponse
// @Router /schedules/{id}/deactivate [post]
func (h *ScheduleHandler) DeactivateSchedule(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	userID, ok := h.userID(c)
	if !ok {
		return
	}

	h.LogRequest(c, "Deactivating schedule", "schedule_id", id)

	changed, err := h.scheduleService.Deactivate(c.Request.Context(), id, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	if !changed {
		c.JSON(http.StatusNotFound, ErrorResponse{Message: "Schedule not found or not current"})
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Message: "Schedule deactivated"})
}

// DeleteSchedule soft deletes the current version
// @Summary Delete schedule
// @Tags schedules
// @Param id path uint true "Schedule ID"
// @Success 204
// @Failure 404 {object} ErrorResponse
// @Router /schedules/{id} [delete]
func (h *ScheduleHandler) DeleteSchedule(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	userID, ok := h.userID(c)
	if !ok {
		return
	}

	h.LogRequest(c, "Deleting schedule", "schedule_id", id)

	deleted, err := h.scheduleService.Delete(c.Request.Context(), id, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	if !deleted {
		c.JSON(http.StatusNotFound, ErrorResponse{Message: "Schedule not found or not current"})
		return
	}

	c.Status(http.StatusNoContent)
}

// ListSchedules lists current schedule versions
// @Summary List schedules
// @Tags schedules
// @Produce json
// @Success 200 {object} models.PaginatedResponse
// @Router /schedules [get]
func (h *ScheduleHandler) ListSchedules(c *gin.Context) {
	h.list(c, h.scheduleService.List)
}

// ListAvailable lists active schedules for students
// @Summary List available schedules
// @Tags schedules
// @Produce json
// @Success 200 {object} models.PaginatedResponse
// @Router /schedules/available [get]
func (h *ScheduleHandler) ListAvailable(c *gin.Context) {
	h.list(c, h.scheduleService.Available)
}

func (h *ScheduleHandler) list(c *gin.Context, fetch func(ctx context.Context, filters repositories.ScheduleFilters) ([]*models.ExamSchedule, int64, error)) {
	skip, limit := h.parsePage(c)
	filters := repositories.ScheduleFilters{
		Search:   c.Query("search"),
		IsActive: h.parseBoolQueryPtr(c, "is_active"),
		Subject:  h.parseStringQueryPtr(c, "subject"),
		ExamID:   h.parseUintQueryPtr(c, "exam_id"),
		Limit:    limit,
		Offset:   skip,
	}

	schedules, total, err := fetch(c.Request.Context(), filters)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.PaginatedResponse{
		Data:       schedules,
		Pagination: models.NewPagination(skip, limit, total),
	})
}

// GetHistory lists every version of the schedule's lineage, oldest first
// @Summary Schedule history
// @Tags schedules
// @Produce json
// @Param id path uint true "Schedule ID"
// @Success 200 {array} models.ExamSchedule
// @Router /schedules/{id}/history [get]
func (h *ScheduleHandler) GetHistory(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	versions, err := h.scheduleService.History(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, versions)
}
