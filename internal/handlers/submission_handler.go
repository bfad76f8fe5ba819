package handlers

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/exam-service/internal/models"
	"github.com/SAP-F-2025/exam-service/internal/repositories"
	"github.com/SAP-F-2025/exam-service/internal/services"
	"github.com/SAP-F-2025/exam-service/internal/utils"
	"github.com/SAP-F-2025/exam-service/internal/validator"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type SubmissionHandler struct {
	BaseHandler
	submissionService services.SubmissionService
}

func NewSubmissionHandler(submissionService services.SubmissionService, logger utils.Logger) *SubmissionHandler {
	return &SubmissionHandler{
		BaseHandler:       NewBaseHandler(logger),
		submissionService: submissionService,
	}
}

// AuthorizeAttempt reports whether the caller may start an attempt now
// @Summary Check attempt
// @Tags submissions
// @Produce json
// @Param id path uint true "Schedule ID"
// @Success 200 {object} models.AttemptDecision
// @Failure 404 {object} ErrorResponse
// @Router /schedules/{id}/attempt-check [get]
func (h *SubmissionHandler) AuthorizeAttempt(c *gin.Context) {
	scheduleID := h.parseIDParam(c, "id")
	if scheduleID == 0 {
		return
	}

	userID, ok := h.userID(c)
	if !ok {
		return
	}

	decision, err := h.submissionService.AuthorizeAttempt(c.Request.Context(), userID, scheduleID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, decision)
}

// StartAttempt opens a new in-progress submission
// @Summary Start attempt
// @Tags submissions
// @Accept json
// @Produce json
// @Param body body validator.SubmissionStartRequest true "Schedule"
// @Success 201 {object} models.Submission
// @Failure 409 {object} ErrorResponse
// @Failure 422 {object} ErrorResponse
// @Router /submissions/start [post]
func (h *SubmissionHandler) StartAttempt(c *gin.Context) {
	var req validator.SubmissionStartRequest
	if !h.bindJSON(c, &req) {
		return
	}

	userID, ok := h.userID(c)
	if !ok {
		return
	}

	h.LogRequest(c, "Starting attempt", "schedule_id", req.ScheduleID)

	submission, err := h.submissionService.StartAttempt(c.Request.Context(), userID, req.ScheduleID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, submission)
}

// SubmitAnswers scores and closes an in-progress submission
// @Summary Submit answers
// @Tags submissions
// @Accept json
// @Produce json
// @Param id path uint true "Submission ID"
// @Param body body validator.SubmissionAnswersRequest true "Answers"
// @Success 200 {object} models.ScoreResponse
// @Failure 409 {object} ErrorResponse
// @Router /submissions/{id}/submit [post]
func (h *SubmissionHandler) SubmitAnswers(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	var req validator.SubmissionAnswersRequest
	if !h.bindJSON(c, &req) {
		return
	}

	userID, ok := h.userID(c)
	if !ok {
		return
	}

	h.LogRequest(c, "Submitting answers", "submission_id", id)

	result, err := h.submissionService.SubmitAnswers(c.Request.Context(), id, userID, req.Answers)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// RecordSubmission stores and scores a complete submission in one call
// @Summary Record submission
// @Tags submissions
// @Accept json
// @Produce json
// @Param body body validator.SubmissionRequest true "Submission"
// @Success 201 {object} models.Submission
// @Failure 409 {object} ErrorResponse
// @Failure 422 {object} ErrorResponse
// @Router /submissions [post]
func (h *SubmissionHandler) RecordSubmission(c *gin.Context) {
	var req validator.SubmissionRequest
	if !h.bindJSON(c, &req) {
		return
	}

	userID, ok := h.userID(c)
	if !ok {
		return
	}

	h.LogRequest(c, "Recording submission", "schedule_id", req.ScheduleID)

	submission, err := h.submissionService.RecordSubmission(c.Request.Context(), userID, req.ScheduleID, req.Answers)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, submission)
}

// RescoreSubmission recomputes the score of a submitted attempt
// @Summary Rescore submission
// @Tags submissions
// @Produce json
// @Param id path uint true "Submission ID"
// @Success 200 {object} models.ScoreResponse
// @Router /submissions/{id}/score [post]
func (h *SubmissionHandler) RescoreSubmission(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	h.LogRequest(c, "Rescoring submission", "submission_id", id)

	result, err := h.submissionService.ScoreSubmission(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetSubmission returns one submission of the caller, or of a schedule the caller owns
// @Summary Get submission
// @Tags submissions
// @Produce json
// @Param id path uint true "Submission ID"
// @Success 200 {object} models.Submission
// @Failure 403 {object} ErrorResponse
// @Router /submissions/{id} [get]
func (h *SubmissionHandler) GetSubmission(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	userID, ok := h.userID(c)
	if !ok {
		return
	}

	submission, err := h.submissionService.Get(c.Request.Context(), id, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, submission)
}

// GetExamData returns the paper of the exam a submission is bound to
// @Summary Submission exam data
// @Tags submissions
// @Produce json
// @Param id path uint true "Submission ID"
// @Success 200 {object} models.ExamPaper
// @Router /submissions/{id}/exam [get]
func (h *SubmissionHandler) GetExamData(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	userID, ok := h.userID(c)
	if !ok {
		return
	}

	paper, err := h.submissionService.ExamData(c.Request.Context(), id, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, paper)
}

// ListMySubmissions lists the caller's submissions
// @Summary My submissions
// @Tags submissions
// @Produce json
// @Param status query string false "in_progress or submitted"
// @Success 200 {object} models.PaginatedResponse
// @Router /submissions/mine [get]
func (h *SubmissionHandler) ListMySubmissions(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}

	skip, limit := h.parsePage(c)
	filters := h.submissionFilters(c, skip, limit)

	submissions, total, err := h.submissionService.ListMine(c.Request.Context(), userID, filters)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.PaginatedResponse{
		Data:       submissions,
		Pagination: models.NewPagination(skip, limit, total),
	})
}

// ListScheduleSubmissions lists every attempt of a schedule lineage
// @Summary Schedule submissions
// @Tags submissions
// @Produce json
// @Param id path uint true "Schedule ID"
// @Success 200 {object} models.PaginatedResponse
// @Router /schedules/{id}/submissions [get]
func (h *SubmissionHandler) ListScheduleSubmissions(c *gin.Context) {
	scheduleID := h.parseIDParam(c, "id")
	if scheduleID == 0 {
		return
	}

	skip, limit := h.parsePage(c)
	filters := h.submissionFilters(c, skip, limit)
	filters.StudentID = h.parseStringQueryPtr(c, "student_id")

	submissions, total, err := h.submissionService.ListBySchedule(c.Request.Context(), scheduleID, filters)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.PaginatedResponse{
		Data:       submissions,
		Pagination: models.NewPagination(skip, limit, total),
	})
}

// ExportResults downloads the results of a schedule as a workbook
// @Summary Export results
// @Tags submissions
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param id path uint true "Schedule ID"
// @Success 200 {file} file
// @Router /schedules/{id}/results/export [get]
func (h *SubmissionHandler) ExportResults(c *gin.Context) {
	scheduleID := h.parseIDParam(c, "id")
	if scheduleID == 0 {
		return
	}

	h.LogRequest(c, "Exporting results", "schedule_id", scheduleID)

	var buf bytes.Buffer
	if err := h.submissionService.ExportResults(c.Request.Context(), scheduleID, &buf); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="schedule-%d-results.xlsx"`, scheduleID))
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}

func (h *SubmissionHandler) submissionFilters(c *gin.Context, skip, limit int) repositories.SubmissionFilters {
	filters := repositories.SubmissionFilters{
		Limit:  limit,
		Offset: skip,
	}
	if status := c.Query("status"); status != "" {
		submissionStatus := models.SubmissionStatus(status)
		filters.Status = &submissionStatus
	}
	return filters
}
