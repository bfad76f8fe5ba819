package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/exam-service/internal/models"
	"github.com/SAP-F-2025/exam-service/internal/repositories"
	"github.com/SAP-F-2025/exam-service/internal/services"
	"github.com/SAP-F-2025/exam-service/internal/utils"
)

type ExamHandler struct {
	BaseHandler
	examService services.ExamService
}

func NewExamHandler(examService services.ExamService, logger utils.Logger) *ExamHandler {
	return &ExamHandler{
		BaseHandler: NewBaseHandler(logger),
		examService: examService,
	}
}

// GenerateExam assembles an exam from random questions of one subject
// @Summary Generate exam
// @Description Samples total_questions distinct questions of the subject and stores them with their choice orders
// @Tags exams
// @Accept json
// @Produce json
// @Param exam body services.GenerateExamRequest true "Exam parameters"
// @Success 201 {object} models.Exam
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Failure 422 {object} ErrorResponse
// @Router /exams/generate [post]
func (h *ExamHandler) GenerateExam(c *gin.Context) {
	var req services.GenerateExamRequest
	if !h.bindJSON(c, &req) {
		return
	}

	userID, ok := h.userID(c)
	if !ok {
		return
	}

	h.LogRequest(c, "Generating exam", "code", req.Code, "subject", req.Subject, "total_questions", req.TotalQuestions)

	exam, err := h.examService.Assemble(c.Request.Context(), &req, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, exam)
}

// GetExam retrieves an exam with its questions
// @Summary Get exam
// @Tags exams
// @Produce json
// @Param id path uint true "Exam ID"
// @Success 200 {object} models.Exam
// @Failure 404 {object} ErrorResponse
// @Router /exams/{id} [get]
func (h *ExamHandler) GetExam(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	exam, err := h.examService.GetByID(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, exam)
}

// ListExams lists live exams
// @Summary List exams
// @Tags exams
// @Produce json
// @Success 200 {object} models.PaginatedResponse
// @Router /exams [get]
func (h *ExamHandler) ListExams(c *gin.Context) {
	skip, limit := h.parsePage(c)
	filters := repositories.ExamFilters{
		Subject:   h.parseStringQueryPtr(c, "subject"),
		IsActive:  h.parseBoolQueryPtr(c, "is_active"),
		CreatedBy: h.parseStringQueryPtr(c, "created_by"),
		Search:    c.Query("search"),
		Limit:     limit,
		Offset:    skip,
		SortBy:    c.DefaultQuery("sort_by", "created_at"),
		SortOrder: c.DefaultQuery("sort_order", "desc"),
	}

	exams, total, err := h.examService.List(c.Request.Context(), filters)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.PaginatedResponse{
		Data:       exams,
		Pagination: models.NewPagination(skip, limit, total),
	})
}

// UpdateExam edits exam metadata. The question set is fixed at assembly.
// @Summary Update exam
// @Tags exams
// @Accept json
// @Produce json
// @Param id path uint true "Exam ID"
// @Param exam body services.UpdateExamRequest true "Changed fields"
// @Success 200 {object} models.Exam
// @Router /exams/{id} [put]
func (h *ExamHandler) UpdateExam(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	var req services.UpdateExamRequest
	if !h.bindJSON(c, &req) {
		return
	}

	userID, ok := h.userID(c)
	if !ok {
		return
	}

	h.LogRequest(c, "Updating exam", "exam_id", id)

	exam, err := h.examService.Update(c.Request.Context(), id, &req, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, exam)
}

// DeleteExam soft deletes an exam that no schedule uses
// @Summary Delete exam
// @Tags exams
// @Param id path uint true "Exam ID"
// @Success 204
// @Failure 422 {object} ErrorResponse
// @Router /exams/{id} [delete]
func (h *ExamHandler) DeleteExam(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	userID, ok := h.userID(c)
	if !ok {
		return
	}

	h.LogRequest(c, "Deleting exam", "exam_id", id)

	if err := h.examService.Delete(c.Request.Context(), id, userID); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// RestoreExam brings back a soft deleted exam when its code is still free
// @Summary Restore exam
// @Tags exams
// @Produce json
// @Param id path uint true "Exam ID"
// @Success 200 {object} models.Exam
// @Failure 409 {object} ErrorResponse
// @Router /exams/{id}/restore [post]
func (h *ExamHandler) RestoreExam(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	userID, ok := h.userID(c)
	if !ok {
		return
	}

	h.LogRequest(c, "Restoring exam", "exam_id", id)

	exam, err := h.examService.Restore(c.Request.Context(), id, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, exam)
}
