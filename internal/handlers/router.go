package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/exam-service/internal/config"
	"github.com/SAP-F-2025/exam-service/internal/models"
	"github.com/SAP-F-2025/exam-service/internal/repositories"
	"github.com/SAP-F-2025/exam-service/internal/services"
	"github.com/SAP-F-2025/exam-service/internal/utils"
)

type HandlerManager struct {
	serviceManager    services.ServiceManager
	questionHandler   *QuestionHandler
	examHandler       *ExamHandler
	scheduleHandler   *ScheduleHandler
	submissionHandler *SubmissionHandler
	dashboardHandler  *DashboardHandler
	userHandler       *UserHandler
	authMiddleware    *CasdoorAuthMiddleware
}

func NewHandlerManager(
	serviceManager services.ServiceManager,
	logger utils.Logger,
	casdoorConfig config.CasdoorConfig,
	userRepo repositories.UserRepository,
) *HandlerManager {
	return newHandlerManager(serviceManager, logger, NewCasdoorAuthMiddleware(casdoorConfig, userRepo))
}

func newHandlerManager(serviceManager services.ServiceManager, logger utils.Logger, auth *CasdoorAuthMiddleware) *HandlerManager {
	return &HandlerManager{
		serviceManager:    serviceManager,
		questionHandler:   NewQuestionHandler(serviceManager.Question(), logger),
		examHandler:       NewExamHandler(serviceManager.Exam(), logger),
		scheduleHandler:   NewScheduleHandler(serviceManager.Schedule(), logger),
		submissionHandler: NewSubmissionHandler(serviceManager.Submission(), logger),
		dashboardHandler:  NewDashboardHandler(serviceManager.Dashboard(), logger),
		userHandler:       NewUserHandler(auth.userRepo, logger),
		authMiddleware:    auth,
	}
}

// SetupRoutes sets up all API routes
func (hm *HandlerManager) SetupRoutes(router *gin.Engine) {
	router.GET("/health", hm.HealthCheck)

	authors := hm.authMiddleware.RequireRoleMiddleware(models.RoleTeacher, models.RoleAdmin)

	// API v1 routes with authentication
	v1 := router.Group("/api/v1")
	v1.Use(hm.authMiddleware.AuthMiddleware())
	{
		// Question bank - Teachers and Admins only
		questions := v1.Group("/questions", authors)
		{
			questions.POST("", hm.questionHandler.CreateQuestion)
			questions.POST("/import", hm.questionHandler.ImportQuestions)
			questions.GET("", hm.questionHandler.ListQuestions)
			questions.GET("/subjects", hm.questionHandler.ListSubjects)
			questions.GET("/:id", hm.questionHandler.GetQuestion)
			questions.PUT("/:id", hm.questionHandler.UpdateQuestion)
			questions.DELETE("/:id", hm.questionHandler.DeleteQuestion)
		}

		// Exams - Teachers and Admins only
		exams := v1.Group("/exams", authors)
		{
			exams.POST("/generate", hm.examHandler.GenerateExam)
			exams.GET("", hm.examHandler.ListExams)
			exams.GET("/:id", hm.examHandler.GetExam)
			exams.PUT("/:id", hm.examHandler.UpdateExam)
			exams.DELETE("/:id", hm.examHandler.DeleteExam)
			exams.POST("/:id/restore", hm.examHandler.RestoreExam)
		}

		schedules := v1.Group("/schedules")
		{
			// Authoring
			schedules.POST("", authors, hm.scheduleHandler.CreateSchedule)
			schedules.GET("", authors, hm.scheduleHandler.ListSchedules)
			schedules.PUT("/:id", authors, hm.scheduleHandler.UpdateSchedule)
			schedules.DELETE("/:id", authors, hm.scheduleHandler.DeleteSchedule)
			schedules.POST("/:id/deactivate", authors, hm.scheduleHandler.DeactivateSchedule)
			schedules.GET("/:id/history", authors, hm.scheduleHandler.GetHistory)
			schedules.GET("/:id/submissions", authors, hm.submissionHandler.ListScheduleSubmissions)
			schedules.GET("/:id/results/export", authors, hm.submissionHandler.ExportResults)

			// All authenticated users
			schedules.GET("/available", hm.scheduleHandler.ListAvailable)
			schedules.GET("/:id", hm.scheduleHandler.GetSchedule)
			schedules.GET("/:id/paper", hm.scheduleHandler.GetPaper)
			schedules.GET("/:id/attempt-check", hm.submissionHandler.AuthorizeAttempt)
		}

		submissions := v1.Group("/submissions")
		{
			submissions.POST("", hm.submissionHandler.RecordSubmission)
			submissions.POST("/start", hm.submissionHandler.StartAttempt)
			submissions.GET("/mine", hm.submissionHandler.ListMySubmissions)
			submissions.GET("/:id", hm.submissionHandler.GetSubmission)
			submissions.GET("/:id/exam", hm.submissionHandler.GetExamData)
			submissions.POST("/:id/submit", hm.submissionHandler.SubmitAnswers)
			submissions.POST("/:id/score", authors, hm.submissionHandler.RescoreSubmission)
		}

		users := v1.Group("/users")
		{
			users.GET("/me", hm.userHandler.GetCurrentUser)
			users.GET("", authors, hm.userHandler.LookupUsers)
			users.GET("/:id", authors, hm.userHandler.GetUser)
		}

		dashboard := v1.Group("/dashboard", authors)
		{
			dashboard.GET("/overview", hm.dashboardHandler.GetOverview)
			dashboard.GET("/schedules/:id", hm.dashboardHandler.GetScheduleStats)
		}
	}
}

// HealthCheck reports whether the database is reachable
func (hm *HandlerManager) HealthCheck(c *gin.Context) {
	status, code := "healthy", http.StatusOK
	var details interface{}
	if err := hm.serviceManager.HealthCheck(c.Request.Context()); err != nil {
		status, code = "unhealthy", http.StatusServiceUnavailable
		details = err.Error()
	}

	c.JSON(code, gin.H{
		"status":    status,
		"details":   details,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"service":   "exam-service",
	})
}
