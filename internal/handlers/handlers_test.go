package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/casdoor/casdoor-go-sdk/casdoorsdk"
	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/exam-service/internal/config"
	"github.com/SAP-F-2025/exam-service/internal/models"
	"github.com/SAP-F-2025/exam-service/internal/repositories"
	"github.com/SAP-F-2025/exam-service/internal/services"
	"github.com/SAP-F-2025/exam-service/internal/utils"
	"github.com/SAP-F-2025/exam-service/internal/validator"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func testLogger() utils.Logger {
	return utils.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

// ===== FAKES =====

type fakeParser struct {
	claims map[string]*casdoorsdk.Claims
}

func (p *fakeParser) ParseJwtToken(token string) (*casdoorsdk.Claims, error) {
	if claims, ok := p.claims[token]; ok {
		return claims, nil
	}
	return nil, errors.New("signature is invalid")
}

type fakeUsers struct {
	users map[string]*models.User
}

func (f *fakeUsers) GetByID(ctx context.Context, id string) (*models.User, error) {
	if user, ok := f.users[id]; ok {
		return user, nil
	}
	return nil, repositories.NotFound("user", id)
}

func (f *fakeUsers) GetByIDs(ctx context.Context, ids []string) ([]*models.User, error) {
	var out []*models.User
	for _, id := range ids {
		if user, ok := f.users[id]; ok {
			out = append(out, user)
		}
	}
	return out, nil
}

func (f *fakeUsers) ExistsByID(ctx context.Context, id string) (bool, error) {
	_, ok := f.users[id]
	return ok, nil
}

func (f *fakeUsers) HasRole(ctx context.Context, id string, role models.UserRole) (bool, error) {
	user, ok := f.users[id]
	return ok && user.Role == role, nil
}

type fakeQuestionService struct {
	services.QuestionService
	subjects []string
}

func (f *fakeQuestionService) Subjects(ctx context.Context) ([]string, error) {
	return f.subjects, nil
}

type fakeSubmissionService struct {
	services.SubmissionService
	startErr  error
	startedBy string
}

func (f *fakeSubmissionService) StartAttempt(ctx context.Context, studentID string, scheduleID uint) (*models.Submission, error) {
	f.startedBy = studentID
	if f.startErr != nil {
		return nil, f.startErr
	}
	return &models.Submission{ID: 1, StudentID: studentID, ScheduleID: scheduleID, AttemptNumber: 1}, nil
}

type fakeServiceManager struct {
	question   services.QuestionService
	submission services.SubmissionService
	healthErr  error
}

func (f *fakeServiceManager) Question() services.QuestionService     { return f.question }
func (f *fakeServiceManager) Exam() services.ExamService             { return nil }
func (f *fakeServiceManager) Schedule() services.ScheduleService     { return nil }
func (f *fakeServiceManager) Submission() services.SubmissionService { return f.submission }
func (f *fakeServiceManager) Dashboard() services.DashboardService   { return nil }
func (f *fakeServiceManager) Initialize(ctx context.Context) error   { return nil }
func (f *fakeServiceManager) HealthCheck(ctx context.Context) error  { return f.healthErr }
func (f *fakeServiceManager) Shutdown(ctx context.Context) error     { return nil }

func claimsFor(id string) *casdoorsdk.Claims {
	return &casdoorsdk.Claims{User: casdoorsdk.User{Id: id, Name: id}}
}

func newTestRouter(sm *fakeServiceManager) *gin.Engine {
	auth := &CasdoorAuthMiddleware{
		client: &fakeParser{claims: map[string]*casdoorsdk.Claims{
			"student-token":  claimsFor("student-1"),
			"teacher-token":  claimsFor("teacher-1"),
			"admin-token":    claimsFor("admin-1"),
			"stranger-token": {User: casdoorsdk.User{Id: "ext-1", Name: "ext", IsAdmin: true}},
		}},
		userRepo: &fakeUsers{users: map[string]*models.User{
			"student-1": {ID: "student-1", Name: "minh", Role: models.RoleStudent},
			"teacher-1": {ID: "teacher-1", Role: models.RoleTeacher},
			"admin-1":   {ID: "admin-1", Role: models.RoleAdmin},
		}},
	}

	router := gin.New()
	logger := testLogger()
	SetupMiddleware(router, logger, config.HTTPConfig{
		AllowedOrigins: []string{"https://exams.example.edu"},
		MaxBodyBytes:   1024,
	})
	newHandlerManager(sm, logger, auth).SetupRoutes(router)
	return router
}

func doRequest(router *gin.Engine, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		data, _ := json.Marshal(body)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

// ===== TESTS =====

func TestHandleServiceError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantMsg    string
	}{
		{"validation", services.ValidationErrors{{Field: "code", Message: "required"}}, http.StatusBadRequest, "Validation failed"},
		{"business rule", services.NewBusinessRuleError("schedule_closed", "schedule has ended", nil), http.StatusUnprocessableEntity, "schedule has ended"},
		{"permission", services.NewPermissionError("u1", 1, "question", "update", "not owner"), http.StatusForbidden, "Access denied"},
		{"duplicate code", &services.DuplicateCodeError{Code: "X1"}, http.StatusConflict, "Exam code already exists"},
		{"insufficient", &services.InsufficientQuestionsError{Subject: "Math", Requested: 5, Available: 2}, http.StatusUnprocessableEntity, "Not enough questions in the bank"},
		{"attempt limit", &services.AttemptLimitExceededError{Used: 2, MaxAttempts: 2}, http.StatusConflict, "Max attempts exceeded"},
		{"persistence", &services.PersistenceError{Op: "store exam", Err: errors.New("conn reset")}, http.StatusServiceUnavailable, "Storage temporarily unavailable, please retry"},
		{"wrapped schedule not found", fmt.Errorf("resolve: %w", services.ErrScheduleNotFound), http.StatusNotFound, "Schedule not found"},
		{"exam not found", services.ErrExamNotFound, http.StatusNotFound, "Exam not found"},
		{"generic not found", services.ErrNotFound, http.StatusNotFound, "Resource not found"},
		{"already submitted", services.ErrSubmissionAlreadySubmitted, http.StatusConflict, "Submission already submitted"},
		{"unexpected", errors.New("boom"), http.StatusInternalServerError, "Internal server error"},
	}

	h := NewBaseHandler(testLogger())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

			h.handleServiceError(c, tt.err)

			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}
			var body ErrorResponse
			if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
				t.Fatalf("invalid body %s: %v", w.Body.String(), err)
			}
			if body.Message != tt.wantMsg {
				t.Errorf("message = %q, want %q", body.Message, tt.wantMsg)
			}
		})
	}
}

func TestParsePage(t *testing.T) {
	tests := []struct {
		query     string
		wantSkip  int
		wantLimit int
	}{
		{"", 0, 10},
		{"?limit=20&skip=40", 40, 20},
		{"?page=3&size=25", 50, 25},
		{"?limit=1000", 0, 100},
		{"?page=0", 0, 10},
		{"?skip=-5&limit=abc", 0, 10},
	}

	h := NewBaseHandler(testLogger())
	for _, tt := range tests {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Request = httptest.NewRequest(http.MethodGet, "/"+tt.query, nil)

		skip, limit := h.parsePage(c)
		if skip != tt.wantSkip || limit != tt.wantLimit {
			t.Errorf("parsePage(%q) = %d, %d; want %d, %d", tt.query, skip, limit, tt.wantSkip, tt.wantLimit)
		}
	}
}

func TestAuthAndRoles(t *testing.T) {
	sm := &fakeServiceManager{
		question:   &fakeQuestionService{subjects: []string{"Math", "Physics"}},
		submission: &fakeSubmissionService{},
	}
	router := newTestRouter(sm)

	tests := []struct {
		name       string
		token      string
		wantStatus int
	}{
		{"missing token", "", http.StatusUnauthorized},
		{"invalid token", "forged", http.StatusUnauthorized},
		{"student cannot author", "student-token", http.StatusForbidden},
		{"teacher can author", "teacher-token", http.StatusOK},
		{"admin can author", "admin-token", http.StatusOK},
		{"admin from token claims", "stranger-token", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doRequest(router, http.MethodGet, "/api/v1/questions/subjects", tt.token, nil)
			if w.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d, body %s", w.Code, tt.wantStatus, w.Body.String())
			}
			if tt.wantStatus == http.StatusOK {
				var subjects []string
				if err := json.Unmarshal(w.Body.Bytes(), &subjects); err != nil || len(subjects) != 2 {
					t.Errorf("subjects = %s", w.Body.String())
				}
			}
		})
	}
}

func TestStartAttemptRoute(t *testing.T) {
	submissions := &fakeSubmissionService{}
	router := newTestRouter(&fakeServiceManager{submission: submissions})

	w := doRequest(router, http.MethodPost, "/api/v1/submissions/start", "student-token", validator.SubmissionStartRequest{ScheduleID: 4})
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201, body %s", w.Code, w.Body.String())
	}
	if submissions.startedBy != "student-1" {
		t.Errorf("attempt started for %q, want student-1", submissions.startedBy)
	}
	if w.Header().Get("X-Request-ID") == "" {
		t.Error("missing X-Request-ID header")
	}

	submissions.startErr = &services.AttemptLimitExceededError{StudentID: "student-1", ScheduleID: 4, Used: 1, MaxAttempts: 1}
	w = doRequest(router, http.MethodPost, "/api/v1/submissions/start", "student-token", validator.SubmissionStartRequest{ScheduleID: 4})
	if w.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409, body %s", w.Code, w.Body.String())
	}

	w = doRequest(router, http.MethodPost, "/api/v1/submissions/start", "student-token", nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("empty body status = %d, want 400", w.Code)
	}
}

func TestUserRoutes(t *testing.T) {
	router := newTestRouter(&fakeServiceManager{})

	w := doRequest(router, http.MethodGet, "/api/v1/users/me", "student-token", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("me status = %d, body %s", w.Code, w.Body.String())
	}
	var me models.User
	if err := json.Unmarshal(w.Body.Bytes(), &me); err != nil || me.ID != "student-1" || me.Name != "minh" {
		t.Errorf("me = %+v, err %v", me, err)
	}

	if w := doRequest(router, http.MethodGet, "/api/v1/users/teacher-1", "student-token", nil); w.Code != http.StatusForbidden {
		t.Errorf("student lookup status = %d, want 403", w.Code)
	}
	if w := doRequest(router, http.MethodGet, "/api/v1/users/nobody", "teacher-token", nil); w.Code != http.StatusNotFound {
		t.Errorf("unknown user status = %d, want 404", w.Code)
	}

	w = doRequest(router, http.MethodGet, "/api/v1/users?ids=student-1,,nobody,admin-1,student-1", "teacher-token", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("lookup status = %d, body %s", w.Code, w.Body.String())
	}
	var users []models.User
	if err := json.Unmarshal(w.Body.Bytes(), &users); err != nil {
		t.Fatalf("invalid body: %v", err)
	}
	if len(users) != 2 || users[0].ID != "student-1" || users[1].ID != "admin-1" {
		t.Errorf("users = %+v", users)
	}

	if w := doRequest(router, http.MethodGet, "/api/v1/users", "teacher-token", nil); w.Code != http.StatusBadRequest {
		t.Errorf("missing ids status = %d, want 400", w.Code)
	}
}

func TestSplitIDs(t *testing.T) {
	got := splitIDs(" a, b ,,a,c ")
	want := []string{"a", "b", "c"}
	if len(got) != len(want) {
		t.Fatalf("splitIDs() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("splitIDs()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
	if ids := splitIDs(""); len(ids) != 0 {
		t.Errorf("splitIDs(\"\") = %v", ids)
	}
}

func TestMiddleware(t *testing.T) {
	router := newTestRouter(&fakeServiceManager{})

	preflight := func(origin string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodOptions, "/api/v1/submissions/start", nil)
		req.Header.Set("Origin", origin)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	w := preflight("https://exams.example.edu")
	if w.Code != http.StatusNoContent {
		t.Errorf("allowed preflight status = %d, want 204", w.Code)
	}
	if w.Header().Get("Access-Control-Allow-Origin") != "https://exams.example.edu" || w.Header().Get("Access-Control-Allow-Credentials") != "true" {
		t.Errorf("allowed preflight headers = %v", w.Header())
	}

	w = preflight("https://evil.example.com")
	if w.Code != http.StatusForbidden || w.Header().Get("Access-Control-Allow-Origin") != "" {
		t.Errorf("foreign preflight status = %d, headers %v", w.Code, w.Header())
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/questions/import", bytes.NewReader(make([]byte, 2048)))
	req.Header.Set("X-Request-ID", "req-42")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("oversized body status = %d, want 413", w.Code)
	}
	if got := w.Header().Get("X-Request-ID"); got != "req-42" {
		t.Errorf("X-Request-ID = %q, want the caller's id", got)
	}
	if w.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Error("missing security headers")
	}
}

func TestCORSMiddleware_Wildcard(t *testing.T) {
	router := gin.New()
	router.Use(CORSMiddleware(nil))
	router.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("Origin", "https://anywhere.example")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Errorf("Allow-Origin = %q, want *", w.Header().Get("Access-Control-Allow-Origin"))
	}
	if w.Header().Get("Access-Control-Allow-Credentials") != "" {
		t.Error("wildcard origin must not allow credentials")
	}
}

func TestHealthCheck(t *testing.T) {
	sm := &fakeServiceManager{}
	router := newTestRouter(sm)

	w := doRequest(router, http.MethodGet, "/health", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("healthy status = %d, want 200", w.Code)
	}

	sm.healthErr = errors.New("database ping failed")
	w = doRequest(router, http.MethodGet, "/health", "", nil)
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("unhealthy status = %d, want 503", w.Code)
	}
	var body map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid body: %v", err)
	}
	if body["status"] != "unhealthy" || body["service"] != "exam-service" {
		t.Errorf("body = %v", body)
	}
}
