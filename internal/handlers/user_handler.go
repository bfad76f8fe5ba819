package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/exam-service/internal/models"
	"github.com/SAP-F-2025/exam-service/internal/repositories"
	"github.com/SAP-F-2025/exam-service/internal/utils"
)

const maxLookupIDs = 100

type UserHandler struct {
	BaseHandler
	userRepo repositories.UserRepository
}

func NewUserHandler(userRepo repositories.UserRepository, logger utils.Logger) *UserHandler {
	return &UserHandler{
		BaseHandler: NewBaseHandler(logger),
		userRepo:    userRepo,
	}
}

// GetCurrentUser returns the authenticated caller
// @Summary Get current user
// @Tags users
// @Produce json
// @Success 200 {object} models.User
// @Failure 401 {object} ErrorResponse "Unauthorized"
// @Router /users/me [get]
func (h *UserHandler) GetCurrentUser(c *gin.Context) {
	if _, ok := h.userID(c); !ok {
		return
	}

	user, ok := c.Get("user")
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Message: "User not authenticated"})
		return
	}
	c.JSON(http.StatusOK, user.(*models.User))
}

// LookupUsers resolves display data for a comma separated list of ids
// @Summary Look up users
// @Description Resolve names of question authors and students
// @Tags users
// @Produce json
// @Param ids query string true "Comma separated user ids"
// @Success 200 {array} models.User
// @Failure 400 {object} ErrorResponse "Bad request"
// @Router /users [get]
func (h *UserHandler) LookupUsers(c *gin.Context) {
	ids := splitIDs(c.Query("ids"))
	if len(ids) == 0 {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Query parameter 'ids' is required",
		})
		return
	}
	if len(ids) > maxLookupIDs {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Too many ids",
			Details: map[string]interface{}{"max": maxLookupIDs},
		})
		return
	}

	h.LogRequest(c, "Looking up users", "count", len(ids))

	users, err := h.userRepo.GetByIDs(c.Request.Context(), ids)
	if err != nil {
		h.LogError(c, err, "Failed to look up users")
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{
			Message: "Identity provider unavailable",
			Details: err.Error(),
		})
		return
	}
	if users == nil {
		users = []*models.User{}
	}

	c.JSON(http.StatusOK, users)
}

// GetUser retrieves a user by ID
// @Summary Get user by ID
// @Tags users
// @Produce json
// @Param id path string true "User ID"
// @Success 200 {object} models.User
// @Failure 404 {object} ErrorResponse "Not found"
// @Router /users/{id} [get]
func (h *UserHandler) GetUser(c *gin.Context) {
	userID := c.Param("id")
	h.LogRequest(c, "Getting user", "target_id", userID)

	user, err := h.userRepo.GetByID(c.Request.Context(), userID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			c.JSON(http.StatusNotFound, ErrorResponse{Message: "User not found"})
			return
		}
		h.LogError(c, err, "Failed to get user")
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{
			Message: "Identity provider unavailable",
			Details: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, user)
}

// splitIDs drops blanks and repeats, keeping first-seen order
func splitIDs(raw string) []string {
	var ids []string
	seen := make(map[string]struct{})
	for _, part := range strings.Split(raw, ",") {
		id := strings.TrimSpace(part)
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return ids
}
