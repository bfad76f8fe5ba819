package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/SAP-F-2025/exam-service/internal/models"
	"github.com/SAP-F-2025/exam-service/internal/repositories"
)

const (
	defaultPageSize = 10
	maxPageSize     = 1000
)

// SharedHelpers contains query building blocks shared by the repositories
type SharedHelpers struct {
	db *gorm.DB
}

func NewSharedHelpers(db *gorm.DB) *SharedHelpers {
	return &SharedHelpers{db: db}
}

// ApplyPaginationAndSort applies pagination and sorting with a column whitelist
func (h *SharedHelpers) ApplyPaginationAndSort(query *gorm.DB, sortBy, sortOrder string, limit, offset int) *gorm.DB {
	allowedSortColumns := map[string]bool{
		"created_at": true,
		"updated_at": true,
		"id":         true,
		"code":       true,
		"title":      true,
		"subject":    true,
		"start_time": true,
		"score":      true,
	}

	if sortBy == "" || !allowedSortColumns[sortBy] {
		sortBy = "created_at"
	}

	if strings.EqualFold(sortOrder, "asc") {
		sortOrder = "ASC"
	} else {
		sortOrder = "DESC"
	}

	query = query.Order(sortBy + " " + sortOrder).Order("id " + sortOrder)

	return h.ApplyPagination(query, limit, offset)
}

// ApplyPagination clamps the window to sane bounds
func (h *SharedHelpers) ApplyPagination(query *gorm.DB, limit, offset int) *gorm.DB {
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	query = query.Limit(limit)
	if offset > 0 {
		query = query.Offset(offset)
	}
	return query
}

// ApplySearch matches term case-insensitively as a substring of any column
func (h *SharedHelpers) ApplySearch(query *gorm.DB, term string, columns ...string) *gorm.DB {
	term = strings.TrimSpace(term)
	if term == "" || len(columns) == 0 {
		return query
	}

	pattern := "%" + escapeLike(strings.ToLower(term)) + "%"
	conditions := make([]string, len(columns))
	args := make([]interface{}, len(columns))
	for i, column := range columns {
		conditions[i] = fmt.Sprintf("LOWER(%s) LIKE ? ESCAPE '\\'", column)
		args[i] = pattern
	}

	return query.Where("("+strings.Join(conditions, " OR ")+")", args...)
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

// lockLineage takes a row lock on the first version of a schedule. That row is
// never physically removed, so it anchors the lock for every later version.
func lockLineage(ctx context.Context, db *gorm.DB, lineageID uint) error {
	var anchor models.ExamSchedule
	err := db.WithContext(ctx).
		Unscoped().
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Select("id").
		Where("id = ?", lineageID).
		Take(&anchor).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return repositories.NotFound("schedule lineage", lineageID)
		}
		return fmt.Errorf("failed to lock schedule lineage %d: %w", lineageID, err)
	}
	return nil
}

// translateError maps gorm's not-found error to the repository sentinel
func translateError(err error, entity string, key interface{}) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return repositories.NotFound(entity, key)
	}
	return err
}
