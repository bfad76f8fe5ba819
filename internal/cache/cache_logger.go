package cache

import (
	"context"
	"fmt"
	"log/slog"
)

// SafeInvalidatePattern invalidates a pattern and only logs failures
func SafeInvalidatePattern(ctx context.Context, helper *CacheHelper, pattern string) {
	if err := helper.InvalidatePattern(ctx, pattern); err != nil {
		slog.ErrorContext(ctx, "Failed to invalidate cache pattern",
			"error", err,
			"pattern", pattern)
	}
}

// SafeDelete deletes keys and only logs failures
func SafeDelete(ctx context.Context, helper *CacheHelper, keys ...string) {
	if err := helper.Delete(ctx, keys...); err != nil {
		slog.ErrorContext(ctx, "Failed to delete cache keys",
			"error", err,
			"keys", keys)
	}
}

// InvalidateExamCache drops an exam's cached entries
func InvalidateExamCache(ctx context.Context, cm *CacheManager, examID uint) {
	SafeInvalidatePattern(ctx, cm.Exam, fmt.Sprintf("%d:*", examID))
}

// InvalidateScheduleStats drops the cached statistics of a schedule lineage
func InvalidateScheduleStats(ctx context.Context, cm *CacheManager, lineageID uint) {
	SafeDelete(ctx, cm.Stats, fmt.Sprintf("schedule:%d", lineageID))
}

// InvalidateQuestionCache drops a question entry and the derived subject list
func InvalidateQuestionCache(ctx context.Context, cm *CacheManager, questionID uint) {
	SafeDelete(ctx, cm.Question, fmt.Sprintf("id:%d", questionID), "subjects")
}
