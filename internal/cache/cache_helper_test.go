package cache

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

type cachedExam struct {
	ID    uint   `json:"id"`
	Title string `json:"title"`
}

func newTestManager(t *testing.T) (*CacheManager, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewCacheManager(client), mr
}

func TestCacheOrExecute(t *testing.T) {
	ctx := context.Background()
	cm, mr := newTestManager(t)

	calls := 0
	fetch := func() (interface{}, error) {
		calls++
		return &cachedExam{ID: 7, Title: "Midterm"}, nil
	}

	var first cachedExam
	if err := cm.Exam.CacheOrExecute(ctx, "7:questions", &first, time.Minute, fetch); err != nil {
		t.Fatalf("CacheOrExecute() error = %v", err)
	}
	var second cachedExam
	if err := cm.Exam.CacheOrExecute(ctx, "7:questions", &second, time.Minute, fetch); err != nil {
		t.Fatalf("CacheOrExecute() error = %v", err)
	}

	if calls != 1 {
		t.Errorf("fetch called %d times, want 1", calls)
	}
	if first != second || second.Title != "Midterm" {
		t.Errorf("cached value = %+v, want %+v", second, first)
	}
	if !mr.Exists("exam:7:questions") {
		t.Error("expected prefixed key exam:7:questions")
	}

	mr.FastForward(2 * time.Minute)
	if mr.Exists("exam:7:questions") {
		t.Error("key should expire after its TTL")
	}
}

func TestCacheOrExecute_FetchError(t *testing.T) {
	cm, mr := newTestManager(t)
	want := errors.New("database down")

	var dest cachedExam
	err := cm.Exam.CacheOrExecute(context.Background(), "1", &dest, time.Minute, func() (interface{}, error) {
		return nil, want
	})
	if !errors.Is(err, want) {
		t.Fatalf("CacheOrExecute() error = %v, want %v", err, want)
	}
	if mr.Exists("exam:1") {
		t.Error("failed fetch must not be cached")
	}
}

func TestCacheOrExecute_RedisDown(t *testing.T) {
	cm, mr := newTestManager(t)
	mr.Close()

	var dest cachedExam
	err := cm.Exam.CacheOrExecute(context.Background(), "3", &dest, time.Minute, func() (interface{}, error) {
		return cachedExam{ID: 3}, nil
	})
	if err != nil {
		t.Fatalf("CacheOrExecute() with redis down error = %v", err)
	}
	if dest.ID != 3 {
		t.Errorf("dest = %+v, want ID 3", dest)
	}
}

func TestCacheHelper_NilClient(t *testing.T) {
	ctx := context.Background()
	cm := NewCacheManager(nil)

	if cm.Question.Available() {
		t.Fatal("helper without client should not be available")
	}
	if err := cm.Question.Get(ctx, "x", &cachedExam{}); !errors.Is(err, ErrCacheNotAvailable) {
		t.Errorf("Get() error = %v, want ErrCacheNotAvailable", err)
	}
	if err := cm.Question.Set(ctx, "x", 1, time.Minute); err != nil {
		t.Errorf("Set() error = %v", err)
	}
	if err := cm.HealthCheck(ctx); !errors.Is(err, ErrCacheNotAvailable) {
		t.Errorf("HealthCheck() error = %v, want ErrCacheNotAvailable", err)
	}

	var dest cachedExam
	if err := cm.Question.CacheOrExecute(ctx, "x", &dest, time.Minute, func() (interface{}, error) {
		return cachedExam{ID: 9}, nil
	}); err != nil || dest.ID != 9 {
		t.Errorf("CacheOrExecute() = %+v, %v", dest, err)
	}

	// invalidation helpers must tolerate a missing cache
	InvalidateExamCache(ctx, cm, 1)
	InvalidateQuestionCache(ctx, cm, 1)
	InvalidateScheduleStats(ctx, cm, 1)
}

func TestInvalidation(t *testing.T) {
	ctx := context.Background()
	cm, mr := newTestManager(t)

	for i := 0; i < 250; i++ {
		mr.Set(fmt.Sprintf("exam:5:page:%d", i), "x")
	}
	mr.Set("exam:6:questions", "x")
	mr.Set("question:id:4", "x")
	mr.Set("question:subjects", "x")
	mr.Set("question:id:5", "x")
	mr.Set("stats:schedule:2", "x")

	InvalidateExamCache(ctx, cm, 5)
	InvalidateQuestionCache(ctx, cm, 4)
	InvalidateScheduleStats(ctx, cm, 2)

	keys := mr.Keys()
	want := []string{"exam:6:questions", "question:id:5"}
	if len(keys) != len(want) {
		t.Fatalf("remaining keys = %v, want %v", keys, want)
	}
	for i := range want {
		if keys[i] != want[i] {
			t.Errorf("remaining keys = %v, want %v", keys, want)
			break
		}
	}

	if err := cm.HealthCheck(ctx); err != nil {
		t.Errorf("HealthCheck() error = %v", err)
	}
}
