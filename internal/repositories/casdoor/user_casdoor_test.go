package casdoor

import (
	"context"
	"errors"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/casdoor/casdoor-go-sdk/casdoorsdk"
	"github.com/redis/go-redis/v9"

	"github.com/SAP-F-2025/exam-service/internal/cache"
	"github.com/SAP-F-2025/exam-service/internal/models"
	"github.com/SAP-F-2025/exam-service/internal/repositories"
)

type fakeClient struct {
	users map[string]*casdoorsdk.User
	err   error
	calls int
}

func (f *fakeClient) GetUserByUserId(userId string) (*casdoorsdk.User, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.users[userId], nil
}

func newFakeClient() *fakeClient {
	return &fakeClient{users: map[string]*casdoorsdk.User{
		"u-teacher": {Id: "u-teacher", Name: "lan", DisplayName: "Tran Thi Lan", Email: "lan@example.edu", Roles: []*casdoorsdk.Role{{Name: "Lecturer"}}},
		"u-student": {Id: "u-student", Name: "minh", Avatar: "https://cdn.example.edu/minh.png"},
		"u-admin":   {Id: "u-admin", Name: "root", IsAdmin: true},
	}}
}

func TestRoleOf(t *testing.T) {
	tests := []struct {
		name string
		user *casdoorsdk.User
		want models.UserRole
	}{
		{"no roles", &casdoorsdk.User{}, models.RoleStudent},
		{"admin flag", &casdoorsdk.User{IsAdmin: true}, models.RoleAdmin},
		{"teacher role", &casdoorsdk.User{Roles: []*casdoorsdk.Role{{Name: "teacher"}}}, models.RoleTeacher},
		{"admin wins over teacher", &casdoorsdk.User{Roles: []*casdoorsdk.Role{{Name: "Instructor"}, {Name: "Administrator"}}}, models.RoleAdmin},
		{"unknown role", &casdoorsdk.User{Roles: []*casdoorsdk.Role{{Name: "guest"}}}, models.RoleStudent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := RoleOf(tt.user); got != tt.want {
				t.Errorf("RoleOf() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestToUser(t *testing.T) {
	if ToUser(nil) != nil {
		t.Error("ToUser(nil) should be nil")
	}
	user := ToUser(newFakeClient().users["u-student"])
	if user.ID != "u-student" || user.Role != models.RoleStudent || user.AvatarURL == nil || *user.AvatarURL != "https://cdn.example.edu/minh.png" {
		t.Errorf("ToUser() = %+v", user)
	}
}

func TestUserCasdoor_Lookups(t *testing.T) {
	ctx := context.Background()
	client := newFakeClient()
	repo := newUserCasdoor(client, cache.NewCacheManager(nil).User)

	user, err := repo.GetByID(ctx, "u-teacher")
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if user.FullName != "Tran Thi Lan" || user.Role != models.RoleTeacher {
		t.Errorf("GetByID() = %+v", user)
	}

	if _, err := repo.GetByID(ctx, "missing"); !repositories.IsNotFoundError(err) {
		t.Errorf("GetByID(missing) error = %v, want not found", err)
	}

	users, err := repo.GetByIDs(ctx, []string{"u-admin", "missing", "u-student"})
	if err != nil {
		t.Fatalf("GetByIDs() error = %v", err)
	}
	if len(users) != 2 || users[0].ID != "u-admin" || users[1].ID != "u-student" {
		t.Errorf("GetByIDs() = %+v", users)
	}

	if ok, err := repo.ExistsByID(ctx, "missing"); err != nil || ok {
		t.Errorf("ExistsByID(missing) = %v, %v", ok, err)
	}
	if ok, err := repo.HasRole(ctx, "u-admin", models.RoleAdmin); err != nil || !ok {
		t.Errorf("HasRole(admin) = %v, %v", ok, err)
	}

	client.err = errors.New("connection refused")
	if _, err := repo.GetByIDs(ctx, []string{"u-admin"}); err == nil || repositories.IsNotFoundError(err) {
		t.Errorf("GetByIDs() with provider down error = %v", err)
	}
}

func TestUserCasdoor_Cached(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	client := newFakeClient()
	repo := newUserCasdoor(client, cache.NewCacheManager(rdb).User)

	for i := 0; i < 3; i++ {
		if _, err := repo.GetByID(ctx, "u-teacher"); err != nil {
			t.Fatalf("GetByID() error = %v", err)
		}
	}
	if client.calls != 1 {
		t.Errorf("provider called %d times, want 1", client.calls)
	}
	if !mr.Exists("user:id:u-teacher") {
		t.Errorf("expected cached key user:id:u-teacher, have %v", mr.Keys())
	}

	// a cached lookup survives a provider outage
	client.err = errors.New("connection refused")
	if user, err := repo.GetByID(ctx, "u-teacher"); err != nil || user.Role != models.RoleTeacher {
		t.Errorf("cached GetByID() = %+v, %v", user, err)
	}
}
