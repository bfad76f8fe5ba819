package models

type UserRole string

const (
	RoleStudent UserRole = "student"
	RoleTeacher UserRole = "teacher"
	RoleAdmin   UserRole = "admin"
)

// User is a read-only projection of an identity-provider account.
type User struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	FullName  string   `json:"full_name"`
	Email     string   `json:"email"`
	Role      UserRole `json:"role"`
	AvatarURL *string  `json:"avatar_url,omitempty"`
}

// CanAuthor reports whether the role may manage questions, exams and schedules.
func (r UserRole) CanAuthor() bool {
	return r == RoleTeacher || r == RoleAdmin
}
