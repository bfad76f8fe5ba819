package repositories

import "context"

// Repository aggregates every repository used by the exam service
type Repository interface {
	// Question bank
	Question() QuestionRepository

	// Exams and their assembled questions
	Exam() ExamRepository

	// Schedule versions
	Schedule() ScheduleRepository

	// Attempts and scoring results
	Submission() SubmissionRepository

	// Identity provider (read-only)
	User() UserRepository

	// Aggregated statistics
	Dashboard() DashboardRepository

	// Transaction support
	WithTransaction(ctx context.Context, fn func(Repository) error) error

	// Health check
	Ping(ctx context.Context) error

	// Close connections
	Close() error
}

// RepositoryManager interface for managing repository lifecycle
type RepositoryManager interface {
	Initialize() error
	GetRepository() Repository
	HealthCheck(ctx context.Context) error
	Shutdown(ctx context.Context) error
}
