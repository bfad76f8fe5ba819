package models

// ===== QUESTION =====

type QuestionImportResult struct {
	Imported int              `json:"imported"`
	Failed   int              `json:"failed"`
	Errors   []ImportRowError `json:"errors,omitempty"`
}

type ImportRowError struct {
	Row     int    `json:"row"`
	Message string `json:"message"`
}

// ===== SUBMISSION =====

// AttemptDecision is the answer of a dry-run attempt check.
type AttemptDecision struct {
	Proceed      bool   `json:"proceed"`
	Reason       string `json:"reason,omitempty"`
	AttemptsUsed int    `json:"attempts_used"`
	MaxAttempts  int    `json:"max_attempts"`
	ScheduleID   uint   `json:"schedule_id"`
}

type ScoreResponse struct {
	SubmissionID uint             `json:"submission_id"`
	Score        float64          `json:"score"`
	MaxScore     float64          `json:"max_score"`
	Percentage   float64          `json:"percentage"`
	Results      []QuestionResult `json:"results"`
	Warnings     []string         `json:"warnings,omitempty"`
}

// ===== EXAM PAPER (student view) =====

type PaperChoice struct {
	Label ChoiceLabel `json:"label"`
	Text  string      `json:"text"`
}

type PaperQuestion struct {
	QuestionID    uint          `json:"question_id"`
	QuestionOrder int           `json:"question_order"`
	Content       string        `json:"content"`
	ContentImg    *string       `json:"content_img,omitempty"`
	Choices       []PaperChoice `json:"choices"`
	Mark          float64       `json:"mark"`
	Unit          *string       `json:"unit,omitempty"`
}

type ExamPaper struct {
	Schedule  *ExamSchedule   `json:"schedule"`
	ExamID    uint            `json:"exam_id"`
	Title     string          `json:"title"`
	Duration  int             `json:"duration"`
	Questions []PaperQuestion `json:"questions"`
	TotalMark float64         `json:"total_mark"`
}

// ===== PAGINATION =====

type Pagination struct {
	Page  int   `json:"page"`
	Size  int   `json:"size"`
	Total int64 `json:"total"`
	Pages int   `json:"pages"`
}

type PaginatedResponse struct {
	Data       interface{} `json:"data"`
	Pagination Pagination  `json:"pagination"`
}

// NewPagination derives page numbers from an offset window.
func NewPagination(skip, limit int, total int64) Pagination {
	if limit <= 0 {
		limit = 10
	}
	pages := int((total + int64(limit) - 1) / int64(limit))
	return Pagination{
		Page:  skip/limit + 1,
		Size:  limit,
		Total: total,
		Pages: pages,
	}
}
