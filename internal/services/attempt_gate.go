package services

import (
	"github.com/SAP-F-2025/exam-service/internal/models"
	"github.com/SAP-F-2025/exam-service/internal/repositories"
)

const (
	ReasonMaxAttempts = "max attempts exceeded"
	ReasonInactive    = "schedule is not active"
	ReasonNotOpen     = "schedule has not started yet"
	ReasonClosed      = "schedule has ended"
)

// attemptGate decides whether a student may open another attempt on a schedule
type attemptGate struct {
	clock Clock
}

func newAttemptGate(clock Clock) attemptGate {
	return attemptGate{clock: clock}
}

// Decide checks the attempt count first, then the schedule state
func (g attemptGate) Decide(schedule *models.ExamSchedule, used int64) *models.AttemptDecision {
	decision := &models.AttemptDecision{
		Proceed:      true,
		AttemptsUsed: int(used),
		MaxAttempts:  schedule.AttemptLimit(),
		ScheduleID:   schedule.ID,
	}

	window := schedule.Window(g.clock())
	switch {
	case used >= int64(schedule.AttemptLimit()):
		decision.Reason = ReasonMaxAttempts
	case !schedule.IsActive:
		decision.Reason = ReasonInactive
	case window == models.WindowNotOpen:
		decision.Reason = ReasonNotOpen
	case window == models.WindowClosed:
		decision.Reason = ReasonClosed
	}
	decision.Proceed = decision.Reason == ""
	return decision
}

// Guard adapts Decide to the locked count-and-insert primitive. When examID is
// set the attempt is only accepted while the schedule still points at that exam.
func (g attemptGate) Guard(studentID string, examID *uint) repositories.AttemptGuard {
	return func(schedule *models.ExamSchedule, used int64) error {
		if examID != nil && schedule.ExamID != *examID {
			return NewBusinessRuleError("schedule_changed",
				"the schedule was changed to another exam while the submission was being recorded",
				map[string]interface{}{"schedule_id": schedule.ID, "exam_id": schedule.ExamID})
		}

		decision := g.Decide(schedule, used)
		if decision.Proceed {
			return nil
		}
		return g.blocked(studentID, decision)
	}
}

func (g attemptGate) blocked(studentID string, decision *models.AttemptDecision) error {
	if decision.Reason == ReasonMaxAttempts {
		return &AttemptLimitExceededError{
			StudentID:   studentID,
			ScheduleID:  decision.ScheduleID,
			Used:        decision.AttemptsUsed,
			MaxAttempts: decision.MaxAttempts,
		}
	}
	return NewBusinessRuleError(ruleFor(decision.Reason), decision.Reason,
		map[string]interface{}{"schedule_id": decision.ScheduleID})
}

func ruleFor(reason string) string {
	switch reason {
	case ReasonInactive:
		return "schedule_inactive"
	case ReasonNotOpen:
		return "schedule_not_open"
	case ReasonClosed:
		return "schedule_closed"
	default:
		return "attempt_blocked"
	}
}
