package service

import (
	"fmt"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/asramahub/asrama-go-api/internal/models"
	"github.com/asramahub/asrama-go-api/internal/repository"
)

// EnforcementResult describes what an enforcement application did.
type EnforcementResult struct {
	Fired       bool
	Reason      string
	VacatedRoom *models.Room
}

// EnforcementService decides whether a disciplinary write forces the student
// out of active status and housing, and applies that cascade atomically.
type EnforcementService interface {
	// ShouldEnforce reports whether the decision rule fires for the given
	// triggering action and freshly derived conduct score.
	ShouldEnforce(action models.DisciplinaryAction, score int) bool

	// Apply flips the student to non-active and vacates their room inside
	// the caller's transaction. It mutates the passed student to reflect
	// the committed state. Already non-active students are a no-op.
	Apply(tx *gorm.DB, student *models.Student, action models.DisciplinaryAction, score int) (EnforcementResult, error)
}

type enforcementService struct {
	rooms     repository.RoomRepository
	students  repository.StudentRepository
	threshold int
	logger    zerolog.Logger
}

// NewEnforcementService constructs the enforcement coordinator with the
// configured score threshold.
func NewEnforcementService(rooms repository.RoomRepository, students repository.StudentRepository, threshold int, logger zerolog.Logger) EnforcementService {
	return &enforcementService{
		rooms:     rooms,
		students:  students,
		threshold: threshold,
		logger:    logger.With().Str("component", "enforcement_service").Logger(),
	}
}

func (s *enforcementService) ShouldEnforce(action models.DisciplinaryAction, score int) bool {
	if action.Counted() && action.Severity == models.SeverityExpulsion {
		return true
	}
	return score < s.threshold
}

func (s *enforcementService) Apply(tx *gorm.DB, student *models.Student, action models.DisciplinaryAction, score int) (EnforcementResult, error) {
	// Enforcement never re-fires for a student who is already non-active,
	// whatever the reason they got there.
	if student.StudyStatus == models.StudyStatusNonActive {
		return EnforcementResult{Fired: false, Reason: "student already non-active"}, nil
	}

	reason := fmt.Sprintf("conduct score %d below threshold %d", score, s.threshold)
	if action.Counted() && action.Severity == models.SeverityExpulsion {
		reason = "expulsion-level severity"
	}

	if err := s.students.SetStudyStatus(tx, student.ID, models.StudyStatusNonActive); err != nil {
		return EnforcementResult{}, err
	}

	var vacated *models.Room
	if student.RoomID != nil {
		room, err := s.rooms.ReleaseSlot(tx, *student.RoomID)
		if err != nil {
			return EnforcementResult{}, err
		}
		if err := s.students.SetRoom(tx, student.ID, nil); err != nil {
			return EnforcementResult{}, err
		}
		vacated = &room
	}

	student.StudyStatus = models.StudyStatusNonActive
	student.RoomID = nil

	s.logger.Info().
		Uint("student_id", student.ID).
		Uint("action_id", action.ID).
		Int("conduct_score", score).
		Str("reason", reason).
		Msg("enforcement applied")

	return EnforcementResult{Fired: true, Reason: reason, VacatedRoom: vacated}, nil
}
