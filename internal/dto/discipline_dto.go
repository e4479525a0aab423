package dto

import (
	"time"

	"github.com/asramahub/asrama-go-api/internal/models"
)

// DisciplinaryActionCreateRequest records a new action against a student.
// Dates arrive as RFC 3339 date strings from the administrative layer.
type DisciplinaryActionCreateRequest struct {
	StudentID     uint       `json:"student_id" validate:"required"`
	Severity      string     `json:"severity" validate:"required,oneof=low medium high expulsion"`
	Status        string     `json:"status" validate:"omitempty,oneof=pending active completed cancelled"`
	Reason        string     `json:"reason" validate:"max=1024"`
	DecisionDate  time.Time  `json:"decision_date" validate:"required"`
	EffectiveFrom *time.Time `json:"effective_from"`
	EffectiveTo   *time.Time `json:"effective_to"`
}

// DisciplinaryActionUpdateRequest edits or cancels an existing action.
// Nil fields are left unchanged.
type DisciplinaryActionUpdateRequest struct {
	Severity      *string    `json:"severity" validate:"omitempty,oneof=low medium high expulsion"`
	Status        *string    `json:"status" validate:"omitempty,oneof=pending active completed cancelled"`
	Reason        *string    `json:"reason" validate:"omitempty,max=1024"`
	DecisionDate  *time.Time `json:"decision_date"`
	EffectiveFrom *time.Time `json:"effective_from"`
	EffectiveTo   *time.Time `json:"effective_to"`
}

// DisciplinaryActionResponse is the outward representation of an action.
type DisciplinaryActionResponse struct {
	ID            uint       `json:"id"`
	StudentID     uint       `json:"student_id"`
	Severity      string     `json:"severity"`
	Status        string     `json:"status"`
	Reason        string     `json:"reason"`
	DecisionDate  time.Time  `json:"decision_date"`
	EffectiveFrom *time.Time `json:"effective_from"`
	EffectiveTo   *time.Time `json:"effective_to"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// NewDisciplinaryActionResponse converts an action model.
func NewDisciplinaryActionResponse(action models.DisciplinaryAction) DisciplinaryActionResponse {
	return DisciplinaryActionResponse{
		ID:            action.ID,
		StudentID:     action.StudentID,
		Severity:      string(action.Severity),
		Status:        string(action.Status),
		Reason:        action.Reason,
		DecisionDate:  action.DecisionDate,
		EffectiveFrom: action.EffectiveFrom,
		EffectiveTo:   action.EffectiveTo,
		CreatedAt:     action.CreatedAt,
		UpdatedAt:     action.UpdatedAt,
	}
}

// EnforcementOutcome reports whether a disciplinary write triggered the
// automatic status change and forced vacancy.
type EnforcementOutcome struct {
	Fired       bool          `json:"fired"`
	Reason      string        `json:"reason,omitempty"`
	VacatedRoom *RoomResponse `json:"vacated_room,omitempty"`
}

// DisciplinaryActionResult is the full outcome of a ledger write.
type DisciplinaryActionResult struct {
	Action       DisciplinaryActionResponse `json:"action"`
	ConductScore int                        `json:"conduct_score"`
	ScoreChanged bool                       `json:"score_changed"`
	Enforcement  EnforcementOutcome         `json:"enforcement"`
}

// ConductScoreResponse reports the derived conduct score for a student.
type ConductScoreResponse struct {
	StudentID    uint `json:"student_id"`
	ConductScore int  `json:"conduct_score"`
	CacheHit     bool `json:"cache_hit"`
}
