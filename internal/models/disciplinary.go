package models

import "time"

// Severity grades a disciplinary action. Each severity maps to a configured
// point deduction applied to the student's conduct score.
type Severity string

const (
	SeverityLow       Severity = "low"
	SeverityMedium    Severity = "medium"
	SeverityHigh      Severity = "high"
	SeverityExpulsion Severity = "expulsion"
)

// Valid reports whether the severity is a known level.
func (s Severity) Valid() bool {
	switch s {
	case SeverityLow, SeverityMedium, SeverityHigh, SeverityExpulsion:
		return true
	}
	return false
}

// ActionStatus is the lifecycle status of a disciplinary action. Cancelled
// actions are excluded from conduct score derivation.
type ActionStatus string

const (
	ActionStatusPending   ActionStatus = "pending"
	ActionStatusActive    ActionStatus = "active"
	ActionStatusCompleted ActionStatus = "completed"
	ActionStatusCancelled ActionStatus = "cancelled"
)

// Valid reports whether the status is a known lifecycle value.
func (s ActionStatus) Valid() bool {
	switch s {
	case ActionStatusPending, ActionStatusActive, ActionStatusCompleted, ActionStatusCancelled:
		return true
	}
	return false
}

// DisciplinaryAction records a single sanction against a student.
// Date invariants: DecisionDate is never in the future, DecisionDate is on
// or before EffectiveFrom, and EffectiveFrom precedes EffectiveTo.
type DisciplinaryAction struct {
	ID            uint         `gorm:"primaryKey" json:"id"`
	StudentID     uint         `gorm:"not null;index" json:"student_id"`
	Severity      Severity     `gorm:"size:16;not null" json:"severity"`
	Status        ActionStatus `gorm:"size:16;not null;default:'pending'" json:"status"`
	Reason        string       `gorm:"size:1024" json:"reason"`
	DecisionDate  time.Time    `gorm:"not null" json:"decision_date"`
	EffectiveFrom *time.Time   `json:"effective_from"`
	EffectiveTo   *time.Time   `json:"effective_to"`
	CreatedAt     time.Time    `json:"created_at"`
	UpdatedAt     time.Time    `json:"updated_at"`
}

// Counted reports whether the action contributes to the conduct score.
func (a DisciplinaryAction) Counted() bool {
	return a.Status != ActionStatusCancelled
}
