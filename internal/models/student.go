package models

import "time"

// StudyStatus tracks whether a student is currently enrolled and housed.
type StudyStatus string

const (
	StudyStatusActive    StudyStatus = "active"
	StudyStatusNonActive StudyStatus = "non_active"
)

// Student represents a dormitory resident. RoomID is nil when the student
// holds no room; at most one room references a student at any time.
type Student struct {
	ID          uint        `gorm:"primaryKey" json:"id"`
	Name        string      `gorm:"size:255;not null" json:"name"`
	Email       string      `gorm:"size:255;uniqueIndex;not null" json:"email"`
	Gender      Gender      `gorm:"size:8;not null" json:"gender"`
	RoomID      *uint       `gorm:"index" json:"room_id"`
	StudyStatus StudyStatus `gorm:"size:16;not null;default:'active'" json:"study_status"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}
