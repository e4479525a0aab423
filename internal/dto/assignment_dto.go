package dto

import (
	"time"

	"github.com/asramahub/asrama-go-api/internal/models"
)

// AssignRoomRequest places a student into a specific room.
type AssignRoomRequest struct {
	StudentID  uint   `json:"student_id" validate:"required"`
	BuildingID string `json:"building_id" validate:"required,max=16"`
	RoomCode   string `json:"room_code" validate:"required,max=16"`
}

// TransferRoomRequest moves a student from their current room to a target.
type TransferRoomRequest struct {
	StudentID  uint   `json:"student_id" validate:"required"`
	BuildingID string `json:"building_id" validate:"required,max=16"`
	RoomCode   string `json:"room_code" validate:"required,max=16"`
}

// StudentResponse is the outward representation of a student.
type StudentResponse struct {
	ID          uint               `json:"id"`
	Name        string             `json:"name"`
	Email       string             `json:"email"`
	Gender      models.Gender      `json:"gender"`
	RoomID      *uint              `json:"room_id"`
	StudyStatus models.StudyStatus `json:"study_status"`
	UpdatedAt   time.Time          `json:"updated_at"`
}

// NewStudentResponse converts a student model into its response form.
func NewStudentResponse(student models.Student) StudentResponse {
	return StudentResponse{
		ID:          student.ID,
		Name:        student.Name,
		Email:       student.Email,
		Gender:      student.Gender,
		RoomID:      student.RoomID,
		StudyStatus: student.StudyStatus,
		UpdatedAt:   student.UpdatedAt,
	}
}

// AssignmentResponse reports the room and student state after an assign or
// vacate operation.
type AssignmentResponse struct {
	Room    RoomResponse    `json:"room"`
	Student StudentResponse `json:"student"`
}

// TransferResponse reports both rooms touched by a transfer.
type TransferResponse struct {
	SourceRoom RoomResponse    `json:"source_room"`
	TargetRoom RoomResponse    `json:"target_room"`
	Student    StudentResponse `json:"student"`
}
