package dto

import (
	"time"

	"github.com/asramahub/asrama-go-api/internal/models"
)

// RoomCreateRequest registers a new room in a building.
type RoomCreateRequest struct {
	BuildingID string `json:"building_id" validate:"required,max=16"`
	Code       string `json:"code" validate:"required,max=16"`
	Capacity   int    `json:"capacity" validate:"required,gt=0"`
}

// RoomMaintenanceRequest toggles the administrator-set maintenance flag.
type RoomMaintenanceRequest struct {
	Maintenance *bool `json:"maintenance" validate:"required"`
}

// RoomResponse is the outward representation of a room, with the derived
// operational status included.
type RoomResponse struct {
	ID                uint          `json:"id"`
	BuildingID        string        `json:"building_id"`
	Code              string        `json:"code"`
	Capacity          int           `json:"capacity"`
	OccupantCount     int           `json:"occupant_count"`
	GenderDesignation models.Gender `json:"gender_designation"`
	Status            string        `json:"status"`
	UpdatedAt         time.Time     `json:"updated_at"`
}

// NewRoomResponse converts a room model into its response form.
func NewRoomResponse(room models.Room) RoomResponse {
	return RoomResponse{
		ID:                room.ID,
		BuildingID:        room.BuildingID,
		Code:              room.Code,
		Capacity:          room.Capacity,
		OccupantCount:     room.OccupantCount,
		GenderDesignation: room.GenderDesignation,
		Status:            string(room.Status()),
		UpdatedAt:         room.UpdatedAt,
	}
}

// NewRoomResponses converts a slice of rooms preserving order.
func NewRoomResponses(rooms []models.Room) []RoomResponse {
	responses := make([]RoomResponse, 0, len(rooms))
	for _, room := range rooms {
		responses = append(responses, NewRoomResponse(room))
	}
	return responses
}
