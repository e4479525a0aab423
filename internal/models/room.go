package models

import "time"

// Gender identifies the occupant gender a room or building accepts.
type Gender string

const (
	GenderUnset  Gender = ""
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
)

// Valid reports whether the gender is one of the two assignable values.
func (g Gender) Valid() bool {
	return g == GenderMale || g == GenderFemale
}

// RoomStatus is the operational status reported for a room.
type RoomStatus string

const (
	RoomStatusAvailable   RoomStatus = "available"
	RoomStatusOccupied    RoomStatus = "occupied"
	RoomStatusMaintenance RoomStatus = "under_maintenance"
)

// Room represents a dormitory room identified by building and room code.
// OccupantCount is mutated only through the room repository's reserve and
// release operations so the capacity invariant holds under concurrency.
type Room struct {
	ID                uint      `gorm:"primaryKey" json:"id"`
	BuildingID        string    `gorm:"size:16;not null;uniqueIndex:idx_rooms_building_code" json:"building_id"`
	Code              string    `gorm:"size:16;not null;uniqueIndex:idx_rooms_building_code" json:"code"`
	Capacity          int       `gorm:"not null" json:"capacity"`
	OccupantCount     int       `gorm:"not null;default:0" json:"occupant_count"`
	GenderDesignation Gender    `gorm:"size:8;not null;default:''" json:"gender_designation"`
	Maintenance       bool      `gorm:"not null;default:false" json:"maintenance"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// Status derives the operational status. Maintenance is administrator-set
// and wins over occupancy; otherwise the room is occupied exactly when full.
func (r Room) Status() RoomStatus {
	if r.Maintenance {
		return RoomStatusMaintenance
	}
	if r.OccupantCount >= r.Capacity {
		return RoomStatusOccupied
	}
	return RoomStatusAvailable
}

// HasVacancy reports whether the room can take one more occupant.
func (r Room) HasVacancy() bool {
	return !r.Maintenance && r.OccupantCount < r.Capacity
}

// BuildingPolicy maps a building to the single gender its rooms accept.
// Buildings absent from the map are mixed and carry no restriction.
type BuildingPolicy map[string]Gender

// Allows reports whether the building accepts occupants of the given gender.
func (p BuildingPolicy) Allows(buildingID string, gender Gender) bool {
	required, ok := p[buildingID]
	if !ok || required == GenderUnset {
		return true
	}
	return required == gender
}
