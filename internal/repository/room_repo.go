package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/asramahub/asrama-go-api/internal/models"
)

// Room registry rejections. These are business-rule errors returned to the
// caller unchanged; none of them leaves partial state behind.
var (
	ErrRoomNotFound             = errors.New("room not found")
	ErrRoomFull                 = errors.New("room is at capacity")
	ErrRoomUnderMaintenance     = errors.New("room is under maintenance")
	ErrGenderMismatch           = errors.New("room gender designation does not match occupant")
	ErrBuildingPolicyViolation  = errors.New("building gender policy forbids occupant")
	ErrRoomNotOccupied          = errors.New("room has no occupants to release")
	ErrRoomAlreadyExists        = errors.New("room already exists")
	ErrInvalidRoomCapacity      = errors.New("room capacity must be positive")
	ErrCapacityBelowOccupancy   = errors.New("room capacity cannot drop below current occupancy")
)

// RoomRepository is the room registry: it owns room records and is the only
// writer of occupant counts. ReserveSlot and ReleaseSlot take the write
// transaction they must run under so callers can compose them with student
// updates atomically.
type RoomRepository interface {
	Create(ctx context.Context, room *models.Room) error
	Get(ctx context.Context, buildingID, code string) (models.Room, error)
	GetByID(ctx context.Context, id uint) (models.Room, error)
	ListByBuilding(ctx context.Context, buildingID string) ([]models.Room, error)
	ListAssignable(ctx context.Context, gender models.Gender, excludeRoomID *uint) ([]models.Room, error)
	SetMaintenance(ctx context.Context, buildingID, code string, maintenance bool) (models.Room, error)
	ReserveSlot(tx *gorm.DB, buildingID, code string, gender models.Gender) (models.Room, error)
	ReleaseSlot(tx *gorm.DB, roomID uint) (models.Room, error)
}

type roomRepository struct {
	db       *gorm.DB
	policies models.BuildingPolicy
}

// NewRoomRepository constructs the room registry with the injected building
// gender policy table.
func NewRoomRepository(db *gorm.DB, policies models.BuildingPolicy) RoomRepository {
	return &roomRepository{db: db, policies: policies}
}

func (r *roomRepository) Create(ctx context.Context, room *models.Room) error {
	if room.Capacity <= 0 {
		return ErrInvalidRoomCapacity
	}

	var count int64
	err := r.db.WithContext(ctx).Model(&models.Room{}).
		Where("building_id = ? AND code = ?", room.BuildingID, room.Code).
		Count(&count).Error
	if err != nil {
		return err
	}
	if count > 0 {
		return ErrRoomAlreadyExists
	}

	return r.db.WithContext(ctx).Create(room).Error
}

func (r *roomRepository) Get(ctx context.Context, buildingID, code string) (models.Room, error) {
	var room models.Room
	err := r.db.WithContext(ctx).
		Where("building_id = ? AND code = ?", buildingID, code).
		First(&room).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Room{}, ErrRoomNotFound
		}
		return models.Room{}, err
	}

	return room, nil
}

func (r *roomRepository) GetByID(ctx context.Context, id uint) (models.Room, error) {
	var room models.Room
	if err := r.db.WithContext(ctx).First(&room, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Room{}, ErrRoomNotFound
		}
		return models.Room{}, err
	}

	return room, nil
}

func (r *roomRepository) ListByBuilding(ctx context.Context, buildingID string) ([]models.Room, error) {
	var rooms []models.Room
	err := r.db.WithContext(ctx).
		Where("building_id = ?", buildingID).
		Order("code ASC").
		Find(&rooms).Error
	if err != nil {
		return nil, err
	}

	return rooms, nil
}

// ListAssignable returns candidate rooms for an occupant of the given
// gender: not under maintenance, below capacity, gender designation unset or
// matching, building policy satisfied. The result is advisory; ReserveSlot
// re-checks every rule under a row lock.
func (r *roomRepository) ListAssignable(ctx context.Context, gender models.Gender, excludeRoomID *uint) ([]models.Room, error) {
	query := r.db.WithContext(ctx).
		Where("maintenance = ?", false).
		Where("occupant_count < capacity").
		Where("gender_designation IN ?", []models.Gender{models.GenderUnset, gender})

	if excludeRoomID != nil {
		query = query.Where("id <> ?", *excludeRoomID)
	}

	var rooms []models.Room
	if err := query.Order("building_id ASC, code ASC").Find(&rooms).Error; err != nil {
		return nil, err
	}

	// Building policy is configuration, not a column, so it filters here.
	eligible := make([]models.Room, 0, len(rooms))
	for _, room := range rooms {
		if r.policies.Allows(room.BuildingID, gender) {
			eligible = append(eligible, room)
		}
	}

	return eligible, nil
}

func (r *roomRepository) SetMaintenance(ctx context.Context, buildingID, code string, maintenance bool) (models.Room, error) {
	var room models.Room
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := lockForUpdate(tx).
			Where("building_id = ? AND code = ?", buildingID, code).
			First(&room).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrRoomNotFound
			}
			return err
		}

		room.Maintenance = maintenance
		return tx.Model(&room).Update("maintenance", maintenance).Error
	})
	if err != nil {
		return models.Room{}, err
	}

	return room, nil
}

// ReserveSlot atomically takes one slot in the room for an occupant of the
// given gender. It locks the room row, re-validates capacity, maintenance,
// gender designation and building policy, then increments the occupant
// count. A previously unset gender designation becomes fixed in the same
// step.
func (r *roomRepository) ReserveSlot(tx *gorm.DB, buildingID, code string, gender models.Gender) (models.Room, error) {
	var room models.Room
	err := lockForUpdate(tx).
		Where("building_id = ? AND code = ?", buildingID, code).
		First(&room).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Room{}, ErrRoomNotFound
		}
		return models.Room{}, err
	}

	if room.Maintenance {
		return models.Room{}, ErrRoomUnderMaintenance
	}
	if room.OccupantCount >= room.Capacity {
		return models.Room{}, ErrRoomFull
	}
	if !r.policies.Allows(room.BuildingID, gender) {
		return models.Room{}, ErrBuildingPolicyViolation
	}
	if room.GenderDesignation != models.GenderUnset && room.GenderDesignation != gender {
		return models.Room{}, ErrGenderMismatch
	}

	room.OccupantCount++
	if room.GenderDesignation == models.GenderUnset {
		room.GenderDesignation = gender
	}

	updates := map[string]interface{}{
		"occupant_count":     room.OccupantCount,
		"gender_designation": room.GenderDesignation,
	}
	if err := tx.Model(&models.Room{}).Where("id = ?", room.ID).Updates(updates).Error; err != nil {
		return models.Room{}, err
	}

	return room, nil
}

// ReleaseSlot atomically frees one slot. When the count reaches zero the
// gender designation resets so the room may house either gender again.
func (r *roomRepository) ReleaseSlot(tx *gorm.DB, roomID uint) (models.Room, error) {
	var room models.Room
	if err := lockForUpdate(tx).First(&room, roomID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Room{}, ErrRoomNotFound
		}
		return models.Room{}, err
	}

	if room.OccupantCount <= 0 {
		return models.Room{}, ErrRoomNotOccupied
	}

	room.OccupantCount--
	if room.OccupantCount == 0 {
		room.GenderDesignation = models.GenderUnset
	}

	updates := map[string]interface{}{
		"occupant_count":     room.OccupantCount,
		"gender_designation": room.GenderDesignation,
	}
	if err := tx.Model(&models.Room{}).Where("id = ?", room.ID).Updates(updates).Error; err != nil {
		return models.Room{}, err
	}

	return room, nil
}
