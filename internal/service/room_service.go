package service

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/asramahub/asrama-go-api/internal/dto"
	"github.com/asramahub/asrama-go-api/internal/models"
	"github.com/asramahub/asrama-go-api/internal/repository"
)

// RoomService handles administrative room management: registration,
// maintenance toggling and reads. Occupancy mutations go through the
// assignment coordinator, never through here.
type RoomService interface {
	Create(ctx context.Context, req dto.RoomCreateRequest, actor ActivityActor) (dto.RoomResponse, error)
	Get(ctx context.Context, buildingID, code string) (dto.RoomResponse, error)
	ListByBuilding(ctx context.Context, buildingID string) ([]dto.RoomResponse, error)
	SetMaintenance(ctx context.Context, buildingID, code string, maintenance bool, actor ActivityActor) (dto.RoomResponse, error)
}

type roomService struct {
	rooms     repository.RoomRepository
	activity  ActivityRecorder
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewRoomService constructs the room administration service.
func NewRoomService(rooms repository.RoomRepository, activity ActivityRecorder, validate *validator.Validate, logger zerolog.Logger) RoomService {
	return &roomService{
		rooms:     rooms,
		activity:  activity,
		validator: validate,
		logger:    logger.With().Str("component", "room_service").Logger(),
	}
}

func (s *roomService) Create(ctx context.Context, req dto.RoomCreateRequest, actor ActivityActor) (dto.RoomResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.RoomResponse{}, err
	}

	room := models.Room{
		BuildingID: strings.TrimSpace(req.BuildingID),
		Code:       strings.TrimSpace(req.Code),
		Capacity:   req.Capacity,
	}

	if err := s.rooms.Create(ctx, &room); err != nil {
		return dto.RoomResponse{}, err
	}

	if s.activity != nil {
		roomID := room.ID
		_, _ = s.activity.Record(ctx, ActivityEntry{
			ActorID:    actor.ID,
			ActorRole:  actor.Role,
			Action:     "room.created",
			EntityType: "room",
			EntityID:   &roomID,
			Metadata: map[string]interface{}{
				"building_id": room.BuildingID,
				"room_code":   room.Code,
				"capacity":    room.Capacity,
			},
		})
	}

	return dto.NewRoomResponse(room), nil
}

func (s *roomService) Get(ctx context.Context, buildingID, code string) (dto.RoomResponse, error) {
	room, err := s.rooms.Get(ctx, buildingID, code)
	if err != nil {
		return dto.RoomResponse{}, err
	}

	return dto.NewRoomResponse(room), nil
}

func (s *roomService) ListByBuilding(ctx context.Context, buildingID string) ([]dto.RoomResponse, error) {
	rooms, err := s.rooms.ListByBuilding(ctx, buildingID)
	if err != nil {
		return nil, err
	}

	return dto.NewRoomResponses(rooms), nil
}

func (s *roomService) SetMaintenance(ctx context.Context, buildingID, code string, maintenance bool, actor ActivityActor) (dto.RoomResponse, error) {
	room, err := s.rooms.SetMaintenance(ctx, buildingID, code, maintenance)
	if err != nil {
		return dto.RoomResponse{}, err
	}

	if s.activity != nil {
		roomID := room.ID
		_, _ = s.activity.Record(ctx, ActivityEntry{
			ActorID:    actor.ID,
			ActorRole:  actor.Role,
			Action:     "room.maintenance",
			EntityType: "room",
			EntityID:   &roomID,
			Metadata: map[string]interface{}{
				"building_id": room.BuildingID,
				"room_code":   room.Code,
				"maintenance": maintenance,
			},
		})
	}

	return dto.NewRoomResponse(room), nil
}
