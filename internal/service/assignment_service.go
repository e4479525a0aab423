package service

import (
	"context"
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/asramahub/asrama-go-api/internal/dto"
	"github.com/asramahub/asrama-go-api/internal/models"
	"github.com/asramahub/asrama-go-api/internal/observability"
	"github.com/asramahub/asrama-go-api/internal/repository"
)

// Assignment coordinator rejections.
var (
	ErrAlreadyAssigned  = errors.New("student already has a room assignment")
	ErrNotAssigned      = errors.New("student has no room assignment")
	ErrSameRoomTransfer = errors.New("transfer target is the student's current room")
)

// AssignmentService orchestrates room assignment, transfer and vacancy for
// students. Every mutation runs under a transaction that locks the student
// row first and the room rows through the registry, so concurrent requests
// against the same student or room serialise instead of interleaving.
type AssignmentService interface {
	AssignRoom(ctx context.Context, req dto.AssignRoomRequest, actor ActivityActor) (dto.AssignmentResponse, error)
	TransferRoom(ctx context.Context, req dto.TransferRoomRequest, actor ActivityActor) (dto.TransferResponse, error)
	VacateRoom(ctx context.Context, studentID uint, actor ActivityActor) (dto.AssignmentResponse, error)
	ListEligibleRooms(ctx context.Context, studentID uint) ([]dto.RoomResponse, error)
}

type assignmentService struct {
	tx        repository.TxRunner
	rooms     repository.RoomRepository
	students  repository.StudentRepository
	activity  ActivityRecorder
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewAssignmentService constructs the assignment coordinator.
func NewAssignmentService(tx repository.TxRunner, rooms repository.RoomRepository, students repository.StudentRepository, activity ActivityRecorder, validate *validator.Validate, logger zerolog.Logger) AssignmentService {
	return &assignmentService{
		tx:        tx,
		rooms:     rooms,
		students:  students,
		activity:  activity,
		validator: validate,
		logger:    logger.With().Str("component", "assignment_service").Logger(),
	}
}

func (s *assignmentService) AssignRoom(ctx context.Context, req dto.AssignRoomRequest, actor ActivityActor) (dto.AssignmentResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.AssignmentResponse{}, err
	}

	var (
		student models.Student
		room    models.Room
	)

	err := s.tx.RunInTx(ctx, func(tx *gorm.DB) error {
		var err error
		student, err = s.students.GetForUpdate(tx, req.StudentID)
		if err != nil {
			return err
		}

		if student.RoomID != nil {
			return ErrAlreadyAssigned
		}

		room, err = s.rooms.ReserveSlot(tx, req.BuildingID, req.RoomCode, student.Gender)
		if err != nil {
			return err
		}

		if err := s.students.SetRoom(tx, student.ID, &room.ID); err != nil {
			return err
		}

		student.RoomID = &room.ID
		return nil
	})
	observability.RoomReservations().WithLabelValues("assign", reservationOutcome(err)).Inc()
	if err != nil {
		return dto.AssignmentResponse{}, err
	}

	s.recordActivity(ctx, actor, "room.assigned", student.ID, map[string]interface{}{
		"building_id": room.BuildingID,
		"room_code":   room.Code,
	})

	return dto.AssignmentResponse{
		Room:    dto.NewRoomResponse(room),
		Student: dto.NewStudentResponse(student),
	}, nil
}

func (s *assignmentService) TransferRoom(ctx context.Context, req dto.TransferRoomRequest, actor ActivityActor) (dto.TransferResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.TransferResponse{}, err
	}

	var (
		student models.Student
		source  models.Room
		target  models.Room
	)

	err := s.tx.RunInTx(ctx, func(tx *gorm.DB) error {
		var err error
		student, err = s.students.GetForUpdate(tx, req.StudentID)
		if err != nil {
			return err
		}

		if student.RoomID == nil {
			return ErrNotAssigned
		}

		current, err := s.rooms.GetByID(ctx, *student.RoomID)
		if err != nil {
			return err
		}
		if current.BuildingID == req.BuildingID && current.Code == req.RoomCode {
			return ErrSameRoomTransfer
		}

		// Reserve the target before releasing the source: if the reserve
		// fails the student keeps their room, and at no instant do they
		// hold zero rooms.
		target, err = s.rooms.ReserveSlot(tx, req.BuildingID, req.RoomCode, student.Gender)
		if err != nil {
			return err
		}

		source, err = s.rooms.ReleaseSlot(tx, current.ID)
		if err != nil {
			return err
		}

		if err := s.students.SetRoom(tx, student.ID, &target.ID); err != nil {
			return err
		}

		student.RoomID = &target.ID
		return nil
	})
	observability.RoomReservations().WithLabelValues("transfer", reservationOutcome(err)).Inc()
	if err != nil {
		return dto.TransferResponse{}, err
	}

	s.recordActivity(ctx, actor, "room.transferred", student.ID, map[string]interface{}{
		"from_building": source.BuildingID,
		"from_room":     source.Code,
		"to_building":   target.BuildingID,
		"to_room":       target.Code,
	})

	return dto.TransferResponse{
		SourceRoom: dto.NewRoomResponse(source),
		TargetRoom: dto.NewRoomResponse(target),
		Student:    dto.NewStudentResponse(student),
	}, nil
}

func (s *assignmentService) VacateRoom(ctx context.Context, studentID uint, actor ActivityActor) (dto.AssignmentResponse, error) {
	var (
		student models.Student
		room    models.Room
	)

	err := s.tx.RunInTx(ctx, func(tx *gorm.DB) error {
		var err error
		student, err = s.students.GetForUpdate(tx, studentID)
		if err != nil {
			return err
		}

		if student.RoomID == nil {
			return ErrNotAssigned
		}

		room, err = s.rooms.ReleaseSlot(tx, *student.RoomID)
		if err != nil {
			return err
		}

		if err := s.students.SetRoom(tx, student.ID, nil); err != nil {
			return err
		}

		student.RoomID = nil
		return nil
	})
	observability.RoomReservations().WithLabelValues("vacate", reservationOutcome(err)).Inc()
	if err != nil {
		return dto.AssignmentResponse{}, err
	}

	s.recordActivity(ctx, actor, "room.vacated", student.ID, map[string]interface{}{
		"building_id": room.BuildingID,
		"room_code":   room.Code,
	})

	return dto.AssignmentResponse{
		Room:    dto.NewRoomResponse(room),
		Student: dto.NewStudentResponse(student),
	}, nil
}

// ListEligibleRooms returns rooms the student could be assigned or
// transferred into. The result is advisory: AssignRoom and TransferRoom
// re-check every rule under a row lock, so a listed room can still be
// rejected by the time the mutation runs.
func (s *assignmentService) ListEligibleRooms(ctx context.Context, studentID uint) ([]dto.RoomResponse, error) {
	student, err := s.students.GetByID(ctx, studentID)
	if err != nil {
		return nil, err
	}

	rooms, err := s.rooms.ListAssignable(ctx, student.Gender, student.RoomID)
	if err != nil {
		return nil, err
	}

	return dto.NewRoomResponses(rooms), nil
}

func (s *assignmentService) recordActivity(ctx context.Context, actor ActivityActor, action string, studentID uint, metadata map[string]interface{}) {
	if s.activity == nil {
		return
	}

	_, _ = s.activity.Record(ctx, ActivityEntry{
		ActorID:    actor.ID,
		ActorRole:  actor.Role,
		Action:     action,
		EntityType: "student",
		EntityID:   &studentID,
		Metadata:   metadata,
	})
}

func reservationOutcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, repository.ErrRoomFull):
		return "room_full"
	case errors.Is(err, repository.ErrRoomUnderMaintenance):
		return "under_maintenance"
	case errors.Is(err, repository.ErrGenderMismatch):
		return "gender_mismatch"
	case errors.Is(err, repository.ErrBuildingPolicyViolation):
		return "policy_violation"
	case errors.Is(err, ErrAlreadyAssigned), errors.Is(err, ErrNotAssigned), errors.Is(err, ErrSameRoomTransfer):
		return "state_conflict"
	default:
		return "error"
	}
}
