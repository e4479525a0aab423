package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/asramahub/asrama-go-api/internal/dto"
	"github.com/asramahub/asrama-go-api/internal/models"
	"github.com/asramahub/asrama-go-api/internal/repository"
)

func TestAssignRoomFixesGenderAndRejectsMismatch(t *testing.T) {
	env := newTestEnv(t)
	svc := env.assignmentService()
	ctx := context.Background()

	env.createRoom(t, "BK001", "P.101", 2)
	male := env.createStudent(t, "budi", models.GenderMale)
	female := env.createStudent(t, "sari", models.GenderFemale)

	result, err := svc.AssignRoom(ctx, dto.AssignRoomRequest{StudentID: male.ID, BuildingID: "BK001", RoomCode: "P.101"}, SystemActor)
	require.NoError(t, err)
	require.Equal(t, 1, result.Room.OccupantCount)
	require.Equal(t, models.GenderMale, result.Room.GenderDesignation)
	require.NotNil(t, result.Student.RoomID)

	// BK001 is male-only, so the policy violation surfaces before the
	// per-room designation check.
	_, err = svc.AssignRoom(ctx, dto.AssignRoomRequest{StudentID: female.ID, BuildingID: "BK001", RoomCode: "P.101"}, SystemActor)
	require.ErrorIs(t, err, repository.ErrBuildingPolicyViolation)

	stored, err := env.rooms.Get(ctx, "BK001", "P.101")
	require.NoError(t, err)
	require.Equal(t, 1, stored.OccupantCount)
}

func TestAssignRoomRejectsFullRoom(t *testing.T) {
	env := newTestEnv(t)
	svc := env.assignmentService()
	ctx := context.Background()

	env.createRoom(t, "BK001", "P.102", 1)
	first := env.createStudent(t, "agus", models.GenderMale)
	second := env.createStudent(t, "dedi", models.GenderMale)

	_, err := svc.AssignRoom(ctx, dto.AssignRoomRequest{StudentID: first.ID, BuildingID: "BK001", RoomCode: "P.102"}, SystemActor)
	require.NoError(t, err)

	_, err = svc.AssignRoom(ctx, dto.AssignRoomRequest{StudentID: second.ID, BuildingID: "BK001", RoomCode: "P.102"}, SystemActor)
	require.ErrorIs(t, err, repository.ErrRoomFull)

	stored, err := env.students.GetByID(ctx, second.ID)
	require.NoError(t, err)
	require.Nil(t, stored.RoomID)
}

func TestAssignRoomRejectsDoubleAssignment(t *testing.T) {
	env := newTestEnv(t)
	svc := env.assignmentService()
	ctx := context.Background()

	env.createRoom(t, "BK001", "P.103", 2)
	env.createRoom(t, "BK002", "P.201", 2)
	student := env.createStudent(t, "rudi", models.GenderMale)

	_, err := svc.AssignRoom(ctx, dto.AssignRoomRequest{StudentID: student.ID, BuildingID: "BK001", RoomCode: "P.103"}, SystemActor)
	require.NoError(t, err)

	_, err = svc.AssignRoom(ctx, dto.AssignRoomRequest{StudentID: student.ID, BuildingID: "BK002", RoomCode: "P.201"}, SystemActor)
	require.ErrorIs(t, err, ErrAlreadyAssigned)
}

func TestTransferRoomFailureLeavesSourceUntouched(t *testing.T) {
	env := newTestEnv(t)
	svc := env.assignmentService()
	ctx := context.Background()

	source := env.createRoom(t, "BK001", "P.104", 2)
	env.createRoom(t, "BK001", "P.105", 1)
	student := env.createStudent(t, "joko", models.GenderMale)
	blocker := env.createStudent(t, "tono", models.GenderMale)

	_, err := svc.AssignRoom(ctx, dto.AssignRoomRequest{StudentID: student.ID, BuildingID: "BK001", RoomCode: "P.104"}, SystemActor)
	require.NoError(t, err)
	_, err = svc.AssignRoom(ctx, dto.AssignRoomRequest{StudentID: blocker.ID, BuildingID: "BK001", RoomCode: "P.105"}, SystemActor)
	require.NoError(t, err)

	_, err = svc.TransferRoom(ctx, dto.TransferRoomRequest{StudentID: student.ID, BuildingID: "BK001", RoomCode: "P.105"}, SystemActor)
	require.ErrorIs(t, err, repository.ErrRoomFull)

	storedSource, err := env.rooms.GetByID(ctx, source.ID)
	require.NoError(t, err)
	require.Equal(t, 1, storedSource.OccupantCount, "aborted transfer must not release the source")

	storedStudent, err := env.students.GetByID(ctx, student.ID)
	require.NoError(t, err)
	require.NotNil(t, storedStudent.RoomID)
	require.Equal(t, source.ID, *storedStudent.RoomID)
}

func TestTransferRoomMovesOccupancy(t *testing.T) {
	env := newTestEnv(t)
	svc := env.assignmentService()
	ctx := context.Background()

	env.createRoom(t, "BK001", "P.106", 2)
	env.createRoom(t, "BK002", "P.202", 2)
	student := env.createStudent(t, "bayu", models.GenderMale)

	_, err := svc.AssignRoom(ctx, dto.AssignRoomRequest{StudentID: student.ID, BuildingID: "BK001", RoomCode: "P.106"}, SystemActor)
	require.NoError(t, err)

	result, err := svc.TransferRoom(ctx, dto.TransferRoomRequest{StudentID: student.ID, BuildingID: "BK002", RoomCode: "P.202"}, SystemActor)
	require.NoError(t, err)
	require.Equal(t, 0, result.SourceRoom.OccupantCount)
	require.Equal(t, models.GenderUnset, result.SourceRoom.GenderDesignation)
	require.Equal(t, 1, result.TargetRoom.OccupantCount)
	require.Equal(t, result.TargetRoom.ID, *result.Student.RoomID)
}

func TestTransferRoomRejectsSameRoom(t *testing.T) {
	env := newTestEnv(t)
	svc := env.assignmentService()
	ctx := context.Background()

	env.createRoom(t, "BK001", "P.107", 2)
	student := env.createStudent(t, "eko", models.GenderMale)

	_, err := svc.AssignRoom(ctx, dto.AssignRoomRequest{StudentID: student.ID, BuildingID: "BK001", RoomCode: "P.107"}, SystemActor)
	require.NoError(t, err)

	_, err = svc.TransferRoom(ctx, dto.TransferRoomRequest{StudentID: student.ID, BuildingID: "BK001", RoomCode: "P.107"}, SystemActor)
	require.ErrorIs(t, err, ErrSameRoomTransfer)
}

func TestVacateRoomClearsAssignment(t *testing.T) {
	env := newTestEnv(t)
	svc := env.assignmentService()
	ctx := context.Background()

	env.createRoom(t, "BK001", "P.108", 2)
	student := env.createStudent(t, "adit", models.GenderMale)

	_, err := svc.VacateRoom(ctx, student.ID, SystemActor)
	require.ErrorIs(t, err, ErrNotAssigned)

	_, err = svc.AssignRoom(ctx, dto.AssignRoomRequest{StudentID: student.ID, BuildingID: "BK001", RoomCode: "P.108"}, SystemActor)
	require.NoError(t, err)

	result, err := svc.VacateRoom(ctx, student.ID, SystemActor)
	require.NoError(t, err)
	require.Equal(t, 0, result.Room.OccupantCount)
	require.Nil(t, result.Student.RoomID)
}

func TestListEligibleRoomsFiltersAndOrders(t *testing.T) {
	env := newTestEnv(t)
	svc := env.assignmentService()
	ctx := context.Background()

	env.createRoom(t, "BK002", "P.203", 2)
	env.createRoom(t, "BK001", "P.109", 2)
	env.createRoom(t, "BK003", "P.301", 2)
	student := env.createStudent(t, "galih", models.GenderMale)

	rooms, err := svc.ListEligibleRooms(ctx, student.ID)
	require.NoError(t, err)
	require.Len(t, rooms, 2)
	require.Equal(t, "BK001", rooms[0].BuildingID)
	require.Equal(t, "BK002", rooms[1].BuildingID)

	_, err = svc.ListEligibleRooms(ctx, 9999)
	require.ErrorIs(t, err, repository.ErrStudentNotFound)
}
