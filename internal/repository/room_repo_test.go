package repository

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/asramahub/asrama-go-api/internal/models"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Room{}, &models.Student{}, &models.DisciplinaryAction{}, &models.ActivityLog{}))
	return db
}

func testPolicies() models.BuildingPolicy {
	return models.BuildingPolicy{
		"BK001": models.GenderMale,
		"BK002": models.GenderMale,
		"BK003": models.GenderFemale,
		"BK004": models.GenderFemale,
	}
}

func TestRoomRepositoryReserveSlotSetsDesignation(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRoomRepository(db, testPolicies())

	room := models.Room{BuildingID: "BK001", Code: "P.101", Capacity: 2}
	require.NoError(t, repo.Create(context.Background(), &room))

	err := db.Transaction(func(tx *gorm.DB) error {
		reserved, err := repo.ReserveSlot(tx, "BK001", "P.101", models.GenderMale)
		require.NoError(t, err)
		require.Equal(t, 1, reserved.OccupantCount)
		require.Equal(t, models.GenderMale, reserved.GenderDesignation)
		return nil
	})
	require.NoError(t, err)

	stored, err := repo.Get(context.Background(), "BK001", "P.101")
	require.NoError(t, err)
	require.Equal(t, 1, stored.OccupantCount)
	require.Equal(t, models.GenderMale, stored.GenderDesignation)
	require.Equal(t, models.RoomStatusAvailable, stored.Status())
}

func TestRoomRepositoryReserveSlotRejectsGenderMismatch(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRoomRepository(db, models.BuildingPolicy{})

	room := models.Room{BuildingID: "BK009", Code: "P.201", Capacity: 2}
	require.NoError(t, repo.Create(context.Background(), &room))

	err := db.Transaction(func(tx *gorm.DB) error {
		_, err := repo.ReserveSlot(tx, "BK009", "P.201", models.GenderMale)
		return err
	})
	require.NoError(t, err)

	err = db.Transaction(func(tx *gorm.DB) error {
		_, err := repo.ReserveSlot(tx, "BK009", "P.201", models.GenderFemale)
		return err
	})
	require.ErrorIs(t, err, ErrGenderMismatch)

	stored, err := repo.Get(context.Background(), "BK009", "P.201")
	require.NoError(t, err)
	require.Equal(t, 1, stored.OccupantCount, "failed reserve must not change occupancy")
}

func TestRoomRepositoryReserveSlotRejectsBuildingPolicy(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRoomRepository(db, testPolicies())

	room := models.Room{BuildingID: "BK001", Code: "P.102", Capacity: 2}
	require.NoError(t, repo.Create(context.Background(), &room))

	// BK001 is male-only by policy even while the room is still empty.
	err := db.Transaction(func(tx *gorm.DB) error {
		_, err := repo.ReserveSlot(tx, "BK001", "P.102", models.GenderFemale)
		return err
	})
	require.ErrorIs(t, err, ErrBuildingPolicyViolation)
}

func TestRoomRepositoryReserveSlotRejectsFullRoom(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRoomRepository(db, testPolicies())

	room := models.Room{BuildingID: "BK001", Code: "P.103", Capacity: 1}
	require.NoError(t, repo.Create(context.Background(), &room))

	err := db.Transaction(func(tx *gorm.DB) error {
		_, err := repo.ReserveSlot(tx, "BK001", "P.103", models.GenderMale)
		return err
	})
	require.NoError(t, err)

	err = db.Transaction(func(tx *gorm.DB) error {
		_, err := repo.ReserveSlot(tx, "BK001", "P.103", models.GenderMale)
		return err
	})
	require.ErrorIs(t, err, ErrRoomFull)

	stored, err := repo.Get(context.Background(), "BK001", "P.103")
	require.NoError(t, err)
	require.Equal(t, 1, stored.OccupantCount)
	require.Equal(t, models.RoomStatusOccupied, stored.Status())
}

func TestRoomRepositoryReserveSlotRejectsMaintenance(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRoomRepository(db, testPolicies())

	room := models.Room{BuildingID: "BK001", Code: "P.104", Capacity: 2}
	require.NoError(t, repo.Create(context.Background(), &room))

	_, err := repo.SetMaintenance(context.Background(), "BK001", "P.104", true)
	require.NoError(t, err)

	err = db.Transaction(func(tx *gorm.DB) error {
		_, err := repo.ReserveSlot(tx, "BK001", "P.104", models.GenderMale)
		return err
	})
	require.ErrorIs(t, err, ErrRoomUnderMaintenance)
}

func TestRoomRepositoryReleaseSlotResetsDesignation(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRoomRepository(db, testPolicies())

	room := models.Room{BuildingID: "BK003", Code: "P.301", Capacity: 2}
	require.NoError(t, repo.Create(context.Background(), &room))

	err := db.Transaction(func(tx *gorm.DB) error {
		_, err := repo.ReserveSlot(tx, "BK003", "P.301", models.GenderFemale)
		return err
	})
	require.NoError(t, err)

	stored, err := repo.Get(context.Background(), "BK003", "P.301")
	require.NoError(t, err)

	err = db.Transaction(func(tx *gorm.DB) error {
		released, err := repo.ReleaseSlot(tx, stored.ID)
		require.NoError(t, err)
		require.Equal(t, 0, released.OccupantCount)
		require.Equal(t, models.GenderUnset, released.GenderDesignation)
		return nil
	})
	require.NoError(t, err)

	err = db.Transaction(func(tx *gorm.DB) error {
		_, err := repo.ReleaseSlot(tx, stored.ID)
		return err
	})
	require.ErrorIs(t, err, ErrRoomNotOccupied)
}

func TestRoomRepositoryCreateValidation(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRoomRepository(db, testPolicies())

	err := repo.Create(context.Background(), &models.Room{BuildingID: "BK001", Code: "P.105", Capacity: 0})
	require.ErrorIs(t, err, ErrInvalidRoomCapacity)

	require.NoError(t, repo.Create(context.Background(), &models.Room{BuildingID: "BK001", Code: "P.105", Capacity: 2}))
	err = repo.Create(context.Background(), &models.Room{BuildingID: "BK001", Code: "P.105", Capacity: 3})
	require.ErrorIs(t, err, ErrRoomAlreadyExists)
}

func TestRoomRepositoryListAssignable(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRoomRepository(db, testPolicies())
	ctx := context.Background()

	male := models.Room{BuildingID: "BK001", Code: "P.110", Capacity: 2}
	female := models.Room{BuildingID: "BK003", Code: "P.310", Capacity: 2}
	maintenance := models.Room{BuildingID: "BK001", Code: "P.111", Capacity: 2, Maintenance: true}
	full := models.Room{BuildingID: "BK001", Code: "P.112", Capacity: 1}
	require.NoError(t, repo.Create(ctx, &male))
	require.NoError(t, repo.Create(ctx, &female))
	require.NoError(t, repo.Create(ctx, &maintenance))
	require.NoError(t, repo.Create(ctx, &full))

	err := db.Transaction(func(tx *gorm.DB) error {
		_, err := repo.ReserveSlot(tx, "BK001", "P.112", models.GenderMale)
		return err
	})
	require.NoError(t, err)

	rooms, err := repo.ListAssignable(ctx, models.GenderMale, nil)
	require.NoError(t, err)
	require.Len(t, rooms, 1)
	require.Equal(t, "P.110", rooms[0].Code)

	rooms, err = repo.ListAssignable(ctx, models.GenderMale, &male.ID)
	require.NoError(t, err)
	require.Empty(t, rooms, "current room is excluded from candidates")

	rooms, err = repo.ListAssignable(ctx, models.GenderFemale, nil)
	require.NoError(t, err)
	require.Len(t, rooms, 1)
	require.Equal(t, "BK003", rooms[0].BuildingID)
}
