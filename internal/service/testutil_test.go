package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/asramahub/asrama-go-api/internal/config"
	"github.com/asramahub/asrama-go-api/internal/models"
	"github.com/asramahub/asrama-go-api/internal/repository"
)

type testEnv struct {
	db       *gorm.DB
	tx       repository.TxRunner
	rooms    repository.RoomRepository
	students repository.StudentRepository
	actions  repository.DisciplinaryRepository
	validate *validator.Validate
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Room{}, &models.Student{}, &models.DisciplinaryAction{}, &models.ActivityLog{}))

	policies := models.BuildingPolicy{
		"BK001": models.GenderMale,
		"BK002": models.GenderMale,
		"BK003": models.GenderFemale,
		"BK004": models.GenderFemale,
	}

	return &testEnv{
		db:       db,
		tx:       repository.NewTxRunner(db),
		rooms:    repository.NewRoomRepository(db, policies),
		students: repository.NewStudentRepository(db),
		actions:  repository.NewDisciplinaryRepository(db),
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

func testPoints() config.SeverityPoints {
	return config.SeverityPoints{
		models.SeverityLow:       2,
		models.SeverityMedium:    5,
		models.SeverityHigh:      10,
		models.SeverityExpulsion: 31,
	}
}

func (e *testEnv) createRoom(t *testing.T, buildingID, code string, capacity int) models.Room {
	t.Helper()
	room := models.Room{BuildingID: buildingID, Code: code, Capacity: capacity}
	require.NoError(t, e.rooms.Create(context.Background(), &room))
	return room
}

func (e *testEnv) createStudent(t *testing.T, name string, gender models.Gender) models.Student {
	t.Helper()
	student := models.Student{
		Name:        name,
		Email:       fmt.Sprintf("%s.%s@example.com", name, t.Name()),
		Gender:      gender,
		StudyStatus: models.StudyStatusActive,
	}
	require.NoError(t, e.students.Create(context.Background(), &student))
	return student
}

func (e *testEnv) assignmentService() AssignmentService {
	return NewAssignmentService(e.tx, e.rooms, e.students, nil, e.validate, zerolog.Nop())
}

func (e *testEnv) enforcementService() EnforcementService {
	return NewEnforcementService(e.rooms, e.students, 70, zerolog.Nop())
}

func (e *testEnv) disciplineService(enforcement EnforcementService) DisciplineService {
	if enforcement == nil {
		enforcement = e.enforcementService()
	}
	return NewDisciplineService(e.tx, e.students, e.actions, enforcement, nil, nil, nil, 0, testPoints(), 100, e.validate, zerolog.Nop())
}
