package handler_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/asramahub/asrama-go-api/internal/dto"
	"github.com/asramahub/asrama-go-api/internal/handler"
	"github.com/asramahub/asrama-go-api/internal/repository"
	"github.com/asramahub/asrama-go-api/internal/service"
)

type mockDisciplineService struct {
	lastRecord    dto.DisciplinaryActionCreateRequest
	lastUpdateID  uint
	lastStudentID uint
	lastExclude   uint
	recordResp    dto.DisciplinaryActionResult
	updateResp    dto.DisciplinaryActionResult
	scoreResp     dto.ConductScoreResponse
	projectResp   dto.ConductScoreResponse
	listResp      []dto.DisciplinaryActionResponse
	recordErr     error
	updateErr     error
	scoreErr      error
	projectErr    error
	listErr       error
	projectCalled bool
}

func (m *mockDisciplineService) RecordAction(_ context.Context, req dto.DisciplinaryActionCreateRequest, _ service.ActivityActor) (dto.DisciplinaryActionResult, error) {
	m.lastRecord = req
	return m.recordResp, m.recordErr
}

func (m *mockDisciplineService) UpdateAction(_ context.Context, actionID uint, _ dto.DisciplinaryActionUpdateRequest, _ service.ActivityActor) (dto.DisciplinaryActionResult, error) {
	m.lastUpdateID = actionID
	return m.updateResp, m.updateErr
}

func (m *mockDisciplineService) GetConductScore(_ context.Context, studentID uint) (dto.ConductScoreResponse, error) {
	m.lastStudentID = studentID
	return m.scoreResp, m.scoreErr
}

func (m *mockDisciplineService) ProjectScore(_ context.Context, studentID, excludeActionID uint) (dto.ConductScoreResponse, error) {
	m.projectCalled = true
	m.lastStudentID = studentID
	m.lastExclude = excludeActionID
	return m.projectResp, m.projectErr
}

func (m *mockDisciplineService) ListActions(_ context.Context, studentID uint) ([]dto.DisciplinaryActionResponse, error) {
	m.lastStudentID = studentID
	return m.listResp, m.listErr
}

func disciplineApp(svc service.DisciplineService) *fiber.App {
	app := fiber.New()
	h := handler.NewDisciplineHandler(svc, zerolog.New(io.Discard))
	h.Register(app.Group("/api/v1/disciplinary-actions"))
	h.RegisterStudentRoutes(app.Group("/api/v1/students"))
	return app
}

func TestDisciplineHandler_RecordWithEnforcement(t *testing.T) {
	vacated := dto.RoomResponse{ID: 4, BuildingID: "BK001", Code: "P.101"}
	svc := &mockDisciplineService{recordResp: dto.DisciplinaryActionResult{
		Action:       dto.DisciplinaryActionResponse{ID: 9, StudentID: 2, Severity: "expulsion", Status: "active"},
		ConductScore: 69,
		ScoreChanged: true,
		Enforcement:  dto.EnforcementOutcome{Fired: true, Reason: "expulsion-level severity", VacatedRoom: &vacated},
	}}
	app := disciplineApp(svc)

	req := jsonRequest(t, http.MethodPost, "/api/v1/disciplinary-actions", dto.DisciplinaryActionCreateRequest{
		StudentID:    2,
		Severity:     "expulsion",
		Status:       "active",
		DecisionDate: time.Now().Add(-time.Hour),
	})
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	var body struct {
		Success bool                         `json:"success"`
		Data    dto.DisciplinaryActionResult `json:"data"`
		Message string                       `json:"message"`
	}
	decodeResponse(t, resp, &body)
	require.True(t, body.Success)
	require.Equal(t, "disciplinary action recorded", body.Message)
	require.True(t, body.Data.Enforcement.Fired)
	require.NotNil(t, body.Data.Enforcement.VacatedRoom)
	require.Equal(t, uint(2), svc.lastRecord.StudentID)
}

func TestDisciplineHandler_RecordEnforcementFailure(t *testing.T) {
	svc := &mockDisciplineService{recordErr: service.ErrEnforcementFailed}
	app := disciplineApp(svc)

	req := jsonRequest(t, http.MethodPost, "/api/v1/disciplinary-actions", dto.DisciplinaryActionCreateRequest{
		StudentID:    2,
		Severity:     "high",
		DecisionDate: time.Now(),
	})
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusConflict, resp.StatusCode)

	var body struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
	}
	decodeResponse(t, resp, &body)
	require.False(t, body.Success)
	require.Equal(t, "enforcement failed, no changes applied", body.Message)
}

func TestDisciplineHandler_RecordInvalidDates(t *testing.T) {
	svc := &mockDisciplineService{recordErr: service.ErrInvalidDateRange}
	app := disciplineApp(svc)

	req := jsonRequest(t, http.MethodPost, "/api/v1/disciplinary-actions", dto.DisciplinaryActionCreateRequest{
		StudentID:    2,
		Severity:     "low",
		DecisionDate: time.Now().Add(48 * time.Hour),
	})
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestDisciplineHandler_UpdateNotFound(t *testing.T) {
	svc := &mockDisciplineService{updateErr: repository.ErrActionNotFound}
	app := disciplineApp(svc)

	cancelled := "cancelled"
	req := jsonRequest(t, http.MethodPatch, "/api/v1/disciplinary-actions/77", dto.DisciplinaryActionUpdateRequest{Status: &cancelled})
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	require.Equal(t, uint(77), svc.lastUpdateID)
}

func TestDisciplineHandler_ConductScore(t *testing.T) {
	svc := &mockDisciplineService{scoreResp: dto.ConductScoreResponse{StudentID: 5, ConductScore: 88, CacheHit: true}}
	app := disciplineApp(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/students/5/conduct-score", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var body struct {
		Success bool                     `json:"success"`
		Data    dto.ConductScoreResponse `json:"data"`
	}
	decodeResponse(t, resp, &body)
	require.Equal(t, 88, body.Data.ConductScore)
	require.False(t, svc.projectCalled)
}

func TestDisciplineHandler_ConductScoreProjection(t *testing.T) {
	svc := &mockDisciplineService{projectResp: dto.ConductScoreResponse{StudentID: 5, ConductScore: 100}}
	app := disciplineApp(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/students/5/conduct-score?excluding_action=31", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.True(t, svc.projectCalled)
	require.Equal(t, uint(31), svc.lastExclude)
}

func TestDisciplineHandler_ListActionsUnknownStudent(t *testing.T) {
	svc := &mockDisciplineService{listErr: repository.ErrStudentNotFound}
	app := disciplineApp(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/students/99/disciplinary-actions", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestDisciplineHandler_InternalError(t *testing.T) {
	svc := &mockDisciplineService{scoreErr: errors.New("boom")}
	app := disciplineApp(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/students/5/conduct-score", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)
}
