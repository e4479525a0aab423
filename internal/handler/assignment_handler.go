package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/asramahub/asrama-go-api/internal/dto"
	"github.com/asramahub/asrama-go-api/internal/repository"
	"github.com/asramahub/asrama-go-api/internal/service"
	"github.com/asramahub/asrama-go-api/internal/utils"
)

// AssignmentHandler wires room occupancy HTTP routes.
type AssignmentHandler struct {
	service service.AssignmentService
	logger  zerolog.Logger
}

// NewAssignmentHandler constructs the handler.
func NewAssignmentHandler(service service.AssignmentService, logger zerolog.Logger) *AssignmentHandler {
	return &AssignmentHandler{
		service: service,
		logger:  logger.With().Str("component", "assignment_handler").Logger(),
	}
}

// Register attaches assignment endpoints to the router group.
func (h *AssignmentHandler) Register(router fiber.Router) {
	router.Post("", h.assign)
	router.Post("/transfer", h.transfer)
	router.Delete("/:studentId", h.vacate)
}

func (h *AssignmentHandler) assign(c *fiber.Ctx) error {
	payload := dto.AssignRoomRequest{}
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	result, err := h.service.AssignRoom(c.Context(), payload, actorFromContext(c))
	if err != nil {
		return h.occupancyError(c, err)
	}

	return utils.SendCreated(c, "room assigned", result)
}

func (h *AssignmentHandler) transfer(c *fiber.Ctx) error {
	payload := dto.TransferRoomRequest{}
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	result, err := h.service.TransferRoom(c.Context(), payload, actorFromContext(c))
	if err != nil {
		return h.occupancyError(c, err)
	}

	return utils.SendSuccess(c, "room transferred", result)
}

func (h *AssignmentHandler) vacate(c *fiber.Ctx) error {
	studentID, err := parseUintParam(c, "studentId")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	result, err := h.service.VacateRoom(c.Context(), studentID, actorFromContext(c))
	if err != nil {
		return h.occupancyError(c, err)
	}

	return utils.SendSuccess(c, "room vacated", result)
}

// occupancyError maps the engine's business-rule rejections onto HTTP
// statuses: state conflicts are 409, policy and capacity rejections 422,
// unknown entities 404.
func (h *AssignmentHandler) occupancyError(c *fiber.Ctx, err error) error {
	switch {
	case isValidationError(err):
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	case errors.Is(err, repository.ErrStudentNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "student not found")
	case errors.Is(err, repository.ErrRoomNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "room not found")
	case errors.Is(err, service.ErrAlreadyAssigned):
		return utils.SendError(c, fiber.StatusConflict, "student already has a room assignment")
	case errors.Is(err, service.ErrNotAssigned):
		return utils.SendError(c, fiber.StatusConflict, "student has no room assignment")
	case errors.Is(err, service.ErrSameRoomTransfer):
		return utils.SendError(c, fiber.StatusConflict, "transfer target is the current room")
	case errors.Is(err, repository.ErrRoomFull):
		return utils.SendError(c, fiber.StatusUnprocessableEntity, "room is at capacity")
	case errors.Is(err, repository.ErrRoomUnderMaintenance):
		return utils.SendError(c, fiber.StatusUnprocessableEntity, "room is under maintenance")
	case errors.Is(err, repository.ErrGenderMismatch):
		return utils.SendError(c, fiber.StatusUnprocessableEntity, "room gender designation does not match")
	case errors.Is(err, repository.ErrBuildingPolicyViolation):
		return utils.SendError(c, fiber.StatusUnprocessableEntity, "building gender policy forbids assignment")
	case errors.Is(err, repository.ErrRoomNotOccupied):
		return utils.SendError(c, fiber.StatusConflict, "room has no occupants")
	default:
		requestLogger(h.logger, c).Error().Err(err).Msg("occupancy operation failed")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}
}
