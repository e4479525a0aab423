package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/asramahub/asrama-go-api/internal/repository"
	"github.com/asramahub/asrama-go-api/internal/service"
	"github.com/asramahub/asrama-go-api/internal/utils"
)

// StudentHandler exposes per-student occupancy reads.
type StudentHandler struct {
	assignments service.AssignmentService
	logger      zerolog.Logger
}

// NewStudentHandler constructs the handler.
func NewStudentHandler(assignments service.AssignmentService, logger zerolog.Logger) *StudentHandler {
	return &StudentHandler{
		assignments: assignments,
		logger:      logger.With().Str("component", "student_handler").Logger(),
	}
}

// Register attaches student endpoints to the router group.
func (h *StudentHandler) Register(router fiber.Router) {
	router.Get("/:id/eligible-rooms", h.eligibleRooms)
}

func (h *StudentHandler) eligibleRooms(c *fiber.Ctx) error {
	studentID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	rooms, err := h.assignments.ListEligibleRooms(c.Context(), studentID)
	if err != nil {
		if errors.Is(err, repository.ErrStudentNotFound) {
			return utils.SendError(c, fiber.StatusNotFound, "student not found")
		}
		requestLogger(h.logger, c).Error().Err(err).Msg("eligible room query failed")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}

	return utils.SendSuccess(c, "eligible rooms retrieved", rooms)
}
