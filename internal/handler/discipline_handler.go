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

// DisciplineHandler wires disciplinary ledger HTTP routes.
type DisciplineHandler struct {
	service service.DisciplineService
	logger  zerolog.Logger
}

// NewDisciplineHandler constructs the handler.
func NewDisciplineHandler(service service.DisciplineService, logger zerolog.Logger) *DisciplineHandler {
	return &DisciplineHandler{
		service: service,
		logger:  logger.With().Str("component", "discipline_handler").Logger(),
	}
}

// Register attaches disciplinary action endpoints to the router group.
func (h *DisciplineHandler) Register(router fiber.Router) {
	router.Post("", h.record)
	router.Patch("/:id", h.update)
}

// RegisterStudentRoutes attaches the per-student read endpoints.
func (h *DisciplineHandler) RegisterStudentRoutes(router fiber.Router) {
	router.Get("/:id/conduct-score", h.conductScore)
	router.Get("/:id/disciplinary-actions", h.listActions)
}

func (h *DisciplineHandler) record(c *fiber.Ctx) error {
	payload := dto.DisciplinaryActionCreateRequest{}
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	result, err := h.service.RecordAction(c.Context(), payload, actorFromContext(c))
	if err != nil {
		return h.ledgerError(c, err)
	}

	return utils.SendCreated(c, "disciplinary action recorded", result)
}

func (h *DisciplineHandler) update(c *fiber.Ctx) error {
	actionID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	payload := dto.DisciplinaryActionUpdateRequest{}
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	result, err := h.service.UpdateAction(c.Context(), actionID, payload, actorFromContext(c))
	if err != nil {
		return h.ledgerError(c, err)
	}

	return utils.SendSuccess(c, "disciplinary action updated", result)
}

func (h *DisciplineHandler) conductScore(c *fiber.Ctx) error {
	studentID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	excludeActionID, err := parseQueryUint(c, "excluding_action")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var score dto.ConductScoreResponse
	if excludeActionID > 0 {
		score, err = h.service.ProjectScore(c.Context(), studentID, excludeActionID)
	} else {
		score, err = h.service.GetConductScore(c.Context(), studentID)
	}
	if err != nil {
		return h.ledgerError(c, err)
	}

	return utils.SendSuccess(c, "conduct score retrieved", score)
}

func (h *DisciplineHandler) listActions(c *fiber.Ctx) error {
	studentID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	actions, err := h.service.ListActions(c.Context(), studentID)
	if err != nil {
		return h.ledgerError(c, err)
	}

	return utils.SendSuccess(c, "disciplinary actions retrieved", actions)
}

func (h *DisciplineHandler) ledgerError(c *fiber.Ctx, err error) error {
	switch {
	case isValidationError(err):
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrInvalidDateRange):
		return utils.SendError(c, fiber.StatusBadRequest, "invalid date range")
	case errors.Is(err, repository.ErrStudentNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "student not found")
	case errors.Is(err, repository.ErrActionNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "disciplinary action not found")
	case errors.Is(err, service.ErrEnforcementFailed):
		// The ledger write rolled back with the cascade; the caller can
		// retry with the same inputs.
		requestLogger(h.logger, c).Error().Err(err).Msg("enforcement cascade failed")
		return utils.SendError(c, fiber.StatusConflict, "enforcement failed, no changes applied")
	default:
		requestLogger(h.logger, c).Error().Err(err).Msg("disciplinary operation failed")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}
}
