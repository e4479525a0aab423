package handler

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/asramahub/asrama-go-api/internal/dto"
	"github.com/asramahub/asrama-go-api/internal/repository"
	"github.com/asramahub/asrama-go-api/internal/service"
	"github.com/asramahub/asrama-go-api/internal/utils"
)

// RoomHandler wires room administration HTTP routes.
type RoomHandler struct {
	service service.RoomService
	logger  zerolog.Logger
}

// NewRoomHandler constructs the handler.
func NewRoomHandler(service service.RoomService, logger zerolog.Logger) *RoomHandler {
	return &RoomHandler{
		service: service,
		logger:  logger.With().Str("component", "room_handler").Logger(),
	}
}

// Register attaches room endpoints to the router group.
func (h *RoomHandler) Register(router fiber.Router) {
	router.Post("", h.create)
	router.Get("/:building", h.listByBuilding)
	router.Get("/:building/:room", h.get)
	router.Patch("/:building/:room/maintenance", h.setMaintenance)
}

func (h *RoomHandler) create(c *fiber.Ctx) error {
	payload := dto.RoomCreateRequest{}
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	room, err := h.service.Create(c.Context(), payload, actorFromContext(c))
	if err != nil {
		switch {
		case isValidationError(err), errors.Is(err, repository.ErrInvalidRoomCapacity):
			return utils.SendError(c, fiber.StatusBadRequest, err.Error())
		case errors.Is(err, repository.ErrRoomAlreadyExists):
			return utils.SendError(c, fiber.StatusConflict, "room already exists")
		default:
			return h.internalError(c, err)
		}
	}

	return utils.SendCreated(c, "room created", room)
}

func (h *RoomHandler) get(c *fiber.Ctx) error {
	building := strings.TrimSpace(c.Params("building"))
	code := strings.TrimSpace(c.Params("room"))

	room, err := h.service.Get(c.Context(), building, code)
	if err != nil {
		if errors.Is(err, repository.ErrRoomNotFound) {
			return utils.SendError(c, fiber.StatusNotFound, "room not found")
		}
		return h.internalError(c, err)
	}

	return utils.SendSuccess(c, "room retrieved", room)
}

func (h *RoomHandler) listByBuilding(c *fiber.Ctx) error {
	building := strings.TrimSpace(c.Params("building"))

	rooms, err := h.service.ListByBuilding(c.Context(), building)
	if err != nil {
		return h.internalError(c, err)
	}

	return utils.SendSuccess(c, "rooms retrieved", rooms)
}

func (h *RoomHandler) setMaintenance(c *fiber.Ctx) error {
	building := strings.TrimSpace(c.Params("building"))
	code := strings.TrimSpace(c.Params("room"))

	payload := dto.RoomMaintenanceRequest{}
	if err := c.BodyParser(&payload); err != nil || payload.Maintenance == nil {
		return utils.SendError(c, fiber.StatusBadRequest, "maintenance flag is required")
	}

	room, err := h.service.SetMaintenance(c.Context(), building, code, *payload.Maintenance, actorFromContext(c))
	if err != nil {
		if errors.Is(err, repository.ErrRoomNotFound) {
			return utils.SendError(c, fiber.StatusNotFound, "room not found")
		}
		return h.internalError(c, err)
	}

	return utils.SendSuccess(c, "room maintenance updated", room)
}

func (h *RoomHandler) internalError(c *fiber.Ctx, err error) error {
	requestLogger(h.logger, c).Error().Err(err).Msg("room operation failed")
	return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
}
