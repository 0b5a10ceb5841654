package handler

import (
	"github.com/gofiber/fiber/v2"

	"bloodlink/internal/domain"
	"bloodlink/internal/middleware"
	"bloodlink/internal/service/actor"
)

type ActorHandler struct {
	actorService actor.Service
}

func NewActorHandler(actorService actor.Service) *ActorHandler {
	return &ActorHandler{actorService: actorService}
}

func (h *ActorHandler) GetMe(c *fiber.Ctx) error {
	actorID, err := middleware.GetActorID(c)
	if err != nil {
		return err
	}

	a, err := h.actorService.Get(c.UserContext(), actorID)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusOK).JSON(a)
}

func (h *ActorHandler) UpdateProfile(c *fiber.Ctx) error {
	actorID, err := middleware.GetActorID(c)
	if err != nil {
		return err
	}

	var input domain.UpdateProfileInput
	if err := c.BodyParser(&input); err != nil {
		return middleware.BadRequest("Invalid request body")
	}

	a, err := h.actorService.UpdateProfile(c.UserContext(), actorID, input)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusOK).JSON(a)
}

func (h *ActorHandler) UpdateLocation(c *fiber.Ctx) error {
	actorID, err := middleware.GetActorID(c)
	if err != nil {
		return err
	}

	var input domain.UpdateLocationInput
	if err := c.BodyParser(&input); err != nil {
		return middleware.BadRequest("Invalid request body")
	}

	a, err := h.actorService.UpdateLocation(c.UserContext(), actorID, input)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusOK).JSON(a)
}
