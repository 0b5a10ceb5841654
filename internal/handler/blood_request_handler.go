package handler

import (
	"github.com/gofiber/fiber/v2"

	"bloodlink/internal/domain"
	"bloodlink/internal/middleware"
	"bloodlink/internal/service/acceptance"
	"bloodlink/internal/service/bloodrequest"
	"bloodlink/internal/service/lifecycle"
)

type BloodRequestHandler struct {
	lifecycleService  lifecycle.Service
	acceptanceService acceptance.Service
	requestService    bloodrequest.Service
}

func NewBloodRequestHandler(
	lifecycleService lifecycle.Service,
	acceptanceService acceptance.Service,
	requestService bloodrequest.Service,
) *BloodRequestHandler {
	return &BloodRequestHandler{
		lifecycleService:  lifecycleService,
		acceptanceService: acceptanceService,
		requestService:    requestService,
	}
}

func (h *BloodRequestHandler) Create(c *fiber.Ctx) error {
	actorID, err := middleware.GetActorID(c)
	if err != nil {
		return err
	}

	var input domain.CreateBloodRequestInput
	if err := decodeStrict(c, &input); err != nil {
		return err
	}

	result, err := h.lifecycleService.Create(c.UserContext(), actorID, input)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(result)
}

func (h *BloodRequestHandler) Alerts(c *fiber.Ctx) error {
	actorID, err := middleware.GetActorID(c)
	if err != nil {
		return err
	}

	alerts, err := h.requestService.NearbyAlerts(c.UserContext(), actorID)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusOK).JSON(alerts)
}

func (h *BloodRequestHandler) Accept(c *fiber.Ctx) error {
	actorID, err := middleware.GetActorID(c)
	if err != nil {
		return err
	}
	requestID, err := paramID(c, "id", "blood request")
	if err != nil {
		return err
	}

	req, _, err := h.acceptanceService.Accept(c.UserContext(), requestID, actorID)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusOK).JSON(req)
}

func (h *BloodRequestHandler) ConfirmFulfilled(c *fiber.Ctx) error {
	actorID, err := middleware.GetActorID(c)
	if err != nil {
		return err
	}
	requestID, err := paramID(c, "id", "blood request")
	if err != nil {
		return err
	}

	req, err := h.lifecycleService.ConfirmFulfilled(c.UserContext(), requestID, actorID)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusOK).JSON(req)
}

func (h *BloodRequestHandler) ReportUnresponsive(c *fiber.Ctx) error {
	actorID, err := middleware.GetActorID(c)
	if err != nil {
		return err
	}
	requestID, err := paramID(c, "id", "blood request")
	if err != nil {
		return err
	}

	result, err := h.lifecycleService.ReportUnresponsive(c.UserContext(), requestID, actorID)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusOK).JSON(result)
}

func (h *BloodRequestHandler) Cancel(c *fiber.Ctx) error {
	actorID, err := middleware.GetActorID(c)
	if err != nil {
		return err
	}
	requestID, err := paramID(c, "id", "blood request")
	if err != nil {
		return err
	}

	var input domain.CancelBloodRequestInput
	if err := decodeStrict(c, &input); err != nil {
		return err
	}

	req, err := h.lifecycleService.Cancel(c.UserContext(), requestID, actorID, input)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusOK).JSON(req)
}

func (h *BloodRequestHandler) MyRequests(c *fiber.Ctx) error {
	actorID, err := middleware.GetActorID(c)
	if err != nil {
		return err
	}

	result, err := h.requestService.MyRequests(c.UserContext(), actorID, getPaginationParams(c))
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusOK).JSON(result)
}

func (h *BloodRequestHandler) MyAccepted(c *fiber.Ctx) error {
	actorID, err := middleware.GetActorID(c)
	if err != nil {
		return err
	}

	result, err := h.requestService.MyAccepted(c.UserContext(), actorID, getPaginationParams(c))
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusOK).JSON(result)
}

func (h *BloodRequestHandler) Get(c *fiber.Ctx) error {
	actorID, err := middleware.GetActorID(c)
	if err != nil {
		return err
	}
	requestID, err := paramID(c, "id", "blood request")
	if err != nil {
		return err
	}

	view, err := h.requestService.Get(c.UserContext(), requestID, actorID)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusOK).JSON(view)
}

func (h *BloodRequestHandler) History(c *fiber.Ctx) error {
	actorID, err := middleware.GetActorID(c)
	if err != nil {
		return err
	}
	requestID, err := paramID(c, "id", "blood request")
	if err != nil {
		return err
	}

	events, err := h.requestService.History(c.UserContext(), requestID, actorID)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusOK).JSON(events)
}
