package handler

import (
	"github.com/gofiber/fiber/v2"

	"bloodlink/internal/domain"
	"bloodlink/internal/middleware"
	"bloodlink/internal/service/campaign"
)

type CampaignHandler struct {
	campaignService campaign.Service
}

func NewCampaignHandler(campaignService campaign.Service) *CampaignHandler {
	return &CampaignHandler{campaignService: campaignService}
}

func (h *CampaignHandler) Create(c *fiber.Ctx) error {
	actorID, err := middleware.GetActorID(c)
	if err != nil {
		return err
	}

	var input domain.CreateCampaignInput
	if err := decodeStrict(c, &input); err != nil {
		return err
	}

	view, err := h.campaignService.Create(c.UserContext(), actorID, input)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(view)
}

func (h *CampaignHandler) List(c *fiber.Ctx) error {
	actorID, err := middleware.GetActorID(c)
	if err != nil {
		return err
	}

	result, err := h.campaignService.ListByOwner(c.UserContext(), actorID, getPaginationParams(c))
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusOK).JSON(result)
}

func (h *CampaignHandler) Expired(c *fiber.Ctx) error {
	actorID, err := middleware.GetActorID(c)
	if err != nil {
		return err
	}

	views, err := h.campaignService.ListExpired(c.UserContext(), &actorID)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusOK).JSON(views)
}

func (h *CampaignHandler) Update(c *fiber.Ctx) error {
	actorID, err := middleware.GetActorID(c)
	if err != nil {
		return err
	}
	campaignID, err := paramID(c, "id", "campaign")
	if err != nil {
		return err
	}

	var input domain.UpdateCampaignInput
	if err := decodeStrict(c, &input); err != nil {
		return err
	}

	view, err := h.campaignService.Update(c.UserContext(), campaignID, actorID, input)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusOK).JSON(view)
}

func (h *CampaignHandler) End(c *fiber.Ctx) error {
	actorID, err := middleware.GetActorID(c)
	if err != nil {
		return err
	}
	campaignID, err := paramID(c, "id", "campaign")
	if err != nil {
		return err
	}

	var input domain.EndCampaignInput
	if err := decodeStrict(c, &input); err != nil {
		return err
	}

	view, err := h.campaignService.End(c.UserContext(), campaignID, actorID, input)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusOK).JSON(view)
}

func (h *CampaignHandler) Extend(c *fiber.Ctx) error {
	actorID, err := middleware.GetActorID(c)
	if err != nil {
		return err
	}
	campaignID, err := paramID(c, "id", "campaign")
	if err != nil {
		return err
	}

	var input domain.ExtendCampaignInput
	if err := decodeStrict(c, &input); err != nil {
		return err
	}

	view, err := h.campaignService.Extend(c.UserContext(), campaignID, actorID, input)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusOK).JSON(view)
}
