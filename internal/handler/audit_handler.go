package handler

import (
	"github.com/gofiber/fiber/v2"

	"bloodlink/internal/service/audit"
)

type AuditHandler struct {
	auditService audit.Service
}

func NewAuditHandler(auditService audit.Service) *AuditHandler {
	return &AuditHandler{auditService: auditService}
}

func (h *AuditHandler) GetRecentActivities(c *fiber.Ctx) error {
	events, err := h.auditService.GetRecentActivities(c.UserContext(), c.QueryInt("limit", 10))
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusOK).JSON(events)
}
