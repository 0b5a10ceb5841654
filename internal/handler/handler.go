package handler

import (
	"github.com/gofiber/fiber/v2"

	"bloodlink/internal/domain"
	"bloodlink/internal/middleware"
	"bloodlink/internal/service"
	"bloodlink/internal/service/auth"
)

type Handlers struct {
	BloodRequest *BloodRequestHandler
	Campaign     *CampaignHandler
	Actor        *ActorHandler
	Notification *NotificationHandler
	Audit        *AuditHandler
	Dashboard    *DashboardHandler
}

func NewHandlers(services *service.Services) *Handlers {
	return &Handlers{
		BloodRequest: NewBloodRequestHandler(services.Lifecycle, services.Acceptance, services.BloodRequest),
		Campaign:     NewCampaignHandler(services.Campaign),
		Actor:        NewActorHandler(services.Actor),
		Notification: NewNotificationHandler(services.Notification),
		Audit:        NewAuditHandler(services.Audit),
		Dashboard:    NewDashboardHandler(services.Dashboard),
	}
}

func SetupRoutes(app *fiber.App, h *Handlers, authService auth.Service) {
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	v1 := app.Group("/api/v1")
	protected := v1.Group("", middleware.AuthRequired(authService))

	actors := protected.Group("/actors")
	actors.Get("/me", h.Actor.GetMe)
	actors.Put("/me", h.Actor.UpdateProfile)
	actors.Put("/me/location", h.Actor.UpdateLocation)

	requests := protected.Group("/blood-requests")
	requests.Post("/", middleware.RequireResponder(), h.BloodRequest.Create)
	requests.Get("/alerts", middleware.RequireResponder(), h.BloodRequest.Alerts)
	requests.Get("/my-requests", h.BloodRequest.MyRequests)
	requests.Get("/my-accepted", h.BloodRequest.MyAccepted)
	requests.Get("/:id", h.BloodRequest.Get)
	requests.Get("/:id/history", h.BloodRequest.History)
	requests.Put("/:id/accept", middleware.RequireResponder(), h.BloodRequest.Accept)
	requests.Put("/:id/confirm-fulfilled", h.BloodRequest.ConfirmFulfilled)
	requests.Put("/:id/report-unresponsive", h.BloodRequest.ReportUnresponsive)
	requests.Put("/:id/cancel", h.BloodRequest.Cancel)

	campaigns := protected.Group("/ngo/campaigns", middleware.RequireRole(domain.RoleNGO))
	campaigns.Post("/", h.Campaign.Create)
	campaigns.Get("/", h.Campaign.List)
	campaigns.Get("/expired", h.Campaign.Expired)
	campaigns.Put("/:id", h.Campaign.Update)
	campaigns.Put("/:id/end", h.Campaign.End)
	campaigns.Put("/:id/extend", h.Campaign.Extend)

	notifications := protected.Group("/notifications")
	notifications.Get("/", h.Notification.List)
	notifications.Get("/unread-count", h.Notification.GetUnreadCount)
	notifications.Patch("/:id/read", h.Notification.MarkAsRead)
	notifications.Post("/mark-all-read", h.Notification.MarkAllAsRead)

	admin := protected.Group("/admin", middleware.RequireRole(domain.RoleAdmin))
	admin.Get("/stats", h.Dashboard.GetStats)
	admin.Get("/activity", h.Audit.GetRecentActivities)
}
