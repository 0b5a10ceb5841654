package middleware

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"bloodlink/internal/domain"
	"bloodlink/internal/service/auth"
)

const (
	ActorContextKey   = "actor"
	ActorIDContextKey = "actor_id"
)

// AuthRequired verifies the bearer token and loads the calling actor.
func AuthRequired(authService auth.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get(fiber.HeaderAuthorization)
		if authHeader == "" {
			return Unauthorized("Missing authorization header")
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			return Unauthorized("Invalid authorization header format")
		}

		actor, err := authService.Authenticate(c.UserContext(), parts[1])
		if errors.Is(err, auth.ErrInvalidToken) {
			return Unauthorized("Invalid or expired token")
		}
		if err != nil {
			return err
		}

		c.Locals(ActorContextKey, actor)
		c.Locals(ActorIDContextKey, actor.ID)

		return c.Next()
	}
}

func GetCurrentActor(c *fiber.Ctx) *domain.Actor {
	actor, ok := c.Locals(ActorContextKey).(*domain.Actor)
	if !ok {
		return nil
	}
	return actor
}

func GetCurrentActorID(c *fiber.Ctx) uuid.UUID {
	actorID, ok := c.Locals(ActorIDContextKey).(uuid.UUID)
	if !ok {
		return uuid.Nil
	}
	return actorID
}

// GetActorID is GetCurrentActorID for handlers that must fail without an actor.
func GetActorID(c *fiber.Ctx) (uuid.UUID, error) {
	actorID := GetCurrentActorID(c)
	if actorID == uuid.Nil {
		return uuid.Nil, Unauthorized("Actor not authenticated")
	}
	return actorID, nil
}
