package middleware

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	RequestIDHeader     = "X-Request-ID"
	RequestIDContextKey = "request_id"
)

// RequestLogger tags every request with an id and writes one zap line per request.
// Paths in skip are not logged.
func RequestLogger(logger *zap.Logger, skip ...string) fiber.Handler {
	skipped := make(map[string]struct{}, len(skip))
	for _, p := range skip {
		skipped[p] = struct{}{}
	}

	return func(c *fiber.Ctx) error {
		requestID := c.Get(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.New().String()
		}
		c.Locals(RequestIDContextKey, requestID)
		c.Set(RequestIDHeader, requestID)

		start := time.Now()
		err := c.Next()

		if _, ok := skipped[c.Path()]; ok {
			return err
		}

		status := c.Response().StatusCode()
		if err != nil {
			// The error handler has not run yet; report the status it will choose.
			status, _, _ = classify(err)
		}

		fields := []zap.Field{
			zap.String("request_id", requestID),
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Int("status", status),
			zap.Duration("latency", time.Since(start)),
			zap.String("ip", c.IP()),
		}
		if actorID := GetCurrentActorID(c); actorID != uuid.Nil {
			fields = append(fields, zap.String("actor_id", actorID.String()))
		}

		switch {
		case status >= fiber.StatusInternalServerError:
			logger.Error("request", fields...)
		case status >= fiber.StatusBadRequest:
			logger.Warn("request", fields...)
		default:
			logger.Info("request", fields...)
		}
		return err
	}
}

func GetRequestID(c *fiber.Ctx) string {
	id, _ := c.Locals(RequestIDContextKey).(string)
	return id
}
