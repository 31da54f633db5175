package orchestator

import (
	"github.com/Abraxas-365/chatkeep/pkg/errx"
	"github.com/Abraxas-365/chatkeep/pkg/logx"
	"github.com/gofiber/fiber/v2"
)

// RegisterRoutes mounts the HTTP API on app. A non-nil auth handler guards
// every /api/v1 route.
func RegisterRoutes(app *fiber.App, orch *Orchestrator, auth fiber.Handler) {
	app.Get("/health", func(c *fiber.Ctx) error {
		health := fiber.Map{
			"status": "healthy",
			"stats":  orch.Stats(c.UserContext()),
		}

		if err := orch.Health(c.UserContext()); err != nil {
			health["status"] = "degraded"
			health["error"] = err.Error()
			return c.Status(fiber.StatusServiceUnavailable).JSON(health)
		}

		return c.JSON(health)
	})

	api := app.Group("/api/v1")
	if auth != nil {
		api.Use(auth)
	}

	api.Post("/chat", func(c *fiber.Ctx) error {
		var req ChatRequest
		if err := c.BodyParser(&req); err != nil {
			return NewInvalidRequestError("Invalid request body")
		}

		response, err := orch.HandleChat(c.UserContext(), req)
		if err != nil {
			return err
		}
		return c.JSON(response)
	})

	sessionAPI := api.Group("/sessions")

	sessionAPI.Get("/", func(c *fiber.Ctx) error {
		limit := c.QueryInt("limit", 20)
		offset := c.QueryInt("offset", 0)

		sessions, err := orch.ListSessions(c.UserContext(), limit, offset)
		if err != nil {
			return err
		}
		return c.JSON(sessions)
	})

	sessionAPI.Get("/:session_id/messages", func(c *fiber.Ctx) error {
		messages, err := orch.GetSessionWithMessages(c.UserContext(), c.Params("session_id"))
		if err != nil {
			return err
		}
		return c.JSON(messages)
	})
}

// ErrorHandler renders errx errors with their HTTP status. Details are
// included when showDetails is set.
func ErrorHandler(showDetails bool) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		logx.WithFields(logx.Fields{
			"path":       c.Path(),
			"method":     c.Method(),
			"request_id": c.Get("X-Request-ID"),
		}).Errorf("Request error: %v", err)

		if e, ok := errx.As(err); ok {
			body := fiber.Map{
				"error":  e.Message,
				"code":   e.Code,
				"status": e.HTTPStatus,
			}
			if showDetails && len(e.Details) > 0 {
				body["details"] = e.Details
			}
			return c.Status(e.HTTPStatus).JSON(body)
		}

		if e, ok := err.(*fiber.Error); ok {
			return c.Status(e.Code).JSON(fiber.Map{
				"error": e.Message,
			})
		}

		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Internal Server Error",
		})
	}
}
