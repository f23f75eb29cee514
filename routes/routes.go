package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"analytics-gateway/controllers"
	"analytics-gateway/middlewares"
)

// Handlers bundles what Register needs to mount the API.
type Handlers struct {
	Auth      *controllers.AuthController
	Questions *controllers.QuestionController
	Metrics   prometheus.Gatherer
	// APISecret turns on bearer auth for the question endpoints when non-empty.
	APISecret []byte
}

// Register wires all HTTP routes.
func Register(app *fiber.App, h Handlers) {
	app.Get("/up", controllers.Health)
	if h.Metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(h.Metrics, promhttp.HandlerOpts{})))
	}

	api := app.Group("/api/v1")

	// Platform-facing install handshake (public, signed by the platform)
	auth := api.Group("/auth")
	auth.Get("/install", h.Auth.Install)
	auth.Get("/callback", h.Auth.Callback)

	// Question path, optionally behind API tokens
	questions := api.Group("/questions")
	if len(h.APISecret) > 0 {
		questions.Use(middlewares.RequireAPIToken(h.APISecret))
	}
	questions.Post("", h.Questions.Create)
	// the audit trail is only exposed when callers are authenticated
	if len(h.APISecret) > 0 {
		questions.Get("/logs", h.Questions.Logs)
	}
}
