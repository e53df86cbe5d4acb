package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/trouble-ticket/internal/domain"
	"github.com/spec-kit/trouble-ticket/internal/observability"
)

// InfoHandler serves the service description at the root path.
type InfoHandler struct {
	name    string
	version string
}

// NewInfoHandler constructs handler.
func NewInfoHandler(name, version string) *InfoHandler {
	return &InfoHandler{name: name, version: version}
}

// Root GET /.
func (h *InfoHandler) Root(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"message": h.name,
		"version": h.version,
		"endpoints": fiber.Map{
			"List tickets":  "GET " + domain.ResourcePath,
			"Create ticket": "POST " + domain.ResourcePath,
			"Get ticket":    "GET " + domain.ResourcePath + "/{id}",
			"Update ticket": "PATCH " + domain.ResourcePath + "/{id}",
			"Delete ticket": "DELETE " + domain.ResourcePath + "/{id}",
		},
	})
}

// MetricsHandler exposes the in-memory counters.
type MetricsHandler struct {
	metrics *observability.Metrics
}

// NewMetricsHandler constructs handler.
func NewMetricsHandler(metrics *observability.Metrics) *MetricsHandler {
	return &MetricsHandler{metrics: metrics}
}

// Snapshot GET /metrics.
func (h *MetricsHandler) Snapshot(c *fiber.Ctx) error {
	return c.JSON(h.metrics.Snapshot())
}
