package controller

import (
	"ai-diagnostics-be/internal/dto"
	"ai-diagnostics-be/internal/pkg/serverutils"
	"ai-diagnostics-be/pkg/agent/telemetry"

	"github.com/gofiber/fiber/v2"
)

type ITelemetryController interface {
	RegisterRoutes(r fiber.Router)
	Recent(ctx *fiber.Ctx) error
	Aggregate(ctx *fiber.Ctx) error
}

type telemetryController struct {
	sink telemetry.Sink
}

func NewTelemetryController(sink telemetry.Sink) ITelemetryController {
	return &telemetryController{sink: sink}
}

func (c *telemetryController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/telemetry/v1")
	h.Get("recent", c.Recent)
	h.Get("aggregate", c.Aggregate)
}

func (c *telemetryController) Recent(ctx *fiber.Ctx) error {
	var req dto.RecentTelemetryRequest
	if err := ctx.QueryParser(&req); err != nil {
		return err
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}
	if req.Limit == 0 {
		req.Limit = 50
	}

	batch, err := c.sink.Recent(ctx.Context(), req.Limit)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Recent request metrics", batch))
}

func (c *telemetryController) Aggregate(ctx *fiber.Ctx) error {
	var req dto.RecentTelemetryRequest
	if err := ctx.QueryParser(&req); err != nil {
		return err
	}
	if req.Limit == 0 {
		req.Limit = 200
	}

	batch, err := c.sink.Recent(ctx.Context(), req.Limit)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Aggregated metrics", telemetry.Aggregate(batch)))
}
