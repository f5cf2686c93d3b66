package controller

import (
	"context"

	"ai-diagnostics-be/internal/dto"
	"ai-diagnostics-be/internal/pkg/logger"
	"ai-diagnostics-be/internal/pkg/serverutils"
	"ai-diagnostics-be/pkg/agent/orchestrator"
	"ai-diagnostics-be/pkg/agent/stream"
	"ai-diagnostics-be/pkg/llm"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

type IChatController interface {
	RegisterRoutes(r fiber.Router)
	Diagnose(ctx *fiber.Ctx) error
}

type chatController struct {
	orchestrator *orchestrator.Orchestrator
	logger       logger.ILogger
}

func NewChatController(o *orchestrator.Orchestrator, log logger.ILogger) IChatController {
	return &chatController{
		orchestrator: o,
		logger:       log,
	}
}

func (c *chatController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/chat/v1")
	h.Post("diagnose", c.Diagnose)

	h.Use("stream", func(ctx *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(ctx) {
			return ctx.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	h.Get("stream", websocket.New(c.diagnoseStream))
}

func (c *chatController) Diagnose(ctx *fiber.Ctx) error {
	var req dto.DiagnoseRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	response := c.orchestrator.Handle(ctx.Context(), orchestrator.Request{
		RequestID: req.RequestId,
		History:   toHistory(req.History),
		Text:      req.Message,
	})

	return ctx.JSON(serverutils.SuccessResponse("Diagnostic turn complete", response))
}

// diagnoseStream reads one request from the socket and streams pipeline
// events back as JSON frames, ending with a complete or error event.
func (c *chatController) diagnoseStream(conn *websocket.Conn) {
	defer conn.Close()

	var req dto.DiagnoseRequest
	if err := conn.ReadJSON(&req); err != nil {
		c.logger.Warn("controller", "Stream request parse failed", map[string]interface{}{
			"error": err.Error(),
		})
		return
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		_ = conn.WriteJSON(stream.ErrorEvent(err.Error()))
		return
	}

	sink := stream.SinkFunc(func(event stream.Event) error {
		return conn.WriteJSON(event)
	})

	c.orchestrator.HandleStream(context.Background(), orchestrator.Request{
		RequestID: req.RequestId,
		History:   toHistory(req.History),
		Text:      req.Message,
	}, sink)
}

func toHistory(turns []dto.ChatTurnDTO) []llm.Message {
	history := make([]llm.Message, 0, len(turns))
	for _, t := range turns {
		history = append(history, llm.Message{Role: t.Role, Content: t.Content})
	}
	return history
}
