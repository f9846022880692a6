package controller

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"diligence-ai-be/internal/dto"
	"diligence-ai-be/internal/pkg/serverutils"
	"diligence-ai-be/internal/service"
	"diligence-ai-be/pkg/agent/stream"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/valyala/fasthttp"
)

type IAgentController interface {
	RegisterRoutes(r fiber.Router)
	CreateConversation(ctx *fiber.Ctx) error
	ListConversations(ctx *fiber.Ctx) error
	GetHistory(ctx *fiber.Ctx) error
	DeleteConversation(ctx *fiber.Ctx) error
	StreamTurn(ctx *fiber.Ctx) error
	Summarize(ctx *fiber.Ctx) error
	CacheStats(ctx *fiber.Ctx) error
}

type agentController struct {
	agentService service.IAgentService
}

func NewAgentController(agentService service.IAgentService) IAgentController {
	return &agentController{
		agentService: agentService,
	}
}

func (c *agentController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/agent/v1")
	h.Use(serverutils.JwtMiddleware)
	h.Post("conversations", c.CreateConversation)
	h.Get("conversations", c.ListConversations)
	h.Get("conversations/:id/history", c.GetHistory)
	h.Get("conversations/:id/summary", c.Summarize)
	h.Delete("conversations/:id", c.DeleteConversation)
	h.Post("conversations/:id/stream", c.StreamTurn)
	h.Get("cache/stats", c.CacheStats)
}

func (c *agentController) userId(ctx *fiber.Ctx) (uuid.UUID, error) {
	userIdStr, ok := ctx.Locals("user_id").(string)
	if !ok {
		return uuid.Nil, fiber.NewError(fiber.StatusUnauthorized, "Missing user identity")
	}
	userId, err := uuid.Parse(userIdStr)
	if err != nil {
		return uuid.Nil, fiber.NewError(fiber.StatusUnauthorized, "Invalid user identity")
	}
	return userId, nil
}

func (c *agentController) CreateConversation(ctx *fiber.Ctx) error {
	userId, err := c.userId(ctx)
	if err != nil {
		return err
	}

	var req dto.CreateConversationRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.agentService.CreateConversation(ctx.Context(), userId, &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success create conversation", res))
}

func (c *agentController) ListConversations(ctx *fiber.Ctx) error {
	userId, err := c.userId(ctx)
	if err != nil {
		return err
	}

	res, err := c.agentService.ListConversations(ctx.Context(), userId, ctx.Query("scope_id"))
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success list conversations", res))
}

func (c *agentController) GetHistory(ctx *fiber.Ctx) error {
	userId, err := c.userId(ctx)
	if err != nil {
		return err
	}
	conversationId, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid conversation id")
	}

	res, err := c.agentService.GetHistory(ctx.Context(), userId, conversationId)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success get history", res))
}

func (c *agentController) DeleteConversation(ctx *fiber.Ctx) error {
	userId, err := c.userId(ctx)
	if err != nil {
		return err
	}
	conversationId, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid conversation id")
	}

	if err := c.agentService.DeleteConversation(ctx.Context(), userId, conversationId); err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success delete conversation", nil))
}

// sseWriter frames stream events for one turn. Once the client goes away
// it swallows further events; the turn itself keeps running so its tool
// calls finish and the checkpoint stays consistent.
type sseWriter struct {
	w    *bufio.Writer
	gone bool
}

func (s *sseWriter) forward(ev stream.Event) {
	if s.gone {
		return
	}
	data, err := json.Marshal(ev)
	if err != nil {
		return
	}
	fmt.Fprintf(s.w, "data: %s\n\n", data)
	if err := s.w.Flush(); err != nil {
		s.gone = true
	}
}

// StreamTurn runs one turn and streams its events as SSE frames. The body
// stream writer outlives the handler, so everything it needs is copied out
// of the request first.
func (c *agentController) StreamTurn(ctx *fiber.Ctx) error {
	userId, err := c.userId(ctx)
	if err != nil {
		return err
	}
	conversationId, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid conversation id")
	}

	var req dto.StreamTurnRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}
	message := strings.Clone(req.Message)

	ctx.Set("Content-Type", "text/event-stream")
	ctx.Set("Cache-Control", "no-cache")
	ctx.Set("Connection", "keep-alive")
	ctx.Set("X-Accel-Buffering", "no")

	ctx.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
		sse := &sseWriter{w: w}
		_ = c.agentService.StreamTurn(context.Background(), userId, conversationId, message, sse.forward)
	}))

	return nil
}

func (c *agentController) Summarize(ctx *fiber.Ctx) error {
	userId, err := c.userId(ctx)
	if err != nil {
		return err
	}
	conversationId, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid conversation id")
	}

	summary, err := c.agentService.SummarizeConversation(ctx.Context(), userId, conversationId)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success summarize conversation", fiber.Map{
		"summary": summary,
	}))
}

func (c *agentController) CacheStats(ctx *fiber.Ctx) error {
	if _, err := c.userId(ctx); err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success get cache stats", c.agentService.CacheStats()))
}
