package controller

import (
	"io"
	"mime/multipart"

	"github.com/gofiber/fiber/v2"

	"github.com/ywqqqq/xuedong-ai/internal/apperror"
	"github.com/ywqqqq/xuedong-ai/internal/dto"
	"github.com/ywqqqq/xuedong-ai/internal/pkg/serverutils"
	"github.com/ywqqqq/xuedong-ai/internal/service"
)

type IChatController interface {
	RegisterRoutes(r fiber.Router)
	SubmitTurn(ctx *fiber.Ctx) error
	ListSessions(ctx *fiber.Ctx) error
	GetHistory(ctx *fiber.Ctx) error
	CloseSession(ctx *fiber.Ctx) error
}

type chatController struct {
	chatService service.IChatService
}

func NewChatController(chatService service.IChatService) IChatController {
	return &chatController{
		chatService: chatService,
	}
}

func (c *chatController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/chat/v1")
	h.Post("turn", c.SubmitTurn)
	h.Get("sessions", c.ListSessions)
	h.Get("sessions/:id/messages", c.GetHistory)
	h.Post("sessions/:id/close", c.CloseSession)
	// DELETE closes the session too; history is never purged.
	h.Delete("sessions/:id", c.CloseSession)
}

// SubmitTurn accepts multipart form data: session_id, user_id, message
// text, plus optional image and audio file parts.
func (c *chatController) SubmitTurn(ctx *fiber.Ctx) error {
	req := dto.SubmitTurnRequest{
		SessionId: ctx.FormValue("session_id"),
		UserId:    ctx.FormValue("user_id"),
		Message:   ctx.FormValue("message"),
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	input := service.SubmitTurnInput{
		SessionId: req.SessionId,
		UserId:    req.UserId,
		Message:   req.Message,
	}

	if fileHeader, err := ctx.FormFile("image"); err == nil && fileHeader != nil {
		data, err := readMultipartFile(fileHeader.Open())
		if err != nil {
			return apperror.InvalidRequest("failed to read image upload")
		}
		input.ImageData = data
		input.ImageName = fileHeader.Filename
	}

	if fileHeader, err := ctx.FormFile("audio"); err == nil && fileHeader != nil {
		data, err := readMultipartFile(fileHeader.Open())
		if err != nil {
			return apperror.InvalidRequest("failed to read audio upload")
		}
		input.AudioPCM = data
	}

	res, err := c.chatService.SubmitTurn(ctx.Context(), input)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success submit turn", res))
}

func (c *chatController) ListSessions(ctx *fiber.Ctx) error {
	userId := ctx.Query("user_id")
	if userId == "" {
		return apperror.InvalidRequest("user_id is required")
	}

	res, err := c.chatService.ListSessions(ctx.Context(), userId)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success list sessions", res))
}

func (c *chatController) GetHistory(ctx *fiber.Ctx) error {
	res, err := c.chatService.GetHistory(ctx.Context(), ctx.Params("id"))
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success get history", res))
}

func (c *chatController) CloseSession(ctx *fiber.Ctx) error {
	res, err := c.chatService.CloseSession(ctx.Context(), ctx.Params("id"))
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Chat session marked as completed", res))
}

func readMultipartFile(f multipart.File, err error) ([]byte, error) {
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}
