package controller

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ywqqqq/xuedong-ai/internal/dto"
	"github.com/ywqqqq/xuedong-ai/internal/pkg/serverutils"
	"github.com/ywqqqq/xuedong-ai/internal/service"
)

type IKnowledgeController interface {
	RegisterRoutes(r fiber.Router)
	GenerateByKnowledge(ctx *fiber.Ctx) error
	GetSessionKnowledge(ctx *fiber.Ctx) error
	GetUserKnowledge(ctx *fiber.Ctx) error
}

type knowledgeController struct {
	knowledgeService service.IKnowledgeService
}

func NewKnowledgeController(knowledgeService service.IKnowledgeService) IKnowledgeController {
	return &knowledgeController{
		knowledgeService: knowledgeService,
	}
}

func (c *knowledgeController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/knowledge/v1")
	h.Post("generate", c.GenerateByKnowledge)
	h.Get("sessions/:id", c.GetSessionKnowledge)
	h.Get("users/:id", c.GetUserKnowledge)
}

func (c *knowledgeController) GenerateByKnowledge(ctx *fiber.Ctx) error {
	var req dto.GenerateByKnowledgeRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.knowledgeService.GenerateByKnowledge(ctx.Context(), &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success generate problem", res))
}

func (c *knowledgeController) GetSessionKnowledge(ctx *fiber.Ctx) error {
	res, err := c.knowledgeService.GetSessionKnowledge(ctx.Context(), ctx.Params("id"))
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success get session knowledge", res))
}

func (c *knowledgeController) GetUserKnowledge(ctx *fiber.Ctx) error {
	res, err := c.knowledgeService.GetUserKnowledge(ctx.Context(), ctx.Params("id"))
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success get user knowledge", res))
}
