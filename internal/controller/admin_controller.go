package controller

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/ywqqqq/xuedong-ai/internal/pkg/logger"
	"github.com/ywqqqq/xuedong-ai/internal/pkg/serverutils"
)

type IAdminController interface {
	RegisterRoutes(r fiber.Router)
	GetLogs(ctx *fiber.Ctx) error
	GetLogById(ctx *fiber.Ctx) error
}

type adminController struct {
	logger logger.ILogger
}

func NewAdminController(log logger.ILogger) IAdminController {
	return &adminController{
		logger: log,
	}
}

func (c *adminController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/admin/v1")
	h.Use(serverutils.JwtMiddleware)
	h.Get("logs", c.GetLogs)
	h.Get("logs/:id", c.GetLogById)
}

func (c *adminController) GetLogs(ctx *fiber.Ctx) error {
	level := ctx.Query("level")
	limit, _ := strconv.Atoi(ctx.Query("limit", "100"))
	offset, _ := strconv.Atoi(ctx.Query("offset", "0"))

	logs, err := c.logger.GetLogs(level, limit, offset)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success get logs", logs))
}

func (c *adminController) GetLogById(ctx *fiber.Ctx) error {
	entry, err := c.logger.GetLogById(ctx.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusNotFound, "log not found")
	}

	return ctx.JSON(serverutils.SuccessResponse("Success get log", entry))
}
