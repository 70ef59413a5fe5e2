package controller

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ywqqqq/xuedong-ai/internal/apperror"
	"github.com/ywqqqq/xuedong-ai/internal/pkg/serverutils"
	"github.com/ywqqqq/xuedong-ai/internal/service"
)

type IFileController interface {
	RegisterRoutes(r fiber.Router)
	Upload(ctx *fiber.Ctx) error
	TextToSpeech(ctx *fiber.Ctx) error
}

type fileController struct {
	fileService service.IFileService
}

func NewFileController(fileService service.IFileService) IFileController {
	return &fileController{
		fileService: fileService,
	}
}

func (c *fileController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/file/v1")
	h.Post("upload", c.Upload)
	h.Post("tts", c.TextToSpeech)
}

func (c *fileController) Upload(ctx *fiber.Ctx) error {
	fileHeader, err := ctx.FormFile("file")
	if err != nil {
		return apperror.InvalidRequest("file is required")
	}

	data, err := readMultipartFile(fileHeader.Open())
	if err != nil {
		return apperror.InvalidRequest("failed to read upload")
	}

	url, err := c.fileService.SaveUpload(data, fileHeader.Filename)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success upload file", fiber.Map{"file_url": url}))
}

func (c *fileController) TextToSpeech(ctx *fiber.Ctx) error {
	var req struct {
		Text string `json:"text"`
	}
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}

	url, err := c.fileService.TextToSpeech(ctx.Context(), req.Text)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Text to speech conversion successful", fiber.Map{"file_url": url}))
}
