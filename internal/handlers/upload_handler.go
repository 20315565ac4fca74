package handlers

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/tztgracious/Jobify/internal/apperr"
	"github.com/tztgracious/Jobify/internal/logger"
	"github.com/tztgracious/Jobify/internal/models"
	"github.com/tztgracious/Jobify/internal/services"
)

type UploadHandler struct {
	interviews services.InterviewService
	storage    services.StorageService
	log        *zap.Logger
}

func NewUploadHandler(
	interviews services.InterviewService,
	storage services.StorageService,
	log *zap.Logger,
) *UploadHandler {
	return &UploadHandler{
		interviews: interviews,
		storage:    storage,
		log:        logger.OrNop(log),
	}
}

// HandleUploadResume handles POST /upload-resume
func (h *UploadHandler) HandleUploadResume(c *fiber.Ctx) error {
	file, err := c.FormFile("file")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(models.UploadResumeResponse{
			ValidFile: false,
			ErrorMsg:  "no file uploaded: send the resume as multipart field 'file'",
		})
	}

	stored, err := h.storage.SaveResume(file)
	if err != nil {
		if apperr.IsValidation(err) {
			return c.Status(fiber.StatusBadRequest).JSON(models.UploadResumeResponse{
				ValidFile: false,
				ErrorMsg:  err.Error(),
			})
		}
		return err
	}

	session, err := h.interviews.RegisterUpload(c.UserContext(), stored)
	if err != nil {
		// Cleanup uploaded file if the session could not be created
		if delErr := h.storage.DeleteFile(stored.FileName); delErr != nil {
			h.log.Warn("⚠️ Failed to clean up upload", zap.String("file", stored.FileName), zap.Error(delErr))
		}
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(models.UploadResumeResponse{
		ID:        session.ID.String(),
		ValidFile: true,
	})
}

// HandleRemoveResume handles POST /remove-resume
func (h *UploadHandler) HandleRemoveResume(c *fiber.Ctx) error {
	var req models.SessionRequest
	id, err := bindSession(c, &req)
	if err != nil {
		return err
	}

	if err := h.interviews.RemoveSession(c.UserContext(), id); err != nil {
		return err
	}

	return c.JSON(models.RemoveResumeResponse{Message: "resume removed"})
}
