package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/tztgracious/Jobify/internal/apperr"
	"github.com/tztgracious/Jobify/internal/models"
	"github.com/tztgracious/Jobify/internal/services"
)

type InterviewHandler struct {
	interviews services.InterviewService
}

func NewInterviewHandler(interviews services.InterviewService) *InterviewHandler {
	return &InterviewHandler{interviews: interviews}
}

// HandleTargetJob handles POST /target-job
func (h *InterviewHandler) HandleTargetJob(c *fiber.Ctx) error {
	var req models.TargetJobRequest
	id, err := bindSession(c, &req)
	if err != nil {
		return err
	}

	session, err := h.interviews.SetTargetJob(c.UserContext(), id, req.Title, req.AnswerType)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusAccepted).JSON(models.TargetJobResponse{
		ID:         session.ID.String(),
		Message:    "target job saved, generating questions",
		AnswerType: string(session.AnswerType),
	})
}

// HandleSubmitInterviewAnswer handles POST /submit-interview-answer
func (h *InterviewHandler) HandleSubmitInterviewAnswer(c *fiber.Ctx) error {
	return h.submit(c, models.TrackGeneral)
}

// HandleSubmitTechAnswer handles POST /submit-tech-answer
func (h *InterviewHandler) HandleSubmitTechAnswer(c *fiber.Ctx) error {
	return h.submit(c, models.TrackTechnical)
}

func (h *InterviewHandler) submit(c *fiber.Ctx, track models.Track) error {
	var req models.SubmitAnswerRequest
	id, err := bindSession(c, &req)
	if err != nil {
		return err
	}

	// The technical track has a single question.
	index := 0
	switch {
	case req.Index != nil:
		index = *req.Index
	case track == models.TrackGeneral:
		return apperr.Validation("index is required")
	}

	result, err := h.interviews.SubmitAnswer(c.UserContext(), services.AnswerSubmission{
		SessionID: id,
		Track:     track,
		Index:     index,
		Answer:    req.Answer,
	})
	if err != nil {
		return err
	}

	return c.JSON(models.SubmitAnswerResponse{
		ID:                       result.SessionID.String(),
		Message:                  "answer saved",
		Index:                    result.Index,
		Track:                    string(result.Track),
		Question:                 result.Question,
		AnswerType:               string(result.AnswerType),
		Answer:                   result.Answer,
		Progress:                 result.General.Progress,
		CompletionPercentage:     result.General.CompletionPercentage,
		TechProgress:             result.Technical.Progress,
		TechCompletionPercentage: result.Technical.CompletionPercentage,
		IsCompleted:              result.IsCompleted,
	})
}
