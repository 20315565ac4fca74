package handlers

import (
	"encoding/json"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/tztgracious/Jobify/internal/models"
	"github.com/tztgracious/Jobify/internal/services"
)

// ResultHandler serves the polling read models. Every read re-triggers a
// FAILED stage before answering.
type ResultHandler struct {
	interviews services.InterviewService
}

func NewResultHandler(interviews services.InterviewService) *ResultHandler {
	return &ResultHandler{interviews: interviews}
}

func retryMessage(poll *services.SessionPoll) string {
	if poll.Retried() {
		return services.MessageRetrying
	}
	return ""
}

func (h *ResultHandler) poll(c *fiber.Ctx) (*services.SessionPoll, error) {
	var req models.SessionRequest
	id, err := bindSession(c, &req)
	if err != nil {
		return nil, err
	}
	return h.interviews.PollSession(c.UserContext(), id)
}

// HandleGetKeywords handles POST /get-keywords
func (h *ResultHandler) HandleGetKeywords(c *fiber.Ctx) error {
	poll, err := h.poll(c)
	if err != nil {
		return err
	}

	keywords := []string(poll.Session.Keywords)
	if keywords == nil {
		keywords = []string{}
	}

	return c.JSON(models.KeywordsResponse{
		Finished: poll.Session.ResumeStatus == models.StatusComplete,
		Keywords: keywords,
		Error:    retryMessage(poll),
	})
}

// HandleGetGrammarResults handles POST /get-grammar-results
func (h *ResultHandler) HandleGetGrammarResults(c *fiber.Ctx) error {
	poll, err := h.poll(c)
	if err != nil {
		return err
	}

	grammar := json.RawMessage("{}")
	if len(poll.Session.GrammarResults) > 0 {
		grammar = json.RawMessage(poll.Session.GrammarResults)
	}

	return c.JSON(models.GrammarResponse{
		Finished:     poll.Session.ResumeStatus == models.StatusComplete,
		GrammarCheck: grammar,
		Error:        retryMessage(poll),
	})
}

// HandleGetAllQuestions handles POST /get-all-questions
func (h *ResultHandler) HandleGetAllQuestions(c *fiber.Ctx) error {
	poll, err := h.poll(c)
	if err != nil {
		return err
	}

	s := poll.Session
	finished := s.QuestionStatus == models.StatusComplete

	message := retryMessage(poll)
	if message == "" && !finished {
		message = "questions are still being generated"
	}

	resp := models.AllQuestionsResponse{
		ID:                 s.ID.String(),
		Finished:           finished,
		TechQuestions:      []string{},
		InterviewQuestions: []string{},
		Message:            message,
	}
	if finished {
		resp.TechQuestions = s.TechQuestions
		resp.InterviewQuestions = s.Questions
		resp.QuestionDetails = s.QuestionDetails
	}

	return c.JSON(resp)
}

// HandleGetStatus handles GET /status/:id
func (h *ResultHandler) HandleGetStatus(c *fiber.Ctx) error {
	id, err := parseSessionID(c.Params("id"))
	if err != nil {
		return err
	}

	view, err := h.interviews.PollStatus(c.UserContext(), id)
	if err != nil {
		return err
	}

	return c.JSON(models.StatusResponse{
		ID:             view.SessionID.String(),
		ResumeStatus:   string(view.ResumeStatus),
		QuestionStatus: string(view.QuestionStatus),
		IsCompleted:    view.IsCompleted,
		Message:        view.Message,
	})
}

// HandleFeedback handles POST /feedback. It blocks for the whole review panel.
func (h *ResultHandler) HandleFeedback(c *fiber.Ctx) error {
	var req models.SessionRequest
	id, err := bindSession(c, &req)
	if err != nil {
		return err
	}

	result, err := h.interviews.GetFeedback(c.UserContext(), id)
	if err != nil {
		return err
	}

	resp := models.FeedbackResponse{
		ID:        id.String(),
		Feedbacks: result.Feedbacks,
		Completed: result.Completed,
		Duration:  result.Duration.Round(time.Millisecond).String(),
	}
	if !result.Completed {
		resp.Message = "feedback covers the questions answered so far"
	}

	return c.JSON(resp)
}
