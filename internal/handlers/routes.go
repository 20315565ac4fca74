package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
)

// RegisterRoutes mounts the interview API under router.
func RegisterRoutes(router fiber.Router, upload *UploadHandler, results *ResultHandler, interview *InterviewHandler) {
	router.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "healthy",
			"time":   time.Now(),
		})
	})

	router.Post("/upload-resume", upload.HandleUploadResume)
	router.Post("/remove-resume", upload.HandleRemoveResume)

	router.Post("/get-keywords", results.HandleGetKeywords)
	router.Post("/get-grammar-results", results.HandleGetGrammarResults)
	router.Post("/get-all-questions", results.HandleGetAllQuestions)
	router.Get("/status/:id", results.HandleGetStatus)
	router.Post("/feedback", results.HandleFeedback)

	router.Post("/target-job", interview.HandleTargetJob)
	router.Post("/submit-interview-answer", interview.HandleSubmitInterviewAnswer)
	router.Post("/submit-tech-answer", interview.HandleSubmitTechAnswer)
}
