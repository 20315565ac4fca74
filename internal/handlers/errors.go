package handlers

import (
	"github.com/cockroachdb/errors"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/tztgracious/Jobify/internal/apperr"
	"github.com/tztgracious/Jobify/internal/logger"
)

// ErrorHandler maps the apperr taxonomy onto HTTP status codes.
func ErrorHandler(log *zap.Logger) fiber.ErrorHandler {
	log = logger.OrNop(log)

	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError

		var fe *fiber.Error
		switch {
		case errors.As(err, &fe):
			code = fe.Code
		case apperr.IsValidation(err):
			code = fiber.StatusBadRequest
		case apperr.IsNotFound(err):
			code = fiber.StatusNotFound
		case errors.Is(err, apperr.ErrStageBusy):
			code = fiber.StatusConflict
		}

		if code >= fiber.StatusInternalServerError {
			log.Error("❌ Request failed",
				zap.String("method", c.Method()),
				zap.String("path", c.Path()),
				zap.Error(err))
		}

		return c.Status(code).JSON(fiber.Map{
			"error": err.Error(),
			"code":  code,
		})
	}
}

func parseSessionID(raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, apperr.Validation("invalid session id %q", raw)
	}
	return id, nil
}

// bindSession parses a JSON body carrying the session id.
func bindSession(c *fiber.Ctx, req interface{ SessionID() string }) (uuid.UUID, error) {
	if err := c.BodyParser(req); err != nil {
		return uuid.Nil, apperr.Validation("invalid request payload")
	}
	return parseSessionID(req.SessionID())
}
