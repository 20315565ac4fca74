package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	"github.com/tztgracious/Jobify/internal/apperr"
	"github.com/tztgracious/Jobify/internal/models"
	"github.com/tztgracious/Jobify/internal/services"
)

// fakeInterviews implements services.InterviewService. Unset funcs fail the call.
type fakeInterviews struct {
	RegisterUploadFunc func(ctx context.Context, file *services.StoredFile) (*models.Session, error)
	SetTargetJobFunc   func(ctx context.Context, id uuid.UUID, title, answerType string) (*models.Session, error)
	SubmitAnswerFunc   func(ctx context.Context, sub services.AnswerSubmission) (*services.AnswerResult, error)
	GetFeedbackFunc    func(ctx context.Context, id uuid.UUID) (*services.FeedbackResult, error)
	PollStatusFunc     func(ctx context.Context, id uuid.UUID) (*services.StatusView, error)
	PollSessionFunc    func(ctx context.Context, id uuid.UUID) (*services.SessionPoll, error)
	RemoveSessionFunc  func(ctx context.Context, id uuid.UUID) error
}

var errUnexpected = errors.New("unexpected call")

func (f *fakeInterviews) RegisterUpload(ctx context.Context, file *services.StoredFile) (*models.Session, error) {
	if f.RegisterUploadFunc == nil {
		return nil, errUnexpected
	}
	return f.RegisterUploadFunc(ctx, file)
}

func (f *fakeInterviews) StartDocumentProcessing(context.Context, uuid.UUID) error {
	return errUnexpected
}

func (f *fakeInterviews) StartQuestionGeneration(context.Context, uuid.UUID) error {
	return errUnexpected
}

func (f *fakeInterviews) SetTargetJob(ctx context.Context, id uuid.UUID, title, answerType string) (*models.Session, error) {
	if f.SetTargetJobFunc == nil {
		return nil, errUnexpected
	}
	return f.SetTargetJobFunc(ctx, id, title, answerType)
}

func (f *fakeInterviews) SubmitAnswer(ctx context.Context, sub services.AnswerSubmission) (*services.AnswerResult, error) {
	if f.SubmitAnswerFunc == nil {
		return nil, errUnexpected
	}
	return f.SubmitAnswerFunc(ctx, sub)
}

func (f *fakeInterviews) GetFeedback(ctx context.Context, id uuid.UUID) (*services.FeedbackResult, error) {
	if f.GetFeedbackFunc == nil {
		return nil, errUnexpected
	}
	return f.GetFeedbackFunc(ctx, id)
}

func (f *fakeInterviews) GetStatus(context.Context, uuid.UUID) (*services.StatusView, error) {
	return nil, errUnexpected
}

func (f *fakeInterviews) PollStatus(ctx context.Context, id uuid.UUID) (*services.StatusView, error) {
	if f.PollStatusFunc == nil {
		return nil, errUnexpected
	}
	return f.PollStatusFunc(ctx, id)
}

func (f *fakeInterviews) PollSession(ctx context.Context, id uuid.UUID) (*services.SessionPoll, error) {
	if f.PollSessionFunc == nil {
		return nil, errUnexpected
	}
	return f.PollSessionFunc(ctx, id)
}

func (f *fakeInterviews) RemoveSession(ctx context.Context, id uuid.UUID) error {
	if f.RemoveSessionFunc == nil {
		return errUnexpected
	}
	return f.RemoveSessionFunc(ctx, id)
}

func newTestApp(t *testing.T, interviews services.InterviewService) *fiber.App {
	t.Helper()

	storage := services.NewStorageService(t.TempDir(), 1024)
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler(nil)})
	RegisterRoutes(app.Group("/api/v1"),
		NewUploadHandler(interviews, storage, nil),
		NewResultHandler(interviews),
		NewInterviewHandler(interviews))
	return app
}

func doJSON(t *testing.T, app *fiber.App, method, path string, body interface{}) (*http.Response, map[string]interface{}) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req, -1)
	require.NoError(t, err)

	var out map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp, out
}

func TestUploadResume(t *testing.T) {
	var registered *services.StoredFile
	id := uuid.New()
	app := newTestApp(t, &fakeInterviews{
		RegisterUploadFunc: func(_ context.Context, file *services.StoredFile) (*models.Session, error) {
			registered = file
			return &models.Session{ID: id}, nil
		},
	})

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	part, err := w.CreateFormFile("file", "cv.pdf")
	require.NoError(t, err)
	_, _ = part.Write([]byte("%PDF-1.4 test"))
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/upload-resume", &body)
	req.Header.Set("Content-Type", w.FormDataContentType())

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusCreated, resp.StatusCode)

	var out models.UploadResumeResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.True(t, out.ValidFile)
	assert.Equal(t, id.String(), out.ID)

	require.NotNil(t, registered)
	assert.Equal(t, "cv.pdf", registered.OriginalName)
}

func TestUploadResume_RejectsNonPDF(t *testing.T) {
	app := newTestApp(t, &fakeInterviews{})

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	part, err := w.CreateFormFile("file", "cv.txt")
	require.NoError(t, err)
	_, _ = part.Write([]byte("plain text"))
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/upload-resume", &body)
	req.Header.Set("Content-Type", w.FormDataContentType())

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	var out models.UploadResumeResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.False(t, out.ValidFile)
	assert.Contains(t, out.ErrorMsg, "only .pdf")
}

func TestGetKeywords_ReportsRetry(t *testing.T) {
	id := uuid.New()
	app := newTestApp(t, &fakeInterviews{
		PollSessionFunc: func(_ context.Context, got uuid.UUID) (*services.SessionPoll, error) {
			assert.Equal(t, id, got)
			return &services.SessionPoll{
				Session:       &models.Session{ID: id, ResumeStatus: models.StatusProcessing},
				RetriedResume: true,
			}, nil
		},
	})

	resp, out := doJSON(t, app, http.MethodPost, "/api/v1/get-keywords", models.SessionRequest{ID: id.String()})
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, false, out["finished"])
	assert.Equal(t, []interface{}{}, out["keywords"])
	assert.Equal(t, services.MessageRetrying, out["error"])
}

func TestGetAllQuestions(t *testing.T) {
	id := uuid.New()
	app := newTestApp(t, &fakeInterviews{
		PollSessionFunc: func(context.Context, uuid.UUID) (*services.SessionPoll, error) {
			return &services.SessionPoll{Session: &models.Session{
				ID:             id,
				QuestionStatus: models.StatusComplete,
				Questions:      datatypes.JSONSlice[string]{"Q1", "Q2", "Q3"},
				TechQuestions:  datatypes.JSONSlice[string]{"T1"},
			}}, nil
		},
	})

	resp, out := doJSON(t, app, http.MethodPost, "/api/v1/get-all-questions", models.SessionRequest{ID: id.String()})
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, true, out["finished"])
	assert.Equal(t, []interface{}{"Q1", "Q2", "Q3"}, out["interview_questions"])
	assert.Equal(t, []interface{}{"T1"}, out["tech_questions"])
}

func TestGetStatus(t *testing.T) {
	id := uuid.New()
	app := newTestApp(t, &fakeInterviews{
		PollStatusFunc: func(context.Context, uuid.UUID) (*services.StatusView, error) {
			return &services.StatusView{
				SessionID:      id,
				ResumeStatus:   models.StatusProcessing,
				QuestionStatus: models.StatusProcessing,
				Message:        services.MessageRetrying,
			}, nil
		},
	})

	resp, out := doJSON(t, app, http.MethodGet, "/api/v1/status/"+id.String(), nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "processing", out["resume_status"])
	assert.Equal(t, services.MessageRetrying, out["message"])

	resp, _ = doJSON(t, app, http.MethodGet, "/api/v1/status/not-a-uuid", nil)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestSubmitAnswer(t *testing.T) {
	id := uuid.New()
	var got services.AnswerSubmission
	app := newTestApp(t, &fakeInterviews{
		SubmitAnswerFunc: func(_ context.Context, sub services.AnswerSubmission) (*services.AnswerResult, error) {
			got = sub
			return &services.AnswerResult{
				SessionID:   id,
				Track:       sub.Track,
				Index:       sub.Index,
				Question:    "Q3",
				Answer:      sub.Answer,
				AnswerType:  models.AnswerTypeText,
				General:     services.TrackProgressOf([]string{"Q1", "Q2", "Q3"}, []string{"a", "", "c"}),
				Technical:   services.TrackProgressOf([]string{"T1"}, nil),
				IsCompleted: false,
			}, nil
		},
	})

	index := 2
	resp, out := doJSON(t, app, http.MethodPost, "/api/v1/submit-interview-answer",
		models.SubmitAnswerRequest{ID: id.String(), Index: &index, Answer: "c"})
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	assert.Equal(t, services.AnswerSubmission{SessionID: id, Track: models.TrackGeneral, Index: 2, Answer: "c"}, got)
	assert.Equal(t, "2/3", out["progress"])
	assert.Equal(t, 66.7, out["completion_percentage"])
	assert.Equal(t, "0/1", out["tech_progress"])
	assert.Equal(t, "Q3", out["question"])

	// Technical answers default to index 0.
	_, _ = doJSON(t, app, http.MethodPost, "/api/v1/submit-tech-answer",
		models.SubmitAnswerRequest{ID: id.String(), Answer: "t"})
	assert.Equal(t, models.TrackTechnical, got.Track)
	assert.Equal(t, 0, got.Index)
}

func TestSubmitAnswer_RequiresIndex(t *testing.T) {
	app := newTestApp(t, &fakeInterviews{})

	resp, out := doJSON(t, app, http.MethodPost, "/api/v1/submit-interview-answer",
		models.SubmitAnswerRequest{ID: uuid.NewString(), Answer: "a"})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "index is required", out["error"])
}

func TestErrorMapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code int
	}{
		{"validation", apperr.Validation("bad title"), fiber.StatusBadRequest},
		{"not found", apperr.NotFound("x"), fiber.StatusNotFound},
		{"busy", apperr.StageBusy("questions", "x"), fiber.StatusConflict},
		{"internal", errors.New("db down"), fiber.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := newTestApp(t, &fakeInterviews{
				SetTargetJobFunc: func(context.Context, uuid.UUID, string, string) (*models.Session, error) {
					return nil, errors.Wrap(tt.err, "set target job")
				},
			})

			resp, out := doJSON(t, app, http.MethodPost, "/api/v1/target-job",
				models.TargetJobRequest{ID: uuid.NewString(), Title: "Engineer"})
			assert.Equal(t, tt.code, resp.StatusCode)
			assert.Equal(t, float64(tt.code), out["code"])
		})
	}
}

func TestTargetJob(t *testing.T) {
	id := uuid.New()
	app := newTestApp(t, &fakeInterviews{
		SetTargetJobFunc: func(_ context.Context, got uuid.UUID, title, answerType string) (*models.Session, error) {
			assert.Equal(t, "Backend Engineer", title)
			assert.Equal(t, "video", answerType)
			return &models.Session{ID: got, AnswerType: models.AnswerTypeVideo}, nil
		},
	})

	resp, out := doJSON(t, app, http.MethodPost, "/api/v1/target-job",
		models.TargetJobRequest{ID: id.String(), Title: "Backend Engineer", AnswerType: "video"})
	assert.Equal(t, fiber.StatusAccepted, resp.StatusCode)
	assert.Equal(t, id.String(), out["id"])
	assert.Equal(t, "video", out["answer_type"])
}

func TestFeedbackAndRemove(t *testing.T) {
	id := uuid.New()
	removed := false
	app := newTestApp(t, &fakeInterviews{
		GetFeedbackFunc: func(context.Context, uuid.UUID) (*services.FeedbackResult, error) {
			return &services.FeedbackResult{
				Feedbacks: map[string]string{"summary": "well done"},
				Completed: true,
				Duration:  1500 * time.Millisecond,
			}, nil
		},
		RemoveSessionFunc: func(context.Context, uuid.UUID) error {
			removed = true
			return nil
		},
	})

	resp, out := doJSON(t, app, http.MethodPost, "/api/v1/feedback", models.SessionRequest{ID: id.String()})
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "1.5s", out["duration"])
	assert.Equal(t, map[string]interface{}{"summary": "well done"}, out["feedbacks"])

	resp, _ = doJSON(t, app, http.MethodPost, "/api/v1/remove-resume", models.SessionRequest{ID: id.String()})
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.True(t, removed)
}
