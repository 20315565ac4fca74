package models

import "encoding/json"

type SessionRequest struct {
	ID string `json:"id"`
}

type TargetJobRequest struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	AnswerType string `json:"answer_type"`
}

type SubmitAnswerRequest struct {
	ID       string `json:"id"`
	Index    *int   `json:"index"`
	Question string `json:"question,omitempty"`
	Answer   string `json:"answer"`
}

func (r *SessionRequest) SessionID() string      { return r.ID }
func (r *TargetJobRequest) SessionID() string    { return r.ID }
func (r *SubmitAnswerRequest) SessionID() string { return r.ID }

type UploadResumeResponse struct {
	ID        string `json:"id,omitempty"`
	ValidFile bool   `json:"valid_file"`
	ErrorMsg  string `json:"error_msg,omitempty"`
}

type StatusResponse struct {
	ID             string `json:"id"`
	ResumeStatus   string `json:"resume_status"`
	QuestionStatus string `json:"question_status"`
	IsCompleted    bool   `json:"is_completed"`
	Message        string `json:"message,omitempty"`
}

type KeywordsResponse struct {
	Finished bool     `json:"finished"`
	Keywords []string `json:"keywords"`
	Error    string   `json:"error"`
}

type GrammarResponse struct {
	Finished     bool            `json:"finished"`
	GrammarCheck json.RawMessage `json:"grammar_check"`
	Error        string          `json:"error"`
}

type TargetJobResponse struct {
	ID         string `json:"id"`
	Message    string `json:"message"`
	AnswerType string `json:"answer_type"`
}

type AllQuestionsResponse struct {
	ID                 string           `json:"id"`
	Finished           bool             `json:"finished"`
	TechQuestions      []string         `json:"tech_questions"`
	InterviewQuestions []string         `json:"interview_questions"`
	QuestionDetails    []QuestionRecord `json:"question_details,omitempty"`
	Message            string           `json:"message"`
}

type SubmitAnswerResponse struct {
	ID                       string  `json:"id"`
	Message                  string  `json:"message"`
	Index                    int     `json:"index"`
	Track                    string  `json:"track"`
	Question                 string  `json:"question"`
	AnswerType               string  `json:"answer_type"`
	Answer                   string  `json:"answer"`
	Progress                 string  `json:"progress"`
	CompletionPercentage     float64 `json:"completion_percentage"`
	TechProgress             string  `json:"tech_progress"`
	TechCompletionPercentage float64 `json:"tech_completion_percentage"`
	IsCompleted              bool    `json:"is_completed"`
}

type FeedbackResponse struct {
	ID        string            `json:"id"`
	Feedbacks map[string]string `json:"feedbacks"`
	Completed bool              `json:"completed"`
	Message   string            `json:"message,omitempty"`
	Duration  string            `json:"duration"`
}

type RemoveResumeResponse struct {
	Message string `json:"message"`
}
