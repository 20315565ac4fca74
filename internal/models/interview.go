package models

// QuestionRecord is one generated interview question and who asked it.
type QuestionRecord struct {
	Question        string `json:"question"`
	InterviewerRole string `json:"interviewer_role"`
	FocusArea       string `json:"focus_area"`
	Difficulty      int    `json:"difficulty"`
	// Fallback is set when the question was substituted after a failed generation.
	Fallback bool `json:"-"`
}

// EvaluationRecord is one interviewer's review of one answer.
type EvaluationRecord struct {
	Score            float64  `json:"score"`
	Strengths        []string `json:"strengths"`
	Weaknesses       []string `json:"weaknesses"`
	SpecificFeedback string   `json:"specific_feedback"`
	ImprovementTips  []string `json:"improvement_tips"`
	// Fallback marks a placeholder produced because the review itself failed,
	// not because the answer was weak.
	Fallback bool `json:"-"`
}

// GrammarReport mirrors the LanguageTool check response.
type GrammarReport struct {
	Language GrammarLanguage `json:"language"`
	Matches  []GrammarMatch  `json:"matches"`
}

type GrammarLanguage struct {
	Code             string                  `json:"code"`
	Name             string                  `json:"name"`
	DetectedLanguage GrammarDetectedLanguage `json:"detectedLanguage"`
}

type GrammarDetectedLanguage struct {
	Code       string  `json:"code"`
	Name       string  `json:"name"`
	Confidence float64 `json:"confidence,omitempty"`
}

type GrammarMatch struct {
	Message      string               `json:"message"`
	ShortMessage string               `json:"shortMessage,omitempty"`
	Offset       int                  `json:"offset"`
	Length       int                  `json:"length"`
	Replacements []GrammarReplacement `json:"replacements"`
	Context      GrammarContext       `json:"context"`
	Sentence     string               `json:"sentence,omitempty"`
	Rule         GrammarRule          `json:"rule"`
}

type GrammarReplacement struct {
	Value string `json:"value"`
}

type GrammarContext struct {
	Text   string `json:"text"`
	Offset int    `json:"offset"`
	Length int    `json:"length"`
}

type GrammarRule struct {
	ID          string          `json:"id"`
	Description string          `json:"description,omitempty"`
	IssueType   string          `json:"issueType,omitempty"`
	Category    GrammarCategory `json:"category"`
}

type GrammarCategory struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}
