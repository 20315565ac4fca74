package services

import (
	"fmt"
	"math"
	"strings"
	"unicode/utf8"

	"github.com/tztgracious/Jobify/internal/apperr"
	"github.com/tztgracious/Jobify/internal/models"
)

const MaxAnswerLength = 10000

// TrackProgress summarizes one track's answers.
type TrackProgress struct {
	Answered             int
	Total                int
	Progress             string
	CompletionPercentage float64
}

func CountAnswered(answers []string) int {
	n := 0
	for _, a := range answers {
		if strings.TrimSpace(a) != "" {
			n++
		}
	}
	return n
}

// Progress formats "answered/total".
func Progress(answered, total int) string {
	return fmt.Sprintf("%d/%d", answered, total)
}

// CompletionPercentage is 100*answered/total rounded to one decimal, 0 for no questions.
func CompletionPercentage(answered, total int) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(1000*float64(answered)/float64(total)) / 10
}

// IsCompleted reports whether every answer is non-blank. No answers is not complete.
func IsCompleted(answers []string) bool {
	if len(answers) == 0 {
		return false
	}
	for _, a := range answers {
		if strings.TrimSpace(a) == "" {
			return false
		}
	}
	return true
}

func TrackProgressOf(questions, answers []string) TrackProgress {
	answered := CountAnswered(answers)
	total := len(questions)
	return TrackProgress{
		Answered:             answered,
		Total:                total,
		Progress:             Progress(answered, total),
		CompletionPercentage: CompletionPercentage(answered, total),
	}
}

// ParseTrack maps a request value to a Track, defaulting to general.
func ParseTrack(v string) (models.Track, error) {
	switch models.Track(strings.ToLower(strings.TrimSpace(v))) {
	case "", models.TrackGeneral:
		return models.TrackGeneral, nil
	case models.TrackTechnical, "tech":
		return models.TrackTechnical, nil
	}
	return "", apperr.Validation("invalid track %q: must be general or technical", v)
}

// ApplyAnswer writes answer at index of the track, padding the answer sequence to
// the question count, and recomputes is_completed.
func ApplyAnswer(s *models.Session, track models.Track, index int, answer string) error {
	if strings.TrimSpace(answer) == "" {
		return apperr.Validation("answer must not be empty")
	}
	if utf8.RuneCountInString(answer) > MaxAnswerLength {
		return apperr.Validation("answer exceeds %d characters", MaxAnswerLength)
	}

	questions := s.QuestionsFor(track)
	if len(questions) == 0 {
		return apperr.Validation("no %s questions have been generated for this session", track)
	}
	if index < 0 || index >= len(questions) {
		return apperr.Validation("invalid question index %d: must be between 0 and %d", index, len(questions)-1)
	}

	answers := make([]string, len(questions))
	copy(answers, s.AnswersFor(track))
	answers[index] = answer

	s.SetAnswers(track, answers)
	s.IsCompleted = IsCompleted(s.Answers) && len(s.Answers) == len(s.Questions)

	return nil
}
