package services

import (
	"fmt"
	"strings"
)

type PromptBuilder struct{}

func NewPromptBuilder() *PromptBuilder {
	return &PromptBuilder{}
}

// BuildKeywordPrompt asks for the résumé's top skills as a bare JSON array.
func (pb *PromptBuilder) BuildKeywordPrompt(resumeText string) string {
	return fmt.Sprintf(`You are an expert resume analyzer.

Your task is to extract **up to %d distinct English keywords** that best represent the skills, technologies, and important qualifications found in the following resume text.

Please follow these strict rules:

1. Ensure all keywords are in lowercase.
2. Remove duplicates or near-duplicates (e.g. "python" vs "Python3" → just "python").
3. Only include concise keywords, not full sentences.
4. Output ONLY a JSON array of strings. Do not include any explanation, notes, or additional text.

Here is the resume text:
"""
%s
"""`, MaxKeywords, resumeText)
}

// BuildQuestionPrompt creates the prompt for one interviewer's question.
func (pb *PromptBuilder) BuildQuestionPrompt(persona string, role InterviewerRole, targetJob string, keywords []string, notes string) string {
	var reference string
	if strings.TrimSpace(notes) != "" {
		reference = fmt.Sprintf("\nINTERVIEW GUIDE NOTES (use as inspiration, do not copy):\n%s\n", notes)
	}

	return fmt.Sprintf(`%s

You're interviewing for: %s
Key skills/keywords: %s
%s
Generate ONE realistic interview question that you would ask in a real interview.
The question should be specific to your role as %s and your focus areas.

Return ONLY a valid JSON object with this structure:
{
  "question": "Your question here",
  "focus_area": "The main skill or area this question assesses",
  "difficulty": 3
}

Difficulty scale: 1 (basic) to 5 (very challenging)
Make the question practical and scenario-based when possible.
Do not include any explanation or markdown, just the JSON.`,
		persona, targetJob, strings.Join(keywords, ", "), reference, role)
}

// BuildEvaluationPrompt creates the prompt for one interviewer's review of one answer.
func (pb *PromptBuilder) BuildEvaluationPrompt(persona string, role InterviewerRole, question, answer, targetJob string, keywords []string) string {
	return fmt.Sprintf(`%s

Job: %s
Required skills: %s

Question asked: "%s"
Candidate's answer: "%s"

Evaluate this answer from your specific perspective as a %s.

Return ONLY a valid JSON object:
{
  "score": 7,
  "strengths": ["strength1", "strength2"],
  "weaknesses": ["weakness1", "weakness2"],
  "specific_feedback": "Detailed feedback from your role's perspective",
  "improvement_tips": ["tip1", "tip2"]
}

Score should be out of 10. Do not include any explanation or markdown, just the JSON.`,
		persona, targetJob, strings.Join(keywords, ", "), question, answer, role)
}

// BuildSynthesisPrompt asks for one narrative per reviewed pair plus a summary.
func (pb *PromptBuilder) BuildSynthesisPrompt(targetJob string, keywords []string, reviews []PairReview) string {
	var b strings.Builder
	for i, r := range reviews {
		fmt.Fprintf(&b, "Answer %d (%s)\n", i+1, r.Label)
		fmt.Fprintf(&b, "Question: %q\n", r.Pair.Question)
		fmt.Fprintf(&b, "Answer: %q\n", r.Pair.Answer)
		fmt.Fprintf(&b, "Panel average score: %.1f/10 from %d interviewers\n", r.Aggregate.AverageScore, r.Aggregate.Reviewers)
		fmt.Fprintf(&b, "Strengths: %s\n", joinOrNone(r.Aggregate.Strengths))
		fmt.Fprintf(&b, "Weaknesses: %s\n", joinOrNone(r.Aggregate.Weaknesses))
		fmt.Fprintf(&b, "Improvement tips: %s\n", joinOrNone(r.Aggregate.ImprovementTips))
		for _, note := range r.Aggregate.Notes {
			fmt.Fprintf(&b, "- %s\n", note)
		}
		b.WriteString("\n")
	}

	return fmt.Sprintf(`You are a professional interview coach summarizing a panel interview.

A candidate is applying for the role of: "%s"
Their resume contains the following keywords: %s

The interview panel reviewed %d answers:

%s
Please provide structured feedback in this **strict JSON** format:

{
  "feedbacks": ["feedback for answer 1", "feedback for answer 2"],
  "summary": "Overall impression and actionable tips"
}

Rules:
- "feedbacks" must contain exactly %d strings, in the same order as the answers above.
- **Do not include any Markdown formatting such as triple backticks. Only return raw JSON.**
- Feedback should be constructive, detailed, and professional.
- Use only double quotes and valid JSON syntax.`,
		targetJob, strings.Join(keywords, ", "), len(reviews), b.String(), len(reviews))
}

func joinOrNone(items []string) string {
	if len(items) == 0 {
		return "none noted"
	}
	return strings.Join(items, "; ")
}
