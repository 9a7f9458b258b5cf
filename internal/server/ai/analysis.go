// Package ai asks a generative model for a resume/job-description fit
// analysis and never fails: when the model is missing, slow or talks
// nonsense the caller gets a clearly marked degraded result instead.
package ai

import "context"

// Model is a text-in, text-out generative model.
type Model interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

type InterviewQuestion struct {
	Question     string `json:"question"`
	SampleAnswer string `json:"sample_answer"`
}

type Analysis struct {
	MatchedKeywords    []string            `json:"matched_keywords"`
	MissingKeywords    []string            `json:"missing_keywords"`
	MatchScore         float64             `json:"match_score"`
	AnalysisSummary    string              `json:"analysis_summary"`
	InterviewQuestions []InterviewQuestion `json:"interview_questions"`
	Degraded           bool                `json:"degraded"`
	DegradedReason     string              `json:"degraded_reason,omitempty"`
}

const (
	ReasonNoModel       = "model_not_configured"
	ReasonModelFailed   = "model_failed"
	ReasonInvalidOutput = "invalid_model_output"
)

// Fallback is the fixed analysis returned when no model answer is usable.
func Fallback(reason string) *Analysis {
	return &Analysis{
		MatchedKeywords: []string{"General Skills"},
		MissingKeywords: []string{"Specific technical analysis unavailable"},
		MatchScore:      0,
		AnalysisSummary: "Unable to complete AI analysis. Please ensure you have uploaded a valid resume " +
			"file and provided a detailed job description, then try again.",
		InterviewQuestions: []InterviewQuestion{
			{
				Question:     "Could you walk me through your background and experience?",
				SampleAnswer: "I would highlight the key experiences and skills from my background that are most relevant to this position.",
			},
			{
				Question:     "What specifically interests you about this opportunity?",
				SampleAnswer: "I would discuss how this role aligns with my career goals and how I can contribute to the organization.",
			},
			{
				Question:     "How would you approach the main responsibilities of this role?",
				SampleAnswer: "I would outline my systematic approach and relevant experience for handling the key aspects of this position.",
			},
		},
		Degraded:       true,
		DegradedReason: reason,
	}
}
