package ai

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

const defaultSummary = "Analysis completed successfully."

var errInvalidOutput = errors.New("invalid model output")

// rawAnalysis keeps required keys as raw JSON so absence is detectable.
type rawAnalysis struct {
	MatchedKeywords    json.RawMessage `json:"matched_keywords"`
	MissingKeywords    json.RawMessage `json:"missing_keywords"`
	InterviewQuestions json.RawMessage `json:"interview_questions"`
	MatchScore         *float64        `json:"match_score"`
	AnalysisSummary    string          `json:"analysis_summary"`
}

// parseAnalysis strictly decodes a model answer. The three list fields are
// required; a missing score is computed from keyword overlap and a score
// outside 0..100 is clamped.
func parseAnalysis(text string) (*Analysis, error) {
	var raw rawAnalysis
	if err := json.Unmarshal([]byte(cleanJSON(text)), &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", errInvalidOutput, err)
	}

	a := &Analysis{}
	for _, f := range []struct {
		name string
		data json.RawMessage
		dst  any
	}{
		{"matched_keywords", raw.MatchedKeywords, &a.MatchedKeywords},
		{"missing_keywords", raw.MissingKeywords, &a.MissingKeywords},
		{"interview_questions", raw.InterviewQuestions, &a.InterviewQuestions},
	} {
		if len(f.data) == 0 || string(f.data) == "null" {
			return nil, fmt.Errorf("%w: missing %s", errInvalidOutput, f.name)
		}
		if err := json.Unmarshal(f.data, f.dst); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", errInvalidOutput, f.name, err)
		}
	}

	for i, q := range a.InterviewQuestions {
		if strings.TrimSpace(q.Question) == "" {
			return nil, fmt.Errorf("%w: interview_questions[%d] has no question", errInvalidOutput, i)
		}
	}

	if raw.MatchScore != nil {
		a.MatchScore = min(max(*raw.MatchScore, 0), 100)
	} else if total := len(a.MatchedKeywords) + len(a.MissingKeywords); total > 0 {
		a.MatchScore = float64(len(a.MatchedKeywords)) / float64(total) * 100
	}

	a.AnalysisSummary = strings.TrimSpace(raw.AnalysisSummary)
	if a.AnalysisSummary == "" {
		a.AnalysisSummary = defaultSummary
	}

	return a, nil
}

// cleanJSON strips a Markdown code fence around the answer, if any.
func cleanJSON(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```json") {
		s = strings.TrimPrefix(s, "```json")
	} else {
		s = strings.TrimPrefix(s, "```")
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
