package ai

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/genai"
)

// GeminiModel calls the Gemini API with a JSON response schema matching
// Analysis.
type GeminiModel struct {
	client *genai.Client
	model  string
}

func NewGeminiModel(ctx context.Context, apiKey, model string) (*GeminiModel, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return &GeminiModel{client: client, model: model}, nil
}

func (m *GeminiModel) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := m.client.Models.GenerateContent(ctx,
		m.model,
		genai.Text(prompt),
		&genai.GenerateContentConfig{
			ResponseMIMEType:  "application/json",
			ResponseSchema:    analysisSchema(),
			SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: systemInstruction}}},
		},
	)
	if err != nil {
		return "", fmt.Errorf("gemini generate: %w", err)
	}

	text := resp.Text()
	if text == "" {
		return "", errors.New("gemini returned an empty response")
	}
	return text, nil
}

func analysisSchema() *genai.Schema {
	minScore, maxScore := 0.0, 100.0
	stringItems := &genai.Schema{Type: genai.TypeString}

	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"matched_keywords": {
				Type:        genai.TypeArray,
				Description: "Skills and keywords from the job description that the resume already shows.",
				Items:       stringItems,
			},
			"missing_keywords": {
				Type:        genai.TypeArray,
				Description: "Skills and keywords from the job description that the resume lacks.",
				Items:       stringItems,
			},
			"match_score": {
				Type:        genai.TypeNumber,
				Description: "Keyword overlap score.",
				Minimum:     &minScore,
				Maximum:     &maxScore,
			},
			"analysis_summary": {
				Type:        genai.TypeString,
				Description: "Brief analysis of how well the resume fits the job.",
			},
			"interview_questions": {
				Type: genai.TypeArray,
				Items: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"question":      {Type: genai.TypeString},
						"sample_answer": {Type: genai.TypeString},
					},
					Required: []string{"question", "sample_answer"},
				},
			},
		},
		Required: []string{"matched_keywords", "missing_keywords", "match_score", "analysis_summary", "interview_questions"},
		PropertyOrdering: []string{
			"matched_keywords", "missing_keywords", "match_score", "analysis_summary", "interview_questions",
		},
	}
}
