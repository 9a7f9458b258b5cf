package ai

import (
	"context"
	"errors"
	"time"

	"github.com/dmitrijs2005/jobtracker/internal/logging"
)

// Assistant runs the analysis pipeline: primary prompt, then a simplified
// prompt, then the fixed fallback.
type Assistant struct {
	model   Model
	timeout time.Duration
	logger  logging.Logger
}

// NewAssistant builds an Assistant. model may be nil, in which case every
// analysis is the fallback.
func NewAssistant(model Model, timeout time.Duration, logger logging.Logger) *Assistant {
	return &Assistant{model: model, timeout: timeout, logger: logger}
}

func (a *Assistant) Configured() bool {
	return a.model != nil
}

// Analyze always returns an analysis.
func (a *Assistant) Analyze(ctx context.Context, resume, jobDescription string) *Analysis {
	if a.model == nil {
		a.logger.Warn(ctx, "ai model not configured, returning fallback")
		return Fallback(ReasonNoModel)
	}

	res, err := a.attempt(ctx, primaryPrompt(resume, jobDescription))
	if err == nil {
		return res
	}
	a.logger.Warn(ctx, "primary analysis failed, trying simplified prompt", "error", err)

	res, err2 := a.attempt(ctx, simplifiedPrompt(resume, jobDescription))
	if err2 == nil {
		return res
	}
	a.logger.Error(ctx, "simplified analysis failed, returning fallback", "error", err2)

	if errors.Is(err2, errInvalidOutput) {
		return Fallback(ReasonInvalidOutput)
	}
	return Fallback(ReasonModelFailed)
}

func (a *Assistant) attempt(ctx context.Context, prompt string) (*Analysis, error) {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	text, err := a.model.Generate(ctx, prompt)
	if err != nil {
		return nil, err
	}
	return parseAnalysis(text)
}
