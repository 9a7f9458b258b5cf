package services

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/dmitrijs2005/jobtracker/internal/common"
	"github.com/dmitrijs2005/jobtracker/internal/logging"
	"github.com/dmitrijs2005/jobtracker/internal/server/ai"
	"github.com/dmitrijs2005/jobtracker/internal/server/resume"
	"github.com/dmitrijs2005/jobtracker/internal/server/storage"
)

// ResumeUpload is an uploaded resume file.
type ResumeUpload struct {
	Filename    string
	ContentType string
	Data        []byte
}

// FileAnalysis is the result of analysing an uploaded resume.
type FileAnalysis struct {
	Filename            string `json:"filename"`
	FileType            string `json:"file_type"`
	ExtractedTextLength int    `json:"extracted_text_length"`
	StoredKey           string `json:"stored_key,omitempty"`
	*ai.Analysis
}

type analyzer interface {
	Analyze(ctx context.Context, resume, jobDescription string) *ai.Analysis
	Configured() bool
}

type AnalysisService struct {
	assistant analyzer
	archive   storage.ResumeArchive
	logger    logging.Logger
}

func NewAnalysisService(assistant analyzer, archive storage.ResumeArchive, logger logging.Logger) *AnalysisService {
	if archive == nil {
		archive = storage.Nop{}
	}
	return &AnalysisService{assistant: assistant, archive: archive, logger: logger}
}

func (s *AnalysisService) ModelConfigured() bool {
	return s.assistant.Configured()
}

// AnalyzeFile extracts the resume text, archives the upload and runs the
// analysis. Only bad input is an error; model trouble yields a degraded
// analysis and archive trouble is logged.
func (s *AnalysisService) AnalyzeFile(ctx context.Context, userID string, file ResumeUpload, jobDescription string) (*FileAnalysis, error) {
	if len(file.Data) == 0 {
		return nil, common.Errorf(common.ErrorValidation, "No file uploaded")
	}
	jobDescription = strings.TrimSpace(jobDescription)
	if jobDescription == "" {
		return nil, common.Errorf(common.ErrorValidation, "Job description is required")
	}

	text, err := resume.ExtractText(file.Filename, file.ContentType, file.Data)
	if err != nil {
		return nil, err
	}

	key, err := s.archive.Store(ctx, userID, file.Filename, file.ContentType, file.Data)
	if err != nil {
		s.logger.Warn(ctx, "resume archive failed", "user_id", userID, "error", err)
		key = ""
	}

	return &FileAnalysis{
		Filename:            file.Filename,
		FileType:            fileType(file),
		ExtractedTextLength: utf8.RuneCountInString(text),
		StoredKey:           key,
		Analysis:            s.assistant.Analyze(ctx, text, jobDescription),
	}, nil
}

// AnalyzeText runs the analysis on resume text sent inline.
func (s *AnalysisService) AnalyzeText(ctx context.Context, resumeText, jobDescription string) (*ai.Analysis, error) {
	resumeText = strings.TrimSpace(resumeText)
	jobDescription = strings.TrimSpace(jobDescription)
	if resumeText == "" {
		return nil, common.Errorf(common.ErrorValidation, "Resume text is required")
	}
	if jobDescription == "" {
		return nil, common.Errorf(common.ErrorValidation, "Job description is required")
	}
	return s.assistant.Analyze(ctx, resumeText, jobDescription), nil
}

// fileType prefers the declared content type, falling back to the detected
// format.
func fileType(file ResumeUpload) string {
	if file.ContentType != "" {
		return file.ContentType
	}
	return resume.Format(file.Filename, "")
}
