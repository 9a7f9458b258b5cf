package rest

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/dmitrijs2005/jobtracker/internal/server/services"
	"github.com/gin-gonic/gin"
)

// Both field names are accepted for the uploaded resume.
var resumeFileFields = []string{"resume_file", "file"}

func (s *Server) analyzeResumeFile(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.opts.MaxUploadBytes)

	header, err := resumeFile(c)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, errorBody{
				Detail: fmt.Sprintf("File too large, the limit is %d bytes", tooLarge.Limit),
			})
			return
		}
		s.writeError(c, err)
		return
	}

	data, err := readUpload(header)
	if err != nil {
		s.writeError(c, badRequest("Could not read the uploaded file"))
		return
	}

	upload := services.ResumeUpload{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Data:        data,
	}

	res, err := s.analysis.AnalyzeFile(c.Request.Context(), currentUser(c), upload, c.PostForm("job_description"))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (s *Server) analyzeJobFit(c *gin.Context) {
	var req jobFitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.writeError(c, badRequest("Invalid JSON body"))
		return
	}

	res, err := s.analysis.AnalyzeText(c.Request.Context(), req.ResumeText, req.JobDescription)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (s *Server) aiHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":           "ok",
		"model_configured": s.analysis.ModelConfigured(),
	})
}

func resumeFile(c *gin.Context) (*multipart.FileHeader, error) {
	for _, field := range resumeFileFields {
		header, err := c.FormFile(field)
		if err == nil {
			return header, nil
		}
		if !errors.Is(err, http.ErrMissingFile) {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				return nil, err
			}
			return nil, badRequest("Invalid multipart form")
		}
	}
	return nil, badRequest("No file uploaded")
}

func readUpload(header *multipart.FileHeader) ([]byte, error) {
	f, err := header.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}
