package rest

import (
	"errors"
	"net/http"

	"github.com/dmitrijs2005/jobtracker/internal/common"
	"github.com/gin-gonic/gin"
)

type errorBody struct {
	Detail  string `json:"detail"`
	Success bool   `json:"success"`
}

type messageBody struct {
	Message string `json:"message"`
	Success bool   `json:"success"`
}

// statusFor maps an error to its HTTP status and client-facing detail.
// Server errors never leak their text.
func statusFor(err error) (int, string) {
	var detail string
	var e *common.Error
	if errors.As(err, &e) {
		detail = e.Message
	}

	switch {
	case errors.Is(err, common.ErrorValidation), errors.Is(err, common.ErrorAlreadyExists):
		return http.StatusBadRequest, orDefault(detail, "Invalid request")
	case errors.Is(err, common.ErrorUnauthorized),
		errors.Is(err, common.ErrInvalidToken),
		errors.Is(err, common.ErrTokenExpired):
		return http.StatusUnauthorized, orDefault(detail, "Could not validate credentials")
	case errors.Is(err, common.ErrorNotFound):
		return http.StatusNotFound, orDefault(detail, "Not found")
	default:
		return http.StatusInternalServerError, "Internal server error"
	}
}

func (s *Server) writeError(c *gin.Context, err error) {
	status, detail := statusFor(err)

	if status == http.StatusInternalServerError {
		s.logger.Error(c.Request.Context(), "request failed",
			"request_id", requestIDFromContext(c.Request.Context()),
			"path", c.Request.URL.Path,
			"error", err)
	}
	if status == http.StatusUnauthorized {
		c.Header("WWW-Authenticate", common.BearerScheme)
	}

	c.AbortWithStatusJSON(status, errorBody{Detail: detail})
}

func badRequest(format string, args ...any) error {
	return common.Errorf(common.ErrorValidation, format, args...)
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
