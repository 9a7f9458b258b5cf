package rest

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/dmitrijs2005/jobtracker/internal/common"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type ctxKey string

const (
	userIDKey    ctxKey = "userID"
	requestIDKey ctxKey = "requestID"

	ginUserIDKey = "user_id"
)

// UserIDFromContext returns the authenticated user id stored by the auth
// middleware.
func UserIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(userIDKey).(string)
	return id, ok && id != ""
}

func requestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// requestLogger tags the request with an id (the caller's X-Request-ID when
// it is a UUID) and writes one log line once the request is done.
func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		id := c.GetHeader(common.RequestIDHeaderName)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}
		c.Header(common.RequestIDHeaderName, id)
		c.Request = c.Request.WithContext(context.WithValue(c.Request.Context(), requestIDKey, id))

		c.Next()

		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		args := []any{
			"request_id", id,
			"method", c.Request.Method,
			"path", path,
			"status", c.Writer.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
			"client_ip", c.ClientIP(),
		}
		if userID, ok := UserIDFromContext(c.Request.Context()); ok {
			args = append(args, "user_id", userID)
		}

		if c.Writer.Status() >= http.StatusInternalServerError {
			s.logger.Warn(c.Request.Context(), "request", args...)
			return
		}
		s.logger.Info(c.Request.Context(), "request", args...)
	}
}

// authMiddleware rejects the request with 401 unless it carries a valid
// bearer token.
func (s *Server) authMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c.GetHeader(common.AuthorizationHeaderName))
		if !ok {
			s.writeError(c, common.Errorf(common.ErrorUnauthorized, "Not authenticated"))
			return
		}

		claims, err := s.tokens.Verify(token)
		if err != nil {
			if errors.Is(err, common.ErrTokenExpired) {
				s.writeError(c, common.Errorf(common.ErrTokenExpired, "Token has expired"))
				return
			}
			s.writeError(c, common.Errorf(common.ErrInvalidToken, "Could not validate credentials"))
			return
		}

		c.Set(ginUserIDKey, claims.UserID)
		c.Request = c.Request.WithContext(context.WithValue(c.Request.Context(), userIDKey, claims.UserID))
		c.Next()
	}
}

func bearerToken(header string) (string, bool) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, common.BearerScheme) {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// currentUser is only called behind authMiddleware.
func currentUser(c *gin.Context) string {
	return c.GetString(ginUserIDKey)
}
