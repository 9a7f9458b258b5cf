// Package rest exposes the jobtracker HTTP JSON API on top of gin.
package rest

import (
	"net/http"
	"time"

	"github.com/dmitrijs2005/jobtracker/internal/common"
	"github.com/dmitrijs2005/jobtracker/internal/logging"
	"github.com/dmitrijs2005/jobtracker/internal/server/auth"
	"github.com/dmitrijs2005/jobtracker/internal/server/services"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// DefaultMaxUploadBytes caps multipart resume uploads.
const DefaultMaxUploadBytes int64 = 10 << 20

type Options struct {
	CORSOrigins    []string
	MaxUploadBytes int64
}

type Server struct {
	users    *services.UserService
	jobs     *services.JobService
	analysis *services.AnalysisService
	tokens   *auth.TokenIssuer
	logger   logging.Logger
	opts     Options
}

func NewServer(
	users *services.UserService,
	jobs *services.JobService,
	analysis *services.AnalysisService,
	tokens *auth.TokenIssuer,
	logger logging.Logger,
	opts Options,
) *Server {
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = DefaultMaxUploadBytes
	}
	return &Server{
		users:    users,
		jobs:     jobs,
		analysis: analysis,
		tokens:   tokens,
		logger:   logger.With("module", "rest"),
		opts:     opts,
	}
}

// Handler builds the gin engine with every route registered.
func (s *Server) Handler() http.Handler {
	r := gin.New()
	r.Use(s.requestLogger(), gin.Recovery())
	r.MaxMultipartMemory = s.opts.MaxUploadBytes

	if len(s.opts.CORSOrigins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins:     s.opts.CORSOrigins,
			AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
			AllowHeaders:     []string{"Origin", "Content-Length", "Content-Type", common.AuthorizationHeaderName},
			ExposeHeaders:    []string{common.RequestIDHeaderName},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	r.GET("/health", s.health)

	authGroup := r.Group("/auth")
	{
		authGroup.POST("/signup", s.signup)
		authGroup.POST("/login", s.login)
		authGroup.GET("/me", s.authMiddleware(), s.me)
		authGroup.POST("/refresh", s.authMiddleware(), s.refresh)
	}

	jobs := r.Group("/api/jobs", s.authMiddleware())
	{
		jobs.GET("", s.listJobs)
		jobs.POST("", s.createJob)
		jobs.GET("/stats/summary", s.jobStats)
		jobs.GET("/:id", s.getJob)
		jobs.PUT("/:id", s.updateJob)
		jobs.DELETE("/:id", s.deleteJob)
	}

	r.GET("/api/ai/health", s.aiHealth)
	aiGroup := r.Group("/api/ai", s.authMiddleware())
	{
		aiGroup.POST("/analyze-resume-file", s.analyzeResumeFile)
		aiGroup.POST("/analyze-job-fit", s.analyzeJobFit)
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, errorBody{Detail: "Not Found"})
	})

	return r
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
