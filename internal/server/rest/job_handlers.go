package rest

import (
	"net/http"
	"strconv"

	"github.com/dmitrijs2005/jobtracker/internal/server/services"
	"github.com/gin-gonic/gin"
)

func (s *Server) listJobs(c *gin.Context) {
	page, err := queryInt(c, "page")
	if err != nil {
		s.writeError(c, err)
		return
	}
	size, err := queryInt(c, "size")
	if err != nil {
		s.writeError(c, err)
		return
	}

	res, err := s.jobs.List(c.Request.Context(), currentUser(c), services.ListParams{
		Page:    page,
		Size:    size,
		Status:  c.Query("status_filter"),
		Company: c.Query("company_filter"),
	})
	if err != nil {
		s.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, newJobListResponse(res))
}

func (s *Server) createJob(c *gin.Context) {
	var req services.JobInput
	if err := c.ShouldBindJSON(&req); err != nil {
		s.writeError(c, badRequest("Invalid JSON body"))
		return
	}

	job, err := s.jobs.Create(c.Request.Context(), currentUser(c), req)
	if err != nil {
		s.writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, newJobResponse(job))
}

func (s *Server) getJob(c *gin.Context) {
	job, err := s.jobs.Get(c.Request.Context(), currentUser(c), c.Param("id"))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, newJobResponse(job))
}

func (s *Server) updateJob(c *gin.Context) {
	var req services.JobUpdateInput
	if err := c.ShouldBindJSON(&req); err != nil {
		s.writeError(c, badRequest("Invalid JSON body"))
		return
	}

	job, err := s.jobs.Update(c.Request.Context(), currentUser(c), c.Param("id"), req)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, newJobResponse(job))
}

func (s *Server) deleteJob(c *gin.Context) {
	if err := s.jobs.Delete(c.Request.Context(), currentUser(c), c.Param("id")); err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, messageBody{Message: "Job application deleted successfully", Success: true})
}

func (s *Server) jobStats(c *gin.Context) {
	stats, err := s.jobs.Stats(c.Request.Context(), currentUser(c))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, newStatsResponse(stats))
}

// queryInt returns 0 for a missing parameter so the service default applies.
func queryInt(c *gin.Context, name string) (int, error) {
	raw, ok := c.GetQuery(name)
	if !ok || raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, badRequest("%s must be an integer", name)
	}
	if v == 0 {
		return 0, badRequest("%s must be at least 1", name)
	}
	return v, nil
}
