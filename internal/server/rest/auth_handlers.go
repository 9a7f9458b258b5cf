package rest

import (
	"net/http"

	"github.com/dmitrijs2005/jobtracker/internal/server/services"
	"github.com/gin-gonic/gin"
)

func (s *Server) signup(c *gin.Context) {
	var req services.SignupInput
	if err := c.ShouldBindJSON(&req); err != nil {
		s.writeError(c, badRequest("Invalid JSON body"))
		return
	}

	if _, err := s.users.Signup(c.Request.Context(), req); err != nil {
		s.writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, messageBody{Message: "User created successfully", Success: true})
}

func (s *Server) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.writeError(c, badRequest("Invalid JSON body"))
		return
	}

	session, err := s.users.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		s.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, newTokenResponse(session))
}

func (s *Server) me(c *gin.Context) {
	user, err := s.users.Me(c.Request.Context(), currentUser(c))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, newUserResponse(user))
}

func (s *Server) refresh(c *gin.Context) {
	session, err := s.users.Refresh(c.Request.Context(), currentUser(c))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, newTokenResponse(session))
}
