package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"taskdeck/pkg/database"
)

type userRequest struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

func (s *Server) handleCreateUser(c *gin.Context) {
	var req userRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.ID) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "id, email and name are required"})
		return
	}
	if req.ID != c.GetString(ctxUID) {
		c.JSON(http.StatusForbidden, gin.H{"error": "cannot register another user"})
		return
	}

	created, err := database.AddUser(s.db, database.User{ID: req.ID, Email: req.Email, Name: req.Name})
	if err != nil {
		s.internalError(c, err)
		return
	}
	if !created {
		c.JSON(http.StatusConflict, gin.H{"error": "user already registered"})
		return
	}
	c.JSON(http.StatusCreated, req)
}
