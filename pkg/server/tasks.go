package server

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"taskdeck/pkg/database"
	"taskdeck/pkg/models"
	"taskdeck/pkg/utils"
)

func (s *Server) handleListTasks(c *gin.Context) {
	tasks, err := database.LoadTasks(s.db, c.GetString(ctxUID), c.Query("q"))
	if err != nil {
		s.internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, tasks)
}

func (s *Server) handleCreateTask(c *gin.Context) {
	draft, ok := bindDraft(c)
	if !ok {
		return
	}
	task, err := database.AddTask(s.db, c.GetString(ctxUID), draft)
	if err != nil {
		s.internalError(c, err)
		return
	}
	c.JSON(http.StatusCreated, task)
}

func (s *Server) handleUpdateTask(c *gin.Context) {
	id, ok := taskID(c)
	if !ok {
		return
	}
	draft, ok := bindDraft(c)
	if !ok {
		return
	}
	task, err := database.UpdateTask(s.db, c.GetString(ctxUID), id, draft)
	if errors.Is(err, database.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "task not found"})
		return
	}
	if err != nil {
		s.internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

func (s *Server) handleDeleteTask(c *gin.Context) {
	id, ok := taskID(c)
	if !ok {
		return
	}
	err := database.DeleteTask(s.db, c.GetString(ctxUID), id)
	if errors.Is(err, database.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "task not found"})
		return
	}
	if err != nil {
		s.internalError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) internalError(c *gin.Context, err error) {
	utils.Error("%s %s: %v", c.Request.Method, c.Request.URL.Path, err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
}

func bindDraft(c *gin.Context) (models.Draft, bool) {
	var draft models.Draft
	if err := c.ShouldBindJSON(&draft); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid task: " + err.Error()})
		return models.Draft{}, false
	}
	draft = draft.Normalized()
	if err := draft.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return models.Draft{}, false
	}
	return draft, true
}

func taskID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid task id"})
		return 0, false
	}
	return id, true
}
