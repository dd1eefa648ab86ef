package web

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/brandon-relentnet/vector-tasks/internal/store"
)

// createTaskRequest is the POST body for a new task (quest).
type createTaskRequest struct {
	Title       string           `json:"title" binding:"required"`
	Description string           `json:"description"`
	Priority    string           `json:"priority"`
	Status      string           `json:"status"`
	ProjectID   *int64           `json:"project_id"`
	Subtasks    []map[string]any `json:"subtasks"`
}

func (s *Server) handleListTasks(c *gin.Context) {
	limit, offset := parsePagination(c, 50, 100)

	filter := store.TaskFilter{
		Status:   c.Query("status"),
		Priority: c.Query("priority"),
		Limit:    limit,
		Offset:   offset,
	}
	if raw := c.Query("project_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			respondError(c, http.StatusBadRequest, codeValidation, "invalid project_id")
			return
		}
		filter.ProjectID = &id
	}
	if filter.Status != "" && !store.ValidStatus(filter.Status) {
		respondError(c, http.StatusBadRequest, codeValidation, "status must be Todo, Working, or Done")
		return
	}
	if filter.Priority != "" && !store.ValidPriority(filter.Priority) {
		respondError(c, http.StatusBadRequest, codeValidation, "priority must be Low, Med, or High")
		return
	}

	tasks, err := s.store.ListTasks(filter)
	if err != nil {
		respondStoreError(c, err)
		return
	}
	if tasks == nil {
		tasks = []store.Task{}
	}
	respondData(c, http.StatusOK, tasks)
}

func (s *Server) handleActiveTasks(c *gin.Context) {
	tasks, err := s.store.ActiveTasks()
	if err != nil {
		respondStoreError(c, err)
		return
	}
	if tasks == nil {
		tasks = []store.Task{}
	}
	respondData(c, http.StatusOK, tasks)
}

func (s *Server) handleGetTask(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	task, err := s.store.GetTask(id)
	if err != nil {
		respondStoreError(c, err)
		return
	}
	respondData(c, http.StatusOK, task)
}

func (s *Server) handleCreateTask(c *gin.Context) {
	var req createTaskRequest
	if err := c.BindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, codeValidation, err.Error())
		return
	}
	if req.Priority != "" && !store.ValidPriority(req.Priority) {
		respondError(c, http.StatusBadRequest, codeValidation, "priority must be Low, Med, or High")
		return
	}
	if req.Status != "" && !store.ValidStatus(req.Status) {
		respondError(c, http.StatusBadRequest, codeValidation, "status must be Todo, Working, or Done")
		return
	}

	task := &store.Task{
		Title:       req.Title,
		Description: req.Description,
		Priority:    req.Priority,
		Status:      req.Status,
		ProjectID:   req.ProjectID,
		Subtasks:    req.Subtasks,
	}
	if err := s.store.CreateTask(task); err != nil {
		respondStoreError(c, err)
		return
	}

	// Task mutations invalidate the project listing too: listings embed
	// task-derived aggregates.
	s.afterProjectMutation(c)
	respondData(c, http.StatusCreated, task)
}

func (s *Server) handleUpdateTask(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var patch store.TaskPatch
	if err := c.BindJSON(&patch); err != nil {
		respondError(c, http.StatusBadRequest, codeValidation, err.Error())
		return
	}
	if patch.Priority != nil && !store.ValidPriority(*patch.Priority) {
		respondError(c, http.StatusBadRequest, codeValidation, "priority must be Low, Med, or High")
		return
	}
	if patch.Status != nil && !store.ValidStatus(*patch.Status) {
		respondError(c, http.StatusBadRequest, codeValidation, "status must be Todo, Working, or Done")
		return
	}

	task, err := s.store.UpdateTask(id, patch)
	if err != nil {
		respondStoreError(c, err)
		return
	}

	s.afterProjectMutation(c)
	respondData(c, http.StatusOK, task)
}

func (s *Server) handleDeleteTask(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	if err := s.store.DeleteTask(id); err != nil {
		respondStoreError(c, err)
		return
	}

	s.afterProjectMutation(c)
	respondMessage(c, http.StatusOK, "Task deleted")
}

func (s *Server) handleNudgeTask(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	task, err := s.store.NudgeTask(id)
	if err != nil {
		respondStoreError(c, err)
		return
	}

	s.afterProjectMutation(c)
	respondData(c, http.StatusOK, task)
}
