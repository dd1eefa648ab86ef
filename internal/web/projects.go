package web

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/brandon-relentnet/vector-tasks/internal/store"
)

// createProjectRequest is the POST body for a new project (sector).
type createProjectRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
	Category    string `json:"category"`
	ParentID    *int64 `json:"parent_id"`
}

// handleListProjects serves the project listing read-through: the cache
// holds the full listing snapshot and pagination slices it, so one snapshot
// serves every page.
func (s *Server) handleListProjects(c *gin.Context) {
	limit, offset := parsePagination(c, 50, 100)

	var projects []store.Project
	if !s.cache.GetProjects(c.Request.Context(), &projects) {
		var err error
		projects, err = s.store.ListProjects()
		if err != nil {
			respondStoreError(c, err)
			return
		}
		s.cache.SetProjects(c.Request.Context(), projects)
	}

	respondData(c, http.StatusOK, pageOf(projects, offset, limit))
}

func (s *Server) handleGetProject(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	project, err := s.store.GetProject(id)
	if err != nil {
		respondStoreError(c, err)
		return
	}
	respondData(c, http.StatusOK, project)
}

func (s *Server) handleCreateProject(c *gin.Context) {
	var req createProjectRequest
	if err := c.BindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, codeValidation, err.Error())
		return
	}

	project := &store.Project{
		Name:        req.Name,
		Description: req.Description,
		Category:    req.Category,
		ParentID:    req.ParentID,
	}
	if err := s.store.CreateProject(project); err != nil {
		respondStoreError(c, err)
		return
	}

	s.afterProjectMutation(c)
	respondData(c, http.StatusCreated, project)
}

func (s *Server) handleUpdateProject(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var patch store.ProjectPatch
	if err := c.BindJSON(&patch); err != nil {
		respondError(c, http.StatusBadRequest, codeValidation, err.Error())
		return
	}

	project, err := s.store.UpdateProject(id, patch)
	if err != nil {
		respondStoreError(c, err)
		return
	}

	s.afterProjectMutation(c)
	respondData(c, http.StatusOK, project)
}

func (s *Server) handleDeleteProject(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	if err := s.store.DeleteProject(id); err != nil {
		respondStoreError(c, err)
		return
	}

	s.afterProjectMutation(c)
	respondMessage(c, http.StatusOK, "Project deleted")
}

func (s *Server) handleProjectTree(c *gin.Context) {
	tree, err := s.store.ProjectTree()
	if err != nil {
		respondStoreError(c, err)
		return
	}
	respondData(c, http.StatusOK, tree)
}

// pageOf slices a cached snapshot for pagination.
func pageOf(projects []store.Project, offset, limit int) []store.Project {
	if offset >= len(projects) {
		return []store.Project{}
	}
	end := offset + limit
	if end > len(projects) {
		end = len(projects)
	}
	return projects[offset:end]
}
