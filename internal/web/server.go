// Package web exposes the task-tracking API over HTTP. Handlers orchestrate
// the store, cache, and notifier per request: reads go through the cache,
// mutations write the store first, then invalidate the affected cache key,
// then broadcast a change event. That ordering is the system's one hard
// consistency rule: invalidating before the write commits would let a
// concurrent reader repopulate the cache with stale data.
package web

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/brandon-relentnet/vector-tasks/internal/cache"
	"github.com/brandon-relentnet/vector-tasks/internal/calendar"
	"github.com/brandon-relentnet/vector-tasks/internal/notify"
	"github.com/brandon-relentnet/vector-tasks/internal/store"
)

// Store is the persistence surface the handlers consume.
type Store interface {
	ListProjects() ([]store.Project, error)
	GetProject(id int64) (*store.Project, error)
	CreateProject(p *store.Project) error
	UpdateProject(id int64, patch store.ProjectPatch) (*store.Project, error)
	DeleteProject(id int64) error
	ProjectTree() ([]*store.TreeNode, error)

	ListTasks(filter store.TaskFilter) ([]store.Task, error)
	ActiveTasks() ([]store.Task, error)
	GetTask(id int64) (*store.Task, error)
	CreateTask(t *store.Task) error
	UpdateTask(id int64, patch store.TaskPatch) (*store.Task, error)
	DeleteTask(id int64) error
	NudgeTask(id int64) (*store.Task, error)

	GetDailyLog(date string) (*store.DailyLog, error)
	AddBriefing(date, slot, content string) (*store.Briefing, error)
	DeleteBriefing(id int64) error
	DailyLogHistory(filter store.HistoryFilter) ([]store.DailyLog, error)
	UpdateDailyLog(date string, patch store.DailyLogPatch) (*store.DailyLog, error)
	MarkGoal(date, goal string) (*store.DailyLog, error)
	DeleteDailyLog(id int64) error
}

// Server is the Vector Tasks API server
type Server struct {
	store    Store
	cache    *cache.Service
	notifier *notify.Notifier
	clock    *calendar.Clock
	router   *gin.Engine
}

// NewServer wires the handlers onto a router. The cache service and
// notifier are constructed once at process start and shared by every
// request.
func NewServer(st Store, cacheSvc *cache.Service, notifier *notify.Notifier, clock *calendar.Clock) *Server {
	router := gin.Default()

	s := &Server{
		store:    st,
		cache:    cacheSvc,
		notifier: notifier,
		clock:    clock,
		router:   router,
	}
	s.registerRoutes(router)
	return s
}

func (s *Server) registerRoutes(router *gin.Engine) {
	router.GET("/health", s.handleHealth)
	router.GET("/ws", s.handleWS)

	api := router.Group("/api/v1")
	s.registerAPI(api)

	// Legacy unversioned paths kept as thin aliases onto the same handlers.
	legacy := router.Group("")
	s.registerAPI(legacy)
}

func (s *Server) registerAPI(g *gin.RouterGroup) {
	projects := g.Group("/projects")
	{
		projects.GET("", s.handleListProjects)
		projects.GET("/tree", s.handleProjectTree)
		projects.GET("/:id", s.handleGetProject)
		projects.POST("", s.handleCreateProject)
		projects.PATCH("/:id", s.handleUpdateProject)
		projects.DELETE("/:id", s.handleDeleteProject)
	}

	tasks := g.Group("/tasks")
	{
		tasks.GET("", s.handleListTasks)
		tasks.GET("/active", s.handleActiveTasks)
		tasks.GET("/:id", s.handleGetTask)
		tasks.POST("", s.handleCreateTask)
		tasks.PATCH("/:id", s.handleUpdateTask)
		tasks.DELETE("/:id", s.handleDeleteTask)
		tasks.POST("/:id/nudge", s.handleNudgeTask)
	}

	dailyLog := g.Group("/daily-log")
	{
		dailyLog.GET("", s.handleGetDailyLog)
		dailyLog.GET("/history", s.handleDailyLogHistory)
		dailyLog.POST("/briefing", s.handleAddBriefing)
		dailyLog.POST("/update", s.handleUpdateDailyLog)
		dailyLog.POST("/mark-goal", s.handleMarkGoal)
		dailyLog.DELETE("/briefing/:id", s.handleDeleteBriefing)
		dailyLog.DELETE("/:id", s.handleDeleteDailyLog)
	}

	g.POST("/admin/flush-cache", s.handleFlushCache)
}

// Run starts the HTTP server
func (s *Server) Run(addr string) error {
	return s.router.Run(addr)
}

// afterProjectMutation runs the post-write steps shared by every project
// and task mutation: drop the listing snapshot, then wake the dashboards.
// Must only be called after the store write has committed.
func (s *Server) afterProjectMutation(c *gin.Context) {
	s.cache.InvalidateProjects(c.Request.Context())
	s.notifier.Broadcast(notify.NewEvent())
}

// afterDailyLogMutation is the daily-log counterpart; only the mutated
// date's snapshot is dropped.
func (s *Server) afterDailyLogMutation(c *gin.Context) {
	s.cache.InvalidateDailyLog(c.Request.Context(), s.clock.Today())
	s.notifier.Broadcast(notify.NewEvent())
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handleFlushCache(c *gin.Context) {
	s.cache.InvalidateAll(c.Request.Context())
	respondMessage(c, http.StatusOK, "Caches flushed")
}
