package web

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/brandon-relentnet/vector-tasks/internal/calendar"
	"github.com/brandon-relentnet/vector-tasks/internal/store"
)

// addBriefingRequest is the POST body for a new briefing entry.
type addBriefingRequest struct {
	Slot    string `json:"slot" binding:"required"`
	Content string `json:"content" binding:"required"`
}

// handleGetDailyLog serves today's log through the cache. "Today" is the
// operational date: before the rollover hour it is still yesterday's log.
// No log yet is a normal state (the dashboard shows an empty day), so it
// renders as a null payload rather than a 404.
func (s *Server) handleGetDailyLog(c *gin.Context) {
	today := s.clock.Today()

	var cached store.DailyLog
	if s.cache.GetDailyLog(c.Request.Context(), today, &cached) {
		respondData(c, http.StatusOK, cached)
		return
	}

	log, err := s.store.GetDailyLog(calendar.FormatDate(today))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			respondData(c, http.StatusOK, nil)
			return
		}
		respondStoreError(c, err)
		return
	}

	s.cache.SetDailyLog(c.Request.Context(), today, log)
	respondData(c, http.StatusOK, log)
}

func (s *Server) handleAddBriefing(c *gin.Context) {
	var req addBriefingRequest
	if err := c.BindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, codeValidation, err.Error())
		return
	}
	if !store.ValidSlot(req.Slot) {
		respondError(c, http.StatusBadRequest, codeValidation, "slot must be Morning, Midday, Shutdown, or Night")
		return
	}

	briefing, err := s.store.AddBriefing(calendar.FormatDate(s.clock.Today()), req.Slot, req.Content)
	if err != nil {
		respondStoreError(c, err)
		return
	}

	s.afterDailyLogMutation(c)
	respondData(c, http.StatusCreated, briefing)
}

func (s *Server) handleDailyLogHistory(c *gin.Context) {
	limit, offset := parsePagination(c, 10, 50)

	logs, err := s.store.DailyLogHistory(store.HistoryFilter{
		Limit:      limit,
		Offset:     offset,
		HasMorning: c.Query("has_morning") == "true",
		HasNight:   c.Query("has_night") == "true",
	})
	if err != nil {
		respondStoreError(c, err)
		return
	}
	if logs == nil {
		logs = []store.DailyLog{}
	}
	respondData(c, http.StatusOK, logs)
}

func (s *Server) handleUpdateDailyLog(c *gin.Context) {
	var patch store.DailyLogPatch
	if err := c.BindJSON(&patch); err != nil {
		respondError(c, http.StatusBadRequest, codeValidation, err.Error())
		return
	}

	log, err := s.store.UpdateDailyLog(calendar.FormatDate(s.clock.Today()), patch)
	if err != nil {
		respondStoreError(c, err)
		return
	}

	s.afterDailyLogMutation(c)
	respondData(c, http.StatusOK, log)
}

func (s *Server) handleMarkGoal(c *gin.Context) {
	goal := c.Query("goal")
	if goal == "" {
		respondError(c, http.StatusBadRequest, codeValidation, "goal parameter required")
		return
	}

	log, err := s.store.MarkGoal(calendar.FormatDate(s.clock.Today()), goal)
	if err != nil {
		respondStoreError(c, err)
		return
	}

	s.afterDailyLogMutation(c)
	respondData(c, http.StatusOK, log)
}

func (s *Server) handleDeleteBriefing(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	if err := s.store.DeleteBriefing(id); err != nil {
		respondStoreError(c, err)
		return
	}

	s.afterDailyLogMutation(c)
	respondMessage(c, http.StatusOK, "Briefing deleted")
}

func (s *Server) handleDeleteDailyLog(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	if err := s.store.DeleteDailyLog(id); err != nil {
		respondStoreError(c, err)
		return
	}

	s.afterDailyLogMutation(c)
	respondMessage(c, http.StatusOK, "Daily log deleted")
}
