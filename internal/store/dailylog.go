package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// legacySlotColumn maps a briefing slot to the daily_logs column older
// dashboard builds still read. Kept in sync on briefing add/delete.
func legacySlotColumn(slot string) (string, bool) {
	switch slot {
	case SlotMorning:
		return "morning_briefing", true
	case SlotMidday:
		return "midday_briefing", true
	case SlotShutdown:
		return "shutdown_briefing", true
	case SlotNight:
		return "nightly_reflection", true
	}
	return "", false
}

// GetDailyLog returns the log for an ISO date with its briefings, newest
// briefing first. Reports ErrNotFound when no log exists for that date.
func (s *Store) GetDailyLog(date string) (*DailyLog, error) {
	row := s.db.QueryRow(`
		SELECT id, date, big_win, starting_nudge, morning_briefing, midday_briefing,
			shutdown_briefing, nightly_reflection, goals_for_tomorrow, timer_end,
			reflections, created_at
		FROM daily_logs WHERE date = ?
	`, date)

	log, err := scanDailyLog(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("daily log %s: %w", date, ErrNotFound)
		}
		return nil, err
	}

	if err := s.loadBriefings(log); err != nil {
		return nil, err
	}
	return log, nil
}

// GetOrCreateDailyLog returns the log for date, creating an empty one if
// none exists yet.
func (s *Store) GetOrCreateDailyLog(date string) (*DailyLog, error) {
	log, err := s.GetDailyLog(date)
	if err == nil {
		return log, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	_, err = s.db.Exec(`
		INSERT INTO daily_logs (date, created_at) VALUES (?, ?)
	`, date, time.Now().UTC())
	if err != nil {
		return nil, err
	}
	return s.GetDailyLog(date)
}

// AddBriefing appends a briefing to the log for date, creating the log if
// needed, and mirrors the content into the legacy per-slot column.
func (s *Store) AddBriefing(date, slot, content string) (*Briefing, error) {
	log, err := s.GetOrCreateDailyLog(date)
	if err != nil {
		return nil, err
	}

	b := Briefing{
		DailyLogID: log.ID,
		Slot:       slot,
		Content:    content,
		CreatedAt:  time.Now().UTC(),
	}
	res, err := s.db.Exec(`
		INSERT INTO briefings (daily_log_id, slot, content, created_at)
		VALUES (?, ?, ?, ?)
	`, b.DailyLogID, b.Slot, b.Content, b.CreatedAt)
	if err != nil {
		return nil, err
	}
	b.ID, err = res.LastInsertId()
	if err != nil {
		return nil, err
	}

	if col, ok := legacySlotColumn(slot); ok {
		if _, err := s.db.Exec(`UPDATE daily_logs SET `+col+` = ? WHERE id = ?`, content, log.ID); err != nil {
			return nil, err
		}
	}

	return &b, nil
}

// DeleteBriefing removes a briefing and clears the legacy column for its
// slot.
func (s *Store) DeleteBriefing(id int64) error {
	var slot string
	var logID int64
	err := s.db.QueryRow(`SELECT slot, daily_log_id FROM briefings WHERE id = ?`, id).Scan(&slot, &logID)
	if err != nil {
		if err == sql.ErrNoRows {
			return fmt.Errorf("briefing %d: %w", id, ErrNotFound)
		}
		return err
	}

	if _, err := s.db.Exec(`DELETE FROM briefings WHERE id = ?`, id); err != nil {
		return err
	}

	if col, ok := legacySlotColumn(slot); ok {
		if _, err := s.db.Exec(`UPDATE daily_logs SET `+col+` = NULL WHERE id = ?`, logID); err != nil {
			return err
		}
	}

	return nil
}

// DailyLogHistory returns past logs, newest date first, without briefings.
func (s *Store) DailyLogHistory(filter HistoryFilter) ([]DailyLog, error) {
	var conds []string
	if filter.HasMorning {
		conds = append(conds, "morning_briefing IS NOT NULL")
	}
	if filter.HasNight {
		conds = append(conds, "nightly_reflection IS NOT NULL")
	}

	query := `
		SELECT id, date, big_win, starting_nudge, morning_briefing, midday_briefing,
			shutdown_briefing, nightly_reflection, goals_for_tomorrow, timer_end,
			reflections, created_at
		FROM daily_logs`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY date DESC LIMIT ? OFFSET ?"

	limit := filter.Limit
	if limit <= 0 {
		limit = 10
	}

	rows, err := s.db.Query(query, limit, filter.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var logs []DailyLog
	for rows.Next() {
		log, err := scanDailyLog(rows)
		if err != nil {
			return nil, err
		}
		logs = append(logs, *log)
	}
	return logs, rows.Err()
}

// UpdateDailyLog applies the allow-listed patch to the log for date,
// creating the log if none exists, and returns the updated row with
// briefings.
func (s *Store) UpdateDailyLog(date string, patch DailyLogPatch) (*DailyLog, error) {
	log, err := s.GetOrCreateDailyLog(date)
	if err != nil {
		return nil, err
	}

	var sets []string
	var args []any

	if patch.BigWin != nil {
		sets = append(sets, "big_win = ?")
		args = append(args, *patch.BigWin)
	}
	if patch.StartingNudge != nil {
		sets = append(sets, "starting_nudge = ?")
		args = append(args, *patch.StartingNudge)
	}
	if patch.GoalsForTomorrow != nil {
		goalsJSON, err := json.Marshal(*patch.GoalsForTomorrow)
		if err != nil {
			return nil, err
		}
		sets = append(sets, "goals_for_tomorrow = ?")
		args = append(args, string(goalsJSON))
	}
	if patch.Reflections != nil {
		sets = append(sets, "reflections = ?")
		args = append(args, *patch.Reflections)
	}
	if patch.TimerEnd != nil {
		sets = append(sets, "timer_end = ?")
		args = append(args, *patch.TimerEnd)
	}

	if len(sets) > 0 {
		args = append(args, log.ID)
		if _, err := s.db.Exec("UPDATE daily_logs SET "+strings.Join(sets, ", ")+" WHERE id = ?", args...); err != nil {
			return nil, err
		}
	}

	return s.GetDailyLog(date)
}

// MarkGoal appends a completed goal to the pipe-separated reflections list
// for date. Marking the same goal twice is a no-op.
func (s *Store) MarkGoal(date, goal string) (*DailyLog, error) {
	log, err := s.GetOrCreateDailyLog(date)
	if err != nil {
		return nil, err
	}

	var completed []string
	for _, g := range strings.Split(log.Reflections, "|") {
		if g != "" {
			completed = append(completed, g)
		}
	}

	already := false
	for _, g := range completed {
		if g == goal {
			already = true
			break
		}
	}
	if !already {
		completed = append(completed, goal)
		joined := strings.Join(completed, "|")
		if _, err := s.db.Exec(`UPDATE daily_logs SET reflections = ? WHERE id = ?`, joined, log.ID); err != nil {
			return nil, err
		}
	}

	return s.GetDailyLog(date)
}

// DeleteDailyLog removes a log and all its briefings by id.
func (s *Store) DeleteDailyLog(id int64) error {
	var exists int64
	if err := s.db.QueryRow(`SELECT id FROM daily_logs WHERE id = ?`, id).Scan(&exists); err != nil {
		if err == sql.ErrNoRows {
			return fmt.Errorf("daily log %d: %w", id, ErrNotFound)
		}
		return err
	}

	if _, err := s.db.Exec(`DELETE FROM briefings WHERE daily_log_id = ?`, id); err != nil {
		return err
	}
	_, err := s.db.Exec(`DELETE FROM daily_logs WHERE id = ?`, id)
	return err
}

func (s *Store) loadBriefings(log *DailyLog) error {
	rows, err := s.db.Query(`
		SELECT id, daily_log_id, slot, content, created_at
		FROM briefings
		WHERE daily_log_id = ?
		ORDER BY created_at DESC, id DESC
	`, log.ID)
	if err != nil {
		return err
	}
	defer rows.Close()

	log.Briefings = []Briefing{}
	for rows.Next() {
		var b Briefing
		if err := rows.Scan(&b.ID, &b.DailyLogID, &b.Slot, &b.Content, &b.CreatedAt); err != nil {
			return err
		}
		log.Briefings = append(log.Briefings, b)
	}
	return rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDailyLog(row rowScanner) (*DailyLog, error) {
	var log DailyLog
	var goalsJSON string

	err := row.Scan(&log.ID, &log.Date, &log.BigWin, &log.StartingNudge,
		&log.MorningBriefing, &log.MiddayBriefing, &log.ShutdownBriefing,
		&log.NightlyReflection, &goalsJSON, &log.TimerEnd, &log.Reflections,
		&log.CreatedAt)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(goalsJSON), &log.GoalsForTomorrow); err != nil {
		log.GoalsForTomorrow = []string{}
	}
	if log.GoalsForTomorrow == nil {
		log.GoalsForTomorrow = []string{}
	}
	log.Briefings = []Briefing{}
	return &log, nil
}
