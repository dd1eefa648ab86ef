package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

const taskColumns = `t.id, t.project_id, p.name, t.title, t.description, t.priority,
	t.status, t.subtasks, t.nudge_count, t.created_at, t.updated_at`

// ListTasks returns tasks matching the filter, newest first.
func (s *Store) ListTasks(filter TaskFilter) ([]Task, error) {
	var conds []string
	var args []any

	if filter.ProjectID != nil {
		conds = append(conds, "t.project_id = ?")
		args = append(args, *filter.ProjectID)
	}
	if filter.Status != "" {
		conds = append(conds, "t.status = ?")
		args = append(args, filter.Status)
	}
	if filter.Priority != "" {
		conds = append(conds, "t.priority = ?")
		args = append(args, filter.Priority)
	}

	query := `SELECT ` + taskColumns + `
		FROM tasks t
		LEFT JOIN projects p ON p.id = t.project_id`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY t.created_at DESC"

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	query += " LIMIT ? OFFSET ?"
	args = append(args, limit, filter.Offset)

	return s.queryTasks(query, args...)
}

// ActiveTasks returns every task not yet done, newest first.
func (s *Store) ActiveTasks() ([]Task, error) {
	return s.queryTasks(`SELECT `+taskColumns+`
		FROM tasks t
		LEFT JOIN projects p ON p.id = t.project_id
		WHERE t.status != ?
		ORDER BY t.created_at DESC`, StatusDone)
}

// GetTask returns one task by id.
func (s *Store) GetTask(id int64) (*Task, error) {
	tasks, err := s.queryTasks(`SELECT `+taskColumns+`
		FROM tasks t
		LEFT JOIN projects p ON p.id = t.project_id
		WHERE t.id = ?`, id)
	if err != nil {
		return nil, err
	}
	if len(tasks) == 0 {
		return nil, fmt.Errorf("task %d: %w", id, ErrNotFound)
	}
	return &tasks[0], nil
}

// CreateTask inserts a new task, filling defaults for priority and status.
func (s *Store) CreateTask(t *Task) error {
	if t.Priority == "" {
		t.Priority = PriorityMed
	}
	if t.Status == "" {
		t.Status = StatusTodo
	}
	if t.Subtasks == nil {
		t.Subtasks = []map[string]any{}
	}

	subtasksJSON, err := json.Marshal(t.Subtasks)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	t.CreatedAt = now
	t.UpdatedAt = now

	res, err := s.db.Exec(`
		INSERT INTO tasks (project_id, title, description, priority, status, subtasks, nudge_count, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, t.ProjectID, t.Title, t.Description, t.Priority, t.Status, string(subtasksJSON), t.NudgeCount, t.CreatedAt, t.UpdatedAt)
	if err != nil {
		return err
	}

	t.ID, err = res.LastInsertId()
	return err
}

// UpdateTask applies the allow-listed patch fields, bumps updated_at, and
// returns the updated row.
func (s *Store) UpdateTask(id int64, patch TaskPatch) (*Task, error) {
	var sets []string
	var args []any

	if patch.Title != nil {
		sets = append(sets, "title = ?")
		args = append(args, *patch.Title)
	}
	if patch.Description != nil {
		sets = append(sets, "description = ?")
		args = append(args, *patch.Description)
	}
	if patch.Priority != nil {
		sets = append(sets, "priority = ?")
		args = append(args, *patch.Priority)
	}
	if patch.Status != nil {
		sets = append(sets, "status = ?")
		args = append(args, *patch.Status)
	}
	if patch.ProjectID != nil {
		sets = append(sets, "project_id = ?")
		args = append(args, *patch.ProjectID)
	}
	if patch.Subtasks != nil {
		subtasksJSON, err := json.Marshal(*patch.Subtasks)
		if err != nil {
			return nil, err
		}
		sets = append(sets, "subtasks = ?")
		args = append(args, string(subtasksJSON))
	}
	if patch.NudgeCount != nil {
		sets = append(sets, "nudge_count = ?")
		args = append(args, *patch.NudgeCount)
	}

	if len(sets) > 0 {
		sets = append(sets, "updated_at = ?")
		args = append(args, time.Now().UTC(), id)

		res, err := s.db.Exec("UPDATE tasks SET "+strings.Join(sets, ", ")+" WHERE id = ?", args...)
		if err != nil {
			return nil, err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return nil, err
		}
		if n == 0 {
			return nil, fmt.Errorf("task %d: %w", id, ErrNotFound)
		}
	}

	return s.GetTask(id)
}

// DeleteTask removes a task.
func (s *Store) DeleteTask(id int64) error {
	res, err := s.db.Exec(`DELETE FROM tasks WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("task %d: %w", id, ErrNotFound)
	}
	return nil
}

// NudgeTask increments the task's nudge counter and returns the updated
// row.
func (s *Store) NudgeTask(id int64) (*Task, error) {
	res, err := s.db.Exec(`
		UPDATE tasks SET nudge_count = nudge_count + 1, updated_at = ? WHERE id = ?
	`, time.Now().UTC(), id)
	if err != nil {
		return nil, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, fmt.Errorf("task %d: %w", id, ErrNotFound)
	}
	return s.GetTask(id)
}

func (s *Store) queryTasks(query string, args ...any) ([]Task, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tasks []Task
	for rows.Next() {
		var t Task
		var projectName sql.NullString
		var subtasksJSON string

		err := rows.Scan(&t.ID, &t.ProjectID, &projectName, &t.Title, &t.Description,
			&t.Priority, &t.Status, &subtasksJSON, &t.NudgeCount, &t.CreatedAt, &t.UpdatedAt)
		if err != nil {
			return nil, err
		}

		t.ProjectName = projectName.String
		if err := json.Unmarshal([]byte(subtasksJSON), &t.Subtasks); err != nil {
			t.Subtasks = []map[string]any{}
		}
		if t.Subtasks == nil {
			t.Subtasks = []map[string]any{}
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}
