package store

import (
	"database/sql"
	"fmt"
	"strings"
	"time"
)

// ListProjects returns all projects with derived parent names and full
// sector paths.
func (s *Store) ListProjects() ([]Project, error) {
	rows, err := s.db.Query(`
		SELECT id, name, description, category, parent_id, created_at
		FROM projects
		ORDER BY id ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var projects []Project
	for rows.Next() {
		var p Project
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.Category, &p.ParentID, &p.CreatedAt); err != nil {
			return nil, err
		}
		projects = append(projects, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	resolvePaths(projects)
	return projects, nil
}

// GetProject returns one project by id, with its derived path.
func (s *Store) GetProject(id int64) (*Project, error) {
	projects, err := s.ListProjects()
	if err != nil {
		return nil, err
	}
	for i := range projects {
		if projects[i].ID == id {
			return &projects[i], nil
		}
	}
	return nil, fmt.Errorf("project %d: %w", id, ErrNotFound)
}

// CreateProject inserts a new project. Names are unique across the whole
// tree; a duplicate reports ErrConflict.
func (s *Store) CreateProject(p *Project) error {
	var existing int64
	err := s.db.QueryRow(`SELECT id FROM projects WHERE name = ?`, p.Name).Scan(&existing)
	if err == nil {
		return fmt.Errorf("project %q: %w", p.Name, ErrConflict)
	}
	if err != sql.ErrNoRows {
		return err
	}

	if p.Category == "" {
		p.Category = "General"
	}
	p.CreatedAt = time.Now().UTC()

	res, err := s.db.Exec(`
		INSERT INTO projects (name, description, category, parent_id, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, p.Name, p.Description, p.Category, p.ParentID, p.CreatedAt)
	if err != nil {
		return err
	}

	p.ID, err = res.LastInsertId()
	return err
}

// UpdateProject applies the allow-listed patch fields and returns the
// updated row.
func (s *Store) UpdateProject(id int64, patch ProjectPatch) (*Project, error) {
	var sets []string
	var args []any

	if patch.Name != nil {
		sets = append(sets, "name = ?")
		args = append(args, *patch.Name)
	}
	if patch.Description != nil {
		sets = append(sets, "description = ?")
		args = append(args, *patch.Description)
	}
	if patch.Category != nil {
		sets = append(sets, "category = ?")
		args = append(args, *patch.Category)
	}
	if patch.ParentID != nil {
		sets = append(sets, "parent_id = ?")
		args = append(args, *patch.ParentID)
	}

	if len(sets) > 0 {
		args = append(args, id)
		res, err := s.db.Exec("UPDATE projects SET "+strings.Join(sets, ", ")+" WHERE id = ?", args...)
		if err != nil {
			return nil, err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return nil, err
		}
		if n == 0 {
			return nil, fmt.Errorf("project %d: %w", id, ErrNotFound)
		}
	}

	return s.GetProject(id)
}

// DeleteProject removes a project, its tasks, and its descendant projects.
// The cascade covers children and grandchildren; see DESIGN.md for the
// depth decision.
func (s *Store) DeleteProject(id int64) error {
	var exists int64
	if err := s.db.QueryRow(`SELECT id FROM projects WHERE id = ?`, id).Scan(&exists); err != nil {
		if err == sql.ErrNoRows {
			return fmt.Errorf("project %d: %w", id, ErrNotFound)
		}
		return err
	}

	children, err := s.childIDs(id)
	if err != nil {
		return err
	}

	var grandchildren []int64
	for _, child := range children {
		ids, err := s.childIDs(child)
		if err != nil {
			return err
		}
		grandchildren = append(grandchildren, ids...)
	}

	// Leaf-first so the parent_id references stay valid at every step.
	doomed := append(append([]int64{}, grandchildren...), children...)
	doomed = append(doomed, id)

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, pid := range doomed {
		if _, err := tx.Exec(`DELETE FROM tasks WHERE project_id = ?`, pid); err != nil {
			return err
		}
		if _, err := tx.Exec(`DELETE FROM projects WHERE id = ?`, pid); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// ProjectTree returns the full hierarchy as nested nodes, top-level sectors
// first.
func (s *Store) ProjectTree() ([]*TreeNode, error) {
	projects, err := s.ListProjects()
	if err != nil {
		return nil, err
	}

	nodes := make(map[int64]*TreeNode, len(projects))
	for _, p := range projects {
		nodes[p.ID] = &TreeNode{ID: p.ID, Name: p.Name, ParentID: p.ParentID, Children: []*TreeNode{}}
	}

	var roots []*TreeNode
	for _, p := range projects {
		node := nodes[p.ID]
		if p.ParentID == nil {
			roots = append(roots, node)
			continue
		}
		parent, ok := nodes[*p.ParentID]
		if !ok {
			// Orphaned reference; surface it at top level rather than drop it.
			roots = append(roots, node)
			continue
		}
		parent.Children = append(parent.Children, node)
	}

	return roots, nil
}

func (s *Store) childIDs(parentID int64) ([]int64, error) {
	rows, err := s.db.Query(`SELECT id FROM projects WHERE parent_id = ?`, parentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// resolvePaths fills ParentName and Path for every project using a single
// id lookup map instead of per-node queries. A visited set guards against
// parent cycles, which would otherwise loop forever.
func resolvePaths(projects []Project) {
	byID := make(map[int64]*Project, len(projects))
	for i := range projects {
		byID[projects[i].ID] = &projects[i]
	}

	for i := range projects {
		p := &projects[i]

		if p.ParentID != nil {
			if parent, ok := byID[*p.ParentID]; ok {
				p.ParentName = parent.Name
			}
		}

		segments := []string{p.Name}
		visited := map[int64]bool{p.ID: true}
		cur := p
		for cur.ParentID != nil {
			parent, ok := byID[*cur.ParentID]
			if !ok || visited[parent.ID] {
				break
			}
			visited[parent.ID] = true
			segments = append([]string{parent.Name}, segments...)
			cur = parent
		}
		p.Path = strings.Join(segments, " > ")
	}
}
