package repository

import (
	"context"
	"fmt"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"

	"github.com/gurkanbulca/teamboard/internal/apperr"
	"github.com/gurkanbulca/teamboard/internal/database"
	"github.com/gurkanbulca/teamboard/internal/models"
)

var projectColumns = []string{
	"id", "owner_id", "name", "color", "invitation_code", "task_count", "created_at", "updated_at",
}

const selectProject = `SELECT id, owner_id, name, color, invitation_code, task_count, created_at, updated_at FROM projects`

// CreateProject inserts p. A duplicate invitation code surfaces as apperr.ErrConflict.
func (q *Queries) CreateProject(ctx context.Context, p *models.Project) error {
	_, err := q.exec(ctx,
		`INSERT INTO projects (id, owner_id, name, color, invitation_code, task_count, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.OwnerID, p.Name, p.Color, p.InvitationCode, p.TaskCount, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert project: %w", err)
	}
	return nil
}

func (q *Queries) ProjectByID(ctx context.Context, id uuid.UUID) (*models.Project, error) {
	var p models.Project
	if err := q.get(ctx, &p, selectProject+` WHERE id = ?`, id); err != nil {
		return nil, fmt.Errorf("get project: %w", err)
	}
	return &p, nil
}

func (q *Queries) ProjectByCode(ctx context.Context, code string) (*models.Project, error) {
	var p models.Project
	if err := q.get(ctx, &p, selectProject+` WHERE invitation_code = ?`, code); err != nil {
		return nil, fmt.Errorf("get project by code: %w", err)
	}
	return &p, nil
}

// LockProject reads the project row and, where the store supports it, holds
// a row lock until the surrounding transaction ends. Task ordinal rewrites
// for one project are serialized through this lock.
func (q *Queries) LockProject(ctx context.Context, id uuid.UUID) (*models.Project, error) {
	sel := q.builder().
		Select(projectColumns...).
		From(entsql.Table(database.ProjectsTable)).
		Where(entsql.EQ("id", id))
	if q.dialect == dialect.Postgres {
		sel.ForUpdate()
	}
	query, args := sel.Query()

	var p models.Project
	if err := q.getBuilt(ctx, &p, query, args); err != nil {
		return nil, fmt.Errorf("lock project: %w", err)
	}
	return &p, nil
}

// ProjectsForUser lists projects the user owns or has joined, oldest first
func (q *Queries) ProjectsForUser(ctx context.Context, userID uuid.UUID) ([]models.Project, error) {
	var projects []models.Project
	err := q.selectAll(ctx, &projects, selectProject+`
		WHERE owner_id = ?
		   OR id IN (SELECT project_id FROM project_memberships WHERE user_id = ?)
		ORDER BY created_at, id`, userID, userID)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	return projects, nil
}

func (q *Queries) ProjectIDsOwnedBy(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	if err := q.selectAll(ctx, &ids, `SELECT id FROM projects WHERE owner_id = ?`, userID); err != nil {
		return nil, fmt.Errorf("list owned projects: %w", err)
	}
	return ids, nil
}

// DeleteProject removes the project's tasks, memberships and the project row.
// Callers run it inside a transaction so the cascade is all-or-nothing.
func (q *Queries) DeleteProject(ctx context.Context, id uuid.UUID) error {
	if _, err := q.exec(ctx, `DELETE FROM tasks WHERE project_id = ?`, id); err != nil {
		return fmt.Errorf("delete project tasks: %w", err)
	}
	if _, err := q.exec(ctx, `DELETE FROM project_memberships WHERE project_id = ?`, id); err != nil {
		return fmt.Errorf("delete project memberships: %w", err)
	}
	n, err := q.exec(ctx, `DELETE FROM projects WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete project: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("delete project: %w", apperr.ErrNotFound)
	}
	return nil
}

// AdjustTaskCount moves the cached task count by delta
func (q *Queries) AdjustTaskCount(ctx context.Context, id uuid.UUID, delta int, now time.Time) error {
	n, err := q.exec(ctx,
		`UPDATE projects SET task_count = task_count + ?, updated_at = ? WHERE id = ?`,
		delta, now, id)
	if err != nil {
		return fmt.Errorf("adjust task count: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("adjust task count: %w", apperr.ErrNotFound)
	}
	return nil
}

// RecountTasks returns the cached count and the live COUNT(*) for a project
func (q *Queries) RecountTasks(ctx context.Context, id uuid.UUID) (cached, actual int, err error) {
	var row struct {
		Cached int `db:"task_count"`
		Actual int `db:"actual"`
	}
	err = q.get(ctx, &row, `
		SELECT p.task_count, (SELECT COUNT(*) FROM tasks t WHERE t.project_id = p.id) AS actual
		FROM projects p WHERE p.id = ?`, id)
	if err != nil {
		return 0, 0, fmt.Errorf("recount tasks: %w", err)
	}
	return row.Cached, row.Actual, nil
}

func (q *Queries) getBuilt(ctx context.Context, dest any, query string, args []any) error {
	// ent renders dialect placeholders already; bypass Rebind.
	rows, err := q.q.QueryxContext(ctx, query, args...)
	if err != nil {
		return err
	}
	defer rows.Close()
	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return err
		}
		return apperr.ErrNotFound
	}
	return rows.StructScan(dest)
}
