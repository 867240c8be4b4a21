// internal/repository/tasks.go
package repository

import (
	"context"
	"fmt"
	"sort"
	"time"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"

	"github.com/gurkanbulca/teamboard/internal/apperr"
	"github.com/gurkanbulca/teamboard/internal/database"
	"github.com/gurkanbulca/teamboard/internal/models"
)

var taskColumns = []string{
	"id", "project_id", "title", "description", "status", "priority",
	"assignee_id", "start_date", "end_date", "position", "created_at", "updated_at",
}

const selectTask = `SELECT id, project_id, title, description, status, priority,
	assignee_id, start_date, end_date, position, created_at, updated_at FROM tasks`

// TaskFilter narrows ListTasks. Nil fields match everything.
type TaskFilter struct {
	ProjectID  uuid.UUID
	Status     *models.Status
	AssigneeID *uuid.UUID
}

func (q *Queries) InsertTask(ctx context.Context, t *models.Task) error {
	_, err := q.exec(ctx,
		`INSERT INTO tasks (id, project_id, title, description, status, priority,
			assignee_id, start_date, end_date, position, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.ProjectID, t.Title, t.Description, string(t.Status), string(t.Priority),
		t.AssigneeID, t.StartDate, t.EndDate, t.Position, t.CreatedAt, t.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert task: %w", err)
	}
	return nil
}

func (q *Queries) TaskByID(ctx context.Context, id uuid.UUID) (*models.Task, error) {
	var t models.Task
	if err := q.get(ctx, &t, selectTask+` WHERE id = ?`, id); err != nil {
		return nil, fmt.Errorf("get task: %w", err)
	}
	return &t, nil
}

// UpdateTask writes only the fields set in patch
func (q *Queries) UpdateTask(ctx context.Context, id uuid.UUID, patch models.TaskPatch, now time.Time) error {
	upd := q.builder().Update(database.TasksTable).Set("updated_at", now)

	if patch.Title != nil {
		upd.Set("title", *patch.Title)
	}
	if patch.Description != nil {
		upd.Set("description", *patch.Description)
	}
	if patch.Status != nil {
		upd.Set("status", string(*patch.Status))
	}
	if patch.Priority != nil {
		upd.Set("priority", string(*patch.Priority))
	}
	switch {
	case patch.ClearAssignee:
		upd.SetNull("assignee_id")
	case patch.AssigneeID != nil:
		upd.Set("assignee_id", *patch.AssigneeID)
	}
	switch {
	case patch.ClearStartDate:
		upd.SetNull("start_date")
	case patch.StartDate != nil:
		upd.Set("start_date", *patch.StartDate)
	}
	switch {
	case patch.ClearEndDate:
		upd.SetNull("end_date")
	case patch.EndDate != nil:
		upd.Set("end_date", *patch.EndDate)
	}

	query, args := upd.Where(entsql.EQ("id", id)).Query()
	n, err := q.execBuilt(ctx, query, args)
	if err != nil {
		return fmt.Errorf("update task: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("update task: %w", apperr.ErrNotFound)
	}
	return nil
}

// SetPlacement moves a task to a column slot
func (q *Queries) SetPlacement(ctx context.Context, id uuid.UUID, status models.Status, position int, now time.Time) error {
	n, err := q.exec(ctx,
		`UPDATE tasks SET status = ?, position = ?, updated_at = ? WHERE id = ?`,
		string(status), position, now, id)
	if err != nil {
		return fmt.Errorf("place task: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("place task: %w", apperr.ErrNotFound)
	}
	return nil
}

// ColumnTasks returns one column in display order
func (q *Queries) ColumnTasks(ctx context.Context, projectID uuid.UUID, status models.Status) ([]models.Task, error) {
	var tasks []models.Task
	err := q.selectAll(ctx, &tasks,
		selectTask+` WHERE project_id = ? AND status = ? ORDER BY position, created_at, id`,
		projectID, string(status))
	if err != nil {
		return nil, fmt.Errorf("list column: %w", err)
	}
	return tasks, nil
}

// NextPosition is the slot after the last task of a column
func (q *Queries) NextPosition(ctx context.Context, projectID uuid.UUID, status models.Status) (int, error) {
	var pos int
	err := q.get(ctx, &pos,
		`SELECT COALESCE(MAX(position) + 1, 0) FROM tasks WHERE project_id = ? AND status = ?`,
		projectID, string(status))
	if err != nil {
		return 0, fmt.Errorf("select position: %w", err)
	}
	return pos, nil
}

func (q *Queries) DeleteTask(ctx context.Context, id uuid.UUID) error {
	n, err := q.exec(ctx, `DELETE FROM tasks WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("delete task: %w", apperr.ErrNotFound)
	}
	return nil
}

// ListTasks returns a project's tasks in board order: column, then position
func (q *Queries) ListTasks(ctx context.Context, filter TaskFilter) ([]models.Task, error) {
	preds := []*entsql.Predicate{entsql.EQ("project_id", filter.ProjectID)}
	if filter.Status != nil {
		preds = append(preds, entsql.EQ("status", string(*filter.Status)))
	}
	if filter.AssigneeID != nil {
		preds = append(preds, entsql.EQ("assignee_id", *filter.AssigneeID))
	}

	query, args := q.builder().
		Select(taskColumns...).
		From(entsql.Table(database.TasksTable)).
		Where(entsql.And(preds...)).
		OrderBy("position", "created_at", "id").
		Query()

	var tasks []models.Task
	rows, err := q.q.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query tasks: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var t models.Task
		if err := rows.StructScan(&t); err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("query tasks: %w", err)
	}

	sort.SliceStable(tasks, func(i, j int) bool {
		return tasks[i].Status.Rank() < tasks[j].Status.Rank()
	})
	return tasks, nil
}

// TasksAssignedTo lists tasks assigned to the user across every project
func (q *Queries) TasksAssignedTo(ctx context.Context, userID uuid.UUID) ([]models.Task, error) {
	var tasks []models.Task
	err := q.selectAll(ctx, &tasks,
		selectTask+` WHERE assignee_id = ? ORDER BY end_date, created_at, id`, userID)
	if err != nil {
		return nil, fmt.Errorf("list assigned tasks: %w", err)
	}
	return tasks, nil
}

// UnassignUser clears the assignee on every task held by the user
func (q *Queries) UnassignUser(ctx context.Context, userID uuid.UUID, now time.Time) error {
	_, err := q.exec(ctx,
		`UPDATE tasks SET assignee_id = NULL, updated_at = ? WHERE assignee_id = ?`, now, userID)
	if err != nil {
		return fmt.Errorf("unassign user: %w", err)
	}
	return nil
}

// UnassignUserInProject clears the user's assignments inside one project
func (q *Queries) UnassignUserInProject(ctx context.Context, projectID, userID uuid.UUID, now time.Time) error {
	_, err := q.exec(ctx,
		`UPDATE tasks SET assignee_id = NULL, updated_at = ? WHERE project_id = ? AND assignee_id = ?`,
		now, projectID, userID)
	if err != nil {
		return fmt.Errorf("unassign user: %w", err)
	}
	return nil
}
