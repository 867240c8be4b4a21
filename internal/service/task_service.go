// internal/service/task_service.go
package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"google.golang.org/protobuf/types/known/emptypb"

	taskboardv1 "github.com/gurkanbulca/teamboard/api/taskboard/v1"
	"github.com/gurkanbulca/teamboard/internal/apperr"
	"github.com/gurkanbulca/teamboard/internal/models"
	"github.com/gurkanbulca/teamboard/internal/permission"
	"github.com/gurkanbulca/teamboard/internal/repository"
)

// TaskService applies task mutations. Every write locks the owning project
// row first, so task counts and column ordinals of one project change under
// a single writer at a time.
type TaskService struct {
	taskboardv1.UnimplementedTaskServiceServer
	repo *repository.Repository
	now  func() time.Time
}

func NewTaskService(repo *repository.Repository) *TaskService {
	return &TaskService{
		repo: repo,
		now:  func() time.Time { return time.Now().UTC() },
	}
}

// CreateTask creates a new task at the end of its column
func (s *TaskService) CreateTask(ctx context.Context, req *taskboardv1.CreateTaskRequest) (*taskboardv1.CreateTaskResponse, error) {
	projectID, err := parseID("project_id", req.ProjectId)
	if err != nil {
		return nil, toStatus("CreateTask", err)
	}
	task, err := newTaskFromRequest(req)
	if err != nil {
		return nil, toStatus("CreateTask", err)
	}
	userID := identity(ctx)

	err = s.repo.WithTx(ctx, func(q *repository.Queries) error {
		project, err := q.LockProject(ctx, projectID)
		if err != nil {
			return missing("project", err)
		}
		authority := permission.New(q)
		if err := authority.Require(ctx, userID, project, permission.ActionWriteTasks); err != nil {
			return err
		}
		if task.AssigneeID.Valid {
			if err := requireAssignable(ctx, authority, project, task.AssigneeID.UUID); err != nil {
				return err
			}
		}

		now := s.now()
		task.ID = uuid.New()
		task.ProjectID = projectID
		task.CreatedAt = now
		task.UpdatedAt = now
		task.Position, err = q.NextPosition(ctx, projectID, task.Status)
		if err != nil {
			return err
		}
		if err := q.InsertTask(ctx, task); err != nil {
			return err
		}
		return q.AdjustTaskCount(ctx, projectID, 1, now)
	})
	if err != nil {
		return nil, toStatus("CreateTask", err)
	}

	return &taskboardv1.CreateTaskResponse{Task: convertTaskToProto(task)}, nil
}

// UpdateTask applies a partial update. Fields absent from the request keep
// their stored values. A status change appends the task to its new column.
func (s *TaskService) UpdateTask(ctx context.Context, req *taskboardv1.UpdateTaskRequest) (*taskboardv1.UpdateTaskResponse, error) {
	taskID, err := parseID("task_id", req.TaskId)
	if err != nil {
		return nil, toStatus("UpdateTask", err)
	}
	patch, err := patchFromRequest(req)
	if err != nil {
		return nil, toStatus("UpdateTask", err)
	}
	userID := identity(ctx)

	var updated *models.Task
	err = s.repo.WithTx(ctx, func(q *repository.Queries) error {
		current, project, err := s.loadForWrite(ctx, q, userID, taskID)
		if err != nil {
			return err
		}

		if patch.AssigneeID != nil {
			if err := requireAssignable(ctx, permission.New(q), project, *patch.AssigneeID); err != nil {
				return err
			}
		}
		if next := patch.ApplyTo(*current); !next.HasValidDates() {
			return apperr.Invalid("end_date", "must not be before start_date")
		}
		if patch.IsEmpty() {
			updated = current
			return nil
		}

		now := s.now()
		moving := patch.Status != nil && *patch.Status != current.Status
		var position int
		if moving {
			if position, err = q.NextPosition(ctx, project.ID, *patch.Status); err != nil {
				return err
			}
		}

		if err := q.UpdateTask(ctx, taskID, patch, now); err != nil {
			return err
		}
		if moving {
			if err := q.SetPlacement(ctx, taskID, *patch.Status, position, now); err != nil {
				return err
			}
			if err := compactColumn(ctx, q, project.ID, current.Status, now); err != nil {
				return err
			}
		}

		updated, err = q.TaskByID(ctx, taskID)
		return err
	})
	if err != nil {
		return nil, toStatus("UpdateTask", err)
	}

	return &taskboardv1.UpdateTaskResponse{Task: convertTaskToProto(updated)}, nil
}

// MoveTask places a task at a position in a column. Ordinals of the whole
// column are re-derived inside the transaction, so concurrent moves into
// the same slot still leave 0..n-1 without duplicates. A nil or
// out-of-range position appends.
func (s *TaskService) MoveTask(ctx context.Context, req *taskboardv1.MoveTaskRequest) (*taskboardv1.MoveTaskResponse, error) {
	taskID, err := parseID("task_id", req.TaskId)
	if err != nil {
		return nil, toStatus("MoveTask", err)
	}
	target, err := models.ParseStatus(req.Status)
	if err != nil {
		return nil, toStatus("MoveTask", apperr.Invalid("status", "%v", err))
	}
	if req.Position != nil && *req.Position < 0 {
		return nil, toStatus("MoveTask", apperr.Invalid("position", "cannot be negative"))
	}
	userID := identity(ctx)

	var (
		moved  *models.Task
		column []models.Task
	)
	err = s.repo.WithTx(ctx, func(q *repository.Queries) error {
		current, project, err := s.loadForWrite(ctx, q, userID, taskID)
		if err != nil {
			return err
		}

		existing, err := q.ColumnTasks(ctx, project.ID, target)
		if err != nil {
			return err
		}
		others := make([]models.Task, 0, len(existing))
		for _, t := range existing {
			if t.ID != taskID {
				others = append(others, t)
			}
		}

		slot := len(others)
		if req.Position != nil && int(*req.Position) < slot {
			slot = int(*req.Position)
		}

		ordered := make([]models.Task, 0, len(others)+1)
		ordered = append(ordered, others[:slot]...)
		ordered = append(ordered, *current)
		ordered = append(ordered, others[slot:]...)

		now := s.now()
		for i, t := range ordered {
			if t.ID != taskID && t.Position == i {
				continue
			}
			if err := q.SetPlacement(ctx, t.ID, target, i, now); err != nil {
				return err
			}
		}
		if current.Status != target {
			if err := compactColumn(ctx, q, project.ID, current.Status, now); err != nil {
				return err
			}
		}

		if moved, err = q.TaskByID(ctx, taskID); err != nil {
			return err
		}
		column, err = q.ColumnTasks(ctx, project.ID, target)
		return err
	})
	if err != nil {
		return nil, toStatus("MoveTask", err)
	}

	return &taskboardv1.MoveTaskResponse{
		Task:   convertTaskToProto(moved),
		Column: convertTasksToProto(column),
	}, nil
}

// DeleteTask deletes a task and closes the gap it leaves in its column
func (s *TaskService) DeleteTask(ctx context.Context, req *taskboardv1.DeleteTaskRequest) (*emptypb.Empty, error) {
	taskID, err := parseID("task_id", req.TaskId)
	if err != nil {
		return nil, toStatus("DeleteTask", err)
	}
	userID := identity(ctx)

	err = s.repo.WithTx(ctx, func(q *repository.Queries) error {
		current, project, err := s.loadForWrite(ctx, q, userID, taskID)
		if err != nil {
			return err
		}

		now := s.now()
		if err := q.DeleteTask(ctx, taskID); err != nil {
			return missing("task", err)
		}
		if err := q.AdjustTaskCount(ctx, project.ID, -1, now); err != nil {
			return err
		}
		return compactColumn(ctx, q, project.ID, current.Status, now)
	})
	if err != nil {
		return nil, toStatus("DeleteTask", err)
	}

	return &emptypb.Empty{}, nil
}

// ListTasks returns a project's tasks in board order
func (s *TaskService) ListTasks(ctx context.Context, req *taskboardv1.ListTasksRequest) (*taskboardv1.ListTasksResponse, error) {
	projectID, err := parseID("project_id", req.ProjectId)
	if err != nil {
		return nil, toStatus("ListTasks", err)
	}

	filter := repository.TaskFilter{ProjectID: projectID}
	if req.Status != "" {
		st, err := models.ParseStatus(req.Status)
		if err != nil {
			return nil, toStatus("ListTasks", apperr.Invalid("status", "%v", err))
		}
		filter.Status = &st
	}
	if req.AssigneeId != "" {
		assignee, err := parseID("assignee_id", req.AssigneeId)
		if err != nil {
			return nil, toStatus("ListTasks", err)
		}
		filter.AssigneeID = &assignee
	}

	project, err := s.repo.ProjectByID(ctx, projectID)
	if err != nil {
		return nil, toStatus("ListTasks", missing("project", err))
	}
	if err := permission.New(s.repo.Queries).Require(ctx, identity(ctx), project, permission.ActionReadTasks); err != nil {
		return nil, toStatus("ListTasks", err)
	}

	tasks, err := s.repo.ListTasks(ctx, filter)
	if err != nil {
		return nil, toStatus("ListTasks", err)
	}
	return &taskboardv1.ListTasksResponse{Tasks: convertTasksToProto(tasks)}, nil
}

// loadForWrite reads the task, locks its project and checks the caller
// may write tasks there.
func (s *TaskService) loadForWrite(ctx context.Context, q *repository.Queries, userID, taskID uuid.UUID) (*models.Task, *models.Project, error) {
	task, err := q.TaskByID(ctx, taskID)
	if err != nil {
		return nil, nil, missing("task", err)
	}
	project, err := q.LockProject(ctx, task.ProjectID)
	if err != nil {
		return nil, nil, missing("project", err)
	}
	if err := permission.New(q).Require(ctx, userID, project, permission.ActionWriteTasks); err != nil {
		return nil, nil, err
	}

	// Re-read under the lock; a concurrent move may have committed in between.
	task, err = q.TaskByID(ctx, taskID)
	if err != nil {
		return nil, nil, missing("task", err)
	}
	return task, project, nil
}

func requireAssignable(ctx context.Context, authority *permission.Authority, project *models.Project, assignee uuid.UUID) error {
	ok, err := authority.IsAssignable(ctx, project, assignee)
	if err != nil {
		return err
	}
	if !ok {
		return apperr.Invalid("assignee_id", "assignee is not a member of this project")
	}
	return nil
}

// compactColumn renumbers a column to 0..n-1 keeping its current order
func compactColumn(ctx context.Context, q *repository.Queries, projectID uuid.UUID, status models.Status, now time.Time) error {
	tasks, err := q.ColumnTasks(ctx, projectID, status)
	if err != nil {
		return err
	}
	for i, t := range tasks {
		if t.Position == i {
			continue
		}
		if err := q.SetPlacement(ctx, t.ID, status, i, now); err != nil {
			return err
		}
	}
	return nil
}

func newTaskFromRequest(req *taskboardv1.CreateTaskRequest) (*models.Task, error) {
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, apperr.Invalid("title", "is required")
	}

	task := &models.Task{
		Title:       title,
		Description: req.Description,
		Status:      models.StatusBacklog,
		Priority:    models.PriorityMedium,
	}

	if req.Status != "" {
		st, err := models.ParseStatus(req.Status)
		if err != nil {
			return nil, apperr.Invalid("status", "%v", err)
		}
		task.Status = st
	}
	if req.Priority != "" {
		p, err := models.ParsePriority(req.Priority)
		if err != nil {
			return nil, apperr.Invalid("priority", "%v", err)
		}
		task.Priority = p
	}
	if req.AssigneeId != "" {
		id, err := parseID("assignee_id", req.AssigneeId)
		if err != nil {
			return nil, err
		}
		task.AssigneeID = uuid.NullUUID{UUID: id, Valid: true}
	}
	if req.StartDate != "" {
		d, err := parseDate("start_date", req.StartDate)
		if err != nil {
			return nil, err
		}
		task.StartDate = &d
	}
	if req.EndDate != "" {
		d, err := parseDate("end_date", req.EndDate)
		if err != nil {
			return nil, err
		}
		task.EndDate = &d
	}
	if !task.HasValidDates() {
		return nil, apperr.Invalid("end_date", "must not be before start_date")
	}
	return task, nil
}
