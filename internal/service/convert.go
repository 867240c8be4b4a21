package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	taskboardv1 "github.com/gurkanbulca/teamboard/api/taskboard/v1"
	"github.com/gurkanbulca/teamboard/internal/apperr"
	"github.com/gurkanbulca/teamboard/internal/middleware"
	"github.com/gurkanbulca/teamboard/internal/models"
)

// DateLayout is the wire format of task dates
const DateLayout = "2006-01-02"

// identity returns the authenticated caller, or uuid.Nil. The permission
// authority turns uuid.Nil into an UNAUTHENTICATED denial.
func identity(ctx context.Context) uuid.UUID {
	id, _ := middleware.GetUserIDFromContext(ctx)
	return id
}

func requireIdentity(ctx context.Context) (uuid.UUID, error) {
	id := identity(ctx)
	if id == uuid.Nil {
		return uuid.Nil, apperr.Forbidden(apperr.ReasonUnauthenticated)
	}
	return id, nil
}

func parseID(field, s string) (uuid.UUID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, apperr.Invalid(field, "invalid id format")
	}
	return id, nil
}

func parseDate(field, s string) (time.Time, error) {
	d, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, apperr.Invalid(field, "must be formatted as YYYY-MM-DD")
	}
	return d, nil
}

func formatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(DateLayout)
}

// patchFromRequest maps an UpdateTaskRequest onto a TaskPatch. Empty
// strings clear the optional fields.
func patchFromRequest(req *taskboardv1.UpdateTaskRequest) (models.TaskPatch, error) {
	var patch models.TaskPatch

	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if title == "" {
			return patch, apperr.Invalid("title", "cannot be empty")
		}
		patch.Title = &title
	}
	if req.Description != nil {
		patch.Description = req.Description
	}
	if req.Status != nil {
		st, err := models.ParseStatus(*req.Status)
		if err != nil {
			return patch, apperr.Invalid("status", "%v", err)
		}
		patch.Status = &st
	}
	if req.Priority != nil {
		p, err := models.ParsePriority(*req.Priority)
		if err != nil {
			return patch, apperr.Invalid("priority", "%v", err)
		}
		patch.Priority = &p
	}
	if req.AssigneeId != nil {
		if *req.AssigneeId == "" {
			patch.ClearAssignee = true
		} else {
			id, err := parseID("assignee_id", *req.AssigneeId)
			if err != nil {
				return patch, err
			}
			patch.AssigneeID = &id
		}
	}
	if req.StartDate != nil {
		if *req.StartDate == "" {
			patch.ClearStartDate = true
		} else {
			d, err := parseDate("start_date", *req.StartDate)
			if err != nil {
				return patch, err
			}
			patch.StartDate = &d
		}
	}
	if req.EndDate != nil {
		if *req.EndDate == "" {
			patch.ClearEndDate = true
		} else {
			d, err := parseDate("end_date", *req.EndDate)
			if err != nil {
				return patch, err
			}
			patch.EndDate = &d
		}
	}
	return patch, nil
}

func convertUserToProto(u *models.User) *taskboardv1.User {
	return &taskboardv1.User{
		Id:     u.ID.String(),
		Handle: u.Handle,
	}
}

func convertProjectToProto(p *models.Project) *taskboardv1.Project {
	return &taskboardv1.Project{
		Id:             p.ID.String(),
		OwnerId:        p.OwnerID.String(),
		Name:           p.Name,
		Color:          p.Color,
		InvitationCode: p.InvitationCode,
		TaskCount:      int32(p.TaskCount),
		CreatedAt:      p.CreatedAt,
		UpdatedAt:      p.UpdatedAt,
	}
}

func convertTaskToProto(t *models.Task) *taskboardv1.Task {
	out := &taskboardv1.Task{
		Id:          t.ID.String(),
		ProjectId:   t.ProjectID.String(),
		Title:       t.Title,
		Description: t.Description,
		Status:      string(t.Status),
		Priority:    string(t.Priority),
		StartDate:   formatDate(t.StartDate),
		EndDate:     formatDate(t.EndDate),
		Position:    int32(t.Position),
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
	if t.AssigneeID.Valid {
		out.AssigneeId = t.AssigneeID.UUID.String()
	}
	return out
}

func convertTasksToProto(tasks []models.Task) []*taskboardv1.Task {
	out := make([]*taskboardv1.Task, len(tasks))
	for i := range tasks {
		out[i] = convertTaskToProto(&tasks[i])
	}
	return out
}
