package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Status is a Kanban column. The declaration order is the board order.
type Status string

const (
	StatusBacklog    Status = "backlog"
	StatusInProgress Status = "in_progress"
	StatusDone       Status = "done"
)

// Statuses lists every column in board order
var Statuses = []Status{StatusBacklog, StatusInProgress, StatusDone}

func (s Status) Valid() bool {
	return s.Rank() >= 0
}

// Rank is the column index of s, or -1 for an unknown status
func (s Status) Rank() int {
	for i, st := range Statuses {
		if st == s {
			return i
		}
	}
	return -1
}

// ParseStatus accepts the canonical value or a loose spelling ("In Progress", "DONE")
func ParseStatus(s string) (Status, error) {
	norm := Status(strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), " ", "_"))
	if norm == "inprogress" {
		norm = StatusInProgress
	}
	if !norm.Valid() {
		return "", fmt.Errorf("unknown status %q", s)
	}
	return norm, nil
}

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

var Priorities = []Priority{PriorityLow, PriorityMedium, PriorityHigh}

func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

func ParsePriority(s string) (Priority, error) {
	p := Priority(strings.ToLower(strings.TrimSpace(s)))
	if !p.Valid() {
		return "", fmt.Errorf("unknown priority %q", s)
	}
	return p, nil
}

type Task struct {
	ID          uuid.UUID     `db:"id"`
	ProjectID   uuid.UUID     `db:"project_id"`
	Title       string        `db:"title"`
	Description string        `db:"description"`
	Status      Status        `db:"status"`
	Priority    Priority      `db:"priority"`
	AssigneeID  uuid.NullUUID `db:"assignee_id"`
	StartDate   *time.Time    `db:"start_date"`
	EndDate     *time.Time    `db:"end_date"`
	Position    int           `db:"position"`
	CreatedAt   time.Time     `db:"created_at"`
	UpdatedAt   time.Time     `db:"updated_at"`
}

// HasValidDates reports whether the start/end pair is ordered when both are set
func (t Task) HasValidDates() bool {
	if t.StartDate == nil || t.EndDate == nil {
		return true
	}
	return !t.EndDate.Before(*t.StartDate)
}

// TaskPatch is a partial task update. Nil fields are left untouched.
type TaskPatch struct {
	Title       *string
	Description *string
	Status      *Status
	Priority    *Priority

	AssigneeID    *uuid.UUID
	ClearAssignee bool

	StartDate      *time.Time
	ClearStartDate bool
	EndDate        *time.Time
	ClearEndDate   bool
}

func (p TaskPatch) IsEmpty() bool {
	return p.Title == nil && p.Description == nil && p.Status == nil && p.Priority == nil &&
		p.AssigneeID == nil && !p.ClearAssignee &&
		p.StartDate == nil && !p.ClearStartDate &&
		p.EndDate == nil && !p.ClearEndDate
}

// TouchesAssignee reports whether the patch changes the assignee
func (p TaskPatch) TouchesAssignee() bool {
	return p.AssigneeID != nil || p.ClearAssignee
}

// Merge layers next on top of p; fields set in next win.
func (p TaskPatch) Merge(next TaskPatch) TaskPatch {
	out := p
	if next.Title != nil {
		out.Title = next.Title
	}
	if next.Description != nil {
		out.Description = next.Description
	}
	if next.Status != nil {
		out.Status = next.Status
	}
	if next.Priority != nil {
		out.Priority = next.Priority
	}
	if next.TouchesAssignee() {
		out.AssigneeID, out.ClearAssignee = next.AssigneeID, next.ClearAssignee
	}
	if next.StartDate != nil || next.ClearStartDate {
		out.StartDate, out.ClearStartDate = next.StartDate, next.ClearStartDate
	}
	if next.EndDate != nil || next.ClearEndDate {
		out.EndDate, out.ClearEndDate = next.EndDate, next.ClearEndDate
	}
	return out
}

// ApplyTo returns t with the patch applied. Position and timestamps are not touched.
func (p TaskPatch) ApplyTo(t Task) Task {
	if p.Title != nil {
		t.Title = *p.Title
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.Status != nil {
		t.Status = *p.Status
	}
	if p.Priority != nil {
		t.Priority = *p.Priority
	}
	switch {
	case p.ClearAssignee:
		t.AssigneeID = uuid.NullUUID{}
	case p.AssigneeID != nil:
		t.AssigneeID = uuid.NullUUID{UUID: *p.AssigneeID, Valid: true}
	}
	switch {
	case p.ClearStartDate:
		t.StartDate = nil
	case p.StartDate != nil:
		d := *p.StartDate
		t.StartDate = &d
	}
	switch {
	case p.ClearEndDate:
		t.EndDate = nil
	case p.EndDate != nil:
		d := *p.EndDate
		t.EndDate = &d
	}
	return t
}
