// Package permission decides what an identity may do within a project.
//
// The owner check always runs before the membership lookup: owners are
// authorized without a membership row, collaborators need one.
package permission

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/gurkanbulca/teamboard/internal/apperr"
	"github.com/gurkanbulca/teamboard/internal/models"
)

type Action int

const (
	ActionReadProject Action = iota
	ActionUpdateProject
	ActionDeleteProject
	ActionManageMembers
	ActionReadTasks
	ActionWriteTasks
)

func (a Action) String() string {
	switch a {
	case ActionReadProject:
		return "read_project"
	case ActionUpdateProject:
		return "update_project"
	case ActionDeleteProject:
		return "delete_project"
	case ActionManageMembers:
		return "manage_members"
	case ActionReadTasks:
		return "read_tasks"
	case ActionWriteTasks:
		return "write_tasks"
	}
	return fmt.Sprintf("action(%d)", int(a))
}

func (a Action) ownerOnly() bool {
	switch a {
	case ActionUpdateProject, ActionDeleteProject, ActionManageMembers:
		return true
	}
	return false
}

// MemberChecker looks up collaborator rows
type MemberChecker interface {
	IsMember(ctx context.Context, projectID, userID uuid.UUID) (bool, error)
}

// Decision is the outcome of an authorization check
type Decision struct {
	Allowed bool
	Reason  apperr.Reason
}

func allow() Decision { return Decision{Allowed: true} }

func deny(r apperr.Reason) Decision { return Decision{Reason: r} }

// Err converts a denial into a ForbiddenError (or ErrUnauthenticated)
func (d Decision) Err() error {
	switch {
	case d.Allowed:
		return nil
	case d.Reason == apperr.ReasonUnauthenticated:
		return fmt.Errorf("%w: %w", apperr.ErrUnauthenticated, apperr.Forbidden(d.Reason))
	default:
		return apperr.Forbidden(d.Reason)
	}
}

type Authority struct {
	members MemberChecker
}

func New(members MemberChecker) *Authority {
	return &Authority{members: members}
}

// Authorize checks whether identity may perform action on project. A zero
// identity is treated as unauthenticated.
func (a *Authority) Authorize(ctx context.Context, identity uuid.UUID, project *models.Project, action Action) (Decision, error) {
	if identity == uuid.Nil {
		return deny(apperr.ReasonUnauthenticated), nil
	}
	if project.OwnerID == identity {
		return allow(), nil
	}

	member, err := a.members.IsMember(ctx, project.ID, identity)
	if err != nil {
		return Decision{}, fmt.Errorf("authorize %s: %w", action, err)
	}
	if !member {
		return deny(apperr.ReasonNotMember), nil
	}
	if action.ownerOnly() {
		return deny(apperr.ReasonNotOwner), nil
	}
	return allow(), nil
}

// Require is Authorize folded into a single error
func (a *Authority) Require(ctx context.Context, identity uuid.UUID, project *models.Project, action Action) error {
	d, err := a.Authorize(ctx, identity, project, action)
	if err != nil {
		return err
	}
	return d.Err()
}

// IsAssignable reports whether user may hold tasks in project
func (a *Authority) IsAssignable(ctx context.Context, project *models.Project, user uuid.UUID) (bool, error) {
	if user == uuid.Nil {
		return false, nil
	}
	if project.OwnerID == user {
		return true, nil
	}
	return a.members.IsMember(ctx, project.ID, user)
}
