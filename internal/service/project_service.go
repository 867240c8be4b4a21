package service

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"google.golang.org/protobuf/types/known/emptypb"

	taskboardv1 "github.com/gurkanbulca/teamboard/api/taskboard/v1"
	"github.com/gurkanbulca/teamboard/internal/apperr"
	"github.com/gurkanbulca/teamboard/internal/invite"
	"github.com/gurkanbulca/teamboard/internal/models"
	"github.com/gurkanbulca/teamboard/internal/permission"
	"github.com/gurkanbulca/teamboard/internal/repository"
)

// DefaultColor labels projects created without a color
const DefaultColor = "blue"

type ProjectService struct {
	taskboardv1.UnimplementedProjectServiceServer
	repo    *repository.Repository
	invites *invite.Manager
	audit   *SecurityLogger
	now     func() time.Time
}

func NewProjectService(repo *repository.Repository, invites *invite.Manager, securityLogger *SecurityLogger) *ProjectService {
	if invites == nil {
		invites = invite.NewManager(invite.DefaultAttempts, nil)
	}
	return &ProjectService{
		repo:    repo,
		invites: invites,
		audit:   securityLogger,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// CreateProject creates a project owned by the caller with a fresh
// invitation code. A code collision re-rolls instead of failing.
func (s *ProjectService) CreateProject(ctx context.Context, req *taskboardv1.CreateProjectRequest) (*taskboardv1.CreateProjectResponse, error) {
	ownerID, err := requireIdentity(ctx)
	if err != nil {
		return nil, toStatus("CreateProject", err)
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, toStatus("CreateProject", apperr.Invalid("name", "is required"))
	}
	color := strings.TrimSpace(req.Color)
	if color == "" {
		color = DefaultColor
	}

	now := s.now()
	project := &models.Project{
		ID:        uuid.New(),
		OwnerID:   ownerID,
		Name:      name,
		Color:     color,
		CreatedAt: now,
		UpdatedAt: now,
	}

	err = s.invites.WithUniqueCode(ctx, func(code string) error {
		project.InvitationCode = code
		return s.repo.CreateProject(ctx, project)
	})
	if err != nil {
		return nil, toStatus("CreateProject", err)
	}

	log.Printf("Project %s created by %s", project.ID, ownerID)
	return &taskboardv1.CreateProjectResponse{Project: convertProjectToProto(project)}, nil
}

// JoinProject redeems an invitation code. Redeeming a code for a project
// the caller owns or already belongs to succeeds without changes.
func (s *ProjectService) JoinProject(ctx context.Context, req *taskboardv1.JoinProjectRequest) (*taskboardv1.JoinProjectResponse, error) {
	userID, err := requireIdentity(ctx)
	if err != nil {
		return nil, toStatus("JoinProject", err)
	}

	code := invite.Normalize(req.Code)
	if !invite.ValidFormat(code) {
		return nil, toStatus("JoinProject", apperr.Invalid("code", "must be %d hexadecimal characters", invite.CodeLength))
	}

	var (
		project *models.Project
		joined  bool
	)
	err = s.repo.WithTx(ctx, func(q *repository.Queries) error {
		var err error
		project, err = q.ProjectByCode(ctx, code)
		if err != nil {
			return missing("invitation code", err)
		}
		if project.OwnerID == userID {
			return nil
		}
		joined, err = q.AddMember(ctx, project.ID, userID, s.now())
		return err
	})
	if err != nil {
		return nil, toStatus("JoinProject", err)
	}

	if joined {
		s.audit.LogProjectJoined(ctx, userID, project.ID)
	}
	return &taskboardv1.JoinProjectResponse{
		Project: convertProjectToProto(project),
		Joined:  joined,
	}, nil
}

// DeleteProject removes a project with its tasks and memberships. Only the
// owner may do this; the cascade commits as a whole or not at all.
func (s *ProjectService) DeleteProject(ctx context.Context, req *taskboardv1.DeleteProjectRequest) (*emptypb.Empty, error) {
	projectID, err := parseID("project_id", req.ProjectId)
	if err != nil {
		return nil, toStatus("DeleteProject", err)
	}
	userID := identity(ctx)

	err = s.repo.WithTx(ctx, func(q *repository.Queries) error {
		project, err := q.LockProject(ctx, projectID)
		if err != nil {
			return missing("project", err)
		}
		if err := permission.New(q).Require(ctx, userID, project, permission.ActionDeleteProject); err != nil {
			return err
		}
		return q.DeleteProject(ctx, projectID)
	})
	if err != nil {
		s.audit.LogIfDenied(ctx, userID, "DeleteProject", err)
		return nil, toStatus("DeleteProject", err)
	}

	s.audit.LogProjectDeleted(ctx, userID, projectID)
	return &emptypb.Empty{}, nil
}

// RemoveMember drops a collaborator and clears their assignments in the
// project. The owner may remove anyone; a collaborator may only leave.
func (s *ProjectService) RemoveMember(ctx context.Context, req *taskboardv1.RemoveMemberRequest) (*emptypb.Empty, error) {
	projectID, err := parseID("project_id", req.ProjectId)
	if err != nil {
		return nil, toStatus("RemoveMember", err)
	}
	memberID, err := parseID("user_id", req.UserId)
	if err != nil {
		return nil, toStatus("RemoveMember", err)
	}
	userID := identity(ctx)

	err = s.repo.WithTx(ctx, func(q *repository.Queries) error {
		project, err := q.LockProject(ctx, projectID)
		if err != nil {
			return missing("project", err)
		}

		action := permission.ActionManageMembers
		if memberID == userID {
			action = permission.ActionReadProject
		}
		if err := permission.New(q).Require(ctx, userID, project, action); err != nil {
			return err
		}
		if memberID == project.OwnerID {
			return apperr.Invalid("user_id", "the owner cannot leave their own project")
		}

		if err := q.RemoveMember(ctx, projectID, memberID); err != nil {
			return missing("membership", err)
		}
		return q.UnassignUserInProject(ctx, projectID, memberID, s.now())
	})
	if err != nil {
		s.audit.LogIfDenied(ctx, userID, "RemoveMember", err)
		return nil, toStatus("RemoveMember", err)
	}

	s.audit.LogMemberRemoved(ctx, userID, projectID, memberID)
	return &emptypb.Empty{}, nil
}

// ListProjects returns the projects the caller owns or has joined
func (s *ProjectService) ListProjects(ctx context.Context, _ *taskboardv1.ListProjectsRequest) (*taskboardv1.ListProjectsResponse, error) {
	userID, err := requireIdentity(ctx)
	if err != nil {
		return nil, toStatus("ListProjects", err)
	}

	projects, err := s.repo.ProjectsForUser(ctx, userID)
	if err != nil {
		return nil, toStatus("ListProjects", err)
	}

	out := make([]*taskboardv1.Project, len(projects))
	for i := range projects {
		out[i] = convertProjectToProto(&projects[i])
	}
	return &taskboardv1.ListProjectsResponse{Projects: out}, nil
}

// GetOverview computes the caller's dashboard aggregates
func (s *ProjectService) GetOverview(ctx context.Context, _ *taskboardv1.GetOverviewRequest) (*taskboardv1.GetOverviewResponse, error) {
	userID, err := requireIdentity(ctx)
	if err != nil {
		return nil, toStatus("GetOverview", err)
	}

	overview, err := s.repo.Overview(ctx, userID)
	if err != nil {
		return nil, toStatus("GetOverview", err)
	}

	return &taskboardv1.GetOverviewResponse{
		ProjectCount:       int32(overview.ProjectCount),
		CollaboratorCount:  int32(overview.CollaboratorCount),
		TasksAssignedCount: int32(len(overview.TasksAssigned)),
		TasksAssigned:      convertTasksToProto(overview.TasksAssigned),
	}, nil
}
