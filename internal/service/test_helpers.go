// internal/service/test_helpers.go
package service

import (
	"context"
	"io"
	"log"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	taskboardv1 "github.com/gurkanbulca/teamboard/api/taskboard/v1"
	"github.com/gurkanbulca/teamboard/internal/database/dbtest"
	"github.com/gurkanbulca/teamboard/internal/invite"
	"github.com/gurkanbulca/teamboard/internal/middleware"
	"github.com/gurkanbulca/teamboard/internal/models"
	"github.com/gurkanbulca/teamboard/internal/repository"
	"github.com/gurkanbulca/teamboard/pkg/auth"
)

// TestHelpers wires every service over one fresh in-memory database
type TestHelpers struct {
	t        *testing.T
	Repo     *repository.Repository
	Auth     *AuthService
	Projects *ProjectService
	Tasks    *TaskService
	Audit    *SecurityLogger
	Tokens   *auth.TokenManager
}

// NewTestHelpers creates a new test helper instance
func NewTestHelpers(t *testing.T) *TestHelpers {
	return NewTestHelpersWithInvites(t, nil)
}

// NewTestHelpersWithInvites lets a test control invitation code generation
func NewTestHelpersWithInvites(t *testing.T, invites *invite.Manager) *TestHelpers {
	t.Helper()

	repo := repository.New(dbtest.Open(t))
	tokens := auth.NewTokenManager("test-secret", time.Hour)
	audit := NewSecurityLogger(log.New(io.Discard, "", 0))

	return &TestHelpers{
		t:        t,
		Repo:     repo,
		Auth:     NewAuthService(repo, tokens, auth.NewPasswordManagerWithCost(bcrypt.MinCost), audit),
		Projects: NewProjectService(repo, invites, audit),
		Tasks:    NewTaskService(repo),
		Audit:    audit,
		Tokens:   tokens,
	}
}

// CreateTestUser registers a user and returns it
func (h *TestHelpers) CreateTestUser(handle string) *models.User {
	h.t.Helper()

	resp, err := h.Auth.Register(context.Background(), &taskboardv1.RegisterRequest{
		Handle:   handle,
		Password: "SecurePass123",
	})
	require.NoError(h.t, err)

	user, err := h.Repo.UserByID(context.Background(), uuid.MustParse(resp.User.Id))
	require.NoError(h.t, err)
	return user
}

// As returns a context authenticated as user
func (h *TestHelpers) As(user *models.User) context.Context {
	return middleware.WithIdentity(context.Background(), user.ID, user.Handle)
}

// CreateTestProject creates a project owned by owner
func (h *TestHelpers) CreateTestProject(owner *models.User, name string) *taskboardv1.Project {
	h.t.Helper()

	resp, err := h.Projects.CreateProject(h.As(owner), &taskboardv1.CreateProjectRequest{Name: name, Color: "blue"})
	require.NoError(h.t, err)
	return resp.Project
}

// Join makes user a collaborator on project
func (h *TestHelpers) Join(user *models.User, project *taskboardv1.Project) {
	h.t.Helper()

	_, err := h.Projects.JoinProject(h.As(user), &taskboardv1.JoinProjectRequest{Code: project.InvitationCode})
	require.NoError(h.t, err)
}

// CreateTestTask creates a task in project as user
func (h *TestHelpers) CreateTestTask(user *models.User, project *taskboardv1.Project, title string) *taskboardv1.Task {
	h.t.Helper()

	resp, err := h.Tasks.CreateTask(h.As(user), &taskboardv1.CreateTaskRequest{
		ProjectId: project.Id,
		Title:     title,
	})
	require.NoError(h.t, err)
	return resp.Task
}

// AssertTaskCountConsistent checks the cached count against the stored rows
func (h *TestHelpers) AssertTaskCountConsistent(projectID string) int {
	h.t.Helper()

	cached, actual, err := h.Repo.RecountTasks(context.Background(), uuid.MustParse(projectID))
	require.NoError(h.t, err)
	require.Equal(h.t, actual, cached, "cached task count diverged")
	return actual
}

// AssertColumnOrdered checks a column holds positions 0..n-1 exactly once
func (h *TestHelpers) AssertColumnOrdered(projectID string, status models.Status) []models.Task {
	h.t.Helper()

	tasks, err := h.Repo.ColumnTasks(context.Background(), uuid.MustParse(projectID), status)
	require.NoError(h.t, err)
	for i, task := range tasks {
		require.Equal(h.t, i, task.Position, "task %s in %s", task.Title, status)
	}
	return tasks
}

func strPtr(s string) *string { return &s }

func int32Ptr(n int32) *int32 { return &n }
