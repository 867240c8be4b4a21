package repository_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gurkanbulca/teamboard/internal/apperr"
	"github.com/gurkanbulca/teamboard/internal/database/dbtest"
	"github.com/gurkanbulca/teamboard/internal/models"
	"github.com/gurkanbulca/teamboard/internal/repository"
)

type fixture struct {
	t    *testing.T
	ctx  context.Context
	repo *repository.Repository
	now  time.Time
}

func newFixture(t *testing.T) *fixture {
	return &fixture{
		t:    t,
		ctx:  context.Background(),
		repo: repository.New(dbtest.Open(t)),
		now:  time.Now().UTC().Truncate(time.Second),
	}
}

func (f *fixture) user(handle string) *models.User {
	u := &models.User{ID: uuid.New(), Handle: handle, PasswordHash: "x", CreatedAt: f.now}
	require.NoError(f.t, f.repo.CreateUser(f.ctx, u))
	return u
}

func (f *fixture) project(owner *models.User, code string) *models.Project {
	p := &models.Project{
		ID: uuid.New(), OwnerID: owner.ID, Name: "Board", Color: "blue",
		InvitationCode: code, CreatedAt: f.now, UpdatedAt: f.now,
	}
	require.NoError(f.t, f.repo.CreateProject(f.ctx, p))
	return p
}

func (f *fixture) task(p *models.Project, title string, status models.Status, position int) *models.Task {
	task := &models.Task{
		ID: uuid.New(), ProjectID: p.ID, Title: title, Status: status,
		Priority: models.PriorityMedium, Position: position, CreatedAt: f.now, UpdatedAt: f.now,
	}
	require.NoError(f.t, f.repo.InsertTask(f.ctx, task))
	require.NoError(f.t, f.repo.AdjustTaskCount(f.ctx, p.ID, 1, f.now))
	return task
}

func TestUsers(t *testing.T) {
	f := newFixture(t)
	alice := f.user("alice")

	got, err := f.repo.UserByHandle(f.ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, alice.ID, got.ID)

	err = f.repo.CreateUser(f.ctx, &models.User{ID: uuid.New(), Handle: "alice", PasswordHash: "y", CreatedAt: f.now})
	assert.ErrorIs(t, err, apperr.ErrConflict)

	_, err = f.repo.UserByID(f.ctx, uuid.New())
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	require.NoError(t, f.repo.DeleteUser(f.ctx, alice.ID))
	assert.ErrorIs(t, f.repo.DeleteUser(f.ctx, alice.ID), apperr.ErrNotFound)
}

func TestProjects_CodeIsUnique(t *testing.T) {
	f := newFixture(t)
	alice := f.user("alice")
	p := f.project(alice, "aaaaaaaaaaaa")

	err := f.repo.CreateProject(f.ctx, &models.Project{
		ID: uuid.New(), OwnerID: alice.ID, Name: "Other", Color: "red",
		InvitationCode: "aaaaaaaaaaaa", CreatedAt: f.now, UpdatedAt: f.now,
	})
	assert.ErrorIs(t, err, apperr.ErrConflict)

	got, err := f.repo.ProjectByCode(f.ctx, "aaaaaaaaaaaa")
	require.NoError(t, err)
	assert.Equal(t, p.ID, got.ID)

	_, err = f.repo.ProjectByCode(f.ctx, "bbbbbbbbbbbb")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestMemberships(t *testing.T) {
	f := newFixture(t)
	alice, bob := f.user("alice"), f.user("bob")
	p := f.project(alice, "aaaaaaaaaaaa")

	created, err := f.repo.AddMember(f.ctx, p.ID, bob.ID, f.now)
	require.NoError(t, err)
	assert.True(t, created)

	created, err = f.repo.AddMember(f.ctx, p.ID, bob.ID, f.now)
	require.NoError(t, err)
	assert.False(t, created, "second join is a no-op")

	members, err := f.repo.Members(f.ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, members, 1)
	assert.Equal(t, bob.ID, members[0].UserID)

	ok, err := f.repo.IsMember(f.ctx, p.ID, alice.ID)
	require.NoError(t, err)
	assert.False(t, ok, "owners hold no membership row")

	projects, err := f.repo.ProjectsForUser(f.ctx, bob.ID)
	require.NoError(t, err)
	require.Len(t, projects, 1)
	assert.Equal(t, p.ID, projects[0].ID)

	require.NoError(t, f.repo.RemoveMember(f.ctx, p.ID, bob.ID))
	assert.ErrorIs(t, f.repo.RemoveMember(f.ctx, p.ID, bob.ID), apperr.ErrNotFound)
}

func TestDeleteProject_Cascades(t *testing.T) {
	f := newFixture(t)
	alice, bob := f.user("alice"), f.user("bob")
	p := f.project(alice, "aaaaaaaaaaaa")
	_, err := f.repo.AddMember(f.ctx, p.ID, bob.ID, f.now)
	require.NoError(t, err)
	task := f.task(p, "Ship", models.StatusBacklog, 0)

	err = f.repo.WithTx(f.ctx, func(q *repository.Queries) error {
		return q.DeleteProject(f.ctx, p.ID)
	})
	require.NoError(t, err)

	_, err = f.repo.ProjectByID(f.ctx, p.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	_, err = f.repo.TaskByID(f.ctx, task.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	ok, err := f.repo.IsMember(f.ctx, p.ID, bob.ID)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestTasks_CountAndColumns(t *testing.T) {
	f := newFixture(t)
	alice := f.user("alice")
	p := f.project(alice, "aaaaaaaaaaaa")

	f.task(p, "b", models.StatusBacklog, 1)
	f.task(p, "a", models.StatusBacklog, 0)
	f.task(p, "d", models.StatusDone, 0)
	f.task(p, "p", models.StatusInProgress, 0)

	cached, actual, err := f.repo.RecountTasks(f.ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, cached)
	assert.Equal(t, actual, cached)

	next, err := f.repo.NextPosition(f.ctx, p.ID, models.StatusBacklog)
	require.NoError(t, err)
	assert.Equal(t, 2, next)
	next, err = f.repo.NextPosition(f.ctx, uuid.New(), models.StatusBacklog)
	require.NoError(t, err)
	assert.Equal(t, 0, next)

	column, err := f.repo.ColumnTasks(f.ctx, p.ID, models.StatusBacklog)
	require.NoError(t, err)
	require.Len(t, column, 2)
	assert.Equal(t, "a", column[0].Title)

	all, err := f.repo.ListTasks(f.ctx, repository.TaskFilter{ProjectID: p.ID})
	require.NoError(t, err)
	var titles []string
	for _, task := range all {
		titles = append(titles, task.Title)
	}
	assert.Equal(t, []string{"a", "b", "p", "d"}, titles)

	done := models.StatusDone
	filtered, err := f.repo.ListTasks(f.ctx, repository.TaskFilter{ProjectID: p.ID, Status: &done})
	require.NoError(t, err)
	require.Len(t, filtered, 1)
	assert.Equal(t, "d", filtered[0].Title)
}

func TestUpdateTask_Patch(t *testing.T) {
	f := newFixture(t)
	alice := f.user("alice")
	p := f.project(alice, "aaaaaaaaaaaa")
	task := f.task(p, "Draft", models.StatusBacklog, 0)

	title := "Final"
	start := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	err := f.repo.UpdateTask(f.ctx, task.ID, models.TaskPatch{
		Title: &title, AssigneeID: &alice.ID, StartDate: &start,
	}, f.now.Add(time.Minute))
	require.NoError(t, err)

	got, err := f.repo.TaskByID(f.ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, "Final", got.Title)
	assert.Equal(t, models.PriorityMedium, got.Priority)
	assert.Equal(t, uuid.NullUUID{UUID: alice.ID, Valid: true}, got.AssigneeID)
	require.NotNil(t, got.StartDate)
	assert.True(t, start.Equal(*got.StartDate))

	assigned, err := f.repo.TasksAssignedTo(f.ctx, alice.ID)
	require.NoError(t, err)
	assert.Len(t, assigned, 1)

	err = f.repo.UpdateTask(f.ctx, task.ID, models.TaskPatch{ClearAssignee: true, ClearStartDate: true}, f.now)
	require.NoError(t, err)
	got, err = f.repo.TaskByID(f.ctx, task.ID)
	require.NoError(t, err)
	assert.False(t, got.AssigneeID.Valid)
	assert.Nil(t, got.StartDate)

	err = f.repo.UpdateTask(f.ctx, uuid.New(), models.TaskPatch{Title: &title}, f.now)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestOverview(t *testing.T) {
	f := newFixture(t)
	alice, bob, carol, dave := f.user("alice"), f.user("bob"), f.user("carol"), f.user("dave")

	mine := f.project(alice, "aaaaaaaaaaaa")
	theirs := f.project(carol, "bbbbbbbbbbbb")
	f.project(dave, "cccccccccccc")

	_, err := f.repo.AddMember(f.ctx, mine.ID, bob.ID, f.now)
	require.NoError(t, err)
	_, err = f.repo.AddMember(f.ctx, theirs.ID, alice.ID, f.now)
	require.NoError(t, err)
	_, err = f.repo.AddMember(f.ctx, theirs.ID, bob.ID, f.now)
	require.NoError(t, err)

	task := f.task(theirs, "Review", models.StatusBacklog, 0)
	require.NoError(t, f.repo.UpdateTask(f.ctx, task.ID, models.TaskPatch{AssigneeID: &alice.ID}, f.now))

	ov, err := f.repo.Overview(f.ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, ov.ProjectCount)
	assert.Equal(t, 2, ov.CollaboratorCount, "bob and carol, counted once each")
	require.Len(t, ov.TasksAssigned, 1)
	assert.Equal(t, task.ID, ov.TasksAssigned[0].ID)
}

func TestWithTx_RollsBack(t *testing.T) {
	f := newFixture(t)
	boom := errors.New("boom")

	err := f.repo.WithTx(f.ctx, func(q *repository.Queries) error {
		require.NoError(t, q.CreateUser(f.ctx, &models.User{ID: uuid.New(), Handle: "ghost", PasswordHash: "x", CreatedAt: f.now}))
		return boom
	})
	assert.ErrorIs(t, err, boom)

	_, err = f.repo.UserByHandle(f.ctx, "ghost")
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	assert.Panics(t, func() {
		_ = f.repo.WithTx(f.ctx, func(q *repository.Queries) error {
			require.NoError(t, q.CreateUser(f.ctx, &models.User{ID: uuid.New(), Handle: "phantom", PasswordHash: "x", CreatedAt: f.now}))
			panic("bail")
		})
	})
	_, err = f.repo.UserByHandle(f.ctx, "phantom")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestLockProject(t *testing.T) {
	f := newFixture(t)
	alice := f.user("alice")
	p := f.project(alice, "aaaaaaaaaaaa")

	err := f.repo.WithTx(f.ctx, func(q *repository.Queries) error {
		got, err := q.LockProject(f.ctx, p.ID)
		if err != nil {
			return err
		}
		assert.Equal(t, p.Name, got.Name)
		_, err = q.LockProject(f.ctx, uuid.New())
		assert.ErrorIs(t, err, apperr.ErrNotFound)
		return nil
	})
	require.NoError(t, err)
}
