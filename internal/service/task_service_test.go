// internal/service/task_service_test.go
package service

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	taskboardv1 "github.com/gurkanbulca/teamboard/api/taskboard/v1"
	"github.com/gurkanbulca/teamboard/internal/models"
	"github.com/gurkanbulca/teamboard/internal/repository"
)

func TestTaskService_CreateTask(t *testing.T) {
	h := NewTestHelpers(t)
	alice := h.CreateTestUser("alice")
	bob := h.CreateTestUser("bob")
	stranger := h.CreateTestUser("stranger")
	project := h.CreateTestProject(alice, "Launch")
	h.Join(bob, project)

	tests := []struct {
		name         string
		user         *models.User
		request      *taskboardv1.CreateTaskRequest
		expectedCode codes.Code
		check        func(*testing.T, *taskboardv1.Task)
	}{
		{
			name:    "defaults",
			user:    bob,
			request: &taskboardv1.CreateTaskRequest{Title: "Draft outline"},
			check: func(t *testing.T, task *taskboardv1.Task) {
				assert.Equal(t, string(models.StatusBacklog), task.Status)
				assert.Equal(t, string(models.PriorityMedium), task.Priority)
				assert.Empty(t, task.AssigneeId)
			},
		},
		{
			name: "all fields",
			user: alice,
			request: &taskboardv1.CreateTaskRequest{
				Title:      "Ship it",
				Status:     "In Progress",
				Priority:   "high",
				AssigneeId: bob.ID.String(),
				StartDate:  "2024-03-01",
				EndDate:    "2024-03-05",
			},
			check: func(t *testing.T, task *taskboardv1.Task) {
				assert.Equal(t, string(models.StatusInProgress), task.Status)
				assert.Equal(t, string(models.PriorityHigh), task.Priority)
				assert.Equal(t, bob.ID.String(), task.AssigneeId)
				assert.Equal(t, "2024-03-01", task.StartDate)
				assert.Equal(t, "2024-03-05", task.EndDate)
			},
		},
		{
			name:         "empty title",
			user:         bob,
			request:      &taskboardv1.CreateTaskRequest{Title: "   "},
			expectedCode: codes.InvalidArgument,
		},
		{
			name:         "end before start",
			user:         bob,
			request:      &taskboardv1.CreateTaskRequest{Title: "Backwards", StartDate: "2024-03-05", EndDate: "2024-03-01"},
			expectedCode: codes.InvalidArgument,
		},
		{
			name:         "assignee outside project",
			user:         bob,
			request:      &taskboardv1.CreateTaskRequest{Title: "Outsourced", AssigneeId: stranger.ID.String()},
			expectedCode: codes.InvalidArgument,
		},
		{
			name:         "not a member",
			user:         stranger,
			request:      &taskboardv1.CreateTaskRequest{Title: "Intrusion"},
			expectedCode: codes.PermissionDenied,
		},
	}

	created := 0
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.request.ProjectId = project.Id
			resp, err := h.Tasks.CreateTask(h.As(tt.user), tt.request)
			if tt.expectedCode != codes.OK {
				assert.Equal(t, tt.expectedCode, status.Code(err))
				return
			}
			require.NoError(t, err)
			created++
			assert.Equal(t, tt.request.Title, resp.Task.Title)
			tt.check(t, resp.Task)
		})
	}

	assert.Equal(t, created, h.AssertTaskCountConsistent(project.Id))
}

func TestTaskService_CreateTaskIncrementsCount(t *testing.T) {
	h := NewTestHelpers(t)
	ctx := context.Background()
	alice := h.CreateTestUser("alice")
	project := h.CreateTestProject(alice, "Launch")

	for i, title := range []string{"one", "two", "three"} {
		task := h.CreateTestTask(alice, project, title)
		assert.Equal(t, int32(i), task.Position)

		stored, err := h.Repo.ProjectByID(ctx, uuid.MustParse(project.Id))
		require.NoError(t, err)
		assert.Equal(t, i+1, stored.TaskCount)
	}

	list, err := h.Tasks.ListTasks(h.As(alice), &taskboardv1.ListTasksRequest{ProjectId: project.Id})
	require.NoError(t, err)
	require.Len(t, list.Tasks, 3)
	assert.Equal(t, "one", list.Tasks[0].Title)
	assert.Equal(t, "three", list.Tasks[2].Title)
}

func TestTaskService_UpdateTask(t *testing.T) {
	h := NewTestHelpers(t)
	ctx := context.Background()
	alice := h.CreateTestUser("alice")
	bob := h.CreateTestUser("bob")
	stranger := h.CreateTestUser("stranger")
	project := h.CreateTestProject(alice, "Launch")
	h.Join(bob, project)

	task := h.CreateTestTask(alice, project, "Draft outline")
	_, err := h.Tasks.UpdateTask(h.As(alice), &taskboardv1.UpdateTaskRequest{
		TaskId:      task.Id,
		Description: strPtr("first pass"),
		Priority:    strPtr("high"),
		StartDate:   strPtr("2024-03-01"),
		EndDate:     strPtr("2024-03-10"),
	})
	require.NoError(t, err)

	t.Run("untouched fields keep their values", func(t *testing.T) {
		resp, err := h.Tasks.UpdateTask(h.As(bob), &taskboardv1.UpdateTaskRequest{TaskId: task.Id, Title: strPtr("Final outline")})
		require.NoError(t, err)
		assert.Equal(t, "Final outline", resp.Task.Title)
		assert.Equal(t, "first pass", resp.Task.Description)
		assert.Equal(t, string(models.PriorityHigh), resp.Task.Priority)
		assert.Equal(t, "2024-03-01", resp.Task.StartDate)
		assert.Equal(t, "2024-03-10", resp.Task.EndDate)
	})

	t.Run("non-member assignee leaves the row unchanged", func(t *testing.T) {
		_, err := h.Tasks.UpdateTask(h.As(bob), &taskboardv1.UpdateTaskRequest{
			TaskId:     task.Id,
			Title:      strPtr("should not stick"),
			AssigneeId: strPtr(stranger.ID.String()),
		})
		assert.Equal(t, codes.InvalidArgument, status.Code(err))

		stored, err := h.Repo.TaskByID(ctx, uuid.MustParse(task.Id))
		require.NoError(t, err)
		assert.False(t, stored.AssigneeID.Valid)
		assert.Equal(t, "Final outline", stored.Title)
	})

	t.Run("end before stored start", func(t *testing.T) {
		_, err := h.Tasks.UpdateTask(h.As(bob), &taskboardv1.UpdateTaskRequest{TaskId: task.Id, EndDate: strPtr("2024-02-01")})
		assert.Equal(t, codes.InvalidArgument, status.Code(err))
	})

	t.Run("assign and clear", func(t *testing.T) {
		resp, err := h.Tasks.UpdateTask(h.As(bob), &taskboardv1.UpdateTaskRequest{TaskId: task.Id, AssigneeId: strPtr(alice.ID.String())})
		require.NoError(t, err)
		assert.Equal(t, alice.ID.String(), resp.Task.AssigneeId)

		resp, err = h.Tasks.UpdateTask(h.As(bob), &taskboardv1.UpdateTaskRequest{
			TaskId:     task.Id,
			AssigneeId: strPtr(""),
			StartDate:  strPtr(""),
		})
		require.NoError(t, err)
		assert.Empty(t, resp.Task.AssigneeId)
		assert.Empty(t, resp.Task.StartDate)
		assert.Equal(t, "2024-03-10", resp.Task.EndDate)
	})

	t.Run("stranger is denied", func(t *testing.T) {
		_, err := h.Tasks.UpdateTask(h.As(stranger), &taskboardv1.UpdateTaskRequest{TaskId: task.Id, Title: strPtr("mine")})
		assert.Equal(t, codes.PermissionDenied, status.Code(err))
	})

	t.Run("unknown task", func(t *testing.T) {
		_, err := h.Tasks.UpdateTask(h.As(alice), &taskboardv1.UpdateTaskRequest{TaskId: uuid.NewString(), Title: strPtr("x")})
		assert.Equal(t, codes.NotFound, status.Code(err))
	})
}

func TestTaskService_UpdateTaskLastWriteWins(t *testing.T) {
	h := NewTestHelpers(t)
	alice := h.CreateTestUser("alice")
	project := h.CreateTestProject(alice, "Launch")
	task := h.CreateTestTask(alice, project, "a")

	for _, title := range []string{"ab", "abc"} {
		_, err := h.Tasks.UpdateTask(h.As(alice), &taskboardv1.UpdateTaskRequest{TaskId: task.Id, Title: strPtr(title)})
		require.NoError(t, err)
	}

	stored, err := h.Repo.TaskByID(context.Background(), uuid.MustParse(task.Id))
	require.NoError(t, err)
	assert.Equal(t, "abc", stored.Title)
}

func TestTaskService_UpdateTaskStatusChangeReordersColumns(t *testing.T) {
	h := NewTestHelpers(t)
	alice := h.CreateTestUser("alice")
	project := h.CreateTestProject(alice, "Launch")
	first := h.CreateTestTask(alice, project, "first")
	h.CreateTestTask(alice, project, "second")
	h.CreateTestTask(alice, project, "third")

	resp, err := h.Tasks.UpdateTask(h.As(alice), &taskboardv1.UpdateTaskRequest{TaskId: first.Id, Status: strPtr("done")})
	require.NoError(t, err)
	assert.Equal(t, string(models.StatusDone), resp.Task.Status)
	assert.Equal(t, int32(0), resp.Task.Position)

	backlog := h.AssertColumnOrdered(project.Id, models.StatusBacklog)
	require.Len(t, backlog, 2)
	assert.Equal(t, "second", backlog[0].Title)
}

func TestTaskService_MoveTask(t *testing.T) {
	h := NewTestHelpers(t)
	alice := h.CreateTestUser("alice")
	project := h.CreateTestProject(alice, "Launch")

	var ids []string
	for _, title := range []string{"a", "b", "c"} {
		ids = append(ids, h.CreateTestTask(alice, project, title).Id)
	}
	progress := h.CreateTestTask(alice, project, "p")
	_, err := h.Tasks.MoveTask(h.As(alice), &taskboardv1.MoveTaskRequest{TaskId: progress.Id, Status: "in_progress"})
	require.NoError(t, err)

	t.Run("into another column at a position", func(t *testing.T) {
		resp, err := h.Tasks.MoveTask(h.As(alice), &taskboardv1.MoveTaskRequest{
			TaskId:   ids[2],
			Status:   "in_progress",
			Position: int32Ptr(0),
		})
		require.NoError(t, err)
		assert.Equal(t, int32(0), resp.Task.Position)
		require.Len(t, resp.Column, 2)
		assert.Equal(t, "c", resp.Column[0].Title)
		assert.Equal(t, "p", resp.Column[1].Title)

		h.AssertColumnOrdered(project.Id, models.StatusBacklog)
		h.AssertColumnOrdered(project.Id, models.StatusInProgress)
	})

	t.Run("within a column", func(t *testing.T) {
		resp, err := h.Tasks.MoveTask(h.As(alice), &taskboardv1.MoveTaskRequest{
			TaskId:   ids[0],
			Status:   "backlog",
			Position: int32Ptr(5),
		})
		require.NoError(t, err)
		require.Len(t, resp.Column, 2)
		assert.Equal(t, "b", resp.Column[0].Title)
		assert.Equal(t, "a", resp.Column[1].Title)
	})

	t.Run("bad status", func(t *testing.T) {
		_, err := h.Tasks.MoveTask(h.As(alice), &taskboardv1.MoveTaskRequest{TaskId: ids[0], Status: "archived"})
		assert.Equal(t, codes.InvalidArgument, status.Code(err))
	})
	t.Run("negative position", func(t *testing.T) {
		_, err := h.Tasks.MoveTask(h.As(alice), &taskboardv1.MoveTaskRequest{
			TaskId:   ids[1],
			Status:   "done",
			Position: int32Ptr(-1),
		})
		assert.Equal(t, codes.InvalidArgument, status.Code(err))
		assert.Contains(t, err.Error(), "position")

		tasks, err := h.Tasks.ListTasks(h.As(alice), &taskboardv1.ListTasksRequest{ProjectId: project.Id, Status: "done"})
		require.NoError(t, err)
		assert.Empty(t, tasks.Tasks)
		h.AssertColumnOrdered(project.Id, models.StatusBacklog)
	})
}

func TestTaskService_ConcurrentMovesStayDuplicateFree(t *testing.T) {
	h := NewTestHelpers(t)
	alice := h.CreateTestUser("alice")
	bob := h.CreateTestUser("bob")
	project := h.CreateTestProject(alice, "Launch")
	h.Join(bob, project)

	h.CreateTestTask(alice, project, "resident")
	var movers []*taskboardv1.Task
	for _, title := range []string{"x", "y", "z", "w"} {
		movers = append(movers, h.CreateTestTask(alice, project, title))
	}
	_, err := h.Tasks.MoveTask(h.As(alice), &taskboardv1.MoveTaskRequest{TaskId: movers[0].Id, Status: "done"})
	require.NoError(t, err)

	var wg sync.WaitGroup
	errs := make(chan error, len(movers)-1)
	for i, task := range movers[1:] {
		user := alice
		if i%2 == 1 {
			user = bob
		}
		wg.Add(1)
		go func(user *models.User, id string) {
			defer wg.Done()
			_, err := h.Tasks.MoveTask(h.As(user), &taskboardv1.MoveTaskRequest{
				TaskId:   id,
				Status:   "done",
				Position: int32Ptr(0),
			})
			errs <- err
		}(user, task.Id)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	done := h.AssertColumnOrdered(project.Id, models.StatusDone)
	assert.Len(t, done, 4)
	seen := map[int]bool{}
	for _, task := range done {
		assert.False(t, seen[task.Position])
		seen[task.Position] = true
	}
	h.AssertColumnOrdered(project.Id, models.StatusBacklog)
	h.AssertTaskCountConsistent(project.Id)
}

func TestTaskService_DeleteTask(t *testing.T) {
	h := NewTestHelpers(t)
	ctx := context.Background()
	alice := h.CreateTestUser("alice")
	bob := h.CreateTestUser("bob")
	stranger := h.CreateTestUser("stranger")
	project := h.CreateTestProject(alice, "Launch")
	h.Join(bob, project)

	first := h.CreateTestTask(alice, project, "first")
	h.CreateTestTask(alice, project, "second")

	_, err := h.Tasks.DeleteTask(h.As(stranger), &taskboardv1.DeleteTaskRequest{TaskId: first.Id})
	assert.Equal(t, codes.PermissionDenied, status.Code(err))

	_, err = h.Tasks.DeleteTask(h.As(bob), &taskboardv1.DeleteTaskRequest{TaskId: first.Id})
	require.NoError(t, err)

	_, err = h.Repo.TaskByID(ctx, uuid.MustParse(first.Id))
	assert.Error(t, err)
	assert.Equal(t, 1, h.AssertTaskCountConsistent(project.Id))

	backlog := h.AssertColumnOrdered(project.Id, models.StatusBacklog)
	require.Len(t, backlog, 1)
	assert.Equal(t, "second", backlog[0].Title)

	_, err = h.Tasks.DeleteTask(h.As(bob), &taskboardv1.DeleteTaskRequest{TaskId: first.Id})
	assert.Equal(t, codes.NotFound, status.Code(err))
}

func TestTaskService_ListTasksFilters(t *testing.T) {
	h := NewTestHelpers(t)
	alice := h.CreateTestUser("alice")
	bob := h.CreateTestUser("bob")
	stranger := h.CreateTestUser("stranger")
	project := h.CreateTestProject(alice, "Launch")
	h.Join(bob, project)

	h.CreateTestTask(alice, project, "backlog item")
	_, err := h.Tasks.CreateTask(h.As(alice), &taskboardv1.CreateTaskRequest{
		ProjectId:  project.Id,
		Title:      "bob's work",
		Status:     "done",
		AssigneeId: bob.ID.String(),
	})
	require.NoError(t, err)

	resp, err := h.Tasks.ListTasks(h.As(bob), &taskboardv1.ListTasksRequest{ProjectId: project.Id, Status: "done"})
	require.NoError(t, err)
	require.Len(t, resp.Tasks, 1)
	assert.Equal(t, "bob's work", resp.Tasks[0].Title)

	resp, err = h.Tasks.ListTasks(h.As(bob), &taskboardv1.ListTasksRequest{ProjectId: project.Id, AssigneeId: bob.ID.String()})
	require.NoError(t, err)
	require.Len(t, resp.Tasks, 1)

	_, err = h.Tasks.ListTasks(h.As(stranger), &taskboardv1.ListTasksRequest{ProjectId: project.Id})
	assert.Equal(t, codes.PermissionDenied, status.Code(err))
}

func TestTaskService_FailedCreateLeavesNoTrace(t *testing.T) {
	h := NewTestHelpers(t)
	ctx := context.Background()
	alice := h.CreateTestUser("alice")
	project := h.CreateTestProject(alice, "Launch")
	projectID := uuid.MustParse(project.Id)

	// The count update refers to a project that does not exist, so the
	// transaction fails after the insert and must take the insert with it.
	err := h.Repo.WithTx(ctx, func(q *repository.Queries) error {
		task := &models.Task{
			ID:        uuid.New(),
			ProjectID: projectID,
			Title:     "orphan",
			Status:    models.StatusBacklog,
			Priority:  models.PriorityMedium,
		}
		if err := q.InsertTask(ctx, task); err != nil {
			return err
		}
		return q.AdjustTaskCount(ctx, uuid.New(), 1, task.CreatedAt)
	})
	require.Error(t, err)

	tasks, err := h.Repo.ListTasks(ctx, repository.TaskFilter{ProjectID: projectID})
	require.NoError(t, err)
	assert.Empty(t, tasks)
	assert.Zero(t, h.AssertTaskCountConsistent(project.Id))
}
