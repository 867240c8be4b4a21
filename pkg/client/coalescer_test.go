package client

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	taskboardv1 "github.com/gurkanbulca/teamboard/api/taskboard/v1"
)

func TestCoalescer_TypingBurstSendsOnce(t *testing.T) {
	api := newFakeAPI()
	ids := api.seed(project, "backlog", "")
	s := loadedStore(t, api)
	c := NewCoalescer(s, 30*time.Millisecond)

	for _, v := range []string{"a", "ab", "abc"} {
		require.NoError(t, c.Stage(ids[0], FieldTitle, v))
		view, _ := s.Task(ids[0])
		assert.Equal(t, v, view.Title, "every keystroke is visible immediately")
	}
	assert.Equal(t, 1, s.Pending())

	require.Eventually(t, func() bool {
		return api.updateCount() == 1 && s.Pending() == 0
	}, time.Second, 5*time.Millisecond)

	assert.Equal(t, []string{"abc"}, api.sentTitles())
	assert.Equal(t, "abc", api.stored(ids[0]).Title)
}

func TestCoalescer_FlushSendsImmediately(t *testing.T) {
	api := newFakeAPI()
	ids := api.seed(project, "backlog", "draft")
	s := loadedStore(t, api)
	c := NewCoalescer(s, time.Hour)

	require.NoError(t, c.Stage(ids[0], FieldTitle, "final"))
	require.NoError(t, c.Stage(ids[0], FieldDescription, "details"))
	assert.Equal(t, 2, c.Pending(ids[0]))
	assert.Zero(t, api.updateCount())

	require.NoError(t, c.Flush(context.Background(), ids[0]))

	assert.Zero(t, c.Pending(ids[0]))
	assert.Equal(t, 2, api.updateCount(), "each field is its own request")
	stored := api.stored(ids[0])
	assert.Equal(t, "final", stored.Title)
	assert.Equal(t, "details", stored.Description)
}

func TestCoalescer_EditDuringFlightIsQueued(t *testing.T) {
	api := newFakeAPI()
	ids := api.seed(project, "backlog", "")
	s := loadedStore(t, api)
	c := NewCoalescer(s, 10*time.Millisecond)

	gate := make(chan struct{})
	api.gate = gate

	require.NoError(t, c.Stage(ids[0], FieldTitle, "first"))
	require.Eventually(t, func() bool { return api.waitingCount() == 1 }, time.Second, time.Millisecond)

	// The first send is held by the server; a new value starts a new edit.
	require.NoError(t, c.Stage(ids[0], FieldTitle, "second"))
	view, _ := s.Task(ids[0])
	assert.Equal(t, "second", view.Title)

	close(gate)
	require.NoError(t, c.Flush(context.Background(), ids[0]))

	assert.Equal(t, []string{"first", "second"}, api.sentTitles())
	assert.Equal(t, "second", api.stored(ids[0]).Title)
	view, _ = s.Task(ids[0])
	assert.Equal(t, "second", view.Title)
}

func TestCoalescer_ErrorsRollBackAndReport(t *testing.T) {
	api := newFakeAPI()
	ids := api.seed(project, "backlog", "draft")
	s := loadedStore(t, api)
	c := NewCoalescer(s, 10*time.Millisecond)

	var (
		mu       sync.Mutex
		reported []string
	)
	c.OnError(func(taskID string, err error) {
		mu.Lock()
		reported = append(reported, taskID)
		mu.Unlock()
	})

	api.setFail(status.Error(codes.PermissionDenied, "NOT_MEMBER: not a member of this project"))
	require.NoError(t, c.Stage(ids[0], FieldTitle, "nope"))

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(reported) == 1
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, ids[0], reported[0])

	view, _ := s.Task(ids[0])
	assert.Equal(t, "draft", view.Title)

	err := c.Flush(context.Background(), ids[0])
	assert.Equal(t, codes.PermissionDenied, status.Code(unwrapOp(t, err)))
	assert.NoError(t, c.Flush(context.Background(), ids[0]), "errors are reported once")
}

func TestCoalescer_CloseFlushesEverything(t *testing.T) {
	api := newFakeAPI()
	ids := api.seed(project, "backlog", "a", "b")
	s := loadedStore(t, api)
	c := NewCoalescer(s, time.Hour)

	require.NoError(t, c.Stage(ids[0], FieldTitle, "a2"))
	require.NoError(t, c.Stage(ids[1], FieldPriority, "high"))

	require.NoError(t, c.Close(context.Background()))
	assert.Equal(t, "a2", api.stored(ids[0]).Title)
	assert.Equal(t, "high", api.stored(ids[1]).Priority)
	assert.Zero(t, s.Pending())

	assert.ErrorIs(t, c.Stage(ids[0], FieldTitle, "late"), ErrClosed)
}

func TestCoalescer_DirectCommitDoesNotLoseEdits(t *testing.T) {
	api := newFakeAPI()
	ids := api.seed(project, "backlog", "a")
	s := loadedStore(t, api)
	c := NewCoalescer(s, time.Hour)

	require.NoError(t, c.Stage(ids[0], FieldTitle, "b"))

	// Something else commits everything pending, e.g. a save button.
	pendingID := s.log[0].id
	require.NoError(t, s.Commit(context.Background(), pendingID))

	require.NoError(t, c.Stage(ids[0], FieldTitle, "c"))
	require.NoError(t, c.Flush(context.Background(), ids[0]))

	assert.Equal(t, "c", api.stored(ids[0]).Title)
}

func TestCoalescer_EditWhileCreatingIsDelivered(t *testing.T) {
	api := newFakeAPI()
	s := loadedStore(t, api)
	c := NewCoalescer(s, 10*time.Millisecond)

	localID, createID, err := s.StageCreate(&taskboardv1.CreateTaskRequest{ProjectId: project, Title: "fresh"})
	require.NoError(t, err)
	require.NoError(t, c.Stage(localID, FieldDescription, "typed while creating"))

	// The window expires before the create is sent.
	require.Eventually(t, func() bool { return c.Pending(localID) == 0 }, time.Second, time.Millisecond)
	assert.Zero(t, api.updateCount())

	require.NoError(t, s.Commit(context.Background(), createID))
	require.NoError(t, c.Close(context.Background()))

	view, ok := s.Task(localID)
	require.True(t, ok)
	assert.Equal(t, "typed while creating", view.Description)
	assert.Equal(t, "typed while creating", api.stored(view.Id).Description)
	assert.Zero(t, s.Pending())
}

func unwrapOp(t *testing.T, err error) error {
	t.Helper()
	var opErr *OpError
	require.ErrorAs(t, err, &opErr)
	return opErr.Err
}
