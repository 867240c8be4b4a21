// internal/service/auth_service_test.go
package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	taskboardv1 "github.com/gurkanbulca/teamboard/api/taskboard/v1"
	"github.com/gurkanbulca/teamboard/internal/apperr"
	"github.com/gurkanbulca/teamboard/pkg/security"
)

func TestAuthService_Register(t *testing.T) {
	tests := []struct {
		name         string
		request      *taskboardv1.RegisterRequest
		setupFunc    func(*TestHelpers)
		wantErr      bool
		expectedCode codes.Code
	}{
		{
			name:    "successful registration",
			request: &taskboardv1.RegisterRequest{Handle: "NewUser", Password: "SecurePass123"},
		},
		{
			name:    "duplicate handle",
			request: &taskboardv1.RegisterRequest{Handle: "taken", Password: "SecurePass123"},
			setupFunc: func(h *TestHelpers) {
				h.CreateTestUser("taken")
			},
			wantErr:      true,
			expectedCode: codes.AlreadyExists,
		},
		{
			name:         "invalid handle",
			request:      &taskboardv1.RegisterRequest{Handle: "no spaces", Password: "SecurePass123"},
			wantErr:      true,
			expectedCode: codes.InvalidArgument,
		},
		{
			name:         "weak password",
			request:      &taskboardv1.RegisterRequest{Handle: "weakling", Password: "weak"},
			wantErr:      true,
			expectedCode: codes.InvalidArgument,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewTestHelpers(t)
			if tt.setupFunc != nil {
				tt.setupFunc(h)
			}

			resp, err := h.Auth.Register(context.Background(), tt.request)
			if tt.wantErr {
				require.Error(t, err)
				st, ok := status.FromError(err)
				require.True(t, ok)
				assert.Equal(t, tt.expectedCode, st.Code())
				return
			}

			require.NoError(t, err)
			assert.Equal(t, "newuser", resp.User.Handle)
			_, err = uuid.Parse(resp.User.Id)
			assert.NoError(t, err)
		})
	}
}

func TestAuthService_Login(t *testing.T) {
	h := NewTestHelpers(t)
	user := h.CreateTestUser("alice")

	var events []SecurityEvent
	h.Audit.OnEvent(func(e SecurityEvent) { events = append(events, e) })

	t.Run("valid credentials", func(t *testing.T) {
		resp, err := h.Auth.Login(context.Background(), &taskboardv1.LoginRequest{Handle: "Alice", Password: "SecurePass123"})
		require.NoError(t, err)
		assert.NotEmpty(t, resp.Token)
		assert.Equal(t, user.ID.String(), resp.User.Id)

		claims, err := h.Tokens.ValidateToken(resp.Token)
		require.NoError(t, err)
		id, err := claims.Identity()
		require.NoError(t, err)
		assert.Equal(t, user.ID, id)
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := h.Auth.Login(context.Background(), &taskboardv1.LoginRequest{Handle: "alice", Password: "WrongPass123"})
		assert.Equal(t, codes.Unauthenticated, status.Code(err))
	})

	t.Run("unknown handle", func(t *testing.T) {
		_, err := h.Auth.Login(context.Background(), &taskboardv1.LoginRequest{Handle: "nobody", Password: "SecurePass123"})
		assert.Equal(t, codes.Unauthenticated, status.Code(err))
	})

	require.Len(t, events, 3)
	assert.Equal(t, security.EventTypeLoginSuccess, events[0].EventType)
	assert.Equal(t, security.EventTypeLoginFailed, events[1].EventType)
	assert.Equal(t, security.EventTypeLoginFailed, events[2].EventType)
}

func TestAuthService_Logout(t *testing.T) {
	h := NewTestHelpers(t)
	user := h.CreateTestUser("alice")

	_, err := h.Auth.Logout(h.As(user), &taskboardv1.LogoutRequest{})
	require.NoError(t, err)

	_, err = h.Auth.Logout(context.Background(), &taskboardv1.LogoutRequest{})
	assert.Equal(t, codes.Unauthenticated, status.Code(err))
}

func TestAuthService_DeleteAccount(t *testing.T) {
	h := NewTestHelpers(t)
	ctx := context.Background()

	alice := h.CreateTestUser("alice")
	bob := h.CreateTestUser("bob")

	// alice owns one project and collaborates on bob's
	own := h.CreateTestProject(alice, "Own")
	h.CreateTestTask(alice, own, "mine")

	shared := h.CreateTestProject(bob, "Shared")
	h.Join(alice, shared)
	task := h.CreateTestTask(bob, shared, "assigned to alice")
	_, err := h.Tasks.UpdateTask(h.As(bob), &taskboardv1.UpdateTaskRequest{
		TaskId:     task.Id,
		AssigneeId: strPtr(alice.ID.String()),
	})
	require.NoError(t, err)

	_, err = h.Auth.DeleteAccount(h.As(alice), &taskboardv1.DeleteAccountRequest{})
	require.NoError(t, err)

	_, err = h.Repo.UserByID(ctx, alice.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	_, err = h.Repo.ProjectByID(ctx, uuid.MustParse(own.Id))
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	member, err := h.Repo.IsMember(ctx, uuid.MustParse(shared.Id), alice.ID)
	require.NoError(t, err)
	assert.False(t, member)

	stored, err := h.Repo.TaskByID(ctx, uuid.MustParse(task.Id))
	require.NoError(t, err)
	assert.False(t, stored.AssigneeID.Valid)
	assert.Equal(t, 1, h.AssertTaskCountConsistent(shared.Id))
}
