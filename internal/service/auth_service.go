// internal/service/auth_service.go
package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"

	taskboardv1 "github.com/gurkanbulca/teamboard/api/taskboard/v1"
	"github.com/gurkanbulca/teamboard/internal/apperr"
	"github.com/gurkanbulca/teamboard/internal/models"
	"github.com/gurkanbulca/teamboard/internal/repository"
	"github.com/gurkanbulca/teamboard/pkg/auth"
)

type AuthService struct {
	taskboardv1.UnimplementedAuthServiceServer
	repo            *repository.Repository
	tokenManager    *auth.TokenManager
	passwordManager *auth.PasswordManager
	securityLogger  *SecurityLogger
	now             func() time.Time
}

// NewAuthService creates a new authentication service
func NewAuthService(
	repo *repository.Repository,
	tokenManager *auth.TokenManager,
	passwordManager *auth.PasswordManager,
	securityLogger *SecurityLogger,
) *AuthService {
	if passwordManager == nil {
		passwordManager = auth.NewPasswordManager()
	}
	return &AuthService{
		repo:            repo,
		tokenManager:    tokenManager,
		passwordManager: passwordManager,
		securityLogger:  securityLogger,
		now:             func() time.Time { return time.Now().UTC() },
	}
}

// Register creates a new user account
func (s *AuthService) Register(ctx context.Context, req *taskboardv1.RegisterRequest) (*taskboardv1.RegisterResponse, error) {
	handle := strings.ToLower(strings.TrimSpace(req.Handle))
	if err := auth.ValidateHandle(handle); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	hashedPassword, err := s.passwordManager.HashPassword(req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrWeakPassword) {
			return nil, status.Error(codes.InvalidArgument, err.Error())
		}
		return nil, toStatus("Register", err)
	}

	user := &models.User{
		ID:           uuid.New(),
		Handle:       handle,
		PasswordHash: hashedPassword,
		CreatedAt:    s.now(),
	}
	if err := s.repo.CreateUser(ctx, user); err != nil {
		if errors.Is(err, apperr.ErrConflict) {
			return nil, status.Error(codes.AlreadyExists, "handle is already taken")
		}
		return nil, toStatus("Register", err)
	}

	s.securityLogger.LogRegistered(ctx, user.ID, user.Handle)
	return &taskboardv1.RegisterResponse{User: convertUserToProto(user)}, nil
}

// Login authenticates a user and returns a session token
func (s *AuthService) Login(ctx context.Context, req *taskboardv1.LoginRequest) (*taskboardv1.LoginResponse, error) {
	if req.Handle == "" || req.Password == "" {
		return nil, status.Error(codes.InvalidArgument, "handle and password are required")
	}

	user, err := s.repo.UserByHandle(ctx, strings.ToLower(strings.TrimSpace(req.Handle)))
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			s.securityLogger.LogLoginFailed(ctx, req.Handle, "user not found")
			return nil, status.Error(codes.Unauthenticated, "invalid credentials")
		}
		return nil, toStatus("Login", err)
	}

	if err := s.passwordManager.ComparePassword(user.PasswordHash, req.Password); err != nil {
		s.securityLogger.LogLoginFailed(ctx, user.Handle, "wrong password")
		return nil, status.Error(codes.Unauthenticated, "invalid credentials")
	}

	token, expiresAt, err := s.tokenManager.GenerateToken(user.ID, user.Handle)
	if err != nil {
		return nil, toStatus("Login", err)
	}

	s.securityLogger.LogLoginSuccess(ctx, user.ID)
	return &taskboardv1.LoginResponse{
		User:      convertUserToProto(user),
		Token:     token,
		ExpiresAt: expiresAt,
	}, nil
}

// Logout ends a session. Sessions are verified statelessly, so there is
// nothing to revoke server-side; the client discards its token.
func (s *AuthService) Logout(ctx context.Context, _ *taskboardv1.LogoutRequest) (*emptypb.Empty, error) {
	userID, err := requireIdentity(ctx)
	if err != nil {
		return nil, toStatus("Logout", err)
	}
	s.securityLogger.LogLogout(ctx, userID)
	return &emptypb.Empty{}, nil
}

// DeleteAccount removes the caller and everything they own in a single
// transaction: owned projects with their tasks and memberships, the
// caller's own memberships, and their assignments in other projects.
func (s *AuthService) DeleteAccount(ctx context.Context, _ *taskboardv1.DeleteAccountRequest) (*emptypb.Empty, error) {
	userID, err := requireIdentity(ctx)
	if err != nil {
		return nil, toStatus("DeleteAccount", err)
	}

	now := s.now()
	err = s.repo.WithTx(ctx, func(q *repository.Queries) error {
		owned, err := q.ProjectIDsOwnedBy(ctx, userID)
		if err != nil {
			return err
		}
		for _, projectID := range owned {
			if err := q.DeleteProject(ctx, projectID); err != nil {
				return err
			}
		}
		if err := q.UnassignUser(ctx, userID, now); err != nil {
			return err
		}
		if err := q.DeleteMembershipsOfUser(ctx, userID); err != nil {
			return err
		}
		return missing("user", q.DeleteUser(ctx, userID))
	})
	if err != nil {
		return nil, toStatus("DeleteAccount", err)
	}

	s.securityLogger.LogAccountDeleted(ctx, userID)
	return &emptypb.Empty{}, nil
}
