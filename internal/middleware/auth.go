// internal/middleware/auth.go
package middleware

import (
	"context"
	"errors"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	taskboardv1 "github.com/gurkanbulca/teamboard/api/taskboard/v1"
	"github.com/gurkanbulca/teamboard/pkg/auth"
)

// AuthInterceptor provides authentication middleware
type AuthInterceptor struct {
	tokenManager  *auth.TokenManager
	publicMethods map[string]bool
}

// NewAuthInterceptor creates a new auth interceptor
func NewAuthInterceptor(tokenManager *auth.TokenManager) *AuthInterceptor {
	// Define which methods don't require authentication
	publicMethods := map[string]bool{
		taskboardv1.FullMethod(taskboardv1.AuthServiceName, "Register"): true,
		taskboardv1.FullMethod(taskboardv1.AuthServiceName, "Login"):    true,
		"/grpc.health.v1.Health/Check":                                  true,
		"/grpc.health.v1.Health/Watch":                                  true,
		"/grpc.reflection.v1.ServerReflection/ServerReflectionInfo":      true,
		"/grpc.reflection.v1alpha.ServerReflection/ServerReflectionInfo": true,
	}

	return &AuthInterceptor{
		tokenManager:  tokenManager,
		publicMethods: publicMethods,
	}
}

// Unary returns a unary server interceptor for authentication
func (a *AuthInterceptor) Unary() grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req interface{},
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (interface{}, error) {
		if a.publicMethods[info.FullMethod] {
			return handler(ctx, req)
		}

		newCtx, err := a.authenticate(ctx)
		if err != nil {
			return nil, err
		}
		return handler(newCtx, req)
	}
}

// Stream returns a stream server interceptor for authentication
func (a *AuthInterceptor) Stream() grpc.StreamServerInterceptor {
	return func(
		srv interface{},
		stream grpc.ServerStream,
		info *grpc.StreamServerInfo,
		handler grpc.StreamHandler,
	) error {
		if a.publicMethods[info.FullMethod] {
			return handler(srv, stream)
		}

		newCtx, err := a.authenticate(stream.Context())
		if err != nil {
			return err
		}
		return handler(srv, &wrappedServerStream{ServerStream: stream, ctx: newCtx})
	}
}

// authenticate extracts and validates the JWT token from metadata
func (a *AuthInterceptor) authenticate(ctx context.Context) (context.Context, error) {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return nil, status.Error(codes.Unauthenticated, "missing metadata")
	}

	authHeaders := md.Get("authorization")
	if len(authHeaders) == 0 {
		return nil, status.Error(codes.Unauthenticated, "missing authorization header")
	}

	token, err := auth.ExtractTokenFromHeader(authHeaders[0])
	if err != nil {
		return nil, status.Error(codes.Unauthenticated, err.Error())
	}

	return a.Authenticate(ctx, token)
}

// Authenticate validates a bare session token and returns ctx carrying the
// identity. Transports other than gRPC call it directly.
func (a *AuthInterceptor) Authenticate(ctx context.Context, token string) (context.Context, error) {
	claims, err := a.tokenManager.ValidateToken(token)
	if err != nil {
		if errors.Is(err, auth.ErrExpiredToken) {
			return nil, status.Error(codes.Unauthenticated, "session expired")
		}
		return nil, status.Error(codes.Unauthenticated, "invalid token")
	}

	userID, err := claims.Identity()
	if err != nil {
		return nil, status.Error(codes.Unauthenticated, "invalid token")
	}

	return WithIdentity(ctx, userID, claims.Handle), nil
}
