// internal/middleware/context_extractor.go
package middleware

import (
	"context"
	"net"

	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/peer"
)

// ContextKeys for storing request metadata
type ContextKey string

const (
	ContextKeyIPAddress  ContextKey = "ip_address"
	ContextKeyUserAgent  ContextKey = "user_agent"
	ContextKeyUserID     ContextKey = "user_id"
	ContextKeyUserHandle ContextKey = "user_handle"
)

// MetadataExtractorInterceptor extracts client metadata and adds it to context
type MetadataExtractorInterceptor struct{}

// NewMetadataExtractorInterceptor creates a new metadata extractor interceptor
func NewMetadataExtractorInterceptor() *MetadataExtractorInterceptor {
	return &MetadataExtractorInterceptor{}
}

// Unary returns a unary server interceptor for metadata extraction
func (m *MetadataExtractorInterceptor) Unary() grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req interface{},
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (interface{}, error) {
		return handler(m.enrichContext(ctx), req)
	}
}

// Stream returns a stream server interceptor for metadata extraction
func (m *MetadataExtractorInterceptor) Stream() grpc.StreamServerInterceptor {
	return func(
		srv interface{},
		stream grpc.ServerStream,
		info *grpc.StreamServerInfo,
		handler grpc.StreamHandler,
	) error {
		return handler(srv, &wrappedServerStream{
			ServerStream: stream,
			ctx:          m.enrichContext(stream.Context()),
		})
	}
}

// enrichContext extracts IP address and user agent from the context
func (m *MetadataExtractorInterceptor) enrichContext(ctx context.Context) context.Context {
	if ip := extractIPAddress(ctx); ip != "" {
		ctx = context.WithValue(ctx, ContextKeyIPAddress, ip)
	}
	if ua := extractUserAgent(ctx); ua != "" {
		ctx = context.WithValue(ctx, ContextKeyUserAgent, ua)
	}
	return ctx
}

// extractIPAddress extracts the client IP address from the context
func extractIPAddress(ctx context.Context) string {
	p, ok := peer.FromContext(ctx)
	if !ok || p.Addr == nil {
		return ""
	}

	if tcpAddr, ok := p.Addr.(*net.TCPAddr); ok {
		return tcpAddr.IP.String()
	}

	addr := p.Addr.String()
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return addr
	}
	return host
}

// extractUserAgent extracts the user agent from gRPC metadata
func extractUserAgent(ctx context.Context) string {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ""
	}

	for _, header := range []string{"user-agent", "grpc-user-agent", "x-user-agent"} {
		if values := md.Get(header); len(values) > 0 {
			return values[0]
		}
	}
	return ""
}

// wrappedServerStream swaps the context of a grpc.ServerStream
type wrappedServerStream struct {
	grpc.ServerStream
	ctx context.Context
}

func (s *wrappedServerStream) Context() context.Context {
	return s.ctx
}

// WithIdentity stores the authenticated user on ctx. The HTTP gateway uses
// it too, so both transports hand services the same context shape.
func WithIdentity(ctx context.Context, userID uuid.UUID, handle string) context.Context {
	ctx = context.WithValue(ctx, ContextKeyUserID, userID)
	return context.WithValue(ctx, ContextKeyUserHandle, handle)
}

// GetUserIDFromContext extracts user ID from context
func GetUserIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(ContextKeyUserID).(uuid.UUID)
	if !ok || id == uuid.Nil {
		return uuid.Nil, false
	}
	return id, true
}

// GetUserHandleFromContext extracts user handle from context
func GetUserHandleFromContext(ctx context.Context) (string, bool) {
	handle, ok := ctx.Value(ContextKeyUserHandle).(string)
	return handle, ok
}

// GetIPAddressFromContext extracts IP address from context
func GetIPAddressFromContext(ctx context.Context) string {
	if ip, ok := ctx.Value(ContextKeyIPAddress).(string); ok {
		return ip
	}
	return ""
}

// GetUserAgentFromContext extracts user agent from context
func GetUserAgentFromContext(ctx context.Context) string {
	if ua, ok := ctx.Value(ContextKeyUserAgent).(string); ok {
		return ua
	}
	return ""
}

// ClientInfo collects what is known about the caller
type ClientInfo struct {
	IPAddress  string
	UserAgent  string
	UserID     string
	UserHandle string
}

// GetClientInfoFromContext extracts all client information from context
func GetClientInfoFromContext(ctx context.Context) *ClientInfo {
	info := &ClientInfo{
		IPAddress: GetIPAddressFromContext(ctx),
		UserAgent: GetUserAgentFromContext(ctx),
	}
	if id, ok := GetUserIDFromContext(ctx); ok {
		info.UserID = id.String()
	}
	if handle, ok := GetUserHandleFromContext(ctx); ok {
		info.UserHandle = handle
	}
	return info
}
