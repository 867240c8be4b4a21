// internal/service/security_logger.go
package service

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/google/uuid"

	"github.com/gurkanbulca/teamboard/internal/apperr"
	"github.com/gurkanbulca/teamboard/internal/middleware"
	"github.com/gurkanbulca/teamboard/pkg/security"
)

// SecurityEvent is one audit record
type SecurityEvent struct {
	EventType   string
	Severity    string
	UserID      uuid.UUID
	Description string
	IPAddress   string
	UserAgent   string
}

func (e SecurityEvent) String() string {
	user := "-"
	if e.UserID != uuid.Nil {
		user = e.UserID.String()
	}
	return fmt.Sprintf("[SECURITY] %s severity=%s user=%s ip=%s ua=%q %s",
		e.EventType, e.Severity, user, e.IPAddress, e.UserAgent, e.Description)
}

// SecurityLogger writes audit events for account and membership changes.
// A nil *SecurityLogger discards everything.
type SecurityLogger struct {
	logger *log.Logger

	mu     sync.Mutex
	record func(SecurityEvent)
}

// NewSecurityLogger creates a new security logger. A nil logger uses the
// standard logger.
func NewSecurityLogger(logger *log.Logger) *SecurityLogger {
	if logger == nil {
		logger = log.Default()
	}
	return &SecurityLogger{logger: logger}
}

// OnEvent registers a hook that receives every event after it is logged
func (sl *SecurityLogger) OnEvent(fn func(SecurityEvent)) {
	sl.mu.Lock()
	defer sl.mu.Unlock()
	sl.record = fn
}

// LogFromContext logs a security event using context information
func (sl *SecurityLogger) LogFromContext(ctx context.Context, userID uuid.UUID, eventType, description string) {
	if sl == nil {
		return
	}
	if _, err := security.ParseEventType(eventType); err != nil {
		sl.logger.Printf("[SECURITY] dropped event: %v", err)
		return
	}

	clientInfo := middleware.GetClientInfoFromContext(ctx)
	event := SecurityEvent{
		EventType:   eventType,
		Severity:    security.DefaultSeverity(eventType),
		UserID:      userID,
		Description: description,
		IPAddress:   clientInfo.IPAddress,
		UserAgent:   clientInfo.UserAgent,
	}
	sl.logger.Println(event.String())

	sl.mu.Lock()
	record := sl.record
	sl.mu.Unlock()
	if record != nil {
		record(event)
	}
}

// Convenience methods for common security events

func (sl *SecurityLogger) LogRegistered(ctx context.Context, userID uuid.UUID, handle string) {
	sl.LogFromContext(ctx, userID, security.EventTypeRegistered, "registered as "+handle)
}

func (sl *SecurityLogger) LogLoginSuccess(ctx context.Context, userID uuid.UUID) {
	sl.LogFromContext(ctx, userID, security.EventTypeLoginSuccess, "logged in")
}

func (sl *SecurityLogger) LogLoginFailed(ctx context.Context, handle, reason string) {
	sl.LogFromContext(ctx, uuid.Nil, security.EventTypeLoginFailed, "login failed for "+handle+": "+reason)
}

func (sl *SecurityLogger) LogLogout(ctx context.Context, userID uuid.UUID) {
	sl.LogFromContext(ctx, userID, security.EventTypeLogout, "logged out")
}

func (sl *SecurityLogger) LogAccountDeleted(ctx context.Context, userID uuid.UUID) {
	sl.LogFromContext(ctx, userID, security.EventTypeAccountDeleted, "account deleted")
}

func (sl *SecurityLogger) LogProjectJoined(ctx context.Context, userID, projectID uuid.UUID) {
	sl.LogFromContext(ctx, userID, security.EventTypeProjectJoined, "joined project "+projectID.String())
}

func (sl *SecurityLogger) LogProjectDeleted(ctx context.Context, userID, projectID uuid.UUID) {
	sl.LogFromContext(ctx, userID, security.EventTypeProjectDeleted, "deleted project "+projectID.String())
}

func (sl *SecurityLogger) LogMemberRemoved(ctx context.Context, userID, projectID, memberID uuid.UUID) {
	sl.LogFromContext(ctx, userID, security.EventTypeMemberRemoved,
		fmt.Sprintf("removed %s from project %s", memberID, projectID))
}

// LogIfDenied records permission denials carried by err
func (sl *SecurityLogger) LogIfDenied(ctx context.Context, userID uuid.UUID, method string, err error) {
	reason, ok := apperr.ForbiddenReason(err)
	if !ok || reason == apperr.ReasonUnauthenticated {
		return
	}
	sl.LogFromContext(ctx, userID, security.EventTypeAccessDenied, fmt.Sprintf("%s denied: %s", method, reason))
}
