// pkg/security/event_types.go
package security

import "fmt"

// EventType constants for string-based event type handling
const (
	EventTypeRegistered     = "registered"
	EventTypeLoginSuccess   = "login_success"
	EventTypeLoginFailed    = "login_failed"
	EventTypeLogout         = "logout"
	EventTypeAccountDeleted = "account_deleted"
	EventTypeProjectJoined  = "project_joined"
	EventTypeProjectDeleted = "project_deleted"
	EventTypeMemberRemoved  = "member_removed"
	EventTypeAccessDenied   = "access_denied"
)

// Severity constants for string-based severity handling
const (
	SeverityLow    = "low"
	SeverityMedium = "medium"
	SeverityHigh   = "high"
)

var defaultSeverity = map[string]string{
	EventTypeRegistered:     SeverityLow,
	EventTypeLoginSuccess:   SeverityLow,
	EventTypeLoginFailed:    SeverityMedium,
	EventTypeLogout:         SeverityLow,
	EventTypeAccountDeleted: SeverityHigh,
	EventTypeProjectJoined:  SeverityLow,
	EventTypeProjectDeleted: SeverityHigh,
	EventTypeMemberRemoved:  SeverityMedium,
	EventTypeAccessDenied:   SeverityMedium,
}

// ParseEventType checks that eventType is known
func ParseEventType(eventType string) (string, error) {
	if _, ok := defaultSeverity[eventType]; !ok {
		return "", fmt.Errorf("unknown event type: %s", eventType)
	}
	return eventType, nil
}

// ParseSeverity checks that severity is known
func ParseSeverity(severity string) (string, error) {
	switch severity {
	case SeverityLow, SeverityMedium, SeverityHigh:
		return severity, nil
	default:
		return "", fmt.Errorf("unknown severity: %s", severity)
	}
}

// DefaultSeverity returns the severity an event is logged with
func DefaultSeverity(eventType string) string {
	if s, ok := defaultSeverity[eventType]; ok {
		return s
	}
	return SeverityMedium
}

// ValidEventTypes returns all valid event type strings
func ValidEventTypes() []string {
	return []string{
		EventTypeRegistered,
		EventTypeLoginSuccess,
		EventTypeLoginFailed,
		EventTypeLogout,
		EventTypeAccountDeleted,
		EventTypeProjectJoined,
		EventTypeProjectDeleted,
		EventTypeMemberRemoved,
		EventTypeAccessDenied,
	}
}
