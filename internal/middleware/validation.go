// internal/middleware/validation.go
package middleware

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	taskboardv1 "github.com/gurkanbulca/teamboard/api/taskboard/v1"
	"github.com/gurkanbulca/teamboard/internal/invite"
	"github.com/gurkanbulca/teamboard/internal/models"
)

// dateLayout is the wire format of task start and end dates
const dateLayout = "2006-01-02"

var (
	handleRegex = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)
	uuidRegex   = regexp.MustCompile(`^[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}$`)
	colorRegex  = regexp.MustCompile(`^(#[0-9a-fA-F]{6}|[a-z]+)$`)
)

// ValidationConfig holds validation configuration
type ValidationConfig struct {
	MinPasswordLength     int
	RequirePasswordUpper  bool
	RequirePasswordLower  bool
	RequirePasswordNumber bool
	MinHandleLength       int
	MaxHandleLength       int
	MaxProjectNameLength  int
	MaxColorLength        int
	MaxTitleLength        int
	MaxDescriptionLength  int
}

// DefaultValidationConfig returns default validation configuration
func DefaultValidationConfig() *ValidationConfig {
	return &ValidationConfig{
		MinPasswordLength:     8,
		RequirePasswordUpper:  true,
		RequirePasswordLower:  true,
		RequirePasswordNumber: true,
		MinHandleLength:       3,
		MaxHandleLength:       50,
		MaxProjectNameLength:  100,
		MaxColorLength:        32,
		MaxTitleLength:        200,
		MaxDescriptionLength:  5000,
	}
}

// EnhancedValidationInterceptor rejects malformed requests before they
// reach a service. Checks that need stored state stay in the services.
type EnhancedValidationInterceptor struct {
	config *ValidationConfig
}

// NewEnhancedValidationInterceptor creates a new enhanced validation interceptor
func NewEnhancedValidationInterceptor(config *ValidationConfig) *EnhancedValidationInterceptor {
	if config == nil {
		config = DefaultValidationConfig()
	}
	return &EnhancedValidationInterceptor{config: config}
}

// Unary returns a unary server interceptor for enhanced validation
func (v *EnhancedValidationInterceptor) Unary() grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req interface{},
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (interface{}, error) {
		if err := v.validateRequest(req); err != nil {
			return nil, err
		}
		return handler(ctx, req)
	}
}

// Stream passes streams through; the only streaming methods are health
// and reflection, which carry nothing to validate.
func (v *EnhancedValidationInterceptor) Stream() grpc.StreamServerInterceptor {
	return func(
		srv interface{},
		stream grpc.ServerStream,
		info *grpc.StreamServerInfo,
		handler grpc.StreamHandler,
	) error {
		return handler(srv, stream)
	}
}

// validateRequest validates different request types
func (v *EnhancedValidationInterceptor) validateRequest(req interface{}) error {
	var errs []string
	switch r := req.(type) {
	case *taskboardv1.RegisterRequest:
		errs = v.validateRegisterRequest(r)
	case *taskboardv1.LoginRequest:
		errs = v.validateLoginRequest(r)
	case *taskboardv1.CreateProjectRequest:
		errs = v.validateCreateProjectRequest(r)
	case *taskboardv1.JoinProjectRequest:
		errs = v.validateJoinProjectRequest(r)
	case *taskboardv1.DeleteProjectRequest:
		errs = requireUUID(nil, "project_id", r.ProjectId)
	case *taskboardv1.RemoveMemberRequest:
		errs = requireUUID(nil, "project_id", r.ProjectId)
		errs = requireUUID(errs, "user_id", r.UserId)
	case *taskboardv1.CreateTaskRequest:
		errs = v.validateCreateTaskRequest(r)
	case *taskboardv1.UpdateTaskRequest:
		errs = v.validateUpdateTaskRequest(r)
	case *taskboardv1.MoveTaskRequest:
		errs = v.validateMoveTaskRequest(r)
	case *taskboardv1.DeleteTaskRequest:
		errs = requireUUID(nil, "task_id", r.TaskId)
	case *taskboardv1.ListTasksRequest:
		errs = v.validateListTasksRequest(r)
	}

	if len(errs) > 0 {
		return status.Error(codes.InvalidArgument, strings.Join(errs, "; "))
	}
	return nil
}

// Auth

func (v *EnhancedValidationInterceptor) validateRegisterRequest(req *taskboardv1.RegisterRequest) []string {
	var errs []string
	if err := v.validateHandle(req.Handle); err != nil {
		errs = append(errs, fmt.Sprintf("handle: %s", err.Error()))
	}
	if err := v.validatePassword(req.Password); err != nil {
		errs = append(errs, fmt.Sprintf("password: %s", err.Error()))
	}
	return errs
}

func (v *EnhancedValidationInterceptor) validateLoginRequest(req *taskboardv1.LoginRequest) []string {
	var errs []string
	if req.Handle == "" {
		errs = append(errs, "handle is required")
	} else if len(req.Handle) > v.config.MaxHandleLength {
		errs = append(errs, fmt.Sprintf("handle too long (max %d characters)", v.config.MaxHandleLength))
	}
	if req.Password == "" {
		errs = append(errs, "password is required")
	}
	return errs
}

// Projects

func (v *EnhancedValidationInterceptor) validateCreateProjectRequest(req *taskboardv1.CreateProjectRequest) []string {
	var errs []string
	name := strings.TrimSpace(req.Name)
	if name == "" {
		errs = append(errs, "name is required")
	} else if len(name) > v.config.MaxProjectNameLength {
		errs = append(errs, fmt.Sprintf("name too long (max %d characters)", v.config.MaxProjectNameLength))
	}
	if req.Color != "" {
		if len(req.Color) > v.config.MaxColorLength || !colorRegex.MatchString(req.Color) {
			errs = append(errs, "color must be a lowercase name or #rrggbb")
		}
	}
	return errs
}

func (v *EnhancedValidationInterceptor) validateJoinProjectRequest(req *taskboardv1.JoinProjectRequest) []string {
	code := invite.Normalize(req.Code)
	if code == "" {
		return []string{"code is required"}
	}
	if !invite.ValidFormat(code) {
		return []string{fmt.Sprintf("code must be %d hexadecimal characters", invite.CodeLength)}
	}
	return nil
}

// Tasks

func (v *EnhancedValidationInterceptor) validateCreateTaskRequest(req *taskboardv1.CreateTaskRequest) []string {
	errs := requireUUID(nil, "project_id", req.ProjectId)

	if strings.TrimSpace(req.Title) == "" {
		errs = append(errs, "title is required")
	} else if len(req.Title) > v.config.MaxTitleLength {
		errs = append(errs, fmt.Sprintf("title too long (max %d characters)", v.config.MaxTitleLength))
	}
	if len(req.Description) > v.config.MaxDescriptionLength {
		errs = append(errs, fmt.Sprintf("description too long (max %d characters)", v.config.MaxDescriptionLength))
	}
	if req.Status != "" {
		if _, err := models.ParseStatus(req.Status); err != nil {
			errs = append(errs, err.Error())
		}
	}
	if req.Priority != "" {
		if _, err := models.ParsePriority(req.Priority); err != nil {
			errs = append(errs, err.Error())
		}
	}
	if req.AssigneeId != "" && !isValidUUID(req.AssigneeId) {
		errs = append(errs, "invalid assignee_id format")
	}
	errs = checkDate(errs, "start_date", req.StartDate)
	errs = checkDate(errs, "end_date", req.EndDate)
	return errs
}

func (v *EnhancedValidationInterceptor) validateUpdateTaskRequest(req *taskboardv1.UpdateTaskRequest) []string {
	errs := requireUUID(nil, "task_id", req.TaskId)

	if req.Title != nil {
		if strings.TrimSpace(*req.Title) == "" {
			errs = append(errs, "title cannot be empty")
		} else if len(*req.Title) > v.config.MaxTitleLength {
			errs = append(errs, fmt.Sprintf("title too long (max %d characters)", v.config.MaxTitleLength))
		}
	}
	if req.Description != nil && len(*req.Description) > v.config.MaxDescriptionLength {
		errs = append(errs, fmt.Sprintf("description too long (max %d characters)", v.config.MaxDescriptionLength))
	}
	if req.Status != nil {
		if _, err := models.ParseStatus(*req.Status); err != nil {
			errs = append(errs, err.Error())
		}
	}
	if req.Priority != nil {
		if _, err := models.ParsePriority(*req.Priority); err != nil {
			errs = append(errs, err.Error())
		}
	}
	if req.AssigneeId != nil && *req.AssigneeId != "" && !isValidUUID(*req.AssigneeId) {
		errs = append(errs, "invalid assignee_id format")
	}
	if req.StartDate != nil {
		errs = checkDate(errs, "start_date", *req.StartDate)
	}
	if req.EndDate != nil {
		errs = checkDate(errs, "end_date", *req.EndDate)
	}
	return errs
}

func (v *EnhancedValidationInterceptor) validateMoveTaskRequest(req *taskboardv1.MoveTaskRequest) []string {
	errs := requireUUID(nil, "task_id", req.TaskId)
	if _, err := models.ParseStatus(req.Status); err != nil {
		errs = append(errs, err.Error())
	}
	if req.Position != nil && *req.Position < 0 {
		errs = append(errs, "position cannot be negative")
	}
	return errs
}

func (v *EnhancedValidationInterceptor) validateListTasksRequest(req *taskboardv1.ListTasksRequest) []string {
	errs := requireUUID(nil, "project_id", req.ProjectId)
	if req.Status != "" {
		if _, err := models.ParseStatus(req.Status); err != nil {
			errs = append(errs, err.Error())
		}
	}
	if req.AssigneeId != "" && !isValidUUID(req.AssigneeId) {
		errs = append(errs, "invalid assignee_id format")
	}
	return errs
}

// Helper validation functions

func (v *EnhancedValidationInterceptor) validateHandle(handle string) error {
	if handle == "" {
		return fmt.Errorf("handle is required")
	}
	if len(handle) < v.config.MinHandleLength {
		return fmt.Errorf("handle too short (min %d characters)", v.config.MinHandleLength)
	}
	if len(handle) > v.config.MaxHandleLength {
		return fmt.Errorf("handle too long (max %d characters)", v.config.MaxHandleLength)
	}
	if !handleRegex.MatchString(handle) {
		return fmt.Errorf("handle can only contain letters, numbers, underscores, and hyphens")
	}
	return nil
}

func (v *EnhancedValidationInterceptor) validatePassword(password string) error {
	if password == "" {
		return fmt.Errorf("password is required")
	}
	if len(password) < v.config.MinPasswordLength {
		return fmt.Errorf("password too short (min %d characters)", v.config.MinPasswordLength)
	}

	var hasUpper, hasLower, hasNumber bool
	for _, char := range password {
		switch {
		case unicode.IsUpper(char):
			hasUpper = true
		case unicode.IsLower(char):
			hasLower = true
		case unicode.IsDigit(char):
			hasNumber = true
		}
	}

	var requirements []string
	if v.config.RequirePasswordUpper && !hasUpper {
		requirements = append(requirements, "uppercase letter")
	}
	if v.config.RequirePasswordLower && !hasLower {
		requirements = append(requirements, "lowercase letter")
	}
	if v.config.RequirePasswordNumber && !hasNumber {
		requirements = append(requirements, "number")
	}
	if len(requirements) > 0 {
		return fmt.Errorf("password must contain at least one %s", strings.Join(requirements, ", "))
	}
	return nil
}

func requireUUID(errs []string, field, value string) []string {
	if value == "" {
		return append(errs, field+" is required")
	}
	if !isValidUUID(value) {
		return append(errs, "invalid "+field+" format")
	}
	return errs
}

// checkDate accepts an empty value, which clears the date on update
func checkDate(errs []string, field, value string) []string {
	if value == "" {
		return errs
	}
	if _, err := time.Parse(dateLayout, value); err != nil {
		return append(errs, fmt.Sprintf("%s must be formatted as YYYY-MM-DD", field))
	}
	return errs
}

// isValidUUID checks if a string is a valid UUID format
func isValidUUID(s string) bool {
	return uuidRegex.MatchString(s)
}
