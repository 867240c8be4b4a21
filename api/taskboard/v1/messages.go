// Package taskboardv1 defines the wire messages and gRPC services of the
// task board API. Messages travel as JSON (see codec.go).
package taskboardv1

import "time"

type User struct {
	Id     string `json:"id"`
	Handle string `json:"handle"`
}

type Project struct {
	Id             string    `json:"id"`
	OwnerId        string    `json:"owner_id"`
	Name           string    `json:"name"`
	Color          string    `json:"color"`
	InvitationCode string    `json:"invitation_code,omitempty"`
	TaskCount      int32     `json:"task_count"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Task dates are calendar days formatted as 2006-01-02.
type Task struct {
	Id          string    `json:"id"`
	ProjectId   string    `json:"project_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Status      string    `json:"status"`
	Priority    string    `json:"priority"`
	AssigneeId  string    `json:"assignee_id,omitempty"`
	StartDate   string    `json:"start_date,omitempty"`
	EndDate     string    `json:"end_date,omitempty"`
	Position    int32     `json:"position"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Auth

type RegisterRequest struct {
	Handle   string `json:"handle"`
	Password string `json:"password"`
}

type RegisterResponse struct {
	User *User `json:"user"`
}

type LoginRequest struct {
	Handle   string `json:"handle"`
	Password string `json:"password"`
}

type LoginResponse struct {
	User      *User     `json:"user"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

type LogoutRequest struct{}

type DeleteAccountRequest struct{}

// Projects

type CreateProjectRequest struct {
	Name  string `json:"name"`
	Color string `json:"color"`
}

type CreateProjectResponse struct {
	Project *Project `json:"project"`
}

type JoinProjectRequest struct {
	Code string `json:"code"`
}

type JoinProjectResponse struct {
	Project *Project `json:"project"`
	// Joined is false when the caller already belonged to the project.
	Joined bool `json:"joined"`
}

type DeleteProjectRequest struct {
	ProjectId string `json:"project_id"`
}

type RemoveMemberRequest struct {
	ProjectId string `json:"project_id"`
	UserId    string `json:"user_id"`
}

type ListProjectsRequest struct{}

type ListProjectsResponse struct {
	Projects []*Project `json:"projects"`
}

type GetOverviewRequest struct{}

type GetOverviewResponse struct {
	ProjectCount       int32   `json:"project_count"`
	CollaboratorCount  int32   `json:"collaborator_count"`
	TasksAssignedCount int32   `json:"tasks_assigned_count"`
	TasksAssigned      []*Task `json:"tasks_assigned"`
}

// Tasks

type CreateTaskRequest struct {
	ProjectId   string `json:"project_id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Status      string `json:"status,omitempty"`
	Priority    string `json:"priority,omitempty"`
	AssigneeId  string `json:"assignee_id,omitempty"`
	StartDate   string `json:"start_date,omitempty"`
	EndDate     string `json:"end_date,omitempty"`
}

type CreateTaskResponse struct {
	Task *Task `json:"task"`
}

// UpdateTaskRequest is partial: nil fields are left untouched. An empty
// string clears AssigneeId, StartDate and EndDate.
type UpdateTaskRequest struct {
	TaskId      string  `json:"task_id"`
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	Status      *string `json:"status,omitempty"`
	Priority    *string `json:"priority,omitempty"`
	AssigneeId  *string `json:"assignee_id,omitempty"`
	StartDate   *string `json:"start_date,omitempty"`
	EndDate     *string `json:"end_date,omitempty"`
}

type UpdateTaskResponse struct {
	Task *Task `json:"task"`
}

// MoveTaskRequest places a task in a column. A nil Position appends.
type MoveTaskRequest struct {
	TaskId   string `json:"task_id"`
	Status   string `json:"status"`
	Position *int32 `json:"position,omitempty"`
}

type MoveTaskResponse struct {
	Task *Task `json:"task"`
	// Column is the destination column after ordinals were re-derived.
	Column []*Task `json:"column"`
}

type DeleteTaskRequest struct {
	TaskId string `json:"task_id"`
}

type ListTasksRequest struct {
	ProjectId  string `json:"project_id"`
	Status     string `json:"status,omitempty"`
	AssigneeId string `json:"assignee_id,omitempty"`
}

type ListTasksResponse struct {
	Tasks []*Task `json:"tasks"`
}
