// Package client is the client side of the task board: a session-carrying
// gRPC wrapper, an optimistic local store that reconciles with server
// responses, and a coalescer that batches rapid field edits.
package client

import (
	"context"
	"fmt"
	"sync"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"

	taskboardv1 "github.com/gurkanbulca/teamboard/api/taskboard/v1"
)

// BoardAPI is the server surface the Store and Coalescer depend on
type BoardAPI interface {
	CreateProject(ctx context.Context, name, color string) (*taskboardv1.Project, error)
	JoinProject(ctx context.Context, code string) (*taskboardv1.JoinProjectResponse, error)
	DeleteProject(ctx context.Context, projectID string) error
	RemoveMember(ctx context.Context, projectID, userID string) error
	CreateTask(ctx context.Context, req *taskboardv1.CreateTaskRequest) (*taskboardv1.CreateTaskResponse, error)
	UpdateTask(ctx context.Context, req *taskboardv1.UpdateTaskRequest) (*taskboardv1.UpdateTaskResponse, error)
	MoveTask(ctx context.Context, req *taskboardv1.MoveTaskRequest) (*taskboardv1.MoveTaskResponse, error)
	DeleteTask(ctx context.Context, req *taskboardv1.DeleteTaskRequest) error
	ListTasks(ctx context.Context, req *taskboardv1.ListTasksRequest) (*taskboardv1.ListTasksResponse, error)
	GetOverview(ctx context.Context) (*taskboardv1.GetOverviewResponse, error)
}

// Client wraps a gRPC connection and attaches the session token to every call
type Client struct {
	conn     *grpc.ClientConn
	auth     *taskboardv1.AuthServiceClient
	projects *taskboardv1.ProjectServiceClient
	tasks    *taskboardv1.TaskServiceClient

	mu    sync.RWMutex
	token string
}

var _ BoardAPI = (*Client)(nil)

// Dial connects to addr without transport security. token may be empty
// until Login succeeds.
func Dial(addr, token string, opts ...grpc.DialOption) (*Client, error) {
	opts = append([]grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}, opts...)
	conn, err := grpc.NewClient(addr, opts...)
	if err != nil {
		return nil, fmt.Errorf("connect to %s: %w", addr, err)
	}
	c := New(conn, token)
	c.conn = conn
	return c, nil
}

// New wraps an existing connection
func New(cc grpc.ClientConnInterface, token string) *Client {
	return &Client{
		auth:     taskboardv1.NewAuthServiceClient(cc),
		projects: taskboardv1.NewProjectServiceClient(cc),
		tasks:    taskboardv1.NewTaskServiceClient(cc),
		token:    token,
	}
}

// Close releases the connection opened by Dial
func (c *Client) Close() error {
	if c.conn == nil {
		return nil
	}
	return c.conn.Close()
}

func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

func (c *Client) withSession(ctx context.Context) context.Context {
	token := c.Token()
	if token == "" {
		return ctx
	}
	return metadata.AppendToOutgoingContext(ctx, "authorization", "Bearer "+token)
}

// Auth

func (c *Client) Register(ctx context.Context, handle, password string) (*taskboardv1.User, error) {
	resp, err := c.auth.Register(ctx, &taskboardv1.RegisterRequest{Handle: handle, Password: password})
	if err != nil {
		return nil, err
	}
	return resp.User, nil
}

// Login starts a session and keeps its token for subsequent calls
func (c *Client) Login(ctx context.Context, handle, password string) (*taskboardv1.LoginResponse, error) {
	resp, err := c.auth.Login(ctx, &taskboardv1.LoginRequest{Handle: handle, Password: password})
	if err != nil {
		return nil, err
	}
	c.SetToken(resp.Token)
	return resp, nil
}

func (c *Client) Logout(ctx context.Context) error {
	if _, err := c.auth.Logout(c.withSession(ctx), &taskboardv1.LogoutRequest{}); err != nil {
		return err
	}
	c.SetToken("")
	return nil
}

func (c *Client) DeleteAccount(ctx context.Context) error {
	if _, err := c.auth.DeleteAccount(c.withSession(ctx), &taskboardv1.DeleteAccountRequest{}); err != nil {
		return err
	}
	c.SetToken("")
	return nil
}

// Projects

func (c *Client) CreateProject(ctx context.Context, name, color string) (*taskboardv1.Project, error) {
	resp, err := c.projects.CreateProject(c.withSession(ctx), &taskboardv1.CreateProjectRequest{Name: name, Color: color})
	if err != nil {
		return nil, err
	}
	return resp.Project, nil
}

func (c *Client) JoinProject(ctx context.Context, code string) (*taskboardv1.JoinProjectResponse, error) {
	return c.projects.JoinProject(c.withSession(ctx), &taskboardv1.JoinProjectRequest{Code: code})
}

func (c *Client) DeleteProject(ctx context.Context, projectID string) error {
	_, err := c.projects.DeleteProject(c.withSession(ctx), &taskboardv1.DeleteProjectRequest{ProjectId: projectID})
	return err
}

func (c *Client) RemoveMember(ctx context.Context, projectID, userID string) error {
	_, err := c.projects.RemoveMember(c.withSession(ctx), &taskboardv1.RemoveMemberRequest{ProjectId: projectID, UserId: userID})
	return err
}

func (c *Client) ListProjects(ctx context.Context) ([]*taskboardv1.Project, error) {
	resp, err := c.projects.ListProjects(c.withSession(ctx), &taskboardv1.ListProjectsRequest{})
	if err != nil {
		return nil, err
	}
	return resp.Projects, nil
}

func (c *Client) GetOverview(ctx context.Context) (*taskboardv1.GetOverviewResponse, error) {
	return c.projects.GetOverview(c.withSession(ctx), &taskboardv1.GetOverviewRequest{})
}

// Tasks

func (c *Client) CreateTask(ctx context.Context, req *taskboardv1.CreateTaskRequest) (*taskboardv1.CreateTaskResponse, error) {
	return c.tasks.CreateTask(c.withSession(ctx), req)
}

func (c *Client) UpdateTask(ctx context.Context, req *taskboardv1.UpdateTaskRequest) (*taskboardv1.UpdateTaskResponse, error) {
	return c.tasks.UpdateTask(c.withSession(ctx), req)
}

func (c *Client) MoveTask(ctx context.Context, req *taskboardv1.MoveTaskRequest) (*taskboardv1.MoveTaskResponse, error) {
	return c.tasks.MoveTask(c.withSession(ctx), req)
}

func (c *Client) DeleteTask(ctx context.Context, req *taskboardv1.DeleteTaskRequest) error {
	_, err := c.tasks.DeleteTask(c.withSession(ctx), req)
	return err
}

func (c *Client) ListTasks(ctx context.Context, req *taskboardv1.ListTasksRequest) (*taskboardv1.ListTasksResponse, error) {
	return c.tasks.ListTasks(c.withSession(ctx), req)
}
