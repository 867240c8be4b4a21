package taskboardv1

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
)

const (
	AuthServiceName    = "taskboard.v1.AuthService"
	ProjectServiceName = "taskboard.v1.ProjectService"
	TaskServiceName    = "taskboard.v1.TaskService"
)

// FullMethod returns the gRPC method path, e.g. /taskboard.v1.TaskService/MoveTask
func FullMethod(service, method string) string {
	return "/" + service + "/" + method
}

// unary builds a method descriptor that decodes Req, runs the interceptor
// chain and dispatches to call.
func unary[S any, Req any, Resp any](service, method string, call func(S, context.Context, *Req) (*Resp, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: method,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(S), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: FullMethod(service, method)}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(S), ctx, req.(*Req))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

func invoke[Resp any](ctx context.Context, cc grpc.ClientConnInterface, service, method string, in any, opts ...grpc.CallOption) (*Resp, error) {
	out := new(Resp)
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
	if err := cc.Invoke(ctx, FullMethod(service, method), in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// AuthService

type AuthServiceServer interface {
	Register(context.Context, *RegisterRequest) (*RegisterResponse, error)
	Login(context.Context, *LoginRequest) (*LoginResponse, error)
	Logout(context.Context, *LogoutRequest) (*emptypb.Empty, error)
	DeleteAccount(context.Context, *DeleteAccountRequest) (*emptypb.Empty, error)
}

type UnimplementedAuthServiceServer struct{}

func (UnimplementedAuthServiceServer) Register(context.Context, *RegisterRequest) (*RegisterResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method Register not implemented")
}
func (UnimplementedAuthServiceServer) Login(context.Context, *LoginRequest) (*LoginResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method Login not implemented")
}
func (UnimplementedAuthServiceServer) Logout(context.Context, *LogoutRequest) (*emptypb.Empty, error) {
	return nil, status.Error(codes.Unimplemented, "method Logout not implemented")
}
func (UnimplementedAuthServiceServer) DeleteAccount(context.Context, *DeleteAccountRequest) (*emptypb.Empty, error) {
	return nil, status.Error(codes.Unimplemented, "method DeleteAccount not implemented")
}

var AuthService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: AuthServiceName,
	HandlerType: (*AuthServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		unary(AuthServiceName, "Register", AuthServiceServer.Register),
		unary(AuthServiceName, "Login", AuthServiceServer.Login),
		unary(AuthServiceName, "Logout", AuthServiceServer.Logout),
		unary(AuthServiceName, "DeleteAccount", AuthServiceServer.DeleteAccount),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "taskboard/v1/auth.proto",
}

func RegisterAuthServiceServer(s grpc.ServiceRegistrar, srv AuthServiceServer) {
	s.RegisterService(&AuthService_ServiceDesc, srv)
}

type AuthServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewAuthServiceClient(cc grpc.ClientConnInterface) *AuthServiceClient {
	return &AuthServiceClient{cc: cc}
}

func (c *AuthServiceClient) Register(ctx context.Context, in *RegisterRequest, opts ...grpc.CallOption) (*RegisterResponse, error) {
	return invoke[RegisterResponse](ctx, c.cc, AuthServiceName, "Register", in, opts...)
}

func (c *AuthServiceClient) Login(ctx context.Context, in *LoginRequest, opts ...grpc.CallOption) (*LoginResponse, error) {
	return invoke[LoginResponse](ctx, c.cc, AuthServiceName, "Login", in, opts...)
}

func (c *AuthServiceClient) Logout(ctx context.Context, in *LogoutRequest, opts ...grpc.CallOption) (*emptypb.Empty, error) {
	return invoke[emptypb.Empty](ctx, c.cc, AuthServiceName, "Logout", in, opts...)
}

func (c *AuthServiceClient) DeleteAccount(ctx context.Context, in *DeleteAccountRequest, opts ...grpc.CallOption) (*emptypb.Empty, error) {
	return invoke[emptypb.Empty](ctx, c.cc, AuthServiceName, "DeleteAccount", in, opts...)
}

// ProjectService

type ProjectServiceServer interface {
	CreateProject(context.Context, *CreateProjectRequest) (*CreateProjectResponse, error)
	JoinProject(context.Context, *JoinProjectRequest) (*JoinProjectResponse, error)
	DeleteProject(context.Context, *DeleteProjectRequest) (*emptypb.Empty, error)
	RemoveMember(context.Context, *RemoveMemberRequest) (*emptypb.Empty, error)
	ListProjects(context.Context, *ListProjectsRequest) (*ListProjectsResponse, error)
	GetOverview(context.Context, *GetOverviewRequest) (*GetOverviewResponse, error)
}

type UnimplementedProjectServiceServer struct{}

func (UnimplementedProjectServiceServer) CreateProject(context.Context, *CreateProjectRequest) (*CreateProjectResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method CreateProject not implemented")
}
func (UnimplementedProjectServiceServer) JoinProject(context.Context, *JoinProjectRequest) (*JoinProjectResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method JoinProject not implemented")
}
func (UnimplementedProjectServiceServer) DeleteProject(context.Context, *DeleteProjectRequest) (*emptypb.Empty, error) {
	return nil, status.Error(codes.Unimplemented, "method DeleteProject not implemented")
}
func (UnimplementedProjectServiceServer) RemoveMember(context.Context, *RemoveMemberRequest) (*emptypb.Empty, error) {
	return nil, status.Error(codes.Unimplemented, "method RemoveMember not implemented")
}
func (UnimplementedProjectServiceServer) ListProjects(context.Context, *ListProjectsRequest) (*ListProjectsResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method ListProjects not implemented")
}
func (UnimplementedProjectServiceServer) GetOverview(context.Context, *GetOverviewRequest) (*GetOverviewResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method GetOverview not implemented")
}

var ProjectService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: ProjectServiceName,
	HandlerType: (*ProjectServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		unary(ProjectServiceName, "CreateProject", ProjectServiceServer.CreateProject),
		unary(ProjectServiceName, "JoinProject", ProjectServiceServer.JoinProject),
		unary(ProjectServiceName, "DeleteProject", ProjectServiceServer.DeleteProject),
		unary(ProjectServiceName, "RemoveMember", ProjectServiceServer.RemoveMember),
		unary(ProjectServiceName, "ListProjects", ProjectServiceServer.ListProjects),
		unary(ProjectServiceName, "GetOverview", ProjectServiceServer.GetOverview),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "taskboard/v1/project.proto",
}

func RegisterProjectServiceServer(s grpc.ServiceRegistrar, srv ProjectServiceServer) {
	s.RegisterService(&ProjectService_ServiceDesc, srv)
}

type ProjectServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewProjectServiceClient(cc grpc.ClientConnInterface) *ProjectServiceClient {
	return &ProjectServiceClient{cc: cc}
}

func (c *ProjectServiceClient) CreateProject(ctx context.Context, in *CreateProjectRequest, opts ...grpc.CallOption) (*CreateProjectResponse, error) {
	return invoke[CreateProjectResponse](ctx, c.cc, ProjectServiceName, "CreateProject", in, opts...)
}

func (c *ProjectServiceClient) JoinProject(ctx context.Context, in *JoinProjectRequest, opts ...grpc.CallOption) (*JoinProjectResponse, error) {
	return invoke[JoinProjectResponse](ctx, c.cc, ProjectServiceName, "JoinProject", in, opts...)
}

func (c *ProjectServiceClient) DeleteProject(ctx context.Context, in *DeleteProjectRequest, opts ...grpc.CallOption) (*emptypb.Empty, error) {
	return invoke[emptypb.Empty](ctx, c.cc, ProjectServiceName, "DeleteProject", in, opts...)
}

func (c *ProjectServiceClient) RemoveMember(ctx context.Context, in *RemoveMemberRequest, opts ...grpc.CallOption) (*emptypb.Empty, error) {
	return invoke[emptypb.Empty](ctx, c.cc, ProjectServiceName, "RemoveMember", in, opts...)
}

func (c *ProjectServiceClient) ListProjects(ctx context.Context, in *ListProjectsRequest, opts ...grpc.CallOption) (*ListProjectsResponse, error) {
	return invoke[ListProjectsResponse](ctx, c.cc, ProjectServiceName, "ListProjects", in, opts...)
}

func (c *ProjectServiceClient) GetOverview(ctx context.Context, in *GetOverviewRequest, opts ...grpc.CallOption) (*GetOverviewResponse, error) {
	return invoke[GetOverviewResponse](ctx, c.cc, ProjectServiceName, "GetOverview", in, opts...)
}

// TaskService

type TaskServiceServer interface {
	CreateTask(context.Context, *CreateTaskRequest) (*CreateTaskResponse, error)
	UpdateTask(context.Context, *UpdateTaskRequest) (*UpdateTaskResponse, error)
	MoveTask(context.Context, *MoveTaskRequest) (*MoveTaskResponse, error)
	DeleteTask(context.Context, *DeleteTaskRequest) (*emptypb.Empty, error)
	ListTasks(context.Context, *ListTasksRequest) (*ListTasksResponse, error)
}

type UnimplementedTaskServiceServer struct{}

func (UnimplementedTaskServiceServer) CreateTask(context.Context, *CreateTaskRequest) (*CreateTaskResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method CreateTask not implemented")
}
func (UnimplementedTaskServiceServer) UpdateTask(context.Context, *UpdateTaskRequest) (*UpdateTaskResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method UpdateTask not implemented")
}
func (UnimplementedTaskServiceServer) MoveTask(context.Context, *MoveTaskRequest) (*MoveTaskResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method MoveTask not implemented")
}
func (UnimplementedTaskServiceServer) DeleteTask(context.Context, *DeleteTaskRequest) (*emptypb.Empty, error) {
	return nil, status.Error(codes.Unimplemented, "method DeleteTask not implemented")
}
func (UnimplementedTaskServiceServer) ListTasks(context.Context, *ListTasksRequest) (*ListTasksResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method ListTasks not implemented")
}

var TaskService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: TaskServiceName,
	HandlerType: (*TaskServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		unary(TaskServiceName, "CreateTask", TaskServiceServer.CreateTask),
		unary(TaskServiceName, "UpdateTask", TaskServiceServer.UpdateTask),
		unary(TaskServiceName, "MoveTask", TaskServiceServer.MoveTask),
		unary(TaskServiceName, "DeleteTask", TaskServiceServer.DeleteTask),
		unary(TaskServiceName, "ListTasks", TaskServiceServer.ListTasks),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "taskboard/v1/task.proto",
}

func RegisterTaskServiceServer(s grpc.ServiceRegistrar, srv TaskServiceServer) {
	s.RegisterService(&TaskService_ServiceDesc, srv)
}

type TaskServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewTaskServiceClient(cc grpc.ClientConnInterface) *TaskServiceClient {
	return &TaskServiceClient{cc: cc}
}

func (c *TaskServiceClient) CreateTask(ctx context.Context, in *CreateTaskRequest, opts ...grpc.CallOption) (*CreateTaskResponse, error) {
	return invoke[CreateTaskResponse](ctx, c.cc, TaskServiceName, "CreateTask", in, opts...)
}

func (c *TaskServiceClient) UpdateTask(ctx context.Context, in *UpdateTaskRequest, opts ...grpc.CallOption) (*UpdateTaskResponse, error) {
	return invoke[UpdateTaskResponse](ctx, c.cc, TaskServiceName, "UpdateTask", in, opts...)
}

func (c *TaskServiceClient) MoveTask(ctx context.Context, in *MoveTaskRequest, opts ...grpc.CallOption) (*MoveTaskResponse, error) {
	return invoke[MoveTaskResponse](ctx, c.cc, TaskServiceName, "MoveTask", in, opts...)
}

func (c *TaskServiceClient) DeleteTask(ctx context.Context, in *DeleteTaskRequest, opts ...grpc.CallOption) (*emptypb.Empty, error) {
	return invoke[emptypb.Empty](ctx, c.cc, TaskServiceName, "DeleteTask", in, opts...)
}

func (c *TaskServiceClient) ListTasks(ctx context.Context, in *ListTasksRequest, opts ...grpc.CallOption) (*ListTasksResponse, error) {
	return invoke[ListTasksResponse](ctx, c.cc, TaskServiceName, "ListTasks", in, opts...)
}
