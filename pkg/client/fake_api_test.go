package client

import (
	"context"
	"slices"
	"sync"

	"github.com/google/uuid"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	taskboardv1 "github.com/gurkanbulca/teamboard/api/taskboard/v1"
)

// fakeAPI is an in-memory BoardAPI that records every request
type fakeAPI struct {
	mu            sync.Mutex
	tasks         map[string]*taskboardv1.Task
	updates       []*taskboardv1.UpdateTaskRequest
	moves         []*taskboardv1.MoveTaskRequest
	overviewCalls int

	// fail, when set, rejects every mutation with this error
	fail error
	// gate, when set, holds UpdateTask until a value is received
	gate    chan struct{}
	waiting int
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{tasks: make(map[string]*taskboardv1.Task)}
}

// seed adds tasks to a project column in the given order
func (f *fakeAPI) seed(projectID, status string, titles ...string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var ids []string
	for _, title := range titles {
		t := &taskboardv1.Task{
			Id:        uuid.NewString(),
			ProjectId: projectID,
			Title:     title,
			Status:    status,
			Priority:  "medium",
			Position:  int32(len(f.columnLocked(projectID, status))),
		}
		f.tasks[t.Id] = t
		ids = append(ids, t.Id)
	}
	return ids
}

func (f *fakeAPI) setFail(err error) {
	f.mu.Lock()
	f.fail = err
	f.mu.Unlock()
}

func (f *fakeAPI) updateCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.updates)
}

func (f *fakeAPI) waitingCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.waiting
}

func (f *fakeAPI) sentTitles() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, u := range f.updates {
		if u.Title != nil {
			out = append(out, *u.Title)
		}
	}
	return out
}

func (f *fakeAPI) stored(id string) *taskboardv1.Task {
	f.mu.Lock()
	defer f.mu.Unlock()
	return clone(f.tasks[id])
}

func (f *fakeAPI) CreateTask(_ context.Context, req *taskboardv1.CreateTaskRequest) (*taskboardv1.CreateTaskResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail != nil {
		return nil, f.fail
	}
	t := &taskboardv1.Task{
		Id:        uuid.NewString(),
		ProjectId: req.ProjectId,
		Title:     req.Title,
		Status:    req.Status,
		Priority:  req.Priority,
		Position:  int32(len(f.columnLocked(req.ProjectId, req.Status))),
	}
	f.tasks[t.Id] = t
	return &taskboardv1.CreateTaskResponse{Task: clone(t)}, nil
}

func (f *fakeAPI) UpdateTask(_ context.Context, req *taskboardv1.UpdateTaskRequest) (*taskboardv1.UpdateTaskResponse, error) {
	f.mu.Lock()
	gate := f.gate
	f.waiting++
	f.mu.Unlock()
	if gate != nil {
		<-gate
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates = append(f.updates, req)
	if f.fail != nil {
		return nil, f.fail
	}
	t, ok := f.tasks[req.TaskId]
	if !ok {
		return nil, status.Error(codes.NotFound, "task not found")
	}
	if req.Title != nil {
		t.Title = *req.Title
	}
	if req.Description != nil {
		t.Description = *req.Description
	}
	if req.Priority != nil {
		t.Priority = *req.Priority
	}
	if req.Status != nil && *req.Status != t.Status {
		old := t.Status
		t.Position = int32(len(f.columnLocked(t.ProjectId, *req.Status)))
		t.Status = *req.Status
		f.renumberLocked(t.ProjectId, old)
	}
	return &taskboardv1.UpdateTaskResponse{Task: clone(t)}, nil
}

func (f *fakeAPI) MoveTask(_ context.Context, req *taskboardv1.MoveTaskRequest) (*taskboardv1.MoveTaskResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.moves = append(f.moves, req)
	if f.fail != nil {
		return nil, f.fail
	}
	t, ok := f.tasks[req.TaskId]
	if !ok {
		return nil, status.Error(codes.NotFound, "task not found")
	}

	old := t.Status
	var others []*taskboardv1.Task
	for _, x := range f.columnLocked(t.ProjectId, req.Status) {
		if x.Id != t.Id {
			others = append(others, x)
		}
	}
	slot := len(others)
	if req.Position != nil && int(*req.Position) < slot {
		slot = int(*req.Position)
	}
	column := slices.Insert(others, slot, t)
	t.Status = req.Status
	for i, x := range column {
		x.Position = int32(i)
	}
	f.renumberLocked(t.ProjectId, old)

	resp := &taskboardv1.MoveTaskResponse{Task: clone(t)}
	for _, x := range column {
		resp.Column = append(resp.Column, clone(x))
	}
	return resp, nil
}

func (f *fakeAPI) DeleteTask(_ context.Context, req *taskboardv1.DeleteTaskRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail != nil {
		return f.fail
	}
	t, ok := f.tasks[req.TaskId]
	if !ok {
		return status.Error(codes.NotFound, "task not found")
	}
	delete(f.tasks, req.TaskId)
	f.renumberLocked(t.ProjectId, t.Status)
	return nil
}

func (f *fakeAPI) ListTasks(_ context.Context, req *taskboardv1.ListTasksRequest) (*taskboardv1.ListTasksResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	resp := &taskboardv1.ListTasksResponse{}
	for _, t := range f.tasks {
		if t.ProjectId == req.ProjectId {
			resp.Tasks = append(resp.Tasks, clone(t))
		}
	}
	return resp, nil
}

func (f *fakeAPI) CreateProject(_ context.Context, name, color string) (*taskboardv1.Project, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail != nil {
		return nil, f.fail
	}
	return &taskboardv1.Project{Id: uuid.NewString(), Name: name, Color: color}, nil
}

func (f *fakeAPI) JoinProject(_ context.Context, code string) (*taskboardv1.JoinProjectResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail != nil {
		return nil, f.fail
	}
	return &taskboardv1.JoinProjectResponse{Project: &taskboardv1.Project{Id: uuid.NewString(), InvitationCode: code}, Joined: true}, nil
}

func (f *fakeAPI) DeleteProject(_ context.Context, projectID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail != nil {
		return f.fail
	}
	for id, t := range f.tasks {
		if t.ProjectId == projectID {
			delete(f.tasks, id)
		}
	}
	return nil
}

func (f *fakeAPI) RemoveMember(context.Context, string, string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fail
}

func (f *fakeAPI) GetOverview(context.Context) (*taskboardv1.GetOverviewResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.overviewCalls++
	return &taskboardv1.GetOverviewResponse{TasksAssignedCount: int32(len(f.tasks))}, nil
}

func (f *fakeAPI) columnLocked(projectID, status string) []*taskboardv1.Task {
	var out []*taskboardv1.Task
	for _, t := range f.tasks {
		if t.ProjectId == projectID && t.Status == status {
			out = append(out, t)
		}
	}
	slices.SortFunc(out, boardOrder)
	return out
}

func (f *fakeAPI) renumberLocked(projectID, status string) {
	for i, t := range f.columnLocked(projectID, status) {
		t.Position = int32(i)
	}
}
