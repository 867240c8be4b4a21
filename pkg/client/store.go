package client

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/google/uuid"

	taskboardv1 "github.com/gurkanbulca/teamboard/api/taskboard/v1"
	"github.com/gurkanbulca/teamboard/internal/models"
)

var (
	ErrUnknownTask   = errors.New("task is not in the local store")
	ErrUnknownOp     = errors.New("no such pending operation")
	ErrOpSent        = errors.New("operation was already sent")
	ErrCreateFailed  = errors.New("the task's create was rejected")
	ErrBadPosition   = errors.New("position cannot be negative")
)

// OpError reports a pending operation the server rejected. The operation's
// optimistic effect has been rolled back by the time it is returned.
type OpError struct {
	Op     uuid.UUID
	TaskID string
	Err    error
}

func (e *OpError) Error() string {
	return fmt.Sprintf("operation %s on task %s: %v", e.Op, e.TaskID, e.Err)
}

func (e *OpError) Unwrap() error { return e.Err }

type opKind int

const (
	opCreate opKind = iota
	opUpdate
	opMove
	opDelete
)

type op struct {
	id     uuid.UUID
	kind   opKind
	taskID string
	sent   bool

	create   *taskboardv1.CreateTaskRequest
	fields   Fields
	status   string
	position *int32
}

type columnKey struct {
	projectID string
	status    string
}

func keyOf(t *taskboardv1.Task) columnKey {
	return columnKey{projectID: t.ProjectId, status: t.Status}
}

// Store is the client's view of the board. Confirmed state holds what the
// server last reported; pending operations are replayed on top of it in
// issue order to produce what the user sees. A failed operation simply
// leaves the log, so its effect disappears without touching confirmed
// state.
type Store struct {
	api BoardAPI

	mu        sync.Mutex
	confirmed map[string]*taskboardv1.Task
	log       []*op
	locals    map[string]bool          // task ids minted for optimistic creates
	aliases   map[string]string        // local id -> server id once created
	creating  map[string]chan struct{} // closed when a local task's create settles

	overview    *taskboardv1.GetOverviewResponse
	overviewGen uint64
}

func NewStore(api BoardAPI) *Store {
	return &Store{
		api:       api,
		confirmed: make(map[string]*taskboardv1.Task),
		locals:    make(map[string]bool),
		aliases:   make(map[string]string),
		creating:  make(map[string]chan struct{}),
	}
}

// Load replaces the confirmed tasks of a project with the server's copy.
// Pending operations survive and keep overlaying the fresh state.
func (s *Store) Load(ctx context.Context, projectID string) error {
	resp, err := s.api.ListTasks(ctx, &taskboardv1.ListTasksRequest{ProjectId: projectID})
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for id, t := range s.confirmed {
		if t.ProjectId == projectID {
			delete(s.confirmed, id)
		}
	}
	for _, t := range resp.Tasks {
		s.confirmed[t.Id] = clone(t)
	}
	return nil
}

// Stage records an optimistic edit and returns its correlation id
func (s *Store) Stage(taskID string, fields Fields) (uuid.UUID, error) {
	norm, err := fields.normalized()
	if err != nil {
		return uuid.Nil, err
	}
	if title, ok := norm[FieldTitle]; ok && strings.TrimSpace(title) == "" {
		return uuid.Nil, errors.New("title must not be empty")
	}
	return s.append(&op{kind: opUpdate, taskID: taskID, fields: norm})
}

// Amend folds more fields into an update that has not been sent yet
func (s *Store) Amend(id uuid.UUID, fields Fields) error {
	norm, err := fields.normalized()
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	o := s.findLocked(id)
	switch {
	case o == nil || o.kind != opUpdate:
		return ErrUnknownOp
	case o.sent:
		return ErrOpSent
	}
	o.fields.merge(norm)
	return nil
}

// StageCreate records an optimistic create. The returned task id is local
// until the create commits; it keeps resolving to the server's task after.
func (s *Store) StageCreate(req *taskboardv1.CreateTaskRequest) (string, uuid.UUID, error) {
	if strings.TrimSpace(req.Title) == "" {
		return "", uuid.Nil, errors.New("title must not be empty")
	}
	if req.ProjectId == "" {
		return "", uuid.Nil, errors.New("project id is required")
	}

	create := *req
	create.Status = string(models.StatusBacklog)
	if req.Status != "" {
		st, err := models.ParseStatus(req.Status)
		if err != nil {
			return "", uuid.Nil, err
		}
		create.Status = string(st)
	}
	create.Priority = string(models.PriorityMedium)
	if req.Priority != "" {
		p, err := models.ParsePriority(req.Priority)
		if err != nil {
			return "", uuid.Nil, err
		}
		create.Priority = string(p)
	}

	localID := uuid.NewString()
	o := &op{id: uuid.New(), kind: opCreate, taskID: localID, create: &create}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.locals[localID] = true
	s.creating[localID] = make(chan struct{})
	s.log = append(s.log, o)
	return localID, o.id, nil
}

// StageMove records an optimistic column move. A nil position appends.
func (s *Store) StageMove(taskID, status string, position *int32) (uuid.UUID, error) {
	st, err := models.ParseStatus(status)
	if err != nil {
		return uuid.Nil, err
	}
	if position != nil && *position < 0 {
		return uuid.Nil, ErrBadPosition
	}
	return s.append(&op{kind: opMove, taskID: taskID, status: string(st), position: position})
}

func (s *Store) StageDelete(taskID string) (uuid.UUID, error) {
	return s.append(&op{kind: opDelete, taskID: taskID})
}

func (s *Store) append(o *op) (uuid.UUID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.replayLocked()[s.resolve(o.taskID)]; !ok {
		return uuid.Nil, ErrUnknownTask
	}
	o.id = uuid.New()
	s.log = append(s.log, o)
	return o.id, nil
}

// Commit sends the given operations in the order they were staged. Each
// success is folded into confirmed state; each failure is rolled back and
// reported as an *OpError. An operation on a task whose create is pending
// outside this batch waits for that create to settle, or for ctx.
func (s *Store) Commit(ctx context.Context, ids ...uuid.UUID) error {
	batch, errs := s.claim(ids)
	for _, c := range batch {
		if err := s.await(ctx, c); err != nil {
			errs = append(errs, &OpError{Op: c.op.id, TaskID: c.op.taskID, Err: err})
			continue
		}
		if err := s.send(ctx, c.op); err != nil {
			errs = append(errs, &OpError{Op: c.op.id, TaskID: c.op.taskID, Err: err})
		}
	}
	return errors.Join(errs...)
}

// claimed is an operation taken for sending. created, when set, is closed
// once the create of the operation's task settles.
type claimed struct {
	op      *op
	created chan struct{}
}

func (s *Store) await(ctx context.Context, c claimed) error {
	if c.created == nil {
		return nil
	}
	select {
	case <-c.created:
		return nil
	case <-ctx.Done():
		s.settle(c.op, ctx.Err(), nil)
		return ctx.Err()
	}
}

// claim marks the requested operations as sent
func (s *Store) claim(ids []uuid.UUID) ([]claimed, []error) {
	want := make(map[uuid.UUID]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var (
		batch   []claimed
		errs    []error
		created = map[string]bool{}
	)
	for _, o := range s.log {
		if !want[o.id] {
			continue
		}
		delete(want, o.id)
		if o.sent {
			errs = append(errs, &OpError{Op: o.id, TaskID: o.taskID, Err: ErrOpSent})
			continue
		}
		c := claimed{op: o}
		if o.kind == opCreate {
			created[o.taskID] = true
		} else if ch, ok := s.creating[o.taskID]; ok && !created[o.taskID] {
			c.created = ch
		}
		o.sent = true
		batch = append(batch, c)
	}
	for id := range want {
		errs = append(errs, &OpError{Op: id, Err: ErrUnknownOp})
	}
	return batch, errs
}

func (s *Store) send(ctx context.Context, o *op) error {
	if o.kind == opCreate {
		resp, err := s.api.CreateTask(ctx, o.create)
		s.settle(o, err, func() {
			s.confirmed[resp.Task.Id] = clone(resp.Task)
			s.aliases[o.taskID] = resp.Task.Id
		})
		s.mu.Lock()
		if ch, ok := s.creating[o.taskID]; ok {
			close(ch)
			delete(s.creating, o.taskID)
		}
		s.mu.Unlock()
		return err
	}

	s.mu.Lock()
	taskID := s.resolve(o.taskID)
	unresolved := s.locals[taskID]
	s.mu.Unlock()
	if unresolved {
		s.settle(o, ErrCreateFailed, nil)
		return ErrCreateFailed
	}

	var err error
	switch o.kind {
	case opUpdate:
		var resp *taskboardv1.UpdateTaskResponse
		resp, err = s.api.UpdateTask(ctx, o.fields.request(taskID))
		s.settle(o, err, func() {
			prev := s.confirmed[taskID]
			s.confirmed[taskID] = clone(resp.Task)
			if prev != nil && prev.Status != resp.Task.Status {
				s.compactLocked(keyOf(prev))
			}
		})
	case opMove:
		var resp *taskboardv1.MoveTaskResponse
		resp, err = s.api.MoveTask(ctx, &taskboardv1.MoveTaskRequest{TaskId: taskID, Status: o.status, Position: o.position})
		s.settle(o, err, func() {
			prev := s.confirmed[taskID]
			for _, t := range resp.Column {
				s.confirmed[t.Id] = clone(t)
			}
			s.confirmed[taskID] = clone(resp.Task)
			if prev != nil && prev.Status != resp.Task.Status {
				s.compactLocked(keyOf(prev))
			}
		})
	case opDelete:
		err = s.api.DeleteTask(ctx, &taskboardv1.DeleteTaskRequest{TaskId: taskID})
		s.settle(o, err, func() {
			if prev := s.confirmed[taskID]; prev != nil {
				delete(s.confirmed, taskID)
				s.compactLocked(keyOf(prev))
			}
		})
	}
	return err
}

// settle removes o from the log. On success fold updates confirmed state
// and the cached overview is dropped; on failure nothing else changes.
func (s *Store) settle(o *op, err error, fold func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.log = slices.DeleteFunc(s.log, func(x *op) bool { return x == o })
	if err != nil || fold == nil {
		return
	}
	fold()
	s.overview = nil
	s.overviewGen++
}

// Create stages and commits a new task, returning the server's copy
func (s *Store) Create(ctx context.Context, req *taskboardv1.CreateTaskRequest) (*taskboardv1.Task, error) {
	localID, id, err := s.StageCreate(req)
	if err != nil {
		return nil, err
	}
	if err := s.Commit(ctx, id); err != nil {
		return nil, err
	}
	t, _ := s.Task(localID)
	return t, nil
}

func (s *Store) Update(ctx context.Context, taskID string, fields Fields) error {
	id, err := s.Stage(taskID, fields)
	if err != nil {
		return err
	}
	return s.Commit(ctx, id)
}

func (s *Store) Move(ctx context.Context, taskID, status string, position *int32) error {
	id, err := s.StageMove(taskID, status, position)
	if err != nil {
		return err
	}
	return s.Commit(ctx, id)
}

func (s *Store) Delete(ctx context.Context, taskID string) error {
	id, err := s.StageDelete(taskID)
	if err != nil {
		return err
	}
	return s.Commit(ctx, id)
}

// Pending returns the number of operations not yet settled
func (s *Store) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.log)
}

// Task returns the task as the user sees it, pending edits included
func (s *Store) Task(id string) (*taskboardv1.Task, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.replayLocked()[s.resolve(id)]
	return t, ok
}

// Confirmed returns the server's last reported copy of a task
func (s *Store) Confirmed(id string) (*taskboardv1.Task, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.confirmed[s.resolve(id)]
	if !ok {
		return nil, false
	}
	return clone(t), true
}

// Column returns one column of a project in board order
func (s *Store) Column(projectID, status string) []*taskboardv1.Task {
	if st, err := models.ParseStatus(status); err == nil {
		status = string(st)
	}
	return s.Tasks(projectID, func(t *taskboardv1.Task) bool { return t.Status == status })
}

// Tasks returns the project's tasks ordered by column then position.
// Optional filters narrow the result.
func (s *Store) Tasks(projectID string, filters ...func(*taskboardv1.Task) bool) []*taskboardv1.Task {
	s.mu.Lock()
	view := s.replayLocked()
	s.mu.Unlock()

	var out []*taskboardv1.Task
	for _, t := range view {
		if t.ProjectId != projectID {
			continue
		}
		keep := true
		for _, f := range filters {
			keep = keep && f(t)
		}
		if keep {
			out = append(out, t)
		}
	}
	slices.SortFunc(out, boardOrder)
	return out
}

// Overview returns the dashboard aggregates, fetching them only when no
// committed mutation has happened since the last fetch.
func (s *Store) Overview(ctx context.Context) (*taskboardv1.GetOverviewResponse, error) {
	s.mu.Lock()
	if s.overview != nil {
		cached := s.overview
		s.mu.Unlock()
		return cached, nil
	}
	gen := s.overviewGen
	s.mu.Unlock()

	resp, err := s.api.GetOverview(ctx)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	if s.overviewGen == gen {
		s.overview = resp
	}
	s.mu.Unlock()
	return resp, nil
}

// InvalidateOverview drops the cached aggregates
func (s *Store) InvalidateOverview() {
	s.mu.Lock()
	s.overview = nil
	s.overviewGen++
	s.mu.Unlock()
}

// Project mutations are not optimistic. Each success changes the overview
// aggregates, so the cache is dropped; a rejected call leaves it alone.

func (s *Store) CreateProject(ctx context.Context, name, color string) (*taskboardv1.Project, error) {
	p, err := s.api.CreateProject(ctx, name, color)
	if err != nil {
		return nil, err
	}
	s.InvalidateOverview()
	return p, nil
}

func (s *Store) JoinProject(ctx context.Context, code string) (*taskboardv1.JoinProjectResponse, error) {
	resp, err := s.api.JoinProject(ctx, code)
	if err != nil {
		return nil, err
	}
	if resp.Joined {
		s.InvalidateOverview()
	}
	return resp, nil
}

// DeleteProject also forgets the project's confirmed tasks
func (s *Store) DeleteProject(ctx context.Context, projectID string) error {
	if err := s.api.DeleteProject(ctx, projectID); err != nil {
		return err
	}
	s.mu.Lock()
	for id, t := range s.confirmed {
		if t.ProjectId == projectID {
			delete(s.confirmed, id)
		}
	}
	s.mu.Unlock()
	s.InvalidateOverview()
	return nil
}

func (s *Store) RemoveMember(ctx context.Context, projectID, userID string) error {
	if err := s.api.RemoveMember(ctx, projectID, userID); err != nil {
		return err
	}
	s.InvalidateOverview()
	return nil
}

func (s *Store) findLocked(id uuid.UUID) *op {
	for _, o := range s.log {
		if o.id == id {
			return o
		}
	}
	return nil
}

func (s *Store) resolve(id string) string {
	if server, ok := s.aliases[id]; ok {
		return server
	}
	return id
}

func (s *Store) compactLocked(key columnKey) {
	var column []*taskboardv1.Task
	for _, t := range s.confirmed {
		if keyOf(t) == key {
			column = append(column, t)
		}
	}
	slices.SortFunc(column, boardOrder)
	for i, t := range column {
		t.Position = int32(i)
	}
}

// replayLocked applies the pending log to a copy of confirmed state
func (s *Store) replayLocked() map[string]*taskboardv1.Task {
	tasks := make(map[string]*taskboardv1.Task, len(s.confirmed))
	ordered := make([]*taskboardv1.Task, 0, len(s.confirmed))
	for id, t := range s.confirmed {
		c := clone(t)
		tasks[id] = c
		ordered = append(ordered, c)
	}
	slices.SortFunc(ordered, boardOrder)

	columns := make(map[columnKey][]string)
	for _, t := range ordered {
		columns[keyOf(t)] = append(columns[keyOf(t)], t.Id)
	}

	for _, o := range s.log {
		id := s.resolve(o.taskID)
		if o.kind == opCreate {
			if _, ok := tasks[id]; ok {
				continue
			}
			t := taskFromCreate(id, o.create)
			tasks[id] = t
			columns[keyOf(t)] = append(columns[keyOf(t)], id)
			continue
		}

		t, ok := tasks[id]
		if !ok {
			continue
		}
		from := keyOf(t)
		switch o.kind {
		case opUpdate:
			o.fields.applyTo(t)
			if to := keyOf(t); to != from {
				columns[from] = without(columns[from], id)
				columns[to] = append(columns[to], id)
			}
		case opMove:
			columns[from] = without(columns[from], id)
			t.Status = o.status
			to := keyOf(t)
			slot := len(columns[to])
			if o.position != nil && int(*o.position) < slot {
				slot = int(*o.position)
			}
			columns[to] = slices.Insert(columns[to], slot, id)
		case opDelete:
			columns[from] = without(columns[from], id)
			delete(tasks, id)
		}
	}

	for _, ids := range columns {
		for i, id := range ids {
			tasks[id].Position = int32(i)
		}
	}
	return tasks
}

func taskFromCreate(id string, req *taskboardv1.CreateTaskRequest) *taskboardv1.Task {
	return &taskboardv1.Task{
		Id:          id,
		ProjectId:   req.ProjectId,
		Title:       strings.TrimSpace(req.Title),
		Description: req.Description,
		Status:      req.Status,
		Priority:    req.Priority,
		AssigneeId:  req.AssigneeId,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
	}
}

func boardOrder(a, b *taskboardv1.Task) int {
	return cmp.Or(
		cmp.Compare(a.ProjectId, b.ProjectId),
		cmp.Compare(models.Status(a.Status).Rank(), models.Status(b.Status).Rank()),
		cmp.Compare(a.Position, b.Position),
		cmp.Compare(a.Id, b.Id),
	)
}

func without(ids []string, id string) []string {
	return slices.DeleteFunc(ids, func(x string) bool { return x == id })
}

func clone(t *taskboardv1.Task) *taskboardv1.Task {
	c := *t
	return &c
}
