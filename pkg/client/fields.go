package client

import (
	"fmt"

	taskboardv1 "github.com/gurkanbulca/teamboard/api/taskboard/v1"
	"github.com/gurkanbulca/teamboard/internal/models"
)

// Field names one editable task attribute
type Field string

const (
	FieldTitle       Field = "title"
	FieldDescription Field = "description"
	FieldStatus      Field = "status"
	FieldPriority    Field = "priority"
	FieldAssignee    Field = "assignee_id"
	FieldStartDate   Field = "start_date"
	FieldEndDate     Field = "end_date"
)

// Fields is a partial task edit. An empty value clears the assignee and
// the dates.
type Fields map[Field]string

// normalized returns a copy with status and priority in canonical form
func (f Fields) normalized() (Fields, error) {
	out := make(Fields, len(f))
	for field, value := range f {
		switch field {
		case FieldStatus:
			st, err := models.ParseStatus(value)
			if err != nil {
				return nil, err
			}
			value = string(st)
		case FieldPriority:
			p, err := models.ParsePriority(value)
			if err != nil {
				return nil, err
			}
			value = string(p)
		case FieldTitle, FieldDescription, FieldAssignee, FieldStartDate, FieldEndDate:
		default:
			return nil, fmt.Errorf("unknown field %q", field)
		}
		out[field] = value
	}
	return out, nil
}

func (f Fields) merge(next Fields) {
	for field, value := range next {
		f[field] = value
	}
}

// request builds an update that carries only the fields present in f
func (f Fields) request(taskID string) *taskboardv1.UpdateTaskRequest {
	req := &taskboardv1.UpdateTaskRequest{TaskId: taskID}
	for field, value := range f {
		v := value
		switch field {
		case FieldTitle:
			req.Title = &v
		case FieldDescription:
			req.Description = &v
		case FieldStatus:
			req.Status = &v
		case FieldPriority:
			req.Priority = &v
		case FieldAssignee:
			req.AssigneeId = &v
		case FieldStartDate:
			req.StartDate = &v
		case FieldEndDate:
			req.EndDate = &v
		}
	}
	return req
}

func (f Fields) applyTo(t *taskboardv1.Task) {
	for field, value := range f {
		switch field {
		case FieldTitle:
			t.Title = value
		case FieldDescription:
			t.Description = value
		case FieldStatus:
			t.Status = value
		case FieldPriority:
			t.Priority = value
		case FieldAssignee:
			t.AssigneeId = value
		case FieldStartDate:
			t.StartDate = value
		case FieldEndDate:
			t.EndDate = value
		}
	}
}
